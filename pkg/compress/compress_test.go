package compress

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeGridList(t *testing.T) {
	tests := []struct {
		name    string
		entries []uint64
		want    []uint64
	}{
		{
			name:    "already sorted desc",
			entries: []uint64{10, 9, 8, 7, 6, 5, 4, 3, 2, 1},
			want:    []uint64{10, 9, 8, 7, 6, 5, 4, 3, 2, 1},
		},
		{
			name:    "unsorted",
			entries: []uint64{1300, 1, 1500, 100},
			want:    []uint64{1500, 1300, 100, 1},
		},
		{
			name:    "wide grid entries",
			entries: []uint64{1 << 61, 1<<46 | 1<<30 | 7, 1<<61 | 1<<28 | 12},
			want:    []uint64{1<<61 | 1<<28 | 12, 1 << 61, 1<<46 | 1<<30 | 7},
		},
		{
			name:    "empty",
			entries: []uint64{},
			want:    []uint64{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded := EncodeGridList(tt.entries)
			decoded, err := DecodeGridList(encoded)
			require.NoError(t, err)
			assert.Equal(t, tt.want, decoded)
		})
	}

	t.Run("truncated", func(t *testing.T) {
		encoded := EncodeGridList([]uint64{1 << 40})
		_, err := DecodeGridList(encoded[:len(encoded)-1])
		assert.ErrorIs(t, err, ErrTruncatedVarint)
	})
}

func TestEncodeDecodeIDList(t *testing.T) {
	tests := []struct {
		ids  []uint64
		want []uint64
	}{
		{ids: []uint64{1, 2, 3, 4, 5}, want: []uint64{1, 2, 3, 4, 5}},
		{ids: []uint64{1000000, 10, 1200000}, want: []uint64{10, 1000000, 1200000}},
		{ids: []uint64{^uint64(0), 0}, want: []uint64{0, ^uint64(0)}},
	}

	for _, tt := range tests {
		t.Run("id list", func(t *testing.T) {
			decoded, err := DecodeIDList(EncodeIDList(tt.ids))
			require.NoError(t, err)
			assert.Equal(t, tt.want, decoded)
		})
	}
}

func TestBlock(t *testing.T) {
	compressible := bytes.Repeat([]byte("jalan sudirman jakarta "), 200)
	random := []byte{0x9f, 0x12, 0x77, 0x03, 0xee, 0x41}

	tests := []struct {
		name  string
		codec Codec
		data  []byte
	}{
		{name: "zstd", codec: ZSTD, data: compressible},
		{name: "lz4", codec: LZ4, data: compressible},
		{name: "none", codec: None, data: compressible},
		{name: "incompressible zstd", codec: ZSTD, data: random},
		{name: "incompressible lz4", codec: LZ4, data: random},
		{name: "empty", codec: ZSTD, data: []byte{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			block, err := CompressBlock(tt.data, tt.codec)
			require.NoError(t, err)
			if tt.codec != None && len(tt.data) > 100 {
				assert.Less(t, len(block), len(tt.data))
			}

			decoded, err := DecompressBlock(block)
			require.NoError(t, err)
			assert.Equal(t, tt.data, decoded)
		})
	}

	t.Run("too small", func(t *testing.T) {
		_, err := DecompressBlock([]byte{2, 0})
		assert.ErrorIs(t, err, ErrBlockTooSmall)
	})

	t.Run("parse codec", func(t *testing.T) {
		c, err := ParseCodec("ZSTD")
		require.NoError(t, err)
		assert.Equal(t, ZSTD, c)
		assert.Equal(t, "zstd", c.String())

		_, err = ParseCodec("snappy")
		assert.ErrorIs(t, err, ErrUnknownCodec)
	})
}
