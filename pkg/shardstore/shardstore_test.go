package shardstore

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/lintang-b-s/osm-geocoder/pkg/compress"
	"github.com/lintang-b-s/osm-geocoder/pkg/kvdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestShardOf(t *testing.T) {
	for _, level := range []int{0, 1, 2, 3} {
		mod := uint64(1) << (4 * uint(level))
		for _, key := range []uint64{0, 1, 255, 1 << 40, ^uint64(0)} {
			assert.Less(t, ShardOf(key, level), mod)
			assert.Equal(t, ShardOf(key, level), ShardOf(key, level))
		}
	}
}

func TestWriterStore(t *testing.T) {
	ctx := context.Background()
	backend := kvdb.NewMemory()

	w := NewWriter(backend, compress.ZSTD, 2)
	for i := uint64(0); i < 1000; i++ {
		w.Put("place", KindGrid, i*7919, []byte{byte(i), byte(i >> 8)})
	}
	w.Put("country", KindFreq, 0, []byte{42})
	w.PutBlob("place", BlobDict, []byte("fst bytes"))
	require.NoError(t, w.Flush(ctx))

	store, err := Open(ctx, backend, 1<<20, zap.NewNop())
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, Meta{ShardLevel: 2, Codec: "zstd", Layers: []string{"country", "place"}}, store.Meta())

	t.Run("get", func(t *testing.T) {
		v, err := store.Get(ctx, "place", KindGrid, 7919*3)
		require.NoError(t, err)
		assert.Equal(t, []byte{3, 0}, v)

		v, err = store.Get(ctx, "place", KindGrid, 5)
		require.NoError(t, err)
		assert.Nil(t, v)

		v, err = store.Get(ctx, "country", KindFreq, 0)
		require.NoError(t, err)
		assert.Equal(t, []byte{42}, v)
	})

	t.Run("get all", func(t *testing.T) {
		got, err := store.GetAll(ctx, "place", KindGrid, []uint64{0, 7919, 7919 * 999, 12345})
		require.NoError(t, err)
		assert.Len(t, got, 3)
		assert.Equal(t, []byte{0xe7, 0x03}, got[7919*999])
		_, ok := got[12345]
		assert.False(t, ok)
	})

	t.Run("missing layer", func(t *testing.T) {
		got, err := store.GetAll(ctx, "region", KindGrid, []uint64{1, 2})
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("blob", func(t *testing.T) {
		v, err := store.GetBlob(ctx, "place", BlobDict)
		require.NoError(t, err)
		assert.Equal(t, []byte("fst bytes"), v)

		v, err = store.GetBlob(ctx, "place", BlobBitcache)
		require.NoError(t, err)
		assert.Nil(t, v)
	})
}

func TestOpenWithoutMeta(t *testing.T) {
	_, err := Open(context.Background(), kvdb.NewMemory(), 0, zap.NewNop())
	assert.ErrorIs(t, err, ErrMetaNotFound)
}

type failingBackend struct {
	*kvdb.Memory
}

var errBackend = errors.New("backend down")

func (f failingBackend) Get(ctx context.Context, key string) ([]byte, error) {
	if key == metaKey {
		return f.Memory.Get(ctx, key)
	}
	return nil, errBackend
}

func TestStoreBackendError(t *testing.T) {
	ctx := context.Background()
	mem := kvdb.NewMemory()
	w := NewWriter(mem, compress.None, 1)
	w.Put("place", KindGrid, 1, []byte{1})
	require.NoError(t, w.Flush(ctx))

	store, err := Open(ctx, failingBackend{mem}, 0, zap.NewNop())
	require.NoError(t, err)

	_, err = store.GetAll(ctx, "place", KindGrid, []uint64{1})
	assert.ErrorIs(t, err, errBackend)
}

// gatedBackend tahan Get shard grid sampai release di close, lalu catat error context nya.
type gatedBackend struct {
	kvdb.Backend
	started chan struct{}
	release chan struct{}
	ctxErr  chan error
}

func (b *gatedBackend) Get(ctx context.Context, key string) ([]byte, error) {
	if strings.Contains(key, "/"+string(KindGrid)+"/") {
		select {
		case b.started <- struct{}{}:
		default:
		}
		<-b.release
		b.ctxErr <- ctx.Err()
	}
	return b.Backend.Get(ctx, key)
}

func TestLoadShardCallerCancel(t *testing.T) {
	ctx := context.Background()
	mem := kvdb.NewMemory()
	w := NewWriter(mem, compress.ZSTD, 1)
	w.Put("place", KindGrid, 7, []byte{7})
	require.NoError(t, w.Flush(ctx))

	backend := &gatedBackend{
		Backend: mem,
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
		ctxErr:  make(chan error, 4),
	}
	store, err := Open(ctx, backend, 1<<20, zap.NewNop())
	require.NoError(t, err)
	defer store.Close()

	callerCtx, cancel := context.WithCancel(ctx)
	errc := make(chan error, 1)
	go func() {
		_, err := store.Get(callerCtx, "place", KindGrid, 7)
		errc <- err
	}()
	<-backend.started
	cancel()
	assert.ErrorIs(t, <-errc, context.Canceled)

	// load shard tetap selesai dengan context yang tidak batal
	close(backend.release)
	assert.NoError(t, <-backend.ctxErr)

	v, err := store.Get(ctx, "place", KindGrid, 7)
	require.NoError(t, err)
	assert.Equal(t, []byte{7}, v)
}
