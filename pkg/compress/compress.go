package compress

import (
	"encoding/binary"
	"errors"
	"sort"
	"sync"
)

var (
	ErrTruncatedVarint = errors.New("truncated uvarint")
)

var BITMASK = []byte{
	0b00000001,
	0b00000011,
	0b00000111,
	0b00001111,
	0b00011111,
	0b00111111,
	0b01111111,
	0b11111111,
}

func getLSB(x byte, n uint8) byte {
	if n > 8 {
		panic("can extract at max 8 bits from the number")
	}
	return x & BITMASK[n-1]
}

var bitShifts = [10]uint8{7, 7, 7, 7, 7, 7, 7, 7, 7, 1}

var bufPool = sync.Pool{
	New: func() any {
		return new([11]byte)
	},
}

// appendUVarint append x ke dst dalam format LEB128.
func appendUVarint(dst []byte, x uint64) []byte {
	var i int = 0
	buf := bufPool.Get().(*[11]byte)
	for i = 0; i < len(bitShifts); i++ {
		buf[i] = getLSB(byte(x), bitShifts[i]) | 0b10000000
		x = x >> bitShifts[i]
		if x == 0 {
			break
		}
	}

	buf[i] = buf[i] & 0b01111111
	dst = append(dst, buf[:i+1]...)
	bufPool.Put(buf)
	return dst
}

// EncodeGridList sort entries desc lalu simpan selisih antar entry sebagai uvarint.
func EncodeGridList(entries []uint64) []byte {
	sorted := make([]uint64, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] > sorted[j] })

	buf := make([]byte, 0, len(sorted)*4)
	var prev uint64
	for i, v := range sorted {
		if i == 0 {
			buf = appendUVarint(buf, v)
		} else {
			buf = appendUVarint(buf, prev-v)
		}
		prev = v
	}
	return buf
}

// DecodeGridList kebalikan EncodeGridList, urutan desc.
func DecodeGridList(buf []byte) ([]uint64, error) {
	results := make([]uint64, 0, len(buf)/4)
	var prev uint64
	for len(buf) > 0 {
		v, n := binary.Uvarint(buf)
		if n <= 0 {
			return nil, ErrTruncatedVarint
		}
		if len(results) == 0 {
			prev = v
		} else {
			prev -= v
		}
		results = append(results, prev)
		buf = buf[n:]
	}
	return results, nil
}

// EncodeIDList delta encoded ascending id list, dipakai untuk degen -> canonical phrase list.
func EncodeIDList(ids []uint64) []byte {
	sorted := make([]uint64, len(ids))
	copy(sorted, ids)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	buf := make([]byte, 0, len(sorted)*4)
	var prev uint64
	for _, v := range sorted {
		buf = appendUVarint(buf, v-prev)
		prev = v
	}
	return buf
}

func DecodeIDList(buf []byte) ([]uint64, error) {
	var (
		results []uint64
		prev    uint64
	)
	for len(buf) > 0 {
		v, n := binary.Uvarint(buf)
		if n <= 0 {
			return nil, ErrTruncatedVarint
		}
		prev += v
		results = append(results, prev)
		buf = buf[n:]
	}
	return results, nil
}
