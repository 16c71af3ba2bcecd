package bitcache

import (
	"bytes"
	"errors"
	"fmt"
	"sync"

	"github.com/bits-and-blooms/bitset"
)

var (
	ErrBitSize = errors.New("bitcache bit size must be one of 24, 28, 29, 30, 31, 32")
)

// BitSizes ukuran bitset yang didukung, 24 hanya untuk layer kecil dan test.
var BitSizes = []uint{24, 28, 29, 30, 31, 32}

// Cache existence hint untuk phrase fingerprint. false positive boleh, false negative tidak.
type Cache struct {
	mu      sync.RWMutex
	bits    *bitset.BitSet
	bitSize uint
	size    uint64
}

func New(bitSize uint) (*Cache, error) {
	if !validBitSize(bitSize) {
		return nil, fmt.Errorf("%w: %d", ErrBitSize, bitSize)
	}
	size := uint64(1) << bitSize
	return &Cache{
		bits:    bitset.New(uint(size)),
		bitSize: bitSize,
		size:    size,
	}, nil
}

func validBitSize(bitSize uint) bool {
	for _, s := range BitSizes {
		if s == bitSize {
			return true
		}
	}
	return false
}

// Auto picks the smallest bit size keeping the fill ratio under 0.1%.
func Auto(n int) uint {
	for _, s := range BitSizes {
		if float64(n)/float64(uint64(1)<<s) < 0.001 {
			return s
		}
	}
	return 32
}

// Crunch folds a 64-bit id into the bitset range.
func Crunch(id, size uint64) uint64 {
	mask := size - 1
	return ((id / size) & mask) ^ (id & mask)
}

func (c *Cache) BitSize() uint {
	return c.bitSize
}

func (c *Cache) Set(id uint64) {
	c.mu.Lock()
	c.bits.Set(uint(Crunch(id, c.size)))
	c.mu.Unlock()
}

// Del clear bit id, bit yang sudah 0 tetap 0.
func (c *Cache) Del(id uint64) {
	c.mu.Lock()
	c.bits.Clear(uint(Crunch(id, c.size)))
	c.mu.Unlock()
}

func (c *Cache) Has(id uint64) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.bits.Test(uint(Crunch(id, c.size)))
}

// Count jumlah bit yang di set.
func (c *Cache) Count() uint {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.bits.Count()
}

func (c *Cache) MarshalBinary() ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var buf bytes.Buffer
	if _, err := c.bits.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Load decodes a bitcache written by MarshalBinary.
func Load(data []byte) (*Cache, error) {
	bits := &bitset.BitSet{}
	if _, err := bits.ReadFrom(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("read bitcache: %w", err)
	}
	size := uint64(bits.Len())
	for _, s := range BitSizes {
		if uint64(1)<<s == size {
			return &Cache{bits: bits, bitSize: s, size: size}, nil
		}
	}
	return nil, fmt.Errorf("%w: length %d", ErrBitSize, size)
}
