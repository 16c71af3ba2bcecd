package grid

import (
	"errors"
	"fmt"
	"math"
)

const (
	idBits    = 25
	scoreBits = 3
	relevBits = 2
	coordBits = 16

	scoreShift = idBits
	relevShift = scoreShift + scoreBits
	yShift     = relevShift + relevBits
	xShift     = yShift + coordBits

	MaxID    = uint32(1)<<idBits - 1
	MaxZoom  = 16
	maxScore = 7
)

var (
	ErrIDRange    = errors.New("feature id exceeds grid id width")
	ErrCoordRange = errors.New("tile coordinate exceeds grid coordinate width")
)

// Entry packed grid entry. id bits 0..24, score 25..27, relev 28..29, y 30..45, x 46..61.
type Entry uint64

// Cell decoded grid entry.
type Cell struct {
	ID    uint32
	X     uint32
	Y     uint32
	Relev float64
	Score int
}

// Encode packs a cell. relev di snap ke 0.4, 0.6, 0.8, 1.0.
func Encode(c Cell) (Entry, error) {
	if c.ID > MaxID {
		return 0, fmt.Errorf("%w: %d", ErrIDRange, c.ID)
	}
	if c.X >= 1<<coordBits || c.Y >= 1<<coordBits {
		return 0, fmt.Errorf("%w: %d/%d", ErrCoordRange, c.X, c.Y)
	}
	score := c.Score
	if score < 0 {
		score = 0
	}
	if score > maxScore {
		score = maxScore
	}
	return Entry(uint64(c.ID) |
		uint64(score)<<scoreShift |
		uint64(relevQuantum(c.Relev))<<relevShift |
		uint64(c.Y)<<yShift |
		uint64(c.X)<<xShift), nil
}

func relevQuantum(relev float64) uint64 {
	q := math.Round((relev - 0.4) / 0.2)
	if q < 0 {
		return 0
	}
	if q > 3 {
		return 3
	}
	return uint64(q)
}

func (e Entry) ID() uint32 {
	return uint32(uint64(e) & (1<<idBits - 1))
}

func (e Entry) Score() int {
	return int(uint64(e) >> scoreShift & maxScore)
}

func (e Entry) Relev() float64 {
	q := uint64(e) >> relevShift & 3
	return math.Round((0.4+0.2*float64(q))*10) / 10
}

func (e Entry) X() uint32 {
	return uint32(uint64(e) >> xShift & (1<<coordBits - 1))
}

func (e Entry) Y() uint32 {
	return uint32(uint64(e) >> yShift & (1<<coordBits - 1))
}

func (e Entry) Decode() Cell {
	return Cell{ID: e.ID(), X: e.X(), Y: e.Y(), Relev: e.Relev(), Score: e.Score()}
}

// TileKey z<<32 | x<<16 | y.
type TileKey uint64

func NewTileKey(z int, x, y uint32) TileKey {
	return TileKey(uint64(z)<<32 | uint64(x&0xffff)<<16 | uint64(y&0xffff))
}

func (k TileKey) Zoom() int {
	return int(uint64(k) >> 32)
}

func (k TileKey) X() uint32 {
	return uint32(uint64(k) >> 16 & 0xffff)
}

func (k TileKey) Y() uint32 {
	return uint32(uint64(k) & 0xffff)
}

// Parent returns the ancestor tile at a coarser zoom.
func (k TileKey) Parent(z int) TileKey {
	d := uint(k.Zoom() - z)
	return NewTileKey(z, k.X()>>d, k.Y()>>d)
}

func (k TileKey) String() string {
	return fmt.Sprintf("%d/%d/%d", k.Zoom(), k.X(), k.Y())
}

// Encode3BitLogScale scales num against max into 0..7.
func Encode3BitLogScale(num, max float64) int {
	if num <= 0 || max <= 0 {
		return 0
	}
	if num == 1 || max == 1 {
		return 1
	}
	n := int(math.Ceil(7 * math.Log(num) / math.Log(max)))
	if n > maxScore {
		return maxScore
	}
	if n < 0 {
		return 0
	}
	return n
}

// Decode3BitLogScale kebalikan Encode3BitLogScale (lossy).
func Decode3BitLogScale(n int, max float64) float64 {
	if n == 0 || max <= 0 {
		return 0
	}
	return math.Round(math.Pow(max, float64(n)/7))
}
