package permute

import (
	"fmt"
	"math"
	"math/bits"
	"sort"
	"strings"
	"sync"
)

const MaxAllLength = 8

// Permutation adalah satu slice dari query tokens beserta bitmask posisi yang di cover.
type Permutation struct {
	Tokens []string
	Mask   uint32
	Ender  bool
	Relev  float64
}

func (p Permutation) Text() string {
	return strings.Join(p.Tokens, " ")
}

// Cache menyimpan bitmask permutations per panjang query. aman dipakai concurrent.
type Cache struct {
	mu         sync.RWMutex
	all        map[int][]uint32
	continuous map[int][]uint32
}

func NewCache() *Cache {
	return &Cache{
		all:        make(map[int][]uint32),
		continuous: make(map[int][]uint32),
	}
}

// Continuous returns the masks of every contiguous slice, longest first.
func (c *Cache) Continuous(length int) []uint32 {
	c.mu.RLock()
	masks, ok := c.continuous[length]
	c.mu.RUnlock()
	if ok {
		return masks
	}

	masks = continuousMasks(length)
	c.mu.Lock()
	c.continuous[length] = masks
	c.mu.Unlock()
	return masks
}

// All returns every non-empty mask ordered by popcount desc lalu value asc.
func (c *Cache) All(length int) []uint32 {
	c.mu.RLock()
	masks, ok := c.all[length]
	c.mu.RUnlock()
	if ok {
		return masks
	}

	masks = allMasks(length)
	c.mu.Lock()
	c.all[length] = masks
	c.mu.Unlock()
	return masks
}

func continuousMasks(length int) []uint32 {
	if length <= 0 {
		return nil
	}
	masks := make([]uint32, 0, length*(length+1)/2)
	cover := uint32(1)<<uint(length) - 1
	masks = append(masks, cover)
	for i := 1; i < length; i++ {
		cover >>= 1
		for j := 0; j <= i; j++ {
			masks = append(masks, cover<<uint(j))
		}
	}
	return masks
}

func allMasks(length int) []uint32 {
	if length <= 0 {
		return nil
	}
	masks := make([]uint32, 0, 1<<uint(length))
	for i := uint32(1)<<uint(length) - 1; i > 0; i-- {
		masks = append(masks, i)
	}
	sort.Slice(masks, func(i, j int) bool {
		a, b := bits.OnesCount32(masks[i]), bits.OnesCount32(masks[j])
		if a != b {
			return a > b
		}
		return masks[i] < masks[j]
	})
	return masks
}

// Permutations generate subqueries dari tokens. weights boleh nil. all=true (index time) hanya
// berlaku untuk query <= 8 token.
func (c *Cache) Permutations(tokens []string, weights []float64, all bool) []Permutation {
	length := len(tokens)
	var masks []uint32
	if all && length <= MaxAllLength {
		masks = c.All(length)
	} else {
		masks = c.Continuous(length)
	}

	perms := make([]Permutation, 0, len(masks))
	for _, mask := range masks {
		p := Permutation{
			Mask:   mask,
			Ender:  mask&(1<<uint(length-1)) != 0,
			Tokens: make([]string, 0, bits.OnesCount32(mask)),
		}

		relev := 0.0
		for j := 0; j < length; j++ {
			if mask&(1<<uint(j)) == 0 {
				continue
			}
			p.Tokens = append(p.Tokens, tokens[j])
			if weights != nil && j < len(weights) {
				relev += weights[j]
			}
		}
		if weights != nil {
			p.Relev = math.Round(relev*5) / 5
		}

		// trailing numtoken pindah ke depan, index cukup simpan versi leading numtoken.
		if n := len(p.Tokens); n > 1 && strings.Contains(p.Tokens[n-1], "#") {
			last := p.Tokens[n-1]
			copy(p.Tokens[1:], p.Tokens[:n-1])
			p.Tokens[0] = last
			p.Ender = false
		}
		perms = append(perms, p)
	}
	return perms
}

// Uniq dedupes by (text, ender, mask, relev) and drops permutations with a placeholder in the middle.
// Result is stable sorted by length desc.
func Uniq(perms []Permutation) []Permutation {
	uniq := make([]Permutation, 0, len(perms))
	memo := make(map[string]struct{}, len(perms))
	for _, p := range perms {
		if len(p.Tokens) > 2 && strings.Contains(strings.Join(p.Tokens[1:len(p.Tokens)-1], ","), "#") {
			continue
		}
		key := fmt.Sprintf("%s-%t-%d-%g", strings.Join(p.Tokens, ","), p.Ender, p.Mask, p.Relev)
		if _, ok := memo[key]; ok {
			continue
		}
		memo[key] = struct{}{}
		uniq = append(uniq, p)
	}
	sort.SliceStable(uniq, func(i, j int) bool {
		return len(uniq[i].Tokens) > len(uniq[j].Tokens)
	})
	return uniq
}

// IndexablePhrase phrase yang masuk ke grid index beserta relev-nya.
type IndexablePhrase struct {
	Text  string
	Relev float64
}

// IndexablePhrases returns every phrase worth indexing for a feature name, best relev per text.
func (c *Cache) IndexablePhrases(tokens []string, weights []float64) []IndexablePhrase {
	perms := c.Permutations(tokens, weights, true)
	sort.SliceStable(perms, func(i, j int) bool {
		return perms[i].Relev > perms[j].Relev
	})

	seen := make(map[string]struct{})
	phrases := make([]IndexablePhrase, 0, len(perms))
	for _, p := range perms {
		if p.Relev < 0.8 {
			break
		}
		text := p.Text()
		if _, ok := seen[text]; ok {
			continue
		}
		seen[text] = struct{}{}
		phrases = append(phrases, IndexablePhrase{Text: text, Relev: p.Relev})
	}
	return phrases
}
