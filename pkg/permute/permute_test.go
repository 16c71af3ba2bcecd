package permute

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func texts(perms []Permutation) []string {
	out := make([]string, len(perms))
	for i, p := range perms {
		out[i] = p.Text()
	}
	return out
}

func debug(perms []Permutation) []string {
	out := make([]string, len(perms))
	for i, p := range perms {
		out[i] = p.Text()
		if p.Relev != 0 {
			out[i] += fmt.Sprintf(" - %g", p.Relev)
		}
	}
	return out
}

func TestMasks(t *testing.T) {
	c := NewCache()

	tests := []struct {
		name   string
		masks  []uint32
		expect []uint32
	}{
		{name: "all 1", masks: c.All(1), expect: []uint32{0b1}},
		{name: "all 2", masks: c.All(2), expect: []uint32{0b11, 0b01, 0b10}},
		{name: "all 3", masks: c.All(3), expect: []uint32{0b111, 0b011, 0b101, 0b110, 0b001, 0b010, 0b100}},
		{name: "continuous 1", masks: c.Continuous(1), expect: []uint32{0b1}},
		{name: "continuous 3", masks: c.Continuous(3), expect: []uint32{0b111, 0b011, 0b110, 0b001, 0b010, 0b100}},
		{name: "continuous 4", masks: c.Continuous(4), expect: []uint32{
			0b1111, 0b0111, 0b1110, 0b0011, 0b0110, 0b1100, 0b0001, 0b0010, 0b0100, 0b1000,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, tt.masks)
		})
	}

	t.Run("all 4 sorted by popcount", func(t *testing.T) {
		assert.Equal(t, []uint32{
			0b1111, 0b0111, 0b1011, 0b1101, 0b1110, 0b0011, 0b0101, 0b0110,
			0b1001, 0b1010, 0b1100, 0b0001, 0b0010, 0b0100, 0b1000,
		}, c.All(4))
	})

	t.Run("cached", func(t *testing.T) {
		first := c.Continuous(5)
		second := c.Continuous(5)
		require.Len(t, first, 15)
		assert.Same(t, &first[0], &second[0])
	})
}

func TestPermutations(t *testing.T) {
	c := NewCache()

	t.Run("continuous slices", func(t *testing.T) {
		perms := c.Permutations([]string{"a", "b", "c", "d"}, nil, false)
		assert.Equal(t, []string{"a b c d", "a b c", "b c d", "a b", "b c", "c d", "a", "b", "c", "d"}, texts(perms))

		enders := map[string]bool{}
		for _, p := range perms {
			enders[p.Text()] = p.Ender
		}
		// ender = mask memuat token terakhir, "c d" juga ender
		assert.Equal(t, map[string]bool{
			"a b c d": true, "a b c": false, "b c d": true,
			"a b": false, "b c": false, "c d": true,
			"a": false, "b": false, "c": false, "d": true,
		}, enders)
		assert.Equal(t, uint32(0b1110), perms[2].Mask)
	})

	t.Run("short queries", func(t *testing.T) {
		assert.Equal(t, []string{"a b", "a", "b"}, texts(c.Permutations([]string{"a", "b"}, nil, false)))
		assert.Equal(t, []string{"a"}, texts(c.Permutations([]string{"a"}, nil, false)))
		assert.Empty(t, c.Permutations(nil, nil, false))
	})

	t.Run("relev", func(t *testing.T) {
		perms := c.Permutations([]string{"a", "b", "c", "d"}, []float64{0.1, 0.1, 0.2, 0.6}, false)
		require.Len(t, perms, 10)
		assert.Equal(t, 1.0, perms[0].Relev)
		assert.Equal(t, 0.4, perms[1].Relev)
		assert.Equal(t, 1.0, perms[2].Relev)
		assert.Equal(t, "b c d", perms[2].Text())
	})

	t.Run("all mode", func(t *testing.T) {
		perms := c.Permutations([]string{"a", "b", "c"}, nil, true)
		assert.Equal(t, []string{"a b c", "a b", "a c", "b c", "a", "b", "c"}, texts(perms))
	})

	t.Run("trailing numtoken moves to front", func(t *testing.T) {
		perms := c.Permutations([]string{"a", "b", "2##"}, nil, false)
		assert.Equal(t, "2## a b", perms[0].Text())
		assert.False(t, perms[0].Ender)
		assert.Equal(t, uint32(0b111), perms[0].Mask)
	})
}

func TestUniq(t *testing.T) {
	c := NewCache()
	tokens := []string{"a", "b", "c"}

	tests := []struct {
		name   string
		perms  []Permutation
		expect []string
	}{
		{
			name:   "weighted",
			perms:  c.Permutations(tokens, []float64{0.2, 0.2, 0.6}, false),
			expect: []string{"a b c - 1", "a b - 0.4", "b c - 0.8", "a - 0.2", "b - 0.2", "c - 0.6"},
		},
		{
			name: "merged weights",
			perms: append(c.Permutations(tokens, []float64{0.2, 0.2, 0.6}, false),
				c.Permutations(tokens, []float64{0.2, 0.1, 0.7}, false)...),
			expect: []string{"a b c - 1", "a b - 0.4", "b c - 0.8", "a - 0.2", "b - 0.2", "c - 0.6", "c - 0.8"},
		},
		{
			name:   "leading housenum",
			perms:  c.Permutations([]string{"2##", "b", "c"}, nil, false),
			expect: []string{"2## b c", "2## b", "b c", "2##", "b", "c"},
		},
		{
			name:   "trailing housenum",
			perms:  c.Permutations([]string{"a", "b", "##"}, nil, false),
			expect: []string{"## a b", "a b", "## b", "a", "b", "##"},
		},
		{
			name:   "landlocked housenum",
			perms:  c.Permutations([]string{"a", "##", "c"}, nil, false),
			expect: []string{"## a", "## c", "a", "##", "c"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, debug(Uniq(tt.perms)))
		})
	}
}

func TestIndexablePhrases(t *testing.T) {
	c := NewCache()

	t.Run("keeps phrases with relev at least 0.8", func(t *testing.T) {
		phrases := c.IndexablePhrases([]string{"main", "st"}, []float64{0.8, 0.2})
		assert.Equal(t, []IndexablePhrase{
			{Text: "main st", Relev: 1},
			{Text: "main", Relev: 0.8},
		}, phrases)
	})

	t.Run("numtoken phrase", func(t *testing.T) {
		phrases := c.IndexablePhrases([]string{"main", "st", "1##"}, []float64{0.4, 0.4, 0.2})
		require.NotEmpty(t, phrases)
		assert.Equal(t, "1## main st", phrases[0].Text)
		assert.Equal(t, 1.0, phrases[0].Relev)
		assert.Contains(t, phraseTexts(phrases), "main st")
	})
}

func phraseTexts(phrases []IndexablePhrase) []string {
	out := make([]string, len(phrases))
	for i, p := range phrases {
		out[i] = p.Text
	}
	return out
}
