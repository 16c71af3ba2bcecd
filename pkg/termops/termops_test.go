package termops

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{name: "hyphenated place name", query: "Chamonix-Mont-Blanc", want: []string{"chamonix", "mont", "blanc"}},
		{name: "house number range", query: "4-10 Main St.", want: []string{"4-10", "main", "st"}},
		{name: "fraction with letter", query: "1/2a main", want: []string{"1/2a", "main"}},
		{name: "diacritics", query: "Zürich", want: []string{"zurich"}},
		{name: "apostrophe", query: "O'Brien St", want: []string{"obrien", "st"}},
		{name: "leading separators", query: "  ,Jakarta", want: []string{"jakarta"}},
		{name: "cjk per character", query: "北京市", want: []string{"北", "京", "市"}},
		{name: "cjk with digits", query: "北京100", want: []string{"北", "京", "100"}},
		{name: "emoji only token", query: "main ☃", want: []string{"main"}},
		{name: "empty", query: " ,. ", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Tokenize(tt.query))
		})
	}
}

func TestParseLonLat(t *testing.T) {
	tests := []struct {
		query string
		want  []float64
		ok    bool
	}{
		{query: "45,9", want: []float64{45, 9}, ok: true},
		{query: " -122.4194 , 37.7749 ", want: []float64{-122.4194, 37.7749}, ok: true},
		{query: "45,9,3", ok: false},
		{query: "main st", ok: false},
		{query: "45,", ok: false},
		{query: "nan,1", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, ok := ParseLonLat(tt.query)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestEncodeTerm(t *testing.T) {
	t.Run("sentinels never produced", func(t *testing.T) {
		for _, token := range []string{"", "a", "main", "###", "1##", "jalan"} {
			term := EncodeTerm(token)
			assert.NotEqual(t, CountKey, term)
			assert.NotEqual(t, MaxKey, term)
		}
	})

	t.Run("placeholder weight field", func(t *testing.T) {
		assert.True(t, IsPlaceholderTerm(EncodeTerm("2##")))
		assert.False(t, IsPlaceholderTerm(EncodeTerm("main")))
		assert.Equal(t, EncodeTerm("2##")>>4, EncodeTerm("2##")>>4)
	})

	t.Run("deterministic", func(t *testing.T) {
		assert.Equal(t, EncodeTerm("main"), EncodeTerm("main"))
		assert.NotEqual(t, EncodeTerm("main"), EncodeTerm("maim"))
	})
}

func TestEncodePhraseRoundTrip(t *testing.T) {
	tests := []struct {
		text       string
		canonical  bool
		wantBucket int
	}{
		{text: "main", canonical: true, wantBucket: 1},
		{text: "main st", canonical: false, wantBucket: 2},
		{text: "### main st", canonical: true, wantBucket: 3},
		{text: "a b c d e f g h i", canonical: true, wantBucket: 7},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			id := EncodePhrase(tt.text, tt.canonical)
			bucket, canonical := DecodePhrase(id)
			assert.Equal(t, tt.wantBucket, bucket)
			assert.Equal(t, tt.canonical, canonical)
			assert.Equal(t, 0, Distance(id))

			withDist := WithDistance(id, 3)
			assert.Equal(t, 3, Distance(withDist))
			assert.Equal(t, id, StripDistance(withDist))
			bucket, canonical = DecodePhrase(withDist)
			assert.Equal(t, tt.wantBucket, bucket)
			assert.Equal(t, tt.canonical, canonical)
		})
	}

	t.Run("distance capped", func(t *testing.T) {
		id := EncodePhrase("main", false)
		assert.Equal(t, 15, Distance(WithDistance(id, 40)))
	})

	t.Run("canonical and degen differ", func(t *testing.T) {
		assert.NotEqual(t, EncodePhrase("main", true), EncodePhrase("main", false))
		assert.Equal(t, EncodePhrase("main", true), EncodePhraseTokens([]string{"main"}, true))
	})
}

func randomWord(r *rand.Rand, minLen, maxLen int) string {
	n := minLen + r.Intn(maxLen-minLen+1)
	b := make([]byte, n)
	for i := range b {
		b[i] = byte('a' + r.Intn(26))
	}
	return string(b)
}

func TestFingerprintCollisions(t *testing.T) {
	if testing.Short() {
		t.Skip("collision sampling skipped in short mode")
	}
	const n = 1000000
	r := rand.New(rand.NewSource(42))

	t.Run("phrases", func(t *testing.T) {
		seen := make(map[uint64]string, n)
		collisions := 0
		for i := 0; i < n; i++ {
			words := make([]string, 1+r.Intn(4))
			for j := range words {
				words[j] = randomWord(r, 2, 10)
			}
			text := strings.Join(words, " ")
			id := EncodePhrase(text, true)
			if prev, ok := seen[id]; ok && prev != text {
				collisions++
			}
			seen[id] = text
		}
		assert.Zero(t, collisions)
	})

	t.Run("terms", func(t *testing.T) {
		seen := make(map[uint64]string, n)
		collisions := 0
		for i := 0; i < n; i++ {
			token := randomWord(r, 1, 12)
			id := EncodeTerm(token)
			if prev, ok := seen[id]; ok && prev != token {
				collisions++
			}
			seen[id] = token
		}
		assert.Less(t, collisions, n/1000)
	})
}

func TestGetWeights(t *testing.T) {
	freq := FreqMap{
		CountKey:             1002,
		EncodeTerm("main"):   1000,
		EncodeTerm("kemang"): 1,
		EncodeTerm("raya"):   1,
	}

	tests := []struct {
		name   string
		tokens []string
		want   []float64
	}{
		{
			name:   "common and rare tokens",
			tokens: []string{"main", "kemang", "raya"},
			want:   []float64{0.047820577394264194, 0.47608971130286787, 0.47608971130286787},
		},
		{
			name:   "placeholder takes flat weight",
			tokens: []string{"###", "main", "kemang", "raya"},
			want:   []float64{0.2, 0.038256461915411355, 0.3808717690422943, 0.3808717690422943},
		},
		{
			name:   "missing frequency counts as one",
			tokens: []string{"kemang", "unknown"},
			want:   []float64{0.5, 0.5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GetWeights(tt.tokens, freq)
			require.NoError(t, err)
			require.Len(t, got, len(tt.want))
			sum := 0.0
			for i := range tt.want {
				assert.InDelta(t, tt.want[i], got[i], 1e-9)
				sum += got[i]
			}
			assert.InDelta(t, 1.0, sum, 1e-9)
		})
	}

	t.Run("zero total", func(t *testing.T) {
		_, err := GetWeights([]string{"main"}, FreqMap{})
		assert.ErrorIs(t, err, ErrBadFreqTotal)
	})
}

func TestGetPhraseDegens(t *testing.T) {
	tests := []struct {
		tokens []string
		want   []string
	}{
		{tokens: []string{"main"}, want: []string{"m", "ma", "mai", "main"}},
		{tokens: []string{"main", "st"}, want: []string{"m", "ma", "mai", "main", "main s", "main st"}},
		{tokens: []string{"20009"}, want: []string{"2", "20", "200", "2000", "20009"}},
		{tokens: []string{"###"}, want: nil},
		{tokens: []string{"###", "main"}, want: []string{"### m", "### ma", "### mai", "### main"}},
		{tokens: []string{"2##", "main"}, want: []string{"2## m", "2## ma", "2## mai", "2## main"}},
	}

	for _, tt := range tests {
		t.Run(strings.Join(tt.tokens, " "), func(t *testing.T) {
			got := GetPhraseDegens(tt.tokens)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAddress(t *testing.T) {
	t.Run("address tokens", func(t *testing.T) {
		for _, token := range []string{"10", "10a", "10-19", "10-19a", "6n23", "w350n5337", "n453"} {
			assert.True(t, IsAddressToken(token), token)
		}
		for _, token := range []string{"main", "a10", "10ab", "1/2"} {
			assert.False(t, IsAddressToken(token), token)
		}
	})

	t.Run("num token", func(t *testing.T) {
		tests := map[string]string{"": "", "1": "#", "12": "##", "123": "1##", "1234": "12##", "12345": "12###"}
		for in, want := range tests {
			assert.Equal(t, want, NumToken(in), in)
		}
	})

	t.Run("semi number", func(t *testing.T) {
		n, ok := ParseSemiNumber("12a")
		assert.True(t, ok)
		assert.Equal(t, 12, n)
		_, ok = ParseSemiNumber("main")
		assert.False(t, ok)
	})

	t.Run("numtokenize", func(t *testing.T) {
		got := NumTokenize([]string{"1234", "main", "st", "12"})
		assert.Equal(t, [][]string{
			{"12##", "main", "st", "12"},
			{"1234", "main", "st", "##"},
		}, got)
		assert.Empty(t, NumTokenize([]string{"main", "st"}))
	})

	t.Run("address number", func(t *testing.T) {
		assert.True(t, IsAddressNumber([]string{"1##"}))
		assert.False(t, IsAddressNumber([]string{"1##", "main"}))
		assert.False(t, IsAddressNumber([]string{"main"}))
	})

	t.Run("mask address", func(t *testing.T) {
		query := []string{"100", "main", "st", "jakarta"}
		addr, pos, ok := MaskAddress(query, "Main St", 0b0111)
		require.True(t, ok)
		assert.Equal(t, "100", addr)
		assert.Equal(t, 0, pos)

		_, _, ok = MaskAddress(query, "Main St", 0b0110)
		assert.False(t, ok)

		_, _, ok = MaskAddress([]string{"1", "st"}, "1 St", 0b11)
		assert.False(t, ok)
	})
}

func TestReplacer(t *testing.T) {
	r := NewReplacer(map[string]string{
		"Street": "st",
		"jl":     "jalan",
		"the":    "",
		"nyc":    "new york",
	}, false)

	tests := []struct {
		tokens    []string
		want      []string
		wantOwner []int
	}{
		{tokens: []string{"main", "street"}, want: []string{"main", "st"}, wantOwner: []int{0, 1}},
		{tokens: []string{"the", "mall"}, want: []string{"mall"}, wantOwner: []int{1}},
		{tokens: []string{"nyc", "10001"}, want: []string{"new", "york", "10001"}, wantOwner: []int{0, 0, 1}},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.tokens), func(t *testing.T) {
			got, owner := r.Replace(tt.tokens)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOwner, owner)
		})
	}

	t.Run("nil replacer is identity", func(t *testing.T) {
		var nr *Replacer
		got, owner := nr.Replace([]string{"a", "b"})
		assert.Equal(t, []string{"a", "b"}, got)
		assert.Equal(t, []int{0, 1}, owner)
	})

	t.Run("stemming keeps numbers", func(t *testing.T) {
		sr := NewReplacer(nil, true)
		got, _ := sr.Replace([]string{"12", "2##"})
		assert.Equal(t, []string{"12", "2##"}, got)
	})
}
