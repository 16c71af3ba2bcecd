package termops

import (
	"hash/fnv"
	"strings"
)

const (
	// CountKey menyimpan total frekuensi term di freq index.
	CountKey uint64 = 0
	// MaxKey menyimpan max score feature di freq index.
	MaxKey uint64 = 1

	termWeightBits = 4
	termHashMask   = (uint64(1) << 60) - 1

	phraseHashMask = (uint64(1) << 56) - 1
	phraseLowBits  = 8
	maxBucket      = 7
	maxDistance    = 15
)

func fnv1a(s string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return h.Sum64()
}

// EncodeTerm returns the fingerprint of one token. bits 4..63 hold the folded hash, bits 0..3 the weight field.
func EncodeTerm(token string) uint64 {
	h := fnv1a(token)
	folded := (h >> 60) ^ (h & termHashMask)
	if folded == 0 {
		folded = 1
	}
	var weight uint64
	if strings.Contains(token, "#") {
		weight = 1
	}
	return folded<<termWeightBits | weight
}

// IsPlaceholderTerm reports whether the weight field marks a numeric placeholder.
func IsPlaceholderTerm(term uint64) bool {
	return term&0xf == 1
}

// EncodePhrase
// bit 0: canonical flag, bits 1..3: word count bucket, bits 4..7: degen distance (0 untuk lookup key),
// bits 8..63: folded hash dari text yang sudah di join.
func EncodePhrase(text string, canonical bool) uint64 {
	text = strings.TrimSpace(text)
	h := fnv1a(text)
	folded := (h >> 56) ^ (h & phraseHashMask)

	bucket := uint64(len(strings.Fields(text)))
	if bucket > maxBucket {
		bucket = maxBucket
	}
	var flag uint64
	if canonical {
		flag = 1
	}
	return folded<<phraseLowBits | bucket<<1 | flag
}

// EncodePhraseTokens joins tokens with a single space.
func EncodePhraseTokens(tokens []string, canonical bool) uint64 {
	return EncodePhrase(strings.Join(tokens, " "), canonical)
}

// DecodePhrase returns word-count bucket dan canonical flag.
func DecodePhrase(id uint64) (bucket int, canonical bool) {
	return int((id >> 1) & maxBucket), id&1 == 1
}

// WithDistance packs a degenerate distance (capped at 15) in the spare nibble.
func WithDistance(id uint64, d int) uint64 {
	if d < 0 {
		d = 0
	}
	if d > maxDistance {
		d = maxDistance
	}
	return StripDistance(id) | uint64(d)<<4
}

func Distance(id uint64) int {
	return int((id >> 4) & maxDistance)
}

func StripDistance(id uint64) uint64 {
	return id &^ (uint64(maxDistance) << 4)
}

// Terms tokenize text lalu encode setiap token.
func Terms(text string) []uint64 {
	tokens := Tokenize(text)
	terms := make([]uint64, len(tokens))
	for i, t := range tokens {
		terms[i] = EncodeTerm(t)
	}
	return terms
}
