package termops

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	ErrBadFreqTotal = errors.New("frequency total must be positive")
)

// FreqReader returns term frequency. absent term harus return 0, nil.
type FreqReader interface {
	Frequency(term uint64) (uint64, error)
}

// FreqMap in-memory frequency table, dipakai index builder dan test.
type FreqMap map[uint64]uint64

func (f FreqMap) Frequency(term uint64) (uint64, error) {
	return f[term], nil
}

// Add increments token frequency dan CountKey total.
func (f FreqMap) Add(token string) {
	f[EncodeTerm(token)]++
	f[CountKey]++
}

// GetWeights returns the normalized weight of every token. Numeric placeholders take a flat 0.2
// and the vocabulary terms rescale to 0.8.
func GetWeights(tokens []string, freq FreqReader) ([]float64, error) {
	total, err := freq.Frequency(CountKey)
	if err != nil {
		return nil, fmt.Errorf("read frequency total: %w", err)
	}
	if total == 0 {
		return nil, ErrBadFreqTotal
	}

	weights := make([]float64, len(tokens))
	var (
		weightSum float64
		numTokens bool
	)

	for i, token := range tokens {
		if strings.Contains(token, "#") {
			numTokens = true
			weights[i] = -1
			continue
		}
		termFreq, err := freq.Frequency(EncodeTerm(token))
		if err != nil {
			return nil, fmt.Errorf("read frequency of %q: %w", token, err)
		}
		if termFreq == 0 {
			termFreq = 1
		}
		weights[i] = math.Log(1 + float64(total)/float64(termFreq))
		weightSum += weights[i]
	}

	for i := range weights {
		switch {
		case weights[i] == -1:
			weights[i] = 0.2
		case weightSum == 0:
			weights[i] = 0
		case numTokens:
			weights[i] = weights[i] / weightSum * 0.8
		default:
			weights[i] = weights[i] / weightSum
		}
	}
	return weights, nil
}
