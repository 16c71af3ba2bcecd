package dictcache

import (
	"bytes"
	"errors"
	"fmt"
	rege "regexp"
	"sort"
	"sync"

	"github.com/blevesearch/vellum"
	"github.com/blevesearch/vellum/levenshtein"
	"github.com/blevesearch/vellum/regexp"
)

const MaxEditDistance = 2

// Dict vocabulary satu layer dalam bentuk FST. output value = frekuensi term.
type Dict struct {
	fst  *vellum.FST
	data []byte

	mu       sync.Mutex
	builders map[uint8]*levenshtein.LevenshteinAutomatonBuilder
}

// Build membuat FST dari vocabulary, key harus di insert terurut.
func Build(terms map[string]uint64) (*Dict, error) {
	sortedTerms := make([]string, 0, len(terms))
	for term := range terms {
		if term == "" {
			continue
		}
		sortedTerms = append(sortedTerms, term)
	}
	sort.Strings(sortedTerms)

	var buf bytes.Buffer
	fstBuilder, err := vellum.New(&buf, nil)
	if err != nil {
		return nil, err
	}
	for _, term := range sortedTerms {
		if err := fstBuilder.Insert([]byte(term), terms[term]); err != nil {
			return nil, err
		}
	}
	if err := fstBuilder.Close(); err != nil {
		return nil, err
	}
	return Load(buf.Bytes())
}

func Load(data []byte) (*Dict, error) {
	fst, err := vellum.Load(data)
	if err != nil {
		return nil, fmt.Errorf("load vocabulary fst: %w", err)
	}
	return &Dict{fst: fst, data: data, builders: make(map[uint8]*levenshtein.LevenshteinAutomatonBuilder)}, nil
}

func (d *Dict) Bytes() []byte {
	return d.data
}

func (d *Dict) Len() int {
	return d.fst.Len()
}

func (d *Dict) Has(term string) bool {
	ok, err := d.fst.Contains([]byte(term))
	return err == nil && ok
}

// Frequency returns the term frequency stored as fst output.
func (d *Dict) Frequency(term string) (uint64, bool) {
	v, ok, err := d.fst.Get([]byte(term))
	if err != nil {
		return 0, false
	}
	return v, ok
}

func (d *Dict) builder(dist uint8) (*levenshtein.LevenshteinAutomatonBuilder, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if lb, ok := d.builders[dist]; ok {
		return lb, nil
	}
	lb, err := levenshtein.NewLevenshteinAutomatonBuilder(dist, false) // harus false
	if err != nil {
		return nil, err
	}
	d.builders[dist] = lb
	return lb, nil
}

// Fuzzy cari term terdekat dalam maxDist edit. distance kecil menang, lalu frekuensi terbesar.
func (d *Dict) Fuzzy(term string, maxDist int) (string, int, error) {
	if maxDist > MaxEditDistance {
		maxDist = MaxEditDistance
	}
	for dist := 1; dist <= maxDist; dist++ {
		lb, err := d.builder(uint8(dist))
		if err != nil {
			return "", 0, err
		}
		dfa, err := lb.BuildDfa(term, uint8(dist))
		if err != nil {
			return "", 0, err
		}

		var (
			best     string
			bestFreq uint64
			found    bool
		)
		it, err := d.fst.Search(dfa, nil, nil)
		for err == nil {
			key, freq := it.Current()
			if string(key) != term && (!found || freq > bestFreq) {
				best, bestFreq, found = string(key), freq, true
			}
			err = it.Next()
		}
		if !errors.Is(err, vellum.ErrIteratorDone) {
			return "", 0, err
		}
		if found {
			return best, dist, nil
		}
	}
	return "", 0, nil
}

// Prefix return term yang diawali prefix, maksimal limit term.
func (d *Dict) Prefix(prefix string, limit int) ([]string, error) {
	regAutomaton, err := regexp.New(fmt.Sprintf(`%s.*`, rege.QuoteMeta(prefix)))
	if err != nil {
		return nil, fmt.Errorf("error when initializing regex automaton: %w", err)
	}

	matched := []string{}
	it, err := d.fst.Search(regAutomaton, nil, nil)
	for err == nil && (limit <= 0 || len(matched) < limit) {
		key, _ := it.Current()
		matched = append(matched, string(key))
		err = it.Next()
	}
	if err != nil && !errors.Is(err, vellum.ErrIteratorDone) {
		return nil, err
	}
	return matched, nil
}
