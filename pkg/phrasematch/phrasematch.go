package phrasematch

import (
	"context"
	"fmt"
	"math/bits"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/lintang-b-s/osm-geocoder/pkg/bitcache"
	"github.com/lintang-b-s/osm-geocoder/pkg/compress"
	"github.com/lintang-b-s/osm-geocoder/pkg/datastructure"
	"github.com/lintang-b-s/osm-geocoder/pkg/dictcache"
	"github.com/lintang-b-s/osm-geocoder/pkg/grid"
	"github.com/lintang-b-s/osm-geocoder/pkg/permute"
	"github.com/lintang-b-s/osm-geocoder/pkg/shardstore"
	"github.com/lintang-b-s/osm-geocoder/pkg/termops"
	"go.uber.org/zap"
)

// Store bagian shard store yang dipakai matcher.
type Store interface {
	GetAll(ctx context.Context, layer string, kind shardstore.Kind, keys []uint64) (map[uint64][]byte, error)
}

// Layer resource satu layer yang dibutuhkan untuk phrase match.
type Layer struct {
	Name        string
	Ordinal     int
	Zoom        int
	// ScaleFactor score feature terbesar di layer, dibaca dari freq MaxKey.
	ScaleFactor float64
	Address     bool
	Replacer    *termops.Replacer
	// Bitcache nil berarti semua fingerprint dianggap mungkin ada.
	Bitcache *bitcache.Cache
	// Dict vocabulary layer, nil kalau fuzzy match tidak tersedia.
	Dict *dictcache.Dict
}

type Options struct {
	Autocomplete bool
	Fuzzy        bool
}

// FetchObserver dipanggil setiap kali matcher fetch shard store.
type FetchObserver func(layer string, kind shardstore.Kind, keys int)

type Matcher struct {
	perms   *permute.Cache
	store   Store
	log     *zap.Logger
	observe FetchObserver
}

func NewMatcher(perms *permute.Cache, store Store, log *zap.Logger) *Matcher {
	return &Matcher{perms: perms, store: store, log: log}
}

// WithObserver set callback untuk metrics fetch.
func (m *Matcher) WithObserver(observe FetchObserver) *Matcher {
	m.observe = observe
	return m
}

// variant satu versi token query: hasil replacer, numtoken, atau koreksi fuzzy.
type variant struct {
	tokens []string
	// edit distance per posisi token
	edits []int
}

// candidate subquery yang sudah di encode, sebelum entries nya di fetch.
type candidate struct {
	perm     permute.Permutation
	mask     uint32
	edits    int
	phrase   uint64
	prefix   bool
	distance int
}

// Match cari subquery dari tokens yang ada di layer, beserta grid entries nya.
func (m *Matcher) Match(ctx context.Context, layer *Layer, tokens []string, opts Options) (datastructure.SpatialMatchResult, error) {
	result := datastructure.SpatialMatchResult{
		Ordinal:    layer.Ordinal,
		Layer:      layer.Name,
		Zoom:       layer.Zoom,
		Subqueries: []datastructure.Subquery{},
	}
	if len(tokens) == 0 {
		return result, nil
	}

	replaced, owner := layer.Replacer.Replace(tokens)
	if len(replaced) == 0 {
		return result, nil
	}

	canonicals, degens := m.encode(layer, replaced, owner, opts)

	// degenerate -> canonical phrase ids
	if len(degens) > 0 {
		expanded, err := m.expandDegens(ctx, layer, degens)
		if err != nil {
			return result, err
		}
		canonicals = append(canonicals, expanded...)
	}

	keys := make([]uint64, 0, len(canonicals))
	seen := make(map[uint64]struct{}, len(canonicals))
	for _, c := range canonicals {
		if _, ok := seen[c.phrase]; ok {
			continue
		}
		seen[c.phrase] = struct{}{}
		keys = append(keys, c.phrase)
	}
	if len(keys) == 0 {
		return result, nil
	}

	m.notify(layer.Name, shardstore.KindGrid, len(keys))
	values, err := m.store.GetAll(ctx, layer.Name, shardstore.KindGrid, keys)
	if err != nil {
		return result, fmt.Errorf("fetch grid %s: %w", layer.Name, err)
	}

	entries := make(map[uint64][]grid.Entry, len(values))
	for phrase, raw := range values {
		list, err := compress.DecodeGridList(raw)
		if err != nil {
			m.log.Warn("drop undecodable grid value", zap.String("layer", layer.Name),
				zap.Uint64("phrase", phrase), zap.Error(err))
			continue
		}
		es := make([]grid.Entry, len(list))
		for i, v := range list {
			es[i] = grid.Entry(v)
		}
		entries[phrase] = es
	}

	queryLen := float64(len(tokens))
	for _, c := range canonicals {
		es, ok := entries[c.phrase]
		if !ok || len(es) == 0 {
			continue
		}
		result.Subqueries = append(result.Subqueries, datastructure.Subquery{
			Tokens:       c.perm.Tokens,
			Mask:         c.mask,
			Ender:        c.perm.Ender,
			Prefix:       c.prefix,
			Phrase:       c.phrase,
			Distance:     c.distance,
			EditDistance: c.edits,
			Weight:       float64(bits.OnesCount32(c.mask)) / queryLen,
			Entries:      es,
		})
	}

	sort.SliceStable(result.Subqueries, func(i, j int) bool {
		a, b := result.Subqueries[i], result.Subqueries[j]
		if a.Weight != b.Weight {
			return a.Weight > b.Weight
		}
		if a.Distance+a.EditDistance != b.Distance+b.EditDistance {
			return a.Distance+a.EditDistance < b.Distance+b.EditDistance
		}
		return a.Mask < b.Mask
	})
	return result, nil
}

func (m *Matcher) notify(layer string, kind shardstore.Kind, keys int) {
	if m.observe != nil {
		m.observe(layer, kind, keys)
	}
}

// variants versi token yang di permutasi: token asli, numtoken (layer address), koreksi fuzzy.
func (m *Matcher) variants(layer *Layer, tokens []string, opts Options) []variant {
	variants := []variant{{tokens: tokens, edits: make([]int, len(tokens))}}

	if layer.Address {
		for _, v := range termops.NumTokenize(tokens) {
			variants = append(variants, variant{tokens: v, edits: make([]int, len(v))})
		}
	}

	if opts.Fuzzy && layer.Dict != nil {
		corrected := make([]string, len(tokens))
		edits := make([]int, len(tokens))
		changed := false
		for i, t := range tokens {
			corrected[i] = t
			if !fuzzyCandidate(t) || layer.Dict.Has(t) {
				continue
			}
			maxDist := 1
			if utf8.RuneCountInString(t) >= 8 {
				maxDist = 2
			}
			fixed, dist, err := layer.Dict.Fuzzy(t, maxDist)
			if err != nil {
				m.log.Warn("fuzzy lookup failed", zap.String("layer", layer.Name), zap.String("token", t), zap.Error(err))
				continue
			}
			if fixed == "" {
				continue
			}
			corrected[i], edits[i], changed = fixed, dist, true
		}
		if changed {
			variants = append(variants, variant{tokens: corrected, edits: edits})
		}
	}
	return variants
}

// fuzzyCandidate token pendek, angka dan placeholder tidak di koreksi.
func fuzzyCandidate(t string) bool {
	if utf8.RuneCountInString(t) < 4 || strings.Contains(t, "#") {
		return false
	}
	for _, r := range t {
		if r >= '0' && r <= '9' {
			return false
		}
	}
	return true
}

// encode permutasi semua variant, dedupe, lalu encode ke phrase fingerprint dan filter pakai bitcache.
func (m *Matcher) encode(layer *Layer, tokens []string, owner []int, opts Options) ([]candidate, []candidate) {
	var canonicals, degens []candidate
	seen := make(map[string]struct{})

	for _, v := range m.variants(layer, tokens, opts) {
		for _, p := range permute.Uniq(m.perms.Permutations(v.tokens, nil, false)) {
			key := fmt.Sprintf("%s-%t-%d", p.Text(), p.Ender, p.Mask)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}

			mask, edits := uint32(0), 0
			for j := range v.tokens {
				if p.Mask&(1<<uint(j)) == 0 {
					continue
				}
				mask |= 1 << uint(owner[j])
				edits += v.edits[j]
			}

			text := p.Text()
			c := candidate{perm: p, mask: mask, edits: edits, phrase: termops.EncodePhrase(text, true)}
			if m.mightHave(layer, c.phrase) {
				canonicals = append(canonicals, c)
			}

			if opts.Autocomplete && p.Ender && !(layer.Address && termops.IsAddressNumber(p.Tokens)) {
				d := c
				d.phrase = termops.EncodePhrase(text, false)
				d.prefix = true
				if m.mightHave(layer, d.phrase) {
					degens = append(degens, d)
				}
			}
		}
	}
	return canonicals, degens
}

func (m *Matcher) mightHave(layer *Layer, phrase uint64) bool {
	return layer.Bitcache == nil || layer.Bitcache.Has(phrase)
}

// expandDegens fetch degenerate index. value nya list canonical phrase id dengan distance di bit 4..7.
func (m *Matcher) expandDegens(ctx context.Context, layer *Layer, degens []candidate) ([]candidate, error) {
	keys := make([]uint64, 0, len(degens))
	for _, d := range degens {
		keys = append(keys, d.phrase)
	}

	m.notify(layer.Name, shardstore.KindDegen, len(keys))
	values, err := m.store.GetAll(ctx, layer.Name, shardstore.KindDegen, keys)
	if err != nil {
		return nil, fmt.Errorf("fetch degens %s: %w", layer.Name, err)
	}

	var expanded []candidate
	for _, d := range degens {
		raw, ok := values[d.phrase]
		if !ok {
			continue
		}
		ids, err := compress.DecodeIDList(raw)
		if err != nil || len(ids) == 0 {
			m.log.Warn("degenerate without canonical phrase", zap.String("layer", layer.Name),
				zap.Uint64("degen", d.phrase), zap.Error(err))
			continue
		}
		for _, id := range ids {
			c := d
			c.phrase = termops.StripDistance(id)
			c.distance = termops.Distance(id)
			expanded = append(expanded, c)
		}
	}
	return expanded, nil
}
