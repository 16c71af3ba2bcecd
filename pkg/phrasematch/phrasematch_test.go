package phrasematch

import (
	"context"
	"errors"
	"testing"

	"github.com/lintang-b-s/osm-geocoder/pkg/bitcache"
	"github.com/lintang-b-s/osm-geocoder/pkg/compress"
	"github.com/lintang-b-s/osm-geocoder/pkg/dictcache"
	"github.com/lintang-b-s/osm-geocoder/pkg/grid"
	"github.com/lintang-b-s/osm-geocoder/pkg/kvdb"
	"github.com/lintang-b-s/osm-geocoder/pkg/permute"
	"github.com/lintang-b-s/osm-geocoder/pkg/shardstore"
	"github.com/lintang-b-s/osm-geocoder/pkg/termops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	store *shardstore.Store
	bits  *bitcache.Cache
}

func entry(t *testing.T, id uint32) uint64 {
	e, err := grid.Encode(grid.Cell{ID: id, X: 10, Y: 20, Relev: 1, Score: 3})
	require.NoError(t, err)
	return uint64(e)
}

// newFixture tulis phrase -> feature ids dan degenerate nya ke memory backend.
func newFixture(t *testing.T, layer string, phrases map[string][]uint32) fixture {
	ctx := context.Background()
	backend := kvdb.NewMemory()
	w := shardstore.NewWriter(backend, compress.ZSTD, 1)
	bits, err := bitcache.New(24)
	require.NoError(t, err)

	degens := make(map[uint64][]uint64)
	for text, ids := range phrases {
		phrase := termops.EncodePhrase(text, true)
		entries := make([]uint64, 0, len(ids))
		for _, id := range ids {
			entries = append(entries, entry(t, id))
		}
		w.Put(layer, shardstore.KindGrid, phrase, compress.EncodeGridList(entries))
		bits.Set(phrase)

		tokens := termops.Tokenize(text)
		for _, degen := range termops.GetPhraseDegens(tokens) {
			key := termops.EncodePhrase(degen, false)
			degens[key] = append(degens[key], termops.WithDistance(phrase, len(text)-len(degen)))
			bits.Set(key)
		}
	}
	for key, ids := range degens {
		w.Put(layer, shardstore.KindDegen, key, compress.EncodeIDList(ids))
	}
	require.NoError(t, w.Flush(ctx))

	store, err := shardstore.Open(ctx, backend, 1<<20, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return fixture{store: store, bits: bits}
}

func subqueryTexts(t *testing.T, m *Matcher, layer *Layer, tokens []string, opts Options) map[string]uint32 {
	res, err := m.Match(context.Background(), layer, tokens, opts)
	require.NoError(t, err)
	got := make(map[string]uint32)
	for _, sq := range res.Subqueries {
		key := sq.Text()
		if sq.Prefix {
			key += "*"
		}
		got[key] = sq.Mask
	}
	return got
}

func TestMatch(t *testing.T) {
	fx := newFixture(t, "place", map[string][]uint32{
		"jakarta":         {1},
		"jakarta selatan": {2},
		"bandung":         {3},
	})
	m := NewMatcher(permute.NewCache(), fx.store, zap.NewNop())
	layer := &Layer{Name: "place", Ordinal: 2, Zoom: 12, ScaleFactor: 100, Bitcache: fx.bits}

	tests := []struct {
		name   string
		tokens []string
		opts   Options
		want   map[string]uint32
	}{
		{
			name:   "exact phrases",
			tokens: []string{"jakarta", "selatan"},
			want:   map[string]uint32{"jakarta selatan": 0b11, "jakarta": 0b01},
		},
		{
			name:   "two places",
			tokens: []string{"bandung", "jakarta"},
			want:   map[string]uint32{"bandung": 0b01, "jakarta": 0b10},
		},
		{
			name:   "autocomplete prefix",
			tokens: []string{"jak"},
			opts:   Options{Autocomplete: true},
			want:   map[string]uint32{"jak*": 0b1},
		},
		{
			name:   "prefix needs autocomplete",
			tokens: []string{"jak"},
			want:   map[string]uint32{},
		},
		{
			name:   "unknown",
			tokens: []string{"surabaya"},
			opts:   Options{Autocomplete: true},
			want:   map[string]uint32{},
		},
		{
			name:   "empty",
			tokens: []string{},
			want:   map[string]uint32{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, subqueryTexts(t, m, layer, tt.tokens, tt.opts))
		})
	}

	t.Run("annotations", func(t *testing.T) {
		res, err := m.Match(context.Background(), layer, []string{"jakarta", "selatan"}, Options{})
		require.NoError(t, err)
		assert.Equal(t, 2, res.Ordinal)
		assert.Equal(t, 12, res.Zoom)
		require.Len(t, res.Subqueries, 2)
		assert.Equal(t, 1.0, res.Subqueries[0].Weight)
		assert.Equal(t, 0.5, res.Subqueries[1].Weight)
		require.Len(t, res.Subqueries[0].Entries, 1)
		assert.Equal(t, uint32(2), res.Subqueries[0].Entries[0].ID())
	})

	t.Run("degenerate carries distance to both canonicals", func(t *testing.T) {
		res, err := m.Match(context.Background(), layer, []string{"jakarta"}, Options{Autocomplete: true})
		require.NoError(t, err)
		distances := map[uint32]int{}
		for _, sq := range res.Subqueries {
			if sq.Prefix {
				distances[sq.Entries[0].ID()] = sq.Distance
			}
		}
		assert.Equal(t, map[uint32]int{1: 0, 2: 8}, distances)
	})
}

func TestMatchReplacer(t *testing.T) {
	fx := newFixture(t, "street", map[string][]uint32{"jalan sudirman": {7}})
	m := NewMatcher(permute.NewCache(), fx.store, zap.NewNop())
	layer := &Layer{
		Name:     "street",
		Replacer: termops.NewReplacer(map[string]string{"jl": "jalan"}, false),
		Bitcache: fx.bits,
	}

	got := subqueryTexts(t, m, layer, []string{"jl", "sudirman"}, Options{})
	assert.Equal(t, map[string]uint32{"jalan sudirman": 0b11}, got)
}

func TestMatchAddressNumToken(t *testing.T) {
	fx := newFixture(t, "address", map[string][]uint32{
		"1## jalan sudirman": {42},
		"jalan sudirman":     {42},
	})
	m := NewMatcher(permute.NewCache(), fx.store, zap.NewNop())
	layer := &Layer{Name: "address", Ordinal: 3, Address: true, Bitcache: fx.bits}

	got := subqueryTexts(t, m, layer, []string{"jalan", "sudirman", "123"}, Options{})
	assert.Equal(t, map[string]uint32{
		"1## jalan sudirman": 0b111,
		"jalan sudirman":     0b011,
	}, got)

	t.Run("non address layer ignores numbers", func(t *testing.T) {
		layer := &Layer{Name: "address", Ordinal: 3, Bitcache: fx.bits}
		got := subqueryTexts(t, m, layer, []string{"jalan", "sudirman", "123"}, Options{})
		assert.Equal(t, map[string]uint32{"jalan sudirman": 0b011}, got)
	})
}

func TestMatchFuzzy(t *testing.T) {
	fx := newFixture(t, "place", map[string][]uint32{"jakarta": {1}})
	dict, err := dictcache.Build(map[string]uint64{"jakarta": 10})
	require.NoError(t, err)
	m := NewMatcher(permute.NewCache(), fx.store, zap.NewNop())
	layer := &Layer{Name: "place", Bitcache: fx.bits, Dict: dict}

	res, err := m.Match(context.Background(), layer, []string{"jakrta"}, Options{Fuzzy: true})
	require.NoError(t, err)
	require.Len(t, res.Subqueries, 1)
	assert.Equal(t, []string{"jakarta"}, res.Subqueries[0].Tokens)
	assert.Equal(t, 1, res.Subqueries[0].EditDistance)
	assert.Equal(t, uint32(1), res.Subqueries[0].Mask)

	res, err = m.Match(context.Background(), layer, []string{"jakrta"}, Options{})
	require.NoError(t, err)
	assert.Empty(t, res.Subqueries)
}

type countingStore struct {
	keys int
	err  error
}

func (c *countingStore) GetAll(ctx context.Context, layer string, kind shardstore.Kind, keys []uint64) (map[uint64][]byte, error) {
	c.keys += len(keys)
	return map[uint64][]byte{}, c.err
}

func TestMatchBitcacheFilter(t *testing.T) {
	bits, err := bitcache.New(24)
	require.NoError(t, err)
	store := &countingStore{}
	m := NewMatcher(permute.NewCache(), store, zap.NewNop())

	observed := 0
	m.WithObserver(func(layer string, kind shardstore.Kind, keys int) { observed += keys })

	_, err = m.Match(context.Background(), &Layer{Name: "place", Bitcache: bits}, []string{"a", "b"}, Options{Autocomplete: true})
	require.NoError(t, err)
	assert.Equal(t, 0, store.keys)

	bits.Set(termops.EncodePhrase("a b", true))
	_, err = m.Match(context.Background(), &Layer{Name: "place", Bitcache: bits}, []string{"a", "b"}, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, store.keys)
	assert.Equal(t, 1, observed)
}

func TestMatchStoreError(t *testing.T) {
	errDown := errors.New("shard store down")
	m := NewMatcher(permute.NewCache(), &countingStore{err: errDown}, zap.NewNop())

	_, err := m.Match(context.Background(), &Layer{Name: "place"}, []string{"jakarta"}, Options{Autocomplete: true})
	assert.ErrorIs(t, err, errDown)
}
