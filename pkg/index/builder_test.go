package index

import (
	"context"
	"encoding/binary"
	"strings"
	"testing"

	"github.com/lintang-b-s/osm-geocoder/pkg/bitcache"
	"github.com/lintang-b-s/osm-geocoder/pkg/compress"
	"github.com/lintang-b-s/osm-geocoder/pkg/config"
	"github.com/lintang-b-s/osm-geocoder/pkg/datastructure"
	"github.com/lintang-b-s/osm-geocoder/pkg/dictcache"
	"github.com/lintang-b-s/osm-geocoder/pkg/geofence"
	"github.com/lintang-b-s/osm-geocoder/pkg/grid"
	"github.com/lintang-b-s/osm-geocoder/pkg/kvdb"
	"github.com/lintang-b-s/osm-geocoder/pkg/permute"
	"github.com/lintang-b-s/osm-geocoder/pkg/phrasematch"
	"github.com/lintang-b-s/osm-geocoder/pkg/shardstore"
	"github.com/lintang-b-s/osm-geocoder/pkg/termops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"
)

func testCatalog(t *testing.T) *config.Catalog {
	c, err := config.ParseCatalog([]byte(`
layers:
  - name: region
    zoom: 8
    admin_levels: [4]
  - name: place
    zoom: 12
    place_tags: [city]
  - name: postcode
    zoom: 13
    postcode: true
  - name: address
    zoom: 14
    address: true
`))
	require.NoError(t, err)
	return c
}

func testFeatures() []datastructure.Feature {
	return []datastructure.Feature{
		{
			ID: 1, Layer: "region", Names: []string{"DKI Jakarta"},
			Center: [2]float64{106.85, -6.2}, BBox: [4]float64{106.6, -6.4, 107.0, -6.0},
			Polygon: [][][2]float64{{{106.6, -6.4}, {107.0, -6.4}, {107.0, -6.0}, {106.6, -6.0}, {106.6, -6.4}}},
			Score:   10000,
		},
		{
			ID: 1, Layer: "place", Names: []string{"Jakarta Selatan"},
			Center: [2]float64{106.8, -6.26}, BBox: [4]float64{106.79, -6.27, 106.81, -6.25}, Score: 2000,
		},
		{
			ID: 2, Layer: "place", Names: []string{"Bandung"},
			Center: [2]float64{107.6, -6.9}, BBox: [4]float64{107.59, -6.91, 107.61, -6.89}, Score: 1000,
		},
		{
			ID: 7, Layer: "address", Names: []string{"Jalan Sudirman"},
			Center: [2]float64{106.82, -6.21}, BBox: [4]float64{106.815, -6.22, 106.825, -6.2},
			Addresses: []datastructure.AddressPoint{{Number: "12", Lon: 106.821, Lat: -6.212}, {Number: "12A", Lon: 106.822, Lat: -6.213}},
		},
	}
}

func buildStore(t *testing.T) *shardstore.Store {
	ctx := context.Background()
	b := NewBuilder(testCatalog(t), zap.NewNop())
	for _, f := range testFeatures() {
		require.NoError(t, b.Add(f))
	}
	assert.Equal(t, 4, b.Len())

	backend := kvdb.NewMemory()
	require.NoError(t, b.Build(ctx, shardstore.NewWriter(backend, compress.ZSTD, 1)))

	store, err := shardstore.Open(ctx, backend, 1<<20, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestBuilderAdd(t *testing.T) {
	tests := []struct {
		name    string
		feature datastructure.Feature
		wantErr error
	}{
		{name: "unknown layer", feature: datastructure.Feature{ID: 1, Layer: "poi", Names: []string{"monas"}}, wantErr: ErrUnknownLayer},
		{name: "id too wide", feature: datastructure.Feature{ID: grid.MaxID + 1, Layer: "place", Names: []string{"bogor"}}, wantErr: ErrFeatureIDRange},
		{name: "duplicate", feature: datastructure.Feature{ID: 2, Layer: "place", Names: []string{"bogor"}}, wantErr: ErrDuplicateFeature},
		{name: "same id other layer", feature: datastructure.Feature{ID: 2, Layer: "region", Names: []string{"jawa barat"}}},
	}

	b := NewBuilder(testCatalog(t), zap.NewNop())
	require.NoError(t, b.Add(datastructure.Feature{ID: 2, Layer: "place", Names: []string{"bandung"}}))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := b.Add(tt.feature)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestBuildMeta(t *testing.T) {
	store := buildStore(t)

	// postcode tidak punya feature, jadi tidak di tulis
	assert.Equal(t, []string{"address", "place", "region"}, store.Meta().Layers)
	assert.Equal(t, 1, store.Meta().ShardLevel)
}

func TestBuildFrequency(t *testing.T) {
	ctx := context.Background()
	store := buildStore(t)

	read := func(term uint64) uint64 {
		raw, err := store.Get(ctx, "place", shardstore.KindFreq, term)
		require.NoError(t, err)
		require.NotNil(t, raw)
		v, n := binary.Uvarint(raw)
		require.Greater(t, n, 0)
		return v
	}

	assert.Equal(t, uint64(3), read(termops.CountKey))
	assert.Equal(t, uint64(2000), read(termops.MaxKey))
	assert.Equal(t, uint64(1), read(termops.EncodeTerm("bandung")))
}

func TestBuildBlobs(t *testing.T) {
	ctx := context.Background()
	store := buildStore(t)

	raw, err := store.GetBlob(ctx, "place", shardstore.BlobBitcache)
	require.NoError(t, err)
	bits, err := bitcache.Load(raw)
	require.NoError(t, err)
	assert.True(t, bits.Has(termops.EncodePhrase("jakarta selatan", true)))
	assert.True(t, bits.Has(termops.EncodePhrase("band", false)))

	raw, err = store.GetBlob(ctx, "place", shardstore.BlobDict)
	require.NoError(t, err)
	dict, err := dictcache.Load(raw)
	require.NoError(t, err)
	assert.True(t, dict.Has("bandung"))
	assert.Equal(t, 3, dict.Len())

	raw, err = store.GetBlob(ctx, "region", shardstore.BlobContexts)
	require.NoError(t, err)
	fences, err := geofence.LoadRtreeFence(0, raw)
	require.NoError(t, err)
	require.Equal(t, 1, fences.Len())
	found := fences.Get(-6.2, 106.8)
	require.Len(t, found, 1)
	assert.Equal(t, uint32(1), found[0].ID)
}

func TestBuildFeatureRecord(t *testing.T) {
	store := buildStore(t)

	raw, err := store.Get(context.Background(), "address", shardstore.KindFeature, 7)
	require.NoError(t, err)
	var f datastructure.Feature
	require.NoError(t, msgpack.Unmarshal(raw, &f))
	assert.Equal(t, "Jalan Sudirman", f.Text())
	assert.Len(t, f.Addresses, 2)

	raw, err = store.Get(context.Background(), "address", shardstore.KindFeature, 8)
	assert.NoError(t, err)
	assert.Nil(t, raw)
}

func TestBuildMatch(t *testing.T) {
	ctx := context.Background()
	store := buildStore(t)
	matcher := phrasematch.NewMatcher(permute.NewCache(), store, zap.NewNop())

	tests := []struct {
		name    string
		layer   *phrasematch.Layer
		query   string
		opts    phrasematch.Options
		wantIDs map[string][]uint32
	}{
		{
			name:    "full name",
			layer:   &phrasematch.Layer{Name: "place", Ordinal: 1, Zoom: 12},
			query:   "jakarta selatan",
			wantIDs: map[string][]uint32{"jakarta selatan": {1}},
		},
		{
			name:    "single token",
			layer:   &phrasematch.Layer{Name: "place", Ordinal: 1, Zoom: 12},
			query:   "bandung",
			wantIDs: map[string][]uint32{"bandung": {2}},
		},
		{
			name:    "autocomplete",
			layer:   &phrasematch.Layer{Name: "place", Ordinal: 1, Zoom: 12},
			query:   "band",
			opts:    phrasematch.Options{Autocomplete: true},
			wantIDs: map[string][]uint32{"band": {2}},
		},
		{
			name:    "house number",
			layer:   &phrasematch.Layer{Name: "address", Ordinal: 3, Zoom: 14, Address: true},
			query:   "12 jalan sudirman",
			wantIDs: map[string][]uint32{"## jalan sudirman": {7}, "jalan sudirman": {7}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := matcher.Match(ctx, tt.layer, termops.Tokenize(tt.query), tt.opts)
			require.NoError(t, err)

			got := make(map[string][]uint32)
			for _, sq := range res.Subqueries {
				text := strings.Join(sq.Tokens, " ")
				if _, ok := tt.wantIDs[text]; !ok {
					continue
				}
				ids := []uint32{}
				for _, e := range sq.Entries {
					ids = append(ids, e.ID())
				}
				got[text] = ids
			}
			for text, want := range tt.wantIDs {
				assert.Subset(t, got[text], want, text)
				assert.NotEmpty(t, got[text], text)
			}
		})
	}
}

func TestLoadGeoJSONLines(t *testing.T) {
	input := `{"id":1,"layer":"place","names":["Bandung"],"center":[107.6,-6.9],"score":1000}

{"id":2,"layer":"place","names":["Bogor"],"center":[106.8,-6.6],"bbox":[106.7,-6.7,106.9,-6.5]}
`
	features, err := LoadGeoJSONLines(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, features, 2)
	assert.Equal(t, [4]float64{107.6, -6.9, 107.6, -6.9}, features[0].BBox)
	assert.Equal(t, 1000.0, features[0].Score)
	assert.Equal(t, [4]float64{106.7, -6.7, 106.9, -6.5}, features[1].BBox)

	tests := []struct {
		name  string
		input string
	}{
		{name: "not json", input: "{id: 1"},
		{name: "missing layer", input: `{"id":1,"names":["x"]}`},
		{name: "missing names", input: `{"id":1,"layer":"place"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadGeoJSONLines(strings.NewReader(tt.input))
			assert.ErrorIs(t, err, ErrBadFeatureLine)
		})
	}
}
