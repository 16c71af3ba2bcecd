package geocoder

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/lintang-b-s/osm-geocoder/pkg/bitcache"
	"github.com/lintang-b-s/osm-geocoder/pkg/config"
	"github.com/lintang-b-s/osm-geocoder/pkg/dictcache"
	"github.com/lintang-b-s/osm-geocoder/pkg/geofence"
	"github.com/lintang-b-s/osm-geocoder/pkg/permute"
	"github.com/lintang-b-s/osm-geocoder/pkg/phrasematch"
	"github.com/lintang-b-s/osm-geocoder/pkg/relevance"
	"github.com/lintang-b-s/osm-geocoder/pkg/shardstore"
	"github.com/lintang-b-s/osm-geocoder/pkg/termops"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
)

const (
	DefaultLimit   = 5
	MaxLimit       = 10
	MaxQueryTokens = 20

	// kandidat yang di verifikasi per request, termasuk backfill
	maxCandidates = 60
	backfillBatch = 20
	qualityBar    = 0.5

	verifyPoolSize  = 10
	contextPoolSize = 5

	// nomor rumah tidak ketemu, hasil jatuh ke jalan nya
	streetFallback = 0.99
)

var (
	ErrFeatureNotFound = errors.New("feature not found")
	ErrBadCoordinate   = errors.New("coordinate out of range")
	ErrNoLayers        = errors.New("index has no layer from the catalog")
)

// Store bagian shard store yang dibutuhkan geocoder.
type Store interface {
	phrasematch.Store
	Get(ctx context.Context, layer string, kind shardstore.Kind, key uint64) ([]byte, error)
	GetBlob(ctx context.Context, layer, name string) ([]byte, error)
	Meta() shardstore.Meta
}

type Options struct {
	Limit        int
	Autocomplete bool
	Fuzzy        bool
	// Proximity lon, lat.
	Proximity *[2]float64
	// BBox minLon, minLat, maxLon, maxLat.
	BBox  *[4]float64
	Types []string
	// Language kode BCP 47 text hasil, kosong berarti nama default feature.
	Language string
	// LanguageMode "strict": buang feature yang tidak punya nama dalam Language.
	LanguageMode string
}

func DefaultOptions() Options {
	return Options{Limit: DefaultLimit, Autocomplete: true}
}

func (o Options) limit() int {
	switch {
	case o.Limit <= 0:
		return DefaultLimit
	case o.Limit > MaxLimit:
		return MaxLimit
	}
	return o.Limit
}

// layerIndex resource satu layer yang ada di index.
type layerIndex struct {
	cfg   config.Layer
	match *phrasematch.Layer
}

type Geocoder struct {
	catalog *config.Catalog
	store   Store
	// per ordinal, nil kalau layer tidak ada di index
	layers  []*layerIndex
	ranking relevance.Layers
	fences  *geofence.FenceIndex
	matcher *phrasematch.Matcher
	pool    *ants.Pool
	log     *zap.Logger

	// score feature terbesar di semua layer
	maxScore float64
}

// Open load resource setiap layer catalog yang ada di index: bitcache, vocabulary, max score dan context index.
// layer catalog yang tidak ada di index di skip dengan warning.
func Open(ctx context.Context, log *zap.Logger, catalog *config.Catalog, store Store) (*Geocoder, error) {
	present := make(map[string]struct{})
	for _, name := range store.Meta().Layers {
		present[name] = struct{}{}
	}

	g := &Geocoder{
		catalog: catalog,
		store:   store,
		layers:  make([]*layerIndex, len(catalog.Layers)),
		ranking: make(relevance.Layers, len(catalog.Layers)),
		fences:  geofence.NewFenceIndex(),
		matcher: phrasematch.NewMatcher(permute.NewCache(), store, log),
		log:     log,
	}

	loaded := 0
	for ordinal, cfg := range catalog.Layers {
		g.ranking[ordinal] = relevance.Layer{
			Name:         cfg.Name,
			Ordinal:      ordinal,
			TypeIndex:    ordinal,
			IgnoreOrder:  cfg.IgnoreOrder,
			InheritScore: cfg.InheritScore,
			GrantScore:   cfg.Grants(),
			AddressOrder: relevance.Direction(cfg.AddressOrder),
		}
		if _, ok := present[cfg.Name]; !ok {
			log.Warn("layer not in index, skipped", zap.String("layer", cfg.Name))
			continue
		}
		li, err := g.loadLayer(ctx, ordinal, cfg)
		if err != nil {
			return nil, fmt.Errorf("load layer %s: %w", cfg.Name, err)
		}
		g.layers[ordinal] = li
		g.maxScore = math.Max(g.maxScore, li.match.ScaleFactor)
		loaded++
	}
	if loaded == 0 {
		return nil, ErrNoLayers
	}

	pool, err := ants.NewPool(verifyPoolSize)
	if err != nil {
		return nil, fmt.Errorf("verification pool: %w", err)
	}
	g.pool = pool

	log.Info("geocoder ready", zap.Int("layers", loaded), zap.String("contexts", g.fences.String()))
	return g, nil
}

func (g *Geocoder) loadLayer(ctx context.Context, ordinal int, cfg config.Layer) (*layerIndex, error) {
	match := &phrasematch.Layer{
		Name:     cfg.Name,
		Ordinal:  ordinal,
		Zoom:     cfg.Zoom,
		Address:  cfg.Address,
		Replacer: termops.NewReplacer(cfg.Replacer, cfg.Stemming),
	}

	raw, err := g.store.GetBlob(ctx, cfg.Name, shardstore.BlobBitcache)
	if err != nil {
		return nil, err
	}
	if raw != nil {
		if match.Bitcache, err = bitcache.Load(raw); err != nil {
			return nil, err
		}
	}

	raw, err = g.store.GetBlob(ctx, cfg.Name, shardstore.BlobDict)
	if err != nil {
		return nil, err
	}
	if raw != nil {
		if match.Dict, err = dictcache.Load(raw); err != nil {
			return nil, err
		}
	}

	raw, err = g.store.Get(ctx, cfg.Name, shardstore.KindFreq, termops.MaxKey)
	if err != nil {
		return nil, err
	}
	if raw != nil {
		maxScore, n := binary.Uvarint(raw)
		if n <= 0 {
			return nil, fmt.Errorf("decode max score: %w", termops.ErrBadFreqTotal)
		}
		match.ScaleFactor = float64(maxScore)
	}

	fence := geofence.NewRtreeFence(ordinal)
	raw, err = g.store.GetBlob(ctx, cfg.Name, shardstore.BlobContexts)
	if err != nil {
		return nil, err
	}
	if raw != nil {
		if fence, err = geofence.LoadRtreeFence(ordinal, raw); err != nil {
			return nil, err
		}
	}
	if err := g.fences.PutFence(cfg.Name, fence); err != nil {
		return nil, err
	}

	g.log.Debug("layer loaded", zap.String("layer", cfg.Name), zap.Int("ordinal", ordinal),
		zap.Bool("bitcache", match.Bitcache != nil), zap.Bool("dict", match.Dict != nil),
		zap.Int("contexts", fence.Len()))
	return &layerIndex{cfg: cfg, match: match}, nil
}

// WithObserver teruskan callback fetch phrase matcher, dipakai metrics.
func (g *Geocoder) WithObserver(observe phrasematch.FetchObserver) *Geocoder {
	g.matcher.WithObserver(observe)
	return g
}

// Layers nama layer yang bisa di query, urut ordinal.
func (g *Geocoder) Layers() []string {
	names := []string{}
	for _, li := range g.layers {
		if li != nil {
			names = append(names, li.cfg.Name)
		}
	}
	return names
}

func (g *Geocoder) layerByName(name string) (int, *layerIndex) {
	ordinal := g.catalog.Ordinal(name)
	if ordinal < 0 || g.layers[ordinal] == nil {
		return -1, nil
	}
	return ordinal, g.layers[ordinal]
}

// Close release verification pool. store di tutup oleh pemiliknya.
func (g *Geocoder) Close() {
	g.pool.Release()
}
