package geocoder_di

import (
	"context"

	"github.com/lintang-b-s/osm-geocoder/pkg/config"
	"github.com/lintang-b-s/osm-geocoder/pkg/geocoder"
	"github.com/lintang-b-s/osm-geocoder/pkg/http/usecases"
	"github.com/lintang-b-s/osm-geocoder/pkg/kvdb"
	"github.com/lintang-b-s/osm-geocoder/pkg/metrics"
	"github.com/lintang-b-s/osm-geocoder/pkg/shardstore"

	"go.uber.org/zap"
)

// New load catalog layer dan index dari backend, lalu pasang observer metrics ke matcher.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger, backend kvdb.Backend,
	m *metrics.Metrics) (usecases.Geocoder, func(), error) {
	catalog, err := config.LoadCatalog(cfg.LayersFile)
	if err != nil {
		return nil, nil, err
	}

	store, err := shardstore.Open(ctx, backend, cfg.ShardCacheCost, log)
	if err != nil {
		return nil, nil, err
	}

	g, err := geocoder.Open(ctx, log, catalog, store)
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	g.WithObserver(m.ObserveFetch)
	log.Info("geocoder ready", zap.Strings("layers", g.Layers()))

	cleanup := func() {
		g.Close()
		_ = store.Close()
	}
	return g, cleanup, nil
}
