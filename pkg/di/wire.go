//go:build wireinject

//go:generate wire
package di

import (
	"context"

	"github.com/lintang-b-s/osm-geocoder/pkg/config"
	cache_di "github.com/lintang-b-s/osm-geocoder/pkg/di/cache"
	config_di "github.com/lintang-b-s/osm-geocoder/pkg/di/config"
	shortcontext "github.com/lintang-b-s/osm-geocoder/pkg/di/context"
	geocoder_di "github.com/lintang-b-s/osm-geocoder/pkg/di/geocoder"
	kv_di "github.com/lintang-b-s/osm-geocoder/pkg/di/kv"
	logger_di "github.com/lintang-b-s/osm-geocoder/pkg/di/logger"
	metrics_di "github.com/lintang-b-s/osm-geocoder/pkg/di/metrics"
	geocodeHttp "github.com/lintang-b-s/osm-geocoder/pkg/http"
	"github.com/lintang-b-s/osm-geocoder/pkg/http/http-router/controllers"
	"github.com/lintang-b-s/osm-geocoder/pkg/http/usecases"
	"github.com/lintang-b-s/osm-geocoder/pkg/metrics"

	"github.com/google/wire"
	"go.uber.org/zap"
)

var defaultSet = wire.NewSet(
	shortcontext.New,
	config_di.New,
	logger_di.New,
	metrics_di.New,
	kv_di.New,
	geocoder_di.New,
	cache_di.New,
)

var geocoderSet = wire.NewSet(
	defaultSet,
	NewGeocodeService,
	NewGeocodeAPIServer,
)

func NewGeocodeService(log *zap.Logger, g usecases.Geocoder, cache *usecases.ResponseCache,
	m *metrics.Metrics) controllers.GeocodeService {
	return usecases.New(log, g, cache, m)
}

func NewGeocodeAPIServer(ctx context.Context, log *zap.Logger, cfg *config.Config,
	geocodeService controllers.GeocodeService, m *metrics.Metrics) (*geocodeHttp.Server, error) {
	api := geocodeHttp.NewServer(log)

	apiService, err := api.Use(
		ctx, log, cfg, geocodeService, m,
	)
	if err != nil {
		return nil, err
	}

	return apiService, nil
}

func InitializeGeocoderService() (*geocodeHttp.Server, func(), error) {

	panic(wire.Build(geocoderSet))
}
