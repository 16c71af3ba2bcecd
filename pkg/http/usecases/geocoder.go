package usecases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lintang-b-s/osm-geocoder/pkg"
	"github.com/lintang-b-s/osm-geocoder/pkg/datastructure"
	"github.com/lintang-b-s/osm-geocoder/pkg/geocoder"
	"github.com/lintang-b-s/osm-geocoder/pkg/metrics"
	"github.com/lintang-b-s/osm-geocoder/pkg/termops"

	"go.uber.org/zap"
)

type GeocoderService struct {
	log      *zap.Logger
	geocoder Geocoder
	cache    *ResponseCache
	metrics  *metrics.Metrics
}

func New(log *zap.Logger, g Geocoder, cache *ResponseCache, m *metrics.Metrics) *GeocoderService {
	return &GeocoderService{
		log:      log,
		geocoder: g,
		cache:    cache,
		metrics:  m,
	}
}

func (s *GeocoderService) Geocode(ctx context.Context, query string, opts geocoder.Options) ([]datastructure.Result, error) {
	mode := "forward"
	if _, ok := termops.ParseLonLat(query); ok {
		mode = "reverse"
	}
	return s.cached(ctx, mode, query, opts, func(ctx context.Context) ([]datastructure.Result, error) {
		return s.geocoder.Geocode(ctx, query, opts)
	})
}

func (s *GeocoderService) Reverse(ctx context.Context, lon, lat float64, opts geocoder.Options) ([]datastructure.Result, error) {
	query := fmt.Sprintf("%.6f,%.6f", lon, lat)
	return s.cached(ctx, "reverse", query, opts, func(ctx context.Context) ([]datastructure.Result, error) {
		return s.geocoder.Reverse(ctx, lon, lat, opts)
	})
}

func (s *GeocoderService) Tokenize(query string) TokenizeResult {
	return TokenizeQuery(query)
}

// TokenizeQuery token query beserta term fingerprint nya, atau pasangan lon,lat kalau query berupa koordinat.
func TokenizeQuery(query string) TokenizeResult {
	if coords, ok := termops.ParseLonLat(query); ok {
		return TokenizeResult{Tokens: []string{}, Terms: []uint64{}, LonLat: coords}
	}
	tokens := termops.Tokenize(query)
	terms := make([]uint64, len(tokens))
	for i, t := range tokens {
		terms[i] = termops.EncodeTerm(t)
	}
	return TokenizeResult{Tokens: tokens, Terms: terms}
}

func (s *GeocoderService) Layers() []string {
	return s.geocoder.Layers()
}

func (s *GeocoderService) cached(ctx context.Context, mode, query string, opts geocoder.Options,
	compute func(ctx context.Context) ([]datastructure.Result, error)) ([]datastructure.Result, error) {
	start := time.Now()
	results, hit, err := s.cache.GetOrCompute(ctx, CacheKey(mode, query, opts), compute)
	if err != nil {
		return nil, s.wrapError(err, query)
	}

	status := "miss"
	if hit {
		status = "hit"
	}
	s.metrics.GeocodeLatency.WithLabelValues(mode, status).Observe(time.Since(start).Seconds())
	s.metrics.GeocodeResults.WithLabelValues(mode).Observe(float64(len(results)))
	return results, nil
}

func (s *GeocoderService) wrapError(err error, query string) error {
	switch {
	case errors.Is(err, geocoder.ErrFeatureNotFound):
		return pkg.WrapErrorf(err, pkg.ErrNotFound, "feature %q not found", query)
	case errors.Is(err, geocoder.ErrBadCoordinate), errors.Is(err, geocoder.ErrBadLanguage):
		return pkg.WrapErrorf(err, pkg.ErrBadParamInput, "%s", err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return pkg.WrapErrorf(err, pkg.ErrInternalServerError, "request cancelled")
	}
	s.log.Error("geocode failed", zap.String("query", query), zap.Error(err))
	return pkg.WrapErrorf(err, pkg.ErrInternalServerError, "%s", pkg.MessageInternalServerError)
}
