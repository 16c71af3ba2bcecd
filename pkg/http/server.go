package http

import (
	"context"

	"github.com/lintang-b-s/osm-geocoder/pkg/config"
	http_router "github.com/lintang-b-s/osm-geocoder/pkg/http/http-router"
	"github.com/lintang-b-s/osm-geocoder/pkg/http/http-router/controllers"
	http_server "github.com/lintang-b-s/osm-geocoder/pkg/http/server"
	"github.com/lintang-b-s/osm-geocoder/pkg/metrics"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Server struct {
	Log *zap.Logger
	g   errgroup.Group
}

func NewServer(log *zap.Logger) *Server {
	return &Server{Log: log}
}

// Use start api di background. Wait menunggu sampai api berhenti.
func (s *Server) Use(
	ctx context.Context,
	log *zap.Logger,
	cfg *config.Config,

	geocodeService controllers.GeocodeService,
	m *metrics.Metrics,
) (*Server, error) {
	serverCfg := http_server.Config{
		Port:    cfg.APIPort,
		Timeout: cfg.APITimeout,
	}
	limit := http_router.RateLimitConfig{
		RPS:   cfg.RateLimitRPS,
		Burst: cfg.RateLimitBurst,
	}

	server := http_router.NewAPI(log)

	s.g.Go(func() error {
		return server.Run(
			ctx, serverCfg, log, geocodeService, m, limit,
		)
	})

	return s, nil
}

func (s *Server) Wait() error {
	return s.g.Wait()
}
