package http_router

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	_ "github.com/lintang-b-s/osm-geocoder/docs"
	"github.com/lintang-b-s/osm-geocoder/pkg/http/http-router/controllers"
	router_helper "github.com/lintang-b-s/osm-geocoder/pkg/http/http-router/router-helper"
	http_server "github.com/lintang-b-s/osm-geocoder/pkg/http/server"
	"github.com/lintang-b-s/osm-geocoder/pkg/metrics"

	"github.com/julienschmidt/httprouter"
	"github.com/justinas/alice"
	"github.com/rs/cors"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

type RateLimitConfig struct {
	RPS   float64
	Burst int
}

type API struct {
	log *zap.Logger
}

func NewAPI(log *zap.Logger) *API {
	return &API{log: log}
}

// Handler router lengkap dengan middleware chain.
func (api *API) Handler(
	log *zap.Logger,
	geocodeService controllers.GeocodeService,
	m *metrics.Metrics,
	limit RateLimitConfig,
) http.Handler {
	router := httprouter.New()

	corsHandler := cors.New(cors.Options{ //nolint:gocritic // ignore
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", requestIDHeader},
		ExposedHeaders:   []string{"Link", requestIDHeader},
		AllowCredentials: true,
		MaxAge:           300, //nolint:mnd // ignore

	})

	group := router_helper.NewRouteGroup(router, "/api")

	geocodeRoutes := controllers.New(geocodeService, log)

	geocodeRoutes.Routes(group)

	router.Handler(http.MethodGet, "/metrics", m.Handler())
	router.Handler(http.MethodGet, "/swagger/*any", httpSwagger.WrapHandler)

	return alice.New(corsHandler.Handler, api.recoverPanic, RealIP, Labels, Heartbeat("healthz"),
		Logger(log), Metrics(m), RateLimit(limit.RPS, limit.Burst), EnforceJSONHandler).Then(router)
}

// Run jalankan api sampai ctx selesai, lalu shutdown graceful.
func (api *API) Run(
	ctx context.Context,
	config http_server.Config,
	log *zap.Logger,

	geocodeService controllers.GeocodeService,
	m *metrics.Metrics,
	limit RateLimitConfig,
) error {
	log.Info("Run httprouter API")

	srv := http_server.New(ctx, api.Handler(log, geocodeService, m, limit), config)
	log.Info(fmt.Sprintf("API run on port %d", config.Port))

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info("shutting down API")
	return srv.Shutdown(shutdownCtx)
}
