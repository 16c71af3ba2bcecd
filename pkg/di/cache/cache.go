package cache_di

import (
	"context"
	"fmt"
	"time"

	"github.com/lintang-b-s/osm-geocoder/pkg/config"
	"github.com/lintang-b-s/osm-geocoder/pkg/http/usecases"
	"github.com/lintang-b-s/osm-geocoder/pkg/metrics"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// New response cache. REDIS_ADDR kosong berarti tanpa redis.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger, m *metrics.Metrics) (*usecases.ResponseCache, func(), error) {
	if cfg.RedisAddr == "" {
		log.Info("response cache disabled")
		return usecases.NewResponseCache(nil, cfg.CacheTTL, m, log), func() {}, nil
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("redis ping failed: %w", err)
	}
	log.Info("response cache enabled", zap.String("addr", cfg.RedisAddr), zap.Duration("ttl", cfg.CacheTTL))

	cleanup := func() {
		_ = rdb.Close()
	}
	return usecases.NewResponseCache(rdb, cfg.CacheTTL, m, log), cleanup, nil
}
