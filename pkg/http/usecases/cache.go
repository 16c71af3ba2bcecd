package usecases

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/lintang-b-s/osm-geocoder/pkg/datastructure"
	"github.com/lintang-b-s/osm-geocoder/pkg/geocoder"
	"github.com/lintang-b-s/osm-geocoder/pkg/metrics"
	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	keyPrefix      = "geocode:"
	computeTimeout = 30 * time.Second
)

// RedisClient bagian dari *redis.Client yang dipakai cache.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// ResponseCache cache hasil geocode di redis. request identik yang datang bersamaan di gabung lewat singleflight.
// client nil berarti cache mati, singleflight tetap jalan.
type ResponseCache struct {
	client  RedisClient
	ttl     time.Duration
	group   singleflight.Group
	metrics *metrics.Metrics
	log     *zap.Logger
}

func NewResponseCache(client RedisClient, ttl time.Duration, m *metrics.Metrics, log *zap.Logger) *ResponseCache {
	return &ResponseCache{client: client, ttl: ttl, metrics: m, log: log}
}

func (c *ResponseCache) get(ctx context.Context, key string) ([]datastructure.Result, bool) {
	if c.client == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Error("cache get failed", zap.String("key", key), zap.Error(err))
		}
		c.metrics.CacheMissesTotal.Inc()
		return nil, false
	}
	var results []datastructure.Result
	if err := msgpack.Unmarshal(raw, &results); err != nil {
		c.log.Error("cache unmarshal failed", zap.String("key", key), zap.Error(err))
		c.metrics.CacheMissesTotal.Inc()
		return nil, false
	}
	c.metrics.CacheHitsTotal.Inc()
	return results, true
}

func (c *ResponseCache) set(ctx context.Context, key string, results []datastructure.Result) {
	if c.client == nil {
		return
	}
	raw, err := msgpack.Marshal(results)
	if err != nil {
		c.log.Error("cache marshal failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.log.Error("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

// GetOrCompute bool kedua true kalau hasil dari cache. compute jalan dengan context sendiri (maksimal
// computeTimeout), tidak ikut batal saat caller yang memulainya batal.
func (c *ResponseCache) GetOrCompute(ctx context.Context, key string,
	compute func(ctx context.Context) ([]datastructure.Result, error)) ([]datastructure.Result, bool, error) {
	if results, ok := c.get(ctx, key); ok {
		return results, true, nil
	}
	ch := c.group.DoChan(key, func() (interface{}, error) {
		cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), computeTimeout)
		defer cancel()
		results, err := compute(cctx)
		if err != nil {
			return nil, err
		}
		c.set(cctx, key, results)
		return results, nil
	})
	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, false, res.Err
		}
		return res.Val.([]datastructure.Result), false, nil
	}
}

// CacheKey key untuk kombinasi mode, query dan options. query di normalisasi whitespace dan case.
func CacheKey(mode, query string, opts geocoder.Options) string {
	types := append([]string(nil), opts.Types...)
	sort.Strings(types)

	var b strings.Builder
	fmt.Fprintf(&b, "%s|%s|l=%d|a=%t|f=%t|t=%s", mode, strings.Join(strings.Fields(strings.ToLower(query)), " "),
		opts.Limit, opts.Autocomplete, opts.Fuzzy, strings.Join(types, ","))
	if opts.Proximity != nil {
		fmt.Fprintf(&b, "|p=%.6f,%.6f", opts.Proximity[0], opts.Proximity[1])
	}
	if opts.BBox != nil {
		fmt.Fprintf(&b, "|b=%.6f,%.6f,%.6f,%.6f", opts.BBox[0], opts.BBox[1], opts.BBox[2], opts.BBox[3])
	}
	if opts.Language != "" {
		fmt.Fprintf(&b, "|lang=%s|lm=%s", strings.ToLower(opts.Language), opts.LanguageMode)
	}
	hash := sha256.Sum256([]byte(b.String()))
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}
