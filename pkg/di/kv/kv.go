package kv_di

import (
	"context"
	"errors"
	"fmt"

	"github.com/lintang-b-s/osm-geocoder/pkg/config"
	"github.com/lintang-b-s/osm-geocoder/pkg/kvdb"
	"github.com/lintang-b-s/osm-geocoder/pkg/kvdb/minio"
	"github.com/lintang-b-s/osm-geocoder/pkg/kvdb/s3"

	"go.uber.org/zap"
)

var ErrUnknownBackend = errors.New("unknown store backend")

// New buka backend shard sesuai STORE_BACKEND: bolt (default), badger, s3, minio.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (kvdb.Backend, func(), error) {
	var (
		backend kvdb.Backend
		err     error
	)
	switch cfg.StoreBackend {
	case "", "bolt":
		backend, err = kvdb.OpenBolt(cfg.StorePath)
	case "badger":
		backend, err = kvdb.OpenBadger(cfg.StorePath, log)
	case "s3":
		backend, err = s3.New(ctx, cfg.S3Bucket, cfg.S3Prefix, cfg.S3Region, cfg.S3Endpoint)
	case "minio":
		backend, err = minio.New(ctx, minio.Config{
			Endpoint:  cfg.MinioURL,
			AccessKey: cfg.MinioKey,
			SecretKey: cfg.MinioSecret,
			Bucket:    cfg.MinioBucket,
			Prefix:    cfg.S3Prefix,
			Secure:    cfg.MinioSSL,
		})
	default:
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownBackend, cfg.StoreBackend)
	}
	if err != nil {
		return nil, nil, err
	}
	log.Info("store backend opened", zap.String("backend", cfg.StoreBackend), zap.String("path", cfg.StorePath))

	cleanup := func() {
		if err := backend.Close(); err != nil {
			log.Error("close store backend", zap.Error(err))
		}
	}
	return backend, cleanup, nil
}
