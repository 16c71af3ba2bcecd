package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/lintang-b-s/osm-geocoder/pkg/compress"
	"github.com/lintang-b-s/osm-geocoder/pkg/config"
	"github.com/lintang-b-s/osm-geocoder/pkg/datastructure"
	kv_di "github.com/lintang-b-s/osm-geocoder/pkg/di/kv"
	logger_di "github.com/lintang-b-s/osm-geocoder/pkg/di/logger"
	"github.com/lintang-b-s/osm-geocoder/pkg/index"
	"github.com/lintang-b-s/osm-geocoder/pkg/shardstore"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func main() {
	app := &cli.App{
		Name:  "indexing",
		Usage: "build index geocoder dari file .osm.pbf atau .geojsonl",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "input",
				Aliases:  []string{"f"},
				Usage:    "file OpenStreetMap (.osm.pbf) atau satu feature json per baris (.geojsonl)",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "layers",
				Usage: "file catalog layer (yaml)",
				Value: "layers.yaml",
			},
			&cli.StringFlag{
				Name:  "store",
				Usage: "backend shard: bolt, badger, s3, minio (default dari STORE_BACKEND)",
			},
			&cli.StringFlag{
				Name:  "path",
				Usage: "path file bolt / direktori badger (default dari STORE_PATH)",
			},
			&cli.StringFlag{
				Name:  "compression",
				Usage: "codec shard: zstd, lz4, none (default dari STORE_COMPRESSION)",
			},
			&cli.IntFlag{
				Name:  "shard-level",
				Usage: "jumlah shard per kind = 16^level (default dari STORE_SHARD_LEVEL)",
			},
			&cli.BoolFlag{
				Name:  "progress",
				Usage: "tampilkan progress bar",
				Value: true,
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(c *cli.Context) error {
	ctx, cancel := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.New()
	if err != nil {
		return err
	}
	if v := c.String("store"); v != "" {
		cfg.StoreBackend = v
	}
	if v := c.String("path"); v != "" {
		cfg.StorePath = v
	}
	if v := c.String("compression"); v != "" {
		cfg.StoreCompression = v
	}
	if c.IsSet("shard-level") {
		cfg.StoreShardLevel = c.Int("shard-level")
	}

	logger, cleanupLog, err := logger_di.New(cfg)
	if err != nil {
		return err
	}
	defer cleanupLog()

	catalog, err := config.LoadCatalog(c.String("layers"))
	if err != nil {
		return err
	}
	codec, err := compress.ParseCodec(cfg.StoreCompression)
	if err != nil {
		return err
	}

	features, err := readFeatures(ctx, c.String("input"), catalog)
	if err != nil {
		return err
	}
	logger.Info("features loaded", zap.String("input", c.String("input")), zap.Int("count", len(features)))

	builder := index.NewBuilder(catalog, logger).WithProgress(c.Bool("progress"))
	for _, f := range features {
		if err := builder.Add(f); err != nil {
			return err
		}
	}

	backend, cleanupKV, err := kv_di.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanupKV()

	writer := shardstore.NewWriter(backend, codec, cfg.StoreShardLevel)
	if err := builder.Build(ctx, writer); err != nil {
		return err
	}
	logger.Info("index built", zap.Int("features", builder.Len()), zap.Int("shards", writer.ShardCount()),
		zap.String("backend", cfg.StoreBackend))
	return nil
}

func readFeatures(ctx context.Context, input string, catalog *config.Catalog) ([]datastructure.Feature, error) {
	switch {
	case strings.HasSuffix(input, ".osm.pbf"), strings.HasSuffix(input, ".pbf"):
		return index.ParseOSM(ctx, input, catalog)
	case strings.HasSuffix(input, ".geojsonl"), strings.HasSuffix(input, ".jsonl"), strings.HasSuffix(input, ".ndjson"):
		f, err := os.Open(input)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return index.LoadGeoJSONLines(f)
	}
	return nil, fmt.Errorf("unsupported input %s: want .osm.pbf or .geojsonl", input)
}
