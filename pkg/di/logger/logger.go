package logger_di

import (
	"github.com/lintang-b-s/osm-geocoder/pkg/config"
	logconfig "github.com/lintang-b-s/osm-geocoder/pkg/logger/config"
	myZap "github.com/lintang-b-s/osm-geocoder/pkg/logger/zap"

	"go.uber.org/zap"
)

func New(cfg *config.Config) (*zap.Logger, func(), error) {
	logCfg := logconfig.Configuration{
		Level:      cfg.LogLevel,
		TimeFormat: cfg.LogTimeFormat,
	}

	err := logCfg.Validate()
	if err != nil {
		return nil, nil, err
	}

	log, err := myZap.New(logCfg)

	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		_ = log.Sync()
	}

	return log, cleanup, nil
}
