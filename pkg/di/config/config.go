package config_di

import (
	"github.com/lintang-b-s/osm-geocoder/pkg/config"
)

func New() (*config.Config, error) {
	return config.New()
}
