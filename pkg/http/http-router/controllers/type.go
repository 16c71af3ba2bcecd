package controllers

import (
	"context"

	"github.com/lintang-b-s/osm-geocoder/pkg/datastructure"
	"github.com/lintang-b-s/osm-geocoder/pkg/geocoder"
	"github.com/lintang-b-s/osm-geocoder/pkg/http/usecases"
)

type GeocodeService interface {
	Geocode(ctx context.Context, query string, opts geocoder.Options) ([]datastructure.Result, error)
	Reverse(ctx context.Context, lon, lat float64, opts geocoder.Options) ([]datastructure.Result, error)
	Tokenize(query string) usecases.TokenizeResult
	Layers() []string
}
