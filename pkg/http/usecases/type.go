package usecases

import (
	"context"

	"github.com/lintang-b-s/osm-geocoder/pkg/datastructure"
	"github.com/lintang-b-s/osm-geocoder/pkg/geocoder"
)

type Geocoder interface {
	Geocode(ctx context.Context, query string, opts geocoder.Options) ([]datastructure.Result, error)
	Reverse(ctx context.Context, lon, lat float64, opts geocoder.Options) ([]datastructure.Result, error)
	Layers() []string
}

// TokenizeResult hasil tokenisasi satu query. LonLat terisi kalau query berupa koordinat.
type TokenizeResult struct {
	Tokens []string  `json:"tokens"`
	Terms  []uint64  `json:"terms"`
	LonLat []float64 `json:"lon_lat,omitempty"`
}
