package geo

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
	"github.com/paulmach/orb/maptile/tilecover"
)

const (
	// MaxCoverTiles batas jumlah tile cover satu feature. lebih dari ini feature cuma di index di tile center nya.
	MaxCoverTiles = 256

	maxMercatorLat = 85.0511
)

func clampPoint(lon, lat float64) orb.Point {
	// lon 180 jatuh ke tile x = 2^z yang tidak valid
	lon = math.Max(-180, math.Min(179.9999999, lon))
	lat = math.Max(-maxMercatorLat, math.Min(maxMercatorLat, lat))
	return orb.Point{lon, lat}
}

// TileAt tile web mercator yang memuat titik lon, lat di zoom z.
func TileAt(lon, lat float64, zoom int) maptile.Tile {
	return maptile.At(clampPoint(lon, lat), maptile.Zoom(zoom))
}

// TileCover semua tile di zoom yang beririsan dengan bbox. kalau jumlahnya lebih dari MaxCoverTiles, return tile center saja.
func TileCover(bbox [4]float64, center [2]float64, zoom int) []maptile.Tile {
	z := maptile.Zoom(zoom)
	min := clampPoint(bbox[0], bbox[1])
	max := clampPoint(bbox[2], bbox[3])
	lo := maptile.At(min, z)
	hi := maptile.At(max, z)

	// y tile membesar ke selatan
	count := uint64(hi.X-lo.X+1) * uint64(lo.Y-hi.Y+1)
	if hi.X < lo.X || lo.Y < hi.Y || count > MaxCoverTiles {
		return []maptile.Tile{TileAt(center[0], center[1], zoom)}
	}

	set := tilecover.Bound(orb.Bound{Min: min, Max: max}, z)
	tiles := make([]maptile.Tile, 0, len(set))
	for t := range set {
		tiles = append(tiles, t)
	}
	return tiles
}

// TileCorners 4 sudut tile (x, y, zoom) dalam lon, lat.
func TileCorners(x, y uint32, zoom int) [4]orb.Point {
	b := maptile.New(x, y, maptile.Zoom(zoom)).Bound()
	return [4]orb.Point{
		b.Min,
		{b.Min[0], b.Max[1]},
		{b.Max[0], b.Min[1]},
		b.Max,
	}
}
