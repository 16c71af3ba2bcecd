package geo

import (
	"math"

	"github.com/paulmach/orb"
)

// Ring satu ring polygon, titik dalam urutan lon, lat. ring tertutup (titik pertama == titik terakhir) atau tidak sama saja.
type Ring [][2]float64

type BoundingBox struct {
	min, max []float64 // lat, lon
}

func NewBoundingBox(lats, lons []float64) BoundingBox {
	min, max := []float64{lats[0], lons[0]}, []float64{lats[0], lons[0]}
	for i := 1; i < len(lats); i++ {
		min[0] = math.Min(min[0], lats[i])
		max[0] = math.Max(max[0], lats[i])
		min[1] = math.Min(min[1], lons[i])
		max[1] = math.Max(max[1], lons[i])
	}
	return BoundingBox{
		min: min,
		max: max,
	}
}

// RingBoundingBox bounding box dari ring lon, lat.
func RingBoundingBox(ring Ring) BoundingBox {
	lats := make([]float64, len(ring))
	lons := make([]float64, len(ring))
	for i, p := range ring {
		lons[i], lats[i] = p[0], p[1]
	}
	return NewBoundingBox(lats, lons)
}

// BBox minLon, minLat, maxLon, maxLat.
func (bb BoundingBox) BBox() [4]float64 {
	return [4]float64{bb.min[1], bb.min[0], bb.max[1], bb.max[0]}
}

func (bb BoundingBox) Contains(lat, lon float64) bool {
	if lat < bb.min[0] || lat > bb.max[0] {
		return false
	}
	if lon < bb.min[1] || lon > bb.max[1] {
		return false
	}
	return true
}

// BBoxContains true kalau bbox (minLon, minLat, maxLon, maxLat) memuat titik lon, lat.
func BBoxContains(bbox [4]float64, lon, lat float64) bool {
	return lon >= bbox[0] && lon <= bbox[2] && lat >= bbox[1] && lat <= bbox[3]
}

// BBoxCenter titik tengah bbox, dipakai kalau feature tidak punya center.
func BBoxCenter(bbox [4]float64) [2]float64 {
	c := orb.Bound{Min: orb.Point{bbox[0], bbox[1]}, Max: orb.Point{bbox[2], bbox[3]}}.Center()
	return [2]float64{c[0], c[1]}
}

func crossProduct(hLat, hLon, tLat, tLon, qLat, qLon float64) float64 {
	return ((tLon - hLon) * (qLat - hLat)) - ((qLon - hLon) * (tLat - hLat))
}

// isPointOnSegment titik p segaris dengan a-b dan berada di antara a dan b.
func isPointOnSegment(pLat, pLon, aLat, aLon, bLat, bLon float64) bool {
	if crossProduct(aLat, aLon, bLat, bLon, pLat, pLon) != 0 {
		return false
	}
	return pLon >= math.Min(aLon, bLon) && pLon <= math.Max(aLon, bLon) &&
		pLat >= math.Min(aLat, bLat) && pLat <= math.Max(aLat, bLat)
}

func windingNumber(pLat, pLon float64, polygonLat, polygonLon []float64) (wn int) {
	n := len(polygonLat)
	for i := 0; i < n; i++ {
		// edge terakhir menutup ring
		j := (i + 1) % n
		if isPointOnSegment(pLat, pLon, polygonLat[i], polygonLon[i], polygonLat[j], polygonLon[j]) {
			return 1
		}
		if polygonLat[i] <= pLat {
			if polygonLat[j] > pLat &&
				crossProduct(polygonLat[i], polygonLon[i], polygonLat[j], polygonLon[j], pLat, pLon) > 0 {
				wn++
			}
		} else if polygonLat[j] <= pLat &&
			crossProduct(polygonLat[i], polygonLon[i], polygonLat[j], polygonLon[j], pLat, pLon) < 0 {
			wn--
		}
	}
	return
}

func IsPointInPolygon(pLat, pLon float64, polygonLat, polygonLon []float64) bool {
	if len(polygonLat) < 3 || len(polygonLat) != len(polygonLon) {
		return false
	}
	return windingNumber(pLat, pLon, polygonLat, polygonLon) != 0
}

// PolygonContains ring pertama = outer ring, sisanya hole.
func PolygonContains(rings []Ring, lon, lat float64) bool {
	if len(rings) == 0 || !ringContains(rings[0], lon, lat) {
		return false
	}
	for _, hole := range rings[1:] {
		if ringContains(hole, lon, lat) {
			return false
		}
	}
	return true
}

func ringContains(ring Ring, lon, lat float64) bool {
	lats := make([]float64, len(ring))
	lons := make([]float64, len(ring))
	for i, p := range ring {
		lons[i], lats[i] = p[0], p[1]
	}
	return IsPointInPolygon(lat, lon, lats, lons)
}
