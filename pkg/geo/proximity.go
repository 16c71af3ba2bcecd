package geo

import (
	"errors"
	"math"

	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"
)

const (
	metersPerMile = 1609.344

	// DefaultProximityRadius radius efek proximity dalam mil per level zoom.
	DefaultProximityRadius = 200.0
)

var ErrBadScore = errors.New("score is not a number")

// Distance jarak dalam mil antara titik proximity dan feature: min(jarak ke center, jarak ke sudut terjauh tile cover).
// center diketahui ada di dalam feature, sudut tile terjauh jadi batas atas untuk feature yang besar.
func Distance(proximity, center [2]float64, x, y uint32, zoom int) float64 {
	p := orb.Point{proximity[0], proximity[1]}
	centerDist := orbgeo.Distance(p, orb.Point{center[0], center[1]})

	maxCoverDist := 0.0
	for _, corner := range TileCorners(x, y, zoom) {
		maxCoverDist = math.Max(maxCoverDist, orbgeo.Distance(p, corner))
	}
	return math.Min(centerDist, maxCoverDist) / metersPerMile
}

// ScoreDist gabungan score dan jarak untuk sorting. radius efek di skala dengan zoom tile feature:
// radius*(15-zoom), zoom maksimal 14.
func ScoreDist(meanScore, dist float64, zoom int, radius float64) float64 {
	if zoom > 14 {
		zoom = 14
	}
	weightedRadius := radius * float64(15-zoom)
	// 1 paling dekat ke titik proximity
	distVal := 1 - math.Min(dist/weightedRadius, 1)
	distVal = distVal * distVal
	// feature paling dekat bisa sampai 100x rata-rata geometrik
	return roundTo(100*meanScore*distVal, 4)
}

// DistScore score feature yang di adjust jarak (meter) ke titik reverse query.
func DistScore(dist, score float64) float64 {
	return math.Round(score*(1000/math.Max(dist, 50))*10000) / 10000
}

// MeanScore rata-rata geometrik score, score di bawah 1 dihitung 1.
func MeanScore(scores []float64) (float64, error) {
	if len(scores) == 0 {
		return 1, nil
	}
	logSum := 0.0
	for _, s := range scores {
		if math.IsNaN(s) {
			return 0, ErrBadScore
		}
		logSum += math.Log(math.Max(s, 1))
	}
	return math.Exp(logSum / float64(len(scores))), nil
}

// DistanceMeters jarak dua titik lon, lat dalam meter.
func DistanceMeters(a, b [2]float64) float64 {
	return orbgeo.DistanceHaversine(orb.Point{a[0], a[1]}, orb.Point{b[0], b[1]})
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
