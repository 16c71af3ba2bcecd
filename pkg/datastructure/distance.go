package datastructure

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// haversineDistance jarak great circle dalam km.
func haversineDistance(latOne, lonOne, latTwo, lonTwo float64) float64 {
	return geo.DistanceHaversine(orb.Point{lonOne, latOne}, orb.Point{lonTwo, latTwo}) / 1000.0
}
