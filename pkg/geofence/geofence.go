package geofence

import (
	"fmt"
	"sort"

	"github.com/lintang-b-s/osm-geocoder/pkg/datastructure"
	"github.com/lintang-b-s/osm-geocoder/pkg/geo"
	"github.com/vmihailenco/msgpack/v5"
)

// Fence batas wilayah satu feature: polygon kalau ada, kalau tidak bbox.
type Fence struct {
	Ordinal int        `msgpack:"ordinal"`
	ID      uint32     `msgpack:"id"`
	BBox    [4]float64 `msgpack:"bbox"` // minLon, minLat, maxLon, maxLat
	Polygon []geo.Ring `msgpack:"polygon,omitempty"`
}

func (f Fence) isPoint() bool {
	return f.BBox[0] == f.BBox[2] && f.BBox[1] == f.BBox[3]
}

// Contains true kalau titik ada di dalam fence. fence berupa titik tidak memuat apa pun.
func (f Fence) Contains(lon, lat float64) bool {
	if !geo.BBoxContains(f.BBox, lon, lat) || f.isPoint() {
		return false
	}
	if len(f.Polygon) > 0 {
		return geo.PolygonContains(f.Polygon, lon, lat)
	}
	return true
}

func (f Fence) area() float64 {
	return (f.BBox[2] - f.BBox[0]) * (f.BBox[3] - f.BBox[1])
}

type GeoFence interface {
	Add(f Fence)
	Get(lat, lon float64) []Fence
}

// RtreeFence semua fence satu layer di index pakai R-tree.
type RtreeFence struct {
	ordinal int
	rtree   *datastructure.Rtree[Fence]
	fences  []Fence
}

func NewRtreeFence(ordinal int) *RtreeFence {
	return &RtreeFence{
		ordinal: ordinal,
		rtree:   datastructure.NewRtree[Fence](25, 50, 2),
	}
}

func (r *RtreeFence) Ordinal() int {
	return r.ordinal
}

func (r *RtreeFence) Len() int {
	return len(r.fences)
}

func (r *RtreeFence) Add(f Fence) {
	f.Ordinal = r.ordinal
	r.rtree.InsertLeaf(datastructure.NewLatLonBound(f.BBox), f)
	r.fences = append(r.fences, f)
}

// Get fence yang memuat titik, urut dari bbox terkecil.
func (r *RtreeFence) Get(lat, lon float64) []Fence {
	candidates := r.rtree.SearchPoint(datastructure.Point{Lat: lat, Lon: lon})
	fences := make([]Fence, 0, len(candidates))
	for _, c := range candidates {
		if c.Item.Contains(lon, lat) {
			fences = append(fences, c.Item)
		}
	}
	sort.SliceStable(fences, func(i, j int) bool {
		if fences[i].area() != fences[j].area() {
			return fences[i].area() < fences[j].area()
		}
		return fences[i].ID < fences[j].ID
	})
	return fences
}

// Nearest k fence terdekat dari titik, jarak dalam km.
func (r *RtreeFence) Nearest(lat, lon float64, k int) []datastructure.Neighbor[Fence] {
	return r.rtree.NearestNeighbors(k, datastructure.Point{Lat: lat, Lon: lon})
}

func (r *RtreeFence) MarshalBinary() ([]byte, error) {
	return msgpack.Marshal(r.fences)
}

// LoadRtreeFence bangun ulang R-tree dari fence yang di encode MarshalBinary.
func LoadRtreeFence(ordinal int, data []byte) (*RtreeFence, error) {
	fences := []Fence{}
	if err := msgpack.Unmarshal(data, &fences); err != nil {
		return nil, fmt.Errorf("decode fences: %w", err)
	}
	r := NewRtreeFence(ordinal)
	for _, f := range fences {
		r.Add(f)
	}
	return r, nil
}
