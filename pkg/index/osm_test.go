package index

import (
	"testing"

	"github.com/lintang-b-s/osm-geocoder/pkg/datastructure"
	"github.com/paulmach/osm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStitchRings(t *testing.T) {
	tests := []struct {
		name string
		ways [][]osm.NodeID
		want [][]osm.NodeID
	}{
		{
			name: "closed way",
			ways: [][]osm.NodeID{{1, 2, 3, 1}},
			want: [][]osm.NodeID{{1, 2, 3, 1}},
		},
		{
			name: "two halves",
			ways: [][]osm.NodeID{{1, 2, 3}, {3, 4, 1}},
			want: [][]osm.NodeID{{1, 2, 3, 4, 1}},
		},
		{
			name: "reversed member",
			ways: [][]osm.NodeID{{1, 2, 3}, {1, 4, 3}},
			want: [][]osm.NodeID{{1, 2, 3, 4, 1}},
		},
		{
			name: "open way dropped",
			ways: [][]osm.NodeID{{1, 2, 3}, {7, 8, 9, 7}},
			want: [][]osm.NodeID{{7, 8, 9, 7}},
		},
		{
			name: "empty",
			ways: nil,
			want: [][]osm.NodeID{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stitchRings(tt.ways))
		})
	}
}

func TestOSMCollector(t *testing.T) {
	c := newOSMCollector(testCatalog(t))

	c.addRelation(&osm.Relation{
		ID: 100,
		Tags: osm.Tags{
			{Key: "boundary", Value: "administrative"},
			{Key: "admin_level", Value: "4"},
			{Key: "name", Value: "Jawa Barat"},
			{Key: "short_name", Value: "Jabar"},
			{Key: "name:en", Value: "West Java"},
			{Key: "name:etymology", Value: "jawa"},
			{Key: "population", Value: "48,000,000"},
		},
		Members: osm.Members{
			{Type: osm.TypeWay, Ref: 10, Role: "outer"},
			{Type: osm.TypeWay, Ref: 11, Role: "outer"},
			{Type: osm.TypeNode, Ref: 99, Role: "admin_centre"},
		},
	})
	// admin level yang tidak ada di catalog
	c.addRelation(&osm.Relation{
		ID: 101,
		Tags: osm.Tags{
			{Key: "boundary", Value: "administrative"},
			{Key: "admin_level", Value: "9"},
			{Key: "name", Value: "Desa"},
		},
		Members: osm.Members{{Type: osm.TypeWay, Ref: 12, Role: "outer"}},
	})

	c.addWay(&osm.Way{ID: 10, Nodes: osm.WayNodes{{ID: 1}, {ID: 2}, {ID: 3}}})
	c.addWay(&osm.Way{ID: 11, Nodes: osm.WayNodes{{ID: 3}, {ID: 4}, {ID: 1}}})
	c.addWay(&osm.Way{ID: 12, Nodes: osm.WayNodes{{ID: 5}, {ID: 6}}})

	corners := map[osm.NodeID][2]float64{1: {107, -7}, 2: {108, -7}, 3: {108, -6}, 4: {107, -6}}
	for id, p := range corners {
		c.addNode(&osm.Node{ID: id, Lon: p[0], Lat: p[1]})
	}
	c.addNode(&osm.Node{ID: 20, Lon: 107.6, Lat: -6.9, Tags: osm.Tags{
		{Key: "place", Value: "city"}, {Key: "name", Value: "Bandung"}, {Key: "name:zh-Hant", Value: "萬隆"}, {Key: "population", Value: "2500000"},
	}})
	c.addNode(&osm.Node{ID: 21, Lon: 107.5, Lat: -6.8, Tags: osm.Tags{
		{Key: "place", Value: "hamlet"}, {Key: "name", Value: "Kampung"},
	}})
	c.addNode(&osm.Node{ID: 30, Lon: 107.61, Lat: -6.91, Tags: osm.Tags{
		{Key: "addr:housenumber", Value: "12"}, {Key: "addr:street", Value: "Jalan Braga"}, {Key: "addr:postcode", Value: "40111"},
	}})
	c.addNode(&osm.Node{ID: 31, Lon: 107.63, Lat: -6.93, Tags: osm.Tags{
		{Key: "addr:housenumber", Value: "14"}, {Key: "addr:street", Value: "jalan braga"},
	}})

	features := c.features()
	byLayer := make(map[string][]datastructure.Feature)
	for _, f := range features {
		byLayer[f.Layer] = append(byLayer[f.Layer], f)
	}

	require.Len(t, byLayer["region"], 1)
	region := byLayer["region"][0]
	assert.Equal(t, uint32(1), region.ID)
	assert.Equal(t, []string{"Jawa Barat", "Jabar"}, region.Names)
	assert.Equal(t, map[string][]string{"en": {"West Java"}}, region.Languages)
	assert.Equal(t, []string{"Jawa Barat", "Jabar", "West Java"}, region.SearchNames())
	assert.Equal(t, 48000000.0, region.Score)
	assert.Equal(t, [4]float64{107, -7, 108, -6}, region.BBox)
	assert.InDelta(t, 107.5, region.Center[0], 1e-9)
	assert.InDelta(t, -6.5, region.Center[1], 1e-9)
	require.Len(t, region.Polygon, 1)
	assert.Len(t, region.Polygon[0], 5)

	require.Len(t, byLayer["place"], 1)
	assert.Equal(t, "Bandung", byLayer["place"][0].Text())
	assert.Equal(t, "city", byLayer["place"][0].Properties["place"])
	assert.Equal(t, map[string][]string{"zh-Hant": {"萬隆"}}, byLayer["place"][0].Languages)

	require.Len(t, byLayer["address"], 1)
	street := byLayer["address"][0]
	assert.Equal(t, "Jalan Braga", street.Text())
	assert.Len(t, street.Addresses, 2)
	assert.InDelta(t, 107.62, street.Center[0], 1e-9)
	assert.Equal(t, [4]float64{107.61, -6.93, 107.63, -6.91}, street.BBox)

	require.Len(t, byLayer["postcode"], 1)
	assert.Equal(t, "40111", byLayer["postcode"][0].Text())
}

func TestRingArea(t *testing.T) {
	square := [][2]float64{{0, 0}, {2, 0}, {2, 2}, {0, 2}, {0, 0}}
	assert.Equal(t, 4.0, ringArea(square))
	assert.Equal(t, [2]float64{1, 1}, centroid(square))
	assert.Equal(t, [2]float64{1, 0}, centroid([][2]float64{{0, 0}, {2, 0}, {0, 0}}))
}
