package index

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/k0kubun/go-ansi"
	"github.com/lintang-b-s/osm-geocoder/pkg/config"
	"github.com/lintang-b-s/osm-geocoder/pkg/datastructure"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/text/language"
)

// adminRelation relation boundary=administrative yang levelnya di petakan ke satu layer.
type adminRelation struct {
	ordinal int
	id      osm.RelationID
	names   []string
	langs   map[string][]string
	score   float64
	outer   []osm.WayID
	inner   []osm.WayID
	tags    map[string]string
}

// pointGroup kumpulan titik dengan nama yang sama, misal semua nomor rumah satu jalan.
type pointGroup struct {
	name   string
	points []datastructure.AddressPoint
}

// osmCollector petakan object osm ke feature per layer. dipanggil berurutan: relation, way, node.
type osmCollector struct {
	catalog       *config.Catalog
	adminLayers   map[int]int
	placeLayers   map[string]int
	addressLayer  int
	postcodeLayer int

	relations []adminRelation
	members   map[osm.WayID]struct{}
	wayNodes  map[osm.WayID][]osm.NodeID
	needed    map[osm.NodeID]struct{}
	coords    map[osm.NodeID][2]float64

	places    []datastructure.Feature
	streets   map[string]*pointGroup
	postcodes map[string]*pointGroup
}

func newOSMCollector(catalog *config.Catalog) *osmCollector {
	c := &osmCollector{
		catalog:       catalog,
		adminLayers:   make(map[int]int),
		placeLayers:   make(map[string]int),
		addressLayer:  -1,
		postcodeLayer: -1,
		members:       make(map[osm.WayID]struct{}),
		wayNodes:      make(map[osm.WayID][]osm.NodeID),
		needed:        make(map[osm.NodeID]struct{}),
		coords:        make(map[osm.NodeID][2]float64),
		streets:       make(map[string]*pointGroup),
		postcodes:     make(map[string]*pointGroup),
	}
	for ordinal, l := range catalog.Layers {
		for _, level := range l.AdminLevels {
			c.adminLayers[level] = ordinal
		}
		for _, tag := range l.PlaceTags {
			c.placeLayers[tag] = ordinal
		}
		if l.Address && c.addressLayer < 0 {
			c.addressLayer = ordinal
		}
		if l.Postcode && c.postcodeLayer < 0 {
			c.postcodeLayer = ordinal
		}
	}
	return c
}

// osmNames name, lalu short_name, alt_name dan official_name sebagai alias.
func osmNames(tags osm.Tags) []string {
	out := []string{}
	seen := make(map[string]struct{})
	for _, key := range []string{"name", "short_name", "alt_name", "official_name"} {
		for _, v := range strings.Split(tags.Find(key), ";") {
			v = strings.TrimSpace(v)
			if v == "" {
				continue
			}
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}

// osmLanguages nama per bahasa dari tag name:xx. suffix yang bukan kode bahasa (name:etymology) di skip.
func osmLanguages(tags osm.Tags) map[string][]string {
	var out map[string][]string
	for _, t := range tags {
		code, ok := strings.CutPrefix(t.Key, "name:")
		if !ok {
			continue
		}
		tag, err := language.Parse(code)
		if err != nil || tag == language.Und {
			continue
		}
		for _, v := range strings.Split(t.Value, ";") {
			if v = strings.TrimSpace(v); v == "" {
				continue
			}
			if out == nil {
				out = make(map[string][]string)
			}
			out[tag.String()] = append(out[tag.String()], v)
		}
	}
	return out
}

func population(tags osm.Tags) float64 {
	p, err := strconv.ParseFloat(strings.ReplaceAll(tags.Find("population"), ",", ""), 64)
	if err != nil || p < 0 {
		return 0
	}
	return p
}

func (c *osmCollector) addRelation(rel *osm.Relation) {
	if rel.Tags.Find("boundary") != "administrative" {
		return
	}
	level, err := strconv.Atoi(rel.Tags.Find("admin_level"))
	if err != nil {
		return
	}
	ordinal, ok := c.adminLayers[level]
	if !ok {
		return
	}
	ns := osmNames(rel.Tags)
	if len(ns) == 0 || strings.Contains(ns[0], "UNKNOWN") {
		return
	}

	ar := adminRelation{
		ordinal: ordinal,
		id:      rel.ID,
		names:   ns,
		langs:   osmLanguages(rel.Tags),
		score:   population(rel.Tags),
		tags:    map[string]string{"osm_id": "r" + strconv.FormatInt(int64(rel.ID), 10), "admin_level": strconv.Itoa(level)},
	}
	for _, m := range rel.Members {
		if m.Type != osm.TypeWay {
			continue
		}
		id := osm.WayID(m.Ref)
		switch m.Role {
		case "inner":
			ar.inner = append(ar.inner, id)
		case "outer", "":
			ar.outer = append(ar.outer, id)
		default:
			continue
		}
		c.members[id] = struct{}{}
	}
	if len(ar.outer) == 0 {
		return
	}
	c.relations = append(c.relations, ar)
}

func (c *osmCollector) addWay(way *osm.Way) {
	if _, ok := c.members[way.ID]; !ok {
		return
	}
	ids := make([]osm.NodeID, len(way.Nodes))
	for i, n := range way.Nodes {
		ids[i] = n.ID
		c.needed[n.ID] = struct{}{}
	}
	c.wayNodes[way.ID] = ids
}

func (c *osmCollector) addNode(node *osm.Node) {
	if _, ok := c.needed[node.ID]; ok {
		c.coords[node.ID] = [2]float64{node.Lon, node.Lat}
	}
	if len(node.Tags) == 0 {
		return
	}

	if ordinal, ok := c.placeLayers[node.Tags.Find("place")]; ok {
		if ns := osmNames(node.Tags); len(ns) > 0 {
			c.places = append(c.places, datastructure.Feature{
				Layer:     c.catalog.Layers[ordinal].Name,
				Names:     ns,
				Languages: osmLanguages(node.Tags),
				Center:    [2]float64{node.Lon, node.Lat},
				BBox:      [4]float64{node.Lon, node.Lat, node.Lon, node.Lat},
				Score:     population(node.Tags),
				Properties: map[string]string{
					"osm_id": "n" + strconv.FormatInt(int64(node.ID), 10),
					"place":  node.Tags.Find("place"),
				},
			})
		}
	}

	number, street := node.Tags.Find("addr:housenumber"), strings.TrimSpace(node.Tags.Find("addr:street"))
	if c.addressLayer >= 0 && number != "" && street != "" {
		addPoint(c.streets, street, datastructure.AddressPoint{Number: number, Lon: node.Lon, Lat: node.Lat})
	}

	if postcode := strings.TrimSpace(node.Tags.Find("addr:postcode")); c.postcodeLayer >= 0 && postcode != "" {
		addPoint(c.postcodes, postcode, datastructure.AddressPoint{Lon: node.Lon, Lat: node.Lat})
	}
}

func addPoint(groups map[string]*pointGroup, name string, p datastructure.AddressPoint) {
	key := strings.ToLower(name)
	g, ok := groups[key]
	if !ok {
		g = &pointGroup{name: name}
		groups[key] = g
	}
	g.points = append(g.points, p)
}

// features rakit semua feature yang terkumpul. id urut per layer mulai dari 1.
func (c *osmCollector) features() []datastructure.Feature {
	out := []datastructure.Feature{}

	for _, rel := range c.relations {
		polygon := c.polygon(rel)
		if len(polygon) == 0 {
			continue
		}
		bbox := ringBBox(polygon[0])
		out = append(out, datastructure.Feature{
			Layer:      c.catalog.Layers[rel.ordinal].Name,
			Names:      rel.names,
			Languages:  rel.langs,
			Center:     centroid(polygon[0]),
			BBox:       bbox,
			Polygon:    polygon,
			Score:      rel.score,
			Properties: rel.tags,
		})
	}
	out = append(out, c.places...)

	if c.addressLayer >= 0 {
		for _, g := range sortedGroups(c.streets) {
			f := groupFeature(c.catalog.Layers[c.addressLayer].Name, g)
			f.Addresses = g.points
			out = append(out, f)
		}
	}
	if c.postcodeLayer >= 0 {
		for _, g := range sortedGroups(c.postcodes) {
			out = append(out, groupFeature(c.catalog.Layers[c.postcodeLayer].Name, g))
		}
	}

	next := make(map[string]uint32)
	for i := range out {
		next[out[i].Layer]++
		out[i].ID = next[out[i].Layer]
	}
	return out
}

func sortedGroups(groups map[string]*pointGroup) []*pointGroup {
	out := make([]*pointGroup, 0, len(groups))
	for _, g := range groups {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// groupFeature center = rata-rata titik, bbox = batas semua titik. score = jumlah titik.
func groupFeature(layer string, g *pointGroup) datastructure.Feature {
	bbox := [4]float64{math.Inf(1), math.Inf(1), math.Inf(-1), math.Inf(-1)}
	var sumLon, sumLat float64
	for _, p := range g.points {
		bbox[0], bbox[1] = math.Min(bbox[0], p.Lon), math.Min(bbox[1], p.Lat)
		bbox[2], bbox[3] = math.Max(bbox[2], p.Lon), math.Max(bbox[3], p.Lat)
		sumLon += p.Lon
		sumLat += p.Lat
	}
	n := float64(len(g.points))
	return datastructure.Feature{
		Layer:  layer,
		Names:  []string{g.name},
		Center: [2]float64{sumLon / n, sumLat / n},
		BBox:   bbox,
		Score:  n,
	}
}

// polygon outer ring terbesar lalu inner ring sebagai hole. node yang tidak ketemu bikin ring nya di buang.
func (c *osmCollector) polygon(rel adminRelation) [][][2]float64 {
	outers := c.rings(rel.outer)
	if len(outers) == 0 {
		return nil
	}
	sort.SliceStable(outers, func(i, j int) bool {
		return ringArea(outers[i]) > ringArea(outers[j])
	})
	return append([][][2]float64{outers[0]}, c.rings(rel.inner)...)
}

func (c *osmCollector) rings(wayIDs []osm.WayID) [][][2]float64 {
	ways := make([][]osm.NodeID, 0, len(wayIDs))
	for _, id := range wayIDs {
		if nodes, ok := c.wayNodes[id]; ok && len(nodes) > 1 {
			ways = append(ways, nodes)
		}
	}

	out := [][][2]float64{}
	for _, ids := range stitchRings(ways) {
		ring := make([][2]float64, 0, len(ids))
		for _, id := range ids {
			p, ok := c.coords[id]
			if !ok {
				ring = nil
				break
			}
			ring = append(ring, p)
		}
		if len(ring) >= 4 {
			out = append(out, ring)
		}
	}
	return out
}

// stitchRings sambung way yang ujungnya sama sampai jadi ring tertutup. way yang tidak menutup di buang.
func stitchRings(ways [][]osm.NodeID) [][]osm.NodeID {
	remaining := make([][]osm.NodeID, len(ways))
	copy(remaining, ways)

	rings := [][]osm.NodeID{}
	for len(remaining) > 0 {
		ring := append([]osm.NodeID{}, remaining[0]...)
		remaining = remaining[1:]

		for ring[0] != ring[len(ring)-1] {
			last := ring[len(ring)-1]
			found := -1
			for i, w := range remaining {
				if w[0] == last {
					ring = append(ring, w[1:]...)
				} else if w[len(w)-1] == last {
					for j := len(w) - 2; j >= 0; j-- {
						ring = append(ring, w[j])
					}
				} else {
					continue
				}
				found = i
				break
			}
			if found < 0 {
				break
			}
			remaining = append(remaining[:found], remaining[found+1:]...)
		}

		if len(ring) >= 4 && ring[0] == ring[len(ring)-1] {
			rings = append(rings, ring)
		}
	}
	return rings
}

func ringBBox(ring [][2]float64) [4]float64 {
	bbox := [4]float64{math.Inf(1), math.Inf(1), math.Inf(-1), math.Inf(-1)}
	for _, p := range ring {
		bbox[0], bbox[1] = math.Min(bbox[0], p[0]), math.Min(bbox[1], p[1])
		bbox[2], bbox[3] = math.Max(bbox[2], p[0]), math.Max(bbox[3], p[1])
	}
	return bbox
}

// ringArea shoelace, absolute.
func ringArea(ring [][2]float64) float64 {
	sum := 0.0
	for i := 0; i < len(ring)-1; i++ {
		sum += ring[i][0]*ring[i+1][1] - ring[i+1][0]*ring[i][1]
	}
	return math.Abs(sum) / 2
}

// centroid centroid polygon, fallback ke tengah bbox kalau area nya nol.
func centroid(ring [][2]float64) [2]float64 {
	var a, cx, cy float64
	for i := 0; i < len(ring)-1; i++ {
		cross := ring[i][0]*ring[i+1][1] - ring[i+1][0]*ring[i][1]
		a += cross
		cx += (ring[i][0] + ring[i+1][0]) * cross
		cy += (ring[i][1] + ring[i+1][1]) * cross
	}
	if a == 0 {
		bbox := ringBBox(ring)
		return [2]float64{(bbox[0] + bbox[2]) / 2, (bbox[1] + bbox[3]) / 2}
	}
	return [2]float64{cx / (3 * a), cy / (3 * a)}
}

// ParseOSM scan file osm pbf 3 kali (relation, way, node) lalu petakan ke feature sesuai catalog.
func ParseOSM(ctx context.Context, mapfile string, catalog *config.Catalog) ([]datastructure.Feature, error) {
	f, err := os.Open(mapfile)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	bar := progressbar.NewOptions(4,
		progressbar.OptionSetWriter(ansi.NewAnsiStdout()),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(15),
		progressbar.OptionSetDescription("[cyan][1/2][reset] Parsing osm objects..."),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))

	c := newOSMCollector(catalog)
	passes := []struct {
		name string
		skip func(s *osmpbf.Scanner)
	}{
		{name: "relations", skip: func(s *osmpbf.Scanner) { s.SkipNodes, s.SkipWays = true, true }},
		{name: "ways", skip: func(s *osmpbf.Scanner) { s.SkipNodes, s.SkipRelations = true, true }},
		{name: "nodes", skip: func(s *osmpbf.Scanner) { s.SkipWays, s.SkipRelations = true, true }},
	}
	for _, pass := range passes {
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return nil, err
		}
		scanner := osmpbf.New(ctx, f, 1)
		pass.skip(scanner)
		for scanner.Scan() {
			switch o := scanner.Object().(type) {
			case *osm.Relation:
				c.addRelation(o)
			case *osm.Way:
				c.addWay(o)
			case *osm.Node:
				c.addNode(o)
			}
		}
		scanErr := scanner.Err()
		scanner.Close()
		if scanErr != nil {
			return nil, fmt.Errorf("scan %s: %w", pass.name, scanErr)
		}
		bar.Add(1)
	}

	features := c.features()
	bar.Add(1)
	return features, nil
}
