package geocoder

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/lintang-b-s/osm-geocoder/pkg/datastructure"
	"github.com/lintang-b-s/osm-geocoder/pkg/geo"
	"golang.org/x/text/language"
)

const equatorKm = 40075.016686

// reverseRadiusKm lebar satu tile di zoom layer.
func reverseRadiusKm(zoom int) float64 {
	return equatorKm / math.Exp2(float64(zoom))
}

// Reverse context titik lon, lat di semua layer, paling detail dulu. layer yang tidak punya fence memuat
// titik (titik place, jalan) pakai feature terdekat dalam satu lebar tile.
func (g *Geocoder) Reverse(ctx context.Context, lon, lat float64, opts Options) ([]datastructure.Result, error) {
	if lon < -180 || lon > 180 || lat < -90 || lat > 90 {
		return nil, fmt.Errorf("%w: %v,%v", ErrBadCoordinate, lon, lat)
	}
	lang, strict, err := opts.language()
	if err != nil {
		return nil, err
	}

	type hit struct {
		ordinal int
		id      uint32
	}
	hits := []hit{}
	found := make(map[int]bool)
	for _, fence := range g.fences.Context(lon, lat, len(g.layers)) {
		hits = append(hits, hit{ordinal: fence.Ordinal, id: fence.ID})
		found[fence.Ordinal] = true
	}
	for ordinal, li := range g.layers {
		if li == nil || found[ordinal] {
			continue
		}
		fence, ok, err := g.fences.Nearest(li.cfg.Name, lon, lat, reverseRadiusKm(li.cfg.Zoom))
		if err != nil {
			return nil, err
		}
		if ok {
			hits = append(hits, hit{ordinal: ordinal, id: fence.ID})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].ordinal > hits[j].ordinal })

	entries := make([]datastructure.ContextEntry, 0, len(hits))
	for _, h := range hits {
		f, err := g.feature(ctx, h.ordinal, h.id)
		if err != nil {
			return nil, err
		}
		if f == nil {
			continue
		}
		entries = append(entries, datastructure.ContextEntry{
			Feature: *f,
			Ordinal: h.ordinal,
			TmpID:   datastructure.NewTmpID(h.ordinal, h.id),
		})
	}

	allowed := g.allowedOrdinals(opts.Types)
	results := []datastructure.Result{}
	for i, e := range entries {
		if allowed != nil && !allowed[e.Ordinal] {
			continue
		}
		if strict && !hasLanguage(e.Feature, lang) {
			continue
		}
		c := &datastructure.Context{Entries: entries[i:], Relevance: 1}
		if g.layers[e.Ordinal].cfg.Address {
			nearestAddress(c, lon, lat)
		}
		results = append(results, g.result(c, lang))
	}
	return results, nil
}

// nearestAddress pindahkan center target ke nomor rumah terdekat dari titik query.
func nearestAddress(c *datastructure.Context, lon, lat float64) {
	target := c.Target()
	best := math.Inf(1)
	for _, p := range target.Feature.Addresses {
		d := geo.DistanceMeters([2]float64{lon, lat}, [2]float64{p.Lon, p.Lat})
		if d < best {
			best = d
			c.Address = p.Number
			target.Feature.Center = [2]float64{p.Lon, p.Lat}
		}
	}
}

// Lookup ambil satu feature by id beserta context nya.
func (g *Geocoder) Lookup(ctx context.Context, layer string, id uint32) ([]datastructure.Result, error) {
	return g.lookup(ctx, layer, id, language.Und)
}

func (g *Geocoder) lookup(ctx context.Context, layer string, id uint32, lang language.Tag) ([]datastructure.Result, error) {
	ordinal, li := g.layerByName(layer)
	if li == nil {
		return nil, fmt.Errorf("%w: %s.%d", ErrFeatureNotFound, layer, id)
	}
	f, err := g.feature(ctx, ordinal, id)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, fmt.Errorf("%w: %s.%d", ErrFeatureNotFound, layer, id)
	}

	c := &datastructure.Context{
		Entries:   []datastructure.ContextEntry{{Feature: *f, Ordinal: ordinal, TmpID: datastructure.NewTmpID(ordinal, id)}},
		Relevance: 1,
	}
	for _, fence := range g.fences.Context(f.Center[0], f.Center[1], ordinal) {
		cf, err := g.feature(ctx, fence.Ordinal, fence.ID)
		if err != nil {
			return nil, err
		}
		if cf == nil {
			continue
		}
		c.Entries = append(c.Entries, datastructure.ContextEntry{
			Feature: *cf,
			Ordinal: fence.Ordinal,
			TmpID:   datastructure.NewTmpID(fence.Ordinal, fence.ID),
		})
	}
	return []datastructure.Result{g.result(c, lang)}, nil
}
