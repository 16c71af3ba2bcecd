package geocoder

import (
	"context"
	"fmt"
	"math/bits"
	"regexp"
	"strconv"
	"strings"

	"github.com/lintang-b-s/osm-geocoder/pkg/coalesce"
	"github.com/lintang-b-s/osm-geocoder/pkg/datastructure"
	"github.com/lintang-b-s/osm-geocoder/pkg/geo"
	"github.com/lintang-b-s/osm-geocoder/pkg/grid"
	"github.com/lintang-b-s/osm-geocoder/pkg/phrasematch"
	"github.com/lintang-b-s/osm-geocoder/pkg/relevance"
	"github.com/lintang-b-s/osm-geocoder/pkg/termops"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var featureIDRe = regexp.MustCompile(`^([a-z][a-z0-9_]*)\.(\d+)$`)

// Geocode forward geocoding. query "lon,lat" di teruskan ke Reverse, query "layer.id" ambil satu feature langsung.
func (g *Geocoder) Geocode(ctx context.Context, query string, opts Options) ([]datastructure.Result, error) {
	lang, _, err := opts.language()
	if err != nil {
		return nil, err
	}
	if coords, ok := termops.ParseLonLat(query); ok {
		return g.Reverse(ctx, coords[0], coords[1], opts)
	}
	if layer, id, ok := g.parseFeatureID(query); ok {
		return g.lookup(ctx, layer, id, lang)
	}

	tokens := termops.Tokenize(query)
	if len(tokens) == 0 {
		return []datastructure.Result{}, nil
	}
	if len(tokens) > MaxQueryTokens {
		tokens = tokens[:MaxQueryTokens]
	}

	matches, err := g.match(ctx, tokens, opts)
	if err != nil {
		return nil, err
	}
	candidates, covers := g.spatialMatch(len(tokens), matches)
	if len(candidates) == 0 {
		return []datastructure.Result{}, nil
	}

	contexts, err := g.verify(ctx, tokens, candidates, covers, opts)
	if err != nil {
		return nil, err
	}
	return g.results(contexts, opts.limit(), lang), nil
}

// parseFeatureID "country.12" -> country, 12. hanya untuk layer yang ada di catalog.
func (g *Geocoder) parseFeatureID(query string) (string, uint32, bool) {
	m := featureIDRe.FindStringSubmatch(strings.TrimSpace(query))
	if m == nil || g.catalog.Ordinal(m[1]) < 0 {
		return "", 0, false
	}
	id, err := strconv.ParseUint(m[2], 10, 32)
	if err != nil {
		return "", 0, false
	}
	return m[1], uint32(id), true
}

// match phrase match semua layer paralel. error satu layer membatalkan request.
func (g *Geocoder) match(ctx context.Context, tokens []string, opts Options) ([]datastructure.SpatialMatchResult, error) {
	results := make([]datastructure.SpatialMatchResult, len(g.layers))
	matchOpts := phrasematch.Options{Autocomplete: opts.Autocomplete, Fuzzy: opts.Fuzzy}

	eg, ectx := errgroup.WithContext(ctx)
	for ordinal, li := range g.layers {
		if li == nil {
			continue
		}
		eg.Go(func() error {
			res, err := g.matcher.Match(ectx, li.match, tokens, matchOpts)
			if err != nil {
				return fmt.Errorf("match layer %s: %w", li.cfg.Name, err)
			}
			results[ordinal] = res
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

type cell struct {
	id, x, y uint32
}

// betterCover cover yang meng-cover lebih banyak token query menang, lalu relev.
func betterCover(a, b datastructure.Cover) bool {
	wa := a.Relev * float64(bits.OnesCount32(a.Mask))
	wb := b.Relev * float64(bits.OnesCount32(b.Mask))
	if wa != wb {
		return wa > wb
	}
	if a.Relev != b.Relev {
		return a.Relev > b.Relev
	}
	return a.Mask < b.Mask
}

// mergeSubqueries gabungkan grid entry semua subquery satu layer (dedupe per id dan tile),
// plus cover terbaik setiap feature.
func mergeSubqueries(res datastructure.SpatialMatchResult, covers map[uint64]datastructure.Cover) []grid.Entry {
	entries := []grid.Entry{}
	seen := make(map[cell]struct{})
	for _, sq := range res.Subqueries {
		for _, e := range sq.Entries {
			c := datastructure.NewCover(e, res.Ordinal, res.Zoom, sq)
			if prev, ok := covers[c.TmpID]; !ok || betterCover(c, prev) {
				covers[c.TmpID] = c
			}
			k := cell{id: e.ID(), x: e.X(), y: e.Y()}
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			entries = append(entries, e)
		}
	}
	return entries
}

func reasonOf(c datastructure.Cover) datastructure.RelevanceReason {
	return datastructure.RelevanceReason{
		Ordinal: c.Ordinal,
		ID:      c.ID,
		TmpID:   c.TmpID,
		Mask:    c.Mask,
		Relev:   c.Relev,
		Score:   c.Score,
	}
}

// spatialMatch pass 1: coalesce semua layer, lalu setiap feature di tile zoom nya sendiri di nilai bersama
// ancestor nya dengan relevance.Usage. hasil: kandidat terbaik per tmpid dan cover terbaik per tmpid.
func (g *Geocoder) spatialMatch(queryLen int, matches []datastructure.SpatialMatchResult) (map[uint64]relevance.Candidate,
	map[uint64]datastructure.Cover) {
	covers := make(map[uint64]datastructure.Cover)
	var (
		grids    [][]grid.Entry
		ordinals []int
		zooms    []int
	)
	for _, res := range matches {
		if len(res.Subqueries) == 0 {
			continue
		}
		grids = append(grids, mergeSubqueries(res, covers))
		ordinals = append(ordinals, res.Ordinal)
		zooms = append(zooms, res.Zoom)
	}

	best := make(map[uint64]relevance.Candidate)
	for key, tmpids := range coalesce.CoalesceZooms(grids, ordinals, zooms) {
		var (
			targets   []datastructure.Cover
			ancestors []datastructure.RelevanceReason
		)
		seen := make(map[uint64]struct{}, len(tmpids))
		for _, tmpid := range tmpids {
			if _, ok := seen[tmpid]; ok {
				continue
			}
			seen[tmpid] = struct{}{}

			ordinal, id := datastructure.SplitTmpID(tmpid)
			cover, ok := covers[tmpid]
			if !ok || ordinal >= len(g.layers) || g.layers[ordinal] == nil {
				g.log.Error("coalesced entry without layer", zap.Int("ordinal", ordinal), zap.Uint32("id", id))
				continue
			}
			if cover.Zoom == key.Zoom() {
				targets = append(targets, cover)
			} else {
				ancestors = append(ancestors, reasonOf(cover))
			}
		}

		for _, target := range targets {
			rows := make([]datastructure.RelevanceReason, 0, len(ancestors)+1)
			rows = append(rows, reasonOf(target))
			rows = append(rows, ancestors...)
			relevance.SortReasons(rows)
			relev, retained := relevance.Usage(queryLen, rows)

			cand := relevance.Candidate{
				TmpID:   target.TmpID,
				Ordinal: target.Ordinal,
				ID:      target.ID,
				Relev:   relev,
				Score:   target.Score,
				Tile:    key,
				Reasons: retained,
			}
			prev, ok := best[target.TmpID]
			if !ok || cand.Relev > prev.Relev || (cand.Relev == prev.Relev && cand.Tile < prev.Tile) {
				best[target.TmpID] = cand
			}
		}
	}
	return best, covers
}

// looseMatches cover terbaik setiap feature dari semua tile, relev di skala jumlah token yang di cover.
func looseMatches(covers map[uint64]datastructure.Cover, queryLen int) relevance.Matches {
	loose := make(relevance.Matches, len(covers))
	for tmpid, c := range covers {
		c.Relev = c.Relev * float64(bits.OnesCount32(c.Mask)) / float64(queryLen)
		loose[tmpid] = c
	}
	return loose
}

// inTile true kalau tile kandidat beririsan dengan bbox feature atau tile center nya.
// entry yang tidak memenuhi berarti fingerprint collision.
func inTile(f datastructure.Feature, key grid.TileKey) bool {
	z := key.Zoom()
	lo := geo.TileAt(f.BBox[0], f.BBox[1], z)
	hi := geo.TileAt(f.BBox[2], f.BBox[3], z)
	x, y := key.X(), key.Y()
	if x >= lo.X && x <= hi.X && y >= hi.Y && y <= lo.Y {
		return true
	}
	center := geo.TileAt(f.Center[0], f.Center[1], z)
	return x == center.X && y == center.Y
}
