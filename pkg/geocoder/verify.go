package geocoder

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/lintang-b-s/osm-geocoder/pkg/datastructure"
	"github.com/lintang-b-s/osm-geocoder/pkg/geo"
	"github.com/lintang-b-s/osm-geocoder/pkg/relevance"
	"github.com/lintang-b-s/osm-geocoder/pkg/shardstore"
	"github.com/lintang-b-s/osm-geocoder/pkg/termops"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"
)

// feature load satu feature. record yang tidak ada atau rusak di drop dengan warning (nil, nil).
func (g *Geocoder) feature(ctx context.Context, ordinal int, id uint32) (*datastructure.Feature, error) {
	layer := g.catalog.Layers[ordinal].Name
	raw, err := g.store.Get(ctx, layer, shardstore.KindFeature, uint64(id))
	if err != nil {
		return nil, fmt.Errorf("fetch feature %s.%d: %w", layer, id, err)
	}
	if raw == nil {
		g.log.Warn("feature record missing", zap.String("layer", layer), zap.Uint32("id", id))
		return nil, nil
	}
	var f datastructure.Feature
	if err := msgpack.Unmarshal(raw, &f); err != nil {
		g.log.Warn("drop unparseable feature record", zap.String("layer", layer), zap.Uint32("id", id), zap.Error(err))
		return nil, nil
	}
	return &f, nil
}

// request state verifikasi satu query.
type request struct {
	g      *Geocoder
	tokens []string
	opts   Options
	covers map[uint64]datastructure.Cover
	lang   language.Tag
	strict bool

	// feature yang sudah pernah di verifikasi, per ordinal
	verified map[int]*roaring.Bitmap

	mu       sync.Mutex
	contexts map[uint64]*datastructure.Feature
}

func (g *Geocoder) allowedOrdinals(types []string) map[int]bool {
	if len(types) == 0 {
		return nil
	}
	allowed := make(map[int]bool, len(types))
	for _, t := range types {
		if ordinal := g.catalog.Ordinal(t); ordinal >= 0 {
			allowed[ordinal] = true
		}
	}
	return allowed
}

// rankingFor urutan tie-break mengikuti urutan types di request kalau ada.
func (g *Geocoder) rankingFor(types []string) relevance.Layers {
	if len(types) == 0 {
		return g.ranking
	}
	layers := make(relevance.Layers, len(g.ranking))
	for ordinal, l := range g.ranking {
		l.TypeIndex = len(types) + ordinal
		layers[ordinal] = l
	}
	for i, t := range types {
		if ordinal := g.catalog.Ordinal(t); ordinal >= 0 {
			l := layers[ordinal]
			if l.TypeIndex >= len(types) {
				l.TypeIndex = i
				layers[ordinal] = l
			}
		}
	}
	return layers
}

// verify pass 2. kandidat primary di verifikasi dulu, lalu backfill dari secondary selama hasil yang
// relevance nya >= qualityBar belum sampai limit.
func (g *Geocoder) verify(ctx context.Context, tokens []string, candidates map[uint64]relevance.Candidate,
	covers map[uint64]datastructure.Cover, opts Options) ([]*datastructure.Context, error) {
	allowed := g.allowedOrdinals(opts.Types)
	list := make([]relevance.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if allowed == nil || allowed[c.Ordinal] {
			list = append(list, c)
		}
	}
	primary, secondary := relevance.RankTiles(list)

	lang, strict, err := opts.language()
	if err != nil {
		return nil, err
	}
	r := &request{
		g:        g,
		tokens:   tokens,
		opts:     opts,
		covers:   covers,
		lang:     lang,
		strict:   strict,
		verified: make(map[int]*roaring.Bitmap),
		contexts: make(map[uint64]*datastructure.Feature),
	}
	loose := looseMatches(covers, len(tokens))
	layers := g.rankingFor(opts.Types)
	limit := opts.limit()
	scorer := relevance.NewScorer(opts.Proximity != nil, geo.DefaultProximityRadius, g.maxScore)

	contexts := []*datastructure.Context{}
	batch, considered := primary, 0
	for len(batch) > 0 {
		if len(batch) > maxCandidates-considered {
			batch = batch[:maxCandidates-considered]
		}
		verified, err := r.verifyBatch(ctx, batch, considered)
		if err != nil {
			return nil, err
		}
		considered += len(batch)
		contexts = append(contexts, verified...)

		if err := scorer.Apply(contexts); err != nil {
			return nil, err
		}
		relevance.VerifyContexts(contexts, loose, layers, scorer)

		if countRelevant(contexts) >= limit || considered >= maxCandidates {
			break
		}
		n := min(backfillBatch, len(secondary))
		batch, secondary = secondary[:n], secondary[n:]
	}

	if len(contexts) > MaxLimit {
		contexts = contexts[:MaxLimit]
	}
	return contexts, nil
}

func countRelevant(contexts []*datastructure.Context) int {
	n := 0
	for _, c := range contexts {
		if c.Relevance >= qualityBar {
			n++
		}
	}
	return n
}

// verifyBatch load feature kandidat lewat ants pool, lalu bangun context nya paralel.
func (r *request) verifyBatch(ctx context.Context, batch []relevance.Candidate, offset int) ([]*datastructure.Context, error) {
	fresh := make([]relevance.Candidate, 0, len(batch))
	positions := make([]int, 0, len(batch))
	for i, c := range batch {
		bm, ok := r.verified[c.Ordinal]
		if !ok {
			bm = roaring.New()
			r.verified[c.Ordinal] = bm
		}
		if bm.CheckedAdd(c.ID) {
			fresh = append(fresh, c)
			positions = append(positions, offset+i)
		}
	}

	features, err := r.loadTargets(ctx, fresh)
	if err != nil {
		return nil, err
	}

	contexts := make([]*datastructure.Context, len(fresh))
	eg, ectx := errgroup.WithContext(ctx)
	eg.SetLimit(contextPoolSize)
	for i, cand := range fresh {
		if features[i] == nil {
			continue
		}
		eg.Go(func() error {
			c, err := r.buildContext(ectx, cand, *features[i], positions[i])
			if err != nil {
				return err
			}
			contexts[i] = c
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	out := make([]*datastructure.Context, 0, len(contexts))
	for _, c := range contexts {
		if c != nil {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *request) loadTargets(ctx context.Context, cands []relevance.Candidate) ([]*datastructure.Feature, error) {
	features := make([]*datastructure.Feature, len(cands))
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	for i, cand := range cands {
		wg.Add(1)
		err := r.g.pool.Submit(func() {
			defer wg.Done()
			f, err := r.g.feature(ctx, cand.Ordinal, cand.ID)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return
			}
			features[i] = f
		})
		if err != nil {
			wg.Done()
			wg.Wait()
			return nil, fmt.Errorf("submit verification: %w", err)
		}
	}
	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}
	return features, nil
}

// contextFeature feature context, di cache per request.
func (r *request) contextFeature(ctx context.Context, ordinal int, id uint32) (*datastructure.Feature, error) {
	tmpid := datastructure.NewTmpID(ordinal, id)
	r.mu.Lock()
	f, ok := r.contexts[tmpid]
	r.mu.Unlock()
	if ok {
		return f, nil
	}

	f, err := r.g.feature(ctx, ordinal, id)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.contexts[tmpid] = f
	r.mu.Unlock()
	return f, nil
}

// buildContext context satu kandidat. nil, nil kalau kandidat tidak lolos filter.
func (r *request) buildContext(ctx context.Context, cand relevance.Candidate, f datastructure.Feature,
	position int) (*datastructure.Context, error) {
	li := r.g.layers[cand.Ordinal]
	if !inTile(f, cand.Tile) {
		r.g.log.Warn("candidate outside its tile", zap.String("layer", li.cfg.Name), zap.Uint32("id", cand.ID),
			zap.Stringer("tile", cand.Tile))
		return nil, nil
	}
	if r.strict && !hasLanguage(f, r.lang) {
		return nil, nil
	}

	c := &datastructure.Context{
		Relev:    cand.Relev,
		Zoom:     li.cfg.Zoom,
		Position: position,
		Covers:   make([]datastructure.Cover, 0, len(cand.Reasons)),
	}
	for _, reason := range cand.Reasons {
		cover := r.covers[reason.TmpID]
		cover.Relev = reason.Relev * float64(reason.Claimable) / float64(len(r.tokens))
		c.Covers = append(c.Covers, cover)
	}

	if li.cfg.Address {
		target := r.covers[cand.TmpID]
		if num, pos, ok := termops.MaskAddress(r.tokens, target.Text, target.Mask); ok {
			if p, found := addressPoint(f, num); found {
				f.Center = [2]float64{p.Lon, p.Lat}
				c.Address, c.AddressPos = num, pos
			} else {
				c.Omitted = true
				c.Relev *= streetFallback
				for i := range c.Covers {
					if c.Covers[i].TmpID == cand.TmpID {
						c.Covers[i].Relev *= streetFallback
					}
				}
			}
		}
	}

	if r.opts.BBox != nil && !geo.BBoxContains(*r.opts.BBox, f.Center[0], f.Center[1]) {
		return nil, nil
	}
	if r.opts.Proximity != nil {
		c.Distance = geo.Distance(*r.opts.Proximity, f.Center, cand.Tile.X(), cand.Tile.Y(), cand.Tile.Zoom())
	}

	c.Entries = []datastructure.ContextEntry{{Feature: f, Ordinal: cand.Ordinal, TmpID: cand.TmpID}}
	for _, fence := range r.g.fences.Context(f.Center[0], f.Center[1], cand.Ordinal) {
		cf, err := r.contextFeature(ctx, fence.Ordinal, fence.ID)
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
	return c, nil
}

func addressPoint(f datastructure.Feature, number string) (datastructure.AddressPoint, bool) {
	for _, p := range f.Addresses {
		if strings.EqualFold(strings.TrimSpace(p.Number), number) {
			return p, true
		}
	}
	return datastructure.AddressPoint{}, false
}
