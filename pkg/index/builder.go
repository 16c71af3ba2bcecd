package index

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/k0kubun/go-ansi"
	"github.com/lintang-b-s/osm-geocoder/pkg/bitcache"
	"github.com/lintang-b-s/osm-geocoder/pkg/compress"
	"github.com/lintang-b-s/osm-geocoder/pkg/config"
	"github.com/lintang-b-s/osm-geocoder/pkg/datastructure"
	"github.com/lintang-b-s/osm-geocoder/pkg/dictcache"
	"github.com/lintang-b-s/osm-geocoder/pkg/geo"
	"github.com/lintang-b-s/osm-geocoder/pkg/geofence"
	"github.com/lintang-b-s/osm-geocoder/pkg/grid"
	"github.com/lintang-b-s/osm-geocoder/pkg/permute"
	"github.com/lintang-b-s/osm-geocoder/pkg/shardstore"
	"github.com/lintang-b-s/osm-geocoder/pkg/termops"
	"github.com/schollz/progressbar/v3"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"
)

var (
	ErrFeatureIDRange   = errors.New("feature id exceeds grid id width")
	ErrUnknownLayer     = errors.New("layer not in catalog")
	ErrDuplicateFeature = errors.New("duplicate feature id")
)

// Builder kumpulkan feature per layer lalu tulis semua index nya ke shard store.
type Builder struct {
	catalog  *config.Catalog
	perms    *permute.Cache
	features [][]datastructure.Feature
	ids      []map[uint32]struct{}
	log      *zap.Logger
	progress bool
}

func NewBuilder(catalog *config.Catalog, log *zap.Logger) *Builder {
	b := &Builder{
		catalog:  catalog,
		perms:    permute.NewCache(),
		features: make([][]datastructure.Feature, len(catalog.Layers)),
		ids:      make([]map[uint32]struct{}, len(catalog.Layers)),
		log:      log,
	}
	for i := range b.ids {
		b.ids[i] = make(map[uint32]struct{})
	}
	return b
}

// WithProgress tampilkan progress bar per layer di stdout.
func (b *Builder) WithProgress(show bool) *Builder {
	b.progress = show
	return b
}

func (b *Builder) Add(f datastructure.Feature) error {
	ordinal := b.catalog.Ordinal(f.Layer)
	if ordinal < 0 {
		return fmt.Errorf("%w: %q", ErrUnknownLayer, f.Layer)
	}
	if f.ID > grid.MaxID {
		return fmt.Errorf("%w: %s.%d", ErrFeatureIDRange, f.Layer, f.ID)
	}
	if _, ok := b.ids[ordinal][f.ID]; ok {
		return fmt.Errorf("%w: %s.%d", ErrDuplicateFeature, f.Layer, f.ID)
	}
	b.ids[ordinal][f.ID] = struct{}{}
	b.features[ordinal] = append(b.features[ordinal], f)
	return nil
}

// Len jumlah feature semua layer.
func (b *Builder) Len() int {
	n := 0
	for _, fs := range b.features {
		n += len(fs)
	}
	return n
}

// Build tulis index setiap layer yang punya feature ke w, lalu flush.
func (b *Builder) Build(ctx context.Context, w *shardstore.Writer) error {
	for ordinal, features := range b.features {
		if len(features) == 0 {
			b.log.Warn("layer without features is not indexed", zap.String("layer", b.catalog.Layers[ordinal].Name))
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := b.buildLayer(ordinal, features, w); err != nil {
			return fmt.Errorf("build layer %s: %w", b.catalog.Layers[ordinal].Name, err)
		}
	}
	return w.Flush(ctx)
}

func (b *Builder) newBar(max int, description string) *progressbar.ProgressBar {
	if !b.progress {
		return progressbar.DefaultSilent(int64(max), description)
	}
	return progressbar.NewOptions(max,
		progressbar.OptionSetWriter(ansi.NewAnsiStdout()),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(15),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}

// layerIndex semua index satu layer sebelum di tulis.
type layerIndex struct {
	grids  map[uint64]map[uint64]struct{}
	degens map[uint64]map[uint64]struct{}
}

func (li *layerIndex) addPhrase(text string, relev float64, f datastructure.Feature, score int, tiles []grid.Cell) error {
	canonical := termops.EncodePhrase(text, true)
	entries, ok := li.grids[canonical]
	if !ok {
		entries = make(map[uint64]struct{})
		li.grids[canonical] = entries
	}
	for _, tile := range tiles {
		e, err := grid.Encode(grid.Cell{ID: f.ID, X: tile.X, Y: tile.Y, Relev: relev, Score: score})
		if err != nil {
			return err
		}
		entries[uint64(e)] = struct{}{}
	}

	textLen := utf8.RuneCountInString(text)
	for _, degen := range termops.GetPhraseDegens(strings.Fields(text)) {
		key := termops.EncodePhrase(degen, false)
		canonicals, ok := li.degens[key]
		if !ok {
			canonicals = make(map[uint64]struct{})
			li.degens[key] = canonicals
		}
		canonicals[termops.WithDistance(canonical, textLen-utf8.RuneCountInString(degen))] = struct{}{}
	}
	return nil
}

func (b *Builder) buildLayer(ordinal int, features []datastructure.Feature, w *shardstore.Writer) error {
	cfg := b.catalog.Layers[ordinal]
	replacer := termops.NewReplacer(cfg.Replacer, cfg.Stemming)
	bar := b.newBar(len(features)*2, fmt.Sprintf("[cyan][%d/%d][reset] indexing %s...", ordinal+1, len(b.catalog.Layers), cfg.Name))

	// pass 1: frekuensi term, vocabulary, max score
	freq := termops.FreqMap{}
	vocab := make(map[string]uint64)
	names := make([][][]string, len(features))
	maxScore := 0.0
	for i, f := range features {
		maxScore = math.Max(maxScore, f.Score)
		for _, name := range f.SearchNames() {
			tokens := replacer.ReplaceText(name)
			if len(tokens) == 0 {
				continue
			}
			names[i] = append(names[i], tokens)
			for _, t := range tokens {
				freq.Add(t)
				vocab[t]++
			}
		}
		bar.Add(1)
	}
	if freq[termops.CountKey] == 0 {
		bar.Finish()
		return fmt.Errorf("no indexable names: %w", termops.ErrBadFreqTotal)
	}
	freq[termops.MaxKey] = uint64(math.Ceil(maxScore))

	// pass 2: phrase -> grid entries, degenerate -> canonical phrase
	li := &layerIndex{
		grids:  make(map[uint64]map[uint64]struct{}),
		degens: make(map[uint64]map[uint64]struct{}),
	}
	fences := geofence.NewRtreeFence(ordinal)
	for i, f := range features {
		tiles := coverCells(f, cfg.Zoom)
		score := grid.Encode3BitLogScale(f.Score, maxScore)

		for _, tokens := range names[i] {
			weights, err := termops.GetWeights(tokens, freq)
			if err != nil {
				return err
			}
			for _, p := range b.perms.IndexablePhrases(tokens, weights) {
				if err := li.addPhrase(p.Text, p.Relev, f, score, tiles); err != nil {
					return err
				}
			}
			if !cfg.Address {
				continue
			}
			// "1## jalan sudirman" untuk setiap nomor rumah
			street := strings.Join(tokens, " ")
			for _, addr := range f.Addresses {
				num, ok := termops.ParseSemiNumber(addr.Number)
				if !ok {
					continue
				}
				text := termops.NumToken(strconv.Itoa(num)) + " " + street
				if err := li.addPhrase(text, 1, f, score, tiles); err != nil {
					return err
				}
			}
		}

		fences.Add(geofence.Fence{ID: f.ID, BBox: f.BBox, Polygon: rings(f.Polygon)})

		record, err := msgpack.Marshal(f)
		if err != nil {
			return fmt.Errorf("encode feature %d: %w", f.ID, err)
		}
		w.Put(cfg.Name, shardstore.KindFeature, uint64(f.ID), record)
		bar.Add(1)
	}
	bar.Finish()

	return b.writeLayer(cfg.Name, freq, vocab, li, fences, w)
}

func (b *Builder) writeLayer(layer string, freq termops.FreqMap, vocab map[string]uint64, li *layerIndex,
	fences *geofence.RtreeFence, w *shardstore.Writer) error {
	for term, count := range freq {
		w.Put(layer, shardstore.KindFreq, term, binary.AppendUvarint(nil, count))
	}

	bits, err := bitcache.New(bitcache.Auto(len(li.grids) + len(li.degens)))
	if err != nil {
		return err
	}
	for phrase, entries := range li.grids {
		w.Put(layer, shardstore.KindGrid, phrase, compress.EncodeGridList(keys(entries)))
		bits.Set(phrase)
	}
	for degen, canonicals := range li.degens {
		w.Put(layer, shardstore.KindDegen, degen, compress.EncodeIDList(keys(canonicals)))
		bits.Set(degen)
	}
	bitsData, err := bits.MarshalBinary()
	if err != nil {
		return fmt.Errorf("encode bitcache: %w", err)
	}
	w.PutBlob(layer, shardstore.BlobBitcache, bitsData)

	dict, err := dictcache.Build(vocab)
	if err != nil {
		return fmt.Errorf("build vocabulary: %w", err)
	}
	w.PutBlob(layer, shardstore.BlobDict, dict.Bytes())

	fencesData, err := fences.MarshalBinary()
	if err != nil {
		return fmt.Errorf("encode context index: %w", err)
	}
	w.PutBlob(layer, shardstore.BlobContexts, fencesData)

	b.log.Info("layer indexed", zap.String("layer", layer),
		zap.Int("phrases", len(li.grids)), zap.Int("degens", len(li.degens)),
		zap.Int("terms", len(vocab)), zap.Int("features", fences.Len()))
	return nil
}

// coverCells tile yang di cover bbox feature di zoom layer.
func coverCells(f datastructure.Feature, zoom int) []grid.Cell {
	tiles := geo.TileCover(f.BBox, f.Center, zoom)
	cells := make([]grid.Cell, 0, len(tiles))
	for _, t := range tiles {
		cells = append(cells, grid.Cell{X: t.X, Y: t.Y})
	}
	return cells
}

func rings(polygon [][][2]float64) []geo.Ring {
	if len(polygon) == 0 {
		return nil
	}
	out := make([]geo.Ring, len(polygon))
	for i, r := range polygon {
		out[i] = geo.Ring(r)
	}
	return out
}

func keys(set map[uint64]struct{}) []uint64 {
	out := make([]uint64, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
