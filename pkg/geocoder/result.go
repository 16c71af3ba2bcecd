package geocoder

import (
	"strconv"
	"strings"

	"github.com/lintang-b-s/osm-geocoder/pkg/datastructure"
	"golang.org/x/text/language"
)

// results context yang sudah di sort jadi Result, context dengan relevance 0 di buang.
func (g *Geocoder) results(contexts []*datastructure.Context, limit int, lang language.Tag) []datastructure.Result {
	out := make([]datastructure.Result, 0, limit)
	for _, c := range contexts {
		if len(out) == limit {
			break
		}
		if len(c.Entries) == 0 || c.Relevance <= 0 {
			continue
		}
		out = append(out, g.result(c, lang))
	}
	return out
}

// result text dan place name pakai nama bahasa lang kalau feature punya, selain itu nama default.
func (g *Geocoder) result(c *datastructure.Context, lang language.Tag) datastructure.Result {
	target := c.Target()
	layer := g.catalog.Layers[target.Ordinal].Name
	text, textLang := displayText(target.Feature, lang)

	names := make([]string, 0, len(c.Entries))
	if c.Address != "" {
		names = append(names, c.Address+" "+text)
	} else {
		names = append(names, text)
	}
	for _, e := range c.Entries[1:] {
		name, _ := displayText(e.Feature, lang)
		names = append(names, name)
	}

	return datastructure.Result{
		ID:              layer + "." + strconv.FormatUint(uint64(target.Feature.ID), 10),
		Layer:           layer,
		Text:            text,
		Language:        textLang,
		PlaceName:       strings.Join(names, ", "),
		Center:          target.Feature.Center,
		BBox:            target.Feature.BBox,
		Relevance:       c.Relevance,
		Score:           target.Feature.Score,
		Address:         c.Address,
		AddressPosition: c.AddressPos,
		Properties:      target.Feature.Properties,
	}
}
