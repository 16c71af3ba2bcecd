package relevance

import (
	"math"
	"strings"

	"github.com/lintang-b-s/osm-geocoder/pkg/datastructure"
)

// Direction urutan komponen alamat di query.
type Direction string

const (
	// Ascending dari layer paling detail ke paling umum ("jalan, kota, negara").
	Ascending  Direction = "ascending"
	Descending Direction = "descending"
)

const backyFactor = 0.5

// Layer konfigurasi layer yang dipakai pass 2 dan sorting.
type Layer struct {
	Name    string
	Ordinal int
	// TypeIndex tie-break antar layer saat relevance dan scoredist sama.
	TypeIndex int
	// IgnoreOrder layer yang biasa ditulis di luar urutan hirarki (postcode).
	IgnoreOrder bool
	// InheritScore feature layer ini mewarisi score feature context dengan nama yang sama.
	InheritScore bool
	// GrantScore feature layer ini boleh memberikan score ke feature dengan nama sama.
	GrantScore   bool
	AddressOrder Direction
}

// Layers layer per ordinal.
type Layers map[int]Layer

// Matches cover per tmpid.
type Matches map[uint64]datastructure.Cover

// NewMatches cover dengan relev tertinggi per tmpid.
func NewMatches(covers []datastructure.Cover) Matches {
	m := make(Matches, len(covers))
	for _, c := range covers {
		if prev, ok := m[c.TmpID]; !ok || prev.Relev < c.Relev {
			m[c.TmpID] = c
		}
	}
	return m
}

// VerifyContext relevance pass 2 satu context. strict cover dari spatial match context ini sendiri,
// loose cover terbaik dari semua kandidat. peers target setiap context lain, per tmpid.
// squishy score yang harus ditambahkan ke scoredist target.
func VerifyContext(c *datastructure.Context, peers map[uint64]datastructure.Feature, strict, loose Matches,
	layers Layers) (relevance, squishy float64) {
	if len(c.Entries) == 0 {
		return 0, 0
	}
	target := c.Target()
	targetLayer := layers[target.Ordinal]

	var (
		usedmask  uint32
		lastmask  int64 = -1
		lastLayer *Layer
		direction Direction
	)
	for i := range c.Entries {
		entry := &c.Entries[i]
		matched, ok := strict[entry.TmpID]
		if !ok {
			matched, ok = loose[entry.TmpID]
		}
		if !ok {
			continue
		}
		layer := layers[entry.Ordinal]
		ignoreOrder := layer.IgnoreOrder || (lastLayer != nil && lastLayer.IgnoreOrder)

		// feature dengan nama sama di context (Jakarta, DKI Jakarta) menyumbang score ke target
		if targetLayer.InheritScore && i > 0 && layer.GrantScore {
			if peer, ok := peers[entry.TmpID]; ok && textAlike(target.Feature, entry.Feature) {
				squishy += math.Max(peer.Score, 0)
			}
		}

		if usedmask&matched.Mask != 0 {
			continue
		}
		mask := int64(matched.Mask)

		backy := false
		if lastmask >= 0 {
			if direction == "" && !ignoreOrder {
				direction = Descending
				if lastmask < mask {
					direction = Ascending
				}
			} else if direction == Ascending {
				backy = lastmask > mask
			} else if direction == Descending {
				backy = lastmask < mask
			}
		}

		usedmask |= matched.Mask
		lastmask = mask
		lastLayer = &layer

		if backy && !ignoreOrder {
			relevance += matched.Relev * backyFactor
		} else {
			relevance += matched.Relev
		}
	}

	if direction != "" {
		relevance -= 0.01
		if targetLayer.AddressOrder == direction {
			relevance += 0.01
		}
	}
	if relevance < 0 {
		relevance = 0
	}
	return relevance, squishy
}

// textAlike true kalau bagian pertama (sebelum koma) salah satu nama target termuat di nama candidate.
func textAlike(target, candidate datastructure.Feature) bool {
	for _, t := range target.Names {
		t = strings.TrimSpace(strings.SplitN(t, ",", 2)[0])
		if t == "" {
			continue
		}
		t = strings.ToLower(t)
		for _, c := range candidate.Names {
			c = strings.ToLower(strings.SplitN(c, ",", 2)[0])
			if strings.Contains(c, t) {
				return true
			}
		}
	}
	return false
}

// VerifyContexts hitung relevance akhir setiap context: max(strict, loose) dibulatkan 6 desimal,
// harus di [0,1]. squishy menaikkan scoredist target lewat scorer. contexts di sort dengan SortContexts.
func VerifyContexts(contexts []*datastructure.Context, sets Matches, layers Layers, scorer *Scorer) {
	peers := make(map[uint64]datastructure.Feature, len(contexts))
	for _, c := range contexts {
		if len(c.Entries) == 0 {
			continue
		}
		peers[c.Target().TmpID] = c.Target().Feature
	}

	for _, c := range contexts {
		if len(c.Entries) == 0 {
			c.Relevance = 0
			continue
		}
		if layer, ok := layers[c.Target().Ordinal]; ok {
			c.TypeIndex = layer.TypeIndex
		}

		strict := NewMatches(c.Covers)
		strictRelev, _ := VerifyContext(c, peers, strict, Matches{}, layers)
		looseRelev, squishy := VerifyContext(c, peers, strict, sets, layers)

		c.Relevance = MustUnit(math.Round(math.Max(strictRelev, looseRelev)*1e6) / 1e6)
		if squishy > 0 {
			scorer.Squishy(c, squishy)
		}
	}
	SortContexts(contexts)
}
