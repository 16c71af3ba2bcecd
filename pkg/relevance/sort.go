package relevance

import (
	"fmt"
	"math"
	"sort"

	"github.com/lintang-b-s/osm-geocoder/pkg/datastructure"
	"github.com/lintang-b-s/osm-geocoder/pkg/geo"
)

// unitEpsilon toleransi pembulatan float di batas [0,1].
const unitEpsilon = 1e-6

// MustUnit panic kalau v di luar [0,1] (lebih dari toleransi pembulatan), selain itu v di clamp ke [0,1].
// relevance di luar range berarti index korup.
func MustUnit(v float64) float64 {
	if math.IsNaN(v) || v < -unitEpsilon || v > 1+unitEpsilon {
		panic(fmt.Sprintf("relevance %v outside [0,1]", v))
	}
	return math.Max(0, math.Min(v, 1))
}

// SortContexts urutan hasil akhir: relevance desc, scoredist desc, non-omitted dulu, type index asc,
// posisi nomor rumah di query asc (dua duanya address), posisi kandidat asc, id asc.
func SortContexts(contexts []*datastructure.Context) {
	sort.SliceStable(contexts, func(i, j int) bool {
		a, b := contexts[i], contexts[j]
		if a.Relevance != b.Relevance {
			return a.Relevance > b.Relevance
		}
		if a.Scoredist != b.Scoredist {
			return a.Scoredist > b.Scoredist
		}
		if a.Omitted != b.Omitted {
			return !a.Omitted
		}
		if a.TypeIndex != b.TypeIndex {
			return a.TypeIndex < b.TypeIndex
		}
		if a.Address != "" && b.Address != "" && a.AddressPos != b.AddressPos {
			return a.AddressPos < b.AddressPos
		}
		if a.Position != b.Position {
			return a.Position < b.Position
		}
		return targetID(a) < targetID(b)
	})
}

func targetID(c *datastructure.Context) uint64 {
	if len(c.Entries) == 0 {
		return 0
	}
	return c.Target().TmpID
}

// Scorer hitung Scoredist context. tanpa proximity scoredist = score target. dengan proximity feature
// yang dekat bisa mengalahkan feature dengan score tinggi yang jauh:
// max(score, ScoreDist(rata-rata geometrik score, jarak, zoom, radius)).
type Scorer struct {
	Proximity bool
	Radius    float64
	// MaxScore score feature terbesar di index, batas atas score target setelah ditambah squishy.
	MaxScore float64
	mean     float64
}

func NewScorer(proximity bool, radius, maxScore float64) *Scorer {
	return &Scorer{Proximity: proximity, Radius: radius, MaxScore: maxScore, mean: 1}
}

// Apply isi Scoredist setiap context dari score target.
func (s *Scorer) Apply(contexts []*datastructure.Context) error {
	scores := make([]float64, 0, len(contexts))
	for _, c := range contexts {
		if len(c.Entries) == 0 {
			continue
		}
		// NaN tetap masuk supaya MeanScore gagal
		if score := c.Target().Feature.Score; score > 0 || math.IsNaN(score) {
			scores = append(scores, score)
		}
	}
	mean, err := geo.MeanScore(scores)
	if err != nil {
		return err
	}
	s.mean = mean

	for _, c := range contexts {
		if len(c.Entries) == 0 {
			continue
		}
		c.Scoredist = s.scoredist(c, c.Target().Feature.Score)
	}
	return nil
}

// Squishy naikkan Scoredist target yang mewarisi score feature bernama sama di context nya.
// tanpa proximity squishy langsung ditambahkan, dengan proximity scoredist dihitung ulang dari
// min(score+squishy, MaxScore). nil Scorer dianggap tanpa proximity.
func (s *Scorer) Squishy(c *datastructure.Context, squishy float64) {
	if s == nil || !s.Proximity {
		c.Scoredist += squishy
		return
	}
	score := c.Target().Feature.Score + squishy
	if s.MaxScore > 0 {
		score = math.Min(score, s.MaxScore)
	}
	c.Scoredist = s.scoredist(c, score)
}

func (s *Scorer) scoredist(c *datastructure.Context, score float64) float64 {
	if s.Proximity && score >= 0 {
		return math.Max(score, geo.ScoreDist(s.mean, c.Distance, c.Zoom, s.Radius))
	}
	return score
}
