package relevance

import (
	"sort"

	"github.com/lintang-b-s/osm-geocoder/pkg/datastructure"
	"github.com/lintang-b-s/osm-geocoder/pkg/grid"
)

const (
	// MaxPrimary jumlah kandidat terbaik yang di verifikasi pertama kali.
	MaxPrimary = 20
	// PrimaryWindow kandidat primary maksimal sejauh ini di bawah relev terbaik.
	PrimaryWindow = 0.1

	gapPenalty = 0.01
)

// SortReasons urutkan reason supaya satu layer tidak dihitung dua kali oleh Usage:
// ordinal asc, relev desc, mask desc, id asc.
func SortReasons(rows []datastructure.RelevanceReason) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Ordinal != b.Ordinal {
			return a.Ordinal < b.Ordinal
		}
		if a.Relev != b.Relev {
			return a.Relev > b.Relev
		}
		if a.Mask != b.Mask {
			return a.Mask > b.Mask
		}
		return a.ID < b.ID
	})
}

// Usage relevance pass 1 dari reason yang sudah di SortReasons. setiap posisi token query hanya boleh
// di klaim sekali. reason yang tidak mengklaim posisi apapun tidak ikut di retained.
// rows tidak di ubah. relev reason di luar [0,1] panic lewat MustUnit.
func Usage(queryLen int, rows []datastructure.RelevanceReason) (float64, []datastructure.RelevanceReason) {
	if queryLen <= 0 {
		return 0, nil
	}

	var (
		relev    float64
		claimed  uint32
		lastOrd  = -1
		gaps     int
		retained = make([]datastructure.RelevanceReason, 0, len(rows))
	)
	for _, row := range rows {
		MustUnit(row.Relev)
		if lastOrd >= 0 && row.Ordinal == lastOrd {
			continue
		}

		usage := 0
		for j := 0; j < queryLen; j++ {
			bit := uint32(1) << uint(j)
			if claimed&bit == 0 && row.Mask&bit != 0 {
				usage++
				claimed |= bit
			}
		}
		if usage == 0 {
			continue
		}

		relev += row.Relev * float64(usage) / float64(queryLen)
		if lastOrd >= 0 {
			if d := abs(row.Ordinal - lastOrd); d > 1 {
				gaps += d - 1
			}
		}
		lastOrd = row.Ordinal

		row.Claimable = usage
		retained = append(retained, row)
	}

	relev = MustUnit(relev) - gapPenalty*float64(gaps)
	if relev < 0 {
		relev = 0
	}
	return relev, retained
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// Candidate satu feature hasil pass 1, dengan reason dari tile terbaiknya.
type Candidate struct {
	TmpID   uint64
	Ordinal int
	ID      uint32
	Relev   float64
	Score   int
	Tile    grid.TileKey
	Reasons []datastructure.RelevanceReason
}

// RankTiles urutkan kandidat (relev desc, score desc, tmpid asc). primary berisi maksimal MaxPrimary
// kandidat yang relev nya dalam PrimaryWindow dari kandidat terbaik, sisanya masuk secondary.
func RankTiles(candidates []Candidate) (primary, secondary []Candidate) {
	sorted := make([]Candidate, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Relev != b.Relev {
			return a.Relev > b.Relev
		}
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return a.TmpID < b.TmpID
	})
	if len(sorted) == 0 {
		return nil, nil
	}

	best := sorted[0].Relev
	primary = make([]Candidate, 0, MaxPrimary)
	for _, c := range sorted {
		if len(primary) < MaxPrimary && best-c.Relev < PrimaryWindow {
			primary = append(primary, c)
			continue
		}
		secondary = append(secondary, c)
	}
	return primary, secondary
}
