package coalesce

import (
	"sort"

	"github.com/lintang-b-s/osm-geocoder/pkg/datastructure"
	"github.com/lintang-b-s/osm-geocoder/pkg/grid"
	"golang.org/x/exp/slices"
)

// CoalesceZooms gabungkan grid match dari beberapa layer per tile. setiap tile di zoom layer
// mengumpulkan tmpid feature nya sendiri ditambah tmpid dari ancestor tile terdekat di zoom
// yang lebih kasar. grids[h], ordinals[h], zooms[h] milik layer yang sama.
//
// tile di zoom yang sama tidak pernah digabung satu sama lain.
func CoalesceZooms(grids [][]grid.Entry, ordinals []int, zooms []int) map[grid.TileKey][]uint64 {
	coalesced := make(map[grid.TileKey][]uint64)
	if len(grids) == 0 {
		return coalesced
	}

	matched := make([]int, 0, len(zooms))
	for h := range grids {
		if len(grids[h]) > 0 {
			matched = append(matched, zooms[h])
		}
	}
	slices.Sort(matched)
	matched = slices.Compact(matched)

	// zoom -> zoom lain yang lebih kasar, paling detail dulu
	coarser := make(map[int][]int, len(matched))
	for i, z := range matched {
		parents := make([]int, 0, i)
		for j := i - 1; j >= 0; j-- {
			parents = append(parents, matched[j])
		}
		coarser[z] = parents
	}

	// layer kasar dulu supaya ancestor tile sudah terisi saat tile anaknya dikunjungi
	order := make([]int, len(grids))
	for h := range order {
		order[h] = h
	}
	sort.SliceStable(order, func(i, j int) bool {
		return zooms[order[i]] < zooms[order[j]]
	})

	done := make(map[grid.TileKey]bool)
	for _, h := range order {
		z := zooms[h]
		for _, e := range grids[h] {
			key := grid.NewTileKey(z, e.X(), e.Y())
			coalesced[key] = append(coalesced[key], datastructure.NewTmpID(ordinals[h], e.ID()))

			if done[key] {
				continue
			}
			done[key] = true
			for _, p := range coarser[z] {
				parent, ok := coalesced[key.Parent(p)]
				if !ok {
					continue
				}
				coalesced[key] = append(coalesced[key], parent...)
				break
			}
		}
	}
	return coalesced
}
