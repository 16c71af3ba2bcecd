package geofence

import (
	"errors"
	"fmt"
	"sort"

	"github.com/lintang-b-s/osm-geocoder/pkg"
)

var (
	ErrFenceNotExists = errors.New("fence not exists")
)

// FenceIndex context index: satu RtreeFence per layer.
type FenceIndex struct {
	fences map[string]*RtreeFence
	// layer urut ordinal descending (paling detail dulu)
	names []string
}

func NewFenceIndex() *FenceIndex {
	return &FenceIndex{
		fences: make(map[string]*RtreeFence),
	}
}

func (f *FenceIndex) AddFence(name string, ordinal int) error {
	return f.PutFence(name, NewRtreeFence(ordinal))
}

// PutFence daftarkan fence layer yang sudah di load.
func (f *FenceIndex) PutFence(name string, fence *RtreeFence) error {
	if _, ok := f.fences[name]; ok {
		return pkg.WrapErrorf(errors.New("already exists"), pkg.ErrBadParamInput, "fence %s already exists", name)
	}
	f.fences[name] = fence
	f.names = append(f.names, name)
	sort.SliceStable(f.names, func(i, j int) bool {
		return f.fences[f.names[i]].Ordinal() > f.fences[f.names[j]].Ordinal()
	})
	return nil
}

func (f *FenceIndex) GetFence(name string) (*RtreeFence, bool) {
	fence, ok := f.fences[name]
	return fence, ok
}

// Search fence layer name yang memuat titik.
func (f *FenceIndex) Search(name string, lat, lon float64) ([]Fence, error) {
	fence, ok := f.fences[name]
	if !ok {
		return []Fence{}, pkg.WrapErrorf(ErrFenceNotExists, pkg.ErrBadParamInput, "FenceIndex does not contain fence %s", name)
	}
	return fence.Get(lat, lon), nil
}

// Context satu fence terkecil per layer yang memuat titik, hanya layer dengan ordinal < maxOrdinal.
// hasil urut dari layer paling detail.
func (f *FenceIndex) Context(lon, lat float64, maxOrdinal int) []Fence {
	context := []Fence{}
	for _, name := range f.names {
		fence := f.fences[name]
		if fence.Ordinal() >= maxOrdinal {
			continue
		}
		if found := fence.Get(lat, lon); len(found) > 0 {
			context = append(context, found[0])
		}
	}
	return context
}

// Nearest fence terdekat di layer name dalam radius maxDistKm.
func (f *FenceIndex) Nearest(name string, lon, lat, maxDistKm float64) (Fence, bool, error) {
	fence, ok := f.fences[name]
	if !ok {
		return Fence{}, false, pkg.WrapErrorf(ErrFenceNotExists, pkg.ErrBadParamInput, "FenceIndex does not contain fence %s", name)
	}
	nearest := fence.Nearest(lat, lon, 1)
	if len(nearest) == 0 || nearest[0].Dist > maxDistKm {
		return Fence{}, false, nil
	}
	return nearest[0].Item, true, nil
}

func (f *FenceIndex) String() string {
	return fmt.Sprintf("FenceIndex%v", f.names)
}
