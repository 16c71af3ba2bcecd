package datastructure

import (
	"math"
	"sort"
)

// R*-tree, rewrite dari https://github.com/virtuald/r-star-tree/
// + N-nearest neighbors & Search.
// https://infolab.usc.edu/csci599/Fall2001/paper/rstar-tree.pdf
// dimensi 0 = lat, dimensi 1 = lon.

const (
	REINSERT_P = 0.3
)

type RtreeBoundingBox struct {
	// number of dimensions
	Dim int
	// Edges[i][0] = low value, Edges[i][1] = high value
	Edges [][2]float64
}

func NewRtreeBoundingBox(dim int, minVal []float64, maxVal []float64) RtreeBoundingBox {
	b := RtreeBoundingBox{Dim: dim, Edges: make([][2]float64, dim)}
	for axis := 0; axis < dim; axis++ {
		b.Edges[axis] = [2]float64{minVal[axis], maxVal[axis]}
	}
	return b
}

// NewLatLonBound bounding box 2 dimensi dari bbox minLon, minLat, maxLon, maxLat.
func NewLatLonBound(bbox [4]float64) RtreeBoundingBox {
	return NewRtreeBoundingBox(2, []float64{bbox[1], bbox[0]}, []float64{bbox[3], bbox[2]})
}

// emptyBound edges di set ke nilai ekstrem supaya bisa di stretch.
func emptyBound(dim int) RtreeBoundingBox {
	b := RtreeBoundingBox{Dim: dim, Edges: make([][2]float64, dim)}
	for axis := 0; axis < dim; axis++ {
		b.Edges[axis] = [2]float64{math.Inf(1), math.Inf(-1)}
	}
	return b
}

// stretch returns bounding box terkecil yang memuat b dan bb.
func stretch(b RtreeBoundingBox, bb RtreeBoundingBox) RtreeBoundingBox {
	newBB := RtreeBoundingBox{Dim: b.Dim, Edges: make([][2]float64, b.Dim)}
	for axis := 0; axis < b.Dim; axis++ {
		newBB.Edges[axis][0] = math.Min(b.Edges[axis][0], bb.Edges[axis][0])
		newBB.Edges[axis][1] = math.Max(b.Edges[axis][1], bb.Edges[axis][1])
	}
	return newBB
}

// edgeDeltas returns the sum of all (high - low) for each dimension. (margin)
func edgeDeltas(b RtreeBoundingBox) float64 {
	distance := 0.0
	for axis := 0; axis < b.Dim; axis++ {
		distance += b.Edges[axis][1] - b.Edges[axis][0]
	}
	return distance
}

func area(b RtreeBoundingBox) float64 {
	area := 1.0
	for axis := 0; axis < b.Dim; axis++ {
		area *= b.Edges[axis][1] - b.Edges[axis][0]
	}
	return area
}

// overlaps true kalau b dan bb beririsan, sisi yang bersentuhan dihitung beririsan.
func overlaps(b RtreeBoundingBox, bb RtreeBoundingBox) bool {
	for axis := 0; axis < b.Dim; axis++ {
		if b.Edges[axis][0] > bb.Edges[axis][1] || bb.Edges[axis][0] > b.Edges[axis][1] {
			return false
		}
	}
	return true
}

// overlap luas irisan b dan bb (0 kalau tidak beririsan).
func overlap(b RtreeBoundingBox, bb RtreeBoundingBox) float64 {
	area := 1.0
	for axis := 0; axis < b.Dim; axis++ {
		lo := math.Max(b.Edges[axis][0], bb.Edges[axis][0])
		hi := math.Min(b.Edges[axis][1], bb.Edges[axis][1])
		if hi <= lo {
			return 0
		}
		area *= hi - lo
	}
	return area
}

// distanceFromCenter kuadrat jarak euclid antara center b dan center bb.
func (b *RtreeBoundingBox) distanceFromCenter(bb RtreeBoundingBox) float64 {
	distance := 0.0
	for axis := 0; axis < b.Dim; axis++ {
		centerB := (b.Edges[axis][0] + b.Edges[axis][1]) / 2.0
		centerBB := (bb.Edges[axis][0] + bb.Edges[axis][1]) / 2.0
		distance += (centerB - centerBB) * (centerB - centerBB)
	}
	return distance
}

func (b *RtreeBoundingBox) isBBSame(bb RtreeBoundingBox) bool {
	for axis := 0; axis < b.Dim; axis++ {
		if b.Edges[axis][0] != bb.Edges[axis][0] || b.Edges[axis][1] != bb.Edges[axis][1] {
			return false
		}
	}
	return true
}

// RtreeLeaf data yang disimpan di leaf node.
type RtreeLeaf[T any] struct {
	Item  T
	Bound RtreeBoundingBox
}

// rtree node. leaf node berisi leaves, internal node berisi children.
type rtreeNode[T any] struct {
	children []*rtreeNode[T]
	leaves   []RtreeLeaf[T]
	parent   *rtreeNode[T]
	bound    RtreeBoundingBox
	isLeaf   bool
}

func (node *rtreeNode[T]) size() int {
	if node.isLeaf {
		return len(node.leaves)
	}
	return len(node.children)
}

func (node *rtreeNode[T]) recomputeBound(dim int) {
	node.bound = emptyBound(dim)
	if node.isLeaf {
		for _, l := range node.leaves {
			node.bound = stretch(node.bound, l.Bound)
		}
		return
	}
	for _, c := range node.children {
		node.bound = stretch(node.bound, c.bound)
	}
}

type Rtree[T any] struct {
	root          *rtreeNode[T]
	size          int
	minChildItems int
	maxChildItems int
	dimensions    int
	height        int
}

func NewRtree[T any](minChildItems, maxChildItems, dimensions int) *Rtree[T] {
	if minChildItems < 1 {
		minChildItems = 1
	}
	if maxChildItems < 2*minChildItems {
		maxChildItems = 2 * minChildItems
	}
	return &Rtree[T]{
		minChildItems: minChildItems,
		maxChildItems: maxChildItems,
		dimensions:    dimensions,
	}
}

func (rt *Rtree[T]) Len() int {
	return rt.size
}

func (rt *Rtree[T]) Height() int {
	return rt.height
}

func (rt *Rtree[T]) InsertLeaf(bound RtreeBoundingBox, item T) {
	leaf := RtreeLeaf[T]{Item: item, Bound: bound}
	if rt.root == nil {
		rt.root = &rtreeNode[T]{isLeaf: true, bound: bound}
	}
	rt.insert(leaf, true)
	rt.size++
}

func (rt *Rtree[T]) insert(leaf RtreeLeaf[T], firstInsert bool) {
	// I1: Invoke ChooseSubtree to find an appropriate node N, in which to place the new entry E
	node := rt.chooseSubtree(rt.root, leaf.Bound)

	// I2: accommodate E in N. if N has M+1 entries, invoke OverflowTreatment
	node.leaves = append(node.leaves, leaf)
	if node.size() > rt.maxChildItems {
		rt.overflowTreatment(node, firstInsert)
	}
}

func (rt *Rtree[T]) chooseSubtree(node *rtreeNode[T], bound RtreeBoundingBox) *rtreeNode[T] {
	// I4: Adjust all covering rectangles in the insertion path
	node.bound = stretch(node.bound, bound)

	// CS2: If N is a leaf, return N
	if node.isLeaf {
		return node
	}

	best := 0
	if node.children[0].isLeaf {
		// child pointers point to leaves: choose the entry whose rectangle needs least
		// overlap enlargement, ties resolved by least area enlargement
		minOverlap := math.Inf(1)
		minArea := math.Inf(1)
		for i, child := range node.children {
			enlarged := stretch(child.bound, bound)
			overlapEnlargement := 0.0
			for j, other := range node.children {
				if i == j {
					continue
				}
				overlapEnlargement += overlap(enlarged, other.bound) - overlap(child.bound, other.bound)
			}
			areaEnlargement := area(enlarged) - area(child.bound)
			if overlapEnlargement < minOverlap || (overlapEnlargement == minOverlap && areaEnlargement < minArea) {
				minOverlap, minArea, best = overlapEnlargement, areaEnlargement, i
			}
		}
		return rt.chooseSubtree(node.children[best], bound)
	}

	// choose the entry whose rectangle needs least area enlargement,
	// ties resolved by the rectangle of smallest area
	minEnlargement := math.Inf(1)
	for i, child := range node.children {
		enlarged := stretch(child.bound, bound)
		enlargement := area(enlarged) - area(child.bound)
		if enlargement < minEnlargement ||
			(enlargement == minEnlargement && area(child.bound) < area(node.children[best].bound)) {
			minEnlargement, best = enlargement, i
		}
	}
	return rt.chooseSubtree(node.children[best], bound)
}

func (rt *Rtree[T]) overflowTreatment(node *rtreeNode[T], firstInsert bool) {
	// OT1: If the level is not the root level and this is the first call of
	// OverflowTreatment during the insertion of one data rectangle, invoke Reinsert.
	// reinsert cuma untuk leaf node, internal node langsung di split.
	if node != rt.root && firstInsert && node.isLeaf {
		rt.reinsert(node)
		return
	}

	newNode := rt.split(node)

	// I3: If OverflowTreatment caused a split of the root, create a new root
	if node == rt.root {
		newRoot := &rtreeNode[T]{children: []*rtreeNode[T]{node, newNode}}
		node.parent = newRoot
		newNode.parent = newRoot
		newRoot.recomputeBound(rt.dimensions)
		rt.root = newRoot
		rt.height++
		return
	}

	parent := node.parent
	newNode.parent = parent
	parent.children = append(parent.children, newNode)
	parent.recomputeBound(rt.dimensions)

	// I3: propagate OverflowTreatment upwards if necessary
	if parent.size() > rt.maxChildItems {
		rt.overflowTreatment(parent, firstInsert)
	}
}

func (rt *Rtree[T]) reinsert(node *rtreeNode[T]) {
	p := int(float64(len(node.leaves)) * REINSERT_P)
	if p < 1 {
		p = 1
	}

	// RI1 & RI2: sort the entries in decreasing order of the distance between their
	// centers and the center of the bounding rectangle of N
	center := node.bound
	sort.SliceStable(node.leaves, func(i, j int) bool {
		return center.distanceFromCenter(node.leaves[i].Bound) > center.distanceFromCenter(node.leaves[j].Bound)
	})

	// RI3: Remove the first p entries from N and adjust the bounding rectangle of N
	removed := make([]RtreeLeaf[T], p)
	copy(removed, node.leaves[:p])
	node.leaves = append(node.leaves[:0], node.leaves[p:]...)
	for n := node; n != nil; n = n.parent {
		n.recomputeBound(rt.dimensions)
	}

	// RI4: far reinsert
	for _, leaf := range removed {
		rt.insert(leaf, false)
	}
}

type splitEntry[T any] struct {
	bound RtreeBoundingBox
	leaf  RtreeLeaf[T]
	child *rtreeNode[T]
}

func (rt *Rtree[T]) split(node *rtreeNode[T]) *rtreeNode[T] {
	entries := make([]splitEntry[T], 0, node.size())
	if node.isLeaf {
		for _, l := range node.leaves {
			entries = append(entries, splitEntry[T]{bound: l.Bound, leaf: l})
		}
	} else {
		for _, c := range node.children {
			entries = append(entries, splitEntry[T]{bound: c.bound, child: c})
		}
	}

	m := rt.minChildItems
	// distribution ke-k: grup pertama m+k entries, k = 0..M-2m+1
	distributionCount := len(entries) - 2*m + 1

	groupBounds := func(es []splitEntry[T], split int) (RtreeBoundingBox, RtreeBoundingBox) {
		first, second := emptyBound(rt.dimensions), emptyBound(rt.dimensions)
		for i := 0; i < split; i++ {
			first = stretch(first, es[i].bound)
		}
		for i := split; i < len(es); i++ {
			second = stretch(second, es[i].bound)
		}
		return first, second
	}
	sortBy := func(es []splitEntry[T], axis, edge int) {
		sort.SliceStable(es, func(i, j int) bool {
			return es[i].bound.Edges[axis][edge] < es[j].bound.Edges[axis][edge]
		})
	}

	// CSA1 & CSA2: choose the axis with the minimum sum of margin-values
	splitAxis := 0
	minMargin := math.Inf(1)
	for axis := 0; axis < rt.dimensions; axis++ {
		margin := 0.0
		for edge := 0; edge < 2; edge++ {
			sortBy(entries, axis, edge)
			for k := 0; k < distributionCount; k++ {
				first, second := groupBounds(entries, m+k)
				margin += edgeDeltas(first) + edgeDeltas(second)
			}
		}
		if margin < minMargin {
			minMargin, splitAxis = margin, axis
		}
	}

	// CSI1: along the chosen split axis, choose the distribution with the minimum
	// overlap-value, ties resolved by minimum area-value
	bestEdge, bestSplit := 0, m
	minOverlap, minArea := math.Inf(1), math.Inf(1)
	for edge := 0; edge < 2; edge++ {
		sortBy(entries, splitAxis, edge)
		for k := 0; k < distributionCount; k++ {
			first, second := groupBounds(entries, m+k)
			overlapVal := overlap(first, second)
			areaVal := area(first) + area(second)
			if overlapVal < minOverlap || (overlapVal == minOverlap && areaVal < minArea) {
				minOverlap, minArea = overlapVal, areaVal
				bestEdge, bestSplit = edge, m+k
			}
		}
	}
	sortBy(entries, splitAxis, bestEdge)

	// S3: distribute the entries into two groups
	newNode := &rtreeNode[T]{isLeaf: node.isLeaf}
	node.leaves, node.children = nil, nil
	for i, e := range entries {
		target := node
		if i >= bestSplit {
			target = newNode
		}
		if e.child != nil {
			e.child.parent = target
			target.children = append(target.children, e.child)
		} else {
			target.leaves = append(target.leaves, e.leaf)
		}
	}
	node.recomputeBound(rt.dimensions)
	newNode.recomputeBound(rt.dimensions)
	return newNode
}

// Search return semua leaf yang bounding box nya beririsan dengan bound.
func (rt *Rtree[T]) Search(bound RtreeBoundingBox) []RtreeLeaf[T] {
	results := []RtreeLeaf[T]{}
	if rt.root == nil {
		return results
	}
	return rt.search(rt.root, bound, results)
}

func (rt *Rtree[T]) search(node *rtreeNode[T], bound RtreeBoundingBox, results []RtreeLeaf[T]) []RtreeLeaf[T] {
	if node.isLeaf {
		// S2. [Search leaf node.] check all entries E to determine whether E.I overlaps S
		for _, l := range node.leaves {
			if overlaps(l.Bound, bound) {
				results = append(results, l)
			}
		}
		return results
	}
	// S1. [Search subtrees.] invoke Search on every child whose rectangle overlaps S
	for _, c := range node.children {
		if overlaps(c.bound, bound) {
			results = rt.search(c, bound, results)
		}
	}
	return results
}

// SearchPoint leaf yang bounding box nya memuat titik (lat, lon).
func (rt *Rtree[T]) SearchPoint(p Point) []RtreeLeaf[T] {
	return rt.Search(NewRtreeBoundingBox(2, []float64{p.Lat, p.Lon}, []float64{p.Lat, p.Lon}))
}

type Point struct {
	Lat float64
	Lon float64
}

// minDist jarak haversine (km) dari titik ke rectangle. 0 kalau titik ada di dalam rectangle.
func (p Point) minDist(r RtreeBoundingBox) float64 {
	rLat := math.Min(math.Max(p.Lat, r.Edges[0][0]), r.Edges[0][1])
	rLon := math.Min(math.Max(p.Lon, r.Edges[1][0]), r.Edges[1][1])
	return haversineDistance(p.Lat, p.Lon, rLat, rLon)
}

// Neighbor leaf beserta jaraknya (km) ke titik query.
type Neighbor[T any] struct {
	RtreeLeaf[T]
	Dist float64
}

// NearestNeighbors k leaf terdekat dari p, urut dari yang paling dekat. branch and bound pakai minDist.
func (rt *Rtree[T]) NearestNeighbors(k int, p Point) []Neighbor[T] {
	nearest := make([]Neighbor[T], 0, k)
	if rt.root == nil || k <= 0 {
		return nearest
	}
	return rt.nearestNeighbors(k, p, rt.root, nearest)
}

func insertNeighbor[T any](nearest []Neighbor[T], n Neighbor[T], k int) []Neighbor[T] {
	idx := sort.Search(len(nearest), func(i int) bool { return nearest[i].Dist > n.Dist })
	if idx >= k {
		return nearest
	}
	if len(nearest) < k {
		nearest = append(nearest, Neighbor[T]{})
	}
	copy(nearest[idx+1:], nearest[idx:len(nearest)-1])
	nearest[idx] = n
	return nearest
}

func (rt *Rtree[T]) nearestNeighbors(k int, p Point, node *rtreeNode[T], nearest []Neighbor[T]) []Neighbor[T] {
	worst := func() float64 {
		if len(nearest) < k {
			return math.Inf(1)
		}
		return nearest[len(nearest)-1].Dist
	}

	if node.isLeaf {
		for _, l := range node.leaves {
			dist := p.minDist(l.Bound)
			if dist < worst() {
				nearest = insertNeighbor(nearest, Neighbor[T]{RtreeLeaf: l, Dist: dist}, k)
			}
		}
		return nearest
	}

	// active branch list, urut berdasarkan minDist
	branches := make([]*rtreeNode[T], len(node.children))
	copy(branches, node.children)
	dists := make(map[*rtreeNode[T]]float64, len(branches))
	for _, b := range branches {
		dists[b] = p.minDist(b.bound)
	}
	sort.SliceStable(branches, func(i, j int) bool { return dists[branches[i]] < dists[branches[j]] })

	for _, b := range branches {
		// MBR dengan minDist lebih besar dari kandidat ke-k tidak mungkin memuat neighbor yang lebih dekat
		if dists[b] > worst() {
			break
		}
		nearest = rt.nearestNeighbors(k, p, b, nearest)
	}
	return nearest
}
