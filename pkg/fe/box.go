package fe

import (
	"math"
	"sort"
)

// Box is an axis-aligned rectangle; dimension 0 is the time axis (retention
// time or scan number), dimension 1 is m/z. Bounds are inclusive.
type Box struct {
	Lo, Hi [2]float64
}

// Intersects reports whether b and o overlap.
func (b Box) Intersects(o Box) bool {
	for d := 0; d < 2; d++ {
		if b.Hi[d] < o.Lo[d] || o.Hi[d] < b.Lo[d] {
			return false
		}
	}
	return true
}

// boxIndex answers intersection queries against a fixed set of boxes with a
// sweep over dimension 0.
type boxIndex struct {
	boxes    []Box
	order    []int
	maxWidth float64
}

func newBoxIndex(boxes []Box) *boxIndex {
	idx := &boxIndex{boxes: boxes, order: make([]int, len(boxes))}
	for i, b := range boxes {
		idx.order[i] = i
		if w := b.Hi[0] - b.Lo[0]; w > idx.maxWidth {
			idx.maxWidth = w
		}
	}
	sort.Slice(idx.order, func(i, j int) bool {
		return boxes[idx.order[i]].Lo[0] < boxes[idx.order[j]].Lo[0]
	})
	return idx
}

// query calls fn with the index of every box intersecting q, in ascending
// order of the boxes' lower time bound.
func (idx *boxIndex) query(q Box, fn func(i int)) {
	from := q.Lo[0] - idx.maxWidth
	start := sort.Search(len(idx.order), func(k int) bool {
		return idx.boxes[idx.order[k]].Lo[0] >= from
	})
	for k := start; k < len(idx.order); k++ {
		b := idx.boxes[idx.order[k]]
		if b.Lo[0] > q.Hi[0] {
			break
		}
		if b.Intersects(q) {
			fn(idx.order[k])
		}
	}
}

// intersectSelf returns the adjacency lists of all pairwise intersecting
// boxes. Every box is adjacent to itself.
func intersectSelf(boxes []Box) [][]int {
	idx := newBoxIndex(boxes)
	adj := make([][]int, len(boxes))
	for i, b := range boxes {
		idx.query(b, func(j int) { adj[i] = append(adj[i], j) })
	}
	return adj
}

// pointBox is a degenerate box at (t, mz).
func pointBox(t, mz float64) Box {
	return Box{Lo: [2]float64{t, mz}, Hi: [2]float64{t, mz}}
}

func finiteBox(b Box) bool {
	for d := 0; d < 2; d++ {
		if math.IsNaN(b.Lo[d]) || math.IsNaN(b.Hi[d]) || b.Lo[d] > b.Hi[d] {
			return false
		}
	}
	return true
}
