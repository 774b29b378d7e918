package grouping

import "slices"

type kdPoint struct {
	coord [2]float64 // mass, retention index
	ord   int        // position in the precursor index
}

// kdTree is a static 2-d tree stored implicitly: the median of every
// sub-range is its root, lower coordinates to the left.
type kdTree struct {
	pts []kdPoint
}

func newKDTree(pts []kdPoint) *kdTree {
	t := &kdTree{pts: pts}
	t.build(0, len(pts), 0)
	return t
}

func (t *kdTree) build(lo, hi, axis int) {
	if hi-lo <= 1 {
		return
	}
	sub := t.pts[lo:hi]
	slices.SortFunc(sub, func(a, b kdPoint) int {
		switch {
		case a.coord[axis] < b.coord[axis]:
			return -1
		case a.coord[axis] > b.coord[axis]:
			return 1
		}
		return 0
	})
	mid := (lo + hi) / 2
	t.build(lo, mid, 1-axis)
	t.build(mid+1, hi, 1-axis)
}

// inRadius calls fn with the ord of every point within Euclidean distance r
// of c.
func (t *kdTree) inRadius(c [2]float64, r float64, fn func(ord int)) {
	t.search(0, len(t.pts), 0, c, r, r*r, fn)
}

func (t *kdTree) search(lo, hi, axis int, c [2]float64, r, r2 float64, fn func(ord int)) {
	if lo >= hi {
		return
	}
	mid := (lo + hi) / 2
	p := t.pts[mid]

	dx := p.coord[0] - c[0]
	dy := p.coord[1] - c[1]
	if dx*dx+dy*dy <= r2 {
		fn(p.ord)
	}

	d := c[axis] - p.coord[axis]
	if d <= r {
		t.search(lo, mid, 1-axis, c, r, r2, fn)
	}
	if d >= -r {
		t.search(mid+1, hi, 1-axis, c, r, r2, fn)
	}
}
