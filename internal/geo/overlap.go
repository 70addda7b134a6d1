package geo

import "fmt"

// IntervalsOverlap reports whether the closed intervals [a1,a2] and
// [b1,b2] intersect in more than a single point.
//
// Intervals that merely touch at one boundary do not overlap, and two
// degenerate (zero-width) intervals at the same point do not overlap.
// Both preconditions a1 <= a2 and b1 <= b2 must hold; a violation is a
// programming error and panics rather than returning a wrong answer.
func IntervalsOverlap(a1, a2, b1, b2 float64) bool {
	if a1 > a2 || b1 > b2 {
		panic(fmt.Sprintf("interval bounds out of order: [%v,%v] [%v,%v]", a1, a2, b1, b2))
	}
	if b1 < a1 {
		// b starts to the left of a, so they intersect if b finishes to
		// the right of where a starts.
		return b2 > a1
	}
	if a1 < b1 {
		// a starts to the left of b, so they intersect if a finishes to
		// the right of where b starts.
		return a2 > b1
	}
	// Same left edge: they intersect unless one of them is zero-width.
	return b2 != b1 && a2 != a1
}

// Intersects reports whether two envelopes overlap on both axes.
//
// Longitudes are compared as plain numeric ranges: an envelope crossing
// the antimeridian is not handled here. This is a known limitation of the
// envelope strategy, inherited from the index format.
func (r Rect) Intersects(o Rect) bool {
	return IntervalsOverlap(r.W, r.E, o.W, o.E) &&
		IntervalsOverlap(r.S, r.N, o.S, o.N)
}
