// Package cover turns a query rectangle into the set of spatial-cell
// terms used to probe the cell index. Cells come from a hierarchical
// quad-tree decomposition of the sphere; the covering is always a
// superset of the rectangle, so over-approximation can only ever include
// extra objects, never drop matching ones.
package cover

import (
	"sort"
	"strings"

	"github.com/golang/geo/s2"

	"github.com/terravc/terravc/internal/geo"
)

// AncestorMarker prefixes terms that stand for an ancestor cell of a
// covering cell. The marker must be stripped before a term is used as a
// plain index key.
const AncestorMarker = "$"

// Options bounds the size and granularity of a covering.
type Options struct {
	// MaxCells is the cell budget per covering. The coverer merges
	// sibling cells into their parent to stay within it, trading
	// precision for query cost.
	MaxCells int

	// MaxLevel caps the decomposition depth, limiting cell granularity.
	MaxLevel int
}

// Covering computes the covering cell set for the rectangle. Sibling
// cells are normalized into their parent whenever all four are present,
// and the result never exceeds the cell budget.
func Covering(r geo.Rect, o Options) s2.CellUnion {
	rc := &s2.RegionCoverer{
		MaxLevel: o.MaxLevel,
		MaxCells: o.MaxCells,
		LevelMod: 1,
	}
	return rc.Covering(s2RectFromRect(r))
}

// QueryTerms returns the deduplicated, sorted set of index-probe terms
// for the rectangle: the token of every covering cell, plus the
// marker-prefixed token of every ancestor of every covering cell. The
// ancestor terms match objects that were indexed at a coarser level than
// the covering reaches.
func QueryTerms(r geo.Rect, o Options) []string {
	covering := Covering(r, o)

	seen := make(map[string]struct{})
	for _, ci := range covering {
		seen[ci.ToToken()] = struct{}{}
		for level := 0; level < ci.Level(); level++ {
			seen[AncestorMarker+ci.Parent(level).ToToken()] = struct{}{}
		}
	}

	terms := make([]string, 0, len(seen))
	for t := range seen {
		terms = append(terms, t)
	}
	sort.Strings(terms)
	return terms
}

// StripMarker removes the leading ancestor marker, if present, so the
// term can be used as a plain cell token.
func StripMarker(term string) string {
	return strings.TrimPrefix(term, AncestorMarker)
}

// s2RectFromRect builds the minimal spherical rectangle containing both
// corner points, the same point-pair construction index builders use.
// A west bound greater than the east bound yields a rectangle crossing
// the antimeridian.
func s2RectFromRect(r geo.Rect) s2.Rect {
	sw := s2.LatLngFromDegrees(r.S, r.W)
	ne := s2.LatLngFromDegrees(r.N, r.E)
	return s2.RectFromLatLng(sw.Normalized()).AddPoint(ne.Normalized())
}
