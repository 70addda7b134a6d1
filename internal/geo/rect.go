// Package geo provides the query-rectangle type and the exact
// interval-overlap tests used by the spatial filter.
package geo

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/terravc/terravc/internal/errors"
)

// Rect is a geodetic query rectangle in degrees, bounded by a west and an
// east longitude and a south and a north latitude. The coordinate order of
// the textual form is fixed: west,south,east,north.
//
// South <= north always holds. West <= east is NOT required: a rectangle
// with west > east represents a region crossing the antimeridian.
// A Rect is immutable once constructed.
type Rect struct {
	W float64
	S float64
	E float64
	N float64
}

// ParseRect parses a bounds string of exactly four comma- or
// whitespace-separated floating-point numbers in west,south,east,north
// order. Any other shape, a coordinate outside its geodetic range, or
// south > north is a configuration error.
func ParseRect(s string) (Rect, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
	if len(fields) != 4 {
		return Rect{}, errors.NewConfigError(errors.CodeInvalidBounds,
			"invalid bounds, expected '<lng_w>,<lat_s>,<lng_e>,<lat_n>', got "+strconv.Itoa(len(fields))+" values")
	}

	vals := make([]float64, 4)
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return Rect{}, errors.NewConfigError(errors.CodeInvalidBounds,
				"invalid bounds, "+strconv.Quote(f)+" is not a number")
		}
		vals[i] = v
	}

	r := Rect{W: vals[0], S: vals[1], E: vals[2], N: vals[3]}
	if err := r.Validate(); err != nil {
		return Rect{}, err
	}
	return r, nil
}

// Validate checks the geodetic ranges of every bound and the south/north
// ordering.
func (r Rect) Validate() error {
	if r.S < -90 || r.S > 90 || r.N < -90 || r.N > 90 {
		return errors.NewConfigError(errors.CodeInvalidBounds,
			"invalid bounds, latitude outside [-90,90]")
	}
	if r.W < -180 || r.W > 180 || r.E < -180 || r.E > 180 {
		return errors.NewConfigError(errors.CodeInvalidBounds,
			"invalid bounds, longitude outside [-180,180]")
	}
	if r.S > r.N {
		return errors.NewConfigError(errors.CodeInvalidBounds,
			"invalid bounds, south latitude greater than north")
	}
	return nil
}

// CrossesAntimeridian reports whether the rectangle wraps around the
// 180th meridian.
func (r Rect) CrossesAntimeridian() bool {
	return r.W > r.E
}

// String formats the rectangle canonically so that ParseRect(r.String())
// reproduces r exactly.
func (r Rect) String() string {
	parts := [4]float64{r.W, r.S, r.E, r.N}
	out := make([]string, 4)
	for i, v := range parts {
		out[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(out, ",")
}
