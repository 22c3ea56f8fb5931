// Package cover computes sortable cell-token coverings of bounding boxes.
//
// A bounding box is not contiguous in either cell ordering, so the covering
// is an over-approximation: an ordered token list plus its min/max pair.
// Consumers can use the pair for BETWEEN-style range scans and the list for
// IN-style lookups; both include every cell that intersects the box.
package cover

import (
	"errors"
	"fmt"
	"sort"

	"github.com/open-spatial/geocell/internal/geodesy"
	"github.com/open-spatial/geocell/internal/model"
)

var ErrInvalidBox = errors.New("cover: invalid bounding box")

// Grid is the minimal scheme surface a covering needs. Token encodes a
// point, CellWidthDeg lower-bounds the smallest dimension in degrees of any
// cell at a precision, and MaxPrecision caps the precision range.
type Grid interface {
	Token(ll geodesy.LatLng, precision int) (string, error)
	CellWidthDeg(precision int) float64
	MaxPrecision() int
}

// Covering is the result of covering a box. Tokens are sorted and distinct;
// Min and Max delimit them. Precision is the resolution actually used: when
// the cell cap forces coarsening it is lower than requested and Degraded is
// set. Degraded with Precision 0 means even the coarsest grid exceeded the
// cap and the list is complete anyway.
type Covering struct {
	Tokens    []string
	Min       string
	Max       string
	Precision int
	Degraded  bool
}

// Options tune the covering. MaxCells caps the number of distinct cells
// before precision degrades; zero means DefaultMaxCells.
type Options struct {
	MaxCells int
}

const DefaultMaxCells = 256

// BoundingBox covers box at the requested precision. Exceeding the cell cap
// coarsens the precision one step at a time rather than failing, which the
// caller observes through the Degraded flag.
func BoundingBox(g Grid, box model.BBox, precision int, opts Options) (Covering, error) {
	if precision < 0 || precision > g.MaxPrecision() {
		return Covering{}, fmt.Errorf("cover: precision %d out of range [0,%d]", precision, g.MaxPrecision())
	}
	if err := checkBox(box); err != nil {
		return Covering{}, err
	}
	maxCells := opts.MaxCells
	if maxCells <= 0 {
		maxCells = DefaultMaxCells
	}

	eff := precision
	degraded := false
	for {
		tokens, overflow, err := sample(g, box, eff, maxCells)
		if err != nil {
			return Covering{}, err
		}
		if overflow {
			degraded = true
			if eff > 0 {
				eff--
				continue
			}
			// Nothing coarser exists; deliver the complete level-0 list.
			tokens, _, err = sample(g, box, 0, int(^uint(0)>>1))
			if err != nil {
				return Covering{}, err
			}
		}
		sort.Strings(tokens)
		return Covering{
			Tokens:    tokens,
			Min:       tokens[0],
			Max:       tokens[len(tokens)-1],
			Precision: eff,
			Degraded:  degraded,
		}, nil
	}
}

func checkBox(b model.BBox) error {
	if b.South > b.North || b.South < -90 || b.North > 90 ||
		b.West < -180 || b.West > 180 || b.East < -180 || b.East > 180 {
		return fmt.Errorf("%w: %v", ErrInvalidBox, b)
	}
	return nil
}

// sample walks a grid of probe points over the box, expanded by one cell
// width on each side so cells that only clip the box edge still receive a
// probe. The half-width step guarantees every intersecting cell contains at
// least one probe.
func sample(g Grid, box model.BBox, precision, maxCells int) (tokens []string, overflow bool, err error) {
	width := g.CellWidthDeg(precision)
	step := width / 2
	seen := make(map[string]bool)

	for _, part := range box.Split() {
		latLo := clamp(part.South-width, -90, 90)
		latHi := clamp(part.North+width, -90, 90)
		lngLo := part.West - width
		lngHi := part.East + width

		for lat := latLo; lat <= latHi+1e-12; lat += step {
			for lng := lngLo; lng <= lngHi+1e-12; lng += step {
				tok, err := g.Token(geodesy.LatLng{Lat: clamp(lat, -90, 90), Lng: wrapLng(lng)}, precision)
				if err != nil {
					return nil, false, fmt.Errorf("cover sample (%f, %f): %w", lat, lng, err)
				}
				if !seen[tok] {
					if len(seen) >= maxCells {
						return nil, true, nil
					}
					seen[tok] = true
					tokens = append(tokens, tok)
				}
			}
		}
	}
	return tokens, false, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func wrapLng(lng float64) float64 {
	for lng > 180 {
		lng -= 360
	}
	for lng < -180 {
		lng += 360
	}
	return lng
}
