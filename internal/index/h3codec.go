package index

import (
	"math"

	"github.com/open-spatial/geocell/internal/cover"
	"github.com/open-spatial/geocell/internal/geodesy"
	"github.com/open-spatial/geocell/internal/h3grid"
	"github.com/open-spatial/geocell/internal/model"
)

type h3Codec struct{}

func (h3Codec) Scheme() string    { return "h3" }
func (h3Codec) MaxPrecision() int { return h3grid.MaxResolution }

func h3Cell(h h3grid.Index) Cell {
	return Cell{
		Scheme:    "h3",
		Token:     h.Token(),
		Precision: h.Resolution(),
		Center:    h.Center(),
		Bounds:    h.Bounds(),
		Pentagon:  h.IsPentagon(),
	}
}

func (h3Codec) Encode(ll geodesy.LatLng, precision int) (Cell, error) {
	h, err := h3grid.FromLatLng(ll, precision)
	if err != nil {
		return Cell{}, err
	}
	return h3Cell(h), nil
}

func (h3Codec) Decode(token string) (Cell, error) {
	h, err := h3grid.FromToken(token)
	if err != nil {
		return Cell{}, err
	}
	return h3Cell(h), nil
}

func (h3Codec) Parent(token string, precision int) (Cell, error) {
	h, err := h3grid.FromToken(token)
	if err != nil {
		return Cell{}, err
	}
	p, err := h.Parent(precision)
	if err != nil {
		return Cell{}, err
	}
	return h3Cell(p), nil
}

func (h3Codec) Children(token string) ([]Cell, error) {
	h, err := h3grid.FromToken(token)
	if err != nil {
		return nil, err
	}
	kids, err := h.Children()
	if err != nil {
		return nil, err
	}
	out := make([]Cell, len(kids))
	for i, k := range kids {
		out[i] = h3Cell(k)
	}
	return out, nil
}

func (h3Codec) Neighbors(token string) ([]Cell, error) {
	h, err := h3grid.FromToken(token)
	if err != nil {
		return nil, err
	}
	ns, err := h.Neighbors()
	if err != nil {
		return nil, err
	}
	out := make([]Cell, len(ns))
	for i, n := range ns {
		out[i] = h3Cell(n)
	}
	return out, nil
}

func (h3Codec) CellsForBBox(box model.BBox, precision int, opts cover.Options) (cover.Covering, error) {
	return cover.BoundingBox(h3CoverGrid{}, box, precision, opts)
}

// h3CoverGrid adapts the hex grid to the covering sampler. The width bound
// is the hex in-diameter at resolution 0 with pentagon-distortion slack,
// shrinking by sqrt(7) per resolution.
type h3CoverGrid struct{}

func (h3CoverGrid) MaxPrecision() int { return h3grid.MaxResolution }

func (h3CoverGrid) CellWidthDeg(precision int) float64 {
	return 10 / math.Pow(7, float64(precision)/2)
}

func (h3CoverGrid) Token(ll geodesy.LatLng, precision int) (string, error) {
	h, err := h3grid.FromLatLng(ll, precision)
	if err != nil {
		return "", err
	}
	return h.Token(), nil
}
