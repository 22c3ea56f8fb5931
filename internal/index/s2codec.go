package index

import (
	"fmt"
	"math"

	"github.com/open-spatial/geocell/internal/cover"
	"github.com/open-spatial/geocell/internal/geodesy"
	"github.com/open-spatial/geocell/internal/model"
	"github.com/open-spatial/geocell/internal/s2grid"
)

type s2Codec struct{}

func (s2Codec) Scheme() string    { return "s2" }
func (s2Codec) MaxPrecision() int { return s2grid.MaxLevel }

func s2Cell(ci s2grid.CellID) Cell {
	return Cell{
		Scheme:    "s2",
		Token:     ci.Token(),
		Precision: ci.Level(),
		Center:    ci.Center(),
		Bounds:    ci.Bounds(),
	}
}

func (s2Codec) Encode(ll geodesy.LatLng, precision int) (Cell, error) {
	ci, err := s2grid.FromLatLng(ll, precision)
	if err != nil {
		return Cell{}, err
	}
	return s2Cell(ci), nil
}

func (s2Codec) Decode(token string) (Cell, error) {
	ci, err := s2grid.FromToken(token)
	if err != nil {
		return Cell{}, err
	}
	return s2Cell(ci), nil
}

func (s2Codec) Parent(token string, precision int) (Cell, error) {
	ci, err := s2grid.FromToken(token)
	if err != nil {
		return Cell{}, err
	}
	if precision < 0 || precision > ci.Level() {
		return Cell{}, fmt.Errorf("%w: %d not an ancestor level of %d", s2grid.ErrInvalidLevel, precision, ci.Level())
	}
	return s2Cell(ci.Parent(precision)), nil
}

func (s2Codec) Children(token string) ([]Cell, error) {
	ci, err := s2grid.FromToken(token)
	if err != nil {
		return nil, err
	}
	if ci.IsLeaf() {
		return nil, fmt.Errorf("%w: leaf cells have no children", s2grid.ErrInvalidLevel)
	}
	kids := ci.Children()
	out := make([]Cell, len(kids))
	for i, k := range kids {
		out[i] = s2Cell(k)
	}
	return out, nil
}

func (s2Codec) Neighbors(token string) ([]Cell, error) {
	ci, err := s2grid.FromToken(token)
	if err != nil {
		return nil, err
	}
	ns := ci.Neighbors()
	out := make([]Cell, len(ns))
	for i, n := range ns {
		out[i] = s2Cell(n)
	}
	return out, nil
}

func (c s2Codec) CellsForBBox(box model.BBox, precision int, opts cover.Options) (cover.Covering, error) {
	return cover.BoundingBox(s2CoverGrid{}, box, precision, opts)
}

// s2CoverGrid adapts the quadtree to the covering sampler. The width bound
// follows the minimum cell width metric: roughly 45 degrees at level 0,
// halving per level, with slack for the quadratic warp.
type s2CoverGrid struct{}

func (s2CoverGrid) MaxPrecision() int { return s2grid.MaxLevel }

func (s2CoverGrid) CellWidthDeg(precision int) float64 {
	return 40 / math.Pow(2, float64(precision))
}

func (s2CoverGrid) Token(ll geodesy.LatLng, precision int) (string, error) {
	ci, err := s2grid.FromLatLng(ll, precision)
	if err != nil {
		return "", err
	}
	return ci.Token(), nil
}
