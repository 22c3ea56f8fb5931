package h3grid

import (
	"fmt"

	"github.com/open-spatial/geocell/internal/geodesy"
)

// Parent returns the ancestor of the cell at a coarser resolution: same
// digit path truncated, remaining slots blanked.
func (h Index) Parent(res int) (Index, error) {
	cur := h.Resolution()
	if res < 0 || res > cur {
		return 0, fmt.Errorf("%w: %d not an ancestor resolution of %d", ErrInvalidResolution, res, cur)
	}
	p := (h &^ (0xF << resOffset)) | Index(res)<<resOffset
	for r := res + 1; r <= cur; r++ {
		p = p.setDigit(r, DigitInvalid)
	}
	return p, nil
}

// Children returns the cells one resolution finer, in digit order. Hexagons
// have seven children; pentagons skip the k-axis digit and have six.
func (h Index) Children() ([]Index, error) {
	res := h.Resolution()
	if res >= MaxResolution {
		return nil, fmt.Errorf("%w: no children below resolution %d", ErrInvalidResolution, MaxResolution)
	}
	childRes := res + 1
	base := (h &^ (0xF << resOffset)) | Index(childRes)<<resOffset
	pent := h.IsPentagon()
	out := make([]Index, 0, numDigits)
	for d := DigitCenter; d < DigitInvalid; d++ {
		if pent && d == DigitK {
			continue
		}
		out = append(out, base.setDigit(childRes, d))
	}
	return out, nil
}

// Neighbors returns the cells sharing an edge with h, in no particular
// order: six for hexagons, five for pentagons. Neighbors are found by
// stepping the cell's face coordinate one hex in each direction and folding
// any face overage back onto the grid, so the relation is symmetric by
// construction.
func (h Index) Neighbors() ([]Index, error) {
	if !h.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrMalformedIndex, h.Token())
	}
	if h.IsPentagon() {
		return h.pentagonNeighbors()
	}
	res := h.Resolution()
	origin := h.toFaceIJK()

	out := make([]Index, 0, 6)
	seen := map[Index]bool{h: true}
	for d := DigitK; d < DigitInvalid; d++ {
		f := FaceIJK{Face: origin.Face, Coord: origin.Coord.neighbor(d)}

		workRes := res
		if isClassIII(res) {
			f.Coord = f.Coord.downAp7r()
			workRes++
		}
		for adjustOverage(&f, workRes, false, false) == overageNewFace {
		}
		if workRes != res {
			f.Coord = f.Coord.upAp7r()
		}

		n, err := faceIJKToIndex(f, res)
		if err != nil {
			return nil, fmt.Errorf("neighbor %s toward digit %d: %w", h.Token(), d, err)
		}
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out, nil
}

// pentagonNeighbors crosses each of the pentagon's five edges explicitly.
// Unit lattice steps are ambiguous next to the deleted sub-sequence, so
// instead a point just past each edge midpoint is re-encoded.
func (h Index) pentagonNeighbors() ([]Index, error) {
	res := h.Resolution()
	verts := h.vertices()
	center := geodesy.ToVector(h.Center())

	out := make([]Index, 0, 5)
	seen := map[Index]bool{h: true}
	for i := range verts {
		va := geodesy.ToVector(verts[i])
		vb := geodesy.ToVector(verts[(i+1)%len(verts)])
		mid := va.Add(vb).Normalize()
		probe := mid.Add(mid.Sub(center).Scale(0.2)).Normalize()

		n, err := FromLatLng(geodesy.ToLatLng(probe), res)
		if err != nil {
			return nil, fmt.Errorf("pentagon neighbor of %s across edge %d: %w", h.Token(), i, err)
		}
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out, nil
}
