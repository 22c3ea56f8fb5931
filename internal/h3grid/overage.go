package h3grid

import (
	"fmt"

	"github.com/open-spatial/geocell/internal/geodesy"
)

// Overage direction indices. A coordinate that crosses a face edge leaves
// through the sector between two of the face's vertex axes.
const (
	overageDirIJ = 1
	overageDirKI = 2
	overageDirJK = 3
)

type overage int

const (
	overageNone overage = iota
	overageFaceEdge
	overageNewFace
)

// faceOrientIJK maps coordinates that overflow a face onto the adjacent
// face's grid: rotate ccwRot60 times, then add translate scaled to the
// resolution.
type faceOrientIJK struct {
	face      int
	translate CoordIJK
	ccwRot60  int
}

// faceNeighbors[f][0] is the identity; entries 1..3 are the IJ, KI and JK
// edge crossings. Derived once from the face geometry: each face's vertex
// axes land exactly on icosahedron vertices, so matching shared vertices
// between adjacent faces pins down the lattice isometry with no rounding.
var faceNeighbors = deriveFaceNeighbors()

// faceVertexCoords are the resolution-0 coordinates of a face's three
// vertices, in i, j, k axis order.
var faceVertexCoords = [3]CoordIJK{{2, 0, 0}, {0, 2, 0}, {0, 0, 2}}

// overageSectors lists, per direction, the two vertex axes bounding the
// sector and an exterior probe coordinate whose nearest face is the
// neighbor across that edge.
var overageSectors = [4]struct {
	vertA, vertB int
	probe        CoordIJK
}{
	{},
	{0, 1, CoordIJK{2, 2, 0}}, // IJ
	{2, 0, CoordIJK{2, 0, 2}}, // KI
	{1, 2, CoordIJK{0, 2, 2}}, // JK
}

func vertexPoint(face, axis int) geodesy.Vector {
	c := faceVertexCoords[axis]
	x, y := c.toHex2d()
	return geodesy.ToVector(hex2dToGeo(face, x, y, 0, false))
}

// matchVertex finds which vertex axis of a face coincides with the given
// point. Vertices of adjacent faces are the same icosahedron vertex while
// the nearest other vertex is over a radian away, so the tolerance is loose.
func matchVertex(face int, p geodesy.Vector) int {
	for axis := 0; axis < 3; axis++ {
		if vertexPoint(face, axis).DistanceSquared(p) < 1e-6 {
			return axis
		}
	}
	return -1
}

func rotateCcwN(c CoordIJK, n int) CoordIJK {
	for i := 0; i < n; i++ {
		c = c.rotate60ccw()
	}
	return c
}

func deriveFaceNeighbors() [numIcosaFaces][4]faceOrientIJK {
	var faceNeighbors [numIcosaFaces][4]faceOrientIJK
	for f := 0; f < numIcosaFaces; f++ {
		faceNeighbors[f][0] = faceOrientIJK{face: f}
		for dir := 1; dir <= 3; dir++ {
			sec := overageSectors[dir]

			x, y := sec.probe.toHex2d()
			g, _ := closestFace(geodesy.ToVector(hex2dToGeo(f, x, y, 0, false)))
			if g == f {
				panic(fmt.Sprintf("h3grid: face %d dir %d probe stayed on face", f, dir))
			}

			wa := matchVertex(g, vertexPoint(f, sec.vertA))
			wb := matchVertex(g, vertexPoint(f, sec.vertB))
			if wa < 0 || wb < 0 || wa == wb {
				panic(fmt.Sprintf("h3grid: faces %d and %d share no edge", f, g))
			}

			va, vb := faceVertexCoords[sec.vertA], faceVertexCoords[sec.vertB]
			ta, tb := faceVertexCoords[wa], faceVertexCoords[wb]
			found := false
			for n := 0; n < 6 && !found; n++ {
				trans := ta.sub(rotateCcwN(va, n)).normalize()
				if rotateCcwN(vb, n).add(trans).normalize() == tb.normalize() {
					faceNeighbors[f][dir] = faceOrientIJK{face: g, translate: trans, ccwRot60: n}
					found = true
				}
			}
			if !found {
				panic(fmt.Sprintf("h3grid: no lattice isometry for faces %d -> %d", f, g))
			}
		}
	}
	return faceNeighbors
}

// maxDimCII is the maximum coordinate sum still on a face at a Class II
// resolution; unitScaleCII is the per-resolution scale of the res-0 lattice.
func maxDimCII(res int) int { return 2 * unitScaleCII(res) }

func unitScaleCII(res int) int {
	s := 1
	for i := 0; i < res; i += 2 {
		s *= 7
	}
	return s
}

// adjustOverage relocates a Class II coordinate that has spilled past its
// face's edge onto the adjacent face. pentLeading4 marks coordinates in the
// sub-sequence a pentagon deletes, which must rotate around the pentagon
// before crossing. With substrate set the coordinate is on the 3x finer
// vertex grid used for cell boundaries.
func adjustOverage(f *FaceIJK, res int, pentLeading4, substrate bool) overage {
	maxDim := maxDimCII(res)
	if substrate {
		maxDim *= 3
	}
	sum := f.Coord.I + f.Coord.J + f.Coord.K
	if substrate && sum == maxDim {
		return overageFaceEdge
	}
	if sum <= maxDim {
		return overageNone
	}

	var orient faceOrientIJK
	switch {
	case f.Coord.K > 0 && f.Coord.J > 0:
		orient = faceNeighbors[f.Face][overageDirJK]
	case f.Coord.K > 0:
		if pentLeading4 {
			// Rotate out of the deleted k-axes sub-sequence around the
			// pentagon vertex before crossing the edge.
			origin := CoordIJK{I: maxDim}
			f.Coord = f.Coord.sub(origin).rotate60cw().add(origin)
		}
		orient = faceNeighbors[f.Face][overageDirKI]
	default:
		orient = faceNeighbors[f.Face][overageDirIJ]
	}

	f.Face = orient.face
	f.Coord = rotateCcwN(f.Coord, orient.ccwRot60)
	scale := unitScaleCII(res)
	if substrate {
		scale *= 3
	}
	f.Coord = f.Coord.add(orient.translate.scale(scale)).normalize()

	if substrate && f.Coord.I+f.Coord.J+f.Coord.K == maxDim {
		return overageFaceEdge
	}
	return overageNewFace
}
