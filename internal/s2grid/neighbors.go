package s2grid

import "math"

// Neighbor computation offsets I/J at the cell's level. When an offset
// crosses the face edge the coordinates are re-projected through 3D onto the
// adjacent face; clamping at the edge would return wrong cells, so the wrap
// path is the correctness-critical one.

// cellIDFromFaceIJWrap encodes coordinates that may lie just outside the
// face. The unprojection uses the linear ST span centered at 0 rather than
// the quadratic warp: for edge wrapping only the face assignment and the
// relative position matter, and the linear map keeps the inverse exact at
// the boundary.
func cellIDFromFaceIJWrap(f, i, j int) CellID {
	i = clampInt(i, -1, maxSize)
	j = clampInt(j, -1, maxSize)

	const scale = 1.0 / maxSize
	limit := math.Nextafter(1, 2)
	u := math.Max(-limit, math.Min(limit, scale*float64((i<<1)+1-maxSize)))
	v := math.Max(-limit, math.Min(limit, scale*float64((j<<1)+1-maxSize)))

	f, u, v = xyzToFaceUV(faceUVToXYZ(f, u, v))
	return cellIDFromFaceIJ(f, stToIJ(0.5*(u+1)), stToIJ(0.5*(v+1)))
}

// cellIDFromFaceIJSame encodes on the same face when the coordinates are in
// range, wrapping onto the adjacent face otherwise.
func cellIDFromFaceIJSame(f, i, j int, sameFace bool) CellID {
	if sameFace {
		return cellIDFromFaceIJ(f, i, j)
	}
	return cellIDFromFaceIJWrap(f, i, j)
}

// Neighbors returns the distinct cells surrounding this cell at the same
// level: north, south, east, west and the four diagonals, with face
// transitions applied wherever an offset leaves the face. Cells touching a
// cube corner have seven neighbors (the diagonal across the corner does not
// exist); all others have eight.
func (ci CellID) Neighbors() []CellID {
	level := ci.Level()
	out := make([]CellID, 0, 8)
	face, i, j, _ := ci.faceIJOrientation()

	size := sizeIJ(level)
	i &= -size
	j &= -size

	for k := -size; ; k += size {
		var sameFace bool
		switch {
		case k < 0:
			sameFace = j+k >= 0
		case k >= size:
			sameFace = j+k < maxSize
		default:
			sameFace = true
			// North and south neighbors.
			out = append(out,
				cellIDFromFaceIJSame(face, i+k, j-size, j-size >= 0).Parent(level),
				cellIDFromFaceIJSame(face, i+k, j+size, j+size < maxSize).Parent(level))
		}
		// East, west and diagonal neighbors.
		out = append(out,
			cellIDFromFaceIJSame(face, i-size, j+k, sameFace && i-size >= 0).Parent(level),
			cellIDFromFaceIJSame(face, i+size, j+k, sameFace && i+size < maxSize).Parent(level))
		if k >= size {
			break
		}
	}
	return dedupeCells(out)
}

func dedupeCells(cells []CellID) []CellID {
	out := cells[:0]
	for _, c := range cells {
		dup := false
		for _, prev := range out {
			if prev == c {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, c)
		}
	}
	return out
}
