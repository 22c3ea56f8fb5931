// Package s2grid implements a quadtree-on-cube-faces cell indexing scheme:
// the sphere is projected onto six cube faces and cells within each face are
// ordered along a Hilbert curve, packed into a sortable 64-bit identifier.
package s2grid

import (
	"math"

	"github.com/open-spatial/geocell/internal/geodesy"
)

const (
	// MaxLevel is the finest subdivision level. A leaf cell is roughly a
	// centimeter across at the equator.
	MaxLevel = 30

	faceBits = 3
	numFaces = 6
	posBits  = 2*MaxLevel + 1
	maxSize  = 1 << MaxLevel
)

// xyzToFaceUV projects a unit vector onto the cube face whose axis has the
// largest absolute component, returning face index and (u, v) in [-1, 1].
func xyzToFaceUV(v geodesy.Vector) (face int, u, v2 float64) {
	face = largestAbsComponent(v)
	switch face {
	case 0:
		if v.X < 0 {
			face = 3
		}
	case 1:
		if v.Y < 0 {
			face = 4
		}
	case 2:
		if v.Z < 0 {
			face = 5
		}
	}
	u, v2 = validFaceXYZToUV(face, v)
	return face, u, v2
}

func largestAbsComponent(v geodesy.Vector) int {
	ax, ay, az := math.Abs(v.X), math.Abs(v.Y), math.Abs(v.Z)
	if ax > ay {
		if ax > az {
			return 0
		}
		return 2
	}
	if ay > az {
		return 1
	}
	return 2
}

// validFaceXYZToUV divides out the face axis component. The vector must
// already lie on the given face's side of the cube.
func validFaceXYZToUV(face int, v geodesy.Vector) (u, v2 float64) {
	switch face {
	case 0:
		return v.Y / v.X, v.Z / v.X
	case 1:
		return -v.X / v.Y, v.Z / v.Y
	case 2:
		return -v.X / v.Z, -v.Y / v.Z
	case 3:
		return v.Z / v.X, v.Y / v.X
	case 4:
		return v.Z / v.Y, -v.X / v.Y
	default:
		return -v.Y / v.Z, -v.X / v.Z
	}
}

// faceUVToXYZ reconstructs the (unnormalized) 3D point for face-local (u, v).
func faceUVToXYZ(face int, u, v float64) geodesy.Vector {
	switch face {
	case 0:
		return geodesy.Vector{X: 1, Y: u, Z: v}
	case 1:
		return geodesy.Vector{X: -u, Y: 1, Z: v}
	case 2:
		return geodesy.Vector{X: -u, Y: -v, Z: 1}
	case 3:
		return geodesy.Vector{X: -1, Y: -v, Z: -u}
	case 4:
		return geodesy.Vector{X: v, Y: -1, Z: -u}
	default:
		return geodesy.Vector{X: v, Y: u, Z: -1}
	}
}

// stToUV applies the quadratic warp that makes cell area roughly uniform
// across a face. A linear rescale here would silently skew every decoded
// center; see the round-trip tests for the reference vectors.
func stToUV(s float64) float64 {
	if s >= 0.5 {
		return (1 / 3.0) * (4*s*s - 1)
	}
	return (1 / 3.0) * (1 - 4*(1-s)*(1-s))
}

// uvToST inverts stToUV.
func uvToST(u float64) float64 {
	if u >= 0 {
		return 0.5 * math.Sqrt(1+3*u)
	}
	return 1 - 0.5*math.Sqrt(1-3*u)
}

// stToIJ quantizes s in [0, 1] onto the leaf grid using floor semantics.
func stToIJ(s float64) int {
	return clampInt(int(math.Floor(maxSize*s)), 0, maxSize-1)
}

// ijToSTMin returns the s/t coordinate of the low edge of leaf column i.
func ijToSTMin(i int) float64 {
	return float64(i) / maxSize
}

// siTiToST converts half-leaf coordinates (0..2*maxSize) to s/t.
func siTiToST(si uint64) float64 {
	return float64(si) / (2 * maxSize)
}

func sizeIJ(level int) int {
	return 1 << uint(MaxLevel-level)
}

func clampInt(x, lo, hi int) int {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
