// Package h3grid implements a hexagonal aperture-7 cell indexing scheme on
// the 20 faces of an icosahedron: 122 base cells (12 pentagons) subdivided
// into 7 children per level, addressed by a digit path packed into a 64-bit
// index rendered as hex.
package h3grid

import "math"

// Direction selects one of the seven aperture-7 sub-cells: the center or one
// of the six IJK axis neighbors.
type Direction int

const (
	DigitCenter Direction = 0
	DigitK      Direction = 1
	DigitJ      Direction = 2
	DigitJK     Direction = 3
	DigitI      Direction = 4
	DigitIK     Direction = 5
	DigitIJ     Direction = 6

	// DigitInvalid marks unused digit slots in a packed index.
	DigitInvalid Direction = 7

	numDigits = 7
)

// CoordIJK is a hex grid coordinate on three axes 120 degrees apart,
// kept in normalized form: all components non-negative with at least one
// zero. Because {1,1,1} is the null displacement, every hex has a unique
// normalized representation.
type CoordIJK struct {
	I, J, K int
}

// unitVecs[d] is the normalized displacement for direction d.
var unitVecs = [numDigits]CoordIJK{
	{0, 0, 0}, // center
	{0, 0, 1}, // k
	{0, 1, 0}, // j
	{0, 1, 1}, // jk
	{1, 0, 0}, // i
	{1, 0, 1}, // ik
	{1, 1, 0}, // ij
}

const sin60 = 0.8660254037844386467637231707529361 // sqrt(3)/2

func (c CoordIJK) add(o CoordIJK) CoordIJK {
	return CoordIJK{c.I + o.I, c.J + o.J, c.K + o.K}
}

func (c CoordIJK) sub(o CoordIJK) CoordIJK {
	return CoordIJK{c.I - o.I, c.J - o.J, c.K - o.K}
}

func (c CoordIJK) scale(f int) CoordIJK {
	return CoordIJK{c.I * f, c.J * f, c.K * f}
}

// normalize reduces the coordinate to its canonical form.
func (c CoordIJK) normalize() CoordIJK {
	if c.I < 0 {
		c.J -= c.I
		c.K -= c.I
		c.I = 0
	}
	if c.J < 0 {
		c.I -= c.J
		c.K -= c.J
		c.J = 0
	}
	if c.K < 0 {
		c.I -= c.K
		c.J -= c.K
		c.K = 0
	}
	min := c.I
	if c.J < min {
		min = c.J
	}
	if c.K < min {
		min = c.K
	}
	if min > 0 {
		c.I -= min
		c.J -= min
		c.K -= min
	}
	return c
}

// neighbor moves one hex in the given direction.
func (c CoordIJK) neighbor(d Direction) CoordIJK {
	if d <= DigitCenter || d >= DigitInvalid {
		return c
	}
	return c.add(unitVecs[d]).normalize()
}

// unitToDigit classifies a normalized unit displacement as a direction.
func unitToDigit(c CoordIJK) Direction {
	c = c.normalize()
	for d, u := range unitVecs {
		if c == u {
			return Direction(d)
		}
	}
	return DigitInvalid
}

// toHex2d projects the coordinate onto the face plane, x along the i-axis.
func (c CoordIJK) toHex2d() (x, y float64) {
	i := float64(c.I - c.K)
	j := float64(c.J - c.K)
	return i - 0.5*j, j * sin60
}

// hex2dToCoordIJK finds the hex containing a plane point by cube rounding:
// each fractional axis is rounded to the nearest integer and the component
// with the largest rounding error is recomputed so i+j+k stays exactly 0
// before normalization.
func hex2dToCoordIJK(x, y float64) CoordIJK {
	fj := y / sin60
	fi := x + fj/2
	fk := -fi - fj

	i := math.Round(fi)
	j := math.Round(fj)
	k := math.Round(fk)

	di := math.Abs(i - fi)
	dj := math.Abs(j - fj)
	dk := math.Abs(k - fk)

	if di > dj && di > dk {
		i = -j - k
	} else if dj > dk {
		j = -i - k
	}
	return CoordIJK{int(i), int(j), 0}.normalize()
}

// rotate60ccw rotates the coordinate 60 degrees counter-clockwise.
func (c CoordIJK) rotate60ccw() CoordIJK {
	iVec := CoordIJK{1, 1, 0}.scale(c.I)
	jVec := CoordIJK{0, 1, 1}.scale(c.J)
	kVec := CoordIJK{1, 0, 1}.scale(c.K)
	return iVec.add(jVec).add(kVec).normalize()
}

// rotate60cw rotates the coordinate 60 degrees clockwise.
func (c CoordIJK) rotate60cw() CoordIJK {
	iVec := CoordIJK{1, 0, 1}.scale(c.I)
	jVec := CoordIJK{1, 1, 0}.scale(c.J)
	kVec := CoordIJK{0, 1, 1}.scale(c.K)
	return iVec.add(jVec).add(kVec).normalize()
}

// rotateDigitCcw advances a direction one step counter-clockwise around the
// hex: K -> IK -> I -> IJ -> J -> JK -> K.
func rotateDigitCcw(d Direction) Direction {
	switch d {
	case DigitK:
		return DigitIK
	case DigitIK:
		return DigitI
	case DigitI:
		return DigitIJ
	case DigitIJ:
		return DigitJ
	case DigitJ:
		return DigitJK
	case DigitJK:
		return DigitK
	default:
		return d
	}
}

// rotateDigitCw is the inverse of rotateDigitCcw.
func rotateDigitCw(d Direction) Direction {
	switch d {
	case DigitK:
		return DigitJK
	case DigitJK:
		return DigitJ
	case DigitJ:
		return DigitIJ
	case DigitIJ:
		return DigitI
	case DigitI:
		return DigitIK
	case DigitIK:
		return DigitK
	default:
		return d
	}
}

// upAp7 moves the coordinate one aperture-7 level up on a counter-clockwise
// oriented grid. It is the exact matrix inverse of downAp7; that pairing is
// the primary correctness invariant of the hierarchy.
func (c CoordIJK) upAp7() CoordIJK {
	i := c.I - c.K
	j := c.J - c.K
	return CoordIJK{
		I: int(math.Round(float64(3*i-j) / 7.0)),
		J: int(math.Round(float64(i+2*j) / 7.0)),
		K: 0,
	}.normalize()
}

// upAp7r is the clockwise-oriented counterpart of upAp7.
func (c CoordIJK) upAp7r() CoordIJK {
	i := c.I - c.K
	j := c.J - c.K
	return CoordIJK{
		I: int(math.Round(float64(2*i+j) / 7.0)),
		J: int(math.Round(float64(3*j-i) / 7.0)),
		K: 0,
	}.normalize()
}

// downAp7 moves one aperture-7 level down on a counter-clockwise grid by
// re-expressing the coordinate in the finer level's unit vectors.
func (c CoordIJK) downAp7() CoordIJK {
	iVec := CoordIJK{3, 0, 1}.scale(c.I)
	jVec := CoordIJK{1, 3, 0}.scale(c.J)
	kVec := CoordIJK{0, 1, 3}.scale(c.K)
	return iVec.add(jVec).add(kVec).normalize()
}

// downAp7r is the clockwise-oriented counterpart of downAp7.
func (c CoordIJK) downAp7r() CoordIJK {
	iVec := CoordIJK{3, 1, 0}.scale(c.I)
	jVec := CoordIJK{0, 3, 1}.scale(c.J)
	kVec := CoordIJK{1, 0, 3}.scale(c.K)
	return iVec.add(jVec).add(kVec).normalize()
}

// downAp3 moves one aperture-3 level down on a counter-clockwise grid. The
// aperture-3 pair is only used to reach the substrate grid cell vertices
// live on.
func (c CoordIJK) downAp3() CoordIJK {
	iVec := CoordIJK{2, 0, 1}.scale(c.I)
	jVec := CoordIJK{1, 2, 0}.scale(c.J)
	kVec := CoordIJK{0, 1, 2}.scale(c.K)
	return iVec.add(jVec).add(kVec).normalize()
}

// downAp3r is the clockwise-oriented counterpart of downAp3.
func (c CoordIJK) downAp3r() CoordIJK {
	iVec := CoordIJK{2, 1, 0}.scale(c.I)
	jVec := CoordIJK{0, 2, 1}.scale(c.J)
	kVec := CoordIJK{1, 0, 2}.scale(c.K)
	return iVec.add(jVec).add(kVec).normalize()
}
