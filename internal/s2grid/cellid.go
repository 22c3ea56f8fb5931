package s2grid

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/open-spatial/geocell/internal/geodesy"
)

var (
	// ErrInvalidLevel is returned for levels outside [0, MaxLevel].
	ErrInvalidLevel = errors.New("s2grid: level out of range")

	// ErrMalformedToken is returned when a token fails structural decoding:
	// bad length, invalid hex, or a missing sentinel bit.
	ErrMalformedToken = errors.New("s2grid: malformed token")
)

// CellID packs a cell as face (3 bits), Hilbert curve position (2 bits per
// level) and a trailing sentinel bit that marks the level, followed by zero
// padding. Identifiers at the same level sort in Hilbert curve order.
type CellID uint64

// wrapOffset positions the face number above the curve position bits.
const wrapOffset = uint64(numFaces) << posBits

// FromLatLng encodes a coordinate at the given level.
func FromLatLng(ll geodesy.LatLng, level int) (CellID, error) {
	if err := geodesy.Check(ll); err != nil {
		return 0, err
	}
	if level < 0 || level > MaxLevel {
		return 0, fmt.Errorf("%w: %d", ErrInvalidLevel, level)
	}
	face, u, v := xyzToFaceUV(geodesy.ToVector(ll))
	i := stToIJ(uvToST(u))
	j := stToIJ(uvToST(v))
	return cellIDFromFaceIJ(face, i, j).Parent(level), nil
}

// FaceCell returns the level-0 cell covering an entire cube face.
func FaceCell(face int) CellID {
	return CellID(uint64(face)<<posBits + uint64(1)<<(posBits-1))
}

// cellIDFromFaceIJ encodes leaf grid coordinates through the Hilbert lookup
// table, 4 bits of I and J at a time, tracking orientation between chunks.
func cellIDFromFaceIJ(f, i, j int) CellID {
	n := uint64(f) << (posBits - 1)
	bits := f & swapMask
	for k := 7; k >= 0; k-- {
		mask := (1 << lookupBits) - 1
		bits += ((i >> uint(k*lookupBits)) & mask) << (lookupBits + 2)
		bits += ((j >> uint(k*lookupBits)) & mask) << 2
		bits = lookupPos[bits]
		n |= uint64(bits>>2) << (uint(k) * 2 * lookupBits)
		bits &= swapMask | invertMask
	}
	return CellID(n*2 + 1)
}

// faceIJOrientation inverts cellIDFromFaceIJ, walking the curve position in
// 8-bit chunks through the inverse table.
func (ci CellID) faceIJOrientation() (f, i, j, orientation int) {
	f = ci.Face()
	orientation = f & swapMask
	nbits := MaxLevel - 7*lookupBits
	for k := 7; k >= 0; k-- {
		orientation += (int(uint64(ci)>>uint(k*2*lookupBits+1)) & ((1 << uint(2*nbits)) - 1)) << 2
		orientation = lookupIJ[orientation]
		i += (orientation >> (lookupBits + 2)) << uint(k*lookupBits)
		j += ((orientation >> 2) & ((1 << lookupBits) - 1)) << uint(k*lookupBits)
		orientation &= swapMask | invertMask
		nbits = lookupBits
	}
	// For non-leaf cells the curve may enter the cell in reversed order.
	if ci.lsb()&0x1111111111111110 != 0 {
		orientation ^= swapMask
	}
	return f, i, j, orientation
}

func (ci CellID) Face() int {
	return int(uint64(ci) >> posBits)
}

// lsb returns the sentinel bit, which encodes the cell's level.
func (ci CellID) lsb() uint64 {
	return uint64(ci) & -uint64(ci)
}

func lsbForLevel(level int) uint64 {
	return 1 << uint(2*(MaxLevel-level))
}

// Level derives the level from the position of the sentinel bit.
func (ci CellID) Level() int {
	lsb := ci.lsb()
	level := MaxLevel
	for lsb > 1 {
		lsb >>= 2
		level--
	}
	return level
}

func (ci CellID) IsLeaf() bool {
	return uint64(ci)&1 != 0
}

// Valid reports whether the identifier has a legal face and sentinel bit.
func (ci CellID) Valid() bool {
	return ci.Face() < numFaces && ci.lsb()&0x1555555555555555 != 0
}

// Parent returns the ancestor at the given level. The Hilbert position is
// truncated to the target precision and the sentinel bit moved.
func (ci CellID) Parent(level int) CellID {
	lsb := lsbForLevel(level)
	return CellID((uint64(ci) & -lsb) | lsb)
}

// Children returns the four cells that exactly partition this cell at the
// next level, in Hilbert curve order.
func (ci CellID) Children() []CellID {
	if ci.IsLeaf() {
		return nil
	}
	lsb := ci.lsb() >> 2
	first := uint64(ci) - ci.lsb() + lsb
	out := make([]CellID, 4)
	for k := 0; k < 4; k++ {
		out[k] = CellID(first + uint64(k)*(lsb<<1))
	}
	return out
}

// RangeMin returns the first leaf descendant, for building sortable ranges.
func (ci CellID) RangeMin() CellID {
	return CellID(uint64(ci) - (ci.lsb() - 1))
}

// RangeMax returns the last leaf descendant.
func (ci CellID) RangeMax() CellID {
	return CellID(uint64(ci) + (ci.lsb() - 1))
}

// Contains reports whether other is ci or a descendant of ci.
func (ci CellID) Contains(other CellID) bool {
	return ci.RangeMin() <= other && other <= ci.RangeMax()
}

// centerFaceSiTi returns the cell center in half-leaf coordinates. The
// correction delta distinguishes leaf cells from non-leaf ones, with the
// extra parity case one level above the leaves; dropping it would bias
// every non-maximum-level center.
func (ci CellID) centerFaceSiTi() (face int, si, ti uint64) {
	face, i, j, _ := ci.faceIJOrientation()
	delta := 0
	if ci.IsLeaf() {
		delta = 1
	} else if (i^(int(uint64(ci))>>2))&1 == 1 {
		delta = 2
	}
	return face, uint64(2*i + delta), uint64(2*j + delta)
}

// Center decodes the cell's center coordinate. The pole longitude is
// canonicalized by the geodesy conversion.
func (ci CellID) Center() geodesy.LatLng {
	face, si, ti := ci.centerFaceSiTi()
	u := stToUV(siTiToST(si))
	v := stToUV(siTiToST(ti))
	return geodesy.ToLatLng(faceUVToXYZ(face, u, v).Normalize())
}

// ContainsLatLng reports whether the coordinate lies within the cell. The
// test runs in exact integer grid coordinates, so an encoded point is always
// inside its own cell, not merely within tolerance.
func (ci CellID) ContainsLatLng(ll geodesy.LatLng) bool {
	leaf, err := FromLatLng(ll, MaxLevel)
	if err != nil {
		return false
	}
	return ci.Contains(leaf)
}

// Token renders the identifier as hexadecimal with trailing zeros trimmed.
// Tokens preserve the identifier sort order for cells at equal level.
func (ci CellID) Token() string {
	s := strings.TrimRight(fmt.Sprintf("%016x", uint64(ci)), "0")
	if s == "" {
		return "x"
	}
	return s
}

// FromToken parses a token back into an identifier, validating structure.
func FromToken(token string) (CellID, error) {
	if token == "" || len(token) > 16 {
		return 0, fmt.Errorf("%w: %q", ErrMalformedToken, token)
	}
	n, err := strconv.ParseUint(token, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformedToken, token)
	}
	ci := CellID(n << uint(4*(16-len(token))))
	if !ci.Valid() {
		return 0, fmt.Errorf("%w: %q", ErrMalformedToken, token)
	}
	return ci, nil
}
