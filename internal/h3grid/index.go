package h3grid

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/open-spatial/geocell/internal/geodesy"
)

var (
	ErrInvalidResolution = errors.New("h3grid: resolution out of range")
	ErrMalformedIndex    = errors.New("h3grid: malformed index")
	ErrPentagonDigit     = errors.New("h3grid: k-axis digit under pentagon")
)

// Index is a 64-bit hexagonal cell identifier. Bit 63 is reserved, bits
// 59-62 hold the mode, 56-58 are reserved, 52-55 the resolution, 45-51 the
// base cell, and the remaining 45 bits hold fifteen 3-bit digits, one per
// resolution, finest last. Digits beyond the index's resolution are 7.
type Index uint64

const (
	modeCell = 1

	modeOffset     = 59
	reservedOffset = 56
	resOffset      = 52
	baseCellOffset = 45

	digitBits uint = 3
	digitMask      = 7

	// All fifteen digit slots set to 7.
	blankDigits Index = (1 << 45) - 1
)

func (h Index) digit(r int) Direction {
	return Direction((h >> (uint(MaxResolution-r) * digitBits)) & digitMask)
}

func (h Index) setDigit(r int, d Direction) Index {
	shift := uint(MaxResolution-r) * digitBits
	return (h &^ (digitMask << shift)) | Index(d)<<shift
}

// Resolution returns the cell's resolution, 0 to 15.
func (h Index) Resolution() int { return int(h>>resOffset) & 0xF }

// BaseCell returns the cell's resolution-0 ancestor number, 0 to 121.
func (h Index) BaseCell() int { return int(h>>baseCellOffset) & 0x7F }

func (h Index) mode() int { return int(h>>modeOffset) & 0xF }

// IsPentagon reports whether the cell has five neighbors instead of six: it
// descends from a pentagonal base cell entirely through center digits.
func (h Index) IsPentagon() bool {
	return isPentagonBaseCell(h.BaseCell()) && h.leadingNonZeroDigit() == DigitCenter
}

func (h Index) leadingNonZeroDigit() Direction {
	for r := 1; r <= h.Resolution(); r++ {
		if d := h.digit(r); d != DigitCenter {
			return d
		}
	}
	return DigitCenter
}

// Valid reports whether the index is well-formed: cell mode, reserved bits
// clear, base cell and digits in range, unused digit slots blank, and no
// k-axis digit directly under a pentagonal base cell.
func (h Index) Valid() bool {
	if h>>63 != 0 || h.mode() != modeCell || (h>>reservedOffset)&7 != 0 {
		return false
	}
	bc := h.BaseCell()
	if bc >= numBaseCells {
		return false
	}
	res := h.Resolution()
	for r := 1; r <= res; r++ {
		if h.digit(r) >= DigitInvalid {
			return false
		}
	}
	for r := res + 1; r <= MaxResolution; r++ {
		if h.digit(r) != DigitInvalid {
			return false
		}
	}
	if isPentagonBaseCell(bc) && h.leadingNonZeroDigit() == DigitK {
		return false
	}
	return true
}

// Token renders the index as lowercase hex. Cell-mode indexes always yield
// fifteen characters.
func (h Index) Token() string {
	return strconv.FormatUint(uint64(h), 16)
}

// FromToken parses a hex token back into a validated index.
func FromToken(tok string) (Index, error) {
	v, err := strconv.ParseUint(tok, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformedIndex, tok)
	}
	h := Index(v)
	if !h.Valid() {
		if isPentagonBaseCell(h.BaseCell()) && h.leadingNonZeroDigit() == DigitK {
			return 0, fmt.Errorf("%w: %q", ErrPentagonDigit, tok)
		}
		return 0, fmt.Errorf("%w: %q", ErrMalformedIndex, tok)
	}
	return h, nil
}

// rotate60ccw rotates all of the index's digits one sixth turn
// counter-clockwise.
func (h Index) rotate60ccw() Index {
	for r, res := 1, h.Resolution(); r <= res; r++ {
		h = h.setDigit(r, rotateDigitCcw(h.digit(r)))
	}
	return h
}

func (h Index) rotate60cw() Index {
	for r, res := 1, h.Resolution(); r <= res; r++ {
		h = h.setDigit(r, rotateDigitCw(h.digit(r)))
	}
	return h
}

// rotatePent60ccw rotates the digits of a pentagon-rooted index, folding
// the result back out of the deleted k-axis sub-sequence.
func (h Index) rotatePent60ccw() Index {
	foundFirst := false
	for r, res := 1, h.Resolution(); r <= res; r++ {
		h = h.setDigit(r, rotateDigitCcw(h.digit(r)))
		if !foundFirst && h.digit(r) != DigitCenter {
			foundFirst = true
			if h.leadingNonZeroDigit() == DigitK {
				h = h.rotate60ccw()
			}
		}
	}
	return h
}

func (h Index) rotatePent60cw() Index {
	foundFirst := false
	for r, res := 1, h.Resolution(); r <= res; r++ {
		h = h.setDigit(r, rotateDigitCw(h.digit(r)))
		if !foundFirst && h.digit(r) != DigitCenter {
			foundFirst = true
			if h.leadingNonZeroDigit() == DigitK {
				h = h.rotate60cw()
			}
		}
	}
	return h
}

// FromLatLng bins a coordinate into the cell containing it at the given
// resolution.
func FromLatLng(ll geodesy.LatLng, res int) (Index, error) {
	if res < 0 || res > MaxResolution {
		return 0, fmt.Errorf("%w: %d", ErrInvalidResolution, res)
	}
	if err := geodesy.Check(ll); err != nil {
		return 0, err
	}
	fijk := geoToFaceIJK(ll.Canonical(), res)
	return faceIJKToIndex(fijk, res)
}

// faceIJKToIndex builds an index from face coordinates at a resolution,
// aggregating the coordinate upward one aperture-7 step per digit until it
// reaches the base cell layer.
func faceIJKToIndex(fijk FaceIJK, res int) (Index, error) {
	h := Index(modeCell)<<modeOffset | Index(res)<<resOffset | blankDigits
	for r := 1; r <= res; r++ {
		h = h.setDigit(r, DigitCenter)
	}

	if res == 0 {
		bc, _, ok := faceIJKToBaseCell(fijk)
		if !ok {
			return 0, fmt.Errorf("%w: coordinate off face grid", ErrMalformedIndex)
		}
		return h | Index(bc)<<baseCellOffset, nil
	}

	for r := res - 1; r >= 0; r-- {
		last := fijk.Coord
		var lastCenter CoordIJK
		if isClassIII(r + 1) {
			fijk.Coord = fijk.Coord.upAp7()
			lastCenter = fijk.Coord.downAp7()
		} else {
			fijk.Coord = fijk.Coord.upAp7r()
			lastCenter = fijk.Coord.downAp7r()
		}
		h = h.setDigit(r+1, unitToDigit(last.sub(lastCenter).normalize()))
	}

	bc, numRots, ok := faceIJKToBaseCell(fijk)
	if !ok {
		return 0, fmt.Errorf("%w: coordinate off face grid", ErrMalformedIndex)
	}
	h |= Index(bc) << baseCellOffset

	if isPentagonBaseCell(bc) {
		if h.leadingNonZeroDigit() == DigitK {
			if baseCellIsCwOffset(bc, fijk.Face) {
				h = h.rotate60cw()
			} else {
				h = h.rotate60ccw()
			}
		}
		for i := 0; i < numRots; i++ {
			h = h.rotatePent60ccw()
		}
	} else {
		for i := 0; i < numRots; i++ {
			h = h.rotate60ccw()
		}
	}
	return h, nil
}

// toFaceIJK recovers the face coordinates of the cell at its own
// resolution, adjusting onto the correct face when the digit walk runs off
// the base cell's home face.
func (h Index) toFaceIJK() FaceIJK {
	bc := h.BaseCell()
	if isPentagonBaseCell(bc) && h.leadingNonZeroDigit() == DigitIK {
		h = h.rotate60cw()
	}

	fijk := baseCellData[bc].home
	if !h.walkDigits(&fijk) {
		return fijk
	}

	orig := fijk.Coord
	res := h.Resolution()
	workRes := res
	if isClassIII(res) {
		fijk.Coord = fijk.Coord.downAp7r()
		workRes++
	}

	pentLeading4 := isPentagonBaseCell(bc) && h.leadingNonZeroDigit() == DigitI
	if adjustOverage(&fijk, workRes, pentLeading4, false) != overageNone {
		if isPentagonBaseCell(bc) {
			for adjustOverage(&fijk, workRes, false, false) != overageNone {
			}
		}
		if workRes != res {
			fijk.Coord = fijk.Coord.upAp7r()
		}
	} else if workRes != res {
		fijk.Coord = orig
	}
	return fijk
}

// walkDigits descends from the base cell coordinate through the index's
// digits. It reports whether the result could lie off the home face.
func (h Index) walkDigits(fijk *FaceIJK) bool {
	res := h.Resolution()
	possibleOverage := true
	if !isPentagonBaseCell(h.BaseCell()) &&
		(res == 0 || fijk.Coord == (CoordIJK{})) {
		possibleOverage = false
	}
	for r := 1; r <= res; r++ {
		if isClassIII(r) {
			fijk.Coord = fijk.Coord.downAp7()
		} else {
			fijk.Coord = fijk.Coord.downAp7r()
		}
		fijk.Coord = fijk.Coord.neighbor(h.digit(r))
	}
	return possibleOverage
}

// Center returns the cell's center coordinate.
func (h Index) Center() geodesy.LatLng {
	fijk := h.toFaceIJK()
	return faceIJKToGeo(fijk, h.Resolution())
}
