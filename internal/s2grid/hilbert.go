package s2grid

// The Hilbert curve codec is lookup-table driven: an 8-bit window of
// interleaved I/J bits plus a 2-bit orientation maps to an 8-bit window of
// curve position plus the next orientation. The tables are generated once at
// init from the four base orientations and the recursive quadrant rule, and
// are read-only afterwards, so they are safe to share across goroutines
// without locks.

const (
	lookupBits = 4

	swapMask   = 0x01
	invertMask = 0x02
)

var (
	// ijToPos maps an orientation and 2-bit (i, j) quadrant to the quadrant's
	// position along the curve.
	ijToPos = [4][4]int{
		{0, 1, 3, 2}, // canonical order
		{0, 3, 1, 2}, // axes swapped
		{2, 3, 1, 0}, // bits inverted
		{2, 1, 3, 0}, // swapped & inverted
	}

	// posToIJ is the inverse of ijToPos for each orientation.
	posToIJ = [4][4]int{
		{0, 1, 3, 2},
		{0, 2, 3, 1},
		{3, 2, 0, 1},
		{3, 1, 0, 2},
	}

	// posToOrientation gives the orientation change when descending into a
	// child at the given curve position.
	posToOrientation = [4]int{swapMask, 0, 0, invertMask | swapMask}

	lookupPos [1 << (2*lookupBits + 2)]int
	lookupIJ  [1 << (2*lookupBits + 2)]int
)

func init() {
	initLookupCell(0, 0, 0, 0, 0, 0)
	initLookupCell(0, 0, 0, swapMask, 0, swapMask)
	initLookupCell(0, 0, 0, invertMask, 0, invertMask)
	initLookupCell(0, 0, 0, swapMask|invertMask, 0, swapMask|invertMask)
}

// initLookupCell recursively fills one lookupBits-deep subtree of the
// transition tables for a starting orientation.
func initLookupCell(level, i, j, origOrientation, pos, orientation int) {
	if level == lookupBits {
		ij := (i << lookupBits) + j
		lookupPos[(ij<<2)+origOrientation] = (pos << 2) + orientation
		lookupIJ[(pos<<2)+origOrientation] = (ij << 2) + orientation
		return
	}
	level++
	i <<= 1
	j <<= 1
	pos <<= 2
	r := posToIJ[orientation]
	for idx := 0; idx < 4; idx++ {
		initLookupCell(level, i+(r[idx]>>1), j+(r[idx]&1), origOrientation,
			pos+idx, orientation^posToOrientation[idx])
	}
}
