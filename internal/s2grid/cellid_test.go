package s2grid

import (
	"errors"
	"math"
	"testing"

	"github.com/open-spatial/geocell/internal/geodesy"
)

var cellTestPoints = []geodesy.LatLng{
	{Lat: 59.3293, Lng: 18.0686},   // Stockholm
	{Lat: 37.7749, Lng: -122.4194}, // San Francisco
	{Lat: -33.8688, Lng: 151.2093}, // Sydney
	{Lat: 0.0, Lng: 179.95},        // antimeridian
	{Lat: 0.0, Lng: -179.95},
	{Lat: 89.9, Lng: 10},   // near north pole
	{Lat: -89.9, Lng: 77},  // near south pole
	{Lat: 44.9, Lng: 44.9}, // near a cube corner
	{Lat: -45.1, Lng: 135.1},
}

// cellAngularRadius bounds the center-to-corner distance of a level-L cell
// in radians: half a face diagonal shrunk by 2 per level.
func cellAngularRadius(level int) float64 {
	return 1.3 / math.Pow(2, float64(level))
}

func TestFromLatLng_RoundTrip(t *testing.T) {
	for _, ll := range cellTestPoints {
		for _, level := range []int{0, 1, 4, 10, 20, 30} {
			ci, err := FromLatLng(ll, level)
			if err != nil {
				t.Fatalf("encode %v level %d: %v", ll, level, err)
			}
			if !ci.Valid() || ci.Level() != level {
				t.Fatalf("encode %v level %d: cell %s level %d", ll, level, ci.Token(), ci.Level())
			}

			c := ci.Center()
			if d := geodesy.GreatCircleDistance(ll, c); d > cellAngularRadius(level) {
				t.Fatalf("center of %s is %.6f rad from %v", ci.Token(), d, ll)
			}

			again, err := FromLatLng(c, level)
			if err != nil || again != ci {
				t.Fatalf("re-encoding center of %s gives %s, %v", ci.Token(), again.Token(), err)
			}
			if !ci.ContainsLatLng(ll) {
				t.Fatalf("cell %s does not contain its encoded point %v", ci.Token(), ll)
			}
		}
	}
}

func TestFromLatLng_PointInsideDecodedBounds(t *testing.T) {
	for _, ll := range cellTestPoints {
		for _, level := range []int{0, 3, 8, 14} {
			ci, err := FromLatLng(ll, level)
			if err != nil {
				t.Fatalf("encode: %v", err)
			}
			b := ci.Bounds()
			can := ll.Canonical()
			if !b.Contains(can.Lat, can.Lng) {
				t.Fatalf("bounds %v of %s exclude %v", b, ci.Token(), ll)
			}
		}
	}
}

func TestFromLatLng_Rejections(t *testing.T) {
	if _, err := FromLatLng(geodesy.LatLng{Lat: 0, Lng: 181}, 5); !errors.Is(err, geodesy.ErrInvalidCoordinate) {
		t.Fatalf("lng 181: err = %v", err)
	}
	if _, err := FromLatLng(geodesy.LatLng{}, 31); !errors.Is(err, ErrInvalidLevel) {
		t.Fatalf("level 31: err = %v", err)
	}
	if _, err := FromLatLng(geodesy.LatLng{}, -1); !errors.Is(err, ErrInvalidLevel) {
		t.Fatalf("level -1: err = %v", err)
	}
}

func TestFaceCells_TokensAndCenters(t *testing.T) {
	// A face cell id is (2*face+1) << 60, so the trimmed-hex tokens are the
	// odd hex digits.
	wantTokens := []string{"1", "3", "5", "7", "9", "b"}
	for f := 0; f < 6; f++ {
		ci := FaceCell(f)
		if ci.Token() != wantTokens[f] {
			t.Fatalf("face %d token %q, want %q", f, ci.Token(), wantTokens[f])
		}
		if ci.Level() != 0 || ci.Face() != f {
			t.Fatalf("face cell %d malformed: level %d face %d", f, ci.Level(), ci.Face())
		}
	}
	// Face 0 is centered on the equator at the prime meridian.
	c := FaceCell(0).Center()
	if math.Abs(c.Lat) > 1e-12 || math.Abs(c.Lng) > 1e-12 {
		t.Fatalf("face 0 center = %v, want (0, 0)", c)
	}
	// Face 2 is the north polar face, face 5 the south polar face.
	if c := FaceCell(2).Center(); math.Abs(c.Lat-90) > 1e-12 {
		t.Fatalf("face 2 center = %v, want the north pole", c)
	}
	if c := FaceCell(5).Center(); math.Abs(c.Lat+90) > 1e-12 {
		t.Fatalf("face 5 center = %v, want the south pole", c)
	}
}

func TestToken_RoundTripAndTrimming(t *testing.T) {
	for _, ll := range cellTestPoints[:4] {
		for _, level := range []int{0, 12, 30} {
			ci, err := FromLatLng(ll, level)
			if err != nil {
				t.Fatalf("encode: %v", err)
			}
			tok := ci.Token()
			if len(tok) == 0 || len(tok) > 16 || tok[len(tok)-1] == '0' {
				t.Fatalf("token %q not trimmed hex", tok)
			}
			back, err := FromToken(tok)
			if err != nil || back != ci {
				t.Fatalf("token %q round trip: %s, %v", tok, back.Token(), err)
			}
		}
	}
}

func TestFromToken_RejectsMalformed(t *testing.T) {
	for _, tok := range []string{"", "ggg", "00000000000000000", "0"} {
		if _, err := FromToken(tok); !errors.Is(err, ErrMalformedToken) {
			t.Fatalf("token %q: err = %v", tok, err)
		}
	}
}

func TestPoleStability(t *testing.T) {
	for _, level := range []int{0, 5, 30} {
		ref, err := FromLatLng(geodesy.LatLng{Lat: 90, Lng: 0}, level)
		if err != nil {
			t.Fatalf("encode pole: %v", err)
		}
		for _, lng := range []float64{-180, -13.7, 95, 180} {
			ci, err := FromLatLng(geodesy.LatLng{Lat: 90, Lng: lng}, level)
			if err != nil || ci != ref {
				t.Fatalf("pole at lng %v encodes to %s, want %s (%v)", lng, ci.Token(), ref.Token(), err)
			}
		}
	}
	// The leaf containing the pole hugs it to within a leaf diagonal.
	leaf, err := FromLatLng(geodesy.LatLng{Lat: 90, Lng: 123}, 30)
	if err != nil {
		t.Fatalf("encode pole leaf: %v", err)
	}
	if c := leaf.Center(); math.Abs(c.Lat-90) > 1e-6 {
		t.Fatalf("pole leaf center = %v", c)
	}
}

func TestHierarchy_ParentChildrenRange(t *testing.T) {
	ci, err := FromLatLng(geodesy.LatLng{Lat: 37.7749, Lng: -122.4194}, 16)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	for level := 0; level <= 16; level++ {
		p := ci.Parent(level)
		if p.Level() != level || !p.Valid() {
			t.Fatalf("parent level %d: %s", level, p.Token())
		}
		if !p.Contains(ci) {
			t.Fatalf("parent %s does not contain %s in range order", p.Token(), ci.Token())
		}
		if b := p.Bounds(); !b.Contains(ci.Center().Lat, ci.Center().Lng) {
			t.Fatalf("parent bounds %v exclude child center", b)
		}
	}

	kids := ci.Children()
	if len(kids) != 4 {
		t.Fatalf("%d children, want 4", len(kids))
	}
	seen := map[CellID]bool{}
	for _, k := range kids {
		if seen[k] || k.Level() != 17 || k.Parent(16) != ci {
			t.Fatalf("child %s malformed", k.Token())
		}
		seen[k] = true
		if k < ci.RangeMin() || k > ci.RangeMax() {
			t.Fatalf("child %s outside parent range", k.Token())
		}
	}
}

func TestStUv_QuadraticWarpRoundTrip(t *testing.T) {
	for s := 0.0; s <= 1.0; s += 1.0 / 64 {
		u := stToUV(s)
		if u < -1-1e-12 || u > 1+1e-12 {
			t.Fatalf("stToUV(%v) = %v out of [-1,1]", s, u)
		}
		if got := uvToST(u); math.Abs(got-s) > 1e-12 {
			t.Fatalf("uvToST(stToUV(%v)) = %v", s, got)
		}
	}
	// The warp is not linear: the midpoint of [0, 0.5] must not map to the
	// midpoint of [-1, 0].
	if got := stToUV(0.25); math.Abs(got-(-0.5)) < 1e-3 {
		t.Fatalf("warp looks linear: stToUV(0.25) = %v", got)
	}
}

// Reference tokens pin the Hilbert encoding against the values produced by
// the reference implementation of this cell scheme.
func TestFromLatLng_ReferenceTokens(t *testing.T) {
	cases := []struct {
		ll    geodesy.LatLng
		level int
		tok   string
	}{
		{geodesy.LatLng{Lat: 59.3293, Lng: 18.0686}, 0, "5"},
		{geodesy.LatLng{Lat: 59.3293, Lng: 18.0686}, 10, "465f9d"},
		{geodesy.LatLng{Lat: 59.3293, Lng: 18.0686}, 20, "465f9d5f2a7"},
		{geodesy.LatLng{Lat: 59.3293, Lng: 18.0686}, 30, "465f9d5f2a605019"},
		{geodesy.LatLng{Lat: 37.7749, Lng: -122.4194}, 0, "9"},
		{geodesy.LatLng{Lat: 37.7749, Lng: -122.4194}, 10, "808581"},
		{geodesy.LatLng{Lat: 37.7749, Lng: -122.4194}, 20, "8085809e8e9"},
		{geodesy.LatLng{Lat: 37.7749, Lng: -122.4194}, 30, "8085809e8e8d8c61"},
		{geodesy.LatLng{Lat: -33.8688, Lng: 151.2093}, 10, "6b12af"},
		{geodesy.LatLng{Lat: -33.8688, Lng: 151.2093}, 30, "6b12ae3ff6290055"},
		{geodesy.LatLng{Lat: -1.2921, Lng: 36.8219}, 20, "182f10dedc5"},
		{geodesy.LatLng{Lat: -1.2921, Lng: 36.8219}, 30, "182f10dedc46c02f"},
	}
	for _, tc := range cases {
		ci, err := FromLatLng(tc.ll, tc.level)
		if err != nil {
			t.Fatalf("encode %v level %d: %v", tc.ll, tc.level, err)
		}
		if ci.Token() != tc.tok {
			t.Fatalf("encode %v level %d = %s, want %s", tc.ll, tc.level, ci.Token(), tc.tok)
		}
	}
}
