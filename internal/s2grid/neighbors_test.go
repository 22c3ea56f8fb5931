package s2grid

import (
	"testing"

	"github.com/open-spatial/geocell/internal/geodesy"
)

func neighborSet(t *testing.T, ci CellID) map[CellID]bool {
	t.Helper()
	ns := ci.Neighbors()
	set := map[CellID]bool{}
	for _, n := range ns {
		if n == ci {
			t.Fatalf("cell %s lists itself as neighbor", ci.Token())
		}
		if set[n] {
			t.Fatalf("cell %s has duplicate neighbor %s", ci.Token(), n.Token())
		}
		if n.Level() != ci.Level() || !n.Valid() {
			t.Fatalf("neighbor %s of %s malformed", n.Token(), ci.Token())
		}
		set[n] = true
	}
	return set
}

func TestNeighbors_InteriorCellsHaveEight(t *testing.T) {
	for _, ll := range []geodesy.LatLng{
		{Lat: 59.3293, Lng: 18.0686},
		{Lat: -33.8688, Lng: 151.2093},
		{Lat: 12, Lng: 0},
	} {
		for _, level := range []int{3, 10, 20} {
			ci, err := FromLatLng(ll, level)
			if err != nil {
				t.Fatalf("encode: %v", err)
			}
			if got := len(neighborSet(t, ci)); got != 8 {
				t.Fatalf("cell %s: %d neighbors, want 8", ci.Token(), got)
			}
		}
	}
}

// Every face edge and corner must transform onto the adjacent face instead
// of clamping. Walk cells straddling each face boundary and check the
// relation is symmetric and the neighbor genuinely lies elsewhere.
func TestNeighbors_FaceEdgesAndCorners(t *testing.T) {
	const level = 6
	for face := 0; face < 6; face++ {
		size := sizeIJ(level)
		edgeCells := []CellID{
			cellIDFromFaceIJ(face, 0, maxSize/2).Parent(level),            // west edge
			cellIDFromFaceIJ(face, maxSize-size, maxSize/2).Parent(level), // east edge
			cellIDFromFaceIJ(face, maxSize/2, 0).Parent(level),            // south edge
			cellIDFromFaceIJ(face, maxSize/2, maxSize-size).Parent(level), // north edge
			cellIDFromFaceIJ(face, 0, 0).Parent(level),                    // corners
			cellIDFromFaceIJ(face, maxSize-size, 0).Parent(level),
			cellIDFromFaceIJ(face, 0, maxSize-size).Parent(level),
			cellIDFromFaceIJ(face, maxSize-size, maxSize-size).Parent(level),
		}
		for idx, ci := range edgeCells {
			set := neighborSet(t, ci)
			corner := idx >= 4
			if corner && len(set) != 7 {
				t.Fatalf("corner cell %s on face %d: %d neighbors, want 7", ci.Token(), face, len(set))
			}
			if !corner && len(set) != 8 {
				t.Fatalf("edge cell %s on face %d: %d neighbors, want 8", ci.Token(), face, len(set))
			}

			offFace := 0
			for n := range set {
				if n.Face() != face {
					offFace++
				}
				back := neighborSet(t, n)
				if !back[ci] {
					t.Fatalf("%s neighbors %s but not vice versa", ci.Token(), n.Token())
				}
			}
			if offFace == 0 {
				t.Fatalf("boundary cell %s on face %d has no cross-face neighbor", ci.Token(), face)
			}
		}
	}
}

func TestNeighbors_AreAdjacentOnSphere(t *testing.T) {
	ci, err := FromLatLng(geodesy.LatLng{Lat: 44.99, Lng: 44.99}, 8)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	c := ci.Center()
	for n := range neighborSet(t, ci) {
		if d := geodesy.GreatCircleDistance(c, n.Center()); d > 3*cellAngularRadius(8) {
			t.Fatalf("neighbor %s is %.6f rad from %s", n.Token(), d, ci.Token())
		}
	}
}
