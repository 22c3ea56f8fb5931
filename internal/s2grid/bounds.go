package s2grid

import (
	"math"

	"github.com/open-spatial/geocell/internal/geodesy"
	"github.com/open-spatial/geocell/internal/model"
)

// poleMinLatDeg is the lowest latitude reached by the polar face cells,
// attained at their corners: asin(sqrt(1/3)).
var poleMinLatDeg = geodesy.Degrees(math.Asin(math.Sqrt(1.0 / 3)))

// Bounds returns a latitude/longitude box enclosing the cell.
//
// Level-0 cells are handled from fixed face geometry: the four equatorial
// faces span +/-45 degrees of latitude, the two polar faces wrap the full
// longitude range. For finer cells the extremes are attained at the corners
// (the uv-origin never lies strictly inside a cell below level 0), with two
// special cases: a corner at a pole forces the full longitude range, and a
// corner spread wider than 180 degrees signals an antimeridian crossing.
func (ci CellID) Bounds() model.BBox {
	level := ci.Level()
	face := ci.Face()
	if level == 0 {
		return faceBounds(face)
	}

	uLo, uHi, vLo, vHi := ci.boundUV()
	corners := [4]geodesy.LatLng{
		geodesy.ToLatLng(faceUVToXYZ(face, uLo, vLo).Normalize()),
		geodesy.ToLatLng(faceUVToXYZ(face, uLo, vHi).Normalize()),
		geodesy.ToLatLng(faceUVToXYZ(face, uHi, vLo).Normalize()),
		geodesy.ToLatLng(faceUVToXYZ(face, uHi, vHi).Normalize()),
	}

	south, north := corners[0].Lat, corners[0].Lat
	atPole := false
	for _, c := range corners {
		south = math.Min(south, c.Lat)
		north = math.Max(north, c.Lat)
		if c.Lat == 90 || c.Lat == -90 {
			atPole = true
		}
	}
	if atPole {
		// Longitude is undefined at the pole and the cell wraps around it.
		return model.BBox{South: south, West: -180, North: north, East: 180}
	}

	west, east := lngRange(corners[:])
	return model.BBox{South: south, West: west, North: north, East: east}
}

// boundUV returns the cell's uv rectangle on its face.
func (ci CellID) boundUV() (uLo, uHi, vLo, vHi float64) {
	_, i, j, _ := ci.faceIJOrientation()
	size := sizeIJ(ci.Level())
	iLo := i & -size
	jLo := j & -size
	uLo = stToUV(ijToSTMin(iLo))
	uHi = stToUV(ijToSTMin(iLo + size))
	vLo = stToUV(ijToSTMin(jLo))
	vHi = stToUV(ijToSTMin(jLo + size))
	return uLo, uHi, vLo, vHi
}

// lngRange finds the tightest longitude interval covering the corner
// longitudes, detecting antimeridian wraparound by span comparison.
func lngRange(corners []geodesy.LatLng) (west, east float64) {
	west, east = corners[0].Lng, corners[0].Lng
	for _, c := range corners[1:] {
		west = math.Min(west, c.Lng)
		east = math.Max(east, c.Lng)
	}
	if east-west <= 180 {
		return west, east
	}
	// The cell straddles the antimeridian: take the complementary interval.
	wrapWest, wrapEast := 180.0, -180.0
	for _, c := range corners {
		if c.Lng >= 0 {
			wrapWest = math.Min(wrapWest, c.Lng)
		} else {
			wrapEast = math.Max(wrapEast, c.Lng)
		}
	}
	return wrapWest, wrapEast
}

func faceBounds(face int) model.BBox {
	switch face {
	case 0:
		return model.BBox{South: -45, West: -45, North: 45, East: 45}
	case 1:
		return model.BBox{South: -45, West: 45, North: 45, East: 135}
	case 2:
		return model.BBox{South: poleMinLatDeg, West: -180, North: 90, East: 180}
	case 3:
		return model.BBox{South: -45, West: 135, North: 45, East: -135}
	case 4:
		return model.BBox{South: -45, West: -135, North: 45, East: -45}
	default:
		return model.BBox{South: -90, West: -180, North: -poleMinLatDeg, East: 180}
	}
}
