package h3grid

import (
	"math"

	"github.com/open-spatial/geocell/internal/geodesy"
	"github.com/open-spatial/geocell/internal/model"
)

// Cell vertices live on a substrate grid three apertures finer than the
// cell grid: aperture 3, then 3r, and at Class III resolutions an extra 7r
// to land back on a Class II orientation. These are the vertex offsets from
// the cell center in that substrate grid.
var (
	hexVertsCII  = [6]CoordIJK{{2, 1, 0}, {1, 2, 0}, {0, 2, 1}, {0, 1, 2}, {1, 0, 2}, {2, 0, 1}}
	hexVertsCIII = [6]CoordIJK{{5, 4, 0}, {1, 5, 0}, {0, 5, 4}, {0, 1, 5}, {4, 0, 5}, {5, 0, 1}}
)

// vertices returns the cell's corner coordinates in order. Pentagons have
// five.
func (h Index) vertices() []geodesy.LatLng {
	res := h.Resolution()
	center := h.toFaceIJK()

	verts := hexVertsCII
	if isClassIII(res) {
		verts = hexVertsCIII
	}

	adjRes := res
	center.Coord = center.Coord.downAp3().downAp3r()
	if isClassIII(res) {
		center.Coord = center.Coord.downAp7r()
		adjRes++
	}

	n := 6
	if h.IsPentagon() {
		n = 5
	}
	out := make([]geodesy.LatLng, 0, n)
	for v := 0; v < n; v++ {
		f := FaceIJK{Face: center.Face, Coord: center.Coord.add(verts[v]).normalize()}
		for adjustOverage(&f, adjRes, false, true) == overageNewFace {
		}
		x, y := f.Coord.toHex2d()
		out = append(out, hex2dToGeo(f.Face, x, y, adjRes, true))
	}
	return out
}

// Bounds returns a latitude/longitude box enclosing the cell. A cell
// containing a pole wraps the full longitude range; otherwise the tightest
// interval around the vertex longitudes is used, taking the complement when
// the raw span exceeds 180 degrees (antimeridian crossing).
func (h Index) Bounds() model.BBox {
	verts := h.vertices()

	south, north := verts[0].Lat, verts[0].Lat
	for _, v := range verts {
		south = math.Min(south, v.Lat)
		north = math.Max(north, v.Lat)
	}

	res := h.Resolution()
	if p, err := FromLatLng(geodesy.LatLng{Lat: 90}, res); err == nil && p == h {
		return model.BBox{South: south, West: -180, North: 90, East: 180}
	}
	if p, err := FromLatLng(geodesy.LatLng{Lat: -90}, res); err == nil && p == h {
		return model.BBox{South: -90, West: -180, North: north, East: 180}
	}

	west, east := verts[0].Lng, verts[0].Lng
	for _, v := range verts[1:] {
		west = math.Min(west, v.Lng)
		east = math.Max(east, v.Lng)
	}
	if east-west <= 180 {
		return model.BBox{South: south, West: west, North: north, East: east}
	}

	wrapWest, wrapEast := 180.0, -180.0
	for _, v := range verts {
		if v.Lng >= 0 {
			wrapWest = math.Min(wrapWest, v.Lng)
		} else {
			wrapEast = math.Max(wrapEast, v.Lng)
		}
	}
	return model.BBox{South: south, West: wrapWest, North: north, East: wrapEast}
}
