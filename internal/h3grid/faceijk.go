package h3grid

import (
	"math"

	"github.com/open-spatial/geocell/internal/geodesy"
)

const (
	numIcosaFaces = 20

	// MaxResolution is the finest subdivision resolution.
	MaxResolution = 15

	// res0Gnomonic scales one resolution-0 hex unit in gnomonic plane units.
	res0Gnomonic = 0.38196601125010500003

	sqrt7 = 2.6457513110645905905016157536392604
)

// ap7RotationRads is the fixed rotation between Class II and Class III grid
// orientations: asin(sqrt(3/28)).
var ap7RotationRads = math.Asin(math.Sqrt(3.0 / 28.0))

// faceCenterGeo holds the icosahedron face centers in degrees, derived once
// from the canonical radian values. Initialized as a variable rather than in
// an init func so that package-level tables depending on the face geometry
// are ordered after it.
var faceCenterGeo = computeFaceCenterGeo()

// faceCenterGeoRads lists the 20 face centers as (lat, lng) radians.
var faceCenterGeoRads = [numIcosaFaces][2]float64{
	{0.803582649718989942, 1.248397419617396099},
	{1.307747883455638156, 2.536945009877921159},
	{1.054751253523952054, -1.347517358900396623},
	{0.600191595538186799, -0.450603909469755746},
	{0.491715428198773866, 0.401988202911306943},
	{0.172745327415618701, 1.678146885280433686},
	{0.605929321571350690, 2.953923329812411617},
	{0.427370518328979641, -1.888876200336285401},
	{-0.079066118549212831, -0.733429513380867741},
	{-0.230961644455383637, 0.506495587332349035},
	{0.079066118549212831, 2.408163140208925497},
	{0.230961644455383637, -2.635097066257444203},
	{-0.172745327415618701, -1.463445768309359553},
	{-0.605929321571350690, -0.187669323777381622},
	{-0.427370518328979641, 1.252716453253507838},
	{-0.600191595538186799, 2.690988744120037492},
	{-0.491715428198773866, -2.739604450678486295},
	{-0.803582649718989942, -1.893195233972397139},
	{-1.307747883455638156, -0.604647643711872080},
	{-1.054751253523952054, 1.794075294689396615},
}

// faceCenterPoint holds the face centers as unit vectors, computed from
// faceCenterGeo so the two can never drift apart.
var faceCenterPoint = computeFaceCenterPoints()

// faceAxesAzRads is the azimuth in radians from each face center to the
// Class II i-axis, the reference axis all face-local angles are measured
// against.
var faceAxesAzRads = [numIcosaFaces]float64{
	5.619958268523939882,
	5.760339081714187279,
	0.780213654393430055,
	0.430469363979999913,
	6.130269123335111400,
	2.692877706530642877,
	2.982963003477243874,
	3.532912002790141181,
	3.494305004259568154,
	3.003214169499538391,
	5.930472956509811562,
	0.138378484090254847,
	0.448714947059150361,
	0.158629650112549365,
	5.891865957979238535,
	2.711123289609793325,
	3.294508837434268316,
	3.804819692245439833,
	3.664438879055192436,
	2.361378999196363184,
}

func computeFaceCenterGeo() [numIcosaFaces]geodesy.LatLng {
	var out [numIcosaFaces]geodesy.LatLng
	for f := 0; f < numIcosaFaces; f++ {
		out[f] = geodesy.LatLng{
			Lat: geodesy.Degrees(faceCenterGeoRads[f][0]),
			Lng: geodesy.Degrees(faceCenterGeoRads[f][1]),
		}
	}
	return out
}

func computeFaceCenterPoints() [numIcosaFaces]geodesy.Vector {
	var out [numIcosaFaces]geodesy.Vector
	for f := 0; f < numIcosaFaces; f++ {
		out[f] = geodesy.ToVector(faceCenterGeo[f])
	}
	return out
}

// FaceIJK addresses a hex by icosahedron face and grid coordinate on that
// face's plane.
type FaceIJK struct {
	Face  int
	Coord CoordIJK
}

// isClassIII reports whether a resolution uses the rotated grid orientation.
// Odd resolutions are Class III, even ones Class II.
func isClassIII(res int) bool {
	return res%2 == 1
}

// closestFace scans the 20 face centers for the one nearest to the point,
// minimizing squared chord distance.
func closestFace(v geodesy.Vector) (face int, sqd float64) {
	face = 0
	sqd = faceCenterPoint[0].DistanceSquared(v)
	for f := 1; f < numIcosaFaces; f++ {
		if d := faceCenterPoint[f].DistanceSquared(v); d < sqd {
			face = f
			sqd = d
		}
	}
	return face, sqd
}

// geoToHex2d projects a coordinate onto the plane of its nearest face at the
// given resolution. The order of operations is load-bearing: the azimuth to
// the point is measured on the sphere first, and the gnomonic scaling is
// applied to the radial distance last. Projecting before measuring the
// azimuth assigns wrong base cells to any point away from a face center.
func geoToHex2d(ll geodesy.LatLng, res int) (face int, x, y float64) {
	v := geodesy.ToVector(ll)
	face, sqd := closestFace(v)

	// cos(r) = 1 - sqd/2 relates chord to central angle.
	r := math.Acos(1 - sqd/2)
	if r < 1e-16 {
		return face, 0, 0
	}

	theta := geodesy.PosAngle(faceAxesAzRads[face] -
		geodesy.PosAngle(geodesy.Azimuth(faceCenterGeo[face], ll)))
	if isClassIII(res) {
		theta = geodesy.PosAngle(theta - ap7RotationRads)
	}

	// Gnomonic projection, then scale into resolution units.
	r = math.Tan(r) / res0Gnomonic
	for i := 0; i < res; i++ {
		r *= sqrt7
	}
	return face, r * math.Cos(theta), r * math.Sin(theta)
}

// hex2dToGeo inverts geoToHex2d for a known face. When substrate is set the
// coordinate lives on the 3x finer vertex grid (plus a sqrt7 factor at Class
// III) used for cell boundaries.
func hex2dToGeo(face int, x, y float64, res int, substrate bool) geodesy.LatLng {
	r := math.Sqrt(x*x + y*y)
	if r < 1e-16 {
		return faceCenterGeo[face]
	}
	theta := math.Atan2(y, x)

	for i := 0; i < res; i++ {
		r /= sqrt7
	}
	if substrate {
		r /= 3
		if isClassIII(res) {
			r /= sqrt7
		}
	}
	r = math.Atan(r * res0Gnomonic)

	if !substrate && isClassIII(res) {
		theta = geodesy.PosAngle(theta + ap7RotationRads)
	}
	az := geodesy.PosAngle(faceAxesAzRads[face] - theta)
	return geodesy.Destination(faceCenterGeo[face], az, r)
}

// geoToFaceIJK bins a coordinate into the hex grid at the given resolution.
func geoToFaceIJK(ll geodesy.LatLng, res int) FaceIJK {
	face, x, y := geoToHex2d(ll, res)
	return FaceIJK{Face: face, Coord: hex2dToCoordIJK(x, y)}
}

// faceIJKToGeo returns the center of a face grid coordinate.
func faceIJKToGeo(f FaceIJK, res int) geodesy.LatLng {
	x, y := f.Coord.toHex2d()
	return hex2dToGeo(f.Face, x, y, res, false)
}
