// Package geodesy provides the spherical geometry primitives shared by both
// cell indexing schemes: degree/radian coordinates, unit vectors, azimuths
// and great-circle distances.
package geodesy

import (
	"errors"
	"math"
)

// ErrInvalidCoordinate is returned for latitudes outside [-90, 90] or
// longitudes outside [-180, 180].
var ErrInvalidCoordinate = errors.New("geodesy: coordinate out of range")

const (
	// poleEpsilon bounds how close a unit vector's x/y components may be to
	// zero before the longitude is considered undefined and canonicalized.
	poleEpsilon = 1e-14
)

// LatLng is a geographic coordinate in degrees.
type LatLng struct {
	Lat float64
	Lng float64
}

// Valid reports whether the coordinate lies in the valid range.
func (ll LatLng) Valid() bool {
	return ll.Lat >= -90 && ll.Lat <= 90 && ll.Lng >= -180 && ll.Lng <= 180 &&
		!math.IsNaN(ll.Lat) && !math.IsNaN(ll.Lng)
}

// Canonical returns the coordinate with the longitude forced to 0 at the
// poles, where it is mathematically undefined. Encoding and decoding both
// canonicalize so round-trips through either scheme are stable.
func (ll LatLng) Canonical() LatLng {
	if ll.Lat == 90 || ll.Lat == -90 {
		ll.Lng = 0
	}
	return ll
}

// Check validates the coordinate, returning ErrInvalidCoordinate before any
// trigonometry runs on a bad input.
func Check(ll LatLng) error {
	if !ll.Valid() {
		return ErrInvalidCoordinate
	}
	return nil
}

// Vector is a point on the unit sphere.
type Vector struct {
	X, Y, Z float64
}

// ToVector converts a geographic coordinate to a unit vector. The input is
// canonicalized first, so any longitude at the poles maps to the same vector.
func ToVector(ll LatLng) Vector {
	ll = ll.Canonical()
	lat := Radians(ll.Lat)
	lng := Radians(ll.Lng)
	cosLat := math.Cos(lat)
	return Vector{
		X: math.Cos(lng) * cosLat,
		Y: math.Sin(lng) * cosLat,
		Z: math.Sin(lat),
	}
}

// ToLatLng converts a unit vector back to degrees. Numerical drift away from
// unit norm is tolerated: latitude is clamped into asin's domain, and a
// vector at a pole yields longitude 0.
func ToLatLng(v Vector) LatLng {
	z := v.Z / v.Norm()
	if z > 1 {
		z = 1
	} else if z < -1 {
		z = -1
	}
	lat := Degrees(math.Asin(z))
	if math.Abs(v.X) < poleEpsilon && math.Abs(v.Y) < poleEpsilon {
		return LatLng{Lat: lat, Lng: 0}
	}
	return LatLng{Lat: lat, Lng: Degrees(math.Atan2(v.Y, v.X))}
}

func (v Vector) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

func (v Vector) Normalize() Vector {
	n := v.Norm()
	if n == 0 {
		return v
	}
	return Vector{v.X / n, v.Y / n, v.Z / n}
}

func (v Vector) Dot(o Vector) float64 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

func (v Vector) Add(o Vector) Vector {
	return Vector{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

func (v Vector) Sub(o Vector) Vector {
	return Vector{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

func (v Vector) Scale(f float64) Vector {
	return Vector{v.X * f, v.Y * f, v.Z * f}
}

// DistanceSquared is the squared chord distance between two unit vectors.
// It is monotonic with great-circle distance and needs no trigonometry,
// which keeps face selection cheap.
func (v Vector) DistanceSquared(o Vector) float64 {
	dx := v.X - o.X
	dy := v.Y - o.Y
	dz := v.Z - o.Z
	return dx*dx + dy*dy + dz*dz
}

// Radians converts degrees to radians.
func Radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Degrees converts radians to degrees.
func Degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

// PosAngle normalizes an angle in radians into [0, 2*pi).
func PosAngle(rad float64) float64 {
	if rad < 0 {
		return rad + 2*math.Pi
	}
	if rad >= 2*math.Pi {
		return rad - 2*math.Pi
	}
	return rad
}

// Azimuth returns the initial bearing in radians from one coordinate to
// another, measured clockwise from north.
func Azimuth(from, to LatLng) float64 {
	lat1 := Radians(from.Lat)
	lat2 := Radians(to.Lat)
	dLng := Radians(to.Lng - from.Lng)
	return math.Atan2(
		math.Cos(lat2)*math.Sin(dLng),
		math.Cos(lat1)*math.Sin(lat2)-math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLng),
	)
}

// GreatCircleDistance returns the central angle in radians between two
// coordinates, using the haversine form for stability at small distances.
func GreatCircleDistance(a, b LatLng) float64 {
	lat1 := Radians(a.Lat)
	lat2 := Radians(b.Lat)
	sinLat := math.Sin(Radians(b.Lat-a.Lat) / 2)
	sinLng := math.Sin(Radians(b.Lng-a.Lng) / 2)
	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLng*sinLng
	return 2 * math.Asin(math.Min(1, math.Sqrt(h)))
}

// Destination returns the coordinate reached by traveling the given angular
// distance (radians) along the given azimuth (radians clockwise from north).
func Destination(from LatLng, azimuth, distance float64) LatLng {
	if distance < 1e-16 {
		return from.Canonical()
	}
	az := PosAngle(azimuth)
	lat1 := Radians(from.Lat)

	// Due north or due south travel keeps the longitude fixed.
	if az < 1e-16 || math.Abs(az-math.Pi) < 1e-16 {
		lat2 := lat1 + distance
		if math.Abs(az-math.Pi) < 1e-16 {
			lat2 = lat1 - distance
		}
		if math.Abs(lat2-math.Pi/2) < 1e-16 {
			return LatLng{Lat: 90, Lng: 0}
		}
		if math.Abs(lat2+math.Pi/2) < 1e-16 {
			return LatLng{Lat: -90, Lng: 0}
		}
		return LatLng{Lat: Degrees(lat2), Lng: from.Lng}
	}

	sinLat2 := math.Sin(lat1)*math.Cos(distance) + math.Cos(lat1)*math.Sin(distance)*math.Cos(az)
	if sinLat2 > 1 {
		sinLat2 = 1
	} else if sinLat2 < -1 {
		sinLat2 = -1
	}
	lat2 := math.Asin(sinLat2)
	if math.Abs(lat2-math.Pi/2) < 1e-16 {
		return LatLng{Lat: 90, Lng: 0}
	}
	if math.Abs(lat2+math.Pi/2) < 1e-16 {
		return LatLng{Lat: -90, Lng: 0}
	}

	sinLng := math.Sin(az) * math.Sin(distance) / math.Cos(lat2)
	cosLng := (math.Cos(distance) - math.Sin(lat1)*sinLat2) / (math.Cos(lat1) * math.Cos(lat2))
	if sinLng > 1 {
		sinLng = 1
	} else if sinLng < -1 {
		sinLng = -1
	}
	if cosLng > 1 {
		cosLng = 1
	} else if cosLng < -1 {
		cosLng = -1
	}
	lng := from.Lng + Degrees(math.Atan2(sinLng, cosLng))
	for lng > 180 {
		lng -= 360
	}
	for lng < -180 {
		lng += 360
	}
	return LatLng{Lat: Degrees(lat2), Lng: lng}
}
