package geodesy

import (
	"errors"
	"math"
	"testing"
)

func TestCanonical_PolesForceZeroLongitude(t *testing.T) {
	for _, lng := range []float64{-180, -72.1, 0, 45, 180} {
		if got := (LatLng{Lat: 90, Lng: lng}).Canonical(); got.Lng != 0 || got.Lat != 90 {
			t.Fatalf("canonical(90, %v) = %v", lng, got)
		}
		if got := (LatLng{Lat: -90, Lng: lng}).Canonical(); got.Lng != 0 || got.Lat != -90 {
			t.Fatalf("canonical(-90, %v) = %v", lng, got)
		}
	}
	ll := LatLng{Lat: 12.5, Lng: -33}
	if got := ll.Canonical(); got != ll {
		t.Fatalf("canonical mangled ordinary point: %v", got)
	}
}

func TestCheck_RangeValidation(t *testing.T) {
	bad := []LatLng{
		{Lat: 90.0001, Lng: 0},
		{Lat: -91, Lng: 0},
		{Lat: 0, Lng: 180.0001},
		{Lat: 0, Lng: -181},
		{Lat: math.NaN(), Lng: 0},
		{Lat: 0, Lng: math.Inf(1)},
	}
	for _, ll := range bad {
		if err := Check(ll); !errors.Is(err, ErrInvalidCoordinate) {
			t.Fatalf("Check(%v) = %v, want ErrInvalidCoordinate", ll, err)
		}
	}
	good := []LatLng{{Lat: 90, Lng: 180}, {Lat: -90, Lng: -180}, {}}
	for _, ll := range good {
		if err := Check(ll); err != nil {
			t.Fatalf("Check(%v) = %v", ll, err)
		}
	}
}

func TestVector_RoundTrip(t *testing.T) {
	pts := []LatLng{
		{Lat: 0, Lng: 0}, {Lat: 51.5, Lng: -0.12}, {Lat: -33.86, Lng: 151.2},
		{Lat: 0.0, Lng: 179.999}, {Lat: -0.001, Lng: -179.999},
	}
	for _, ll := range pts {
		got := ToLatLng(ToVector(ll))
		if math.Abs(got.Lat-ll.Lat) > 1e-12 || math.Abs(got.Lng-ll.Lng) > 1e-12 {
			t.Fatalf("round trip %v -> %v", ll, got)
		}
	}
	// Any longitude at a pole collapses to the canonical vector, and the
	// pole converts back with longitude 0.
	if v := ToVector(LatLng{Lat: 90, Lng: 123}); v != ToVector(LatLng{Lat: 90, Lng: -7}) {
		t.Fatalf("pole vectors differ by input longitude")
	}
	if got := ToLatLng(Vector{Z: 1}); got.Lat != 90 || got.Lng != 0 {
		t.Fatalf("north pole decodes to %v", got)
	}
	if got := ToLatLng(Vector{Z: -2}); got.Lat != -90 || got.Lng != 0 {
		t.Fatalf("non-unit pole vector decodes to %v", got)
	}
}

func TestAzimuth_CardinalDirections(t *testing.T) {
	origin := LatLng{Lat: 0, Lng: 0}
	cases := []struct {
		to   LatLng
		want float64
	}{
		{LatLng{Lat: 10, Lng: 0}, 0},
		{LatLng{Lat: 0, Lng: 10}, math.Pi / 2},
		{LatLng{Lat: -10, Lng: 0}, math.Pi},
		{LatLng{Lat: 0, Lng: -10}, -math.Pi / 2},
	}
	for _, c := range cases {
		if got := Azimuth(origin, c.to); math.Abs(got-c.want) > 1e-12 {
			t.Fatalf("azimuth to %v = %v, want %v", c.to, got, c.want)
		}
	}
}

func TestGreatCircleDistance_KnownArcs(t *testing.T) {
	if d := GreatCircleDistance(LatLng{}, LatLng{Lat: 0, Lng: 90}); math.Abs(d-math.Pi/2) > 1e-12 {
		t.Fatalf("quarter arc = %v", d)
	}
	if d := GreatCircleDistance(LatLng{Lat: 90}, LatLng{Lat: -90}); math.Abs(d-math.Pi) > 1e-12 {
		t.Fatalf("pole to pole = %v", d)
	}
	if d := GreatCircleDistance(LatLng{Lat: 33, Lng: 44}, LatLng{Lat: 33, Lng: 44}); d != 0 {
		t.Fatalf("self distance = %v", d)
	}
	// Antimeridian crossing: short way around, not the long way.
	d := GreatCircleDistance(LatLng{Lat: 0, Lng: 179.5}, LatLng{Lat: 0, Lng: -179.5})
	if math.Abs(d-Radians(1)) > 1e-9 {
		t.Fatalf("antimeridian arc = %v rad, want %v", d, Radians(1))
	}
}

func TestDestination_InvertsAzimuthAndDistance(t *testing.T) {
	from := []LatLng{
		{Lat: 0, Lng: 0}, {Lat: 47.1, Lng: 8.8}, {Lat: -56, Lng: -170},
		{Lat: 80, Lng: 30},
	}
	to := []LatLng{
		{Lat: 10, Lng: 10}, {Lat: -3, Lng: 100}, {Lat: 62, Lng: 179},
		{Lat: -45, Lng: -45},
	}
	for _, a := range from {
		for _, b := range to {
			got := Destination(a, Azimuth(a, b), GreatCircleDistance(a, b))
			if d := GreatCircleDistance(got, b); d > 1e-9 {
				t.Fatalf("destination from %v toward %v landed %v (off by %v rad)", a, b, got, d)
			}
		}
	}
	// Due north to the pole exactly.
	if got := Destination(LatLng{Lat: 0, Lng: 55}, 0, math.Pi/2); got.Lat != 90 || got.Lng != 0 {
		t.Fatalf("due north quarter arc = %v", got)
	}
}

func TestPosAngle_NormalizesIntoOneTurn(t *testing.T) {
	for _, rad := range []float64{-math.Pi, -0.1, 0, 3, 2 * math.Pi, 7.5} {
		got := PosAngle(rad)
		if got < 0 || got >= 2*math.Pi {
			t.Fatalf("PosAngle(%v) = %v", rad, got)
		}
		diff := math.Abs(math.Mod(got-rad, 2*math.Pi))
		if diff > 1e-12 && math.Abs(diff-2*math.Pi) > 1e-12 {
			t.Fatalf("PosAngle(%v) = %v not congruent", rad, got)
		}
	}
}
