// Package model defines core domain types shared across the engine.
package model

import "fmt"

// BBox is a geographic bounding box in degrees. West > East signals a box
// that wraps the antimeridian; callers must not assume West < East.
type BBox struct {
	South float64
	West  float64
	North float64
	East  float64
}

func (b BBox) String() string {
	return fmt.Sprintf("%.6f,%.6f,%.6f,%.6f", b.West, b.South, b.East, b.North)
}

// Wraps reports whether the box crosses the antimeridian.
func (b BBox) Wraps() bool {
	return b.West > b.East
}

// Contains reports whether the point lies inside the box, honoring
// antimeridian wraparound.
func (b BBox) Contains(lat, lng float64) bool {
	if lat < b.South || lat > b.North {
		return false
	}
	if b.Wraps() {
		return lng >= b.West || lng <= b.East
	}
	return lng >= b.West && lng <= b.East
}

// Split returns the box as one or two non-wrapping boxes. A wrapping box is
// cut at the antimeridian.
func (b BBox) Split() []BBox {
	if !b.Wraps() {
		return []BBox{b}
	}
	return []BBox{
		{South: b.South, West: b.West, North: b.North, East: 180},
		{South: b.South, West: -180, North: b.North, East: b.East},
	}
}

// Union grows the box to include the other box. Both must be non-wrapping.
func (b BBox) Union(o BBox) BBox {
	if o.South < b.South {
		b.South = o.South
	}
	if o.North > b.North {
		b.North = o.North
	}
	if o.West < b.West {
		b.West = o.West
	}
	if o.East > b.East {
		b.East = o.East
	}
	return b
}
