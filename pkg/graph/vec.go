package graph

import "math"

// Vec2 is a 2D vector used for node positions, velocities and forces.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns v + o.
func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }

// Sub returns v - o.
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }

// Scale returns v multiplied by s.
func (v Vec2) Scale(s float64) Vec2 { return Vec2{v.X * s, v.Y * s} }

// Len returns the Euclidean length of v.
func (v Vec2) Len() float64 { return math.Hypot(v.X, v.Y) }

// Normalize returns the unit vector pointing in the direction of v.
// The zero vector is returned when v has zero or non-finite length, so
// callers never see NaN components.
func (v Vec2) Normalize() Vec2 {
	l := v.Len()
	if l == 0 || math.IsInf(l, 0) || math.IsNaN(l) {
		return Vec2{}
	}
	return Vec2{v.X / l, v.Y / l}
}

// IsFinite reports whether both components are finite numbers.
func (v Vec2) IsFinite() bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0)
}
