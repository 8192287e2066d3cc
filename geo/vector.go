package geo

import (
	m "math"
)

type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func NewVec2(x, y float64) Vec2 {
	return Vec2{X: x, Y: y}
}

func (v Vec2) Add(other Vec2) Vec2 {
	return Vec2{X: v.X + other.X, Y: v.Y + other.Y}
}

func (v Vec2) Sub(other Vec2) Vec2 {
	return Vec2{X: v.X - other.X, Y: v.Y - other.Y}
}

func (v Vec2) Scale(factor float64) Vec2 {
	return Vec2{X: v.X * factor, Y: v.Y * factor}
}

func (v Vec2) Dot(other Vec2) float64 {
	return v.X*other.X + v.Y*other.Y
}

func (v Vec2) Cross(other Vec2) float64 {
	return v.X*other.Y - v.Y*other.X
}

func (v Vec2) Norm() float64 {
	return m.Hypot(v.X, v.Y)
}

func (v Vec2) DistanceTo(other Vec2) float64 {
	return m.Hypot(other.X-v.X, other.Y-v.Y)
}

// Normalized returns the unit vector. A zero vector stays zero instead of
// producing NaNs.
func (v Vec2) Normalized() Vec2 {
	n := v.Norm()
	if n == 0 {
		return Vec2{}
	}
	return Vec2{X: v.X / n, Y: v.Y / n}
}

// Perp returns the vector rotated 90 degrees counter-clockwise. For a track
// tangent this is the left-hand normal.
func (v Vec2) Perp() Vec2 {
	return Vec2{X: -v.Y, Y: v.X}
}

func (v Vec2) Heading() float64 {
	return m.Atan2(v.Y, v.X)
}

// Finite reports whether both components are finite numbers.
func (v Vec2) Finite() bool {
	return !m.IsNaN(v.X) && !m.IsInf(v.X, 0) && !m.IsNaN(v.Y) && !m.IsInf(v.Y, 0)
}
