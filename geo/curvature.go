package geo

import (
	m "math"
)

// gradient computes central finite differences with one-sided differences at
// the endpoints, matching the usual discrete gradient.
func gradient(values []float64) []float64 {
	n := len(values)
	out := make([]float64, n)
	if n < 2 {
		return out
	}
	out[0] = values[1] - values[0]
	out[n-1] = values[n-1] - values[n-2]
	for i := 1; i < n-1; i++ {
		out[i] = (values[i+1] - values[i-1]) / 2
	}
	return out
}

// Curvature computes the unsigned planar curvature at each point of a path
// using first and second finite differences:
//
//	kappa = |x'y'' - y'x''| / (x'^2 + y'^2)^1.5
//
// Non-finite results and near-zero denominators are clamped so the output is
// always finite.
func Curvature(points []Vec2) []float64 {
	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i] = p.X
		ys[i] = p.Y
	}

	dx := gradient(xs)
	dy := gradient(ys)
	ddx := gradient(dx)
	ddy := gradient(dy)

	out := make([]float64, len(points))
	for i := range out {
		num := m.Abs(dx[i]*ddy[i] - dy[i]*ddx[i])
		den := m.Pow(dx[i]*dx[i]+dy[i]*dy[i], 1.5)
		if den < 1e-10 {
			den = 1e-10
		}
		k := num / den
		if m.IsNaN(k) || m.IsInf(k, 0) {
			k = 0
		}
		out[i] = k
	}
	return out
}

// SignedCurvature is Curvature with the sign of the local turn direction
// attached: positive for left turns, negative for right turns.
func SignedCurvature(points []Vec2) []float64 {
	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i] = p.X
		ys[i] = p.Y
	}

	dx := gradient(xs)
	dy := gradient(ys)
	ddx := gradient(dx)
	ddy := gradient(dy)

	out := make([]float64, len(points))
	for i := range out {
		num := dx[i]*ddy[i] - dy[i]*ddx[i]
		den := m.Pow(dx[i]*dx[i]+dy[i]*dy[i], 1.5)
		if den < 1e-10 {
			den = 1e-10
		}
		k := num / den
		if m.IsNaN(k) || m.IsInf(k, 0) {
			k = 0
		}
		out[i] = k
	}
	return out
}

// TurnAngle returns the angle in radians between the segments entering and
// leaving the middle point of three consecutive points.
func TurnAngle(a, b, c Vec2) float64 {
	v1 := b.Sub(a).Normalized()
	v2 := c.Sub(b).Normalized()
	dot := m.Max(-1, m.Min(1, v1.Dot(v2)))
	return m.Acos(dot)
}
