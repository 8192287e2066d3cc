package geo

import (
	m "math"
)

// GaussianSmooth convolves values with a Gaussian kernel of the given sigma.
// Indices wrap around, which keeps closed-loop data continuous across the
// start/finish point. sigma <= 0 returns a copy of the input.
func GaussianSmooth(values []float64, sigma float64) []float64 {
	out := make([]float64, len(values))
	copy(out, values)
	if sigma <= 0 || len(values) < 3 {
		return out
	}

	radius := int(m.Ceil(4 * sigma))
	if radius >= len(values) {
		radius = len(values) - 1
	}
	kernel := make([]float64, 2*radius+1)
	sum := 0.0
	for i := range kernel {
		x := float64(i - radius)
		kernel[i] = m.Exp(-x * x / (2 * sigma * sigma))
		sum += kernel[i]
	}
	for i := range kernel {
		kernel[i] /= sum
	}

	n := len(values)
	for i := range out {
		acc := 0.0
		for k, w := range kernel {
			j := (i + k - radius) % n
			if j < 0 {
				j += n
			}
			acc += values[j] * w
		}
		out[i] = acc
	}
	return out
}

// SmoothPath runs cascaded Gaussian passes over the x and y coordinates of a
// path. More sigmas means heavier smoothing.
func SmoothPath(points []Vec2, sigmas ...float64) []Vec2 {
	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i] = p.X
		ys[i] = p.Y
	}
	for _, sigma := range sigmas {
		xs = GaussianSmooth(xs, sigma)
		ys = GaussianSmooth(ys, sigma)
	}
	out := make([]Vec2, len(points))
	for i := range out {
		out[i] = Vec2{X: xs[i], Y: ys[i]}
	}
	return out
}

// MovingAveragePath replaces each interior point with the mean of its
// immediate neighbourhood. Endpoints are left in place.
func MovingAveragePath(points []Vec2) []Vec2 {
	out := make([]Vec2, len(points))
	copy(out, points)
	for i := 1; i < len(points)-1; i++ {
		out[i] = points[i-1].Add(points[i]).Add(points[i+1]).Scale(1.0 / 3.0)
	}
	return out
}

// Sanitize replaces non-finite values with the fallback.
func Sanitize(values []float64, fallback float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		if m.IsNaN(v) || m.IsInf(v, 0) {
			out[i] = fallback
		} else {
			out[i] = v
		}
	}
	return out
}
