package geo

import (
	m "math"
)

const (
	// ClosureTolerance is the distance under which the first and last point of
	// a polyline are considered the same point.
	ClosureTolerance = 1e-3
	// MinSegmentLength is the floor applied to segment lengths so that time
	// and speed calculations never divide by zero.
	MinSegmentLength = 0.1
)

// IsClosed reports whether the polyline ends where it starts.
func IsClosed(points []Vec2) bool {
	if len(points) < 2 {
		return false
	}
	return points[0].DistanceTo(points[len(points)-1]) < ClosureTolerance
}

// Close returns a copy of the polyline with the first point appended when it
// is not already closed. The input is never modified.
func Close(points []Vec2) []Vec2 {
	out := append([]Vec2(nil), points...)
	if len(out) == 0 || IsClosed(out) {
		return out
	}
	return append(out, out[0])
}

// ForceClosure makes the last point exactly equal the first.
func ForceClosure(points []Vec2) {
	if len(points) > 1 {
		points[len(points)-1] = points[0]
	}
}

// SegmentLengths returns the length of each segment, floored at
// MinSegmentLength. len(result) == len(points)-1.
func SegmentLengths(points []Vec2) []float64 {
	if len(points) < 2 {
		return []float64{}
	}
	lengths := make([]float64, len(points)-1)
	for i := range lengths {
		lengths[i] = m.Max(points[i].DistanceTo(points[i+1]), MinSegmentLength)
	}
	return lengths
}

// ArcLengths returns the cumulative distance from the start at each point.
// The first entry is 0 and the slice is non-decreasing.
func ArcLengths(points []Vec2) []float64 {
	s := make([]float64, len(points))
	for i := 1; i < len(points); i++ {
		s[i] = s[i-1] + points[i-1].DistanceTo(points[i])
	}
	return s
}

// TotalLength is the arc length of the whole polyline.
func TotalLength(points []Vec2) float64 {
	total := 0.0
	for i := 1; i < len(points); i++ {
		total += points[i-1].DistanceTo(points[i])
	}
	return total
}

type Bounds struct {
	MinX, MinY, MaxX, MaxY float64
}

func (b Bounds) Width() float64 {
	return b.MaxX - b.MinX
}

func (b Bounds) Height() float64 {
	return b.MaxY - b.MinY
}

func (b Bounds) Center() Vec2 {
	return Vec2{X: (b.MinX + b.MaxX) / 2, Y: (b.MinY + b.MaxY) / 2}
}

func PolylineBounds(points []Vec2) Bounds {
	if len(points) == 0 {
		return Bounds{}
	}
	b := Bounds{MinX: points[0].X, MinY: points[0].Y, MaxX: points[0].X, MaxY: points[0].Y}
	for _, p := range points[1:] {
		b.MinX = m.Min(b.MinX, p.X)
		b.MinY = m.Min(b.MinY, p.Y)
		b.MaxX = m.Max(b.MaxX, p.X)
		b.MaxY = m.Max(b.MaxY, p.Y)
	}
	return b
}

// NearestIndex returns the index of the polyline point closest to pos.
func NearestIndex(points []Vec2, pos Vec2) int {
	minDistSq := m.MaxFloat64
	idx := 0
	for i, p := range points {
		dx := pos.X - p.X
		dy := pos.Y - p.Y
		distSq := dx*dx + dy*dy
		if distSq < minDistSq {
			minDistSq = distSq
			idx = i
		}
	}
	return idx
}
