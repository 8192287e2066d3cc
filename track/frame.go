package track

import (
	m "math"

	"raceline.dev/raceline/geo"
)

// CornerThreshold is the default curvature magnitude above which a point
// counts as part of a corner. Models override this with their own tuning.
const CornerThreshold = 0.001

// curvilinear metric denominator floor, applied where n*kappa approaches 1
const metricFloor = 1e-6

// Frame is the curvilinear coordinate system of a processed track: positions
// are expressed as (s, n, xi) - arc length along the centerline, signed
// lateral offset, and heading relative to the local tangent. It is read-only
// after construction and safe for concurrent use.
type Frame struct {
	geom *Geometry
}

func NewFrame(geom *Geometry) *Frame {
	return &Frame{geom: geom}
}

func (f *Frame) Geometry() *Geometry {
	return f.geom
}

// TurnDirection labels the sign of the local curvature.
type TurnDirection string

const (
	TurnLeft     TurnDirection = "left"
	TurnRight    TurnDirection = "right"
	TurnStraight TurnDirection = "straight"
)

// Properties are the local track properties at an arc-length position.
type Properties struct {
	S             float64
	Curvature     float64
	Radius        float64
	IsCorner      bool
	TurnDirection TurnDirection
}

// ToCurvilinear projects a global position and heading into (s, n, xi).
// The nearest centerline point is found by linear scan; n is the signed
// distance along the local normal; xi is wrapped to (-pi, pi].
func (f *Frame) ToCurvilinear(pos geo.Vec2, heading float64) (s, n, xi float64) {
	idx := geo.NearestIndex(f.geom.Points, pos)
	s = f.geom.S[idx]

	displacement := pos.Sub(f.geom.Points[idx])
	n = displacement.Dot(f.geom.Normals[idx])

	trackHeading := f.geom.Tangents[idx].Heading()
	xi = wrapAngle(heading - trackHeading)
	return s, n, xi
}

// ToGlobal converts (s, n, xi) back to a global position and heading. s is
// clamped to the track extent; centerline, tangent, and normal are linearly
// interpolated at s.
func (f *Frame) ToGlobal(s, n, xi float64) (geo.Vec2, float64) {
	center, tangent, normal := f.interpolateAt(s)
	pos := center.Add(normal.Scale(n))
	heading := wrapAngle(tangent.Heading() + xi)
	return pos, heading
}

// PropertiesAt reports curvature, radius, and corner classification at s.
func (f *Frame) PropertiesAt(s float64) Properties {
	k := f.CurvatureAt(s)
	radius := m.Inf(1)
	if m.Abs(k) > 1e-10 {
		radius = 1 / m.Abs(k)
	}
	dir := TurnStraight
	if k > 0 {
		dir = TurnLeft
	} else if k < 0 {
		dir = TurnRight
	}
	return Properties{
		S:             f.clampS(s),
		Curvature:     k,
		Radius:        radius,
		IsCorner:      m.Abs(k) > CornerThreshold,
		TurnDirection: dir,
	}
}

// CurvatureAt linearly interpolates the signed curvature at arc length s,
// clamped to the track extent.
func (f *Frame) CurvatureAt(s float64) float64 {
	lo, hi, t := f.bracket(s)
	return f.geom.Curvature[lo]*(1-t) + f.geom.Curvature[hi]*t
}

// Rates converts body-frame velocities (u longitudinal, v lateral, omega yaw
// rate) into curvilinear rates at the given state. The metric denominator
// 1 - n*kappa is floored to avoid the singularity at the local center of
// curvature.
func (f *Frame) Rates(s, n, xi, u, v, omega float64) (sDot, nDot, xiDot float64) {
	k := f.CurvatureAt(s)
	den := 1 - n*k
	if m.Abs(den) < metricFloor {
		den = metricFloor
	}
	sDot = (u*m.Cos(xi) - v*m.Sin(xi)) / den
	nDot = u*m.Sin(xi) + v*m.Cos(xi)
	xiDot = omega - k*sDot
	return sDot, nDot, xiDot
}

// InBounds reports whether (s, n) lies on the track surface.
func (f *Frame) InBounds(s, n float64) bool {
	if s < 0 || s > f.geom.Length() {
		return false
	}
	return m.Abs(n) <= f.geom.HalfWidth
}

func (f *Frame) clampS(s float64) float64 {
	return m.Max(0, m.Min(s, f.geom.Length()))
}

// bracket finds the arc-length interval containing s and the interpolation
// fraction within it.
func (f *Frame) bracket(s float64) (lo, hi int, t float64) {
	s = f.clampS(s)
	sPts := f.geom.S
	lo, hi = 0, len(sPts)-1
	for hi-lo > 1 {
		mid := (lo + hi) / 2
		if sPts[mid] <= s {
			lo = mid
		} else {
			hi = mid
		}
	}
	span := sPts[hi] - sPts[lo]
	if span <= 0 {
		return lo, hi, 0
	}
	return lo, hi, (s - sPts[lo]) / span
}

func (f *Frame) interpolateAt(s float64) (center, tangent, normal geo.Vec2) {
	lo, hi, t := f.bracket(s)
	center = f.geom.Points[lo].Scale(1 - t).Add(f.geom.Points[hi].Scale(t))
	tangent = f.geom.Tangents[lo].Scale(1 - t).Add(f.geom.Tangents[hi].Scale(t)).Normalized()
	if tangent.Norm() == 0 {
		tangent = f.geom.Tangents[lo]
	}
	normal = tangent.Perp()
	return center, tangent, normal
}

// wrapAngle normalizes an angle to (-pi, pi].
func wrapAngle(a float64) float64 {
	return m.Atan2(m.Sin(a), m.Cos(a))
}
