// Package track builds the resampled, curvature-annotated geometry for a
// closed circuit and the curvilinear coordinate frame on top of it.
package track

import (
	"log/slog"
	m "math"

	"github.com/pkg/errors"
	"raceline.dev/raceline/geo"
)

var (
	ErrTooFewPoints = errors.New("track must have at least 3 points")
)

// Geometry holds the per-point differential properties of a processed track.
// All slices have the same length as Points. S is non-decreasing and spans
// [0, Length]. Curvature is signed: positive means a left turn.
type Geometry struct {
	Points    []geo.Vec2
	S         []float64
	Tangents  []geo.Vec2
	Normals   []geo.Vec2
	Curvature []float64
	HalfWidth float64
}

func (g *Geometry) Len() int {
	return len(g.Points)
}

// Length is the total arc length of the centerline.
func (g *Geometry) Length() float64 {
	if len(g.S) == 0 {
		return 0
	}
	return g.S[len(g.S)-1]
}

// Process validates and resamples a raw centerline to count points, closing
// the loop if necessary, and derives arc length, tangents, normals, and
// signed curvature. The input polyline is not modified.
func Process(points []geo.Vec2, count int, halfWidth float64) (*Geometry, error) {
	if len(points) < 3 {
		return nil, ErrTooFewPoints
	}
	for _, p := range points {
		if !p.Finite() {
			return nil, errors.New("track contains non-finite coordinates")
		}
	}

	resampled, err := geo.ResampleClosed(points, count)
	if err != nil {
		return nil, errors.Wrap(err, "could not resample track")
	}

	// Keep the start/finish line where the user drew it: rotate the resampled
	// loop so its first point is the one nearest the original start.
	start := geo.NearestIndex(resampled[:len(resampled)-1], points[0])
	if start != 0 {
		rotated := make([]geo.Vec2, 0, len(resampled))
		rotated = append(rotated, resampled[start:len(resampled)-1]...)
		rotated = append(rotated, resampled[:start]...)
		rotated = append(rotated, rotated[0])
		resampled = rotated
	}

	g := FromLine(resampled, halfWidth)
	slog.Debug("processed track geometry",
		"points", g.Len(),
		"length", g.Length(),
		"halfWidth", halfWidth,
	)
	return g, nil
}

// FromLine derives geometry for an already-resampled closed line. Used for
// the centerline after Process and for re-deriving curvature of computed
// racing lines.
func FromLine(points []geo.Vec2, halfWidth float64) *Geometry {
	n := len(points)
	tangents := make([]geo.Vec2, n)
	normals := make([]geo.Vec2, n)
	for i := 0; i < n-1; i++ {
		tangents[i] = points[i+1].Sub(points[i]).Normalized()
	}
	if n > 1 {
		tangents[n-1] = tangents[n-2]
	}
	for i := range tangents {
		if tangents[i].Norm() == 0 && i > 0 {
			tangents[i] = tangents[i-1]
		}
		normals[i] = tangents[i].Perp()
	}

	curvature := geo.SignedCurvature(points)

	return &Geometry{
		Points:    points,
		S:         geo.ArcLengths(points),
		Tangents:  tangents,
		Normals:   normals,
		Curvature: curvature,
		HalfWidth: halfWidth,
	}
}

// SmoothedCurvature returns the curvature magnitudes run through a Gaussian
// kernel, the form the corner-detection heuristics consume.
func (g *Geometry) SmoothedCurvature(sigma float64) []float64 {
	abs := make([]float64, len(g.Curvature))
	for i, k := range g.Curvature {
		abs[i] = m.Abs(k)
	}
	return geo.Sanitize(geo.GaussianSmooth(abs, sigma), 0)
}

// SmoothedSignedCurvature keeps turn direction while filtering noise.
func (g *Geometry) SmoothedSignedCurvature(sigma float64) []float64 {
	return geo.Sanitize(geo.GaussianSmooth(g.Curvature, sigma), 0)
}

// SegmentLengths returns the floored per-segment lengths of the centerline.
func (g *Geometry) SegmentLengths() []float64 {
	return geo.SegmentLengths(g.Points)
}
