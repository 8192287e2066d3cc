package models

import (
	m "math"

	"raceline.dev/raceline/geo"
	"raceline.dev/raceline/track"
	"raceline.dev/raceline/utils"
)

// Basic model tuning. More conservative than the physics model on every
// axis: narrower track usage, heavier smoothing, gentler setup moves.
const (
	basicUsageFraction   = 0.3
	basicCornerThreshold = 0.005
	basicSmoothingSigma  = 5.0
	basicLookAhead       = 12
	basicSeveritySpan    = 200.0
)

// BasicModel computes a clean geometric racing line without vehicle
// dynamics: corners pull toward the inside scaled by severity, straights set
// up for the next corner, everything smoothed heavily.
type BasicModel struct{}

func NewBasicModel() *BasicModel {
	return &BasicModel{}
}

func (b *BasicModel) Meta() Metadata {
	return Metadata{
		ID:              "basic",
		Name:            "Basic Model",
		Description:     "Simple geometric approach with conservative track usage",
		TrackUsage:      basicUsageFraction,
		Characteristics: []string{"Simple", "Smooth", "Learning-friendly"},
	}
}

// Speeds uses a flat-grip cornering limit with no aerodynamic coupling, the
// per-point steady state a geometric model needs for lap-time estimates.
func (b *BasicModel) Speeds(geom *track.Geometry, car Vehicle, friction float64) []float64 {
	speeds := make([]float64, geom.Len())
	for i, k := range geom.Curvature {
		if m.Abs(k) > 1e-6 {
			speeds[i] = m.Sqrt(friction * 9.81 / m.Abs(k))
		} else {
			speeds[i] = physicsMaxSpeed * 0.8
		}
		speeds[i] = utils.Clamp(utils.FiniteOr(speeds[i], physicsMinSpeed), physicsMinSpeed, physicsMaxSpeed)
	}
	return geo.Sanitize(geo.GaussianSmooth(speeds, 2.0), physicsMinSpeed)
}

func (b *BasicModel) Offsets(geom *track.Geometry, speeds []float64, car Vehicle) []float64 {
	n := geom.Len()
	offsets := make([]float64, n)
	curvature := geom.SmoothedSignedCurvature(basicSmoothingSigma)
	maxOffset := 2 * geom.HalfWidth * basicUsageFraction

	for i := range offsets {
		if i < edgeSkip || i > n-edgeSkip-1 {
			continue
		}

		if m.Abs(curvature[i]) > basicCornerThreshold {
			cornerDirection := -sign(curvature[i])
			severity := m.Min(m.Abs(curvature[i])*basicSeveritySpan, 1.0)
			magnitude := maxOffset * severity * 0.6

			// Ease off when the corner opens onto a straight so the line
			// drifts out for the exit.
			ahead := windowMeanAbs(curvature, i, min(i+basicLookAhead, n))
			if ahead < basicCornerThreshold {
				magnitude *= 0.7
			}
			offsets[i] = magnitude * cornerDirection
			continue
		}

		// On straights, blend toward the outside of the next corner.
		limit := min(basicLookAhead, n-i-1)
		for j := i + 1; j <= i+limit; j++ {
			if m.Abs(curvature[j]) <= basicCornerThreshold {
				continue
			}
			upcomingDirection := -sign(curvature[j])
			setup := maxOffset * 0.5 * (-upcomingDirection)
			transition := m.Max(0.1, 1-float64(j-i)/float64(limit))
			offsets[i] = setup * transition
			break
		}
	}
	return offsets
}

func (b *BasicModel) Line(geom *track.Geometry, car Vehicle, friction float64) []geo.Vec2 {
	speeds := b.Speeds(geom, car, friction)
	offsets := b.Offsets(geom, speeds, car)
	maxOffset := 2 * geom.HalfWidth * basicUsageFraction
	line := lineFromOffsets(geom, offsets, maxOffset, 1.0, 1.5, 2.0, 2.5)

	// Global refit keeps the heavy smoothing from leaving parametrization
	// artifacts; on failure the smoothed line is already usable.
	if refit, err := geo.ResampleClosed(line, len(line)); err == nil {
		line = refit
	}
	geo.ForceClosure(line)
	return line
}
