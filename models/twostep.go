package models

import (
	"log/slog"
	m "math"
	"sort"

	"raceline.dev/raceline/geo"
	"raceline.dev/raceline/track"
	"raceline.dev/raceline/utils"
)

// Two-step model tuning, after Kapania, Subosits & Gerdes: alternate a
// forward-backward speed-profile pass with a curvature-reduction path pass.
const (
	twoStepIterations  = 5
	twoStepConvergence = 0.1 // seconds of lap time

	twoStepMinSpeed      = 15.0
	twoStepMaxSpeed      = 90.0
	twoStepStraightSpeed = 85.0
	twoStepUsageFraction = 0.425

	brakeForceMultiplier = 3.0
	referencePaperMass   = 798.0

	frontCorneringStiffness = 160000.0
	rearCorneringStiffness  = 180000.0
)

// TwoStepModel is the iterative research-grade variant: a three-pass
// integration produces a speed profile honoring acceleration and braking
// limits, then the highest-curvature points are nudged outward-in to reduce
// curvature, and the two steps repeat until the lap time converges.
type TwoStepModel struct{}

func NewTwoStepModel() *TwoStepModel {
	return &TwoStepModel{}
}

func (t *TwoStepModel) Meta() Metadata {
	return Metadata{
		ID:              "twostep",
		Name:            "Two Step Algorithm",
		Description:     "Iterative forward-backward integration with curvature reduction",
		TrackUsage:      twoStepUsageFraction,
		Characteristics: []string{"Research-grade", "Iterative", "Curvature minimization"},
	}
}

// derived parameters the paper tabulates that our vehicle schema does not
// carry directly.
type twoStepParams struct {
	engineForce float64
	yawInertia  float64
}

func deriveParams(car Vehicle) twoStepParams {
	return twoStepParams{
		// F = m*a at half throttle efficiency reproduces the paper's 3750 N
		// for the reference 1500 kg / 5 m/s^2 car.
		engineForce: 0.5 * car.Mass * car.MaxAcceleration,
		yawInertia:  1.5 * car.Mass,
	}
}

// Speeds runs the three-pass forward-backward integration over the line's
// own curvature.
func (t *TwoStepModel) Speeds(geom *track.Geometry, car Vehicle, friction float64) []float64 {
	n := geom.Len()
	if n < 2 {
		return []float64{}
	}
	params := deriveParams(car)
	distances := geom.SegmentLengths()
	curvature := geom.Curvature

	// Pass 1: steady-state cornering speeds, ignoring longitudinal history.
	steady := make([]float64, n)
	stiffnessFactor := (frontCorneringStiffness + rearCorneringStiffness) / 2 / 100000.0
	suspensionFactor := stiffnessFactor*1.2 + 0.3
	massFactor := referencePaperMass / car.Mass
	for i := range steady {
		if m.Abs(curvature[i]) > 1e-6 {
			base := m.Sqrt(friction * 9.81 / m.Abs(curvature[i]))
			steady[i] = base * car.LiftCoefficient * suspensionFactor
		} else {
			powerFactor := params.engineForce / 15000.0
			steady[i] = twoStepStraightSpeed * (0.8 + 0.2*powerFactor)
		}
		steady[i] *= 0.90 + 0.10*massFactor
		steady[i] = utils.Clamp(steady[i], twoStepMinSpeed, twoStepMaxSpeed)
	}

	// Pass 2: forward integration under the acceleration limit, with drive
	// force shed to lateral demand.
	forward := append([]float64(nil), steady...)
	for i := 1; i < n; i++ {
		d := distances[i-1]
		if d <= 0 {
			continue
		}
		lateralDemand := car.Mass * forward[i-1] * forward[i-1] * m.Abs(curvature[i-1])
		corneringLoss := m.Min(lateralDemand/(car.Mass*50.0), 0.3)
		force := params.engineForce * (1 - corneringLoss)

		vSq := forward[i-1]*forward[i-1] + 2*force*d/car.Mass
		v := m.Sqrt(m.Max(vSq, twoStepMinSpeed*twoStepMinSpeed))
		forward[i] = m.Min(v, steady[i])
	}

	// Pass 3: backward integration under the braking limit.
	final := append([]float64(nil), forward...)
	stabilityFactor := 1200.0/params.yawInertia*0.3 + 0.7
	for i := n - 2; i >= 0; i-- {
		d := distances[i]
		if d <= 0 {
			continue
		}
		lateralDemand := car.Mass * final[i+1] * final[i+1] * m.Abs(curvature[i+1])
		brakingLoss := m.Min(lateralDemand/(car.Mass*30.0), 0.4)
		brakeForce := params.engineForce * brakeForceMultiplier * massFactor * stabilityFactor * (1 - brakingLoss)

		vSq := final[i+1]*final[i+1] + 2*brakeForce*d/car.Mass
		v := m.Sqrt(m.Max(vSq, twoStepMinSpeed*twoStepMinSpeed))
		final[i] = m.Min(v, forward[i])
	}

	final = geo.GaussianSmooth(final, 0.8)
	for i := range final {
		final[i] = utils.Clamp(utils.FiniteOr(final[i], twoStepMinSpeed), twoStepMinSpeed, twoStepMaxSpeed)
	}
	return final
}

func (t *TwoStepModel) Line(geom *track.Geometry, car Vehicle, friction float64) []geo.Vec2 {
	current := append([]geo.Vec2(nil), geom.Points...)
	best := current
	bestLapTime := m.Inf(1)

	for iteration := range twoStepIterations {
		lineGeom := track.FromLine(current, geom.HalfWidth)
		speeds := t.Speeds(lineGeom, car, friction)
		lapTime := LapTime(current, speeds)

		improvement := bestLapTime - lapTime
		if lapTime < bestLapTime {
			bestLapTime = lapTime
			best = current
		}
		slog.Debug("two-step iteration",
			"iteration", iteration+1,
			"lapTime", lapTime,
			"best", bestLapTime,
		)

		if iteration > 0 && m.Abs(improvement) < twoStepConvergence {
			break
		}
		if iteration < twoStepIterations-1 {
			current = t.reduceCurvature(current, speeds, geom)
		}
	}

	best = boundToTrack(best, geom.Points, 2*geom.HalfWidth*twoStepUsageFraction)
	geo.ForceClosure(best)
	return best
}

func (t *TwoStepModel) Offsets(geom *track.Geometry, speeds []float64, car Vehicle) []float64 {
	return projectOffsets(geom, t.Line(geom, car, referenceFriction))
}

// reduceCurvature nudges the top-quartile curvature points toward a
// geometrically estimated optimum, bounded to the track, then smooths to
// keep the path continuous. This approximates the paper's convex path
// optimization without a constrained solver.
func (t *TwoStepModel) reduceCurvature(path []geo.Vec2, speeds []float64, geom *track.Geometry) []geo.Vec2 {
	n := len(path)
	if n < 3 {
		return path
	}
	curvature := geo.Curvature(path)
	threshold := percentile(curvature, 0.75)
	maxOffset := 2 * geom.HalfWidth * twoStepUsageFraction

	out := append([]geo.Vec2(nil), path...)
	for i := 1; i < n-1; i++ {
		if curvature[i] <= threshold {
			continue
		}
		speed := 0.0
		if i < len(speeds) {
			speed = speeds[i]
		}
		candidate := optimalPoint(path[i-1], path[i], path[i+1], speed, maxOffset)

		// Rescale rather than clip so the nudge direction survives.
		disp := candidate.Sub(path[i])
		if dist := disp.Norm(); dist > geom.HalfWidth && dist > 0 {
			disp = disp.Scale(geom.HalfWidth / dist)
		}
		out[i] = path[i].Add(disp)
	}

	out = geo.MovingAveragePath(out)
	geo.ForceClosure(out)
	return out
}

// optimalPoint widens the line at a bend: perpendicular offset toward the
// inside of the turn, scaled by turn angle and local speed.
func optimalPoint(prev, curr, next geo.Vec2, speed, maxOffset float64) geo.Vec2 {
	v1 := curr.Sub(prev)
	v2 := next.Sub(curr)
	if v1.Norm() < 1e-6 || v2.Norm() < 1e-6 {
		return curr
	}
	v1n := v1.Normalized()
	v2n := v2.Normalized()

	turnFactor := geo.TurnAngle(prev, curr, next) / m.Pi
	speedFactor := m.Min(speed/50.0, 2.0)

	perpendicular := v1n.Perp()
	if v1n.Cross(v2n) < 0 {
		perpendicular = perpendicular.Scale(-1)
	}

	return curr.Add(perpendicular.Scale(maxOffset * turnFactor * speedFactor))
}

func percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	idx := int(p * float64(len(sorted)-1))
	return sorted[idx]
}
