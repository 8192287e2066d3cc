package models

import (
	"log/slog"
	m "math"

	"raceline.dev/raceline/aero"
	"raceline.dev/raceline/geo"
	"raceline.dev/raceline/track"
	"raceline.dev/raceline/utils"
)

// Physics model tuning. Each model variant carries its own constants; they
// are deliberately not shared across models.
const (
	physicsMinSpeed = 5.0
	physicsMaxSpeed = 100.0

	physicsCornerThreshold = 0.003
	physicsUsageFraction   = 0.4

	cornerIterations  = 3
	cornerTolerance   = 0.5
	cornerDampingOld  = 0.7
	cornerDampingNew  = 0.3
	cornerSpeedGuess  = 30.0

	referenceMass  = 1500.0
	referenceAccel = 5.0
	safetyFactor   = 0.85

	phaseApex  = 0.9
	phaseEntry = -0.7
	phaseExit  = -0.6

	straightLookAhead = 15
	phaseWindow       = 10
	edgeSkip          = 5
)

// PhysicsModel solves per-point closed-form vehicle dynamics: cornering
// speed from lateral grip including downforce, straight-line speed from the
// drag/drive force balance, and a late-apex offset heuristic.
type PhysicsModel struct {
	Aero *aero.Model
}

func NewPhysicsModel(a *aero.Model) *PhysicsModel {
	return &PhysicsModel{Aero: a}
}

func (p *PhysicsModel) Meta() Metadata {
	return Metadata{
		ID:              "physics",
		Name:            "Physics-Based Model",
		Description:     "Closed-form vehicle dynamics with speed-dependent aerodynamics",
		TrackUsage:      physicsUsageFraction,
		Characteristics: []string{"Research-based", "Clean", "Physics-accurate"},
	}
}

func (p *PhysicsModel) Speeds(geom *track.Geometry, car Vehicle, friction float64) []float64 {
	speeds := make([]float64, geom.Len())
	for i, k := range geom.Curvature {
		if m.Abs(k) > 1e-6 {
			speeds[i] = p.cornerSpeed(k, car, friction)
		} else {
			speeds[i] = p.straightSpeed(car)
		}
	}

	speeds = geo.GaussianSmooth(speeds, 2.0)
	for i := range speeds {
		speeds[i] = utils.Clamp(utils.FiniteOr(speeds[i], physicsMinSpeed), physicsMinSpeed, physicsMaxSpeed)
	}
	return speeds
}

// cornerSpeed solves v = sqrt(mu*(mg + F_down(v)) / (m*|kappa|)) by damped
// fixed-point iteration, after checking that the car can steer the radius at
// all.
func (p *PhysicsModel) cornerSpeed(kappa float64, car Vehicle, friction float64) float64 {
	area := car.EffectiveFrontalArea()
	radius := 1 / m.Abs(kappa)

	// A corner tighter than the steering geometry allows caps speed hard.
	wheelbase := car.Length * 0.6
	steerRad := car.MaxSteeringAngle * m.Pi / 180
	minRadius := wheelbase / m.Tan(steerRad)
	if radius < minRadius {
		return m.Min(15.0, m.Sqrt(friction*aero.Gravity*radius))
	}

	v := cornerSpeedGuess
	for range cornerIterations {
		_, downforce := p.Aero.Forces(v, area, car.DragCoefficient, car.LiftCoefficient)
		normalForce := car.Mass*aero.Gravity + downforce
		lateralForce := friction * normalForce

		vSq := lateralForce / (car.Mass * m.Abs(kappa))
		vNew := 10.0
		if vSq > 0 {
			vNew = m.Sqrt(vSq)
		}

		if m.Abs(vNew-v) < cornerTolerance {
			v = vNew
			break
		}
		v = cornerDampingOld*v + cornerDampingNew*vNew
	}

	// Heavier cars corner slower, stronger cars carry more speed.
	massPenalty := m.Sqrt(referenceMass / car.Mass)
	accelBoost := m.Sqrt(car.MaxAcceleration / referenceAccel)
	return utils.Clamp(safetyFactor*v*massPenalty*accelBoost, physicsMinSpeed, physicsMaxSpeed)
}

func (p *PhysicsModel) straightSpeed(car Vehicle) float64 {
	driveForce := car.Mass * car.MaxAcceleration
	v := p.Aero.DragLimitedSpeed(driveForce, car.EffectiveFrontalArea(), car.DragCoefficient)
	return m.Min(v, physicsMaxSpeed)
}

// Offsets implements the late-apex strategy: wide entry, late apex toward
// the inside, wide exit, with straights blending toward the outside of the
// next corner.
func (p *PhysicsModel) Offsets(geom *track.Geometry, speeds []float64, car Vehicle) []float64 {
	n := geom.Len()
	offsets := make([]float64, n)
	curvature := geom.SmoothedSignedCurvature(1.0)
	maxOffset := 2 * geom.HalfWidth * physicsUsageFraction

	for i := range offsets {
		if i < edgeSkip || i > n-edgeSkip-1 {
			continue
		}
		if m.Abs(curvature[i]) > physicsCornerThreshold {
			offsets[i] = p.cornerOffset(i, curvature, speeds, maxOffset)
		} else {
			offsets[i] = p.straightOffset(i, curvature, speeds, maxOffset, car)
		}
	}
	return offsets
}

func (p *PhysicsModel) cornerOffset(i int, curvature, speeds []float64, maxOffset float64) float64 {
	cornerDirection := -sign(curvature[i])

	speedFactor := 0.6
	if speeds[i] < 30 {
		speedFactor = 1.0
	} else if speeds[i] < 50 {
		speedFactor = 0.8
	}

	ahead := windowMeanAbs(curvature, i, i+phaseWindow)
	behind := windowMeanAbs(curvature, i-phaseWindow, i)
	current := m.Abs(curvature[i])

	var phaseFactor float64
	switch {
	case behind < current && ahead < current:
		phaseFactor = phaseApex * speedFactor
	case behind < current:
		phaseFactor = phaseEntry * speedFactor
	default:
		phaseFactor = phaseExit * speedFactor
	}

	return maxOffset * phaseFactor * cornerDirection
}

func (p *PhysicsModel) straightOffset(i int, curvature, speeds []float64, maxOffset float64, car Vehicle) float64 {
	n := len(curvature)
	limit := min(straightLookAhead, n-i-1)
	for j := i + 1; j <= i+limit; j++ {
		if m.Abs(curvature[j]) <= physicsCornerThreshold {
			continue
		}
		cornerDirection := -sign(curvature[j])
		// distanceToCorner counts sample indices, not meters; the 0.1 on
		// brakingDistance below is tuned against that scale, so the two
		// must change together.
		distanceToCorner := float64(j - i)
		brakingDistance := speeds[j] * speeds[j] / (2 * car.MaxAcceleration)

		if distanceToCorner <= brakingDistance*0.1 {
			transition := 1 - distanceToCorner/(brakingDistance*0.1)
			return maxOffset * 0.7 * (-cornerDirection) * transition
		}
		break
	}
	return 0
}

func (p *PhysicsModel) Line(geom *track.Geometry, car Vehicle, friction float64) []geo.Vec2 {
	speeds := p.Speeds(geom, car, friction)
	offsets := p.Offsets(geom, speeds, car)
	maxOffset := 2 * geom.HalfWidth * physicsUsageFraction
	return lineFromOffsets(geom, offsets, maxOffset, 1.0)
}

func windowMeanAbs(values []float64, lo, hi int) float64 {
	lo = max(lo, 0)
	hi = min(hi, len(values))
	if hi <= lo {
		return 0
	}
	sum := 0.0
	for _, v := range values[lo:hi] {
		sum += m.Abs(v)
	}
	return sum / float64(hi-lo)
}

// PhysicsOptimizedModel wraps the physics model in an outer lap-time
// minimization loop: recompute the line, score it, and smooth high-speed
// sections to shed curvature until the lap time stops improving.
type PhysicsOptimizedModel struct {
	PhysicsModel
}

const (
	optimizeIterations  = 4
	optimizeConvergence = 0.15 // seconds
	optimizeSpeedGate   = 40.0
	optimizeBlend       = 0.3
)

func NewPhysicsOptimizedModel(a *aero.Model) *PhysicsOptimizedModel {
	return &PhysicsOptimizedModel{PhysicsModel{Aero: a}}
}

func (p *PhysicsOptimizedModel) Meta() Metadata {
	return Metadata{
		ID:              "physics_optimized",
		Name:            "Physics-Based Model (Optimized)",
		Description:     "Physics model with iterative lap time minimization",
		TrackUsage:      physicsUsageFraction,
		Characteristics: []string{"Research-based", "Optimized", "Lap time minimization"},
	}
}

func (p *PhysicsOptimizedModel) Line(geom *track.Geometry, car Vehicle, friction float64) []geo.Vec2 {
	current := geom
	bestLapTime := m.Inf(1)
	bestLine := append([]geo.Vec2(nil), geom.Points...)
	prevLapTime := m.Inf(1)

	for iteration := range optimizeIterations {
		line := p.PhysicsModel.Line(current, car, friction)
		// Offsets above are relative to the current iterate, so cap the
		// accumulated displacement against the original centerline.
		line = boundToTrack(line, geom.Points, 2*geom.HalfWidth*physicsUsageFraction)
		lineGeom := track.FromLine(line, geom.HalfWidth)
		speeds := p.Speeds(lineGeom, car, friction)
		lapTime := LapTime(line, speeds)

		if lapTime < bestLapTime {
			bestLapTime = lapTime
			bestLine = line
		}
		slog.Debug("lap time optimization pass",
			"iteration", iteration+1,
			"lapTime", lapTime,
			"best", bestLapTime,
		)

		if iteration > 0 && m.Abs(prevLapTime-lapTime) < optimizeConvergence {
			break
		}
		prevLapTime = lapTime

		if iteration < optimizeIterations-1 {
			current = track.FromLine(p.relaxFastSections(line, speeds), geom.HalfWidth)
		}
	}

	geo.ForceClosure(bestLine)
	return bestLine
}

func (p *PhysicsOptimizedModel) Offsets(geom *track.Geometry, speeds []float64, car Vehicle) []float64 {
	// Recover offsets from the optimized line so the contract matches the
	// other models.
	return projectOffsets(geom, p.Line(geom, car, referenceFriction))
}

// relaxFastSections blends high-speed points toward a 3-point average,
// trading lateral position for lower curvature where speed is already high.
func (p *PhysicsOptimizedModel) relaxFastSections(line []geo.Vec2, speeds []float64) []geo.Vec2 {
	out := append([]geo.Vec2(nil), line...)
	for i := 2; i < len(line)-2; i++ {
		if speeds[i] <= optimizeSpeedGate {
			continue
		}
		smooth := line[i-1].Add(line[i].Scale(2)).Add(line[i+1]).Scale(0.25)
		out[i] = line[i].Scale(1 - optimizeBlend).Add(smooth.Scale(optimizeBlend))
	}
	return out
}

// referenceFriction is used only when a caller asks for offsets without a
// friction context.
const referenceFriction = 1.0
