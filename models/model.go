// Package models implements the racing-line solver strategies. Each model
// pairs a speed-profile solver with a lateral-offset solver behind one
// interface; the registry dispatches on a model identifier.
package models

import (
	m "math"

	"github.com/pkg/errors"
	"raceline.dev/raceline/geo"
	"raceline.dev/raceline/track"
)

// Vehicle holds the physical parameters of one car.
type Vehicle struct {
	ID               string  `json:"id"`
	Mass             float64 `json:"mass"`               // kg
	Length           float64 `json:"length"`             // m
	Width            float64 `json:"width"`              // m
	MaxSteeringAngle float64 `json:"max_steering_angle"` // degrees
	MaxAcceleration  float64 `json:"max_acceleration"`   // m/s^2
	DragCoefficient  float64 `json:"drag_coefficient"`
	LiftCoefficient  float64 `json:"lift_coefficient"`
	FrontalArea      float64 `json:"frontal_area,omitempty"` // m^2, derived if zero
}

// DefaultVehicle returns the reference parameter set the models are tuned
// around.
func DefaultVehicle(id string) Vehicle {
	return Vehicle{
		ID:               id,
		Mass:             1500,
		Length:           5.0,
		Width:            1.4,
		MaxSteeringAngle: 30,
		MaxAcceleration:  5.0,
		DragCoefficient:  1.0,
		LiftCoefficient:  3.0,
	}
}

// EffectiveFrontalArea returns the configured frontal area, or an estimate
// from the body rectangle when none was supplied.
func (v *Vehicle) EffectiveFrontalArea() float64 {
	if v.FrontalArea > 0 {
		return v.FrontalArea
	}
	return v.Length * v.Width * 0.7
}

// Validate rejects physically impossible parameters. Values are never
// silently coerced.
func (v *Vehicle) Validate() error {
	switch {
	case v.Mass <= 0:
		return errors.Errorf("vehicle %s: mass must be positive, got %v", v.ID, v.Mass)
	case v.Length <= 0:
		return errors.Errorf("vehicle %s: length must be positive, got %v", v.ID, v.Length)
	case v.Width <= 0:
		return errors.Errorf("vehicle %s: width must be positive, got %v", v.ID, v.Width)
	case v.MaxSteeringAngle <= 0 || v.MaxSteeringAngle >= 90:
		return errors.Errorf("vehicle %s: max steering angle must be in (0, 90) degrees, got %v", v.ID, v.MaxSteeringAngle)
	case v.MaxAcceleration <= 0:
		return errors.Errorf("vehicle %s: max acceleration must be positive, got %v", v.ID, v.MaxAcceleration)
	case v.DragCoefficient <= 0:
		return errors.Errorf("vehicle %s: drag coefficient must be positive, got %v", v.ID, v.DragCoefficient)
	case v.LiftCoefficient <= 0:
		return errors.Errorf("vehicle %s: lift coefficient must be positive, got %v", v.ID, v.LiftCoefficient)
	case v.FrontalArea < 0:
		return errors.Errorf("vehicle %s: frontal area must not be negative, got %v", v.ID, v.FrontalArea)
	}
	return nil
}

// Metadata describes a model to callers; it carries no algorithmic content.
type Metadata struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	TrackUsage      float64  `json:"track_usage"` // fraction of full track width the model will use
	Characteristics []string `json:"characteristics"`
}

// Model is one racing-line strategy. Speeds returns the per-point maximum
// achievable speed for the given line geometry. Offsets returns the signed
// lateral displacement from the centerline per point. Line produces the
// racing line in global coordinates.
//
// Implementations are stateless; all methods are safe for concurrent use.
type Model interface {
	Meta() Metadata
	Speeds(geom *track.Geometry, car Vehicle, friction float64) []float64
	Offsets(geom *track.Geometry, speeds []float64, car Vehicle) []float64
	Line(geom *track.Geometry, car Vehicle, friction float64) []geo.Vec2
}

// LapTime integrates segment time over a line using the mean of adjacent
// speeds, floored so a degenerate profile cannot divide by zero.
func LapTime(points []geo.Vec2, speeds []float64) float64 {
	const speedFloor = 5.0
	total := 0.0
	for i := 0; i+1 < len(points) && i+1 < len(speeds); i++ {
		d := points[i].DistanceTo(points[i+1])
		if d <= 0 {
			continue
		}
		v0 := m.Max(speeds[i], speedFloor)
		v1 := m.Max(speeds[i+1], speedFloor)
		total += d / ((v0 + v1) / 2)
	}
	return total
}

// lineFromOffsets displaces the centerline along its normals, rescales any
// offset past the bound, smooths, and re-enforces closure.
func lineFromOffsets(geom *track.Geometry, offsets []float64, maxOffset float64, sigmas ...float64) []geo.Vec2 {
	line := make([]geo.Vec2, geom.Len())
	for i := range line {
		off := offsets[i]
		if off > maxOffset {
			off = maxOffset
		} else if off < -maxOffset {
			off = -maxOffset
		}
		line[i] = geom.Points[i].Add(geom.Normals[i].Scale(off))
	}
	line = boundToTrack(line, geom.Points, maxOffset)
	if len(sigmas) > 0 {
		line = geo.SmoothPath(line, sigmas...)
	}
	geo.ForceClosure(line)
	return line
}

// boundToTrack rescales any point further than maxOffset from its centerline
// point back onto the allowed band, preserving displacement direction.
func boundToTrack(line, center []geo.Vec2, maxOffset float64) []geo.Vec2 {
	out := make([]geo.Vec2, len(line))
	for i := range line {
		disp := line[i].Sub(center[i])
		dist := disp.Norm()
		if dist > maxOffset && dist > 0 {
			disp = disp.Scale(maxOffset / dist)
		}
		out[i] = center[i].Add(disp)
	}
	return out
}

// projectOffsets recovers signed lateral offsets from a line by projecting
// its displacement onto the centerline normals.
func projectOffsets(geom *track.Geometry, line []geo.Vec2) []float64 {
	offsets := make([]float64, geom.Len())
	for i := range offsets {
		if i < len(line) {
			offsets[i] = line[i].Sub(geom.Points[i]).Dot(geom.Normals[i])
		}
	}
	return offsets
}

func sign(v float64) float64 {
	if v > 0 {
		return 1
	}
	if v < 0 {
		return -1
	}
	return 0
}
