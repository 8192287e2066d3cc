// Package aero implements a speed-dependent aerodynamic force model. Drag
// and lift coefficients come from tabulated speed maps interpolated with a
// cubic spline; forces follow F = 0.5 * rho * v^2 * C * A.
package aero

import (
	m "math"

	"raceline.dev/raceline/geo"
	"raceline.dev/raceline/utils"
)

const (
	// AirDensity is the standard sea-level air density in kg/m^3.
	AirDensity = 1.225
	// Gravity in m/s^2.
	Gravity = 9.81

	// ReferenceDragCoeff and ReferenceLiftCoeff anchor the coefficient maps;
	// a vehicle's own coefficients scale the maps relative to these.
	ReferenceDragCoeff = 1.0
	ReferenceLiftCoeff = 3.0

	maxLookupSpeed = 120.0

	dragLimitIterations = 10
	dragLimitTolerance  = 0.1
)

// Coefficients are the aerodynamic coefficients at one speed.
type Coefficients struct {
	Drag             float64
	Lift             float64
	CenterOfPressure float64 // meters behind the front axle
}

// Model interpolates speed-dependent coefficient maps. The zero value is not
// usable; construct with New.
type Model struct {
	drag *geo.CubicSpline
	lift *geo.CubicSpline
	cop  *geo.CubicSpline
}

// Default coefficient maps, sampled every 20 m/s from standstill to 100 m/s.
var (
	speedSamples = []float64{0, 20, 40, 60, 80, 100}
	dragSamples  = []float64{1.0, 1.2, 1.4, 1.6, 1.8, 2.0}
	liftSamples  = []float64{0.5, 1.5, 2.5, 3.2, 3.7, 4.0}
	copSamples   = []float64{2.5, 2.6, 2.7, 2.8, 2.9, 3.0}
)

func New() *Model {
	drag, err := geo.NewCubicSpline(speedSamples, dragSamples)
	utils.Check(err)
	lift, err := geo.NewCubicSpline(speedSamples, liftSamples)
	utils.Check(err)
	cop, err := geo.NewCubicSpline(speedSamples, copSamples)
	utils.Check(err)
	return &Model{drag: drag, lift: lift, cop: cop}
}

// CoefficientsAt returns the interpolated coefficients at the given speed,
// clamped to physically plausible ranges to guard against spline overshoot.
func (a *Model) CoefficientsAt(speed float64) Coefficients {
	speed = m.Max(0, m.Min(speed, maxLookupSpeed))
	return Coefficients{
		Drag:             m.Max(0.3, m.Min(a.drag.At(speed), 3.0)),
		Lift:             m.Max(0.5, m.Min(a.lift.At(speed), 8.0)),
		CenterOfPressure: m.Max(2.0, m.Min(a.cop.At(speed), 3.5)),
	}
}

// Forces returns (drag, downforce) in Newtons at the given speed. dragCoeff
// and liftCoeff are the vehicle's base coefficients; they scale the
// speed-dependent maps relative to the reference values.
func (a *Model) Forces(speed, frontalArea, dragCoeff, liftCoeff float64) (drag, downforce float64) {
	coeffs := a.CoefficientsAt(speed)
	cd := coeffs.Drag * dragCoeff / ReferenceDragCoeff
	cl := coeffs.Lift * liftCoeff / ReferenceLiftCoeff

	q := 0.5 * AirDensity * speed * speed * frontalArea
	return q * cd, q * cl
}

// DragLimitedSpeed solves for the speed at which drag equals the available
// driving force. Since the drag coefficient itself depends on speed this is
// a fixed-point iteration with a hard cap.
func (a *Model) DragLimitedSpeed(availableForce, frontalArea, dragCoeff float64) float64 {
	if availableForce <= 0 || frontalArea <= 0 {
		return 10.0
	}

	estimate := 50.0
	for range dragLimitIterations {
		coeffs := a.CoefficientsAt(estimate)
		cd := coeffs.Drag * dragCoeff / ReferenceDragCoeff
		if cd <= 0 {
			break
		}
		next := m.Sqrt(2 * availableForce / (AirDensity * cd * frontalArea))
		if m.Abs(next-estimate) < dragLimitTolerance {
			estimate = next
			break
		}
		estimate = next
	}

	return m.Max(10.0, m.Min(estimate, maxLookupSpeed))
}
