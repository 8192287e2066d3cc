// Package race orchestrates an optimization request end to end: validate,
// build track geometry, resolve the model, solve a line per vehicle on a
// bounded worker pool, separate lanes, and sanitize every number that
// leaves the engine.
package race

import (
	"context"
	"log/slog"
	m "math"
	"sync"

	"github.com/pkg/errors"
	"raceline.dev/raceline/geo"
	"raceline.dev/raceline/models"
	"raceline.dev/raceline/track"
)

const (
	// minResamplePoints is the closed-spline floor: resampling a loop needs
	// at least 4 knots, so short tracks are upsampled to it.
	minResamplePoints = 4
	maxResamplePoints = 100
	maxWorkers        = 4

	// fallback values for a vehicle whose solve failed
	fallbackSpeed       = 10.0
	fallbackTimePerStep = 0.1
)

var (
	ErrNoVehicles       = errors.New("request must include at least one vehicle")
	ErrTooManyVehicles  = errors.Errorf("request must include at most %d vehicles", maxVehicles)
	ErrBadTrackWidth    = errors.New("track width must be positive")
	ErrBadFriction      = errors.New("friction coefficient must be positive")
	ErrBadResamplePoint = errors.Errorf("resample count must be at least %d", minResamplePoints)
)

// Request is one optimization job: a track, its physical parameters, and
// the vehicles to race on it.
type Request struct {
	TrackPoints []geo.Vec2       `json:"track_points"`
	TrackWidth  float64          `json:"track_width"`
	Friction    float64          `json:"friction"`
	Vehicles    []models.Vehicle `json:"vehicles"`
	ModelID     string           `json:"model_id,omitempty"`

	// ResamplePoints overrides the default centerline resolution. Zero means
	// min(100, len(TrackPoints)).
	ResamplePoints int `json:"resample_points,omitempty"`
}

// Result is the computed line for one vehicle. Every float in it is finite.
type Result struct {
	VehicleID   string     `json:"vehicle_id"`
	Coordinates []geo.Vec2 `json:"coordinates"`
	Speeds      []float64  `json:"speeds"`
	LapTime     float64    `json:"lap_time"`
	ModelID     string     `json:"model_id"`
	Fallback    bool       `json:"fallback,omitempty"`
}

// Optimizer runs requests against a model registry.
type Optimizer struct {
	registry *models.Registry
}

func NewOptimizer(registry *models.Registry) *Optimizer {
	return &Optimizer{registry: registry}
}

func (r *Request) validate() error {
	switch {
	case len(r.Vehicles) == 0:
		return ErrNoVehicles
	case len(r.Vehicles) > maxVehicles:
		return ErrTooManyVehicles
	case r.TrackWidth <= 0:
		return ErrBadTrackWidth
	case r.Friction <= 0:
		return ErrBadFriction
	case r.ResamplePoints != 0 && r.ResamplePoints < minResamplePoints:
		return ErrBadResamplePoint
	}
	for i := range r.Vehicles {
		if err := r.Vehicles[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (r *Request) resampleCount() int {
	if r.ResamplePoints != 0 {
		return r.ResamplePoints
	}
	count := len(r.TrackPoints)
	if count > maxResamplePoints {
		count = maxResamplePoints
	}
	if count < minResamplePoints {
		count = minResamplePoints
	}
	return count
}

// Optimize solves the request and returns one result per vehicle, in
// request order. Invalid input is the only error path: once the track
// geometry exists, a per-vehicle failure degrades to a centerline fallback
// instead of failing the request.
func (o *Optimizer) Optimize(ctx context.Context, req Request) ([]Result, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	geom, err := track.Process(req.TrackPoints, req.resampleCount(), req.TrackWidth/2)
	if err != nil {
		return nil, err
	}

	model, modelID := o.registry.Resolve(req.ModelID)
	slog.Info("optimizing",
		"model", modelID,
		"vehicles", len(req.Vehicles),
		"trackPoints", geom.Len(),
		"trackLength", geom.Length(),
	)

	biases := laneBiases(len(req.Vehicles), req.TrackWidth)
	headroom := maxAbsBias(biases)
	results := make([]Result, len(req.Vehicles))

	jobs := make(chan int)
	var wg sync.WaitGroup
	workers := len(req.Vehicles)
	if workers > maxWorkers {
		workers = maxWorkers
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = o.solveVehicle(ctx, geom, model, modelID, req, biases[i], headroom, i)
			}
		}()
	}
	for i := range req.Vehicles {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// solveVehicle computes one vehicle's line and profile. A panic inside a
// model is contained here and converted into the centerline fallback.
func (o *Optimizer) solveVehicle(ctx context.Context, geom *track.Geometry, model models.Model, modelID string, req Request, bias, headroom float64, index int) (result Result) {
	car := req.Vehicles[index]
	defer func() {
		if r := recover(); r != nil {
			slog.Error("model solve failed, using centerline fallback",
				"vehicle", car.ID,
				"model", modelID,
				"panic", r,
			)
			result = fallbackResult(geom, car, modelID)
		}
	}()

	if ctx.Err() != nil {
		return fallbackResult(geom, car, modelID)
	}

	line := model.Line(geom, car, req.Friction)
	line = applyLaneBias(line, geom, bias, headroom)

	lineGeom := track.FromLine(line, geom.HalfWidth)
	speeds := model.Speeds(lineGeom, car, req.Friction)

	return sanitizeResult(Result{
		VehicleID:   car.ID,
		Coordinates: line,
		Speeds:      speeds,
		LapTime:     models.LapTime(line, speeds),
		ModelID:     modelID,
	}, geom)
}

// fallbackResult is the degraded answer for a vehicle whose solve failed:
// the resampled centerline at a constant conservative speed.
func fallbackResult(geom *track.Geometry, car models.Vehicle, modelID string) Result {
	coords := append([]geo.Vec2(nil), geom.Points...)
	speeds := make([]float64, len(coords))
	for i := range speeds {
		speeds[i] = fallbackSpeed
	}
	return Result{
		VehicleID:   car.ID,
		Coordinates: coords,
		Speeds:      speeds,
		LapTime:     fallbackTimePerStep * float64(len(coords)),
		ModelID:     modelID,
		Fallback:    true,
	}
}

// sanitizeResult replaces every non-finite number so no NaN or Inf can
// reach a caller or a serialized payload.
func sanitizeResult(res Result, geom *track.Geometry) Result {
	for i, p := range res.Coordinates {
		if !p.Finite() {
			res.Coordinates[i] = geom.Points[geo.NearestIndex(geom.Points, safePoint(p, geom))]
		}
	}
	for i, v := range res.Speeds {
		if m.IsNaN(v) || m.IsInf(v, 0) {
			res.Speeds[i] = fallbackSpeed
		}
	}
	if m.IsNaN(res.LapTime) || m.IsInf(res.LapTime, 0) || res.LapTime <= 0 {
		res.LapTime = fallbackTimePerStep * float64(len(res.Coordinates))
	}
	return res
}

// safePoint strips non-finite components so NearestIndex has something to
// project; a fully bad point maps to the track start.
func safePoint(p geo.Vec2, geom *track.Geometry) geo.Vec2 {
	if len(geom.Points) == 0 {
		return geo.Vec2{}
	}
	anchor := geom.Points[0]
	if m.IsNaN(p.X) || m.IsInf(p.X, 0) {
		p.X = anchor.X
	}
	if m.IsNaN(p.Y) || m.IsInf(p.Y, 0) {
		p.Y = anchor.Y
	}
	return p
}
