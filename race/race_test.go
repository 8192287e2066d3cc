package race

import (
	"context"
	m "math"
	"testing"

	"raceline.dev/raceline/aero"
	"raceline.dev/raceline/geo"
	"raceline.dev/raceline/models"
	"raceline.dev/raceline/track"
)

func circlePoints(radius float64, count int) []geo.Vec2 {
	points := make([]geo.Vec2, count+1)
	for i := 0; i < count; i++ {
		angle := 2 * m.Pi * float64(i) / float64(count)
		points[i] = geo.Vec2{X: radius * m.Cos(angle), Y: radius * m.Sin(angle)}
	}
	points[count] = points[0]
	return points
}

func testOptimizer() *Optimizer {
	return NewOptimizer(models.NewRegistry(aero.New()))
}

func circleRequest(vehicles int) Request {
	cars := make([]models.Vehicle, vehicles)
	for i := range cars {
		cars[i] = models.DefaultVehicle(string(rune('a' + i)))
	}
	return Request{
		TrackPoints: circlePoints(100, 100),
		TrackWidth:  12,
		Friction:    1.0,
		Vehicles:    cars,
	}
}

func TestOptimizeValidation(t *testing.T) {
	opt := testOptimizer()
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*Request)
	}{
		{"no vehicles", func(r *Request) { r.Vehicles = nil }},
		{"too many vehicles", func(r *Request) {
			r.Vehicles = make([]models.Vehicle, 7)
			for i := range r.Vehicles {
				r.Vehicles[i] = models.DefaultVehicle("x")
			}
		}},
		{"zero width", func(r *Request) { r.TrackWidth = 0 }},
		{"negative friction", func(r *Request) { r.Friction = -0.5 }},
		{"bad vehicle", func(r *Request) { r.Vehicles[0].Mass = -1 }},
		{"too few points", func(r *Request) { r.TrackPoints = r.TrackPoints[:2] }},
		{"bad resample count", func(r *Request) { r.ResamplePoints = 2 }},
		{"resample count below spline floor", func(r *Request) { r.ResamplePoints = 3 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := circleRequest(1)
			tt.mutate(&req)
			if _, err := opt.Optimize(ctx, req); err == nil {
				t.Errorf("expected validation error")
			}
		})
	}
}

func TestOptimizeCircle(t *testing.T) {
	opt := testOptimizer()
	results, err := opt.Optimize(context.Background(), circleRequest(1))
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("want 1 result, got %d", len(results))
	}

	res := results[0]
	if res.Fallback {
		t.Errorf("circle optimization should not need the fallback")
	}
	if res.ModelID != models.DefaultModelID {
		t.Errorf("model id = %q, want default", res.ModelID)
	}
	if len(res.Coordinates) < 3 || len(res.Speeds) != len(res.Coordinates) {
		t.Fatalf("inconsistent result sizes: %d coords, %d speeds", len(res.Coordinates), len(res.Speeds))
	}
	if res.Coordinates[0] != res.Coordinates[len(res.Coordinates)-1] {
		t.Errorf("result line is not closed")
	}
	if res.LapTime <= 0 || m.IsInf(res.LapTime, 0) || m.IsNaN(res.LapTime) {
		t.Errorf("lap time = %v", res.LapTime)
	}
	for i, p := range res.Coordinates {
		if !p.Finite() {
			t.Fatalf("coordinate %d not finite", i)
		}
		if dev := m.Abs(p.Norm() - 100); dev > 6.5 {
			t.Fatalf("coordinate %d leaves the track: deviation %v", i, dev)
		}
	}
	for i, v := range res.Speeds {
		if m.IsNaN(v) || m.IsInf(v, 0) || v < 5 || v > 100 {
			t.Fatalf("speed %d = %v", i, v)
		}
	}
}

func TestOptimizeAllModels(t *testing.T) {
	opt := testOptimizer()
	for _, id := range []string{"physics", "physics_optimized", "basic", "twostep"} {
		t.Run(id, func(t *testing.T) {
			req := circleRequest(1)
			req.ModelID = id
			results, err := opt.Optimize(context.Background(), req)
			if err != nil {
				t.Fatal(err)
			}
			if results[0].ModelID != id {
				t.Errorf("model id = %q, want %q", results[0].ModelID, id)
			}
		})
	}
}

func TestUnknownModelFallsBack(t *testing.T) {
	opt := testOptimizer()
	req := circleRequest(1)
	req.ModelID = "no-such-model"
	results, err := opt.Optimize(context.Background(), req)
	if err != nil {
		t.Fatalf("unknown model must not fail the request: %v", err)
	}
	if results[0].ModelID != models.DefaultModelID {
		t.Errorf("model id = %q, want default", results[0].ModelID)
	}
}

func TestTwoVehiclesSeparated(t *testing.T) {
	opt := testOptimizer()
	results, err := opt.Optimize(context.Background(), circleRequest(2))
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("want 2 results, got %d", len(results))
	}

	a, b := results[0].Coordinates, results[1].Coordinates
	n := min(len(a), len(b))
	total := 0.0
	for i := 0; i < n; i++ {
		total += a[i].DistanceTo(b[i])
	}
	mean := total / float64(n)
	if mean < 1.0 {
		t.Errorf("lanes overlap: mean separation %v m", mean)
	}
}

func TestThreeVehiclesKeepSeparation(t *testing.T) {
	opt := testOptimizer()
	req := circleRequest(3)
	req.TrackWidth = 15

	results, err := opt.Optimize(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Fatalf("want 3 results, got %d", len(results))
	}

	// Width 15 puts the configured lane separation at its 3 m ceiling; every
	// pair of corresponding points must stay at least that far apart.
	const wantSep = 3.0
	for a := 0; a < len(results); a++ {
		for b := a + 1; b < len(results); b++ {
			la, lb := results[a].Coordinates, results[b].Coordinates
			if len(la) != len(lb) {
				t.Fatalf("lane lengths differ: %d vs %d", len(la), len(lb))
			}
			for i := range la {
				if d := la[i].DistanceTo(lb[i]); d < wantSep-0.05 {
					t.Fatalf("lanes %d and %d closer than %v m at point %d: %v", a, b, wantSep, i, d)
				}
			}
		}
	}
	for i, res := range results {
		for j, p := range res.Coordinates {
			if dev := m.Abs(p.Norm() - 100); dev > 0.45*15+0.01 {
				t.Fatalf("vehicle %d coordinate %d outside the lane bound: deviation %v", i, j, dev)
			}
		}
	}
}

func TestSixVehicles(t *testing.T) {
	opt := testOptimizer()
	results, err := opt.Optimize(context.Background(), circleRequest(6))
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 6 {
		t.Fatalf("want 6 results, got %d", len(results))
	}
	// Width 12 caps lane displacement at 0.45*12 = 5.4 m from the centerline,
	// and the cap must survive the lane smoothing.
	for i, res := range results {
		for j, p := range res.Coordinates {
			if dev := m.Abs(p.Norm() - 100); dev > 5.4+0.01 {
				t.Fatalf("vehicle %d coordinate %d outside the lane bound: deviation %v", i, j, dev)
			}
		}
	}
}

func TestThreePointTrack(t *testing.T) {
	opt := testOptimizer()
	req := circleRequest(1)
	req.TrackPoints = []geo.Vec2{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 50, Y: 80}}

	results, err := opt.Optimize(context.Background(), req)
	if err != nil {
		t.Fatalf("3-point track rejected: %v", err)
	}
	res := results[0]
	if len(res.Coordinates) < 4 || len(res.Speeds) != len(res.Coordinates) {
		t.Fatalf("inconsistent result sizes: %d coords, %d speeds", len(res.Coordinates), len(res.Speeds))
	}
	if res.Coordinates[0] != res.Coordinates[len(res.Coordinates)-1] {
		t.Errorf("result line is not closed")
	}
	for i, p := range res.Coordinates {
		if !p.Finite() {
			t.Fatalf("coordinate %d not finite", i)
		}
	}
	if res.LapTime <= 0 || m.IsInf(res.LapTime, 0) || m.IsNaN(res.LapTime) {
		t.Errorf("lap time = %v", res.LapTime)
	}
}

// panicModel blows up during the solve to exercise the per-vehicle
// fallback path.
type panicModel struct{}

func (panicModel) Meta() models.Metadata {
	return models.Metadata{ID: "panic", Name: "Panic", TrackUsage: 0.5}
}
func (panicModel) Speeds(*track.Geometry, models.Vehicle, float64) []float64 {
	panic("speeds exploded")
}
func (panicModel) Offsets(*track.Geometry, []float64, models.Vehicle) []float64 {
	panic("offsets exploded")
}
func (panicModel) Line(*track.Geometry, models.Vehicle, float64) []geo.Vec2 {
	panic("line exploded")
}

func TestFallbackOnPanic(t *testing.T) {
	registry := models.NewRegistry(aero.New())
	registry.Register(panicModel{})
	opt := NewOptimizer(registry)

	req := circleRequest(1)
	req.ModelID = "panic"
	results, err := opt.Optimize(context.Background(), req)
	if err != nil {
		t.Fatalf("a panicking model must not fail the request: %v", err)
	}

	res := results[0]
	if !res.Fallback {
		t.Fatalf("expected the fallback result")
	}
	if len(res.Coordinates) == 0 || len(res.Speeds) != len(res.Coordinates) {
		t.Fatalf("fallback result malformed")
	}
	for i, v := range res.Speeds {
		if v != 10.0 {
			t.Fatalf("fallback speed[%d] = %v, want 10", i, v)
		}
	}
	want := 0.1 * float64(len(res.Coordinates))
	if m.Abs(res.LapTime-want) > 1e-9 {
		t.Errorf("fallback lap time = %v, want %v", res.LapTime, want)
	}
}

func TestSanitizeResult(t *testing.T) {
	geom, err := track.Process(circlePoints(100, 50), 50, 6)
	if err != nil {
		t.Fatal(err)
	}
	res := sanitizeResult(Result{
		Coordinates: []geo.Vec2{{X: 1, Y: 2}, {X: m.NaN(), Y: 3}, {X: 4, Y: m.Inf(1)}},
		Speeds:      []float64{20, m.NaN(), m.Inf(-1)},
		LapTime:     m.NaN(),
	}, geom)

	for i, p := range res.Coordinates {
		if !p.Finite() {
			t.Errorf("coordinate %d still not finite: %v", i, p)
		}
	}
	for i, v := range res.Speeds {
		if m.IsNaN(v) || m.IsInf(v, 0) {
			t.Errorf("speed %d still not finite: %v", i, v)
		}
	}
	if m.IsNaN(res.LapTime) || res.LapTime <= 0 {
		t.Errorf("lap time still bad: %v", res.LapTime)
	}
}

func TestCancelledContext(t *testing.T) {
	opt := testOptimizer()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := opt.Optimize(ctx, circleRequest(1)); err == nil {
		t.Errorf("cancelled context should surface an error")
	}
}
