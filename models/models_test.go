package models

import (
	m "math"
	"testing"

	"raceline.dev/raceline/aero"
	"raceline.dev/raceline/geo"
	"raceline.dev/raceline/track"
)

func circleTrack(t *testing.T, radius float64, halfWidth float64) *track.Geometry {
	t.Helper()
	count := 100
	points := make([]geo.Vec2, count+1)
	for i := 0; i < count; i++ {
		angle := 2 * m.Pi * float64(i) / float64(count)
		points[i] = geo.Vec2{X: radius * m.Cos(angle), Y: radius * m.Sin(angle)}
	}
	points[count] = points[0]
	geom, err := track.Process(points, count, halfWidth)
	if err != nil {
		t.Fatal(err)
	}
	return geom
}

func hairpinTrack(t *testing.T) *track.Geometry {
	t.Helper()
	points := []geo.Vec2{}
	for i := 0; i < 12; i++ {
		points = append(points, geo.Vec2{X: 300 * float64(i) / 12, Y: -15})
	}
	for i := 0; i < 16; i++ {
		angle := -m.Pi/2 + m.Pi*float64(i)/16
		points = append(points, geo.Vec2{X: 300 + 15*m.Cos(angle), Y: 15 * m.Sin(angle)})
	}
	for i := 0; i < 12; i++ {
		points = append(points, geo.Vec2{X: 300 - 300*float64(i)/12, Y: 15})
	}
	for i := 0; i < 16; i++ {
		angle := m.Pi/2 + m.Pi*float64(i)/16
		points = append(points, geo.Vec2{X: 60 * m.Cos(angle), Y: 15 * m.Sin(angle)})
	}
	points = append(points, points[0])
	geom, err := track.Process(points, 100, 5)
	if err != nil {
		t.Fatal(err)
	}
	return geom
}

func allModels() map[string]Model {
	a := aero.New()
	return map[string]Model{
		"physics":           NewPhysicsModel(a),
		"physics_optimized": NewPhysicsOptimizedModel(a),
		"basic":             NewBasicModel(),
		"twostep":           NewTwoStepModel(),
	}
}

func TestVehicleValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Vehicle)
		valid  bool
	}{
		{"default is valid", func(v *Vehicle) {}, true},
		{"zero mass", func(v *Vehicle) { v.Mass = 0 }, false},
		{"negative mass", func(v *Vehicle) { v.Mass = -100 }, false},
		{"zero length", func(v *Vehicle) { v.Length = 0 }, false},
		{"steering too wide", func(v *Vehicle) { v.MaxSteeringAngle = 95 }, false},
		{"zero acceleration", func(v *Vehicle) { v.MaxAcceleration = 0 }, false},
		{"negative frontal area", func(v *Vehicle) { v.FrontalArea = -1 }, false},
		{"explicit frontal area", func(v *Vehicle) { v.FrontalArea = 2.0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := DefaultVehicle("test")
			tt.mutate(&v)
			err := v.Validate()
			if tt.valid && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.valid && err == nil {
				t.Errorf("expected validation error")
			}
		})
	}
}

func TestEffectiveFrontalArea(t *testing.T) {
	v := DefaultVehicle("test")
	want := 5.0 * 1.4 * 0.7
	if got := v.EffectiveFrontalArea(); m.Abs(got-want) > 1e-9 {
		t.Errorf("derived frontal area = %v, want %v", got, want)
	}
	v.FrontalArea = 2.2
	if got := v.EffectiveFrontalArea(); got != 2.2 {
		t.Errorf("explicit frontal area = %v, want 2.2", got)
	}
}

func TestLapTime(t *testing.T) {
	points := []geo.Vec2{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 200, Y: 0}}
	speeds := []float64{20, 20, 20}
	if got := LapTime(points, speeds); m.Abs(got-10) > 1e-9 {
		t.Errorf("lap time = %v, want 10", got)
	}
}

func TestLapTimeFloorsSpeeds(t *testing.T) {
	points := []geo.Vec2{{X: 0, Y: 0}, {X: 100, Y: 0}}
	got := LapTime(points, []float64{0, 0})
	if m.Abs(got-20) > 1e-9 {
		t.Errorf("lap time with zero speeds = %v, want 20 (floored at 5 m/s)", got)
	}
}

func TestSpeedsWithinBounds(t *testing.T) {
	car := DefaultVehicle("test")
	for name, model := range allModels() {
		t.Run(name, func(t *testing.T) {
			for _, geom := range []*track.Geometry{circleTrack(t, 100, 6), hairpinTrack(t)} {
				speeds := model.Speeds(geom, car, 1.0)
				if len(speeds) != geom.Len() {
					t.Fatalf("want %d speeds, got %d", geom.Len(), len(speeds))
				}
				for i, v := range speeds {
					if m.IsNaN(v) || m.IsInf(v, 0) {
						t.Fatalf("speed[%d] not finite: %v", i, v)
					}
					if v < 5 || v > 100 {
						t.Fatalf("speed[%d] = %v outside [5, 100]", i, v)
					}
				}
			}
		})
	}
}

func TestLineStaysClosedAndOnTrack(t *testing.T) {
	car := DefaultVehicle("test")
	for name, model := range allModels() {
		t.Run(name, func(t *testing.T) {
			geom := circleTrack(t, 100, 6)
			line := model.Line(geom, car, 1.0)
			if len(line) == 0 {
				t.Fatal("empty line")
			}
			if line[0] != line[len(line)-1] {
				t.Errorf("line not closed: %v vs %v", line[0], line[len(line)-1])
			}
			for i, p := range line {
				if !p.Finite() {
					t.Fatalf("line[%d] not finite: %v", i, p)
				}
				// distance from the circular centerline is the radius error
				deviation := m.Abs(p.Norm() - 100)
				if deviation > 6.0+1e-6 {
					t.Fatalf("line[%d] leaves the track: deviation %v", i, deviation)
				}
			}
		})
	}
}

func TestOffsetsWithinHalfWidth(t *testing.T) {
	car := DefaultVehicle("test")
	for name, model := range allModels() {
		t.Run(name, func(t *testing.T) {
			geom := hairpinTrack(t)
			speeds := model.Speeds(geom, car, 1.0)
			offsets := model.Offsets(geom, speeds, car)
			if len(offsets) != geom.Len() {
				t.Fatalf("want %d offsets, got %d", geom.Len(), len(offsets))
			}
			for i, off := range offsets {
				if m.IsNaN(off) || m.IsInf(off, 0) {
					t.Fatalf("offset[%d] not finite", i)
				}
				if m.Abs(off) > geom.HalfWidth+0.5 {
					t.Fatalf("offset[%d] = %v beyond half width %v", i, off, geom.HalfWidth)
				}
			}
		})
	}
}

func TestFlatGripCornerSpeed(t *testing.T) {
	// on a constant-radius circle the basic model's corner speed follows
	// v = sqrt(mu * g * r)
	geom := circleTrack(t, 100, 6)
	speeds := NewBasicModel().Speeds(geom, DefaultVehicle("test"), 1.0)
	want := m.Sqrt(1.0 * 9.81 * 100)
	for i := 5; i < len(speeds)-5; i++ {
		if m.Abs(speeds[i]-want) > want*0.2 {
			t.Fatalf("speed[%d] = %v, want about %v", i, speeds[i], want)
		}
	}
}

func TestHigherFrictionFasterLap(t *testing.T) {
	geom := hairpinTrack(t)
	car := DefaultVehicle("test")
	model := NewPhysicsModel(aero.New())

	slow := model.Speeds(geom, car, 0.6)
	fast := model.Speeds(geom, car, 1.2)
	slowLap := LapTime(geom.Points, slow)
	fastLap := LapTime(geom.Points, fast)
	if fastLap >= slowLap {
		t.Errorf("more grip should mean a faster lap: %v vs %v", fastLap, slowLap)
	}
}

func TestOptimizedNoSlowerThanBase(t *testing.T) {
	geom := hairpinTrack(t)
	car := DefaultVehicle("test")
	a := aero.New()

	base := NewPhysicsModel(a)
	opt := NewPhysicsOptimizedModel(a)

	baseLine := base.Line(geom, car, 1.0)
	baseLap := LapTime(baseLine, base.Speeds(track.FromLine(baseLine, geom.HalfWidth), car, 1.0))

	optLine := opt.Line(geom, car, 1.0)
	optLap := LapTime(optLine, base.Speeds(track.FromLine(optLine, geom.HalfWidth), car, 1.0))

	// the iterative variant keeps its best lap, so it may match but should
	// not be meaningfully worse
	if optLap > baseLap*1.1 {
		t.Errorf("optimized lap %v much slower than base %v", optLap, baseLap)
	}
}

func TestRegistryResolve(t *testing.T) {
	r := NewRegistry(aero.New())

	model, id := r.Resolve("basic")
	if id != "basic" || model.Meta().ID != "basic" {
		t.Errorf("resolve basic returned %q", id)
	}

	model, id = r.Resolve("")
	if id != DefaultModelID || model == nil {
		t.Errorf("empty id should resolve to default, got %q", id)
	}

	model, id = r.Resolve("does-not-exist")
	if id != DefaultModelID || model == nil {
		t.Errorf("unknown id should fall back to default, got %q", id)
	}
}

func TestRegistryList(t *testing.T) {
	r := NewRegistry(aero.New())
	metas := r.List()
	if len(metas) != 4 {
		t.Fatalf("want 4 models, got %d", len(metas))
	}
	for i := 1; i < len(metas); i++ {
		if metas[i-1].ID >= metas[i].ID {
			t.Errorf("list not sorted: %q before %q", metas[i-1].ID, metas[i].ID)
		}
	}
	for _, meta := range metas {
		if meta.TrackUsage <= 0 || meta.TrackUsage > 1 {
			t.Errorf("model %s track usage %v outside (0, 1]", meta.ID, meta.TrackUsage)
		}
	}
}

func TestRegistryRegisterOverride(t *testing.T) {
	r := NewRegistry(aero.New())
	r.Register(NewBasicModel())
	if !r.Has("basic") {
		t.Errorf("re-registered model missing")
	}
}
