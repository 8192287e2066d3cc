package settings

import (
	"testing"

	"raceline.dev/raceline/store"
)

func testSettings(t *testing.T) *RacelineSettings {
	t.Helper()
	s, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return New(s)
}

func TestDefaults(t *testing.T) {
	s := testSettings(t)
	if s.DefaultModel != "physics" {
		t.Errorf("default model = %q", s.DefaultModel)
	}
	if s.DefaultFriction != 1.0 || s.DefaultWidth != 12.0 {
		t.Errorf("default track parameters: friction %v width %v", s.DefaultFriction, s.DefaultWidth)
	}
	if s.ResamplePoints != 100 || s.MaxVehicles != 6 {
		t.Errorf("default limits: points %v vehicles %v", s.ResamplePoints, s.MaxVehicles)
	}
	if s.LogLevel != "error" {
		t.Errorf("default log level = %q", s.LogLevel)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	st, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	first := New(st)
	first.DefaultModel = "twostep"
	first.DefaultFriction = 0.75
	first.ResamplePoints = 60
	first.Save()

	second := New(st)
	if !second.Load() {
		t.Fatal("load failed")
	}
	if second.DefaultModel != "twostep" {
		t.Errorf("model = %q, want twostep", second.DefaultModel)
	}
	if second.DefaultFriction != 0.75 {
		t.Errorf("friction = %v, want 0.75", second.DefaultFriction)
	}
	if second.ResamplePoints != 60 {
		t.Errorf("resample points = %v, want 60", second.ResamplePoints)
	}
}

func TestLoadMissingKeepsDefaults(t *testing.T) {
	s := testSettings(t)
	if s.Load() {
		t.Errorf("load of an empty store should report failure")
	}
	if s.DefaultModel != "physics" {
		t.Errorf("defaults lost after failed load: %q", s.DefaultModel)
	}
}

func TestRecommended(t *testing.T) {
	s := testSettings(t)
	s.Recommended()
	if s.DefaultModel != "physics_optimized" {
		t.Errorf("recommended model = %q", s.DefaultModel)
	}
	if s.LogLevel != "info" {
		t.Errorf("recommended log level = %q", s.LogLevel)
	}
}
