package catalog

import (
	m "math"
	"testing"

	"raceline.dev/raceline/geo"
	"raceline.dev/raceline/store"
	"raceline.dev/raceline/track"
)

func testCatalog(t *testing.T) *Catalog {
	t.Helper()
	s, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return New(s)
}

func TestBuiltinsAreProcessable(t *testing.T) {
	for _, bt := range Builtins() {
		t.Run(bt.Name, func(t *testing.T) {
			if bt.Width <= 0 || bt.Friction <= 0 {
				t.Fatalf("bad physical parameters: width %v friction %v", bt.Width, bt.Friction)
			}
			if _, err := track.Process(bt.Points, 100, bt.Width/2); err != nil {
				t.Fatalf("builtin does not process: %v", err)
			}
		})
	}
}

func TestGetBuiltin(t *testing.T) {
	c := testCatalog(t)
	got, err := c.Get("circle")
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Circle" || !got.Builtin {
		t.Errorf("got %q builtin=%v", got.Name, got.Builtin)
	}
}

func TestGetMissing(t *testing.T) {
	c := testCatalog(t)
	if _, err := c.Get("atlantis raceway"); err == nil {
		t.Errorf("expected error for unknown track")
	}
}

func TestPutGetRemove(t *testing.T) {
	c := testCatalog(t)
	custom := Track{
		Name:     "My Test Track",
		Points:   []geo.Vec2{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 80}, {X: 0, Y: 80}, {X: 0, Y: 0}},
		Width:    10,
		Friction: 0.9,
	}
	if err := c.Put(custom); err != nil {
		t.Fatal(err)
	}

	got, err := c.Get("My Test Track")
	if err != nil {
		t.Fatal(err)
	}
	if got.Builtin {
		t.Errorf("stored track must not be marked builtin")
	}
	if len(got.Points) != 5 || got.Width != 10 {
		t.Errorf("stored track came back different: %+v", got)
	}

	if err := c.Remove("My Test Track"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Get("My Test Track"); err == nil {
		t.Errorf("track still resolvable after remove")
	}
}

func TestPutRejectsDegenerate(t *testing.T) {
	c := testCatalog(t)
	err := c.Put(Track{Name: "bad", Points: []geo.Vec2{{X: 0, Y: 0}, {X: 1, Y: 1}}})
	if err == nil {
		t.Errorf("expected error for a 2-point track")
	}
}

func TestListIncludesStored(t *testing.T) {
	c := testCatalog(t)
	builtins := len(Builtins())

	if err := c.Put(Track{
		Name:     "Zed Circuit",
		Points:   []geo.Vec2{{X: 0, Y: 0}, {X: 50, Y: 0}, {X: 50, Y: 50}, {X: 0, Y: 50}},
		Width:    8,
		Friction: 0.8,
	}); err != nil {
		t.Fatal(err)
	}

	tracks, err := c.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(tracks) != builtins+1 {
		t.Fatalf("want %d tracks, got %d", builtins+1, len(tracks))
	}
	if tracks[len(tracks)-1].Name != "Zed Circuit" {
		t.Errorf("stored track should list after builtins")
	}
}

func TestNormalizeFitsCanvas(t *testing.T) {
	n := DefaultNormalizer()
	// a large offset loop far outside the canvas
	points := []geo.Vec2{
		{X: 5000, Y: 9000}, {X: 7000, Y: 9000}, {X: 7000, Y: 9500},
		{X: 5000, Y: 9500}, {X: 5000, Y: 9000},
	}
	out, tf, err := n.Normalize(points)
	if err != nil {
		t.Fatal(err)
	}
	if tf.Scale <= 0 {
		t.Fatalf("scale = %v", tf.Scale)
	}

	bounds := geo.PolylineBounds(out)
	if bounds.MinX < 80-1e-6 || bounds.MaxX > 720+1e-6 {
		t.Errorf("x bounds [%v, %v] outside usable canvas", bounds.MinX, bounds.MaxX)
	}
	if bounds.MinY < 60-1e-6 || bounds.MaxY > 540+1e-6 {
		t.Errorf("y bounds [%v, %v] outside usable canvas", bounds.MinY, bounds.MaxY)
	}

	center := bounds.Center()
	if m.Abs(center.X-400) > 1 || m.Abs(center.Y-300) > 1 {
		t.Errorf("center %v, want near (400, 300)", center)
	}
	if !geo.IsClosed(out) {
		t.Errorf("closure lost during normalization")
	}
}

func TestNormalizePreservesAspectRatio(t *testing.T) {
	n := DefaultNormalizer()
	// twice as wide as tall
	points := []geo.Vec2{
		{X: 0, Y: 0}, {X: 200, Y: 0}, {X: 200, Y: 100}, {X: 0, Y: 100}, {X: 0, Y: 0},
	}
	out, _, err := n.Normalize(points)
	if err != nil {
		t.Fatal(err)
	}
	bounds := geo.PolylineBounds(out)
	ratio := bounds.Width() / bounds.Height()
	if m.Abs(ratio-2) > 0.01 {
		t.Errorf("aspect ratio %v, want 2", ratio)
	}
}

func TestNormalizeRejectsDegenerate(t *testing.T) {
	n := DefaultNormalizer()
	if _, _, err := n.Normalize(nil); err == nil {
		t.Errorf("empty input must error")
	}
	line := []geo.Vec2{{X: 0, Y: 5}, {X: 10, Y: 5}, {X: 20, Y: 5}}
	if _, _, err := n.Normalize(line); err == nil {
		t.Errorf("zero-height input must error")
	}
}

func TestProjectToMeters(t *testing.T) {
	// a 0.001 degree square at the equator is about 111 m per side
	latLon := [][2]float64{
		{0, 0}, {0, 0.001}, {0.001, 0.001}, {0.001, 0}, {0, 0},
	}
	points := projectToMeters(latLon)
	side := points[0].DistanceTo(points[1])
	if m.Abs(side-111.19) > 1 {
		t.Errorf("projected side %v m, want about 111.19", side)
	}
	if points[0].DistanceTo(points[len(points)-1]) > 1e-9 {
		t.Errorf("closed ring should project closed")
	}
}
