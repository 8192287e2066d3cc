package catalog

import (
	m "math"

	"github.com/pkg/errors"
	"raceline.dev/raceline/geo"
)

// Normalizer rescales track coordinates into a fixed canvas, preserving
// aspect ratio and closure, so tracks from any source render consistently.
type Normalizer struct {
	TargetWidth   float64
	TargetHeight  float64
	CenterX       float64
	CenterY       float64
	PaddingFactor float64
}

func DefaultNormalizer() Normalizer {
	return Normalizer{
		TargetWidth:   800,
		TargetHeight:  600,
		CenterX:       400,
		CenterY:       300,
		PaddingFactor: 0.1,
	}
}

// Transform records how a normalization mapped the original coordinates.
type Transform struct {
	Scale   float64 `json:"scale"`
	OffsetX float64 `json:"offset_x"`
	OffsetY float64 `json:"offset_y"`
}

// Normalize maps points into the canvas. The same uniform scale applies to
// both axes so the track keeps its shape.
func (n Normalizer) Normalize(points []geo.Vec2) ([]geo.Vec2, Transform, error) {
	if len(points) == 0 {
		return nil, Transform{}, errors.New("cannot normalize an empty track")
	}

	bounds := geo.PolylineBounds(points)
	width := bounds.MaxX - bounds.MinX
	height := bounds.MaxY - bounds.MinY
	if width <= 0 || height <= 0 {
		return nil, Transform{}, errors.New("track is degenerate, has no area")
	}

	usableWidth := n.TargetWidth * (1 - 2*n.PaddingFactor)
	usableHeight := n.TargetHeight * (1 - 2*n.PaddingFactor)
	scale := m.Min(usableWidth/width, usableHeight/height)

	centerX := (bounds.MinX + bounds.MaxX) / 2
	centerY := (bounds.MinY + bounds.MaxY) / 2
	tf := Transform{
		Scale:   scale,
		OffsetX: n.CenterX - centerX*scale,
		OffsetY: n.CenterY - centerY*scale,
	}

	wasClosed := geo.IsClosed(points)
	out := make([]geo.Vec2, len(points))
	for i, p := range points {
		out[i] = geo.Vec2{X: p.X*scale + tf.OffsetX, Y: p.Y*scale + tf.OffsetY}
	}
	if wasClosed {
		geo.ForceClosure(out)
	}
	return out, tf, nil
}

// NormalizeTrack rescales a track's geometry in place and returns the copy.
func (n Normalizer) NormalizeTrack(t Track) (Track, Transform, error) {
	points, tf, err := n.Normalize(t.Points)
	if err != nil {
		return Track{}, Transform{}, err
	}
	t.Points = points
	return t, tf, nil
}
