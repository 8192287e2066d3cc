package race

import (
	m "math"

	"raceline.dev/raceline/geo"
	"raceline.dev/raceline/track"
	"raceline.dev/raceline/utils"
)

// Lane separation keeps multi-car lines apart: each vehicle after the first
// receives a constant lateral bias from the shared optimal line, applied
// along the centerline normals so lanes follow the line's shape.
const (
	maxVehicles       = 6
	laneSeparationCap = 3.0  // m, absolute ceiling on lane spacing
	laneWidthFraction = 0.2  // of full track width
	laneBoundFraction = 0.45 // of full track width, per-lane displacement cap
	laneSpreadUsable  = 0.8  // of full track width for the >4 car spread
)

// laneBiases returns the per-vehicle lateral bias in meters for count cars.
// Biases are symmetric around the shared line; a single car gets no bias.
func laneBiases(count int, trackWidth float64) []float64 {
	if count > maxVehicles {
		count = maxVehicles
	}
	minSep := m.Min(laneSeparationCap, trackWidth*laneWidthFraction)

	switch count {
	case 1:
		return []float64{0}
	case 2:
		return []float64{-0.7 * minSep, 0.7 * minSep}
	case 3:
		return []float64{-minSep, 0, minSep}
	case 4:
		return []float64{-1.2 * minSep, -0.4 * minSep, 0.4 * minSep, 1.2 * minSep}
	}

	// Five or six cars: spread evenly across the usable width.
	usable := trackWidth * laneSpreadUsable
	biases := make([]float64, count)
	for i := range biases {
		biases[i] = usable * (float64(i)/float64(count-1) - 0.5)
	}
	return biases
}

// laneSmoothSigmas is the cascade applied to the shared lateral profile
// before lanes fan out from it.
var laneSmoothSigmas = []float64{1.0, 1.5, 2.0}

// applyLaneBias fans a vehicle's lane out from the shared line. The line is
// reduced to per-point lateral offsets from the centerline, the offsets are
// clamped with headroom reserved for the widest lane bias and smoothed, and
// the lane is rebuilt along the normals with its bias added. Every lane
// shares the same base profile, so corresponding points of two lanes sit
// exactly their bias difference apart and stay inside the displacement
// bound.
//
// headroom is the largest absolute bias across all lanes in the race; zero
// means a single car and the line passes through untouched.
func applyLaneBias(line []geo.Vec2, geom *track.Geometry, bias, headroom float64) []geo.Vec2 {
	if headroom == 0 {
		return line
	}
	maxDisplacement := 2 * geom.HalfWidth * laneBoundFraction
	baseCap := m.Max(maxDisplacement-headroom, 0)

	offsets := make([]float64, geom.Len())
	for i, center := range geom.Points {
		p := center
		if i < len(line) {
			p = line[i]
		}
		off := utils.FiniteOr(p.Sub(center).Dot(geom.Normals[i]), 0)
		offsets[i] = utils.Clamp(off, -baseCap, baseCap)
	}
	for _, sigma := range laneSmoothSigmas {
		offsets = geo.GaussianSmooth(offsets, sigma)
	}

	out := make([]geo.Vec2, geom.Len())
	for i, center := range geom.Points {
		n := utils.Clamp(offsets[i]+bias, -maxDisplacement, maxDisplacement)
		out[i] = center.Add(geom.Normals[i].Scale(n))
	}
	geo.ForceClosure(out)
	return out
}

// maxAbsBias returns the widest lane displacement in the schedule.
func maxAbsBias(biases []float64) float64 {
	widest := 0.0
	for _, b := range biases {
		if a := m.Abs(b); a > widest {
			widest = a
		}
	}
	return widest
}
