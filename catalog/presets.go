package catalog

import (
	m "math"

	"raceline.dev/raceline/geo"
)

// Builtins returns the bundled circuits. Synthetic shapes are generated,
// the named circuits are hand-laid canvas coordinates.
func Builtins() []Track {
	return []Track{
		{
			Name:        "Circle",
			Description: "Constant-radius reference circle, 100 m radius.",
			Points:      circlePoints(100, 100),
			Width:       12,
			Friction:    1.0,
			Builtin:     true,
		},
		{
			Name:        "Oval",
			Description: "Two straights joined by constant-radius bends.",
			Points:      ovalPoints(200, 80, 96),
			Width:       15,
			Friction:    0.9,
			Builtin:     true,
		},
		{
			Name:        "Hairpin",
			Description: "Long straights into a tight 15 m hairpin.",
			Points:      hairpinPoints(),
			Width:       10,
			Friction:    0.85,
			Builtin:     true,
		},
		{
			Name:        "Albert Park Circuit",
			Country:     "Australia",
			CircuitType: "Street Circuit",
			Description: "Lakeside street circuit mixing fast corners with technical sections.",
			Points:      albertParkPoints(),
			Width:       14,
			Friction:    0.82,
			Length:      5278,
			Turns:       14,
			Difficulty:  7.5,
			Builtin:     true,
		},
		{
			Name:        "Shanghai International Circuit",
			Country:     "China",
			CircuitType: "Permanent Circuit",
			Description: "Modern circuit with challenging corner combinations and a long back straight.",
			Points:      shanghaiPoints(),
			Width:       15,
			Friction:    0.85,
			Length:      5451,
			Turns:       16,
			Difficulty:  8.0,
			Builtin:     true,
		},
	}
}

func circlePoints(radius float64, count int) []geo.Vec2 {
	points := make([]geo.Vec2, count+1)
	for i := 0; i < count; i++ {
		angle := 2 * m.Pi * float64(i) / float64(count)
		points[i] = geo.Vec2{X: radius * m.Cos(angle), Y: radius * m.Sin(angle)}
	}
	points[count] = points[0]
	return points
}

func ovalPoints(straight, radius float64, count int) []geo.Vec2 {
	// Quarter of the points per arc, the rest split over the straights.
	arcCount := count / 4
	straightCount := (count - 2*arcCount) / 2
	points := []geo.Vec2{}

	for i := 0; i < straightCount; i++ {
		x := -straight/2 + straight*float64(i)/float64(straightCount)
		points = append(points, geo.Vec2{X: x, Y: -radius})
	}
	for i := 0; i < arcCount; i++ {
		angle := -m.Pi/2 + m.Pi*float64(i)/float64(arcCount)
		points = append(points, geo.Vec2{X: straight/2 + radius*m.Cos(angle), Y: radius * m.Sin(angle)})
	}
	for i := 0; i < straightCount; i++ {
		x := straight/2 - straight*float64(i)/float64(straightCount)
		points = append(points, geo.Vec2{X: x, Y: radius})
	}
	for i := 0; i < arcCount; i++ {
		angle := m.Pi/2 + m.Pi*float64(i)/float64(arcCount)
		points = append(points, geo.Vec2{X: -straight/2 + radius*m.Cos(angle), Y: radius * m.Sin(angle)})
	}
	return append(points, points[0])
}

func hairpinPoints() []geo.Vec2 {
	const (
		straight = 300.0
		radius   = 15.0
		arcCount = 16
	)
	points := []geo.Vec2{}
	for i := 0; i < 12; i++ {
		points = append(points, geo.Vec2{X: straight * float64(i) / 12, Y: -radius})
	}
	for i := 0; i < arcCount; i++ {
		angle := -m.Pi/2 + m.Pi*float64(i)/float64(arcCount)
		points = append(points, geo.Vec2{X: straight + radius*m.Cos(angle), Y: radius * m.Sin(angle)})
	}
	for i := 0; i < 12; i++ {
		points = append(points, geo.Vec2{X: straight - straight*float64(i)/12, Y: radius})
	}
	for i := 0; i < arcCount; i++ {
		angle := m.Pi/2 + m.Pi*float64(i)/float64(arcCount)
		points = append(points, geo.Vec2{X: radius * m.Cos(angle) * 4, Y: radius * m.Sin(angle)})
	}
	return append(points, points[0])
}

func albertParkPoints() []geo.Vec2 {
	return []geo.Vec2{
		{X: 600, Y: 500}, {X: 650, Y: 520}, {X: 720, Y: 540}, {X: 800, Y: 550},
		{X: 900, Y: 520}, {X: 980, Y: 480}, {X: 1020, Y: 440}, {X: 1040, Y: 380},
		{X: 1020, Y: 320}, {X: 980, Y: 280}, {X: 920, Y: 260}, {X: 840, Y: 250},
		{X: 760, Y: 270}, {X: 680, Y: 320}, {X: 620, Y: 380}, {X: 580, Y: 440},
		{X: 600, Y: 500},
	}
}

func shanghaiPoints() []geo.Vec2 {
	return []geo.Vec2{
		{X: 600, Y: 500}, {X: 650, Y: 480}, {X: 680, Y: 440}, {X: 660, Y: 380},
		{X: 700, Y: 340}, {X: 760, Y: 320}, {X: 840, Y: 340}, {X: 920, Y: 380},
		{X: 960, Y: 440}, {X: 940, Y: 500}, {X: 880, Y: 540}, {X: 800, Y: 560},
		{X: 740, Y: 540}, {X: 680, Y: 580}, {X: 600, Y: 600}, {X: 520, Y: 580},
		{X: 480, Y: 520}, {X: 520, Y: 480}, {X: 600, Y: 500},
	}
}
