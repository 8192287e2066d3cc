package catalog

import (
	"context"
	m "math"
	"os"
	"runtime"

	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/pkg/errors"
	"raceline.dev/raceline/geo"
)

const (
	earthRadiusMeters = 6371000.0
	racewayWidth      = 12.0
	racewayFriction   = 0.9
)

// ImportPBF scans an OpenStreetMap extract for raceway ways and returns
// them as tracks in local planar meters. PBF extracts order nodes before
// ways, so a single pass collects both.
func ImportPBF(ctx context.Context, path string) ([]Track, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "could not open osm extract")
	}
	defer file.Close()

	scanner := osmpbf.New(ctx, file, runtime.GOMAXPROCS(-1))
	scanner.SkipRelations = true
	defer scanner.Close()

	nodes := map[osm.NodeID][2]float64{}
	tracks := []Track{}

	for scanner.Scan() {
		switch o := scanner.Object().(type) {
		case *osm.Node:
			nodes[o.ID] = [2]float64{o.Lat, o.Lon}
		case *osm.Way:
			tags := o.TagMap()
			if tags["highway"] != "raceway" {
				continue
			}
			track, ok := trackFromWay(o, tags, nodes)
			if ok {
				tracks = append(tracks, track)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "could not scan osm extract")
	}
	if len(tracks) == 0 {
		return nil, errors.New("no raceway ways found in extract")
	}
	return tracks, nil
}

func trackFromWay(way *osm.Way, tags map[string]string, nodes map[osm.NodeID][2]float64) (Track, bool) {
	if len(way.Nodes) < 4 {
		return Track{}, false
	}

	latLon := make([][2]float64, 0, len(way.Nodes))
	for _, n := range way.Nodes {
		if n.Lat != 0 || n.Lon != 0 {
			latLon = append(latLon, [2]float64{n.Lat, n.Lon})
			continue
		}
		pos, ok := nodes[n.ID]
		if !ok {
			return Track{}, false
		}
		latLon = append(latLon, pos)
	}

	// Closed circuits repeat the first node; anything else is a drag strip
	// or a partial mapping, which the engine cannot lap.
	if way.Nodes[0].ID != way.Nodes[len(way.Nodes)-1].ID {
		return Track{}, false
	}

	name := tags["name"]
	if name == "" {
		name = "Unnamed raceway"
	}
	return Track{
		Name:     name,
		Points:   projectToMeters(latLon),
		Width:    racewayWidth,
		Friction: racewayFriction,
	}, true
}

// projectToMeters maps lat/lon onto a local tangent plane with an
// equirectangular projection about the centroid. Accurate to well under a
// meter at circuit scale.
func projectToMeters(latLon [][2]float64) []geo.Vec2 {
	meanLat, meanLon := 0.0, 0.0
	for _, p := range latLon {
		meanLat += p[0]
		meanLon += p[1]
	}
	meanLat /= float64(len(latLon))
	meanLon /= float64(len(latLon))

	cosLat := m.Cos(meanLat * m.Pi / 180)
	points := make([]geo.Vec2, len(latLon))
	for i, p := range latLon {
		points[i] = geo.Vec2{
			X: (p[1] - meanLon) * m.Pi / 180 * earthRadiusMeters * cosLat,
			Y: (p[0] - meanLat) * m.Pi / 180 * earthRadiusMeters,
		}
	}
	return points
}
