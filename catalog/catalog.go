// Package catalog manages the track library: built-in circuits, user tracks
// persisted through the store, a canvas normalizer, and an OSM importer.
package catalog

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"raceline.dev/raceline/geo"
	"raceline.dev/raceline/store"
)

// Track is one circuit in the library. Points, Width, and Friction drive
// the optimizer; the rest is descriptive.
type Track struct {
	Name        string     `json:"name"`
	Country     string     `json:"country,omitempty"`
	CircuitType string     `json:"circuit_type,omitempty"`
	Description string     `json:"description,omitempty"`
	Points      []geo.Vec2 `json:"track_points"`
	Width       float64    `json:"width"`
	Friction    float64    `json:"friction"`
	Length      float64    `json:"track_length,omitempty"` // meters
	Turns       int        `json:"number_of_turns,omitempty"`
	Difficulty  float64    `json:"difficulty_rating,omitempty"` // 0-10
	Builtin     bool       `json:"builtin,omitempty"`
}

var ErrTrackNotFound = errors.New("track not found")

const trackKeyPrefix = "track_"

// Catalog exposes built-in and stored tracks under one namespace. Stored
// tracks shadow built-ins with the same name.
type Catalog struct {
	store *store.Store
}

func New(s *store.Store) *Catalog {
	return &Catalog{store: s}
}

func trackKey(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, slug)
	return trackKeyPrefix + slug
}

// Get returns a track by name, preferring a stored track over a built-in.
func (c *Catalog) Get(name string) (Track, error) {
	data, err := c.store.Get(trackKey(name))
	if err == nil {
		var t Track
		if err := json.Unmarshal(data, &t); err != nil {
			return Track{}, errors.Wrap(err, "could not decode stored track")
		}
		return t, nil
	}

	for _, t := range Builtins() {
		if strings.EqualFold(t.Name, name) {
			return t, nil
		}
	}
	return Track{}, errors.Wrapf(ErrTrackNotFound, "%q", name)
}

// Put persists a user track.
func (c *Catalog) Put(t Track) error {
	if len(t.Points) < 3 {
		return errors.New("track must have at least 3 points")
	}
	t.Builtin = false
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return errors.Wrap(err, "could not encode track")
	}
	return errors.Wrap(c.store.Put(trackKey(t.Name), data), "could not store track")
}

// Remove deletes a stored track. Built-ins cannot be removed.
func (c *Catalog) Remove(name string) error {
	return errors.Wrap(c.store.Remove(trackKey(name)), "could not remove track")
}

// List returns every known track, built-ins first, sorted by name within
// each group.
func (c *Catalog) List() ([]Track, error) {
	tracks := Builtins()
	seen := map[string]bool{}
	for _, t := range tracks {
		seen[trackKey(t.Name)] = true
	}

	keys, err := c.store.List()
	if err != nil {
		return nil, err
	}
	stored := []Track{}
	for _, key := range keys {
		if !strings.HasPrefix(key, trackKeyPrefix) || seen[key] {
			continue
		}
		data, err := c.store.Get(key)
		if err != nil {
			continue
		}
		var t Track
		if err := json.Unmarshal(data, &t); err != nil {
			continue
		}
		stored = append(stored, t)
	}
	sort.Slice(stored, func(i, j int) bool { return stored[i].Name < stored[j].Name })

	return append(tracks, stored...), nil
}
