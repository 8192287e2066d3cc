package models

import (
	"log/slog"
	"sort"

	"raceline.dev/raceline/aero"
)

// DefaultModelID is the model used when a request names no model or names
// one that is not registered.
const DefaultModelID = "physics"

// Registry maps model identifiers to implementations. Resolution never
// fails: unknown identifiers fall back to the default model so a bad
// request still produces a line.
type Registry struct {
	models map[string]Model
}

// NewRegistry builds a registry with the built-in models, sharing one
// aerodynamic lookup across them.
func NewRegistry(aeroModel *aero.Model) *Registry {
	r := &Registry{models: map[string]Model{}}
	physics := NewPhysicsModel(aeroModel)
	r.Register(physics)
	r.Register(NewPhysicsOptimizedModel(aeroModel))
	r.Register(NewBasicModel())
	r.Register(NewTwoStepModel())
	return r
}

// Register adds or replaces a model under its metadata ID.
func (r *Registry) Register(model Model) {
	r.models[model.Meta().ID] = model
}

// Resolve returns the model for id, or the default model when id is empty
// or unknown. The returned string is the ID actually used.
func (r *Registry) Resolve(id string) (Model, string) {
	if id == "" {
		id = DefaultModelID
	}
	if model, ok := r.models[id]; ok {
		return model, id
	}
	slog.Warn("unknown model requested, using default", "requested", id, "default", DefaultModelID)
	return r.models[DefaultModelID], DefaultModelID
}

// Has reports whether id is registered.
func (r *Registry) Has(id string) bool {
	_, ok := r.models[id]
	return ok
}

// List returns metadata for every registered model, sorted by ID.
func (r *Registry) List() []Metadata {
	out := make([]Metadata, 0, len(r.models))
	for _, model := range r.models {
		out = append(out, model.Meta())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
