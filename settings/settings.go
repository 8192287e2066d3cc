// Package settings persists user-tunable engine configuration as JSON in
// the store and applies the process-wide log level.
package settings

import (
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"raceline.dev/raceline/store"
	"raceline.dev/raceline/utils"
)

const settingsKey = "RacelineSettings"

type RacelineSettings struct {
	LogLevel        string  `json:"log_level"`
	DefaultModel    string  `json:"default_model"`
	DefaultFriction float64 `json:"default_friction"`
	DefaultWidth    float64 `json:"default_track_width"`
	ResamplePoints  int     `json:"resample_points"`
	MaxVehicles     int     `json:"max_vehicles"`

	store *store.Store
}

func New(s *store.Store) *RacelineSettings {
	settings := &RacelineSettings{store: s}
	settings.Default()
	return settings
}

func (s *RacelineSettings) Default() {
	s.LogLevel = "error"
	s.DefaultModel = "physics"
	s.DefaultFriction = 1.0
	s.DefaultWidth = 12.0
	s.ResamplePoints = 100
	s.MaxVehicles = 6
}

// Recommended is the tuning for interactive use: more feedback, the
// iterative model.
func (s *RacelineSettings) Recommended() {
	s.Default()
	s.LogLevel = "info"
	s.DefaultModel = "physics_optimized"
}

func (s *RacelineSettings) Load() (success bool) {
	s.Default() // keys missing from the stored blob keep their defaults
	data, err := s.store.Get(settingsKey)
	if err != nil {
		utils.Loge(err)
		return false
	}

	err = json.Unmarshal(data, s)
	if err != nil {
		utils.Loge(err)
		return false
	}

	s.setLogLevel()
	return true
}

func (s *RacelineSettings) LoadWithRetries(tries int) {
	for range tries {
		if s.Load() {
			break
		}
		time.Sleep(1 * time.Second)
	}
	s.Save()
}

func (s *RacelineSettings) Save() {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		utils.Loge(err)
		return
	}
	err = s.store.Put(settingsKey, data)
	if err != nil {
		utils.Loge(err)
		return
	}
}

func (s *RacelineSettings) setLogLevel() {
	switch strings.ToLower(s.LogLevel) {
	case "debug":
		slog.SetLogLoggerLevel(slog.LevelDebug)
	case "info":
		slog.SetLogLoggerLevel(slog.LevelInfo)
	case "warn":
		slog.SetLogLoggerLevel(slog.LevelWarn)
	case "error":
		slog.SetLogLoggerLevel(slog.LevelError)
	default:
		slog.SetLogLoggerLevel(slog.LevelError)
	}
}
