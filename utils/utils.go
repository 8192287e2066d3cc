// Package utils holds small helpers shared across the raceline packages.
package utils

import (
	"log/slog"
	m "math"
)

// Check panics on unexpected errors that indicate a programming bug rather
// than a runtime condition.
func Check(e error) {
	if e != nil {
		slog.Error("Unexpected Error", "error", e)
		panic(e)
	}
}

func Loge(e error) {
	if e != nil {
		slog.Error("", "error", e)
	}
}

func Logwe(e error) {
	if e != nil {
		slog.Warn("", "error", e)
	}
}

func Logde(e error) {
	if e != nil {
		slog.Debug("", "error", e)
	}
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return m.Max(lo, m.Min(v, hi))
}

// FiniteOr replaces NaN and infinities with the fallback.
func FiniteOr(v, fallback float64) float64 {
	if m.IsNaN(v) || m.IsInf(v, 0) {
		return fallback
	}
	return v
}
