// Package model defines the core data types exchanged with the brain service.
package model

import "time"

// Reading is a single position fix from a sampler.
// A nil AccuracyMeters means the sampler reported no accuracy.
type Reading struct {
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	AccuracyMeters *float64  `json:"accuracy_meters,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// Meters returns a pointer to v, for building readings with a known accuracy.
func Meters(v float64) *float64 {
	return &v
}

// MoreAccurateThan reports whether r should replace best.
// Unknown accuracy ranks below any known accuracy; ties keep best.
func (r Reading) MoreAccurateThan(best Reading) bool {
	switch {
	case r.AccuracyMeters == nil:
		return false
	case best.AccuracyMeters == nil:
		return true
	default:
		return *r.AccuracyMeters < *best.AccuracyMeters
	}
}

// ResolvedLocation is the outcome of one acquisition attempt.
// Coordinates are decimal-degree strings.
type ResolvedLocation struct {
	Lat            string   `json:"lat"`
	Lng            string   `json:"lng"`
	PlaceName      string   `json:"place_name,omitempty"`
	AccuracyMeters *float64 `json:"accuracy_meters,omitempty"`
}
