// Package slots merges device location into caller-supplied request slots.
package slots

import (
	"context"

	"github.com/rcliao/jason-client/internal/locate"
	"github.com/rcliao/jason-client/internal/model"
)

// Source records where the coordinates in a merged SlotMap came from.
type Source string

const (
	SourceCaller Source = "caller" // caller supplied lat and lng
	SourceDevice Source = "device" // filled from the acquisition engine
	SourceNone   Source = "none"   // no coordinates were added
)

// Merge returns a shallow copy of caller enriched with device location.
// When caller already has both lat and lng, acq is never invoked. Otherwise
// only keys that are absent (missing or nil) are filled; present values,
// however falsy, are kept. A nil acq adds nothing.
func Merge(ctx context.Context, caller model.SlotMap, acq locate.Acquirer) (model.SlotMap, Source) {
	merged := caller.Clone()
	if merged.Has(model.SlotLat) && merged.Has(model.SlotLng) {
		return merged, SourceCaller
	}
	if acq == nil {
		return merged, SourceNone
	}

	loc := acq.Acquire(ctx)
	if loc == nil {
		return merged, SourceNone
	}

	if !merged.Has(model.SlotLat) {
		merged[model.SlotLat] = loc.Lat
	}
	if !merged.Has(model.SlotLng) {
		merged[model.SlotLng] = loc.Lng
	}
	if !merged.Has(model.SlotCityFromDevice) && loc.PlaceName != "" {
		merged[model.SlotCityFromDevice] = loc.PlaceName
	}
	if !merged.Has(model.SlotLocationAccuracy) && loc.AccuracyMeters != nil {
		merged[model.SlotLocationAccuracy] = *loc.AccuracyMeters
	}
	return merged, SourceDevice
}
