// Package position abstracts the platform's positioning capability.
//
// A Sampler answers permission and single-shot reads. Samplers that can stream
// fixes also implement Watcher; callers discover that with a type assertion.
// Every error returned here is meant to be degraded to "no location" by the
// caller, never surfaced to the chat flow.
package position

import (
	"context"
	"errors"
	"time"

	"github.com/rcliao/jason-client/internal/model"
)

var (
	// ErrUnavailable means no positioning capability exists or it could not produce a fix.
	ErrUnavailable = errors.New("positioning unavailable")
	// ErrPermissionDenied means the user or platform refused location access.
	ErrPermissionDenied = errors.New("location permission denied")
)

// Accuracy is a requested accuracy tier. Samplers without tiers ignore it.
type Accuracy int

const (
	AccuracyLowest Accuracy = iota + 1
	AccuracyLow
	AccuracyBalanced
	AccuracyHigh
	AccuracyHighest
	AccuracyBestForNavigation
)

func (a Accuracy) String() string {
	switch a {
	case AccuracyLowest:
		return "lowest"
	case AccuracyLow:
		return "low"
	case AccuracyBalanced:
		return "balanced"
	case AccuracyHigh:
		return "high"
	case AccuracyHighest:
		return "highest"
	case AccuracyBestForNavigation:
		return "best_for_navigation"
	default:
		return "unknown"
	}
}

// Options are hints for a read or a watch.
type Options struct {
	Accuracy Accuracy
	MaxAge   time.Duration // reject cached fixes older than this; 0 = any age
	Timeout  time.Duration // upper wait bound for a single read; 0 = ctx only
	Interval time.Duration // desired spacing between watched fixes
}

// Sampler is the minimum positioning capability.
type Sampler interface {
	// RequestPermission asks for foreground location access.
	RequestPermission(ctx context.Context) (bool, error)

	// CurrentReading returns one fix honouring opts.
	CurrentReading(ctx context.Context, opts Options) (model.Reading, error)
}

// Watcher is implemented by samplers that support continuous sampling.
type Watcher interface {
	// WatchReadings calls onReading for each fix until the subscription is released.
	// onReading may be called from another goroutine.
	WatchReadings(ctx context.Context, opts Options, onReading func(model.Reading)) (Subscription, error)
}

// Subscription is a live watch. Release is safe to call more than once.
type Subscription interface {
	Release()
}

// SupportsWatch reports whether s can stream readings.
func SupportsWatch(s Sampler) bool {
	_, ok := s.(Watcher)
	return ok
}
