// Package locate turns the best position fix into a ResolvedLocation.
package locate

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/rcliao/jason-client/internal/config"
	"github.com/rcliao/jason-client/internal/geocode"
	"github.com/rcliao/jason-client/internal/logging"
	"github.com/rcliao/jason-client/internal/model"
	"github.com/rcliao/jason-client/internal/position"
	"github.com/rcliao/jason-client/internal/refine"
)

// Acquirer produces the caller's location, or nil when none is available.
type Acquirer interface {
	Acquire(ctx context.Context) *model.ResolvedLocation
}

// DefaultResolveTimeout bounds one reverse geocode lookup.
const DefaultResolveTimeout = 3 * time.Second

// Engine runs the refinement loop and names the resulting fix.
type Engine struct {
	loop     *refine.Loop
	resolver *geocode.Resolver
	logger   *zap.Logger

	// ResolveTimeout caps the place name lookup after a fix is chosen.
	// A slow geocoder yields coordinates without a name.
	ResolveTimeout time.Duration
}

// NewEngine builds an engine. A nil resolver skips place names.
func NewEngine(loop *refine.Loop, resolver *geocode.Resolver, logger *zap.Logger) *Engine {
	return &Engine{
		loop:           loop,
		resolver:       resolver,
		logger:         logging.OrNop(logger),
		ResolveTimeout: DefaultResolveTimeout,
	}
}

// FromConfig wires the configured sampler, refinement timings and geocoder.
// Zero timings keep the loop defaults.
func FromConfig(cfg *config.Config, logger *zap.Logger) *Engine {
	loop := refine.New(position.FromConfig(cfg.Location, logger), logger)
	if cfg.Location.Budget > 0 {
		loop.Budget = cfg.Location.Budget
	}
	if cfg.Location.InitialTimeout > 0 {
		loop.InitialTimeout = cfg.Location.InitialTimeout
	}
	if cfg.Location.MaxAge > 0 {
		loop.MaxAge = cfg.Location.MaxAge
	}
	if cfg.Location.Interval > 0 {
		loop.Interval = cfg.Location.Interval
	}

	var resolver *geocode.Resolver
	if p := geocode.FromConfig(cfg.Geocode); p != nil {
		resolver = geocode.NewResolver(p, logger)
	}
	e := NewEngine(loop, resolver, logger)
	if cfg.Geocode.Timeout > 0 {
		e.ResolveTimeout = cfg.Geocode.Timeout
	}
	return e
}

// Acquire re-acquires on every call; nothing is cached.
func (e *Engine) Acquire(ctx context.Context) *model.ResolvedLocation {
	if e == nil || e.loop == nil {
		return nil
	}

	r, ok := e.loop.Best(ctx)
	if !ok {
		e.logger.Debug("no device location available")
		return nil
	}

	loc := &model.ResolvedLocation{
		Lat:            FormatDegrees(r.Latitude),
		Lng:            FormatDegrees(r.Longitude),
		AccuracyMeters: r.AccuracyMeters,
	}
	if name, ok := e.resolve(ctx, r.Latitude, r.Longitude); ok {
		loc.PlaceName = name
	}
	return loc
}

func (e *Engine) resolve(ctx context.Context, lat, lng float64) (string, bool) {
	if e.resolver == nil {
		return "", false
	}
	timeout := e.ResolveTimeout
	if timeout <= 0 {
		timeout = DefaultResolveTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return e.resolver.Resolve(ctx, lat, lng)
}

// FormatDegrees renders a coordinate with the fewest digits that round-trip.
func FormatDegrees(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
