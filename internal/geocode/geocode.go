// Package geocode provides best-effort reverse geocoding of coordinates to a
// human place name.
package geocode

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/rcliao/jason-client/internal/config"
	"github.com/rcliao/jason-client/internal/logging"
)

// ErrNoResult means the provider found nothing for the coordinates.
var ErrNoResult = errors.New("no reverse geocoding result")

// Place holds the candidate names of one lookup result.
type Place struct {
	City      string `json:"city,omitempty"`
	Subregion string `json:"subregion,omitempty"`
	Region    string `json:"region,omitempty"`
	Name      string `json:"name,omitempty"`
}

// Preferred returns the first non-empty of City, Subregion, Region, Name.
func (p Place) Preferred() string {
	for _, s := range []string{p.City, p.Subregion, p.Region, p.Name} {
		if s != "" {
			return s
		}
	}
	return ""
}

// Provider looks up places for a coordinate, best match first.
type Provider interface {
	Lookup(ctx context.Context, lat, lng float64) ([]Place, error)
}

// Resolver turns a Provider into a lookup that never fails.
type Resolver struct {
	provider Provider
	logger   *zap.Logger
}

// NewResolver wraps p. A nil provider resolves nothing.
func NewResolver(p Provider, logger *zap.Logger) *Resolver {
	return &Resolver{provider: p, logger: logging.OrNop(logger)}
}

// Resolve returns the preferred name of the best place, or false.
// Provider errors and panics are logged at debug level and swallowed.
func (r *Resolver) Resolve(ctx context.Context, lat, lng float64) (name string, ok bool) {
	if r == nil || r.provider == nil {
		return "", false
	}
	defer func() {
		if p := recover(); p != nil {
			r.logger.Debug("reverse geocoder panicked", zap.Any("panic", p))
			name, ok = "", false
		}
	}()

	places, err := r.provider.Lookup(ctx, lat, lng)
	if err != nil {
		r.logger.Debug("reverse geocode failed", zap.Float64("lat", lat), zap.Float64("lng", lng), zap.Error(err))
		return "", false
	}
	if len(places) == 0 {
		return "", false
	}
	name = places[0].Preferred()
	return name, name != ""
}

// Static always returns the same place.
type Static struct {
	Place Place
}

func (s Static) Lookup(ctx context.Context, lat, lng float64) ([]Place, error) {
	if s.Place.Preferred() == "" {
		return nil, ErrNoResult
	}
	return []Place{s.Place}, nil
}

// FromConfig returns the provider selected by cfg.Provider, or nil when
// geocoding is disabled.
func FromConfig(cfg config.GeocodeConfig) Provider {
	switch cfg.Provider {
	case "nominatim":
		return NewNominatim(cfg.NominatimURL, cfg.UserAgent)
	case "google":
		return NewGoogle("", cfg.GoogleAPIKey)
	case "static":
		return Static{Place: Place{City: cfg.StaticPlace}}
	default:
		return nil
	}
}
