package position

import (
	"go.uber.org/zap"

	"github.com/rcliao/jason-client/internal/config"
	"github.com/rcliao/jason-client/internal/model"
)

// FromConfig returns the sampler selected by cfg.Provider. Unknown or
// disabled providers yield Unavailable rather than an error.
func FromConfig(cfg config.LocationConfig, logger *zap.Logger) Sampler {
	switch cfg.Provider {
	case "fixed":
		r := model.Reading{Latitude: cfg.FixedLat, Longitude: cfg.FixedLng}
		if cfg.FixedAccuracy > 0 {
			r.AccuracyMeters = model.Meters(cfg.FixedAccuracy)
		}
		return NewFixed(r)
	case "gpsd":
		return NewGPSD(cfg.GPSDAddr, logger)
	default:
		return Unavailable{}
	}
}
