// Package config loads jason-client settings from a config file, the
// environment (JASON_*), or documented development defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Development defaults. They target a local Supabase stack and must be
// overridden in production; Validate enforces that.
const (
	DefaultFunctionsBase = "http://127.0.0.1:54321/functions/v1"
	DefaultAnonKey       = "local-dev-anon-key"
)

// Config holds all configuration values.
type Config struct {
	Env      string `mapstructure:"env"`
	LogLevel string `mapstructure:"log_level"`

	// Brain service endpoint and credential. The second key of each pair
	// is an older name still honoured when the first is unset.
	SupabaseFunctionsBase string        `mapstructure:"supabase_functions_base"`
	FunctionsBase         string        `mapstructure:"functions_base"`
	SupabaseAnonKey       string        `mapstructure:"supabase_anon_key"`
	SupabaseAnon          string        `mapstructure:"supabase_anon"`
	RequestTimeout        time.Duration `mapstructure:"request_timeout"`

	Location LocationConfig `mapstructure:"location"`
	Geocode  GeocodeConfig  `mapstructure:"geocode"`
	Journal  JournalConfig  `mapstructure:"journal"`
}

// LocationConfig selects the position sampler and the refinement budget.
type LocationConfig struct {
	Provider       string        `mapstructure:"provider"` // none | fixed | gpsd
	FixedLat       float64       `mapstructure:"fixed_lat"`
	FixedLng       float64       `mapstructure:"fixed_lng"`
	FixedAccuracy  float64       `mapstructure:"fixed_accuracy"` // 0 = unknown
	GPSDAddr       string        `mapstructure:"gpsd_addr"`
	Budget         time.Duration `mapstructure:"budget"`
	InitialTimeout time.Duration `mapstructure:"initial_timeout"`
	MaxAge         time.Duration `mapstructure:"max_age"`
	Interval       time.Duration `mapstructure:"interval"`
}

// GeocodeConfig selects the reverse geocoder.
type GeocodeConfig struct {
	Provider     string        `mapstructure:"provider"` // none | nominatim | google | static
	GoogleAPIKey string        `mapstructure:"google_api_key"`
	NominatimURL string        `mapstructure:"nominatim_url"`
	UserAgent    string        `mapstructure:"user_agent"`
	StaticPlace  string        `mapstructure:"static_place"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// JournalConfig points at the optional SQLite call journal. Empty disables it.
type JournalConfig struct {
	Path string `mapstructure:"path"`
}

var (
	validLocationProviders = map[string]bool{"none": true, "fixed": true, "gpsd": true}
	validGeocodeProviders  = map[string]bool{"none": true, "nominatim": true, "google": true, "static": true}
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")
	v.SetDefault("log_level", "")
	v.SetDefault("supabase_functions_base", "")
	v.SetDefault("functions_base", "")
	v.SetDefault("supabase_anon_key", "")
	v.SetDefault("supabase_anon", "")
	v.SetDefault("request_timeout", 30*time.Second)

	v.SetDefault("location.provider", "none")
	v.SetDefault("location.fixed_lat", 0.0)
	v.SetDefault("location.fixed_lng", 0.0)
	v.SetDefault("location.fixed_accuracy", 0.0)
	v.SetDefault("location.gpsd_addr", "127.0.0.1:2947")
	v.SetDefault("location.budget", 4*time.Second)
	v.SetDefault("location.initial_timeout", 12*time.Second)
	v.SetDefault("location.max_age", 5*time.Second)
	v.SetDefault("location.interval", time.Second)

	v.SetDefault("geocode.provider", "none")
	v.SetDefault("geocode.google_api_key", "")
	v.SetDefault("geocode.nominatim_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("geocode.user_agent", "jason-client/1.0")
	v.SetDefault("geocode.static_place", "")
	v.SetDefault("geocode.timeout", 3*time.Second)

	v.SetDefault("journal.path", "")
}

// Load reads configuration. When path is empty, a file named config.yaml is
// looked up in ".", "./config" and "$HOME/.jason"; a missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("JASON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("$HOME/.jason")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// BaseURL returns the brain service base URL with any trailing slash removed.
func (c *Config) BaseURL() string {
	base := firstNonEmpty(c.SupabaseFunctionsBase, c.FunctionsBase, DefaultFunctionsBase)
	return strings.TrimRight(base, "/")
}

// Token returns the bearer credential for the brain service.
func (c *Config) Token() string {
	return firstNonEmpty(c.SupabaseAnonKey, c.SupabaseAnon, DefaultAnonKey)
}

// IsProduction reports whether env is "production".
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate rejects unknown provider names and, in production, the
// development endpoint and credential defaults.
func (c *Config) Validate() error {
	if !validLocationProviders[c.Location.Provider] {
		return fmt.Errorf("invalid location.provider %q (valid: none, fixed, gpsd)", c.Location.Provider)
	}
	if !validGeocodeProviders[c.Geocode.Provider] {
		return fmt.Errorf("invalid geocode.provider %q (valid: none, nominatim, google, static)", c.Geocode.Provider)
	}
	if c.Location.Budget < 0 || c.Location.InitialTimeout < 0 || c.Location.MaxAge < 0 || c.Geocode.Timeout < 0 {
		return fmt.Errorf("location and geocode durations must not be negative")
	}
	if c.IsProduction() {
		if c.BaseURL() == DefaultFunctionsBase {
			return fmt.Errorf("supabase_functions_base must be set in production")
		}
		if c.Token() == DefaultAnonKey {
			return fmt.Errorf("supabase_anon_key must be set in production")
		}
	}
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
