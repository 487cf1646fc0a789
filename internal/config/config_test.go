package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Env != "development" {
		t.Errorf("expected env development, got %q", cfg.Env)
	}
	if cfg.BaseURL() != DefaultFunctionsBase {
		t.Errorf("expected default base, got %q", cfg.BaseURL())
	}
	if cfg.Token() != DefaultAnonKey {
		t.Errorf("expected default token, got %q", cfg.Token())
	}
	if cfg.Location.Budget != 4*time.Second {
		t.Errorf("expected 4s budget, got %s", cfg.Location.Budget)
	}
	if cfg.Location.InitialTimeout != 12*time.Second {
		t.Errorf("expected 12s initial timeout, got %s", cfg.Location.InitialTimeout)
	}
	if cfg.Location.MaxAge != 5*time.Second {
		t.Errorf("expected 5s max age, got %s", cfg.Location.MaxAge)
	}
	if cfg.Geocode.Timeout != 3*time.Second {
		t.Errorf("expected 3s geocode timeout, got %s", cfg.Geocode.Timeout)
	}
	if cfg.Location.Provider != "none" || cfg.Geocode.Provider != "none" {
		t.Errorf("expected providers disabled, got %q/%q", cfg.Location.Provider, cfg.Geocode.Provider)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate outside production: %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
supabase_functions_base: https://example.functions.supabase.co/
supabase_anon_key: file-key
location:
  provider: fixed
  fixed_lat: 10.5
  fixed_lng: -20.25
  budget: 2s
geocode:
  provider: static
  static_place: Lisbon
  timeout: 750ms
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.BaseURL() != "https://example.functions.supabase.co" {
		t.Errorf("expected trimmed base, got %q", cfg.BaseURL())
	}
	if cfg.Token() != "file-key" {
		t.Errorf("expected file-key, got %q", cfg.Token())
	}
	if cfg.Location.Provider != "fixed" || cfg.Location.FixedLat != 10.5 || cfg.Location.FixedLng != -20.25 {
		t.Errorf("unexpected location config: %+v", cfg.Location)
	}
	if cfg.Location.Budget != 2*time.Second {
		t.Errorf("expected 2s budget, got %s", cfg.Location.Budget)
	}
	if cfg.Geocode.Timeout != 750*time.Millisecond {
		t.Errorf("expected 750ms geocode timeout, got %s", cfg.Geocode.Timeout)
	}
	if cfg.Geocode.StaticPlace != "Lisbon" {
		t.Errorf("expected Lisbon, got %q", cfg.Geocode.StaticPlace)
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("JASON_SUPABASE_ANON_KEY", "env-key")
	t.Setenv("JASON_LOCATION_PROVIDER", "gpsd")
	t.Setenv("JASON_LOCATION_BUDGET", "1500ms")

	cfg, err := Load(writeConfig(t, "supabase_anon_key: file-key\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Token() != "env-key" {
		t.Errorf("expected env-key, got %q", cfg.Token())
	}
	if cfg.Location.Provider != "gpsd" {
		t.Errorf("expected gpsd, got %q", cfg.Location.Provider)
	}
	if cfg.Location.Budget != 1500*time.Millisecond {
		t.Errorf("expected 1.5s budget, got %s", cfg.Location.Budget)
	}
}

func TestFallbackKeys(t *testing.T) {
	cfg := &Config{FunctionsBase: "https://legacy.example", SupabaseAnon: "legacy-key"}
	if cfg.BaseURL() != "https://legacy.example" {
		t.Errorf("expected legacy base, got %q", cfg.BaseURL())
	}
	if cfg.Token() != "legacy-key" {
		t.Errorf("expected legacy key, got %q", cfg.Token())
	}

	cfg.SupabaseFunctionsBase = "https://primary.example"
	cfg.SupabaseAnonKey = "primary-key"
	if cfg.BaseURL() != "https://primary.example" || cfg.Token() != "primary-key" {
		t.Errorf("primary keys should win, got %q/%q", cfg.BaseURL(), cfg.Token())
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Env:      "development",
			Location: LocationConfig{Provider: "none"},
			Geocode:  GeocodeConfig{Provider: "none"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"dev defaults ok", func(c *Config) {}, false},
		{"bad location provider", func(c *Config) { c.Location.Provider = "wifi" }, true},
		{"bad geocode provider", func(c *Config) { c.Geocode.Provider = "bing" }, true},
		{"negative budget", func(c *Config) { c.Location.Budget = -time.Second }, true},
		{"negative geocode timeout", func(c *Config) { c.Geocode.Timeout = -time.Second }, true},
		{"production with dev defaults", func(c *Config) { c.Env = "production" }, true},
		{"production with dev key", func(c *Config) {
			c.Env = "production"
			c.SupabaseFunctionsBase = "https://prod.example"
		}, true},
		{"production configured", func(c *Config) {
			c.Env = "production"
			c.SupabaseFunctionsBase = "https://prod.example"
			c.SupabaseAnonKey = "prod-key"
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(c)
			err := c.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
