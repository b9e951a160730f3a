// internal/config/validate.go
package config

import (
	"fmt"
	"log/slog"
	"slices"

	"gassense-go/x/mathx"
)

// Validate checks configuration correctness.
// It performs declarative validation only and does not mutate cfg.
// Zero values stand for defaults and are accepted.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	s := cfg.Sensor
	if s.Model != "" && !slices.Contains(Models, s.Model) {
		return fmt.Errorf("sensor.model %q is not supported (known: %v)", s.Model, Models)
	}
	if s.Address != 0 && !mathx.Between(s.Address, 0x08, 0x77) {
		return fmt.Errorf("sensor.address 0x%02X is not a 7-bit device address", s.Address)
	}

	a := cfg.Ambient
	if a.Source != "" && !slices.Contains(AmbientSources, a.Source) {
		return fmt.Errorf("ambient.source %q is not supported (known: %v)", a.Source, AmbientSources)
	}
	if a.Address != 0 {
		if !mathx.Between(a.Address, 0x08, 0x77) {
			return fmt.Errorf("ambient.address 0x%02X is not a 7-bit device address", a.Address)
		}
		if a.Address == s.Address {
			return fmt.Errorf("ambient.address 0x%02X collides with sensor.address", a.Address)
		}
	}
	if t := cfg.Ambient.TemperatureC; t != nil && *t != DefaultTemperatureC && !mathx.Between(*t, -40, 125) {
		return fmt.Errorf("ambient.temperature_c %.1f out of range [-40, 125] (use -300 for on-chip)", *t)
	}
	if h := cfg.Ambient.HumidityPct; h != nil && !mathx.Between(*h, 0, 100) {
		return fmt.Errorf("ambient.humidity_pct %.1f out of range [0, 100]", *h)
	}

	if cfg.Session.MaxCycles < 0 {
		return fmt.Errorf("session.max_cycles must not be negative")
	}
	if cfg.Session.MaxConsecutiveFaults < 0 {
		return fmt.Errorf("session.max_consecutive_faults must not be negative")
	}

	if cfg.LogLevel != "" {
		var l slog.Level
		if err := l.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
			return fmt.Errorf("log_level %q: %w", cfg.LogLevel, err)
		}
	}
	return nil
}
