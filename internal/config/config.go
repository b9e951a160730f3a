// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Sensor  SensorConfig  `yaml:"sensor"`
	Ambient AmbientConfig `yaml:"ambient"`
	Session SessionConfig `yaml:"session"`

	// DBPath enables the SQLite cycle recorder when set.
	DBPath   string `yaml:"db_path"`
	LogLevel string `yaml:"log_level"`
}

// ---- SENSOR ----

type SensorConfig struct {
	// Bus is a Linux device path ("/dev/i2c-1") or a periph bus name.
	Bus     string `yaml:"bus"`
	Address uint16 `yaml:"address"` // 0 = model default
	Model   string `yaml:"model"`
	// Sim runs against the in-process simulator instead of a bus.
	Sim bool `yaml:"sim"`
}

// ---- AMBIENT ----

type AmbientConfig struct {
	// Source names a sensor measuring the conditions each cycle: "none" or
	// "aht20". It shares the gas sensor's bus.
	Source  string `yaml:"source"`
	Address uint16 `yaml:"address"` // 0 = source default

	// TemperatureC and HumidityPct are used without a source, or when a
	// source read fails. TemperatureC of -300 selects the on-chip
	// temperature.
	TemperatureC *float64 `yaml:"temperature_c"`
	HumidityPct  *float64 `yaml:"humidity_pct"`
}

// ---- SESSION ----

type SessionConfig struct {
	MaxCycles int `yaml:"max_cycles"` // 0 = unbounded
	// MaxConsecutiveFaults ends the session after this many failed cycles
	// in a row. 0 selects the default.
	MaxConsecutiveFaults int `yaml:"max_consecutive_faults"`
}

// Models lists the sensor models the monitor knows how to drive.
var Models = []string{"zmod4510"}

// Ambient sources.
const (
	AmbientNone  = "none"
	AmbientAHT20 = "aht20"
)

var AmbientSources = []string{AmbientNone, AmbientAHT20}

// Defaults.
const (
	DefaultBus                  = "/dev/i2c-1"
	DefaultModel                = "zmod4510"
	DefaultTemperatureC         = -300.0
	DefaultHumidityPct          = 50.0
	DefaultMaxConsecutiveFaults = 10
	DefaultLogLevel             = "info"
)

// Load reads a YAML file. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &cfg, nil
}

// Level parses LogLevel. It must be called after Validate.
func (c *Config) Level() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return l
}
