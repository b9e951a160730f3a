// internal/config/normalize.go
package config

// Normalize fills defaults. It mutates cfg and must be called after Validate.
// Device addresses are left at 0 for the drivers to supply.
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}
	if cfg.Sensor.Bus == "" {
		cfg.Sensor.Bus = DefaultBus
	}
	if cfg.Sensor.Model == "" {
		cfg.Sensor.Model = DefaultModel
	}
	if cfg.Ambient.Source == "" {
		cfg.Ambient.Source = AmbientNone
	}
	if cfg.Ambient.TemperatureC == nil {
		t := DefaultTemperatureC
		cfg.Ambient.TemperatureC = &t
	}
	if cfg.Ambient.HumidityPct == nil {
		h := DefaultHumidityPct
		cfg.Ambient.HumidityPct = &h
	}
	if cfg.Session.MaxConsecutiveFaults == 0 {
		cfg.Session.MaxConsecutiveFaults = DefaultMaxConsecutiveFaults
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
}
