// Package config loads the runtime configuration for the batch runner:
// application identity, logging, default simulation parameters, metrics, and
// tracing, layered defaults < config file < environment.
package config

import (
	"fmt"
	"strings"
)

// RunConfig is the top-level configuration structure.
type RunConfig struct {
	App     AppConfig     `koanf:"app"`
	Log     LogConfig     `koanf:"log"`
	Sim     SimConfig     `koanf:"sim"`
	Metrics MetricsConfig `koanf:"metrics"`
	Tracing TracingConfig `koanf:"tracing"`
}

// AppConfig holds general application identity settings.
type AppConfig struct {
	Name        string `koanf:"name"`
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"` // development, staging, production
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level      string `koanf:"level"`       // debug, info, warn, error
	Format     string `koanf:"format"`      // json, text
	Output     string `koanf:"output"`      // stdout, stderr, file
	FilePath   string `koanf:"file_path"`
	MaxSize    int    `koanf:"max_size"`    // MB
	MaxBackups int    `koanf:"max_backups"`
	MaxAge     int    `koanf:"max_age"`     // days
	Compress   bool   `koanf:"compress"`
}

// SimConfig holds default simulation parameters applied when the compiled
// frame's own Simulation object is absent or leaves a field at its zero
// value. The frame always wins over these process-level defaults.
type SimConfig struct {
	DefaultSolver     string  `koanf:"default_solver"` // euler, rk4
	DefaultTimeDelta  float64 `koanf:"default_time_delta"`
	DefaultSteps      int     `koanf:"default_steps"`
	MaxSteps          int     `koanf:"max_steps"` // guard against runaway runs
	EnableTracing     bool    `koanf:"enable_tracing"`
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	Enabled   bool   `koanf:"enabled"`
	Port      int    `koanf:"port"`
	Namespace string `koanf:"namespace"`
}

// TracingConfig holds OpenTelemetry tracing settings.
type TracingConfig struct {
	Enabled     bool    `koanf:"enabled"`
	Endpoint    string  `koanf:"endpoint"`
	ServiceName string  `koanf:"service_name"`
	SampleRate  float64 `koanf:"sample_rate"`
}

// Validate checks the configuration for obviously invalid values.
func (c *RunConfig) Validate() error {
	var errs []string

	if c.App.Name == "" {
		errs = append(errs, "app.name is required")
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, fmt.Sprintf("log.level must be one of: debug, info, warn, error, got %s", c.Log.Level))
	}

	validSolvers := map[string]bool{"euler": true, "rk4": true}
	if c.Sim.DefaultSolver != "" && !validSolvers[strings.ToLower(c.Sim.DefaultSolver)] {
		errs = append(errs, fmt.Sprintf("sim.default_solver must be one of: euler, rk4, got %s", c.Sim.DefaultSolver))
	}

	if c.Sim.DefaultTimeDelta < 0 {
		errs = append(errs, "sim.default_time_delta must be non-negative")
	}

	if c.Sim.DefaultSteps < 0 {
		errs = append(errs, "sim.default_steps must be non-negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return nil
}

// IsDevelopment reports whether the app is configured for development.
func (c *RunConfig) IsDevelopment() bool {
	return c.App.Environment == "development" || c.App.Environment == "dev"
}

// IsProduction reports whether the app is configured for production.
func (c *RunConfig) IsProduction() bool {
	return c.App.Environment == "production" || c.App.Environment == "prod"
}
