package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Sessions  SessionsConfig  `mapstructure:"sessions"`
	Tape      TapeConfig      `mapstructure:"tape"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Log       LogConfig       `mapstructure:"log"`
	UI        UIConfig        `mapstructure:"ui"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// SessionsConfig bounds the in-memory calculator sessions.
type SessionsConfig struct {
	TTL           time.Duration `mapstructure:"ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	Max           int           `mapstructure:"max"`
}

// TapeConfig holds sqlite settings for the evaluation tape.
type TapeConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// TelemetryConfig toggles the OTLP exporters. SampleRatio applies to root
// spans; child spans follow their parent.
type TelemetryConfig struct {
	ServiceName    string        `mapstructure:"service_name"`
	Environment    string        `mapstructure:"environment"`
	Traces         bool          `mapstructure:"traces"`
	Metrics        bool          `mapstructure:"metrics"`
	Logs           bool          `mapstructure:"logs"`
	SampleRatio    float64       `mapstructure:"sample_ratio"`
	MetricInterval time.Duration `mapstructure:"metric_interval"`
}

// LogConfig holds zap settings. An empty File logs to stderr.
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
	File        string `mapstructure:"file"`
}

// UIConfig holds terminal keypad settings.
type UIConfig struct {
	ShowHelp  bool `mapstructure:"show_help"`
	KeypadGap int  `mapstructure:"keypad_gap"`
}

// Path returns the config file location: CALCPAD_CONFIG when set, otherwise
// ~/.config/calcpad/config.toml.
func Path() string {
	if p := os.Getenv("CALCPAD_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(os.Getenv("HOME"), ".config", "calcpad", "config.toml")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.shutdown_timeout", 5*time.Second)
	v.SetDefault("sessions.ttl", 30*time.Minute)
	v.SetDefault("sessions.sweep_interval", time.Minute)
	v.SetDefault("sessions.max", 1000)
	v.SetDefault("tape.enabled", true)
	v.SetDefault("tape.path", filepath.Join(os.Getenv("HOME"), ".local", "share", "calcpad", "tape.db"))
	v.SetDefault("telemetry.service_name", "calcpad")
	v.SetDefault("telemetry.environment", "development")
	v.SetDefault("telemetry.traces", false)
	v.SetDefault("telemetry.metrics", false)
	v.SetDefault("telemetry.logs", false)
	v.SetDefault("telemetry.sample_ratio", 1.0)
	v.SetDefault("telemetry.metric_interval", 15*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
	v.SetDefault("log.file", "")
	v.SetDefault("ui.show_help", true)
	v.SetDefault("ui.keypad_gap", 1)
}

// Load reads configuration from file and env. Env var overrides use prefix CALCPAD_.
func Load() (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("toml")
	v.SetConfigFile(Path())

	v.SetEnvPrefix("CALCPAD")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// the file is optional; a present but malformed one is an error
	if _, err := os.Stat(Path()); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate rejects values the server cannot run with.
func (c Config) Validate() error {
	switch {
	case c.Sessions.TTL <= 0:
		return fmt.Errorf("sessions.ttl must be positive, got %s", c.Sessions.TTL)
	case c.Sessions.SweepInterval <= 0:
		return fmt.Errorf("sessions.sweep_interval must be positive, got %s", c.Sessions.SweepInterval)
	case c.Sessions.Max < 0:
		return fmt.Errorf("sessions.max must not be negative, got %d", c.Sessions.Max)
	case c.Tape.Enabled && c.Tape.Path == "":
		return fmt.Errorf("tape.path is required when the tape is enabled")
	case c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1:
		return fmt.Errorf("telemetry.sample_ratio must be within [0, 1], got %g", c.Telemetry.SampleRatio)
	case c.Telemetry.Metrics && c.Telemetry.MetricInterval <= 0:
		return fmt.Errorf("telemetry.metric_interval must be positive, got %s", c.Telemetry.MetricInterval)
	}
	return nil
}

// Save writes the UI preferences and tape settings to the config file,
// creating the config directory if needed. The keypad uses it to persist the
// help toggle.
func Save(cfg Config) error {
	path := Path()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("tape.enabled", cfg.Tape.Enabled)
	v.Set("tape.path", cfg.Tape.Path)
	v.Set("log.level", cfg.Log.Level)
	v.Set("log.file", cfg.Log.File)
	v.Set("ui.show_help", cfg.UI.ShowHelp)
	v.Set("ui.keypad_gap", cfg.UI.KeypadGap)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
