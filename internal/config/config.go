// Package config loads gantry settings from defaults, an optional YAML file
// and GANTRY_* environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/alexanderramin/gantry/internal/calendar"
	"gopkg.in/yaml.v3"
)

type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

type Config struct {
	DBPath          string    `yaml:"db"`                // GANTRY_DB (default ~/.gantry/gantry.db)
	SnapMinutes     int       `yaml:"snap_minutes"`      // GANTRY_SNAP_MINUTES (default 15)
	SameDayChaining bool      `yaml:"same_day_chaining"` // GANTRY_SAME_DAY_CHAINING
	NATSURL         string    `yaml:"nats_url"`          // GANTRY_NATS_URL (empty = no events)
	LogUseCases     bool      `yaml:"log_use_cases"`     // GANTRY_LOG_USE_CASES
	Log             LogConfig `yaml:"log"`               // GANTRY_LOG_LEVEL, GANTRY_LOG_FORMAT
}

// Default returns the built-in configuration. DBPath is left empty and
// resolved against the home directory by Load.
func Default() Config {
	return Config{
		SnapMinutes: calendar.DefaultSnapMinutes,
		Log:         LogConfig{Level: "warn", Format: "text"},
	}
}

// Load builds the effective configuration. A missing config file is not an
// error; a malformed one is.
func Load() (*Config, error) {
	cfg := Default()

	path, explicit := configPath()
	if path != "" {
		if err := cfg.mergeFile(path, explicit); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if cfg.DBPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("finding home directory: %w", err)
		}
		cfg.DBPath = filepath.Join(home, ".gantry", "gantry.db")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// configPath returns $GANTRY_CONFIG when set, else ~/.gantry/config.yaml.
func configPath() (path string, explicit bool) {
	if v := os.Getenv("GANTRY_CONFIG"); v != "" {
		return v, true
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", false
	}
	return filepath.Join(home, ".gantry", "config.yaml"), false
}

func (c *Config) mergeFile(path string, explicit bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return nil
		}
		return fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("GANTRY_DB"); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv("GANTRY_NATS_URL"); v != "" {
		c.NATSURL = v
	}
	if v := os.Getenv("GANTRY_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("GANTRY_LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}
	if v := os.Getenv("GANTRY_SNAP_MINUTES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("GANTRY_SNAP_MINUTES: %w", err)
		}
		c.SnapMinutes = n
	}
	if v := os.Getenv("GANTRY_SAME_DAY_CHAINING"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("GANTRY_SAME_DAY_CHAINING: %w", err)
		}
		c.SameDayChaining = b
	}
	if v := os.Getenv("GANTRY_LOG_USE_CASES"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("GANTRY_LOG_USE_CASES: %w", err)
		}
		c.LogUseCases = b
	}
	return nil
}

func (c *Config) Validate() error {
	if c.SnapMinutes <= 0 {
		return fmt.Errorf("snap_minutes must be positive, got %d", c.SnapMinutes)
	}
	if calendar.MinutesPerWorkingDay%c.SnapMinutes != 0 {
		return fmt.Errorf("snap_minutes %d must divide the %d-minute working day", c.SnapMinutes, calendar.MinutesPerWorkingDay)
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("log.level: unknown level %q", s)
	}
	return lvl, nil
}

// NewLogger builds the process logger described by the log settings.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	lvl, err := parseLevel(c.Log.Level)
	if err != nil {
		lvl = slog.LevelWarn
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(c.Log.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
