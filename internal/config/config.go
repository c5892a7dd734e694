// Package config reads the server configuration from the environment.
//
// A .env file in the working directory is loaded first (if present), then
// real environment variables win over it. Every variable has a default, so
// an empty environment starts a working demo server.
//
//	PORT               HTTP port                          (8080)
//	DB_PATH            sqlite file, ":memory:" allowed    (data/learning-tracker.db)
//	LOG_LEVEL          debug|info|warn|error              (info)
//	SIMULATED_LATENCY  delay on load/add/search, e.g. 1s  (0)
//	SEARCH_DEBOUNCE    websocket search debounce          (500ms)
//	SEED_DEMO_DATA     write starter technologies         (true)
//	CORS_ORIGINS       comma-separated allowed origins    (*)
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything main needs to build the server.
type Config struct {
	Port             int
	DBPath           string
	LogLevel         slog.Level
	SimulatedLatency time.Duration
	SearchDebounce   time.Duration
	SeedDemoData     bool
	CORSOrigins      []string
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Port:           8080,
		DBPath:         "data/learning-tracker.db",
		LogLevel:       slog.LevelInfo,
		SearchDebounce: 500 * time.Millisecond,
		SeedDemoData:   true,
		CORSOrigins:    []string{"*"},
	}
}

// Load reads envFile (skipped if it doesn't exist) and then the environment.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		// godotenv.Load never overrides variables that are already set.
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("config: reading %s: %w", envFile, err)
		}
	}
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from any variable source. Tests pass a map.
func FromLookup(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	var errs []error

	if v, ok := lookup("PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port < 1 || port > 65535 {
			errs = append(errs, fmt.Errorf("PORT must be a port number, got %q", v))
		} else {
			cfg.Port = port
		}
	}

	if v, ok := lookup("DB_PATH"); ok && v != "" {
		cfg.DBPath = v
	}

	if v, ok := lookup("LOG_LEVEL"); ok && v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			errs = append(errs, fmt.Errorf("LOG_LEVEL must be debug, info, warn or error, got %q", v))
		}
	}

	if v, ok := lookup("SIMULATED_LATENCY"); ok && v != "" {
		d, err := parseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("SIMULATED_LATENCY: %w", err))
		} else {
			cfg.SimulatedLatency = d
		}
	}

	if v, ok := lookup("SEARCH_DEBOUNCE"); ok && v != "" {
		d, err := parseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("SEARCH_DEBOUNCE: %w", err))
		} else {
			cfg.SearchDebounce = d
		}
	}

	if v, ok := lookup("SEED_DEMO_DATA"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("SEED_DEMO_DATA must be true or false, got %q", v))
		} else {
			cfg.SeedDemoData = b
		}
	}

	if v, ok := lookup("CORS_ORIGINS"); ok && v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		if len(origins) > 0 {
			cfg.CORSOrigins = origins
		}
	}

	if len(errs) > 0 {
		return Config{}, fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return cfg, nil
}

// parseDuration accepts Go durations ("750ms", "1s") and bare milliseconds ("500").
func parseDuration(v string) (time.Duration, error) {
	if ms, err := strconv.Atoi(v); err == nil {
		if ms < 0 {
			return 0, fmt.Errorf("must not be negative, got %q", v)
		}
		return time.Duration(ms) * time.Millisecond, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("must be a duration like 500ms, got %q", v)
	}
	if d < 0 {
		return 0, fmt.Errorf("must not be negative, got %q", v)
	}
	return d, nil
}

// AllowsAnyOrigin reports whether CORS is wide open.
func (c Config) AllowsAnyOrigin() bool {
	for _, o := range c.CORSOrigins {
		if o == "*" {
			return true
		}
	}
	return false
}
