// Package config reads server settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port         string
	DBPath       string
	OutputDir    string
	RefdataPath  string // empty uses the embedded merchant table
	Env          string
	BaseURL      string
	AutoMigrate  bool
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// GenerateRPS limits receipt generation; zero disables the limit.
	GenerateRPS   float64
	GenerateBurst int
}

// Production reports whether APP_ENV selects production logging.
func (c Config) Production() bool {
	return c.Env == "production" || c.Env == "prod"
}

// Addr is the listen address.
func (c Config) Addr() string { return ":" + c.Port }

// Load applies the .env files (missing files are ignored; variables already
// set in the environment win) and then reads the environment.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv, filling defaults.
func FromEnv(getenv func(string) string) (Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	c := Config{
		Port:        get("PORT", "8080"),
		DBPath:      get("DB_PATH", "receipts.db"),
		OutputDir:   get("OUTPUT_DIR", "receipts"),
		RefdataPath: get("REFDATA_PATH", ""),
		Env:         strings.ToLower(get("APP_ENV", "development")),
	}
	c.BaseURL = strings.TrimRight(get("BASE_URL", "http://localhost:"+c.Port), "/")

	var errs []error
	var err error
	if c.AutoMigrate, err = strconv.ParseBool(get("AUTO_MIGRATE", "true")); err != nil {
		errs = append(errs, fmt.Errorf("AUTO_MIGRATE: %w", err))
	}
	if c.ReadTimeout, err = time.ParseDuration(get("READ_TIMEOUT", "15s")); err != nil {
		errs = append(errs, fmt.Errorf("READ_TIMEOUT: %w", err))
	}
	if c.WriteTimeout, err = time.ParseDuration(get("WRITE_TIMEOUT", "30s")); err != nil {
		errs = append(errs, fmt.Errorf("WRITE_TIMEOUT: %w", err))
	}
	if c.GenerateRPS, err = strconv.ParseFloat(get("GENERATE_RPS", "10"), 64); err != nil {
		errs = append(errs, fmt.Errorf("GENERATE_RPS: %w", err))
	}
	if c.GenerateBurst, err = strconv.Atoi(get("GENERATE_BURST", "20")); err != nil {
		errs = append(errs, fmt.Errorf("GENERATE_BURST: %w", err))
	}
	if _, err := strconv.ParseUint(c.Port, 10, 16); err != nil {
		errs = append(errs, fmt.Errorf("PORT %q: not a port number", c.Port))
	}
	return c, errors.Join(errs...)
}
