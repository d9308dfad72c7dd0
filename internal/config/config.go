// Package config loads application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/ericfisherdev/fieldorders/internal/domain/model"
)

// DefaultBaseURL is the work-order backend used when FIELDORDERS_BASE_URL is
// unset.
const DefaultBaseURL = "http://erpcloud.syncsolutions.es:3030"

// Config holds the application configuration loaded from environment variables.
type Config struct {
	BaseURL            string
	ListenAddr         string
	DBPath             string
	SecretKey          string
	TempDir            string
	SignatureQuality   float64
	SignatureMinLength int
	HTTPTimeout        time.Duration
	LogLevel           string
	LogFormat          string
	SweepInterval      time.Duration
}

// HasSecretKey returns true when a credential encryption key is configured.
// Without one the credential store is read-only empty and every write is
// logged and skipped.
func (c *Config) HasSecretKey() bool {
	return c.SecretKey != ""
}

// Load reads configuration from environment variables and returns a validated
// Config. Variables already set in the environment take precedence over those
// in envFile; a missing envFile is not an error and an empty name skips it.
//
// Optional variables with defaults: FIELDORDERS_BASE_URL (DefaultBaseURL),
// FIELDORDERS_LISTEN_ADDR (127.0.0.1:8080), FIELDORDERS_DB_PATH
// (fieldorders.db), FIELDORDERS_TEMP_DIR (os.TempDir()),
// FIELDORDERS_SIGNATURE_QUALITY (0.5), FIELDORDERS_SIGNATURE_MIN_LENGTH (50),
// FIELDORDERS_HTTP_TIMEOUT (0, none), FIELDORDERS_LOG_LEVEL (info),
// FIELDORDERS_LOG_FORMAT (text), FIELDORDERS_SWEEP_INTERVAL (15m).
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", envFile, err)
		}
	}

	cfg := &Config{
		BaseURL:            stringVar("FIELDORDERS_BASE_URL", DefaultBaseURL),
		ListenAddr:         stringVar("FIELDORDERS_LISTEN_ADDR", "127.0.0.1:8080"),
		DBPath:             stringVar("FIELDORDERS_DB_PATH", "fieldorders.db"),
		SecretKey:          os.Getenv("FIELDORDERS_SECRET_KEY"),
		TempDir:            os.Getenv("FIELDORDERS_TEMP_DIR"),
		SignatureQuality:   model.DefaultCompressQuality,
		SignatureMinLength: model.DefaultMinSignatureLength,
		LogLevel:           stringVar("FIELDORDERS_LOG_LEVEL", "info"),
		LogFormat:          stringVar("FIELDORDERS_LOG_FORMAT", "text"),
		SweepInterval:      15 * time.Minute,
	}

	if v, ok := os.LookupEnv("FIELDORDERS_SIGNATURE_QUALITY"); ok {
		q, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("FIELDORDERS_SIGNATURE_QUALITY has invalid number %q: %w", v, err)
		}
		if math.IsNaN(q) || q <= 0 || q > 1 {
			return nil, fmt.Errorf("FIELDORDERS_SIGNATURE_QUALITY must be in (0, 1], got %v", q)
		}
		cfg.SignatureQuality = q
	}

	if v, ok := os.LookupEnv("FIELDORDERS_SIGNATURE_MIN_LENGTH"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("FIELDORDERS_SIGNATURE_MIN_LENGTH has invalid integer %q: %w", v, err)
		}
		if n <= 0 {
			return nil, fmt.Errorf("FIELDORDERS_SIGNATURE_MIN_LENGTH must be positive, got %d", n)
		}
		cfg.SignatureMinLength = n
	}

	if v, ok := os.LookupEnv("FIELDORDERS_HTTP_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("FIELDORDERS_HTTP_TIMEOUT has invalid duration %q: %w", v, err)
		}
		if d < 0 {
			return nil, fmt.Errorf("FIELDORDERS_HTTP_TIMEOUT must not be negative, got %s", d)
		}
		cfg.HTTPTimeout = d
	}

	if v, ok := os.LookupEnv("FIELDORDERS_SWEEP_INTERVAL"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("FIELDORDERS_SWEEP_INTERVAL has invalid duration %q: %w", v, err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("FIELDORDERS_SWEEP_INTERVAL must be positive, got %s", d)
		}
		cfg.SweepInterval = d
	}

	return cfg, nil
}

func stringVar(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
