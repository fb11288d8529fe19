// Package config loads and validates application configuration from
// environment variables and an optional env-format config file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values for the API server.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// LogLevel controls the minimum log level: debug, info, warn, or error.
	LogLevel string

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string

	// JWTSecret signs and verifies bearer tokens. Required.
	JWTSecret string
	// TokenTTL is the lifetime of tokens issued at login. Defaults to 24h.
	TokenTTL time.Duration
	// AdminEmails register with the admin role.
	AdminEmails []string

	// DatabaseURL is the Postgres connection string. Empty selects the
	// in-memory stores.
	DatabaseURL string
	// AutoMigrate applies pending migrations at startup.
	AutoMigrate bool

	HoldTTL          time.Duration
	SweepInterval    time.Duration
	SessionRetention time.Duration

	MaxBodyBytes int64

	// RedisAddr enables idempotent POST replay when set.
	RedisAddr      string
	RedisPassword  string
	IdempotencyTTL time.Duration

	// KafkaBrokers enables the Kafka event publisher when non-empty.
	KafkaBrokers []string
	KafkaTopic   string

	// SeedDemoTrips publishes sample trips into an empty catalog.
	SeedDemoTrips bool
}

// Load reads configuration from environment variables.
// Returns an error naming every required variable that is not set.
func Load() (Config, error) {
	return load(newViper())
}

// LoadWithFile reads an env-format file at path, then applies environment
// variable overrides.
func LoadWithFile(path string) (Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("config.LoadWithFile: %w", err)
	}
	return load(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ORIGINS", "http://localhost:5173")
	v.SetDefault("AUTO_MIGRATE", true)
	v.SetDefault("TOKEN_TTL", "24h")
	v.SetDefault("HOLD_TTL", "10m")
	v.SetDefault("SWEEP_INTERVAL", "30s")
	v.SetDefault("SESSION_RETENTION", "1h")
	v.SetDefault("MAX_BODY_BYTES", 1<<20)
	v.SetDefault("IDEMPOTENCY_TTL", "24h")
	v.SetDefault("KAFKA_TOPIC", "booking-events")
	v.SetDefault("SEED_DEMO_TRIPS", false)
}

func load(v *viper.Viper) (Config, error) {
	cfg := Config{
		Port:             v.GetString("PORT"),
		LogLevel:         v.GetString("LOG_LEVEL"),
		CORSOrigins:      splitCSV(v.GetString("CORS_ORIGINS")),
		JWTSecret:        v.GetString("JWT_SECRET"),
		TokenTTL:         v.GetDuration("TOKEN_TTL"),
		AdminEmails:      splitCSV(v.GetString("ADMIN_EMAILS")),
		DatabaseURL:      v.GetString("DATABASE_URL"),
		AutoMigrate:      v.GetBool("AUTO_MIGRATE"),
		HoldTTL:          v.GetDuration("HOLD_TTL"),
		SweepInterval:    v.GetDuration("SWEEP_INTERVAL"),
		SessionRetention: v.GetDuration("SESSION_RETENTION"),
		MaxBodyBytes:     v.GetInt64("MAX_BODY_BYTES"),
		RedisAddr:        v.GetString("REDIS_ADDR"),
		RedisPassword:    v.GetString("REDIS_PASSWORD"),
		IdempotencyTTL:   v.GetDuration("IDEMPOTENCY_TTL"),
		KafkaBrokers:     splitCSV(v.GetString("KAFKA_BROKERS")),
		KafkaTopic:       v.GetString("KAFKA_TOPIC"),
		SeedDemoTrips:    v.GetBool("SEED_DEMO_TRIPS"),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports missing required values and out-of-range settings.
func (c Config) Validate() error {
	var missing []string
	if c.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}

	var errs []error
	for _, d := range []struct {
		name  string
		value time.Duration
	}{
		{"TOKEN_TTL", c.TokenTTL},
		{"HOLD_TTL", c.HoldTTL},
		{"SWEEP_INTERVAL", c.SweepInterval},
		{"SESSION_RETENTION", c.SessionRetention},
		{"IDEMPOTENCY_TTL", c.IdempotencyTTL},
	} {
		if d.value <= 0 {
			errs = append(errs, fmt.Errorf("%s must be a positive duration", d.name))
		}
	}
	if c.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("MAX_BODY_BYTES must be positive"))
	}
	return errors.Join(errs...)
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
