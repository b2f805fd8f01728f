// Package config assembles the runtime configuration from environment
// variables. One Config value is built in main and passed down explicitly;
// no package-level mutable state.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the root configuration for the lifeline server.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Auth     AuthConfig
	Lockout  LockoutConfig
	Matching MatchingConfig
	Log      LogConfig
}

// ServerConfig captures HTTP server level configuration.
type ServerConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig captures Postgres connectivity. An empty URL selects the
// in-memory stores (development and unit-test mode).
type DatabaseConfig struct {
	URL          string
	MaxOpenConns int
	MaxIdleConns int
}

// RedisConfig captures Redis connectivity for the token revocation store.
// An empty URL selects the in-memory revocation store.
type RedisConfig struct {
	URL      string
	PoolSize int
}

// KafkaConfig captures the notification relay's broker settings. Empty
// Brokers disables the relay and consumer (events stay in the outbox).
type KafkaConfig struct {
	Brokers       []string
	ConsumerGroup string
}

// AuthConfig captures token issuance settings and the admin bootstrap.
// Admin accounts cannot self-register; the one named here is provisioned at
// startup. Empty AdminEmail disables the bootstrap.
type AuthConfig struct {
	JWTSigningKey string
	TokenTTL      time.Duration
	Issuer        string
	AdminEmail    string
	AdminPassword string
}

// LogConfig captures logging settings.
type LogConfig struct {
	Level string
}

// LockoutConfig captures login lockout thresholds.
type LockoutConfig struct {
	MaxFailures  int
	Window       time.Duration
	LockDuration time.Duration
}

// MatchingConfig captures the tunables of the eligibility and scoring rules.
// The cooldown and radius are configuration, not literals, so tests and
// deployments can override them.
type MatchingConfig struct {
	CooldownDays       int
	ProximityRadiusKm  float64
	ExactMatchBonus    float64
	UrgencyBonusLow    float64
	UrgencyBonusMedium float64
	UrgencyBonusHigh   float64
	UrgencyBonusCrit   float64
	BroadcastFanOut    int
}

// Load builds a Config from environment variables, applying defaults for
// anything unset so a bare `go run ./cmd/server` comes up in memory mode.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            envString("LIFELINE_ADDR", ":8080"),
			ReadTimeout:     envDuration("LIFELINE_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    envDuration("LIFELINE_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: envDuration("LIFELINE_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Redis: RedisConfig{
			URL:      os.Getenv("REDIS_URL"),
			PoolSize: envInt("REDIS_POOL_SIZE", 10),
		},
		Kafka: KafkaConfig{
			Brokers:       envStrings("KAFKA_BROKERS"),
			ConsumerGroup: envString("KAFKA_CONSUMER_GROUP", "lifeline-notifications"),
		},
		Auth: AuthConfig{
			JWTSigningKey: envString("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
			TokenTTL:      envDuration("JWT_TOKEN_TTL", time.Hour),
			Issuer:        envString("JWT_ISSUER", "lifeline"),
			AdminEmail:    os.Getenv("ADMIN_EMAIL"),
			AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		},
		Lockout: LockoutConfig{
			MaxFailures:  envInt("LOCKOUT_MAX_FAILURES", 5),
			Window:       envDuration("LOCKOUT_WINDOW", 15*time.Minute),
			LockDuration: envDuration("LOCKOUT_DURATION", 15*time.Minute),
		},
		Matching: DefaultMatching(),
		Log: LogConfig{
			Level: envString("LOG_LEVEL", "info"),
		},
	}
}

// DefaultMatching returns the matching tunables with their default values.
// Exposed separately so tests can start from defaults and override one knob.
func DefaultMatching() MatchingConfig {
	return MatchingConfig{
		CooldownDays:       envInt("MATCHING_COOLDOWN_DAYS", 56),
		ProximityRadiusKm:  envFloat("MATCHING_PROXIMITY_RADIUS_KM", 100),
		ExactMatchBonus:    20,
		UrgencyBonusLow:    0,
		UrgencyBonusMedium: 5,
		UrgencyBonusHigh:   15,
		UrgencyBonusCrit:   25,
		BroadcastFanOut:    envInt("MATCHING_BROADCAST_FANOUT", 10),
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envStrings(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
