// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the HTTP server listens on (e.g. :8080).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// DatabaseURL is the Postgres DSN.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// TokenSecret is the shared HMAC secret for identity tokens. Required.
	TokenSecret string `mapstructure:"TOKEN_SECRET"`
	// TokenAlgorithm is the pinned signing algorithm (HS256, HS384, HS512).
	TokenAlgorithm string `mapstructure:"TOKEN_ALGORITHM"`
	// TokenTTL is the identity token lifetime (e.g. "15m"); "0" issues unbounded tokens.
	TokenTTL string `mapstructure:"TOKEN_TTL"`
	// SessionTTL is the hard lifetime of a persistent session (e.g. "720h").
	SessionTTL string `mapstructure:"SESSION_TTL"`
	// ModificationWindow bounds sensitive mutations to recent logins (e.g. "30m"); "0" disables.
	ModificationWindow string `mapstructure:"MODIFICATION_WINDOW"`
	// HashAlgorithm selects the password digest (sha256, sha384, sha512, sha3-256, sha3-512).
	HashAlgorithm string `mapstructure:"HASH_ALGORITHM"`
	// ReaperInterval is the expired-session purge interval (e.g. "10m").
	ReaperInterval string `mapstructure:"REAPER_INTERVAL"`

	// Events (optional). When Kafka brokers are set, the account service
	// publishes account lifecycle events.
	// EventsKafkaBrokers is a comma-separated list of broker addresses.
	EventsKafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	// EventsKafkaTopic is the topic for account events.
	EventsKafkaTopic string `mapstructure:"EVENTS_KAFKA_TOPIC"`
	// KafkaGroupID is the consumer group ID for the event worker.
	KafkaGroupID string `mapstructure:"KAFKA_GROUP_ID"`

	// Gateway-only: upstream service base URLs.
	AuthServiceURL    string `mapstructure:"AUTH_SERVICE_URL"`
	AccountServiceURL string `mapstructure:"ACCOUNT_SERVICE_URL"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("TOKEN_SECRET", "")
	v.SetDefault("TOKEN_ALGORITHM", "HS512")
	v.SetDefault("TOKEN_TTL", "15m")
	v.SetDefault("SESSION_TTL", "720h") // 30d
	v.SetDefault("MODIFICATION_WINDOW", "30m")
	v.SetDefault("HASH_ALGORITHM", "sha512")
	v.SetDefault("REAPER_INTERVAL", "10m")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("EVENTS_KAFKA_TOPIC", "gatekeeper-accounts")
	v.SetDefault("KAFKA_GROUP_ID", "gatekeeper-account-worker")
	v.SetDefault("AUTH_SERVICE_URL", "http://localhost:8081")
	v.SetDefault("ACCOUNT_SERVICE_URL", "http://localhost:8082")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}
	switch cfg.TokenAlgorithm {
	case "HS256", "HS384", "HS512":
	default:
		return nil, errors.New("config: TOKEN_ALGORITHM must be HS256, HS384, or HS512")
	}

	return &cfg, nil
}

// TokenTTLDuration parses TokenTTL. Returns 15m if unset or invalid; "0"
// deliberately returns zero (unbounded tokens).
func (c *Config) TokenTTLDuration() time.Duration {
	return parseDuration(c.TokenTTL, 15*time.Minute)
}

// SessionTTLDuration parses SessionTTL. Returns 720h if unset or invalid.
func (c *Config) SessionTTLDuration() time.Duration {
	d := parseDuration(c.SessionTTL, 720*time.Hour)
	if d == 0 {
		return 720 * time.Hour
	}
	return d
}

// ModificationWindowDuration parses ModificationWindow. "0" disables the
// freshness check.
func (c *Config) ModificationWindowDuration() time.Duration {
	return parseDuration(c.ModificationWindow, 30*time.Minute)
}

// ReaperIntervalDuration parses ReaperInterval. Returns 10m if unset or invalid.
func (c *Config) ReaperIntervalDuration() time.Duration {
	d := parseDuration(c.ReaperInterval, 10*time.Minute)
	if d == 0 {
		return 10 * time.Minute
	}
	return d
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "0" {
		return 0
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return fallback
	}
	return d
}

// EventsKafkaBrokersList returns broker addresses from the comma-separated
// config. A non-empty list enables event publication.
func (c *Config) EventsKafkaBrokersList() []string {
	if c == nil || c.EventsKafkaBrokers == "" {
		return nil
	}
	parts := strings.Split(c.EventsKafkaBrokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
