package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every runtime setting of the API. Values come from an optional
// YAML file with environment variables taking precedence.
type Config struct {
	Environment string `yaml:"environment"`

	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	SMTP     SMTPConfig     `yaml:"smtp"`
	Rate     RateConfig     `yaml:"rate_limiting"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
	// BaseURL is the externally reachable URL used to build links embedded in
	// outbound emails (verification, password reset).
	BaseURL string `yaml:"base_url"`
}

type DatabaseConfig struct {
	// DSN is the PostgreSQL connection string. When empty the service runs on
	// in-memory stores, which is only suitable for development and tests.
	DSN string `yaml:"dsn"`
}

type AuthConfig struct {
	// Secret signs session tokens (HS256).
	Secret string `yaml:"secret"`
	// SessionTTL bounds session token validity.
	SessionTTL time.Duration `yaml:"session_ttl"`
	// OneTimeTokenTTL bounds verification and password-reset tokens.
	OneTimeTokenTTL time.Duration `yaml:"one_time_token_ttl"`
	// CookieSecure marks the session cookie Secure; forced on in production.
	CookieSecure bool `yaml:"cookie_secure"`
}

type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

type RateConfig struct {
	Burst     int `yaml:"burst"`
	PerSecond int `yaml:"per_second"`
}

// Load reads path (when non-empty), then applies environment overrides and
// defaults. It never reaches the network.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Environment: "dev",
		Server: ServerConfig{
			Addr:    ":8080",
			BaseURL: "http://localhost:8080",
		},
		Auth: AuthConfig{
			SessionTTL:      24 * time.Hour,
			OneTimeTokenTTL: 10 * time.Minute,
		},
		SMTP: SMTPConfig{Port: 587},
		Rate: RateConfig{Burst: 20, PerSecond: 10},
	}

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open config: %w", err)
		}
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)

	if cfg.Environment == "production" {
		cfg.Auth.CookieSecure = true
	}
	if cfg.Auth.Secret == "" && cfg.Environment == "production" {
		return nil, fmt.Errorf("auth secret is required in production")
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Environment, "RAMANI_ENV")
	setString(&cfg.Server.Addr, "RAMANI_ADDR")
	setString(&cfg.Server.BaseURL, "RAMANI_BASE_URL")
	setString(&cfg.Database.DSN, "RAMANI_PG_DSN")
	setString(&cfg.Auth.Secret, "RAMANI_AUTH_SECRET")
	setDuration(&cfg.Auth.SessionTTL, "RAMANI_SESSION_TTL")
	setDuration(&cfg.Auth.OneTimeTokenTTL, "RAMANI_ONE_TIME_TOKEN_TTL")
	setString(&cfg.SMTP.Host, "RAMANI_SMTP_HOST")
	setInt(&cfg.SMTP.Port, "RAMANI_SMTP_PORT")
	setString(&cfg.SMTP.Username, "RAMANI_SMTP_USERNAME")
	setString(&cfg.SMTP.Password, "RAMANI_SMTP_PASSWORD")
	setString(&cfg.SMTP.From, "RAMANI_EMAIL_FROM")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			*dst = d
		}
	}
}
