package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Fatalf("unexpected addr %q", cfg.Server.Addr)
	}
	if cfg.Auth.SessionTTL != 24*time.Hour {
		t.Fatalf("unexpected session ttl %v", cfg.Auth.SessionTTL)
	}
	if cfg.Auth.OneTimeTokenTTL != 10*time.Minute {
		t.Fatalf("unexpected one-time token ttl %v", cfg.Auth.OneTimeTokenTTL)
	}
	if cfg.Rate.Burst != 20 || cfg.Rate.PerSecond != 10 {
		t.Fatalf("unexpected rate defaults %+v", cfg.Rate)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
environment: staging
server:
  addr: ":9090"
  base_url: https://staging.ramani.co.tz
auth:
  secret: yaml-secret
  session_ttl: 12h
rate_limiting:
  burst: 50
  per_second: 25
`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Environment != "staging" || cfg.Server.Addr != ":9090" {
		t.Fatalf("yaml values not applied: %+v", cfg)
	}
	if cfg.Auth.SessionTTL != 12*time.Hour {
		t.Fatalf("unexpected session ttl %v", cfg.Auth.SessionTTL)
	}
	if cfg.Rate.Burst != 50 || cfg.Rate.PerSecond != 25 {
		t.Fatalf("unexpected rate config %+v", cfg.Rate)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  addr: \":9090\"\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("RAMANI_ADDR", ":7070")
	t.Setenv("RAMANI_SESSION_TTL", "1h")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":7070" {
		t.Fatalf("env must win over file, got %q", cfg.Server.Addr)
	}
	if cfg.Auth.SessionTTL != time.Hour {
		t.Fatalf("unexpected session ttl %v", cfg.Auth.SessionTTL)
	}
}

func TestProductionRequiresSecret(t *testing.T) {
	t.Setenv("RAMANI_ENV", "production")
	t.Setenv("RAMANI_AUTH_SECRET", "")

	if _, err := Load(""); err == nil {
		t.Fatal("expected error for missing production secret")
	}

	t.Setenv("RAMANI_AUTH_SECRET", "prod-secret")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Auth.CookieSecure {
		t.Fatal("production must force the Secure cookie flag")
	}
}
