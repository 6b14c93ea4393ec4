package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("OC_REDIS_ADDR", "localhost:6380")
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
server:
  port: "9090"
redis:
  addr: ${OC_REDIS_ADDR}
  ttl: 15m
checklist:
  ttl: 1h
  files:
    - checklists/qsc-weekly.json
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" || cfg.Redis.Addr != "localhost:6380" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if len(cfg.Checklist.Files) != 1 {
		t.Fatalf("expected one checklist file, got %v", cfg.Checklist.Files)
	}
	if got := TTLDuration(cfg.Checklist.TTL, time.Minute); got != time.Hour {
		t.Fatalf("expected 1h, got %v", got)
	}
}

func TestLoadOrDefaultMissingFile(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.Server.Port != "" {
		t.Fatalf("expected zero config, got %+v", cfg)
	}
}

func TestTTLDurationFallback(t *testing.T) {
	if got := TTLDuration("", 5*time.Minute); got != 5*time.Minute {
		t.Fatalf("expected fallback, got %v", got)
	}
	if got := TTLDuration("soon", 5*time.Minute); got != 5*time.Minute {
		t.Fatalf("expected fallback for garbage, got %v", got)
	}
}
