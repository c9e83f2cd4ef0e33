package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Addr != ":8080" {
		t.Errorf("Addr = %q, want :8080", cfg.Addr)
	}
	if cfg.DatabasePath != "questboard.db" {
		t.Errorf("DatabasePath = %q, want questboard.db", cfg.DatabasePath)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
	if cfg.NotifyInterval != 15*time.Minute {
		t.Errorf("NotifyInterval = %v, want 15m", cfg.NotifyInterval)
	}
	if cfg.DueSoonWindow != 24*time.Hour {
		t.Errorf("DueSoonWindow = %v, want 24h", cfg.DueSoonWindow)
	}
	if cfg.LoginRatePerMinute != 10 {
		t.Errorf("LoginRatePerMinute = %d, want 10", cfg.LoginRatePerMinute)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("QUESTBOARD_ADDR", ":9999")
	t.Setenv("QUESTBOARD_DB_PATH", "/tmp/qb.db")
	t.Setenv("QUESTBOARD_LOG_LEVEL", "debug")
	t.Setenv("QUESTBOARD_ALLOWED_ORIGINS", "http://localhost:5173, http://example.com")
	t.Setenv("QUESTBOARD_NOTIFY_INTERVAL", "30s")
	t.Setenv("QUESTBOARD_LOGIN_RATE", "3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Addr != ":9999" {
		t.Errorf("Addr = %q, want :9999", cfg.Addr)
	}
	if cfg.DatabasePath != "/tmp/qb.db" {
		t.Errorf("DatabasePath = %q", cfg.DatabasePath)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "http://example.com" {
		t.Errorf("AllowedOrigins = %v", cfg.AllowedOrigins)
	}
	if cfg.NotifyInterval != 30*time.Second {
		t.Errorf("NotifyInterval = %v, want 30s", cfg.NotifyInterval)
	}
	if cfg.LoginRatePerMinute != 3 {
		t.Errorf("LoginRatePerMinute = %d, want 3", cfg.LoginRatePerMinute)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("QUESTBOARD_NOTIFY_INTERVAL", "soon")
	if _, err := Load(); err == nil {
		t.Error("expected error for unparseable interval")
	}

	t.Setenv("QUESTBOARD_NOTIFY_INTERVAL", "")
	t.Setenv("QUESTBOARD_LOGIN_RATE", "-2")
	if _, err := Load(); err == nil {
		t.Error("expected error for negative rate")
	}
}
