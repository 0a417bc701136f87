package config

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("LISTEN_ADDR", "")
	t.Setenv("DATABASE_PATH", "")
	t.Setenv("TOKEN_TTL", "")

	cfg := LoadFrom(newViper())

	if cfg.Port != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.Port)
	}
	if cfg.ListenAddr != ":8080" {
		t.Fatalf("expected listen addr :8080, got %q", cfg.ListenAddr)
	}
	if cfg.TokenTTL != 7*24*time.Hour {
		t.Fatalf("unexpected token ttl %s", cfg.TokenTTL)
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LISTEN_ADDR", "")
	t.Setenv("DATABASE_PATH", "/tmp/focus.db")
	t.Setenv("CRON_SECRET", "  shh  ")
	t.Setenv("TOKEN_TTL", "2h")

	cfg := LoadFrom(newViper())

	if cfg.ListenAddr != ":9090" {
		t.Fatalf("expected listen addr derived from port, got %q", cfg.ListenAddr)
	}
	if cfg.DatabasePath != "/tmp/focus.db" {
		t.Fatalf("unexpected database path %q", cfg.DatabasePath)
	}
	if cfg.CronSecret != "shh" {
		t.Fatalf("expected trimmed cron secret, got %q", cfg.CronSecret)
	}
	if cfg.TokenTTL != 2*time.Hour {
		t.Fatalf("unexpected token ttl %s", cfg.TokenTTL)
	}
}

func TestInitLoggerFallsBackToInfo(t *testing.T) {
	InitLogger("verbose")
	if Logger.GetLevel() != logrus.InfoLevel {
		t.Fatalf("expected info level, got %s", Logger.GetLevel())
	}

	InitLogger("debug")
	if Logger.GetLevel() != logrus.DebugLevel {
		t.Fatalf("expected debug level, got %s", Logger.GetLevel())
	}
}
