package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("TORRE_CONFIG", "")
	t.Setenv("TORRE_API_BASE", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIBase != "http://localhost:8000" {
		t.Fatalf("APIBase=%q", cfg.APIBase)
	}
	if cfg.RequestTimeout != 15*time.Second {
		t.Fatalf("RequestTimeout=%v", cfg.RequestTimeout)
	}
}

func TestLoadFileThenEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "api_base: https://torre.example.com/\nrequest_timeout_seconds: 5\nlog_level: debug\ndevserver:\n  port: \"9000\"\n  signing_key: filekey\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("TORRE_CONFIG", path)
	t.Setenv("TORRE_LOG_LEVEL", "info")
	t.Setenv("TORRE_API_BASE", "")
	t.Setenv("DEVSERVER_PORT", "")
	t.Setenv("DEVSERVER_SIGNING_KEY", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIBase != "https://torre.example.com" {
		t.Fatalf("APIBase=%q", cfg.APIBase)
	}
	if cfg.RequestTimeout != 5*time.Second {
		t.Fatalf("RequestTimeout=%v", cfg.RequestTimeout)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("LogLevel=%q, env should win", cfg.LogLevel)
	}
	if cfg.DevPort != "9000" || cfg.DevSigningKey != "filekey" {
		t.Fatalf("devserver config not applied: %+v", cfg)
	}
}

func TestLoadExplicitMissingFile(t *testing.T) {
	t.Setenv("TORRE_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestReadIntFallback(t *testing.T) {
	t.Setenv("SOME_INT", "abc")
	if got := readInt("SOME_INT", 7); got != 7 {
		t.Fatalf("readInt=%d, want 7", got)
	}
	t.Setenv("SOME_INT", "12")
	if got := readInt("SOME_INT", 7); got != 12 {
		t.Fatalf("readInt=%d, want 12", got)
	}
}
