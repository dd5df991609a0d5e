package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"DB_PATH", "GRPC_ADDRESS", "HTTP_ADDRESS", "JWT_SECRET", "SIM_INTERVAL", "SUBSCRIBER_BUFFER", "ZONE_CACHE_TTL", "LOG_LEVEL", "LOG_FILE"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadWithDefaults_Succeeds(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadWithDefaults("")
	if err != nil {
		t.Fatalf("LoadWithDefaults: %v", err)
	}
	if cfg.GRPC.Address == "" || cfg.HTTP.Address == "" || cfg.Database.Path == "" || cfg.Auth.JWTSecret == "" {
		t.Fatalf("unexpected empty defaults: %+v", cfg)
	}
	if cfg.Simulation.Interval != 5*time.Second || cfg.Simulation.SubscriberBuffer != 64 {
		t.Fatalf("simulation defaults: %+v", cfg.Simulation)
	}
}

func TestLoad_RequiresJWTSecret(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_PATH", "test.db")
	t.Setenv("GRPC_ADDRESS", ":1234")
	if _, err := Load(""); err == nil {
		t.Fatalf("expected error when JWT_SECRET is not set")
	}
	t.Setenv("JWT_SECRET", "x")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load with secret set: %v", err)
	}
	if cfg.Database.Path != "test.db" || cfg.GRPC.Address != ":1234" {
		t.Fatalf("env not applied: %+v", cfg)
	}
	if strings.Contains(cfg.String(), "x}") || !strings.Contains(cfg.String(), "masked") {
		t.Fatalf("secret not masked: %s", cfg.String())
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "x")
	t.Setenv("SIM_INTERVAL", "soon")
	if _, err := Load(""); err == nil {
		t.Fatalf("expected error for bad SIM_INTERVAL")
	}
	t.Setenv("SIM_INTERVAL", "1s")
	t.Setenv("SUBSCRIBER_BUFFER", "0")
	if _, err := Load(""); err == nil {
		t.Fatalf("expected error for zero SUBSCRIBER_BUFFER")
	}
}

func TestLoad_ConfigFileWithEnvOverride(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "JWT_SECRET: file-secret\nSIM_INTERVAL: 250ms\nHTTP_ADDRESS: \":9999\"\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("HTTP_ADDRESS", ":7777")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Auth.JWTSecret != "file-secret" || cfg.Simulation.Interval != 250*time.Millisecond {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.HTTP.Address != ":7777" {
		t.Fatalf("env should override file, got %s", cfg.HTTP.Address)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}
