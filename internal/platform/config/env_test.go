package config

import (
	"strings"
	"testing"
	"time"
)

type envTestConfig struct {
	Port    int           `env:"TEST_PORT" envDefault:"123"`
	Timeout time.Duration `env:"TEST_TIMEOUT" envDefault:"2s"`
}

type unprefixedTestConfig struct {
	Mode string `env:"CONFIG_TEST_MODE" envDefault:"server"`
}

func TestParseEnvDefaults(t *testing.T) {
	var cfg envTestConfig

	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Port != 123 {
		t.Fatalf("expected default port 123, got %d", cfg.Port)
	}
	if cfg.Timeout != 2*time.Second {
		t.Fatalf("expected default timeout 2s, got %v", cfg.Timeout)
	}
}

func TestParseEnvReadsPrefixedVariable(t *testing.T) {
	t.Setenv("OUTREACH_TEST_PORT", "9090")
	t.Setenv("TEST_PORT", "1")

	var cfg envTestConfig
	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Port != 9090 {
		t.Fatalf("expected prefixed port 9090, got %d", cfg.Port)
	}
}

func TestParseEnvError(t *testing.T) {
	var cfg envTestConfig
	t.Setenv("OUTREACH_TEST_PORT", "not-an-int")

	err := ParseEnv(&cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}

func TestParseEnvUnprefixed(t *testing.T) {
	t.Setenv("CONFIG_TEST_MODE", "seed")

	var cfg unprefixedTestConfig
	if err := ParseEnvUnprefixed(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Mode != "seed" {
		t.Fatalf("expected mode seed, got %q", cfg.Mode)
	}
}
