package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const baseYAML = `
environment: test
backend:
  type: memory
engine:
  policy: weighted_vote
  confidence_threshold: 0.7
  cycle_interval: 30s
  strategies:
    - name: sentiment
      enabled: true
      weight: 1.0
kraken:
  symbols: ["BTCUSD", "ETHUSD"]
`

func writeConfig(t *testing.T, yaml string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadValid(t *testing.T) {
	cfg, err := Load(writeConfig(t, baseYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Backend.Type != "memory" {
		t.Errorf("backend = %s", cfg.Backend.Type)
	}
	if cfg.Engine.Policy != "weighted_vote" {
		t.Errorf("policy = %s", cfg.Engine.Policy)
	}
	if cfg.Engine.CycleInterval != 30*time.Second {
		t.Errorf("interval = %v", cfg.Engine.CycleInterval)
	}
	if len(cfg.Kraken.Symbols) != 2 {
		t.Errorf("symbols = %v", cfg.Kraken.Symbols)
	}
}

func TestLoadRejectsUnknownPolicy(t *testing.T) {
	bad := baseYAML + "\n"
	cfg, err := Load(writeConfig(t, bad))
	if err != nil || cfg == nil {
		t.Fatalf("sanity: %v", err)
	}

	cfg.Engine.Policy = "majority"
	if err := cfg.Validate(); err == nil {
		t.Error("expected unknown policy to fail validation")
	}
}

func TestValidateBounds(t *testing.T) {
	cfg, err := Load(writeConfig(t, baseYAML))
	if err != nil {
		t.Fatal(err)
	}

	cfg.Engine.ConfidenceThreshold = 1.5
	if err := cfg.Validate(); err == nil {
		t.Error("threshold above 1 accepted")
	}
	cfg.Engine.ConfidenceThreshold = 0.7

	cfg.Engine.Strategies[0].Weight = -1
	if err := cfg.Validate(); err == nil {
		t.Error("negative weight accepted")
	}
	cfg.Engine.Strategies[0].Weight = 1

	cfg.Backend.Type = "postgres"
	if err := cfg.Validate(); err == nil {
		t.Error("unknown backend accepted")
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("BACKEND", "clickhouse")
	t.Setenv("SYMBOLS", "BTCUSD")
	t.Setenv("POLICY", "unanimous")
	t.Setenv("CONFIDENCE_THRESHOLD", "0.5")

	cfg, err := LoadWithEnv(writeConfig(t, baseYAML))
	if err != nil {
		t.Fatalf("LoadWithEnv: %v", err)
	}
	if cfg.Backend.Type != "clickhouse" {
		t.Errorf("backend = %s", cfg.Backend.Type)
	}
	if len(cfg.Kraken.Symbols) != 1 || cfg.Kraken.Symbols[0] != "BTCUSD" {
		t.Errorf("symbols = %v", cfg.Kraken.Symbols)
	}
	if cfg.Engine.Policy != "unanimous" {
		t.Errorf("policy = %s", cfg.Engine.Policy)
	}
	if cfg.Engine.ConfidenceThreshold != 0.5 {
		t.Errorf("threshold = %v", cfg.Engine.ConfidenceThreshold)
	}
}
