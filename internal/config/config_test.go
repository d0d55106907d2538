package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	ApplyDefaults(&cfg)
	if cfg.OpenRouterBaseURL != DefaultOpenRouterBaseURL {
		t.Fatalf("openrouter base: %q", cfg.OpenRouterBaseURL)
	}
	if cfg.Port != DefaultPort || cfg.Env != "development" {
		t.Fatalf("defaults: %+v", cfg)
	}
}

func TestApplyEnv_FillsUnsetOnly(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "env-key")
	t.Setenv("PORT", "8080")
	t.Setenv("NODE_ENV", "production")

	cfg := Config{OpenRouterAPIKey: "explicit"}
	ApplyEnv(&cfg)

	if cfg.OpenRouterAPIKey != "explicit" {
		t.Fatalf("explicit value overwritten: %q", cfg.OpenRouterAPIKey)
	}
	if cfg.Port != 8080 || cfg.Env != "production" {
		t.Fatalf("env not applied: %+v", cfg)
	}
}

func TestApplyEnv_BadPortIgnored(t *testing.T) {
	t.Setenv("PORT", "not-a-number")
	var cfg Config
	ApplyEnv(&cfg)
	if cfg.Port != 0 {
		t.Fatalf("bad port should stay unset: %d", cfg.Port)
	}
}

func TestApplyFile_OverlayPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "openrouterApiKey: file-key\nport: 9999\ndefaultModel: file/model\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	cfg := Config{OpenRouterAPIKey: "flag-key"}
	if err := ApplyFile(&cfg, path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.OpenRouterAPIKey != "flag-key" {
		t.Fatalf("file must not override explicit values: %q", cfg.OpenRouterAPIKey)
	}
	if cfg.Port != 9999 || cfg.DefaultModel != "file/model" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
}

func TestApplyFile_MissingFileErrors(t *testing.T) {
	var cfg Config
	if err := ApplyFile(&cfg, "/nonexistent/config.yaml"); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestProduction(t *testing.T) {
	if (Config{Env: "development"}).Production() {
		t.Fatalf("development is not production")
	}
	if !(Config{Env: "production"}).Production() {
		t.Fatalf("production flag not detected")
	}
}
