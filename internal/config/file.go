package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ApplyFile overlays values from a YAML config file onto unset fields of cfg.
// Flags and env keep precedence; the file fills only what is still empty.
func ApplyFile(cfg *Config, path string) error {
	if cfg == nil || path == "" {
		return nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var file Config
	if err := yaml.Unmarshal(b, &file); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	overlay := func(dst *string, src string) {
		if *dst == "" {
			*dst = src
		}
	}
	overlay(&cfg.OpenRouterAPIKey, file.OpenRouterAPIKey)
	overlay(&cfg.OpenRouterBaseURL, file.OpenRouterBaseURL)
	overlay(&cfg.DefaultModel, file.DefaultModel)
	overlay(&cfg.BraveAPIKey, file.BraveAPIKey)
	overlay(&cfg.BraveBaseURL, file.BraveBaseURL)
	overlay(&cfg.TavilyAPIKey, file.TavilyAPIKey)
	overlay(&cfg.TavilyBaseURL, file.TavilyBaseURL)
	overlay(&cfg.Env, file.Env)
	overlay(&cfg.PublicBaseURL, file.PublicBaseURL)
	if cfg.Port == 0 {
		cfg.Port = file.Port
	}
	if !cfg.Verbose {
		cfg.Verbose = file.Verbose
	}
	return nil
}
