package config

import (
	"os"
	"strconv"
	"strings"
)

// ApplyEnv populates unset fields of cfg from environment variables.
// Explicit cfg values (flags or config file) take precedence over env.
func ApplyEnv(cfg *Config) {
	if cfg == nil {
		return
	}

	setStr := func(dst *string, key string) {
		if *dst == "" {
			*dst = os.Getenv(key)
		}
	}

	setStr(&cfg.OpenRouterAPIKey, "OPENROUTER_API_KEY")
	setStr(&cfg.OpenRouterBaseURL, "OPENROUTER_BASE_URL")
	setStr(&cfg.DefaultModel, "OPENROUTER_DEFAULT_MODEL")

	setStr(&cfg.BraveAPIKey, "BRAVE_SEARCH_API_KEY")
	setStr(&cfg.BraveBaseURL, "BRAVE_SEARCH_BASE_URL")
	setStr(&cfg.TavilyAPIKey, "TAVILY_API_KEY")
	setStr(&cfg.TavilyBaseURL, "TAVILY_BASE_URL")

	setStr(&cfg.Env, "NODE_ENV")
	setStr(&cfg.PublicBaseURL, "PUBLIC_BASE_URL")

	if cfg.Port == 0 {
		if s := strings.TrimSpace(os.Getenv("PORT")); s != "" {
			if n, err := strconv.Atoi(s); err == nil && n > 0 {
				cfg.Port = n
			}
		}
	}
}
