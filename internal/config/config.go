package config

// Config holds runtime configuration for the ask service.
type Config struct {
	// LLM provider (OpenRouter-compatible)
	OpenRouterAPIKey   string `yaml:"openrouterApiKey"`
	OpenRouterBaseURL  string `yaml:"openrouterBaseUrl"`
	DefaultModel       string `yaml:"defaultModel"`

	// Search providers
	BraveAPIKey   string `yaml:"braveApiKey"`
	BraveBaseURL  string `yaml:"braveBaseUrl"`
	TavilyAPIKey  string `yaml:"tavilyApiKey"`
	TavilyBaseURL string `yaml:"tavilyBaseUrl"`

	// HTTP
	Port          int    `yaml:"port"`
	Env           string `yaml:"env"`
	PublicBaseURL string `yaml:"publicBaseUrl"`

	Verbose bool `yaml:"verbose"`
}

const (
	DefaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"
	DefaultBraveBaseURL      = "https://api.search.brave.com/res/v1/web/search"
	DefaultTavilyBaseURL     = "https://api.tavily.com"
	DefaultPort              = 5000
)

// ApplyDefaults fills any field still unset after flags, env, and file.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}
	if cfg.OpenRouterBaseURL == "" {
		cfg.OpenRouterBaseURL = DefaultOpenRouterBaseURL
	}
	if cfg.BraveBaseURL == "" {
		cfg.BraveBaseURL = DefaultBraveBaseURL
	}
	if cfg.TavilyBaseURL == "" {
		cfg.TavilyBaseURL = DefaultTavilyBaseURL
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.Env == "" {
		cfg.Env = "development"
	}
}

// Production reports whether the service runs with production error hygiene.
func (c Config) Production() bool {
	return c.Env == "production"
}
