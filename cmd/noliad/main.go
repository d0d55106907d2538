package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/noliahq/noliad/internal/ask"
	"github.com/noliahq/noliad/internal/askcache"
	"github.com/noliahq/noliad/internal/config"
	"github.com/noliahq/noliad/internal/fetch"
	"github.com/noliahq/noliad/internal/httpapi"
	"github.com/noliahq/noliad/internal/llm"
	"github.com/noliahq/noliad/internal/profile"
	"github.com/noliahq/noliad/internal/ratelimit"
	"github.com/noliahq/noliad/internal/search"
)

const appTitle = "Nolia Ask"

func main() {
	var (
		configPath string
		port       int
		verbose    bool
	)
	flag.StringVar(&configPath, "config", "", "Path to YAML config file (optional)")
	flag.IntVar(&port, "port", 0, "Listen port (overrides PORT env)")
	flag.BoolVar(&verbose, "v", false, "Verbose logging")
	flag.Parse()

	cfg := config.Config{Port: port, Verbose: verbose}
	config.ApplyEnv(&cfg)
	if err := config.ApplyFile(&cfg, configPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	config.ApplyDefaults(&cfg)

	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.Production() {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	if cfg.OpenRouterAPIKey == "" {
		log.Warn().Msg("OPENROUTER_API_KEY is not set; /api/ask will return 503")
	}
	if cfg.BraveAPIKey == "" {
		log.Info().Msg("brave search disabled (no API key)")
	}
	if cfg.TavilyAPIKey == "" {
		log.Info().Msg("tavily search disabled (no API key)")
	}

	catalog := &llm.Catalog{
		BaseURL: cfg.OpenRouterBaseURL,
		APIKey:  cfg.OpenRouterAPIKey,
	}

	pipeline := &ask.Pipeline{
		LLM:    llm.New(cfg.OpenRouterBaseURL, cfg.OpenRouterAPIKey, appTitle),
		Models: catalog,
		Brave:  &search.Brave{BaseURL: cfg.BraveBaseURL, APIKey: cfg.BraveAPIKey},
		Tavily: &search.Tavily{BaseURL: cfg.TavilyBaseURL, APIKey: cfg.TavilyAPIKey},
		Fetcher: &fetch.Client{
			UserAgent:     appTitle + "/1.0",
			MaxConcurrent: 5,
		},
		DefaultModel: cfg.DefaultModel,
		HaveLLMKey:   cfg.OpenRouterAPIKey != "",
		Log:          log.Logger,
	}

	server := &httpapi.Server{
		Pipeline:      pipeline,
		Models:        catalog,
		Limiter:       ratelimit.New(10, time.Minute),
		Cache:         &askcache.Cache[ask.Response]{},
		Profiles:      &profile.Store{},
		Log:           log.Logger,
		Env:           cfg.Env,
		PublicBaseURL: cfg.PublicBaseURL,
		HaveLLMKey:    cfg.OpenRouterAPIKey != "",
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           server.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("graceful shutdown failed")
		}
	}
}
