// Package httpapi is the HTTP shell: routing, request IDs, rate limiting,
// validation, and the JSON error envelope around the ask pipeline.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noliahq/noliad/internal/ask"
	"github.com/noliahq/noliad/internal/askcache"
	"github.com/noliahq/noliad/internal/profile"
	"github.com/noliahq/noliad/internal/ratelimit"
)

// Asker runs the question pipeline.
type Asker interface {
	Answer(ctx context.Context, req ask.Request) (ask.Response, error)
}

// ModelLister enumerates the free model catalog.
type ModelLister interface {
	FreeModels(ctx context.Context) ([]string, error)
}

// Server bundles the handler dependencies.
type Server struct {
	Pipeline Asker
	Models   ModelLister
	Limiter  *ratelimit.Limiter
	Cache    *askcache.Cache[ask.Response]
	Profiles *profile.Store

	Log zerolog.Logger
	// Env is reported by /api/health and switches the production error
	// message policy.
	Env           string
	PublicBaseURL string
	// HaveLLMKey feeds the requiresApiKey field of /api/models.
	HaveLLMKey bool

	validate  *validator.Validate
	startedAt time.Time
}

const maxBodyBytes = 1 << 20

// Routes builds the router. Call once at startup.
func (s *Server) Routes() http.Handler {
	s.validate = validator.New()
	s.startedAt = time.Now()

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id", "X-Nolia-Anon-Id"},
		MaxAge:         300,
	}))
	r.Use(s.requestID)
	r.Use(s.recoverer)

	r.Route("/api", func(api chi.Router) {
		api.Use(s.accessLog)
		api.Get("/health", s.handleHealth)
		api.Get("/models", s.handleModels)
		api.Post("/ask", s.handleAsk)
	})
	r.Get("/robots.txt", s.handleRobots)
	r.Get("/sitemap.xml", s.handleSitemap)
	return r
}

func (s *Server) uptimeSec() int64 {
	return int64(time.Since(s.startedAt).Seconds())
}
