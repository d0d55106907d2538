package httpapi

import (
	"context"
	"net/http"
	"regexp"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/noliahq/noliad/internal/httperr"
)

type ctxKeyRequestID struct{}

var requestIDRe = regexp.MustCompile(`^[A-Za-z0-9._-]{1,200}$`)

// requestID accepts a well-formed client-supplied X-Request-Id, otherwise
// assigns a fresh one, and echoes it on the response.
func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if !requestIDRe.MatchString(id) {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)
		ctx := context.WithValue(r.Context(), ctxKeyRequestID{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(ctxKeyRequestID{}).(string)
	return id
}

// accessLog emits one JSON line per API request.
func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.Log.Info().
			Str("requestId", requestIDFrom(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int64("durationMs", time.Since(start).Milliseconds()).
			Msg("request")
	})
}

// recoverer turns panics into the standard 500 envelope.
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.Log.Error().Interface("panic", rec).
					Str("requestId", requestIDFrom(r.Context())).
					Msg("handler panicked")
				s.writeError(w, r, httperr.Internal())
			}
		}()
		next.ServeHTTP(w, r)
	})
}
