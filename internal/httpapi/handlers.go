package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/noliahq/noliad/internal/ask"
	"github.com/noliahq/noliad/internal/askcache"
	"github.com/noliahq/noliad/internal/httperr"
	"github.com/noliahq/noliad/internal/profile"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":        true,
		"requestId": requestIDFrom(r.Context()),
		"uptimeSec": s.uptimeSec(),
		"env":       s.Env,
	})
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	models := []string{}
	if s.Models != nil {
		var err error
		models, err = s.Models.FreeModels(r.Context())
		if err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"provider":       "openrouter",
		"models":         models,
		"requiresApiKey": !s.HaveLLMKey,
	})
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	ip := clientIP(r)

	st := s.Limiter.Hit("ask:" + ip)
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(st.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(st.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(ceilUnix(st.ResetAt), 10))
	if st.Limited {
		w.Header().Set("Retry-After", strconv.Itoa(int(st.RetryAfter.Seconds())))
		s.writeError(w, r, httperr.RateLimited())
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req ask.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, r, httperr.PayloadTooLarge("request body exceeds 1MB"))
			return
		}
		s.writeError(w, r, httperr.Validation("request body is not valid JSON"))
		return
	}
	req.Normalize()
	if err := s.validate.Struct(&req); err != nil {
		s.writeError(w, r, httperr.Validation(validationMessage(err)))
		return
	}

	anonID := r.Header.Get("X-Nolia-Anon-Id")
	if !profile.ValidAnonID(anonID) {
		anonID = ""
	}
	partition := anonID
	if partition == "" {
		partition = ip
	}

	resp, err := s.Cache.Do(r.Context(), askcache.Key(partition, req), func(ctx context.Context) (ask.Response, error) {
		return s.Pipeline.Answer(ctx, req)
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if anonID != "" && s.Profiles != nil {
		s.Profiles.Touch(anonID, req.Question, req.Style, req.Language)
	}
	writeJSON(w, http.StatusOK, resp)
}

// validationMessage joins up to five field issues into one line.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "invalid request"
	}
	var parts []string
	for _, fe := range verrs {
		if len(parts) == 5 {
			break
		}
		switch fe.Tag() {
		case "required":
			parts = append(parts, fmt.Sprintf("%s is required", fieldName(fe)))
		case "max":
			parts = append(parts, fmt.Sprintf("%s exceeds %s characters", fieldName(fe), fe.Param()))
		case "oneof":
			parts = append(parts, fmt.Sprintf("%s must be one of: %s", fieldName(fe), fe.Param()))
		default:
			parts = append(parts, fmt.Sprintf("%s is invalid", fieldName(fe)))
		}
	}
	return strings.Join(parts, "; ")
}

func fieldName(fe validator.FieldError) string {
	f := fe.Field()
	if f == "" {
		return "field"
	}
	return strings.ToLower(f[:1]) + f[1:]
}

func (s *Server) handleRobots(w http.ResponseWriter, r *http.Request) {
	origin := s.origin(r)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "User-agent: *\nAllow: /\nDisallow: /api/\nSitemap: %s/sitemap.xml\n", origin)
}

func (s *Server) handleSitemap(w http.ResponseWriter, r *http.Request) {
	origin := s.origin(r)
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url>
    <loc>%s/</loc>
    <changefreq>daily</changefreq>
    <priority>1.0</priority>
  </url>
</urlset>
`, origin)
}

// origin resolves the externally visible base URL: configured value first,
// then forwarding headers, then the request itself.
func (s *Server) origin(r *http.Request) string {
	if s.PublicBaseURL != "" {
		return strings.TrimRight(s.PublicBaseURL, "/")
	}
	scheme := r.Header.Get("X-Forwarded-Proto")
	if scheme == "" {
		scheme = "http"
		if r.TLS != nil {
			scheme = "https"
		}
	}
	host := r.Header.Get("X-Forwarded-Host")
	if host == "" {
		host = r.Host
	}
	return scheme + "://" + host
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// ceilUnix rounds a reset instant up to whole epoch seconds.
func ceilUnix(t time.Time) int64 {
	sec := t.Unix()
	if t.Nanosecond() > 0 {
		sec++
	}
	return sec
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
