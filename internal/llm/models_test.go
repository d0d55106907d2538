package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const modelsPayload = `{"data":[
	{"id":"maker/free-small","pricing":{"prompt":"0","completion":"0","request":"0"}},
	{"id":"maker/paid-large","pricing":{"prompt":"0.002","completion":"0.004","request":"0"}},
	{"id":"maker/no-pricing","pricing":{"prompt":"","completion":"0","request":"0"}},
	{"id":"maker/free-big","pricing":{"prompt":"0","completion":"0","request":"0"}}
]}`

func TestFreeModels_FiltersPaid(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer k" {
			t.Errorf("missing bearer auth")
		}
		_, _ = w.Write([]byte(modelsPayload))
	}))
	defer srv.Close()

	c := &Catalog{BaseURL: srv.URL, APIKey: "k"}
	got, err := c.FreeModels(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0] != "maker/free-small" || got[1] != "maker/free-big" {
		t.Fatalf("unexpected models: %v", got)
	}
}

func TestFreeModels_NoKeyReturnsEmpty(t *testing.T) {
	c := &Catalog{BaseURL: "http://unused.example"}
	got, err := c.FreeModels(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty list, got %v", got)
	}
}

func TestFreeModels_CachedForTTL(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_, _ = w.Write([]byte(modelsPayload))
	}))
	defer srv.Close()

	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	c := &Catalog{BaseURL: srv.URL, APIKey: "k", Now: func() time.Time { return now }}

	for i := 0; i < 3; i++ {
		if _, err := c.FreeModels(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if calls != 1 {
		t.Fatalf("expected one upstream fetch within TTL, got %d", calls)
	}

	now = now.Add(11 * time.Minute)
	if _, err := c.FreeModels(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected refetch after TTL, got %d calls", calls)
	}
}

func TestFreeModels_UpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := &Catalog{BaseURL: srv.URL, APIKey: "k"}
	if _, err := c.FreeModels(context.Background()); err == nil {
		t.Fatalf("expected upstream error")
	}
}
