package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/noliahq/noliad/internal/httperr"
)

// Catalog lists free-tier completion models from the provider's /models
// endpoint. Results are cached in process memory for 10 minutes.
//
// The raw payload is decoded directly because the catalog needs the
// per-model pricing block, which the chat SDK's model type does not carry.
type Catalog struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	// TTL for the cached list. Zero means 10 minutes.
	TTL time.Duration
	// Now is swappable in tests.
	Now func() time.Time

	mu        sync.Mutex
	models    []string
	fetchedAt time.Time
}

const maxCatalogModels = 100

// FreeModels returns the ids of models whose prompt, completion, and request
// prices all parse as numbers <= 0. Without an API key it returns an empty
// list and no error.
func (c *Catalog) FreeModels(ctx context.Context) ([]string, error) {
	if strings.TrimSpace(c.APIKey) == "" {
		return []string{}, nil
	}

	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	ttl := c.TTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}

	c.mu.Lock()
	if c.models != nil && now().Sub(c.fetchedAt) < ttl {
		cached := c.models
		c.mu.Unlock()
		return cached, nil
	}
	c.mu.Unlock()

	models, err := c.fetch(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.models = models
	c.fetchedAt = now()
	c.mu.Unlock()
	return models, nil
}

func (c *Catalog) fetch(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		strings.TrimRight(c.BaseURL, "/")+"/models", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Accept", "application/json")

	hc := c.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, httperr.UpstreamLLM("model list fetch failed")
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, httperr.UpstreamLLM(fmt.Sprintf("model list status %d", resp.StatusCode))
	}

	var payload struct {
		Data []struct {
			ID      string `json:"id"`
			Pricing struct {
				Prompt     string `json:"prompt"`
				Completion string `json:"completion"`
				Request    string `json:"request"`
			} `json:"pricing"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, httperr.UpstreamLLM("model list returned malformed json")
	}

	out := make([]string, 0, len(payload.Data))
	for _, m := range payload.Data {
		if m.ID == "" {
			continue
		}
		if freePrice(m.Pricing.Prompt) && freePrice(m.Pricing.Completion) && freePrice(m.Pricing.Request) {
			out = append(out, m.ID)
			if len(out) >= maxCatalogModels {
				break
			}
		}
	}
	return out, nil
}

func freePrice(s string) bool {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return err == nil && v <= 0
}
