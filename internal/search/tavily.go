package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/noliahq/noliad/internal/httperr"
)

// Tavily implements Provider against the Tavily search API
// (bearer-authenticated POST), optionally carrying raw page content.
type Tavily struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	Timeout    time.Duration
}

func (t *Tavily) Name() string  { return "tavily" }
func (t *Tavily) Enabled() bool { return strings.TrimSpace(t.APIKey) != "" }

func (t *Tavily) Search(ctx context.Context, query string, max int, opts Options) ([]Result, error) {
	if !t.Enabled() {
		return nil, nil
	}
	if max <= 0 {
		max = 5
	}
	body := tavilyRequest{
		Query:         query,
		MaxResults:    max,
		Topic:         opts.Topic,
		SearchDepth:   opts.SearchDepth,
		IncludeAnswer: false,
	}
	if body.Topic == "" {
		body.Topic = "general"
	}
	if opts.TimeRange != "" {
		body.TimeRange = opts.TimeRange
	}
	if opts.IncludeRawContent {
		body.IncludeRawContent = "text"
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	timeout := t.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(t.BaseURL, "/")+"/search", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+t.APIKey)
	req.Header.Set("Content-Type", "application/json")

	hc := t.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, httperr.UpstreamSearch("tavily search failed")
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, httperr.UpstreamSearch(fmt.Sprintf("tavily search status %d", resp.StatusCode))
	}

	var parsed tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, httperr.UpstreamSearch("tavily search returned malformed json")
	}
	out := make([]Result, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		if r.URL == "" {
			continue
		}
		snippet := strings.TrimSpace(r.Content)
		if d := publishedDate(r.PublishedDate); d != "" {
			snippet += "\nPublished: " + d
		}
		raw := r.RawContent
		if raw == "" {
			raw = r.RawContentAlt
		}
		out = append(out, Result{
			Title:      strings.TrimSpace(r.Title),
			URL:        strings.TrimSpace(r.URL),
			Snippet:    snippet,
			RawContent: strings.TrimSpace(raw),
			Source:     t.Name(),
		})
		if len(out) >= max {
			break
		}
	}
	return out, nil
}

// publishedDate reduces a provider date to YYYY-MM-DD, or empty when absent.
func publishedDate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 10 {
		return s[:10]
	}
	return ""
}

type tavilyRequest struct {
	Query             string `json:"query"`
	MaxResults        int    `json:"max_results"`
	Topic             string `json:"topic"`
	TimeRange         string `json:"time_range,omitempty"`
	SearchDepth       string `json:"search_depth"`
	IncludeAnswer     bool   `json:"include_answer"`
	IncludeRawContent string `json:"include_raw_content,omitempty"`
}

type tavilyResponse struct {
	Results []struct {
		Title         string `json:"title"`
		URL           string `json:"url"`
		Content       string `json:"content"`
		RawContent    string `json:"raw_content"`
		RawContentAlt string `json:"rawContent"`
		PublishedDate string `json:"published_date"`
	} `json:"results"`
}
