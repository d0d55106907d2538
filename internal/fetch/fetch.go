package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/html/charset"

	"github.com/noliahq/noliad/internal/extract"
	"github.com/noliahq/noliad/internal/httperr"
	"github.com/noliahq/noliad/internal/netguard"
)

// Client retrieves pages under a timeout, size cap, and content-type gate,
// and converts them to plain text. Every URL, including redirect targets,
// passes the guard before a connection is attempted.
type Client struct {
	HTTPClient *http.Client
	UserAgent  string
	// Timeout bounds each page fetch. Zero means 10s.
	Timeout time.Duration
	// MaxBytes caps the response body read into memory. Zero means 1_000_000.
	MaxBytes int64
	// RedirectMaxHops caps redirect following. Zero means 5.
	RedirectMaxHops int
	// MaxConcurrent limits in-flight requests per client instance. Zero means unlimited.
	MaxConcurrent int
	// Guard validates candidate URLs. Defaults to netguard.CheckURL.
	Guard func(ctx context.Context, raw string) (*url.URL, error)

	limiter     chan struct{}
	limiterOnce sync.Once
}

const (
	defaultTimeout  = 10 * time.Second
	defaultMaxBytes = 1_000_000
)

// PageText fetches a page and returns its extracted plain text.
func (c *Client) PageText(ctx context.Context, rawURL string) (string, error) {
	guard := c.Guard
	if guard == nil {
		guard = netguard.CheckURL
	}
	u, err := guard(ctx, rawURL)
	if err != nil {
		return "", err
	}

	c.acquire()
	defer c.release()

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", httperr.InvalidURL("invalid url")
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := c.httpClient(guard).Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", httperr.UpstreamFetch("page fetch timed out")
		}
		var he *httperr.Error
		if errors.As(err, &he) {
			return "", he
		}
		return "", httperr.UpstreamFetch("page fetch failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", httperr.UpstreamFetch(fmt.Sprintf("page fetch status %d", resp.StatusCode))
	}
	if ct := resp.Header.Get("Content-Type"); !allowedContentType(ct) {
		return "", httperr.UnsupportedMediaType(fmt.Sprintf("unsupported content type %q", ct))
	}

	maxBytes := c.MaxBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes+1))
	if err != nil {
		return "", httperr.UpstreamFetch("read page body")
	}
	if int64(len(body)) > maxBytes {
		return "", httperr.PayloadTooLarge("page exceeds size limit")
	}

	return extract.Text(decodeCharset(body, resp.Header.Get("Content-Type"))), nil
}

// decodeCharset converts non-UTF-8 pages using the declared or sniffed
// encoding. Undecodable input falls through unchanged; the extractor
// tolerates stray bytes.
func decodeCharset(body []byte, contentType string) []byte {
	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return body
	}
	decoded, err := io.ReadAll(r)
	if err != nil {
		return body
	}
	return decoded
}

func (c *Client) httpClient(guard func(context.Context, string) (*url.URL, error)) *http.Client {
	maxHops := c.RedirectMaxHops
	if maxHops <= 0 {
		maxHops = 5
	}
	checkRedirect := func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxHops {
			return errors.New("too many redirects")
		}
		// Redirect targets re-pass the guard so a safe URL cannot bounce
		// the client into a private range.
		if _, err := guard(req.Context(), req.URL.String()); err != nil {
			return err
		}
		return nil
	}
	if c.HTTPClient != nil {
		base := *c.HTTPClient
		base.CheckRedirect = checkRedirect
		return &base
	}
	return &http.Client{CheckRedirect: checkRedirect}
}

func allowedContentType(ct string) bool {
	ct = strings.ToLower(strings.TrimSpace(ct))
	return strings.HasPrefix(ct, "text/html") || strings.HasPrefix(ct, "application/xhtml")
}

func (c *Client) acquire() {
	if c.MaxConcurrent <= 0 {
		return
	}
	c.limiterOnce.Do(func() {
		c.limiter = make(chan struct{}, c.MaxConcurrent)
	})
	c.limiter <- struct{}{}
}

func (c *Client) release() {
	if c.MaxConcurrent <= 0 || c.limiter == nil {
		return
	}
	select {
	case <-c.limiter:
	default:
	}
}
