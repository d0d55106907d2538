package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/noliahq/noliad/internal/httperr"
)

// Request is a single chat-completion call with its own timeout budget.
type Request struct {
	Model       string
	Messages    []openai.ChatCompletionMessage
	Timeout     time.Duration
	Temperature float32
	MaxTokens   int
}

// Client wraps an OpenAI-compatible chat endpoint with bounded retries.
// Transient network failures and retryable statuses get one more attempt;
// a server-supplied Retry-After hint is honored up to a 10s cap.
type Client struct {
	api ChatAPI
	// sleep is swappable in tests.
	sleep func(ctx context.Context, d time.Duration)
}

// ChatAPI is the surface consumed from the go-openai client.
type ChatAPI interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

const (
	maxAttempts       = 2
	shortBackoff      = 350 * time.Millisecond
	parseRetryBackoff = 200 * time.Millisecond
	maxRetryAfter     = 10 * time.Second
)

// New builds a Client against baseURL using bearer apiKey. The appTitle is
// sent as the X-Title identifying header on every request.
func New(baseURL, apiKey, appTitle string) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	cfg.HTTPClient = &http.Client{Transport: &identTransport{
		base:  http.DefaultTransport,
		title: appTitle,
	}}
	return &Client{api: openai.NewClientWithConfig(cfg)}
}

// NewWithAPI builds a Client over an existing ChatAPI. Intended for tests.
func NewWithAPI(api ChatAPI) *Client {
	return &Client{api: api}
}

// Chat performs the call and returns the first choice's content.
func (c *Client) Chat(ctx context.Context, req Request) (string, error) {
	hint := &retryAfterHint{}
	ctx = context.WithValue(ctx, hintKey{}, hint)

	oreq := openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    req.Messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		N:           1,
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		callCtx := ctx
		var cancel context.CancelFunc
		if req.Timeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, req.Timeout)
		}
		resp, err := c.api.CreateChatCompletion(callCtx, oreq)
		if cancel != nil {
			cancel()
		}

		if err == nil {
			if len(resp.Choices) == 0 {
				// Unexpected shape: one short-backoff retry, then surface.
				lastErr = httperr.UpstreamLLM("completion returned no choices")
				if attempt < maxAttempts-1 {
					c.wait(ctx, parseRetryBackoff)
					continue
				}
				return "", lastErr
			}
			return resp.Choices[0].Message.Content, nil
		}

		// A cancelled caller gets no further attempts.
		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		switch status := statusOf(err); {
		case status == http.StatusUnauthorized || status == http.StatusForbidden:
			return "", httperr.UpstreamAuth()
		case retryableStatus(status):
			lastErr = httperr.UpstreamLLM("completion provider unavailable")
			if attempt < maxAttempts-1 {
				c.wait(ctx, hint.backoff())
				continue
			}
		case status != 0:
			return "", httperr.UpstreamLLM("completion request failed")
		case malformedBody(err):
			lastErr = httperr.UpstreamLLM("completion response malformed")
			if attempt < maxAttempts-1 {
				c.wait(ctx, parseRetryBackoff)
				continue
			}
		case transientNetErr(err):
			lastErr = httperr.UpstreamLLM("completion provider unreachable")
			if attempt < maxAttempts-1 {
				c.wait(ctx, shortBackoff)
				continue
			}
		default:
			return "", httperr.UpstreamLLM("completion request failed")
		}
	}
	if lastErr == nil {
		lastErr = httperr.UpstreamLLM("completion request failed")
	}
	return "", lastErr
}

func (c *Client) wait(ctx context.Context, d time.Duration) {
	if c.sleep != nil {
		c.sleep(ctx, d)
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

func retryableStatus(status int) bool {
	switch status {
	case http.StatusTooManyRequests, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

func statusOf(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}

// transientNetErr matches timeouts, aborts, and the errno class of failures
// worth one more attempt (refused, reset, DNS trouble).
func transientNetErr(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	return errors.Is(err, syscall.ETIMEDOUT) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED)
}

// malformedBody matches a provider response whose body failed to decode.
func malformedBody(err error) bool {
	var syn *json.SyntaxError
	if errors.As(err, &syn) {
		return true
	}
	var typ *json.UnmarshalTypeError
	return errors.As(err, &typ)
}

// retryAfterHint carries the most recent Retry-After header value from the
// transport back to the retry loop.
type retryAfterHint struct {
	mu sync.Mutex
	d  time.Duration
}

type hintKey struct{}

func (h *retryAfterHint) set(d time.Duration) {
	h.mu.Lock()
	h.d = d
	h.mu.Unlock()
}

func (h *retryAfterHint) backoff() time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.d <= 0 {
		return shortBackoff
	}
	if h.d > maxRetryAfter {
		return maxRetryAfter
	}
	return h.d
}

// identTransport adds the identifying header and records Retry-After for
// the in-flight call's hint, if any.
type identTransport struct {
	base  http.RoundTripper
	title string
}

func (t *identTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.title != "" {
		req.Header.Set("X-Title", t.title)
	}
	resp, err := t.base.RoundTrip(req)
	if resp != nil {
		if hint, ok := req.Context().Value(hintKey{}).(*retryAfterHint); ok {
			if s := resp.Header.Get("Retry-After"); s != "" {
				if secs, perr := strconv.Atoi(strings.TrimSpace(s)); perr == nil && secs > 0 {
					hint.set(time.Duration(secs) * time.Second)
				}
			}
		}
	}
	return resp, err
}
