// Package api is the HTTP client of the expense tracking service.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/Veraticus/expensy/internal/common"
	"github.com/Veraticus/expensy/internal/service"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// RequestIDHeader carries a unique id on every request.
const RequestIDHeader = "X-Request-ID"

// DefaultTimeout bounds every request unless WithTimeout says otherwise.
const DefaultTimeout = 30 * time.Second

// Compile-time interface checks.
var (
	_ service.Backend           = (*Client)(nil)
	_ service.TransactionEditor = (*Client)(nil)
	_ service.RecurringEditor   = (*Client)(nil)
)

// Client talks to the REST API. Authenticated endpoints send the access
// token set by SetAccessToken, Login or Register as a bearer token.
type Client struct {
	baseURL   *url.URL
	transport http.RoundTripper
	plain     *http.Client
	authed    *http.Client
	limiter   *rate.Limiter
	tokens    *tokenHolder
	validate  *validate
	timeout   time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout bounds each request. Zero disables the timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithRateLimit allows at most rps requests per second with bursts of burst.
// A non-positive rps disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), max(burst, 1))
	}
}

// WithTransport replaces the underlying round tripper.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.transport = rt
	}
}

// NewClient returns a client for the service at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("%w: base URL %q: %w", common.ErrInvalidConfig, baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: base URL %q must be http or https", common.ErrInvalidConfig, baseURL)
	}

	c := &Client{
		baseURL:   u,
		transport: http.DefaultTransport,
		tokens:    &tokenHolder{},
		validate:  newValidate(),
		timeout:   DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.plain = &http.Client{Transport: c.transport, Timeout: c.timeout}
	c.authed = &http.Client{
		Transport: &oauth2.Transport{Source: c.tokens, Base: c.transport},
		Timeout:   c.timeout,
	}
	return c, nil
}

// SetAccessToken replaces the bearer token. An empty token signs out.
func (c *Client) SetAccessToken(token string) {
	c.tokens.set(token)
}

// AccessToken returns the current bearer token.
func (c *Client) AccessToken() string {
	return c.tokens.get()
}

// envelope is the body of every response.
type envelope struct {
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
	StatusCode int             `json:"status_code"`
}

// request describes one call.
type request struct {
	query  url.Values
	body   any
	method string
	path   string
	auth   bool
}

// do sends req and decodes the data of the response into out, if non-nil.
func (c *Client) do(ctx context.Context, req request, out any) error {
	if req.auth && c.tokens.get() == "" {
		return common.ErrNotLoggedIn
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}
	}

	endpoint := c.baseURL.JoinPath(req.path)
	if len(req.query) > 0 {
		endpoint.RawQuery = req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		payload, err := json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", req.path, err)
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, endpoint.String(), body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	requestID := uuid.NewString()
	httpReq.Header.Set(RequestIDHeader, requestID)
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	httpClient := c.plain
	if req.auth {
		httpClient = c.authed
	}

	start := time.Now()
	resp, err := httpClient.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if errors.Is(err, common.ErrNotLoggedIn) {
			return common.ErrNotLoggedIn
		}
		slog.Debug("Request failed",
			"method", req.method,
			"path", req.path,
			"request_id", requestID,
			"error", err)
		return fmt.Errorf("%w: %s %s: %w", ErrNetwork, req.method, req.path, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			slog.Debug("Failed to close response body", "error", closeErr)
		}
	}()

	slog.Debug("Request completed",
		"method", req.method,
		"path", req.path,
		"status", resp.StatusCode,
		"request_id", requestID,
		"duration", time.Since(start))

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read %s response: %w", ErrNetwork, req.path, err)
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &Error{
			Status:    resp.StatusCode,
			Message:   env.Message,
			Data:      env.Data,
			RequestID: requestID,
		}
		if decodeErr != nil {
			apiErr.Message = ""
			apiErr.Data = nil
		}
		if req.auth && resp.StatusCode == http.StatusUnauthorized {
			return fmt.Errorf("%w: %w", common.ErrSessionExpired, apiErr)
		}
		return apiErr
	}

	if decodeErr != nil {
		return fmt.Errorf("%w: decode %s response: %w", ErrNetwork, req.path, decodeErr)
	}
	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%w: decode %s data: %w", ErrNetwork, req.path, err)
	}
	return nil
}

// tokenHolder is the oauth2 token source of authenticated requests.
type tokenHolder struct {
	token string
	mu    sync.RWMutex
}

func (h *tokenHolder) set(token string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.token = token
}

func (h *tokenHolder) get() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.token
}

// Token implements oauth2.TokenSource.
func (h *tokenHolder) Token() (*oauth2.Token, error) {
	token := h.get()
	if token == "" {
		return nil, common.ErrNotLoggedIn
	}
	return &oauth2.Token{AccessToken: token, TokenType: "Bearer"}, nil
}
