package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"nimbustalk.org/internal/config"
	"nimbustalk.org/internal/obs"
)

// Client wraps the backend's REST conventions: the api key rides on
// every request, authenticated calls add a bearer token, and non-2xx
// responses are normalized into the ErrorKind taxonomy before they
// leave this package.
type Client struct {
	cfg     config.Config
	http    *http.Client
	limiter *rate.Limiter
	online  func() bool
	sleep   func(context.Context, time.Duration) error
}

// ClientOption configures Client behavior.
type ClientOption func(*Client)

// WithHTTPClient overrides the underlying HTTP client (tests).
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLimiter sets the client-side request limiter.
func WithLimiter(l *rate.Limiter) ClientOption {
	return func(c *Client) { c.limiter = l }
}

// WithConnectivityProbe installs a pre-flight connectivity check. When
// the probe reports false the call fails fast with a network error
// without touching the wire.
func WithConnectivityProbe(fn func() bool) ClientOption {
	return func(c *Client) { c.online = fn }
}

// NewClient builds a client from explicit configuration.
func NewClient(cfg config.Config, opts ...ClientOption) *Client {
	c := &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.HTTPTimeout},
		// Generous default: smooth bursts without ever rejecting
		// interactive use.
		limiter: rate.NewLimiter(rate.Limit(20), 40),
		sleep: func(ctx context.Context, d time.Duration) error {
			t := time.NewTimer(d)
			defer t.Stop()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-t.C:
				return nil
			}
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured backend origin.
func (c *Client) BaseURL() string { return c.cfg.BaseURL }

func (c *Client) preflight() error {
	if c.online != nil && !c.online() {
		return &Error{Kind: KindNetwork, Raw: "no connectivity"}
	}
	return nil
}

// classifyTransport maps transport-level failures to Network/Timeout
// kinds before any response normalization runs.
func classifyTransport(err error) *Error {
	var nerr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &Error{Kind: KindTimeout, Raw: err.Error()}
	case errors.As(err, &nerr) && nerr.Timeout():
		return &Error{Kind: KindTimeout, Raw: err.Error()}
	default:
		return &Error{Kind: KindNetwork, Raw: err.Error()}
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body any, accessToken string) (*http.Request, error) {
	u := c.cfg.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("gateway: encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("gateway: build request: %w", err)
	}
	req.Header.Set("apikey", c.cfg.AnonKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=representation")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
	return req, nil
}

// do executes one call, retrying transport failures for idempotent GETs
// within the configured retry budget.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body any, accessToken string) ([]byte, error) {
	finish := obs.StartCall(op)

	if err := c.preflight(); err != nil {
		finish("network")
		return nil, err
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			finish("network")
			return nil, classifyTransport(err)
		}
	}

	attempts := 1
	if method == http.MethodGet && c.cfg.RetryAttempts > 1 {
		attempts = c.cfg.RetryAttempts
	}

	var lastErr *Error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			if err := c.sleep(ctx, c.cfg.RetryDelay); err != nil {
				break
			}
		}

		req, err := c.newRequest(ctx, method, path, query, body, accessToken)
		if err != nil {
			finish("error")
			return nil, err
		}

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = classifyTransport(err)
			if ctx.Err() != nil {
				break
			}
			continue
		}

		data, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = classifyTransport(err)
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			ge := normalizeResponse(resp.StatusCode, data)
			c.logCall(op, method, path, resp.StatusCode, ge)
			finish(ge.Kind.String())
			return nil, ge
		}

		c.logCall(op, method, path, resp.StatusCode, nil)
		finish("ok")
		return data, nil
	}

	if lastErr == nil {
		lastErr = &Error{Kind: KindNetwork, Raw: "request aborted"}
	}
	c.logCall(op, method, path, 0, lastErr)
	finish(lastErr.Kind.String())
	return nil, lastErr
}

func (c *Client) logCall(op, method, path string, status int, callErr *Error) {
	entry := map[string]any{
		"level":  "info",
		"msg":    "backend call",
		"op":     op,
		"method": method,
		"path":   path,
		"status": status,
	}
	if callErr != nil {
		entry["level"] = "warn"
		entry["error_kind"] = callErr.Kind.String()
	}
	obs.LogCall(entry)
}

func (c *Client) post(ctx context.Context, op, path string, query url.Values, body any, accessToken string) ([]byte, error) {
	return c.do(ctx, op, http.MethodPost, path, query, body, accessToken)
}

func (c *Client) get(ctx context.Context, op, path string, query url.Values, accessToken string) ([]byte, error) {
	return c.do(ctx, op, http.MethodGet, path, query, nil, accessToken)
}

func (c *Client) patch(ctx context.Context, op, path string, query url.Values, body any, accessToken string) ([]byte, error) {
	return c.do(ctx, op, http.MethodPatch, path, query, body, accessToken)
}

// tableFilter builds a PostgREST-style equality filter value.
func tableFilter(value string) string {
	return "eq." + strings.TrimSpace(value)
}
