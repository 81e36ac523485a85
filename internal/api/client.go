// Temimi Realtime - Messaging and Danmu Synchronization Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/temimi-realtime

package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/tomtom215/temimi-realtime/internal/config"
	"github.com/tomtom215/temimi-realtime/internal/logging"
	"github.com/tomtom215/temimi-realtime/internal/metrics"
	"github.com/tomtom215/temimi-realtime/internal/models"
)

const (
	// maxResponseBytes caps a decoded success body.
	maxResponseBytes = 16 << 20

	// maxErrorBodyBytes caps what is read from a failed response.
	maxErrorBodyBytes = 64 << 10

	defaultMaxRetries = 3
	defaultRetryDelay = 500 * time.Millisecond
)

// TokenSource provides the credentials of the current session.
type TokenSource interface {
	Token() string
	UserID() int64
}

// Client talks to the backend REST API. It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	limiter    *rate.Limiter
	breaker    *breaker
	maxRetries int
	retryDelay time.Duration
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithRetry sets how often a rate-limited (HTTP 429) request is retried and
// the base delay of the exponential backoff between attempts.
func WithRetry(maxRetries int, baseDelay time.Duration) Option {
	return func(c *Client) {
		c.maxRetries = maxRetries
		c.retryDelay = baseDelay
	}
}

// NewClient builds a client for cfg. tokens may be nil for a client that
// only calls Login.
func NewClient(cfg *config.APIConfig, tokens TokenSource, opts ...Option) *Client {
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 1
	}

	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		tokens:     tokens,
		limiter:    rate.NewLimiter(limit, burst),
		breaker:    newBreaker("backend-api", cfg.BreakerFailures, cfg.BreakerTimeout),
		maxRetries: defaultMaxRetries,
		retryDelay: defaultRetryDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BreakerState returns "closed", "half-open" or "open".
func (c *Client) BreakerState() string {
	return c.breaker.State()
}

// requestConfig describes one backend call.
type requestConfig struct {
	method string
	path   string
	// route is the path template used as the metrics label.
	route string
	query url.Values
	form  url.Values
	body  any
	// anonymous requests carry no bearer token.
	anonymous bool
}

// do executes rc through the breaker and decodes the envelope's data into
// out when out is non-nil.
func (c *Client) do(ctx context.Context, rc requestConfig, out any) error {
	var token string
	var uid int64
	if !rc.anonymous {
		if c.tokens != nil {
			token = c.tokens.Token()
			uid = c.tokens.UserID()
		}
		if token == "" {
			return ErrNoToken
		}
	}

	return c.breaker.execute(func() error {
		return c.roundTrip(ctx, rc, token, uid, out)
	})
}

func (c *Client) roundTrip(ctx context.Context, rc requestConfig, token string, uid int64, out any) error {
	if c.limiter.Tokens() < 1 {
		metrics.APIRateLimitWaits.Inc()
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	route := rc.route
	if route == "" {
		route = rc.path
	}

	start := time.Now()
	resp, err := c.doWithRetry(ctx, rc, token, uid)
	if err != nil {
		metrics.RecordAPIRequest(rc.method, route, 0, time.Since(start))
		return err
	}
	defer resp.Body.Close()
	metrics.RecordAPIRequest(rc.method, route, resp.StatusCode, time.Since(start))

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%s %s: %w", rc.method, route, ErrUnauthorized)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return readBodyForError(resp)
	}

	var env models.Envelope
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&env); err != nil {
		return fmt.Errorf("decode %s response: %w", route, err)
	}
	if !env.OK() {
		if env.Code == http.StatusUnauthorized {
			return fmt.Errorf("%s %s: %w", rc.method, route, ErrUnauthorized)
		}
		return &Error{Status: resp.StatusCode, Code: env.Code, Message: env.Message}
	}

	if out == nil || isNull(env.Data) {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode %s data: %w", route, err)
	}
	return nil
}

// doWithRetry sends the request, retrying on HTTP 429 with exponential
// backoff or the server's Retry-After.
func (c *Client) doWithRetry(ctx context.Context, rc requestConfig, token string, uid int64) (*http.Response, error) {
	delay := c.retryDelay

	for attempt := 0; ; attempt++ {
		req, err := c.newRequest(ctx, rc, token, uid)
		if err != nil {
			return nil, err
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("execute request: %w", err)
		}
		if resp.StatusCode != http.StatusTooManyRequests || attempt >= c.maxRetries {
			return resp, nil
		}

		resp.Body.Close()

		wait := delay << attempt
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if seconds, err := strconv.Atoi(ra); err == nil && seconds >= 0 {
				wait = time.Duration(seconds) * time.Second
			}
		}

		logging.Warn().
			Str("path", rc.path).
			Dur("retry_delay", wait).
			Int("attempt", attempt+1).
			Int("max_retries", c.maxRetries).
			Msg("Backend rate limited (HTTP 429), retrying")

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func (c *Client) newRequest(ctx context.Context, rc requestConfig, token string, uid int64) (*http.Request, error) {
	var body io.Reader = http.NoBody
	var contentType string

	switch {
	case rc.form != nil:
		body = strings.NewReader(rc.form.Encode())
		contentType = "application/x-www-form-urlencoded"
	case rc.body != nil:
		data, err := json.Marshal(rc.body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, rc.method, c.baseURL+rc.path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if len(rc.query) > 0 {
		req.URL.RawQuery = rc.query.Encode()
	}

	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	// Some endpoints identify the caller by this header instead of the token.
	if uid != 0 {
		req.Header.Set("uid", strconv.FormatInt(uid, 10))
	}
	return req, nil
}

// readBodyForError turns a non-2xx response into an *Error, using the
// envelope message when the body carries one.
func readBodyForError(resp *http.Response) error {
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	if err != nil {
		return &Error{Status: resp.StatusCode, Code: resp.StatusCode, Message: resp.Status}
	}

	var env models.Envelope
	if json.Unmarshal(data, &env) == nil && env.Message != "" {
		code := env.Code
		if code == 0 {
			code = resp.StatusCode
		}
		return &Error{Status: resp.StatusCode, Code: code, Message: env.Message}
	}

	msg := strings.TrimSpace(string(data))
	if msg == "" {
		msg = resp.Status
	}
	return &Error{Status: resp.StatusCode, Code: resp.StatusCode, Message: msg}
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
