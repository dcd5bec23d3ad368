// Package provider implements the authenticated HTTP gateway to the upstream
// VPS provider API. It is the only component that talks to the provider.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

const (
	// authHeader carries the provider API token on every request.
	authHeader = "API-Token"

	// codeOK is the envelope code the provider returns on success.
	codeOK = "OKAY"

	// catalogPageSize is used for catalog listings so a single request
	// returns the full reference data set.
	catalogPageSize = "1000"

	defaultRequestTimeout = 30 * time.Second
)

// envelope is the response wrapper used by every provider endpoint.
type envelope struct {
	Code   string          `json:"code"`
	Data   json.RawMessage `json:"data"`
	Detail string          `json:"detail"`
}

// Config holds the settings required to construct a Client.
type Config struct {
	// BaseURL is the provider API root, eg- "https://api.example.com".
	BaseURL string

	// Token authenticates all requests via the API-Token header.
	Token string

	// RequestTimeout bounds each HTTP request. Zero means the default.
	RequestTimeout time.Duration

	// RequestsPerSecond throttles outgoing calls. Zero disables throttling.
	RequestsPerSecond float64
}

// Client is the typed gateway to the provider REST API.
// All requests are funneled through a circuit breaker so that a flapping
// provider is reported as unreachable instead of hammering it with calls.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client

	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[*http.Response]
}

// NewClient creates a provider gateway client.
func NewClient(cfg *Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("provider base URL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid provider base URL %q: %w", cfg.BaseURL, err)
	}

	timeout := cfg.RequestTimeout
	if timeout == 0 {
		timeout = defaultRequestTimeout
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	settings := gobreaker.Settings{
		Name: "provider-api",
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		Timeout: 30 * time.Second,
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		token:      cfg.Token,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    limiter,
		breaker:    gobreaker.NewCircuitBreaker[*http.Response](settings),
	}, nil
}

// do performs a single provider API call and returns the envelope's data payload.
// A non-2xx response or a non-OKAY envelope code yields an *UpstreamError.
// Transport-level failures (including an open breaker) yield an *UnreachableError.
func (c *Client) do(ctx context.Context, method, endpoint string, body any, query url.Values) (json.RawMessage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &UnreachableError{Err: err}
	}

	u := c.baseURL + endpoint
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body for %s %s: %w", method, endpoint, err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s %s: %w", method, endpoint, err)
	}
	if c.token != "" {
		req.Header.Set(authHeader, c.token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.breaker.Execute(func() (*http.Response, error) {
		return c.httpClient.Do(req)
	})
	if err != nil {
		// Breaker-open and network errors are both "we couldn't reach the provider".
		return nil, &UnreachableError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &UnreachableError{Err: err}
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, &UpstreamError{
			Status: resp.StatusCode,
			Detail: fmt.Sprintf("failed to parse provider response: %v", err),
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || env.Code != codeOK {
		return nil, &UpstreamError{
			Status: resp.StatusCode,
			Code:   env.Code,
			Detail: env.Detail,
		}
	}

	return env.Data, nil
}

// get performs a read-only call. Reads have no side effects, so a single
// retry is attempted when the provider is unreachable.
func (c *Client) get(ctx context.Context, endpoint string, query url.Values) (json.RawMessage, error) {
	data, err := c.do(ctx, http.MethodGet, endpoint, nil, query)
	if IsUnreachable(err) && ctx.Err() == nil {
		data, err = c.do(ctx, http.MethodGet, endpoint, nil, query)
	}
	return data, err
}
