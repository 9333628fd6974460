// Package httpclient is the outbound HTTP stack: a pooled client that makes
// exactly one attempt per call, an optional circuit breaker, and error body
// parsing for electroshop APIs.
package httpclient

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/utafrali/electroshop/pkg/logger"
)

// Doer executes a single HTTP request.
type Doer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Config holds HTTP client configuration.
type Config struct {
	Timeout         time.Duration
	MaxConnsPerHost int
}

// DefaultConfig returns the defaults used by storefront clients.
func DefaultConfig() Config {
	return Config{
		Timeout:         10 * time.Second,
		MaxConnsPerHost: 32,
	}
}

// Client wraps http.Client with pooling defaults and context propagation.
// Failed requests are returned to the caller as-is.
type Client struct {
	httpClient *http.Client
}

// New creates a pooled HTTP client.
func New(cfg Config) *Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   cfg.MaxConnsPerHost,
		MaxConnsPerHost:       cfg.MaxConnsPerHost,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: time.Second,
	}

	return &Client{httpClient: &http.Client{Transport: transport, Timeout: cfg.Timeout}}
}

// NewWithHTTPClient wraps an existing *http.Client, typically from httptest.
func NewWithHTTPClient(hc *http.Client) *Client {
	return &Client{httpClient: hc}
}

// Do sends req bound to ctx. Trace context and the correlation id of ctx are
// forwarded as headers.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	req = req.WithContext(ctx)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))
	if id := logger.CorrelationIDFromContext(ctx); id != "" && req.Header.Get("X-Correlation-ID") == "" {
		req.Header.Set("X-Correlation-ID", id)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Redacted(), err)
	}
	return resp, nil
}

// Get performs an HTTP GET request.
func Get(ctx context.Context, d Doer, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create GET request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return d.Do(ctx, req)
}
