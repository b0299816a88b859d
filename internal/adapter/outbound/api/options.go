package api

import (
	"log/slog"
	"net/http"
	"time"
)

// Option is a functional option for configuring a Client.
type Option func(*Client)

// WithHTTPClient sets a custom http.Client for making requests.
// This is useful for testing, proxying, or custom transport
// configurations. The default client carries a cookie jar so production
// same-origin credential mode works out of the box.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the HTTP request timeout.
// If not set, defaults to 10 seconds. A client supplied via
// WithHTTPClient keeps its own timeout when it has one; otherwise this
// timeout is applied to it too.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithMetrics attaches a Metrics struct. Without it, no metrics are
// recorded.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithTenantSource sets the provider of the cached tenant slug used for
// the X-Tenant-ID header on non-tenant hosts.
func WithTenantSource(src TenantSource) Option {
	return func(c *Client) {
		c.tenants = src
	}
}
