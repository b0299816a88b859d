package console

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kyradi/console-client/internal/platform"
)

// Clock abstracts time for deterministic tests. It mirrors the
// engine's internal clock so embedders can implement it directly.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

// settings holds the optional dependencies New assembles around.
type settings struct {
	logger     *slog.Logger
	clock      platform.Clock
	httpClient *http.Client
	timeout    time.Duration
	backoff    []time.Duration
	registry   *prometheus.Registry
}

func defaultSettings() *settings {
	return &settings{
		logger: slog.Default(),
		clock:  platform.NewSystemClock(),
	}
}

// Option is a functional option for configuring a Client.
type Option func(*settings)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

// WithClock sets the clock, mainly for tests.
func WithClock(clock Clock) Option {
	return func(s *settings) {
		s.clock = clock
	}
}

// WithHTTPClient sets a custom http.Client for backend requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(s *settings) {
		s.httpClient = hc
	}
}

// WithTimeout sets the per-request timeout. A client supplied via
// WithHTTPClient keeps its own timeout when it has one; otherwise this
// timeout applies to it too.
func WithTimeout(d time.Duration) Option {
	return func(s *settings) {
		s.timeout = d
	}
}

// WithProbeBackoff overrides the identity probe retry schedule.
func WithProbeBackoff(backoff []time.Duration) Option {
	return func(s *settings) {
		s.backoff = backoff
	}
}

// WithRegistry sets the Prometheus registry metrics register against.
// Defaults to a private registry per client.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(s *settings) {
		s.registry = reg
	}
}
