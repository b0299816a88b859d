// Package api is the single outbound chokepoint for calls to the Kyradi
// backend. Every request flows through one pipeline that attaches
// credentials and tenant context, and every 401 response is classified
// here before it may trigger the globally-registered session-expired
// callback.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kyradi/console-client/internal/ctxkey"
	"github.com/kyradi/console-client/internal/domain/host"
	"github.com/kyradi/console-client/internal/domain/session"
	"github.com/kyradi/console-client/internal/platform"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 10 * time.Second

// TokenSource provides and clears the persisted bearer credential.
type TokenSource interface {
	Token() (string, bool)
	ClearToken()
}

// TenantSource provides the cached tenant slug for request tagging.
type TenantSource interface {
	CachedTenantSlug() (string, bool)
}

// Client communicates with the Kyradi backend REST API.
//
// Credential attachment depends on the host context: development hosts
// attach the bearer header, production hosts rely on same-origin cookies
// (the cookie jar on the default http.Client) so a stale header can
// never conflict with a fresh cookie. The tenant header is attached only
// when the current host does not itself imply a tenant.
type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	tokens     TokenSource
	tenants    TenantSource
	hosts      *host.Classifier
	locator    platform.Locator
	logger     *slog.Logger
	metrics    *Metrics
	tracer     trace.Tracer

	// Unauthorized callback slot: single registration, last wins.
	mu             sync.Mutex
	onUnauthorized func()
	regSeq         uint64
}

// NewClient creates a Client for the backend at baseURL.
func NewClient(baseURL string, tokens TokenSource, hosts *host.Classifier, locator platform.Locator, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: DefaultTimeout,
		tokens:  tokens,
		hosts:   hosts,
		locator: locator,
		logger:  slog.Default(),
		tracer:  otel.Tracer("github.com/kyradi/console-client/internal/adapter/outbound/api"),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		jar, _ := cookiejar.New(nil)
		c.httpClient = &http.Client{
			Timeout: c.timeout,
			Jar:     jar,
		}
	} else if c.httpClient.Timeout == 0 {
		// Copy before setting the deadline so a caller-shared client
		// is never mutated.
		hc := *c.httpClient
		hc.Timeout = c.timeout
		c.httpClient = &hc
	}

	return c
}

// OnUnauthorized registers the global session-expired callback and
// returns its disposer. There is exactly one slot: a later registration
// overwrites an earlier one rather than stacking, so a failing request
// fires at most one callback. The disposer resets the slot to a no-op
// only while its own registration is still current, so a stale disposer
// from a torn-down owner cannot clobber a newer registration.
func (c *Client) OnUnauthorized(fn func()) (dispose func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.regSeq++
	seq := c.regSeq
	c.onUnauthorized = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.regSeq == seq {
			c.onUnauthorized = nil
		}
	}
}

// LoginRequest carries login credentials.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginResponse is the wire shape of all login endpoint variants.
type loginResponse struct {
	AccessToken    string `json:"access_token"`
	TokenType      string `json:"token_type"`
	Status         string `json:"status"`
	VerificationID string `json:"verification_id"`
}

// statusVerificationRequired is the sentinel (not an error) a login
// response carries when a secondary verification step is pending.
const statusVerificationRequired = "phone_verification_required"

// LoginResult is a successful login response.
type LoginResult struct {
	AccessToken string
	TokenType   string
}

// loginPath returns the login endpoint for the given surface.
func loginPath(surface host.Surface) string {
	switch surface {
	case host.SurfaceAdmin:
		return "/auth/admin/login"
	case host.SurfaceTenant:
		return "/auth/partner/login"
	default:
		return "/auth/login"
	}
}

// Login submits credentials to the surface-appropriate login endpoint.
// A pending secondary verification is returned as
// *VerificationRequiredError (errors.Is ErrVerificationRequired); the
// caller routes to the verification flow instead of treating it as a
// failed login. No token is issued in that case.
func (c *Client) Login(ctx context.Context, surface host.Surface, req LoginRequest) (*LoginResult, error) {
	var resp loginResponse
	if err := c.do(ctx, http.MethodPost, loginPath(surface), req, &resp); err != nil {
		return nil, err
	}

	if resp.Status == statusVerificationRequired {
		return nil, &VerificationRequiredError{VerificationID: resp.VerificationID}
	}

	return &LoginResult{
		AccessToken: resp.AccessToken,
		TokenType:   resp.TokenType,
	}, nil
}

// Me performs the identity probe. Any non-2xx means "not authenticated".
func (c *Client) Me(ctx context.Context) (*session.User, error) {
	var user session.User
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Logout tells the backend to terminate the session. Callers treat the
// result as best-effort; client-side logout proceeds regardless.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
}

// do performs an HTTP request against the backend.
func (c *Client) do(ctx context.Context, method, path string, body any, result any) error {
	url := c.baseURL + path

	requestID, ok := ctxkey.RequestID(ctx)
	if !ok {
		requestID = uuid.New().String()
	}

	ctx, span := c.tracer.Start(ctx, "api.request", trace.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("http.path", path),
		attribute.String("request.id", requestID),
	))
	defer span.End()

	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("X-Request-ID", requestID)
	c.attachCredentials(httpReq)
	c.attachTenant(httpReq)

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	c.observe(method, start, httpResp, err)
	if err != nil {
		// No HTTP response at all: rewrite into a zero-status network
		// error so callers can tell connectivity loss from a real
		// HTTP failure.
		span.SetStatus(codes.Error, "network error")
		return &NetworkError{Cause: err}
	}
	defer httpResp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", httpResp.StatusCode))

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if httpResp.StatusCode == http.StatusUnauthorized {
		c.handleUnauthorized(path)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		c.logger.Debug("api request failed",
			"method", method,
			"path", path,
			"status", httpResp.StatusCode,
			"request_id", requestID,
		)
		return &APIError{
			Status:    httpResp.StatusCode,
			Body:      string(respBody),
			RequestID: requestID,
		}
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}

	return nil
}

// attachCredentials sets the bearer header in development contexts only.
// Production relies on the cookie jar: mixing a persisted header with
// fresh cookies is how stale-credential bugs happen.
func (c *Client) attachCredentials(req *http.Request) {
	if !c.hosts.IsDevelopment(c.locator.Current().Hostname()) {
		return
	}
	if tok, ok := c.tokens.Token(); ok {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
}

// attachTenant sets X-Tenant-ID when the current host does not already
// imply a tenant. Tenant subdomains carry tenant identity in the host
// itself; tagging there would be redundant at best and wrong at worst.
func (c *Client) attachTenant(req *http.Request) {
	if c.tenants == nil {
		return
	}
	if c.hosts.Classify(c.locator.Current()) == host.SurfaceTenant {
		return
	}
	if slug, ok := c.tenants.CachedTenantSlug(); ok && slug != "" {
		req.Header.Set("X-Tenant-ID", slug)
	}
}

// handleUnauthorized reacts to a 401. Responses from the auth endpoints
// themselves are exempt: a failing login attempt or identity probe is
// not evidence that an existing session expired. For everything else the
// token is cleared and the registered callback fires.
func (c *Client) handleUnauthorized(path string) {
	if isAuthEndpoint(path) {
		return
	}

	c.tokens.ClearToken()

	c.mu.Lock()
	fn := c.onUnauthorized
	c.mu.Unlock()

	if c.metrics != nil {
		c.metrics.UnauthorizedTotal.Inc()
	}
	if fn != nil {
		fn()
	}
}

// isAuthEndpoint reports whether path belongs to the identity/login
// endpoint allow-list: /auth/me and /auth/.../login variants.
func isAuthEndpoint(path string) bool {
	if path == "/auth/me" {
		return true
	}
	return strings.HasPrefix(path, "/auth/") && strings.HasSuffix(path, "/login")
}

// observe records request metrics. resp may be nil on transport failure.
func (c *Client) observe(method string, start time.Time, resp *http.Response, err error) {
	if c.metrics == nil {
		return
	}
	c.metrics.RequestDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())

	status := "network"
	if err == nil && resp != nil {
		status = fmt.Sprintf("%dxx", resp.StatusCode/100)
	}
	c.metrics.RequestsTotal.WithLabelValues(method, status).Inc()
}
