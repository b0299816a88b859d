package service

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/kyradi/console-client/internal/adapter/outbound/api"
	"github.com/kyradi/console-client/internal/domain/host"
	"github.com/kyradi/console-client/internal/domain/redirect"
	"github.com/kyradi/console-client/internal/domain/session"
	"github.com/kyradi/console-client/internal/platform"
)

// ErrNoToken is returned by Login when the backend reports success but
// the response carries no access token.
var ErrNoToken = errors.New("login response carried no access token")

// Client-side login routes. The partner and admin panels each serve
// their own login screen; admin keeps a distinct path so a misrouted
// link never lands an operator on the partner form.
const (
	PartnerLoginRoute = "/login"
	AdminLoginRoute   = "/admin/login"
)

// Session owns the authentication lifecycle: the startup bootstrap, the
// login and logout flows, and the global reaction to mid-session 401s.
// All state transitions funnel through it; callers read the current
// state with State().
type Session struct {
	api       *api.Client
	tokens    api.TokenSource
	setToken  func(string)
	markers   *session.Markers
	hosts     *host.Classifier
	sanitizer *redirect.Sanitizer
	guard     *NavGuard
	locator   platform.Locator
	clock     platform.Clock
	logger    *slog.Logger
	metrics   *api.Metrics

	backoff []time.Duration
	// loginURL is the absolute partner login URL used when expiry on a
	// tenant subdomain forces a hop back to the central app host.
	loginURL string

	mu         sync.Mutex
	state      session.State
	loading    bool
	guardUntil time.Time

	dispose func()
}

// TokenWriter is the store side the login flow needs beyond
// api.TokenSource: persisting a freshly issued token.
type TokenWriter interface {
	api.TokenSource
	SetToken(string)
}

// SessionParams collects the dependencies of a Session.
type SessionParams struct {
	API       *api.Client
	Tokens    TokenWriter
	Markers   *session.Markers
	Hosts     *host.Classifier
	Sanitizer *redirect.Sanitizer
	Guard     *NavGuard
	Locator   platform.Locator
	Clock     platform.Clock
	Logger    *slog.Logger
	Metrics   *api.Metrics
	// Backoff overrides the probe retry schedule; nil keeps the default.
	Backoff []time.Duration
	// LoginURL is the absolute partner login URL, e.g.
	// "https://app.kyradi.com/login".
	LoginURL string
}

// NewSession creates a Session in the booting phase and registers it as
// the API client's unauthorized handler. Call Close when tearing it
// down so a stale handler cannot outlive its owner.
func NewSession(p SessionParams) *Session {
	backoff := p.Backoff
	if backoff == nil {
		backoff = session.DefaultProbeBackoff
	}

	s := &Session{
		api:       p.API,
		tokens:    p.Tokens,
		setToken:  p.Tokens.SetToken,
		markers:   p.Markers,
		hosts:     p.Hosts,
		sanitizer: p.Sanitizer,
		guard:     p.Guard,
		locator:   p.Locator,
		clock:     p.Clock,
		logger:    p.Logger,
		metrics:   p.Metrics,
		backoff:   backoff,
		loginURL:  strings.TrimRight(p.LoginURL, "/"),
		state:     session.Booting(),
	}

	s.dispose = p.API.OnUnauthorized(s.HandleUnauthorized)
	return s
}

// Close unregisters the unauthorized handler.
func (s *Session) Close() {
	if s.dispose != nil {
		s.dispose()
	}
}

// State returns the current session state.
func (s *Session) State() session.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Loading reports whether bootstrap is still in flight.
func (s *Session) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// HasRole reports whether the current user holds one of the required
// roles. False whenever no user is resolved.
func (s *Session) HasRole(required ...session.Role) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.User.HasRole(required...)
}

// Bootstrap resolves the session once at startup. It always terminates
// in a settled state: authenticated with a user, or unauthenticated
// with credentials cleared. The loading flag drops on every path.
func (s *Session) Bootstrap(ctx context.Context) {
	s.setLoading(true)
	defer s.setLoading(false)

	s.cacheTenantFromHost()

	// A logout a moment ago means any surviving cookie is stale;
	// probing now would resurrect the session the user just ended.
	if s.markers.WithinLogoutGrace() {
		s.logger.Debug("bootstrap skipped, within logout grace")
		s.setState(s.State().Unauthenticated())
		s.outcome("logout_grace")
		return
	}

	token, hadToken := s.tokens.Token()
	if hadToken {
		s.setState(s.State().WithToken(token))
	}

	// A fresh login marker (or a persisted token) justifies retrying
	// the probe: the session cookie may still be propagating.
	retryable := hadToken || s.markers.LoginMarkerActive()

	user, err := s.probe(ctx, retryable)
	s.markers.ClearLoginMarker()
	if err != nil {
		s.logger.Debug("bootstrap probe failed", "error", err)
		if hadToken {
			s.tokens.ClearToken()
		}
		s.setState(s.State().Unauthenticated())
		s.outcome("unauthenticated")
		return
	}

	st, terr := s.State().Authenticated(user, token)
	if terr != nil {
		s.setState(s.State().Unauthenticated())
		s.outcome("unauthenticated")
		return
	}
	s.setState(st)
	s.outcome("authenticated")
	s.logger.Info("session established", "user_id", user.ID, "role", user.Role)
}

// Login authenticates against the surface-appropriate endpoint and
// resolves the resulting identity. A pending secondary verification is
// surfaced unchanged as *api.VerificationRequiredError so the caller
// can route to the verification flow.
func (s *Session) Login(ctx context.Context, email, password string) (*session.User, error) {
	surface := s.hosts.Classify(s.locator.Current())

	res, err := s.api.Login(ctx, surface, api.LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	if res.AccessToken == "" {
		return nil, ErrNoToken
	}

	// Mark first: the marker is what tells a concurrently firing 401
	// handler that this session is newborn, not expired.
	s.markers.MarkLoggedIn()
	s.setToken(res.AccessToken)

	if exp, ok := session.TokenExpiryHint(res.AccessToken); ok {
		s.logger.Debug("access token issued", "expires_at", exp)
	}

	user, perr := s.probe(ctx, true)
	s.markers.ClearLoginMarker()
	if perr != nil {
		return nil, perr
	}

	st, terr := s.State().Authenticated(user, res.AccessToken)
	if terr != nil {
		return nil, terr
	}
	s.setState(st)
	s.logger.Info("login succeeded", "user_id", user.ID, "role", user.Role)
	return user, nil
}

// Logout ends the session. The server call is best-effort; local
// teardown and routing to the login screen happen regardless of its
// outcome.
func (s *Session) Logout(ctx context.Context) {
	if err := s.api.Logout(ctx); err != nil {
		s.logger.Warn("server-side logout failed", "error", err)
	}

	s.markers.ClearLoginMarker()
	s.markers.MarkLoggedOut()
	s.tokens.ClearToken()
	s.setState(s.State().Unauthenticated())

	s.routeToLogin("")
}

// HandleUnauthorized is the global reaction to a session-expiry 401.
// It is latched: once it fires, further invocations inside the
// cool-down are dropped, so a burst of parallel requests failing
// together produces a single teardown and a single redirect.
func (s *Session) HandleUnauthorized() {
	now := s.clock.Now()

	s.mu.Lock()
	if now.Before(s.guardUntil) {
		s.mu.Unlock()
		return
	}
	s.guardUntil = now.Add(session.UnauthorizedCooldown)
	booting := s.state.Phase == session.PhaseBooting
	s.mu.Unlock()

	// During bootstrap the probe's own failure handling settles the
	// state; reacting here too would race it.
	if booting {
		s.logger.Debug("401 during bootstrap, deferring to probe")
		s.releaseGuard()
		return
	}

	// A 401 right after login is cookie propagation lag, not expiry.
	if s.markers.LoginMarkerActive() {
		s.logger.Debug("401 within login grace, ignoring")
		s.releaseGuard()
		return
	}

	s.logger.Info("session expired")
	s.tokens.ClearToken()
	s.setState(s.State().Unauthenticated())

	s.routeToLogin(s.locator.Current().String())
}

// releaseGuard reopens the latch after a suppressed fire. Suppression
// tears nothing down, so the next 401 must be judged on its own
// instead of dropped inside a cool-down the suppressed fire armed.
func (s *Session) releaseGuard() {
	s.mu.Lock()
	s.guardUntil = time.Time{}
	s.mu.Unlock()
}

// PostLoginTarget resolves where to send the user after a successful
// login, honoring a sanitized "redirect" query parameter when present.
// hard reports whether the target crosses hosts.
func (s *Session) PostLoginTarget() (target string, hard bool) {
	raw := s.locator.Current().Query().Get("redirect")
	clean := s.sanitizer.Sanitize(raw)
	if raw != "" && clean == raw && strings.Contains(clean, "://") {
		return clean, true
	}
	return clean, false
}

// routeToLogin sends the user to the appropriate login screen for the
// current host. returnTo, when non-empty, is carried as a sanitized
// redirect parameter so login can land the user back where expiry hit.
func (s *Session) routeToLogin(returnTo string) {
	cur := s.locator.Current()
	surface := s.hosts.Classify(cur)
	dev := s.hosts.IsDevelopment(cur.Hostname())

	switch {
	case surface == host.SurfaceAdmin:
		s.guard.Navigate(AdminLoginRoute, true)
	case surface == host.SurfaceTenant && !dev:
		// Tenant subdomains have no login screen of their own; the hop
		// back to the central app host must be a hard navigation.
		s.guard.Redirect(s.partnerLoginURL(returnTo))
	default:
		s.guard.Navigate(PartnerLoginRoute, true)
	}
}

// partnerLoginURL builds the absolute partner login URL, appending the
// sanitized return target when one is given.
func (s *Session) partnerLoginURL(returnTo string) string {
	if returnTo == "" {
		return s.loginURL
	}
	clean := s.sanitizer.Sanitize(returnTo)
	return s.loginURL + "?redirect=" + url.QueryEscape(clean)
}

// cacheTenantFromHost remembers the tenant slug implied by the current
// host, so later requests from non-tenant hosts can tag the tenant.
func (s *Session) cacheTenantFromHost() {
	cur := s.locator.Current()
	if s.hosts.Classify(cur) != host.SurfaceTenant {
		return
	}
	if slug, ok := s.hosts.TenantSlug(cur.Hostname()); ok {
		s.markers.CacheTenantSlug(slug)
	}
}

// probe resolves the current identity via /auth/me. When retryable, a
// failure is retried on the backoff schedule to ride out session
// cookie propagation after a fresh login. Context cancellation stops
// the schedule early.
func (s *Session) probe(ctx context.Context, retryable bool) (*session.User, error) {
	user, err := s.api.Me(ctx)
	if err == nil || !retryable {
		return user, err
	}

	for _, delay := range s.backoff {
		if serr := s.clock.Sleep(ctx, delay); serr != nil {
			return nil, serr
		}
		if s.metrics != nil {
			s.metrics.ProbeRetriesTotal.Inc()
		}
		user, err = s.api.Me(ctx)
		if err == nil {
			return user, nil
		}
		s.logger.Debug("identity probe retry failed", "delay", delay, "error", err)
	}
	return nil, err
}

func (s *Session) setState(st session.State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

func (s *Session) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
}

func (s *Session) outcome(o string) {
	if s.metrics != nil {
		s.metrics.BootstrapOutcomes.WithLabelValues(o).Inc()
	}
}
