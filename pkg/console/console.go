// Package console provides the embeddable Kyradi console session client.
//
// It wires the full session engine behind one type: host classification,
// redirect sanitizing, token persistence, the backend API client with
// global 401 handling, and the bootstrap/login/logout lifecycle.
//
// Quick start:
//
//	client, err := console.New(console.Config{
//	    StateFile: "/home/me/.kyradi-console/state.json",
//	})
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.Bootstrap(ctx)
//	user, err := client.Login(ctx, "owner@acme.com", password)
package console

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kyradi/console-client/internal/adapter/outbound/api"
	"github.com/kyradi/console-client/internal/adapter/outbound/storage"
	"github.com/kyradi/console-client/internal/domain/host"
	"github.com/kyradi/console-client/internal/domain/redirect"
	"github.com/kyradi/console-client/internal/domain/session"
	"github.com/kyradi/console-client/internal/platform"
	"github.com/kyradi/console-client/internal/service"
)

// Re-exported domain types so embedders need only this package.
type (
	// User is the resolved identity record.
	User = session.User
	// Role is an authorization role.
	Role = session.Role
	// State is the session lifecycle state.
	State = session.State
	// Phase is the session lifecycle phase.
	Phase = session.Phase
	// Surface is a deployment surface.
	Surface = host.Surface
)

// Re-exported constants.
const (
	RoleAdmin   = session.RoleAdmin
	RoleManager = session.RoleManager
	RoleStaff   = session.RoleStaff

	PhaseBooting         = session.PhaseBooting
	PhaseAuthenticated   = session.PhaseAuthenticated
	PhaseUnauthenticated = session.PhaseUnauthenticated

	SurfaceTenant = host.SurfaceTenant
	SurfaceApp    = host.SurfaceApp
	SurfaceAdmin  = host.SurfaceAdmin
)

// Re-exported sentinel errors for use with errors.Is().
var (
	// ErrNetwork means the backend could not be reached at all.
	ErrNetwork = api.ErrNetwork
	// ErrVerificationRequired means login must continue through the
	// secondary verification flow.
	ErrVerificationRequired = api.ErrVerificationRequired
	// ErrNoToken means the backend reported a successful login without
	// issuing a token.
	ErrNoToken = service.ErrNoToken
)

// Config holds the knobs an embedder sets. Zero values mean the
// production Kyradi defaults.
type Config struct {
	// BaseURL is the backend API base. Default "https://api.kyradi.com".
	BaseURL string

	// Domain is the product domain suffix. Default "kyradi.com".
	Domain string

	// Origin is the URL the client acts from, which decides the surface
	// and the development context. Default "https://app.<domain>/".
	Origin string

	// StateFile is the path of the persisted state (token, markers).
	// Empty disables persistence: state lives in memory only.
	StateFile string

	// LoginURL is the absolute partner login URL for cross-host hops.
	// Default "https://app.<domain>/login".
	LoginURL string

	// AppHosts, AdminHosts, and DevHosts override the host layout
	// otherwise derived from Domain (app/www/bare, admin subdomain,
	// localhost + lvh.me). Leave empty to keep the derived layout.
	AppHosts   []string
	AdminHosts []string
	DevHosts   []string

	// AllowedDomains is the redirect allow-list. Default [Domain].
	AllowedDomains []string

	// Fallback is the in-app route unsafe redirects collapse to.
	// Default "/app".
	Fallback string

	// DevMode marks the process as a development context regardless of
	// the origin hostname: bearer-header credentials, client-side
	// routing across hosts, and navigation loop diagnostics.
	DevMode bool
}

func (c *Config) setDefaults() {
	if c.Domain == "" {
		c.Domain = "kyradi.com"
	}
	if c.BaseURL == "" {
		c.BaseURL = "https://api.kyradi.com"
	}
	if c.Origin == "" {
		c.Origin = "https://app." + c.Domain + "/"
	}
	if c.LoginURL == "" {
		c.LoginURL = "https://app." + c.Domain + "/login"
	}
	if len(c.AllowedDomains) == 0 {
		c.AllowedDomains = []string{c.Domain}
	}
	if c.Fallback == "" {
		c.Fallback = "/app"
	}
}

// Client is the embeddable console session client.
type Client struct {
	session  *service.Session
	locator  *platform.StaticLocator
	nav      *platform.LoggingNavigator
	hosts    *host.Classifier
	registry *prometheus.Registry
}

// New assembles a Client from cfg.
func New(cfg Config, opts ...Option) (*Client, error) {
	cfg.setDefaults()

	origin, err := url.Parse(cfg.Origin)
	if err != nil || origin.Hostname() == "" {
		return nil, fmt.Errorf("invalid origin %q", cfg.Origin)
	}

	settings := defaultSettings()
	for _, opt := range opts {
		opt(settings)
	}

	locator := platform.NewStaticLocator(origin)
	nav := platform.NewLoggingNavigator(locator, settings.logger)
	sessionStore := platform.NewMemoryStorage()
	cookies := platform.NewMemoryCookieJar(settings.clock)

	var persistent platform.Storage = platform.NewMemoryStorage()
	if cfg.StateFile != "" {
		persistent = storage.NewFileStorage(cfg.StateFile, settings.logger)
	}

	hostCfg := host.DefaultConfig()
	if cfg.Domain != hostCfg.Domain {
		hostCfg = host.Config{
			Domain:     cfg.Domain,
			AppHosts:   []string{"app." + cfg.Domain, "www." + cfg.Domain, cfg.Domain},
			AdminHosts: []string{"admin." + cfg.Domain},
			DevHosts:   hostCfg.DevHosts,
		}
	}
	if len(cfg.AppHosts) > 0 {
		hostCfg.AppHosts = cfg.AppHosts
	}
	if len(cfg.AdminHosts) > 0 {
		hostCfg.AdminHosts = cfg.AdminHosts
	}
	if len(cfg.DevHosts) > 0 {
		hostCfg.DevHosts = cfg.DevHosts
	}
	hostCfg.ForceDev = cfg.DevMode
	classifier := host.NewClassifier(hostCfg)
	sanitizer := redirect.NewSanitizer(cfg.AllowedDomains, cfg.Fallback)
	tokens := storage.NewTokenStore(persistent)
	markers := session.NewMarkers(sessionStore, persistent, cookies, settings.clock)

	registry := settings.registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	metrics := api.NewMetrics(registry)

	apiOpts := []api.Option{
		api.WithLogger(settings.logger),
		api.WithMetrics(metrics),
		api.WithTenantSource(markers),
	}
	if settings.httpClient != nil {
		apiOpts = append(apiOpts, api.WithHTTPClient(settings.httpClient))
	}
	if settings.timeout > 0 {
		apiOpts = append(apiOpts, api.WithTimeout(settings.timeout))
	}
	client := api.NewClient(cfg.BaseURL, tokens, classifier, locator, apiOpts...)

	dev := classifier.IsDevelopment(origin.Hostname())
	guard := service.NewNavGuard(nav, locator, sessionStore, settings.clock, dev, settings.logger, metrics)

	sess := service.NewSession(service.SessionParams{
		API:       client,
		Tokens:    tokens,
		Markers:   markers,
		Hosts:     classifier,
		Sanitizer: sanitizer,
		Guard:     guard,
		Locator:   locator,
		Clock:     settings.clock,
		Logger:    settings.logger,
		Metrics:   metrics,
		Backoff:   settings.backoff,
		LoginURL:  cfg.LoginURL,
	})

	return &Client{
		session:  sess,
		locator:  locator,
		nav:      nav,
		hosts:    classifier,
		registry: registry,
	}, nil
}

// Close releases the client's global 401 registration.
func (c *Client) Close() {
	c.session.Close()
}

// Bootstrap resolves the session once at startup.
func (c *Client) Bootstrap(ctx context.Context) {
	c.session.Bootstrap(ctx)
}

// Login authenticates and resolves the identity. A pending secondary
// verification surfaces as an error matching ErrVerificationRequired.
func (c *Client) Login(ctx context.Context, email, password string) (*User, error) {
	return c.session.Login(ctx, email, password)
}

// Logout ends the session, best-effort on the server side.
func (c *Client) Logout(ctx context.Context) {
	c.session.Logout(ctx)
}

// State returns the current session state.
func (c *Client) State() State {
	return c.session.State()
}

// Loading reports whether bootstrap is in flight.
func (c *Client) Loading() bool {
	return c.session.Loading()
}

// HasRole reports whether the current user holds one of the required roles.
func (c *Client) HasRole(required ...Role) bool {
	return c.session.HasRole(required...)
}

// PostLoginTarget resolves where a successful login should land,
// honoring a sanitized "redirect" query parameter on the origin.
func (c *Client) PostLoginTarget() (target string, hard bool) {
	return c.session.PostLoginTarget()
}

// Surface returns the deployment surface of the current origin.
func (c *Client) Surface() Surface {
	return c.hosts.Classify(c.locator.Current())
}

// SetOrigin repositions the client, as a navigation would.
func (c *Client) SetOrigin(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		if err == nil {
			err = errors.New("missing host")
		}
		return fmt.Errorf("invalid origin %q: %w", rawURL, err)
	}
	c.locator.SetCurrent(u)
	return nil
}

// LastNavigation returns the most recent route change and hard redirect
// the engine performed, for display and testing.
func (c *Client) LastNavigation() (route, redirectURL string) {
	return c.nav.LastRoute(), c.nav.LastRedirect()
}

// Registry exposes the metrics registry for scraping.
func (c *Client) Registry() *prometheus.Registry {
	return c.registry
}

// IsVerificationRequired reports whether err is the secondary
// verification signal and returns the verification ID when it is.
func IsVerificationRequired(err error) (string, bool) {
	var verr *api.VerificationRequiredError
	if errors.As(err, &verr) {
		return verr.VerificationID, true
	}
	return "", false
}
