// Package service wires the session engine together: the auth state
// machine that owns the session lifecycle and the navigation guard that
// keeps redirect decisions from looping.
package service

import (
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/kyradi/console-client/internal/adapter/outbound/api"
	"github.com/kyradi/console-client/internal/platform"
)

// Loop diagnostics: more than navWindowLimit navigations inside
// navWindow triggers a warning. Development only; never blocks.
const (
	navWindow      = 2 * time.Second
	navWindowLimit = 5
)

// navMarkerPrefix namespaces the per-target dedup markers in
// session-scoped storage.
const navMarkerPrefix = "kyradi.nav.redirected."

// NavGuard de-duplicates navigations. A given target is redirect-able
// once per browsing session per host; repeats are no-ops. This is what
// keeps independent callers (bootstrap and the 401 handler both deciding
// "go to login") from issuing the same redirect twice, and what breaks
// self-redirect loops.
type NavGuard struct {
	nav     platform.Navigator
	locator platform.Locator
	session platform.Storage
	clock   platform.Clock
	dev     bool
	logger  *slog.Logger
	metrics *api.Metrics

	mu     sync.Mutex
	recent []time.Time
}

// NewNavGuard creates a NavGuard. dev enables the redirect-loop
// diagnostics; metrics may be nil.
func NewNavGuard(nav platform.Navigator, locator platform.Locator, sessionStore platform.Storage, clock platform.Clock, dev bool, logger *slog.Logger, metrics *api.Metrics) *NavGuard {
	return &NavGuard{
		nav:     nav,
		locator: locator,
		session: sessionStore,
		clock:   clock,
		dev:     dev,
		logger:  logger,
		metrics: metrics,
	}
}

// Navigate performs a client-side route change to target unless it is
// the current location or was already navigated to this session.
// Returns whether the navigation was performed.
func (g *NavGuard) Navigate(target string, replace bool) bool {
	cur := g.locator.Current()
	if target == currentRef(cur) {
		g.suppress("self", target)
		return false
	}
	if !g.markOnce(cur.Hostname(), target) {
		g.suppress("dup", target)
		return false
	}

	g.trackWindow()
	g.count("route")
	g.nav.Navigate(target, replace)
	return true
}

// Redirect performs a hard navigation to rawURL unless it is the current
// location or was already redirected to this session.
// Returns whether the navigation was performed.
func (g *NavGuard) Redirect(rawURL string) bool {
	cur := g.locator.Current()
	if rawURL == cur.String() {
		g.suppress("self", rawURL)
		return false
	}
	if !g.markOnce(cur.Hostname(), rawURL) {
		g.suppress("dup", rawURL)
		return false
	}

	g.trackWindow()
	g.count("redirect")
	g.nav.Redirect(rawURL)
	return true
}

// markOnce records the host+target pair in session storage and reports
// whether this was its first occurrence.
func (g *NavGuard) markOnce(hostname, target string) bool {
	key := navMarkerKey(hostname, target)
	if _, seen := g.session.Get(key); seen {
		return false
	}
	g.session.Set(key, "1")
	return true
}

// trackWindow maintains the sliding navigation counter and warns on
// suspicious churn. Disabled outside development.
func (g *NavGuard) trackWindow() {
	if !g.dev {
		return
	}

	now := g.clock.Now()
	g.mu.Lock()
	defer g.mu.Unlock()

	kept := g.recent[:0]
	for _, t := range g.recent {
		if now.Sub(t) < navWindow {
			kept = append(kept, t)
		}
	}
	g.recent = append(kept, now)

	if len(g.recent) > navWindowLimit {
		g.logger.Warn("possible redirect loop",
			"navigations", len(g.recent),
			"window", navWindow,
		)
	}
}

func (g *NavGuard) suppress(reason, target string) {
	g.logger.Debug("navigation suppressed", "reason", reason, "target", target)
	if g.metrics != nil {
		g.metrics.NavigationsSuppressed.Inc()
	}
}

func (g *NavGuard) count(kind string) {
	if g.metrics != nil {
		g.metrics.NavigationsTotal.WithLabelValues(kind).Inc()
	}
}

// navMarkerKey builds the session-storage key for a host+target pair.
func navMarkerKey(hostname, target string) string {
	return navMarkerPrefix + fmt.Sprintf("%016x", xxhash.Sum64String(hostname+"|"+target))
}

// currentRef renders a URL as path+query+fragment, the form soft
// navigation targets take.
func currentRef(u *url.URL) string {
	ref := u.Path
	if u.RawQuery != "" {
		ref += "?" + u.RawQuery
	}
	if u.Fragment != "" {
		ref += "#" + u.Fragment
	}
	return ref
}
