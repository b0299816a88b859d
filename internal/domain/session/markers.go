package session

import (
	"strconv"
	"time"

	"github.com/kyradi/console-client/internal/platform"
)

// Storage and cookie keys shared with the browser console. The Go client
// keeps the same names so a locally-running console and CLI agree on
// markers when pointed at the same storage.
const (
	// KeyToken is the persistent bearer credential key.
	KeyToken = "kyradi.auth.token"
	// KeyJustLoggedIn is the session-scoped login marker timestamp key.
	KeyJustLoggedIn = "kyradi.auth.just_logged_in"
	// KeyLoggedOutAt is the persistent logout marker timestamp key.
	KeyLoggedOutAt = "kyradi.auth.logged_out_at"
	// KeyTenantSlug caches the tenant slug for cross-host redirect
	// target construction. Separate from auth state.
	KeyTenantSlug = "kyradi.tenant.slug"
	// CookieJustLoggedIn is the cross-subdomain login marker cookie.
	// Presence-only: the value carries no semantics.
	CookieJustLoggedIn = "kyradi_jli"
)

// Race windows. These are best-effort heuristics against wall clocks,
// not consistency guarantees: their job is to smooth the cookie
// propagation window after a cross-host login and the probe/logout race
// across tabs.
const (
	// LoginGraceWindow is how long after login the identity probe is
	// allowed to fail transiently before the session is declared invalid.
	LoginGraceWindow = 10 * time.Second
	// LoginCookieTTL is the lifetime of the cross-subdomain login cookie.
	LoginCookieTTL = 20 * time.Second
	// LogoutGraceWindow is how long after logout a fresh bootstrap must
	// treat the session as unauthenticated without probing.
	LogoutGraceWindow = 3 * time.Second
	// UnauthorizedCooldown is the re-entrancy latch window for the
	// global 401 handler.
	UnauthorizedCooldown = 1 * time.Second
)

// DefaultProbeBackoff is the retry schedule for the identity probe when a
// stored token or login marker suggests the failure is transient.
var DefaultProbeBackoff = []time.Duration{
	150 * time.Millisecond,
	300 * time.Millisecond,
	600 * time.Millisecond,
}

// Markers reads and writes the login and logout race markers.
// Login markers live in session-scoped storage plus a cross-subdomain
// cookie fallback (the session storage does not survive the hop from the
// central login host to a tenant host; the cookie does). The logout
// marker is persistent so the very next page load sees it.
type Markers struct {
	session    platform.Storage
	persistent platform.Storage
	cookies    platform.CookieJar
	clock      platform.Clock
}

// NewMarkers wires the marker store.
func NewMarkers(sessionStore, persistentStore platform.Storage, cookies platform.CookieJar, clock platform.Clock) *Markers {
	return &Markers{
		session:    sessionStore,
		persistent: persistentStore,
		cookies:    cookies,
		clock:      clock,
	}
}

// MarkLoggedIn records that a login just completed, in both forms.
func (m *Markers) MarkLoggedIn() {
	now := m.clock.Now()
	m.session.Set(KeyJustLoggedIn, formatMillis(now))
	m.cookies.Set(CookieJustLoggedIn, "1", LoginCookieTTL)
}

// ClearLoginMarker removes both login marker forms. Called on successful
// identity resolution and on terminal probe failure.
func (m *Markers) ClearLoginMarker() {
	m.session.Delete(KeyJustLoggedIn)
	m.cookies.Delete(CookieJustLoggedIn)
}

// LoginMarkerActive reports whether a login completed within the grace
// window, via either the local timestamp or the cross-subdomain cookie.
func (m *Markers) LoginMarkerActive() bool {
	if raw, ok := m.session.Get(KeyJustLoggedIn); ok {
		if at, err := parseMillis(raw); err == nil {
			if m.clock.Now().Sub(at) < LoginGraceWindow {
				return true
			}
		}
	}
	_, ok := m.cookies.Get(CookieJustLoggedIn)
	return ok
}

// MarkLoggedOut records the logout timestamp.
func (m *Markers) MarkLoggedOut() {
	m.persistent.Set(KeyLoggedOutAt, formatMillis(m.clock.Now()))
}

// WithinLogoutGrace reports whether a logout happened within the last
// LogoutGraceWindow. Unparseable timestamps count as no marker.
func (m *Markers) WithinLogoutGrace() bool {
	raw, ok := m.persistent.Get(KeyLoggedOutAt)
	if !ok {
		return false
	}
	at, err := parseMillis(raw)
	if err != nil {
		return false
	}
	elapsed := m.clock.Now().Sub(at)
	return elapsed >= 0 && elapsed < LogoutGraceWindow
}

// CacheTenantSlug stores the tenant slug for later redirect construction.
func (m *Markers) CacheTenantSlug(slug string) {
	m.persistent.Set(KeyTenantSlug, slug)
}

// CachedTenantSlug returns the cached tenant slug, if any.
func (m *Markers) CachedTenantSlug() (string, bool) {
	return m.persistent.Get(KeyTenantSlug)
}

func formatMillis(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

func parseMillis(raw string) (time.Time, error) {
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(ms), nil
}
