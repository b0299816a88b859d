package platform

import (
	"log/slog"
	"net/url"
	"sync"
)

// StaticLocator implements Locator with a settable URL. The CLI points it
// at the configured surface; embedders update it as their own routing
// moves the user around.
type StaticLocator struct {
	mu  sync.RWMutex
	cur *url.URL
}

// NewStaticLocator creates a locator positioned at u.
func NewStaticLocator(u *url.URL) *StaticLocator {
	return &StaticLocator{cur: u}
}

// Current returns the current location.
func (l *StaticLocator) Current() *url.URL {
	l.mu.RLock()
	defer l.mu.RUnlock()
	// Copy so callers can't mutate the shared URL.
	c := *l.cur
	return &c
}

// SetCurrent moves the locator to u.
func (l *StaticLocator) SetCurrent(u *url.URL) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cur = u
}

// LoggingNavigator implements Navigator for headless hosts. It records the
// last target of each kind and logs the navigation; it also moves an
// attached StaticLocator so subsequent host classification sees the new
// location, the way a real navigation would.
type LoggingNavigator struct {
	mu      sync.Mutex
	locator *StaticLocator
	logger  *slog.Logger

	lastRoute    string
	lastRedirect string
}

// NewLoggingNavigator creates a navigator that logs to logger and updates
// locator on hard redirects. locator may be nil.
func NewLoggingNavigator(locator *StaticLocator, logger *slog.Logger) *LoggingNavigator {
	return &LoggingNavigator{
		locator: locator,
		logger:  logger,
	}
}

// Navigate records a client-side route change.
func (n *LoggingNavigator) Navigate(target string, replace bool) {
	n.mu.Lock()
	n.lastRoute = target
	n.mu.Unlock()
	n.logger.Info("navigate", "target", target, "replace", replace)
}

// Redirect records a hard navigation and repositions the locator.
func (n *LoggingNavigator) Redirect(rawURL string) {
	n.mu.Lock()
	n.lastRedirect = rawURL
	n.mu.Unlock()
	n.logger.Info("redirect", "url", rawURL)

	if n.locator != nil {
		if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
			n.locator.SetCurrent(u)
		}
	}
}

// LastRoute returns the most recent soft navigation target.
func (n *LoggingNavigator) LastRoute() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.lastRoute
}

// LastRedirect returns the most recent hard redirect URL.
func (n *LoggingNavigator) LastRedirect() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.lastRedirect
}

// Compile-time interface verification.
var (
	_ Locator   = (*StaticLocator)(nil)
	_ Navigator = (*LoggingNavigator)(nil)
)
