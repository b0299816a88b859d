// Package platform abstracts the host environment the session engine runs in:
// wall clock, key-value storage, cookies, current location, and navigation.
// The browser console binds these to window.location, document.cookie and
// Web Storage; the Go client binds them to files and process memory. All
// session logic depends only on these interfaces so it can be driven
// deterministically in tests.
package platform

import (
	"context"
	"net/url"
	"time"
)

// Clock provides the current time and interruptible sleeping.
// Session race windows (login grace, logout grace, unauthorized cool-down)
// are all expressed as comparisons against Clock.Now so tests can simulate
// window boundaries exactly.
type Clock interface {
	// Now returns the current wall-clock time.
	Now() time.Time

	// Sleep blocks for d or until ctx is done, returning ctx.Err() in the
	// latter case.
	Sleep(ctx context.Context, d time.Duration) error
}

// Storage is a string key-value store. Implementations must never fail
// loudly: quota errors, unwritable directories, and private-browsing
// restrictions degrade to no-ops, because a client with broken storage is
// recoverable by forcing re-login while a crashing client is not.
type Storage interface {
	// Get returns the value for key and whether it was present.
	Get(key string) (string, bool)

	// Set stores value under key. Failures are swallowed.
	Set(key, value string)

	// Delete removes key. Deleting a missing key is a no-op.
	Delete(key string)
}

// CookieJar holds presence-style marker cookies shared across subdomains.
// Only the login marker uses it; the value carries no semantics beyond
// existing and not having expired.
type CookieJar interface {
	// Get returns the cookie value and whether a live cookie exists.
	Get(name string) (string, bool)

	// Set writes a cookie that expires after ttl.
	Set(name, value string, ttl time.Duration)

	// Delete removes the cookie.
	Delete(name string)
}

// Locator reports the location the client is currently on. Host
// classification and navigation dedup are functions of this URL.
type Locator interface {
	// Current returns the current location. Never nil.
	Current() *url.URL
}

// Navigator performs navigations decided by the session engine.
//
// Navigate is a client-side route change (same host, no reload).
// Redirect is a hard navigation that may cross hosts. Embedders supply
// their own implementation; the default one records and logs the target.
type Navigator interface {
	Navigate(target string, replace bool)
	Redirect(rawURL string)
}
