package platform

import (
	"sync"
	"time"
)

// cookie is a stored value with its expiry.
type cookie struct {
	value     string
	expiresAt time.Time
}

// MemoryCookieJar implements CookieJar with an in-memory map and TTL
// expiry checked against an injected Clock. Expired cookies are treated
// as absent on read and overwritten on write; there is no background
// cleanup because the jar only ever holds a handful of marker cookies.
type MemoryCookieJar struct {
	mu      sync.Mutex
	clock   Clock
	cookies map[string]cookie
}

// NewMemoryCookieJar creates an empty jar using clock for expiry checks.
func NewMemoryCookieJar(clock Clock) *MemoryCookieJar {
	return &MemoryCookieJar{
		clock:   clock,
		cookies: make(map[string]cookie),
	}
}

// Get returns the cookie value and whether a live cookie exists.
func (j *MemoryCookieJar) Get(name string) (string, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()

	c, ok := j.cookies[name]
	if !ok {
		return "", false
	}
	if j.clock.Now().After(c.expiresAt) {
		delete(j.cookies, name)
		return "", false
	}
	return c.value, true
}

// Set writes a cookie that expires after ttl.
func (j *MemoryCookieJar) Set(name, value string, ttl time.Duration) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.cookies[name] = cookie{
		value:     value,
		expiresAt: j.clock.Now().Add(ttl),
	}
}

// Delete removes the cookie.
func (j *MemoryCookieJar) Delete(name string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	delete(j.cookies, name)
}

// Compile-time interface verification.
var _ CookieJar = (*MemoryCookieJar)(nil)
