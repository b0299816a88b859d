// Package redirect validates untrusted "return to" targets before they
// are ever handed to a navigator. Redirect targets arrive from query
// parameters and API responses; without validation they are an open
// redirect: a phishing page can send a victim through the real login and
// out to an attacker host.
package redirect

import (
	"net/url"
	"strings"
)

// DefaultFallback is the path returned for every rejected candidate.
const DefaultFallback = "/app"

// Sanitizer validates redirect candidates against an allow-list of
// domains. The zero value is not usable; construct with NewSanitizer.
type Sanitizer struct {
	allowed  []string
	fallback string
}

// NewSanitizer creates a Sanitizer accepting the given domains and their
// subdomains. An empty fallback defaults to DefaultFallback. Domains are
// normalized to lowercase.
func NewSanitizer(allowedDomains []string, fallback string) *Sanitizer {
	if fallback == "" {
		fallback = DefaultFallback
	}
	s := &Sanitizer{fallback: fallback}
	for _, d := range allowedDomains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" {
			s.allowed = append(s.allowed, d)
		}
	}
	return s
}

// Fallback returns the path substituted for rejected candidates.
func (s *Sanitizer) Fallback() string {
	return s.fallback
}

// Sanitize returns a navigation target that is safe to use: either the
// candidate itself (when it is a /-rooted relative path or an absolute
// http(s) URL on an allow-listed domain) or the fallback path.
//
// The relative-path check must precede URL parsing: "/app/users" is not
// a valid absolute URL, and "//evil.com" would otherwise inherit the
// current scheme and leave the site.
func (s *Sanitizer) Sanitize(candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return s.fallback
	}

	// Scheme-relative URLs ("//host/path") are absolute in disguise.
	if strings.HasPrefix(trimmed, "//") {
		return s.fallback
	}

	// A single leading slash is an in-app path; accept verbatim.
	if strings.HasPrefix(trimmed, "/") {
		return trimmed
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return s.fallback
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return s.fallback
	}
	if !s.hostAllowed(u.Hostname()) {
		return s.fallback
	}
	return trimmed
}

// IsSafe reports whether raw passes sanitization unchanged. Only then may
// raw be emitted as a hard navigation target; anything rewritten is
// treated as an in-app navigation instead.
func (s *Sanitizer) IsSafe(raw string) bool {
	return s.Sanitize(raw) == raw
}

// hostAllowed reports whether hostname is an allow-listed domain or a
// subdomain of one. Comparison is case-insensitive; suffix matching is
// anchored on "." so "evil-kyradi.com" never matches "kyradi.com".
func (s *Sanitizer) hostAllowed(hostname string) bool {
	h := strings.ToLower(hostname)
	for _, d := range s.allowed {
		if h == d || strings.HasSuffix(h, "."+d) {
			return true
		}
	}
	return false
}
