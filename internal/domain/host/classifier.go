// Package host classifies which deployment surface a URL belongs to.
// The console is served from three surfaces: tenant subdomains
// (<slug>.kyradi.com), the central app host, and the central admin host.
// Which surface the client is on decides credential attachment, tenant
// header tagging, and where logout and session expiry send the user.
package host

import (
	"net/url"
	"strings"
)

// Surface identifies one of the three deployment surfaces.
type Surface string

const (
	// SurfaceTenant is a per-customer subdomain of the product domain.
	SurfaceTenant Surface = "tenant"
	// SurfaceApp is the central partner application host.
	SurfaceApp Surface = "app"
	// SurfaceAdmin is the central administration host.
	SurfaceAdmin Surface = "admin"
)

// Config holds the hostnames the classifier recognizes.
type Config struct {
	// Domain is the product domain suffix (e.g. "kyradi.com").
	Domain string
	// AppHosts are the exact hostnames of the central app surface.
	AppHosts []string
	// AdminHosts are the exact hostnames of the central admin surface.
	AdminHosts []string
	// DevHosts are hostnames (exact or suffix) treated as development
	// contexts in addition to loopback addresses.
	DevHosts []string
	// ForceDev marks every hostname as a development context, for
	// processes run locally against production-shaped hostnames.
	// Surface classification is unaffected.
	ForceDev bool
}

// DefaultConfig returns the production Kyradi host layout.
func DefaultConfig() Config {
	return Config{
		Domain:     "kyradi.com",
		AppHosts:   []string{"app.kyradi.com", "www.kyradi.com", "kyradi.com"},
		AdminHosts: []string{"admin.kyradi.com"},
		DevHosts:   []string{"localhost", "lvh.me"},
	}
}

// Classifier decides the surface and development status of hostnames.
// It is a pure function of its configuration and the URL it is given;
// it never reads process globals.
type Classifier struct {
	domain     string
	appHosts   map[string]struct{}
	adminHosts map[string]struct{}
	devHosts   []string
	forceDev   bool
}

// NewClassifier creates a Classifier from cfg. Hostnames are compared
// case-insensitively; cfg values are normalized to lowercase here.
func NewClassifier(cfg Config) *Classifier {
	c := &Classifier{
		domain:     strings.ToLower(cfg.Domain),
		appHosts:   make(map[string]struct{}, len(cfg.AppHosts)),
		adminHosts: make(map[string]struct{}, len(cfg.AdminHosts)),
		forceDev:   cfg.ForceDev,
	}
	for _, h := range cfg.AppHosts {
		c.appHosts[strings.ToLower(h)] = struct{}{}
	}
	for _, h := range cfg.AdminHosts {
		c.adminHosts[strings.ToLower(h)] = struct{}{}
	}
	for _, h := range cfg.DevHosts {
		c.devHosts = append(c.devHosts, strings.ToLower(h))
	}
	return c
}

// Classify returns the surface u is served from.
// Reserved central hostnames map to app/admin; any other hostname under
// the product domain is a tenant subdomain. Hosts outside the product
// domain (including dev hosts) default to app, the safe fallback: the
// app surface never implies a tenant identity.
func (c *Classifier) Classify(u *url.URL) Surface {
	return c.ClassifyHost(u.Hostname())
}

// ClassifyHost is Classify for a bare hostname (no port).
func (c *Classifier) ClassifyHost(hostname string) Surface {
	h := strings.ToLower(hostname)

	if _, ok := c.adminHosts[h]; ok {
		return SurfaceAdmin
	}
	if _, ok := c.appHosts[h]; ok {
		return SurfaceApp
	}
	if strings.HasSuffix(h, "."+c.domain) {
		return SurfaceTenant
	}
	return SurfaceApp
}

// IsDevelopment reports whether hostname is a local or otherwise
// non-production context. Development relaxes two rules: cross-host
// redirects stay client-side, and the API client attaches the bearer
// header instead of relying on same-origin cookies.
func (c *Classifier) IsDevelopment(hostname string) bool {
	if c.forceDev {
		return true
	}

	h := strings.ToLower(hostname)

	if h == "localhost" || h == "127.0.0.1" || h == "::1" || h == "[::1]" {
		return true
	}
	for _, dev := range c.devHosts {
		if h == dev || strings.HasSuffix(h, "."+dev) {
			return true
		}
	}
	return false
}

// TenantSlug extracts the subdomain label from a tenant hostname.
// Returns ("", false) for non-tenant hosts.
func (c *Classifier) TenantSlug(hostname string) (string, bool) {
	h := strings.ToLower(hostname)
	if c.ClassifyHost(h) != SurfaceTenant {
		return "", false
	}
	slug := strings.TrimSuffix(h, "."+c.domain)
	if slug == "" || strings.Contains(slug, ".") {
		// Nested subdomains are not tenant hosts.
		return "", false
	}
	return slug, true
}
