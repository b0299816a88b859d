// Package config provides configuration types for the Kyradi console
// client. Everything has a production default; a config file is only
// needed to point at a different backend or host layout.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kyradi/console-client/internal/domain/host"
	"github.com/kyradi/console-client/internal/domain/session"
)

// Config is the top-level configuration for the console client.
type Config struct {
	// API configures the backend endpoint.
	API APIConfig `yaml:"api" mapstructure:"api"`

	// Hosts configures the deployment surface layout the classifier uses.
	Hosts HostsConfig `yaml:"hosts" mapstructure:"hosts"`

	// Redirect configures the cross-host redirect allow-list.
	Redirect RedirectConfig `yaml:"redirect" mapstructure:"redirect"`

	// Session configures the login flow.
	Session SessionConfig `yaml:"session" mapstructure:"session"`

	// Storage configures where persisted state (the token) lives.
	Storage StorageConfig `yaml:"storage" mapstructure:"storage"`

	// LogLevel sets the minimum log level.
	// Valid values: "debug", "info", "warn", "error".
	// Defaults to "info" if empty. DevMode=true overrides to "debug".
	LogLevel string `yaml:"log_level" mapstructure:"log_level" validate:"omitempty,oneof=debug info warn warning error"`

	// DevMode marks the process as a development context: verbose
	// logging, bearer-header credentials, and relaxed cross-host
	// navigation.
	DevMode bool `yaml:"dev_mode" mapstructure:"dev_mode"`
}

// APIConfig configures the backend endpoint.
type APIConfig struct {
	// BaseURL is the backend API base (e.g. "https://api.kyradi.com").
	BaseURL string `yaml:"base_url" mapstructure:"base_url" validate:"required,url"`

	// Timeout is the per-request timeout (e.g. "10s").
	// Defaults to "10s" if not specified.
	Timeout string `yaml:"timeout" mapstructure:"timeout" validate:"omitempty"`
}

// HostsConfig configures the hostnames of the three deployment surfaces.
type HostsConfig struct {
	// Domain is the product domain suffix (e.g. "kyradi.com"). Any
	// hostname under it that is not a reserved central host is treated
	// as a tenant subdomain.
	Domain string `yaml:"domain" mapstructure:"domain" validate:"required,fqdn"`

	// AppHosts are the exact hostnames of the central app surface.
	AppHosts []string `yaml:"app_hosts" mapstructure:"app_hosts"`

	// AdminHosts are the exact hostnames of the central admin surface.
	AdminHosts []string `yaml:"admin_hosts" mapstructure:"admin_hosts"`

	// DevHosts are extra hostnames (exact or suffix) treated as
	// development contexts in addition to loopback addresses.
	DevHosts []string `yaml:"dev_hosts" mapstructure:"dev_hosts"`
}

// RedirectConfig configures the redirect sanitizer.
type RedirectConfig struct {
	// AllowedDomains are the domains absolute redirect targets may point
	// at (exact hostname or any subdomain). Defaults to the product
	// domain.
	AllowedDomains []string `yaml:"allowed_domains" mapstructure:"allowed_domains"`

	// Fallback is the in-app route unsafe targets collapse to.
	// Must be a rooted path. Defaults to "/app".
	Fallback string `yaml:"fallback" mapstructure:"fallback" validate:"omitempty,app_route"`
}

// SessionConfig configures the login flow.
type SessionConfig struct {
	// LoginURL is the absolute partner login URL used for cross-host
	// hops (e.g. "https://app.kyradi.com/login").
	LoginURL string `yaml:"login_url" mapstructure:"login_url" validate:"omitempty,url"`

	// ProbeBackoff overrides the identity probe retry schedule as
	// duration strings (e.g. ["150ms", "300ms", "600ms"]).
	ProbeBackoff []string `yaml:"probe_backoff" mapstructure:"probe_backoff"`
}

// StorageConfig configures persisted client state.
type StorageConfig struct {
	// Dir is the directory holding the state file.
	// Defaults to "~/.kyradi-console".
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// SetDefaults applies sensible default values to the configuration.
func (c *Config) SetDefaults() {
	if c.API.BaseURL == "" {
		c.API.BaseURL = "https://api.kyradi.com"
	}
	if c.API.Timeout == "" {
		c.API.Timeout = "10s"
	}

	hosts := host.DefaultConfig()
	if c.Hosts.Domain == "" {
		c.Hosts.Domain = hosts.Domain
	}
	if len(c.Hosts.AppHosts) == 0 {
		c.Hosts.AppHosts = hosts.AppHosts
	}
	if len(c.Hosts.AdminHosts) == 0 {
		c.Hosts.AdminHosts = hosts.AdminHosts
	}
	if len(c.Hosts.DevHosts) == 0 {
		c.Hosts.DevHosts = hosts.DevHosts
	}

	if len(c.Redirect.AllowedDomains) == 0 {
		c.Redirect.AllowedDomains = []string{c.Hosts.Domain}
	}
	if c.Redirect.Fallback == "" {
		c.Redirect.Fallback = "/app"
	}

	if c.Session.LoginURL == "" {
		c.Session.LoginURL = "https://app." + c.Hosts.Domain + "/login"
	}

	if c.Storage.Dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			c.Storage.Dir = filepath.Join(home, ".kyradi-console")
		}
	}

	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// SetDevDefaults applies development-mode overrides.
// These are applied AFTER SetDefaults and after CLI flags may have
// flipped DevMode.
func (c *Config) SetDevDefaults() {
	if !c.DevMode {
		return
	}
	c.LogLevel = "debug"
}

// HostConfig converts the hosts section into the classifier's config.
func (c *Config) HostConfig() host.Config {
	return host.Config{
		Domain:     c.Hosts.Domain,
		AppHosts:   c.Hosts.AppHosts,
		AdminHosts: c.Hosts.AdminHosts,
		DevHosts:   c.Hosts.DevHosts,
	}
}

// APITimeout parses the request timeout.
func (c *Config) APITimeout() (time.Duration, error) {
	d, err := time.ParseDuration(c.API.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid api.timeout %q: %w", c.API.Timeout, err)
	}
	return d, nil
}

// ProbeBackoff parses the probe retry schedule. An empty schedule in
// the config means the built-in default.
func (c *Config) ProbeBackoff() ([]time.Duration, error) {
	if len(c.Session.ProbeBackoff) == 0 {
		return session.DefaultProbeBackoff, nil
	}
	out := make([]time.Duration, 0, len(c.Session.ProbeBackoff))
	for _, raw := range c.Session.ProbeBackoff {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid session.probe_backoff entry %q: %w", raw, err)
		}
		out = append(out, d)
	}
	return out, nil
}

// StateFile returns the path of the persisted state file.
func (c *Config) StateFile() string {
	return filepath.Join(c.Storage.Dir, "state.json")
}
