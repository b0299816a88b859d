package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/kyradi/console-client/internal/config"
	"github.com/kyradi/console-client/pkg/console"
)

// buildApp loads configuration and assembles the console client.
// Commands call it from RunE so config errors surface as normal
// command failures.
func buildApp() (*console.Client, error) {
	cfg, err := config.LoadConfigRaw()
	if err != nil {
		return nil, err
	}
	if devMode {
		cfg.DevMode = true
	}
	cfg.SetDevDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	timeout, err := cfg.APITimeout()
	if err != nil {
		return nil, err
	}
	backoff, err := cfg.ProbeBackoff()
	if err != nil {
		return nil, err
	}

	hc := cfg.HostConfig()
	clientCfg := console.Config{
		BaseURL:        cfg.API.BaseURL,
		Domain:         hc.Domain,
		Origin:         origin,
		StateFile:      cfg.StateFile(),
		LoginURL:       cfg.Session.LoginURL,
		AppHosts:       hc.AppHosts,
		AdminHosts:     hc.AdminHosts,
		DevHosts:       hc.DevHosts,
		AllowedDomains: cfg.Redirect.AllowedDomains,
		Fallback:       cfg.Redirect.Fallback,
		DevMode:        cfg.DevMode,
	}

	return console.New(clientCfg,
		console.WithLogger(logger),
		console.WithTimeout(timeout),
		console.WithProbeBackoff(backoff),
	)
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
