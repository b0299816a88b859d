package service

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"testing"
	"time"

	"github.com/kyradi/console-client/internal/platform"
)

// fakeNav records navigations without performing them.
type fakeNav struct {
	routes    []string
	redirects []string
}

func (n *fakeNav) Navigate(target string, replace bool) {
	n.routes = append(n.routes, target)
}

func (n *fakeNav) Redirect(rawURL string) {
	n.redirects = append(n.redirects, rawURL)
}

// fakeClock is a settable clock; Sleep advances it instead of waiting.
type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.now = c.now.Add(d)
	return nil
}

func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse %q: %v", raw, err)
	}
	return u
}

func newTestGuard(t *testing.T, origin string, dev bool) (*NavGuard, *fakeNav, *platform.StaticLocator) {
	t.Helper()
	nav := &fakeNav{}
	locator := platform.NewStaticLocator(mustURL(t, origin))
	guard := NewNavGuard(nav, locator, platform.NewMemoryStorage(), newFakeClock(), dev, quietLogger(), nil)
	return guard, nav, locator
}

func TestNavigatePerformsOnce(t *testing.T) {
	guard, nav, _ := newTestGuard(t, "https://app.kyradi.com/app", false)

	if !guard.Navigate("/login", true) {
		t.Fatal("first navigation should perform")
	}
	if guard.Navigate("/login", true) {
		t.Error("repeat navigation should be suppressed")
	}
	if len(nav.routes) != 1 || nav.routes[0] != "/login" {
		t.Errorf("routes = %v, want [/login]", nav.routes)
	}
}

func TestNavigateSelfTargetSuppressed(t *testing.T) {
	guard, nav, _ := newTestGuard(t, "https://app.kyradi.com/login?next=1", false)

	if guard.Navigate("/login?next=1", true) {
		t.Error("navigation to the current location should be suppressed")
	}
	if len(nav.routes) != 0 {
		t.Errorf("routes = %v, want none", nav.routes)
	}
}

func TestRedirectSelfTargetSuppressed(t *testing.T) {
	guard, nav, _ := newTestGuard(t, "https://app.kyradi.com/login", false)

	if guard.Redirect("https://app.kyradi.com/login") {
		t.Error("redirect to the current URL should be suppressed")
	}
	if len(nav.redirects) != 0 {
		t.Errorf("redirects = %v, want none", nav.redirects)
	}
}

func TestRedirectDedup(t *testing.T) {
	guard, nav, _ := newTestGuard(t, "https://acme.kyradi.com/app", false)

	target := "https://app.kyradi.com/login"
	if !guard.Redirect(target) {
		t.Fatal("first redirect should perform")
	}
	if guard.Redirect(target) {
		t.Error("repeat redirect should be suppressed")
	}
	if len(nav.redirects) != 1 {
		t.Errorf("redirects = %v, want one", nav.redirects)
	}
}

// The dedup marker is keyed per host: moving to a different host makes
// the same target eligible again.
func TestDedupIsPerHost(t *testing.T) {
	guard, nav, locator := newTestGuard(t, "https://acme.kyradi.com/app", false)

	if !guard.Redirect("https://app.kyradi.com/login") {
		t.Fatal("first redirect should perform")
	}

	locator.SetCurrent(mustURL(t, "https://bravo.kyradi.com/app"))
	if !guard.Redirect("https://app.kyradi.com/login") {
		t.Error("same target from a different host should perform")
	}
	if len(nav.redirects) != 2 {
		t.Errorf("redirects = %v, want two", nav.redirects)
	}
}

// The loop diagnostics warn but never block.
func TestWindowWarningNeverBlocks(t *testing.T) {
	guard, nav, _ := newTestGuard(t, "https://app.kyradi.com/", true)

	for i := 0; i < 8; i++ {
		target := "/page-" + string(rune('a'+i))
		if !guard.Navigate(target, false) {
			t.Fatalf("navigation %d should perform", i)
		}
	}
	if len(nav.routes) != 8 {
		t.Errorf("routes = %d, want 8", len(nav.routes))
	}
}
