package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/kyradi/console-client/internal/ctxkey"
	"github.com/kyradi/console-client/internal/domain/host"
	"github.com/kyradi/console-client/internal/platform"
)

// fakeTokens is an in-memory TokenSource.
type fakeTokens struct {
	mu    sync.Mutex
	token string
}

func (f *fakeTokens) Token() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token, f.token != ""
}

func (f *fakeTokens) ClearToken() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = ""
}

type fakeTenants struct {
	slug string
}

func (f *fakeTenants) CachedTenantSlug() (string, bool) {
	return f.slug, f.slug != ""
}

func locatorAt(t *testing.T, raw string) *platform.StaticLocator {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse %q: %v", raw, err)
	}
	return platform.NewStaticLocator(u)
}

func newTestClient(t *testing.T, srv *httptest.Server, tokens *fakeTokens, origin string, opts ...Option) *Client {
	t.Helper()
	classifier := host.NewClassifier(host.DefaultConfig())
	opts = append(opts, WithHTTPClient(srv.Client()))
	return NewClient(srv.URL, tokens, classifier, locatorAt(t, origin), opts...)
}

func TestMeSuccess(t *testing.T) {
	defer goleak.VerifyNone(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/me" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"u1","email":"owner@acme.com","role":"manager","tenant_id":"t1","is_active":true}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, &fakeTokens{}, "https://app.kyradi.com/")

	user, err := c.Me(context.Background())
	if err != nil {
		t.Fatalf("Me: %v", err)
	}
	if user.ID != "u1" || user.Email != "owner@acme.com" {
		t.Errorf("unexpected user: %+v", user)
	}
}

func TestUnauthorizedFiresCallbackOnce(t *testing.T) {
	defer goleak.VerifyNone(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	tokens := &fakeTokens{token: "tok"}
	c := newTestClient(t, srv, tokens, "https://app.kyradi.com/")

	var calls int
	dispose := c.OnUnauthorized(func() { calls++ })
	defer dispose()

	err := c.do(context.Background(), http.MethodGet, "/users", nil, nil)
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized {
		t.Fatalf("expected 401 APIError, got %v", err)
	}

	if calls != 1 {
		t.Errorf("callback fired %d times, want 1", calls)
	}
	if _, ok := tokens.Token(); ok {
		t.Error("401 should clear the stored token")
	}
}

func TestUnauthorizedExemptEndpoints(t *testing.T) {
	defer goleak.VerifyNone(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	tokens := &fakeTokens{token: "tok"}
	c := newTestClient(t, srv, tokens, "https://app.kyradi.com/")

	var calls int
	dispose := c.OnUnauthorized(func() { calls++ })
	defer dispose()

	for _, path := range []string{"/auth/me", "/auth/login", "/auth/admin/login", "/auth/partner/login"} {
		if err := c.do(context.Background(), http.MethodGet, path, nil, nil); err == nil {
			t.Errorf("%s: expected error on 401", path)
		}
	}

	if calls != 0 {
		t.Errorf("auth endpoints must not fire the callback, got %d calls", calls)
	}
	if tok, ok := tokens.Token(); !ok || tok != "tok" {
		t.Error("auth-endpoint 401 must not clear the token")
	}
}

func TestOnUnauthorizedLastRegistrationWins(t *testing.T) {
	defer goleak.VerifyNone(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := newTestClient(t, srv, &fakeTokens{}, "https://app.kyradi.com/")

	var first, second int
	disposeFirst := c.OnUnauthorized(func() { first++ })
	disposeSecond := c.OnUnauthorized(func() { second++ })
	defer disposeSecond()

	// A stale disposer must not clobber the newer registration.
	disposeFirst()

	_ = c.do(context.Background(), http.MethodGet, "/users", nil, nil)

	if first != 0 {
		t.Errorf("replaced callback fired %d times, want 0", first)
	}
	if second != 1 {
		t.Errorf("current callback fired %d times, want 1", second)
	}
}

func TestDisposerClearsOwnRegistration(t *testing.T) {
	defer goleak.VerifyNone(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := newTestClient(t, srv, &fakeTokens{}, "https://app.kyradi.com/")

	var calls int
	dispose := c.OnUnauthorized(func() { calls++ })
	dispose()

	_ = c.do(context.Background(), http.MethodGet, "/users", nil, nil)

	if calls != 0 {
		t.Errorf("disposed callback fired %d times, want 0", calls)
	}
}

func TestNetworkErrorClassification(t *testing.T) {
	defer goleak.VerifyNone(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // Closed immediately: every request fails at transport level.

	classifier := host.NewClassifier(host.DefaultConfig())
	c := NewClient(srv.URL, &fakeTokens{}, classifier, locatorAt(t, "https://app.kyradi.com/"))

	_, err := c.Me(context.Background())
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("expected ErrNetwork, got %v", err)
	}

	var nerr *NetworkError
	if !errors.As(err, &nerr) {
		t.Fatalf("expected *NetworkError, got %T", err)
	}
	if nerr.Status != 0 {
		t.Errorf("network error Status = %d, want 0", nerr.Status)
	}
}

func TestBearerHeaderOnlyInDevelopment(t *testing.T) {
	defer goleak.VerifyNone(t)

	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	tokens := &fakeTokens{token: "tok"}

	// Production origin: cookies only, no bearer header.
	c := newTestClient(t, srv, tokens, "https://app.kyradi.com/")
	if _, err := c.Me(context.Background()); err != nil {
		t.Fatalf("Me: %v", err)
	}
	if gotAuth != "" {
		t.Errorf("production request carried Authorization %q", gotAuth)
	}

	// Development origin: bearer header attached.
	c = newTestClient(t, srv, tokens, "http://localhost:3000/")
	if _, err := c.Me(context.Background()); err != nil {
		t.Fatalf("Me: %v", err)
	}
	if gotAuth != "Bearer tok" {
		t.Errorf("development request Authorization = %q, want Bearer tok", gotAuth)
	}
}

func TestTenantHeader(t *testing.T) {
	defer goleak.VerifyNone(t)

	var gotTenant string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTenant = r.Header.Get("X-Tenant-ID")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	tokens := &fakeTokens{}
	tenants := &fakeTenants{slug: "acme"}

	// Central app host: slug header attached.
	c := newTestClient(t, srv, tokens, "https://app.kyradi.com/", WithTenantSource(tenants))
	if _, err := c.Me(context.Background()); err != nil {
		t.Fatalf("Me: %v", err)
	}
	if gotTenant != "acme" {
		t.Errorf("app host X-Tenant-ID = %q, want acme", gotTenant)
	}

	// Tenant host already implies the tenant: no header.
	c = newTestClient(t, srv, tokens, "https://acme.kyradi.com/", WithTenantSource(tenants))
	if _, err := c.Me(context.Background()); err != nil {
		t.Fatalf("Me: %v", err)
	}
	if gotTenant != "" {
		t.Errorf("tenant host X-Tenant-ID = %q, want empty", gotTenant)
	}
}

func TestLoginSurfaceEndpoints(t *testing.T) {
	defer goleak.VerifyNone(t)

	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{"access_token":"tok","token_type":"bearer"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, &fakeTokens{}, "https://app.kyradi.com/")

	tests := []struct {
		surface host.Surface
		want    string
	}{
		{host.SurfaceApp, "/auth/login"},
		{host.SurfaceAdmin, "/auth/admin/login"},
		{host.SurfaceTenant, "/auth/partner/login"},
	}
	for _, tt := range tests {
		res, err := c.Login(context.Background(), tt.surface, LoginRequest{Email: "e", Password: "p"})
		if err != nil {
			t.Fatalf("Login(%s): %v", tt.surface, err)
		}
		if gotPath != tt.want {
			t.Errorf("surface %s hit %s, want %s", tt.surface, gotPath, tt.want)
		}
		if res.AccessToken != "tok" {
			t.Errorf("AccessToken = %q, want tok", res.AccessToken)
		}
	}
}

func TestLoginVerificationRequired(t *testing.T) {
	defer goleak.VerifyNone(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"phone_verification_required","verification_id":"v-42"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, &fakeTokens{}, "https://app.kyradi.com/")

	_, err := c.Login(context.Background(), host.SurfaceApp, LoginRequest{Email: "e", Password: "p"})
	if !errors.Is(err, ErrVerificationRequired) {
		t.Fatalf("expected ErrVerificationRequired, got %v", err)
	}

	var verr *VerificationRequiredError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *VerificationRequiredError, got %T", err)
	}
	if verr.VerificationID != "v-42" {
		t.Errorf("VerificationID = %q, want v-42", verr.VerificationID)
	}
}

func TestRequestIDPropagation(t *testing.T) {
	defer goleak.VerifyNone(t)

	var gotID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = r.Header.Get("X-Request-ID")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, &fakeTokens{}, "https://app.kyradi.com/")

	ctx := ctxkey.WithRequestID(context.Background(), "req-7")
	if _, err := c.Me(ctx); err != nil {
		t.Fatalf("Me: %v", err)
	}
	if gotID != "req-7" {
		t.Errorf("X-Request-ID = %q, want req-7", gotID)
	}

	// Without a pinned ID one is generated.
	if _, err := c.Me(context.Background()); err != nil {
		t.Fatalf("Me: %v", err)
	}
	if gotID == "" || gotID == "req-7" {
		t.Errorf("expected a generated request ID, got %q", gotID)
	}
}

func TestIsAuthEndpoint(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/auth/me", true},
		{"/auth/login", true},
		{"/auth/admin/login", true},
		{"/auth/partner/login", true},
		{"/auth/logout", false},
		{"/users", false},
		{"/auth/me/extra", false},
		{"/login", false},
	}
	for _, tt := range tests {
		if got := isAuthEndpoint(tt.path); got != tt.want {
			t.Errorf("isAuthEndpoint(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

// A supplied client with no timeout of its own picks up WithTimeout.
func TestTimeoutAppliesToSuppliedClient(t *testing.T) {
	defer goleak.VerifyNone(t)

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	c := newTestClient(t, srv, &fakeTokens{}, "https://app.kyradi.com/",
		WithTimeout(50*time.Millisecond),
	)

	_, err := c.Me(context.Background())
	var nerr *NetworkError
	if !errors.As(err, &nerr) {
		t.Fatalf("expected a network error on timeout, got %v", err)
	}
}
