package console

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"go.uber.org/goleak"
)

const userJSON = `{"id":"u1","email":"owner@acme.com","role":"admin","is_active":true}`

func newBackend(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login", "/auth/admin/login", "/auth/partner/login":
			_, _ = w.Write([]byte(`{"access_token":"tok","token_type":"bearer"}`))
		case "/auth/me":
			_, _ = w.Write([]byte(userJSON))
		case "/auth/logout":
			_, _ = w.Write([]byte(`{}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	client, err := New(Config{
		BaseURL:   srv.URL,
		StateFile: filepath.Join(t.TempDir(), "state.json"),
	}, WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(client.Close)
	return client
}

func TestLoginLifecycle(t *testing.T) {
	t.Cleanup(func() { goleak.VerifyNone(t) })

	srv := newBackend(t)
	client := newTestClient(t, srv)

	if client.State().Phase != PhaseBooting {
		t.Fatal("fresh client should be booting")
	}

	user, err := client.Login(context.Background(), "owner@acme.com", "pw")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if user.Email != "owner@acme.com" {
		t.Errorf("Email = %q", user.Email)
	}
	if !client.HasRole(RoleAdmin) {
		t.Error("admin role should hold after login")
	}

	client.Logout(context.Background())
	if client.State().Phase != PhaseUnauthenticated {
		t.Error("logout should settle unauthenticated")
	}
}

// A persisted token survives into a new client via Bootstrap.
func TestBootstrapAdoptsPersistedState(t *testing.T) {
	t.Cleanup(func() { goleak.VerifyNone(t) })

	srv := newBackend(t)
	stateFile := filepath.Join(t.TempDir(), "state.json")

	first, err := New(Config{BaseURL: srv.URL, StateFile: stateFile}, WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := first.Login(context.Background(), "owner@acme.com", "pw"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	first.Close()

	second, err := New(Config{BaseURL: srv.URL, StateFile: stateFile}, WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer second.Close()

	second.Bootstrap(context.Background())
	st := second.State()
	if st.Phase != PhaseAuthenticated || st.Token != "tok" {
		t.Errorf("second client state = %+v, want authenticated with adopted token", st)
	}
}

func TestSurfaceFollowsOrigin(t *testing.T) {
	t.Cleanup(func() { goleak.VerifyNone(t) })

	srv := newBackend(t)
	client := newTestClient(t, srv)

	if got := client.Surface(); got != SurfaceApp {
		t.Errorf("default surface = %q, want app", got)
	}

	if err := client.SetOrigin("https://admin.kyradi.com/dashboard"); err != nil {
		t.Fatalf("SetOrigin: %v", err)
	}
	if got := client.Surface(); got != SurfaceAdmin {
		t.Errorf("surface = %q, want admin", got)
	}

	if err := client.SetOrigin("https://acme.kyradi.com/"); err != nil {
		t.Fatalf("SetOrigin: %v", err)
	}
	if got := client.Surface(); got != SurfaceTenant {
		t.Errorf("surface = %q, want tenant", got)
	}

	if err := client.SetOrigin("not a url"); err == nil {
		t.Error("expected error for invalid origin")
	}
}

func TestIsVerificationRequired(t *testing.T) {
	t.Cleanup(func() { goleak.VerifyNone(t) })

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"phone_verification_required","verification_id":"v-1"}`))
	}))
	defer srv.Close()

	client, err := New(Config{BaseURL: srv.URL}, WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer client.Close()

	_, lerr := client.Login(context.Background(), "owner@acme.com", "pw")
	if !errors.Is(lerr, ErrVerificationRequired) {
		t.Fatalf("expected ErrVerificationRequired, got %v", lerr)
	}
	id, ok := IsVerificationRequired(lerr)
	if !ok || id != "v-1" {
		t.Errorf("IsVerificationRequired = (%q, %v), want (v-1, true)", id, ok)
	}

	if id, ok := IsVerificationRequired(errors.New("other")); ok || id != "" {
		t.Error("unrelated errors must not match")
	}
}

func TestMemoryOnlyWithoutStateFile(t *testing.T) {
	t.Cleanup(func() { goleak.VerifyNone(t) })

	srv := newBackend(t)

	client, err := New(Config{BaseURL: srv.URL}, WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer client.Close()

	if _, err := client.Login(context.Background(), "owner@acme.com", "pw"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if client.State().Phase != PhaseAuthenticated {
		t.Error("in-memory client should authenticate normally")
	}
}

// DevMode switches credential attachment to the bearer header even on
// a production-shaped origin.
func TestDevModeAttachesBearerHeader(t *testing.T) {
	t.Cleanup(func() { goleak.VerifyNone(t) })

	var mu sync.Mutex
	var meAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			_, _ = w.Write([]byte(`{"access_token":"tok","token_type":"bearer"}`))
		case "/auth/me":
			mu.Lock()
			meAuth = r.Header.Get("Authorization")
			mu.Unlock()
			_, _ = w.Write([]byte(userJSON))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client, err := New(Config{
		BaseURL: srv.URL,
		Origin:  "https://app.kyradi.com/login",
		DevMode: true,
	}, WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer client.Close()

	if _, err := client.Login(context.Background(), "owner@acme.com", "pw"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if meAuth != "Bearer tok" {
		t.Errorf("Authorization on /auth/me = %q, want %q", meAuth, "Bearer tok")
	}
}

// A configured host layout overrides the one derived from Domain.
func TestCustomHostLayout(t *testing.T) {
	t.Cleanup(func() { goleak.VerifyNone(t) })

	srv := newBackend(t)

	client, err := New(Config{
		BaseURL:    srv.URL,
		AdminHosts: []string{"console.kyradi.com"},
		Origin:     "https://console.kyradi.com/",
	}, WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer client.Close()

	if got := client.Surface(); got != SurfaceAdmin {
		t.Errorf("surface = %q, want admin", got)
	}

	// The derived admin host is displaced by the override and now
	// classifies like any other subdomain.
	if err := client.SetOrigin("https://admin.kyradi.com/"); err != nil {
		t.Fatalf("SetOrigin: %v", err)
	}
	if got := client.Surface(); got != SurfaceTenant {
		t.Errorf("surface = %q, want tenant", got)
	}
}
