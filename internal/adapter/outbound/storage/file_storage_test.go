package storage

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestFileStorageRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	s := NewFileStorage(path, testLogger())

	if _, ok := s.Get("missing"); ok {
		t.Fatal("fresh storage should be empty")
	}

	s.Set("k", "v")
	if got, ok := s.Get("k"); !ok || got != "v" {
		t.Errorf("Get(k) = (%q, %v), want (v, true)", got, ok)
	}

	// A second instance over the same file sees the value.
	reopened := NewFileStorage(path, testLogger())
	if got, ok := reopened.Get("k"); !ok || got != "v" {
		t.Errorf("reopened Get(k) = (%q, %v), want (v, true)", got, ok)
	}
}

func TestFileStorageDelete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	s := NewFileStorage(path, testLogger())

	s.Set("k", "v")
	s.Delete("k")

	if _, ok := s.Get("k"); ok {
		t.Error("deleted key should be gone")
	}

	reopened := NewFileStorage(path, testLogger())
	if _, ok := reopened.Get("k"); ok {
		t.Error("deletion should persist")
	}
}

func TestFileStorageCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("seed corrupt file: %v", err)
	}

	// Corrupt state starts fresh instead of failing.
	s := NewFileStorage(path, testLogger())
	if _, ok := s.Get("k"); ok {
		t.Error("corrupt file should yield empty storage")
	}

	s.Set("k", "v")
	if got, ok := s.Get("k"); !ok || got != "v" {
		t.Errorf("writes after corruption should work, got (%q, %v)", got, ok)
	}
}

func TestFileStoragePermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	s := NewFileStorage(path, testLogger())
	s.Set("k", "v")

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("state file mode = %o, want 600", perm)
	}
}

func TestFileStorageCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "state.json")
	s := NewFileStorage(path, testLogger())

	s.Set("k", "v")
	if _, err := os.Stat(path); err != nil {
		t.Errorf("state file should exist after Set: %v", err)
	}
}

func TestFileStorageWritesValidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	s := NewFileStorage(path, testLogger())
	s.Set("a", "1")
	s.Set("b", "2")

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var m map[string]string
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("state file is not valid JSON: %v", err)
	}
	if m["a"] != "1" || m["b"] != "2" {
		t.Errorf("unexpected contents: %v", m)
	}
}

func TestTokenStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	store := NewTokenStore(NewFileStorage(path, testLogger()))

	if _, ok := store.Token(); ok {
		t.Fatal("fresh store should have no token")
	}

	store.SetToken("tok-123")
	if tok, ok := store.Token(); !ok || tok != "tok-123" {
		t.Errorf("Token() = (%q, %v), want (tok-123, true)", tok, ok)
	}

	store.ClearToken()
	if _, ok := store.Token(); ok {
		t.Error("cleared store should have no token")
	}
}

func TestTokenStoreEmptyValueIsAbsent(t *testing.T) {
	backing := NewFileStorage(filepath.Join(t.TempDir(), "state.json"), testLogger())
	store := NewTokenStore(backing)

	store.SetToken("")
	if _, ok := store.Token(); ok {
		t.Error("empty token should read as absent")
	}
}
