package storage

import (
	"github.com/kyradi/console-client/internal/domain/session"
	"github.com/kyradi/console-client/internal/platform"
)

// TokenStore persists the bearer credential under the shared token key.
// It is a thin wrapper: all failure swallowing lives in the underlying
// Storage implementation.
type TokenStore struct {
	store platform.Storage
}

// NewTokenStore creates a TokenStore over the given persistent storage.
func NewTokenStore(store platform.Storage) *TokenStore {
	return &TokenStore{store: store}
}

// Token returns the stored credential, if any.
func (t *TokenStore) Token() (string, bool) {
	tok, ok := t.store.Get(session.KeyToken)
	if !ok || tok == "" {
		return "", false
	}
	return tok, true
}

// SetToken persists the credential.
func (t *TokenStore) SetToken(tok string) {
	t.store.Set(session.KeyToken, tok)
}

// ClearToken removes the credential.
func (t *TokenStore) ClearToken() {
	t.store.Delete(session.KeyToken)
}
