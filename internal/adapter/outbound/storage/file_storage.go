// Package storage provides the persistent client-side storage backends.
package storage

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/kyradi/console-client/internal/platform"
)

// FileStorage implements platform.Storage over a JSON file. It is the Go
// client's stand-in for the browser's persistent localStorage: bearer
// token, logout marker, and cached tenant slug live here.
//
// Writes are atomic (write-tmp, fsync, rename) with 0600 permissions.
// Every failure mode -- unreadable file, corrupt JSON, unwritable
// directory -- degrades to an empty or unpersisted store with a logged
// warning. Storage breakage must never take the session engine down; the
// user recovers by logging in again.
type FileStorage struct {
	path   string
	mu     sync.Mutex
	logger *slog.Logger
	values map[string]string
}

// NewFileStorage creates a FileStorage backed by path and loads any
// existing contents.
func NewFileStorage(path string, logger *slog.Logger) *FileStorage {
	s := &FileStorage{
		path:   path,
		logger: logger,
		values: make(map[string]string),
	}
	s.load()
	return s
}

// load reads the backing file into memory. Missing file is a fresh
// store; corrupt contents are discarded with a warning.
func (s *FileStorage) load() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("failed to read storage file, starting empty", "path", s.path, "error", err)
		}
		return
	}

	// Warn if the file is readable by group/other; it holds a credential.
	if runtime.GOOS != "windows" {
		if info, statErr := os.Stat(s.path); statErr == nil {
			if mode := info.Mode().Perm(); mode&0077 != 0 {
				s.logger.Warn("storage file has too-open permissions, should be 0600",
					"path", s.path, "current_mode", fmt.Sprintf("%04o", mode))
			}
		}
	}

	var values map[string]string
	if err := json.Unmarshal(data, &values); err != nil {
		s.logger.Warn("storage file is corrupt, starting empty", "path", s.path, "error", err)
		return
	}
	s.values = values
}

// Get returns the value for key and whether it was present.
func (s *FileStorage) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}

// Set stores value under key and persists. Persistence failures are
// logged and swallowed.
func (s *FileStorage) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	s.save()
}

// Delete removes key and persists.
func (s *FileStorage) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	s.save()
}

// save writes the current map to disk atomically. Caller holds the mutex.
func (s *FileStorage) save() {
	data, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		s.logger.Warn("failed to marshal storage", "error", err)
		return
	}
	data = append(data, '\n')

	if err := s.writeAtomic(data); err != nil {
		s.logger.Warn("failed to persist storage", "path", s.path, "error", err)
		return
	}

	// Ensure 0600 after rename as a safety net.
	if err := os.Chmod(s.path, 0600); err != nil {
		s.logger.Warn("failed to set permissions on storage file", "path", s.path, "error", err)
	}
}

// writeAtomic writes data to a temp file, fsyncs it, and renames it over
// the target path. On any error the temp file is cleaned up.
func (s *FileStorage) writeAtomic(data []byte) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("create storage directory: %w", err)
	}

	tmpPath := s.path + ".tmp"

	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	cleanup := func() {
		_ = f.Close()
		_ = os.Remove(tmpPath)
	}

	if _, err := f.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("fsync temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename temp to storage: %w", err)
	}
	return nil
}

// Path returns the configured file path.
func (s *FileStorage) Path() string {
	return s.path
}

// Compile-time interface verification.
var _ platform.Storage = (*FileStorage)(nil)
