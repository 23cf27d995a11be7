// Package localstore is the durable key-value store for client-side state
// such as the session and the theme preference. Each key maps to one JSON file
// under the data directory.
package localstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/spf13/afero"
)

// ErrNotFound is returned by Load and Delete when the key has no value.
var ErrNotFound = errors.New("key not found")

var validKey = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)

// FileStore stores values on an afero filesystem. Writes are atomic: the value
// goes to a temp file that is then renamed into place, so a reader never sees
// a partial value. Last write wins.
type FileStore struct {
	fs      afero.Fs
	baseDir string
	mu      sync.RWMutex
}

// New creates a FileStore rooted at baseDir on fs, creating the directory.
func New(fs afero.Fs, baseDir string) (*FileStore, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("data directory is required")
	}
	if err := fs.MkdirAll(baseDir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return &FileStore{fs: fs, baseDir: baseDir}, nil
}

// Dir returns the directory values are stored in.
func (s *FileStore) Dir() string {
	return s.baseDir
}

// Save persists data under key.
func (s *FileStore) Save(key string, data []byte) error {
	path, err := s.keyToPath(key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp := path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err := s.fs.Rename(tmp, path); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("failed to commit %s: %w", key, err)
	}
	return nil
}

// Load returns the value stored under key, or ErrNotFound.
func (s *FileStore) Load(key string) ([]byte, error) {
	path, err := s.keyToPath(key)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return data, nil
}

// Delete removes key. A missing key returns ErrNotFound.
func (s *FileStore) Delete(key string) error {
	path, err := s.keyToPath(key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fs.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

func (s *FileStore) keyToPath(key string) (string, error) {
	if !validKey.MatchString(key) {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return filepath.Join(s.baseDir, key+".json"), nil
}
