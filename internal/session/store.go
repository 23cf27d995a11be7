// Package session persists the signed-in identity across restarts.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mfenderov/smart-organizer/internal/localstore"
	"github.com/mfenderov/smart-organizer/pkg/models"
)

// Key is the storage key the session is persisted under.
const Key = "session"

// Backend is the durable key-value storage the session lives in. Missing
// keys are reported as localstore.ErrNotFound.
type Backend interface {
	Save(key string, data []byte) error
	Load(key string) ([]byte, error)
	Delete(key string) error
}

// Store saves, restores, and clears the single persisted session.
type Store struct {
	backend Backend
}

// NewStore creates a Store on backend.
func NewStore(backend Backend) *Store {
	return &Store{backend: backend}
}

// Save persists session, replacing any previous one.
func (s *Store) Save(session models.Session) error {
	if !session.Valid() {
		return fmt.Errorf("refusing to save incomplete session")
	}
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := s.backend.Save(Key, data); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Load returns the persisted session. Storage and decode failures are logged
// and reported as no session.
func (s *Store) Load() (models.Session, bool) {
	data, err := s.backend.Load(Key)
	if err != nil {
		if !isNotFound(err) {
			slog.Warn("session restore failed", "error", err)
		}
		return models.Session{}, false
	}

	var session models.Session
	if err := json.Unmarshal(data, &session); err != nil {
		slog.Warn("discarding unreadable session", "error", err)
		return models.Session{}, false
	}
	if !session.Valid() {
		slog.Warn("discarding incomplete session")
		return models.Session{}, false
	}
	return session, true
}

// Clear removes the persisted session. Clearing when nothing is stored is not
// an error.
func (s *Store) Clear() error {
	if err := s.backend.Delete(Key); err != nil && !isNotFound(err) {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

func isNotFound(err error) bool {
	return errors.Is(err, localstore.ErrNotFound)
}
