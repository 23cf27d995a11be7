// Package prefs holds persisted user preferences.
package prefs

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mfenderov/smart-organizer/internal/localstore"
)

// ThemeKey is the storage key of the theme preference.
const ThemeKey = "theme"

// Theme is the colour scheme preference.
type Theme string

const (
	Light Theme = "light"
	Dark  Theme = "dark"
)

// ParseTheme accepts "light" or "dark" in any case.
func ParseTheme(s string) (Theme, error) {
	switch Theme(strings.ToLower(strings.TrimSpace(s))) {
	case Light:
		return Light, nil
	case Dark:
		return Dark, nil
	default:
		return "", fmt.Errorf("unknown theme %q (want light or dark)", s)
	}
}

// Toggle returns the other theme.
func (t Theme) Toggle() Theme {
	if t == Dark {
		return Light
	}
	return Dark
}

// Backend is the durable storage preferences live in.
type Backend interface {
	Save(key string, data []byte) error
	Load(key string) ([]byte, error)
}

// Store reads and writes preferences.
type Store struct {
	backend Backend
}

// NewStore creates a preference store on backend.
func NewStore(backend Backend) *Store {
	return &Store{backend: backend}
}

// Theme returns the saved theme, Light when nothing valid is stored.
func (s *Store) Theme() Theme {
	data, err := s.backend.Load(ThemeKey)
	if err != nil {
		if !errors.Is(err, localstore.ErrNotFound) {
			slog.Warn("failed to read theme preference", "error", err)
		}
		return Light
	}
	theme, err := ParseTheme(string(data))
	if err != nil {
		slog.Warn("ignoring stored theme", "error", err)
		return Light
	}
	return theme
}

// SetTheme persists theme.
func (s *Store) SetTheme(theme Theme) error {
	if _, err := ParseTheme(string(theme)); err != nil {
		return err
	}
	if err := s.backend.Save(ThemeKey, []byte(theme)); err != nil {
		return fmt.Errorf("failed to save theme: %w", err)
	}
	return nil
}

// ToggleTheme flips the stored theme and returns the new value.
func (s *Store) ToggleTheme() (Theme, error) {
	next := s.Theme().Toggle()
	return next, s.SetTheme(next)
}
