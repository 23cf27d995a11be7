// Package navigator is the page router. Which pages are reachable depends on
// whether a session is held.
package navigator

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mfenderov/smart-organizer/pkg/models"
)

// Page is one of the client's pages.
type Page int

const (
	Auth Page = iota
	Upload
	Organized
)

func (p Page) String() string {
	switch p {
	case Upload:
		return "upload"
	case Organized:
		return "organized"
	default:
		return "auth"
	}
}

// ErrUnauthenticated is returned when a page needing a session is requested
// without one.
var ErrUnauthenticated = errors.New("navigator: not signed in")

// SessionStore persists the session.
type SessionStore interface {
	Save(models.Session) error
	Load() (models.Session, bool)
	Clear() error
}

// Navigator holds the current page and the in-memory session.
type Navigator struct {
	store SessionStore

	mu       sync.Mutex
	page     Page
	session  models.Session
	signedIn bool
	onChange []func(from, to Page)
}

// New restores the persisted session before returning, so the first page is
// Upload when one exists and Auth otherwise.
func New(store SessionStore) *Navigator {
	n := &Navigator{store: store, page: Auth}
	if s, ok := store.Load(); ok {
		n.session = s
		n.signedIn = true
		n.page = Upload
		slog.Debug("session restored", "username", s.Username)
	}
	return n
}

// OnChange registers fn to run after every page change. fn runs outside the
// navigator lock.
func (n *Navigator) OnChange(fn func(from, to Page)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.onChange = append(n.onChange, fn)
}

// Page returns the current page.
func (n *Navigator) Page() Page {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.page
}

// Session returns the held session.
func (n *Navigator) Session() (models.Session, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.session, n.signedIn
}

// Login stores session and moves to Upload.
func (n *Navigator) Login(session models.Session) error {
	if err := n.store.Save(session); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}

	n.mu.Lock()
	n.session = session
	n.signedIn = true
	from := n.page
	n.page = Upload
	n.mu.Unlock()

	n.changed(from, Upload)
	return nil
}

// Go moves between Upload and Organized. Both need a session; Auth is only
// reached through Logout.
func (n *Navigator) Go(page Page) error {
	n.mu.Lock()
	if !n.signedIn {
		n.mu.Unlock()
		if page == Auth {
			return nil
		}
		return ErrUnauthenticated
	}
	if page == Auth {
		n.mu.Unlock()
		return fmt.Errorf("use logout to leave the signed-in pages")
	}
	from := n.page
	n.page = page
	n.mu.Unlock()

	n.changed(from, page)
	return nil
}

// Logout clears the persisted and in-memory session and returns to Auth. The
// in-memory session is dropped even if the store cannot be cleared.
func (n *Navigator) Logout() error {
	err := n.store.Clear()

	n.mu.Lock()
	n.session = models.Session{}
	n.signedIn = false
	from := n.page
	n.page = Auth
	n.mu.Unlock()

	n.changed(from, Auth)
	if err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

func (n *Navigator) changed(from, to Page) {
	if from == to {
		return
	}
	n.mu.Lock()
	hooks := append([]func(from, to Page){}, n.onChange...)
	n.mu.Unlock()

	slog.Debug("page changed", "from", from, "to", to)
	for _, fn := range hooks {
		fn(from, to)
	}
}
