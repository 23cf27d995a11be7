package navigator

import (
	"errors"
	"testing"

	"github.com/mfenderov/smart-organizer/internal/localstore"
	"github.com/mfenderov/smart-organizer/internal/session"
	"github.com/mfenderov/smart-organizer/pkg/models"
	"github.com/spf13/afero"
)

func newStore(t *testing.T, fs afero.Fs) *session.Store {
	t.Helper()
	backend, err := localstore.New(fs, "/data")
	if err != nil {
		t.Fatal(err)
	}
	return session.NewStore(backend)
}

func TestRestore_StartsOnUpload(t *testing.T) {
	fs := afero.NewMemMapFs()
	_ = newStore(t, fs).Save(models.Session{Token: "tok", Username: "alice"})

	var visited []Page
	n := New(newStore(t, fs))
	n.OnChange(func(_, to Page) { visited = append(visited, to) })

	if n.Page() != Upload {
		t.Fatalf("initial page = %v, want upload", n.Page())
	}
	if len(visited) != 0 {
		t.Errorf("visited pages during restore: %v", visited)
	}
	if s, ok := n.Session(); !ok || s.Username != "alice" {
		t.Errorf("Session() = %+v, %v", s, ok)
	}
}

func TestRestore_NoSession(t *testing.T) {
	n := New(newStore(t, afero.NewMemMapFs()))
	if n.Page() != Auth {
		t.Errorf("initial page = %v, want auth", n.Page())
	}
}

func TestGuardedPages(t *testing.T) {
	n := New(newStore(t, afero.NewMemMapFs()))

	for _, page := range []Page{Upload, Organized} {
		if err := n.Go(page); !errors.Is(err, ErrUnauthenticated) {
			t.Errorf("Go(%v) error = %v, want ErrUnauthenticated", page, err)
		}
		if n.Page() != Auth {
			t.Errorf("page = %v after refused Go(%v)", n.Page(), page)
		}
	}
}

func TestLoginAndNavigate(t *testing.T) {
	n := New(newStore(t, afero.NewMemMapFs()))

	var changes [][2]Page
	n.OnChange(func(from, to Page) { changes = append(changes, [2]Page{from, to}) })

	if err := n.Login(models.Session{Token: "tok", Username: "alice"}); err != nil {
		t.Fatal(err)
	}
	if err := n.Go(Organized); err != nil {
		t.Fatal(err)
	}
	if err := n.Go(Upload); err != nil {
		t.Fatal(err)
	}
	if err := n.Go(Auth); err == nil {
		t.Error("Go(Auth) while signed in succeeded")
	}

	want := [][2]Page{{Auth, Upload}, {Upload, Organized}, {Organized, Upload}}
	if len(changes) != len(want) {
		t.Fatalf("changes = %v, want %v", changes, want)
	}
	for i := range want {
		if changes[i] != want[i] {
			t.Errorf("change %d = %v, want %v", i, changes[i], want[i])
		}
	}
}

func TestLogout_ClearsPersistedSession(t *testing.T) {
	fs := afero.NewMemMapFs()
	n := New(newStore(t, fs))
	_ = n.Login(models.Session{Token: "tok", Username: "alice"})
	_ = n.Go(Organized)

	if err := n.Logout(); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if n.Page() != Auth {
		t.Errorf("page = %v after logout", n.Page())
	}
	if _, ok := n.Session(); ok {
		t.Error("in-memory session survived logout")
	}

	if _, ok := newStore(t, fs).Load(); ok {
		t.Error("session still persisted")
	}
	if New(newStore(t, fs)).Page() != Auth {
		t.Error("next restore did not resolve to auth")
	}
}
