package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mfenderov/smart-organizer/internal/config"
	"github.com/mfenderov/smart-organizer/internal/events"
	"github.com/mfenderov/smart-organizer/internal/navigator"
	"github.com/mfenderov/smart-organizer/internal/notify"
	"github.com/spf13/afero"
)

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"token": "good", "username": "alice"})
	})
	mux.HandleFunc("/categories", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Invalid token"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"categories": map[string]int{"Resume": 2, "Invoice": 1}})
	})
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "healthy"})
	})
	mux.HandleFunc("/llm-status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"available": true, "message": "LLM configured"})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newTestApp(t *testing.T, fs afero.Fs) *App {
	t.Helper()
	srv := testServer(t)
	cfg := config.Defaults()
	cfg.API.BaseURL = srv.URL
	cfg.API.Retry.MaxAttempts = 1
	cfg.Client.DataDir = "/data"
	cfg.Client.ExportDir = "/exports"

	a, err := New(cfg, Options{Fs: fs})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(a.Close)
	return a
}

func TestNew_RestoresSession(t *testing.T) {
	fs := afero.NewMemMapFs()
	_ = afero.WriteFile(fs, "/data/session.json", []byte(`{"token":"good","username":"alice"}`), 0o600)

	a := newTestApp(t, fs)
	if a.Nav.Page() != navigator.Upload {
		t.Errorf("page = %s, want upload", a.Nav.Page())
	}
	if s, ok := a.Session(); !ok || s.Username != "alice" {
		t.Errorf("session = %+v, %v", s, ok)
	}
}

func TestSignIn_PersistsAndNavigates(t *testing.T) {
	fs := afero.NewMemMapFs()
	a := newTestApp(t, fs)

	if err := a.Auth.SignIn(context.Background(), "alice", "secret1"); err != nil {
		t.Fatalf("SignIn() error = %v", err)
	}
	if a.Nav.Page() != navigator.Upload {
		t.Errorf("page = %s, want upload", a.Nav.Page())
	}
	if ok, _ := afero.Exists(fs, "/data/session.json"); !ok {
		t.Error("session not persisted")
	}
}

func TestLeavingOrganized_ResetsLibrary(t *testing.T) {
	fs := afero.NewMemMapFs()
	_ = afero.WriteFile(fs, "/data/session.json", []byte(`{"token":"good","username":"alice"}`), 0o600)
	a := newTestApp(t, fs)

	if err := a.Nav.Go(navigator.Organized); err != nil {
		t.Fatal(err)
	}
	if err := a.Library.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	if a.Library.Total() != 3 {
		t.Fatalf("total = %d, want 3", a.Library.Total())
	}

	if err := a.Nav.Go(navigator.Upload); err != nil {
		t.Fatal(err)
	}
	if a.Library.Total() != 0 {
		t.Errorf("library kept state after leaving the page: total = %d", a.Library.Total())
	}
}

func TestDispatcher_SessionExpired(t *testing.T) {
	fs := afero.NewMemMapFs()
	_ = afero.WriteFile(fs, "/data/session.json", []byte(`{"token":"stale","username":"alice"}`), 0o600)
	a := newTestApp(t, fs)
	_ = a.Nav.Go(navigator.Organized)

	d := NewDispatcher(context.Background(), a, 4)
	defer d.Close()
	d.LoadCategories()

	var got []any
	timeout := time.After(2 * time.Second)
	for len(got) < 2 {
		select {
		case ev := <-d.Events():
			got = append(got, ev)
		case <-timeout:
			t.Fatalf("timed out, events so far: %#v", got)
		}
	}

	loaded, ok := got[0].(events.CategoriesLoaded)
	if !ok || loaded.Err == nil {
		t.Errorf("first event = %#v, want failed CategoriesLoaded", got[0])
	}
	if _, ok := got[1].(events.SessionExpired); !ok {
		t.Errorf("second event = %#v, want SessionExpired", got[1])
	}
	if a.Nav.Page() != navigator.Auth {
		t.Errorf("page = %s, want auth", a.Nav.Page())
	}
	if ok, _ := afero.Exists(fs, "/data/session.json"); ok {
		t.Error("session file not cleared")
	}

	found := false
	for _, n := range a.Notes.List() {
		if n.Kind == notify.Warning && n.Message == MsgSessionExpired {
			found = true
		}
	}
	if !found {
		t.Errorf("notifications = %+v", a.Notes.List())
	}
}

func TestDispatcher_CheckStatus(t *testing.T) {
	a := newTestApp(t, afero.NewMemMapFs())
	d := NewDispatcher(context.Background(), a, 1)
	defer d.Close()

	d.CheckStatus()
	select {
	case ev := <-d.Events():
		st, ok := ev.(events.StatusChecked)
		if !ok || st.Err != nil {
			t.Fatalf("event = %#v", ev)
		}
		if !st.LLM.Available {
			t.Errorf("LLM = %+v", st.LLM)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out")
	}
}

func TestDispatcher_CloseIsIdempotent(t *testing.T) {
	a := newTestApp(t, afero.NewMemMapFs())
	d := NewDispatcher(context.Background(), a, 0)

	// unbuffered and never read: Close must still return
	d.CheckStatus()
	d.Close()
	d.Close()

	// after Close, new work is ignored
	d.CheckStatus()
	if _, open := <-d.Events(); open {
		t.Error("events channel still open")
	}
}

func TestHandleExpired_IgnoresOtherErrors(t *testing.T) {
	a := newTestApp(t, afero.NewMemMapFs())
	if a.HandleExpired(context.DeadlineExceeded) {
		t.Error("HandleExpired() = true for a non-401 error")
	}
}
