package prefs

import (
	"testing"

	"github.com/mfenderov/smart-organizer/internal/localstore"
	"github.com/spf13/afero"
)

func TestParseTheme(t *testing.T) {
	tests := []struct {
		in      string
		want    Theme
		wantErr bool
	}{
		{"light", Light, false},
		{"DARK", Dark, false},
		{" dark ", Dark, false},
		{"solarized", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTheme(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseTheme(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseTheme(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestThemeRoundTrip(t *testing.T) {
	backend, err := localstore.New(afero.NewMemMapFs(), "/data")
	if err != nil {
		t.Fatal(err)
	}
	store := NewStore(backend)

	if got := store.Theme(); got != Light {
		t.Errorf("default Theme() = %q, want light", got)
	}
	if err := store.SetTheme(Dark); err != nil {
		t.Fatalf("SetTheme() error = %v", err)
	}
	if got := store.Theme(); got != Dark {
		t.Errorf("Theme() = %q, want dark", got)
	}

	next, err := store.ToggleTheme()
	if err != nil || next != Light {
		t.Errorf("ToggleTheme() = %q, %v", next, err)
	}
	if got := store.Theme(); got != Light {
		t.Errorf("Theme() after toggle = %q", got)
	}
}

func TestTheme_IgnoresGarbage(t *testing.T) {
	backend, _ := localstore.New(afero.NewMemMapFs(), "/data")
	_ = backend.Save(ThemeKey, []byte("neon"))

	if got := NewStore(backend).Theme(); got != Light {
		t.Errorf("Theme() = %q, want light", got)
	}
}
