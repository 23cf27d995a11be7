package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mfenderov/smart-organizer/internal/navigator"
	"github.com/mfenderov/smart-organizer/internal/upload"
)

func newUploadInput() textinput.Model {
	ti := textinput.New()
	ti.Placeholder = "path/to/file.pdf (several paths separated by spaces)"
	ti.CharLimit = 1024
	ti.Width = 60
	return ti
}

// addPaths reads the typed paths and adds them to the pending batch. The
// batch is replaced only if every file is accepted.
func (m *Model) addPaths(input string) {
	paths := strings.Fields(input)
	files, err := upload.FromPaths(m.app.Fs, paths)
	if err != nil {
		m.app.Notes.Error(err.Error())
		return
	}
	batch := append(m.app.Upload.Snapshot().Pending, files...)
	if err := m.app.Upload.Select(batch); err != nil {
		return
	}
	m.uploadIn.Reset()
}

func (m Model) updateUpload(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return m.quit()
	case "enter":
		if input := strings.TrimSpace(m.uploadIn.Value()); input != "" {
			m.addPaths(input)
			return m, nil
		}
		if m.app.Upload.Snapshot().State != upload.Uploading {
			m.disp.Upload()
		}
		return m, nil
	case "ctrl+u":
		if m.app.Upload.Snapshot().State != upload.Uploading {
			m.disp.Upload()
		}
		return m, nil
	case "ctrl+x":
		if n := len(m.app.Upload.Snapshot().Pending); n > 0 {
			m.app.Upload.Remove(n - 1)
		}
		return m, nil
	case "ctrl+o":
		return m.goTo(navigator.Organized)
	case "ctrl+l":
		return m.logout()
	case "ctrl+n":
		m.dismissNewest()
		return m, nil
	}

	var cmd tea.Cmd
	m.uploadIn, cmd = m.uploadIn.Update(msg)
	return m, cmd
}

func (m Model) viewUpload() string {
	snap := m.app.Upload.Snapshot()
	s := m.styles

	var b strings.Builder
	b.WriteString(s.Subtitle.Render("Upload documents") + "\n")
	b.WriteString(s.Muted.Render(fmt.Sprintf("PDF or DOCX, up to %d files per batch", upload.MaxFiles)) + "\n\n")
	b.WriteString(m.uploadIn.View() + "\n\n")

	if len(snap.Pending) > 0 {
		b.WriteString(s.Text.Render(fmt.Sprintf("Selected (%d)", len(snap.Pending))) + "\n")
		for i, f := range snap.Pending {
			b.WriteString(fmt.Sprintf("  %d. %s %s\n", i+1, filepath.Base(f.Name), s.Muted.Render(humanSize(f.Size()))))
		}
		b.WriteString("\n")
	}

	if snap.State == upload.Uploading {
		b.WriteString(s.Muted.Render("Uploading and classifying...") + "\n\n")
	} else if snap.Error != "" {
		b.WriteString(s.Error.Render(snap.Error) + "\n\n")
	}

	if len(snap.Results) > 0 {
		b.WriteString(s.Text.Render("Classification results") + "\n")
		for _, r := range snap.Results {
			b.WriteString(fmt.Sprintf("  %s → %s %s\n", r.Filename, s.Selected.Render(r.Category), s.Confidence(r.Confidence)))
		}
		b.WriteString("\n")
	}

	b.WriteString(s.Help.Render("enter add path / upload · ctrl+x remove last · ctrl+o library · ctrl+l sign out · ctrl+t theme · esc quit"))
	return s.Panel.Render(b.String())
}

func humanSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
