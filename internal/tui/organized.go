package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mfenderov/smart-organizer/internal/actions"
	"github.com/mfenderov/smart-organizer/internal/navigator"
	"github.com/mfenderov/smart-organizer/pkg/models"
)

const (
	paneCategories = iota
	paneDocuments
)

type orgView struct {
	pane      int
	catCursor int
	docCursor int
	searching bool
	search    textinput.Model
}

func newOrgView() orgView {
	ti := textinput.New()
	ti.Placeholder = "search filenames"
	ti.CharLimit = 128
	ti.Width = 30
	return orgView{search: ti}
}

func (v *orgView) clampCategory(n int) {
	v.catCursor = clamp(v.catCursor, n)
}

func (v *orgView) clampDocument(n int) {
	v.docCursor = clamp(v.docCursor, n)
}

func clamp(i, n int) int {
	if n == 0 || i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// currentDocument returns the document under the cursor.
func (m Model) currentDocument() (models.Document, bool) {
	docs := m.app.Library.Visible()
	if len(docs) == 0 || m.org.docCursor >= len(docs) {
		return models.Document{}, false
	}
	return docs[m.org.docCursor], true
}

func (m Model) updateOrganized(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if _, pending := m.app.Actions.PendingDelete(); pending {
		if m.app.Actions.Deleting() {
			return m, nil
		}
		switch key {
		case "y", "enter":
			m.disp.ConfirmDelete()
		case "n", "esc":
			m.app.Actions.CancelDelete()
		}
		return m, nil
	}

	if m.app.Actions.Summary().Open {
		switch key {
		case "esc", "enter", "q":
			m.app.Actions.CloseSummary()
		}
		return m, nil
	}

	if m.org.searching {
		switch key {
		case "esc":
			m.org.searching = false
			m.org.search.Reset()
			m.org.search.Blur()
			m.app.Library.SetQuery("")
			m.org.docCursor = 0
			return m, nil
		case "enter":
			m.org.searching = false
			m.org.search.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.org.search, cmd = m.org.search.Update(msg)
		m.app.Library.SetQuery(m.org.search.Value())
		m.org.clampDocument(len(m.app.Library.Visible()))
		return m, cmd
	}

	names := m.app.Library.Categories().Names()
	switch key {
	case "q", "esc":
		return m.quit()
	case "t":
		m.toggleTheme()
	case "tab", "left", "right", "h", "l":
		if m.org.pane == paneCategories {
			m.org.pane = paneDocuments
		} else {
			m.org.pane = paneCategories
		}
	case "up", "k":
		if m.org.pane == paneCategories {
			m.org.catCursor = clamp(m.org.catCursor-1, len(names))
		} else {
			m.org.docCursor = clamp(m.org.docCursor-1, len(m.app.Library.Visible()))
		}
	case "down", "j":
		if m.org.pane == paneCategories {
			m.org.catCursor = clamp(m.org.catCursor+1, len(names))
		} else {
			m.org.docCursor = clamp(m.org.docCursor+1, len(m.app.Library.Visible()))
		}
	case "enter":
		if m.org.pane == paneCategories && len(names) > 0 {
			m.org.search.Reset()
			m.disp.SelectCategory(names[clamp(m.org.catCursor, len(names))])
			m.org.pane = paneDocuments
		}
	case "backspace":
		m.app.Library.ClearSelection()
		m.org.search.Reset()
		m.org.docCursor = 0
		m.org.pane = paneCategories
	case "/":
		if _, ok := m.app.Library.Selected(); ok {
			m.org.searching = true
			m.org.pane = paneDocuments
			cmd := m.org.search.Focus()
			return m, cmd
		}
	case "s":
		if doc, ok := m.currentDocument(); ok {
			m.disp.Summarize(doc)
		}
	case "d":
		if doc, ok := m.currentDocument(); ok {
			m.app.Actions.RequestDelete(doc)
		}
	case "e":
		if status, _ := m.app.Actions.ExportState(); status != actions.ExportPreparing {
			m.disp.Export()
		}
	case "r":
		m.disp.LoadCategories()
	case "u":
		return m.goTo(navigator.Upload)
	case "L":
		return m.logout()
	case "x":
		m.dismissNewest()
	}
	return m, nil
}

func (m Model) viewOrganized() string {
	if doc, pending := m.app.Actions.PendingDelete(); pending {
		return m.viewDeleteConfirm(doc)
	}
	if view := m.app.Actions.Summary(); view.Open {
		return m.viewSummary(view)
	}

	s := m.styles
	var b strings.Builder
	b.WriteString(s.Subtitle.Render("Your documents"))
	b.WriteString(s.Muted.Render(fmt.Sprintf("  %d total", m.app.Library.Total())) + "\n\n")

	switch {
	case m.app.Library.Loading() && len(m.app.Library.Categories()) == 0:
		b.WriteString(s.Muted.Render("Loading categories...") + "\n")
	case m.app.Library.Empty():
		b.WriteString(s.Muted.Render("No documents yet. Upload some to get started.") + "\n")
	default:
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, m.viewCategories(), " ", m.viewDocuments()) + "\n")
	}

	switch status, errMsg := m.app.Actions.ExportState(); status {
	case actions.ExportPreparing:
		b.WriteString("\n" + s.Muted.Render("Preparing download...") + "\n")
	case actions.ExportFailed:
		b.WriteString("\n" + s.Error.Render(errMsg) + "\n")
	}

	b.WriteString("\n" + m.viewQuote() + "\n\n")
	b.WriteString(s.Help.Render("enter open · ⌫ back · / search · s summarize · d delete · e export · r refresh · u upload · L sign out · t theme · q quit"))
	return b.String()
}

func (m Model) viewCategories() string {
	s := m.styles
	index := m.app.Library.Categories()
	selected, _ := m.app.Library.Selected()

	var b strings.Builder
	b.WriteString(s.Text.Render("Categories") + "\n")
	for i, name := range index.Names() {
		line := fmt.Sprintf("%s (%d)", name, index[name])
		prefix := "  "
		if m.org.pane == paneCategories && i == m.org.catCursor {
			prefix = "> "
		}
		if name == selected {
			line = s.Selected.Render(line)
		}
		b.WriteString(prefix + line + "\n")
	}
	return s.Panel.Width(28).Render(strings.TrimRight(b.String(), "\n"))
}

func (m Model) viewDocuments() string {
	s := m.styles
	var b strings.Builder

	category, ok := m.app.Library.Selected()
	if !ok {
		b.WriteString(s.Muted.Render("Select a category"))
		return s.Panel.Render(b.String())
	}

	b.WriteString(s.Text.Render(category))
	if q := m.app.Library.Query(); q != "" || m.org.searching {
		b.WriteString("  " + m.org.search.View())
	}
	b.WriteString("\n")

	docs := m.app.Library.Visible()
	switch {
	case m.app.Library.Loading():
		b.WriteString(s.Muted.Render("Loading documents..."))
	case len(docs) == 0 && m.app.Library.Query() != "":
		b.WriteString(s.Muted.Render("No documents match your search"))
	case len(docs) == 0:
		b.WriteString(s.Muted.Render("No documents in this category"))
	}

	for i, doc := range docs {
		prefix := "  "
		if m.org.pane == paneDocuments && i == m.org.docCursor {
			prefix = "> "
		}
		date := ""
		if !doc.Timestamp.IsZero() {
			date = doc.Timestamp.Local().Format("Jan 2, 2006")
		}
		b.WriteString(fmt.Sprintf("%s%s  %s  %s\n", prefix, doc.Filename, s.Confidence(doc.Confidence), s.Muted.Render(date)))
	}
	return s.Panel.Render(strings.TrimRight(b.String(), "\n"))
}

func (m Model) viewDeleteConfirm(doc models.Document) string {
	s := m.styles
	body := s.Subtitle.Render("Delete document?") + "\n\n" +
		s.Text.Render(fmt.Sprintf("%q will be removed permanently.", doc.Filename)) + "\n\n"
	if m.app.Actions.Deleting() {
		body += s.Muted.Render("Deleting...")
	} else {
		body += s.Help.Render("y delete · n cancel")
	}
	return s.Modal.Render(body)
}

func (m Model) viewSummary(view actions.SummaryView) string {
	s := m.styles
	var b strings.Builder
	b.WriteString(s.Subtitle.Render("Summary: "+view.Target.Filename) + "\n\n")

	switch view.Status {
	case actions.SummaryLoading:
		b.WriteString(s.Muted.Render("Generating summary..."))
	case actions.SummaryErrored:
		b.WriteString(s.Error.Render(view.Error))
	case actions.SummaryReady:
		if t := view.Result.DocumentType; t != nil && *t != "" {
			b.WriteString(s.Muted.Render("Type: "+*t) + "\n\n")
		}
		b.WriteString(s.Text.Render(view.Result.Summary) + "\n")
		if len(view.Result.KeyPoints) > 0 {
			b.WriteString("\n" + s.Text.Render("Key points") + "\n")
			for _, p := range view.Result.KeyPoints {
				b.WriteString("  • " + p + "\n")
			}
		}
	}

	b.WriteString("\n\n" + s.Help.Render("esc close"))
	width := 72
	if m.width > 0 && m.width-8 < width {
		width = max(m.width-8, 20)
	}
	return s.Modal.Width(width).Render(b.String())
}
