// Package tui is the interactive terminal client.
package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mfenderov/smart-organizer/internal/app"
	"github.com/mfenderov/smart-organizer/internal/events"
	"github.com/mfenderov/smart-organizer/internal/navigator"
	"github.com/mfenderov/smart-organizer/internal/prefs"
	"github.com/mfenderov/smart-organizer/internal/quotes"
	"github.com/mfenderov/smart-organizer/pkg/models"
)

const appTitle = "Smart Document Organizer"

// Messages. Each one only says that something changed; the model reads the
// current value from the app so delivery order does not matter.
type (
	pageMsg         struct{}
	notesMsg        struct{}
	quoteMsg        struct{}
	eventsClosedMsg struct{}
)

// Model is the root bubbletea model.
type Model struct {
	app     *app.App
	disp    *app.Dispatcher
	rotator *quotes.Rotator
	send    func(tea.Msg)

	theme  prefs.Theme
	styles Styles
	page   navigator.Page
	width  int
	height int

	llm *models.LLMStatus

	auth     authView
	uploadIn textinput.Model
	org      orgView

	quitting bool
}

// NewModel creates the model. send delivers messages from background
// goroutines; it must not block.
func NewModel(a *app.App, d *app.Dispatcher, rotator *quotes.Rotator, send func(tea.Msg)) Model {
	if send == nil {
		send = func(tea.Msg) {}
	}
	if rotator == nil {
		rotator = quotes.NewRotator(quotes.All, quotes.DefaultInterval)
	}
	theme := a.Prefs.Theme()
	m := Model{
		app:      a,
		disp:     d,
		rotator:  rotator,
		send:     send,
		theme:    theme,
		styles:   NewStyles(theme),
		page:     a.Nav.Page(),
		auth:     newAuthView(),
		uploadIn: newUploadInput(),
		org:      newOrgView(),
	}
	m.focusPage()
	return m
}

func waitForEvent(ch <-chan any) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return eventsClosedMsg{}
		}
		return ev
	}
}

// Init starts the quote rotation, polls service status and subscribes to
// dispatcher events.
func (m Model) Init() tea.Cmd {
	m.syncQuotes()
	m.disp.CheckStatus()
	return tea.Batch(waitForEvent(m.disp.Events()), textinput.Blink)
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil
	case notesMsg, quoteMsg, eventsClosedMsg:
		// re-render only
		return m, nil
	case pageMsg:
		if to := m.app.Nav.Page(); to != m.page {
			return m.enterPage(to)
		}
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.handleEvent(msg) {
		return m, waitForEvent(m.disp.Events())
	}
	return m.updateInputs(msg)
}

// handleEvent applies a dispatcher completion. It reports whether msg was one.
func (m *Model) handleEvent(msg tea.Msg) bool {
	switch ev := msg.(type) {
	case events.SignInCompleted:
		if ev.SignUp && ev.Err == nil {
			m.auth.reset()
			m.auth.inputs[fieldUsername].SetValue(m.app.Auth.Form().Username)
			m.auth.focusField(fieldPassword, true)
		}
	case events.UploadCompleted:
	case events.CategoriesLoaded:
		m.org.clampCategory(len(m.app.Library.Categories()))
	case events.DocumentsLoaded:
		m.org.docCursor = 0
	case events.SummaryCompleted:
	case events.DeleteCompleted:
		m.org.clampDocument(len(m.app.Library.Visible()))
	case events.ExportCompleted:
	case events.StatusChecked:
		if ev.Err == nil {
			llm := ev.LLM
			m.llm = &llm
		}
	case events.SessionExpired:
		m.page = navigator.Auth
		m.auth.reset()
		m.focusPage()
		m.syncQuotes()
	default:
		return false
	}
	return true
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m.quit()
	case "ctrl+t":
		m.toggleTheme()
		return m, nil
	}

	switch m.page {
	case navigator.Upload:
		return m.updateUpload(msg)
	case navigator.Organized:
		return m.updateOrganized(msg)
	default:
		return m.updateAuth(msg)
	}
}

func (m Model) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.page {
	case navigator.Auth:
		cmd = m.auth.update(msg)
	case navigator.Upload:
		m.uploadIn, cmd = m.uploadIn.Update(msg)
	case navigator.Organized:
		if m.org.searching {
			m.org.search, cmd = m.org.search.Update(msg)
		}
	}
	return m, cmd
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.quitting = true
	m.rotator.Stop()
	return m, tea.Quit
}

func (m *Model) toggleTheme() {
	theme, err := m.app.Prefs.ToggleTheme()
	if err != nil {
		m.app.Notes.Error("Failed to save theme preference")
	}
	m.theme = theme
	m.styles = NewStyles(theme)
}

// goTo navigates and applies the page change at once.
func (m Model) goTo(page navigator.Page) (tea.Model, tea.Cmd) {
	if err := m.app.Nav.Go(page); err != nil {
		m.app.Notes.Error(err.Error())
		return m, nil
	}
	return m.enterPage(page)
}

func (m Model) logout() (tea.Model, tea.Cmd) {
	if err := m.app.Logout(); err != nil {
		m.app.Notes.Error("Failed to sign out")
	}
	return m.enterPage(m.app.Nav.Page())
}

func (m Model) enterPage(to navigator.Page) (tea.Model, tea.Cmd) {
	m.page = to
	switch to {
	case navigator.Auth:
		m.auth.reset()
	case navigator.Upload:
		m.uploadIn.Reset()
	case navigator.Organized:
		m.org = newOrgView()
		m.disp.LoadCategories()
	}
	m.focusPage()
	m.syncQuotes()
	return m, textinput.Blink
}

func (m *Model) focusPage() {
	m.auth.blurAll()
	m.uploadIn.Blur()
	m.org.search.Blur()
	switch m.page {
	case navigator.Auth:
		m.auth.focusField(fieldUsername, m.app.Auth.Form().SignIn)
	case navigator.Upload:
		m.uploadIn.Focus()
	}
}

// syncQuotes runs the quote rotator on the pages that show quotes.
func (m Model) syncQuotes() {
	if m.page == navigator.Upload {
		m.rotator.Stop()
		return
	}
	send := m.send
	m.rotator.Start(func(quotes.Quote) { send(quoteMsg{}) })
}

// View renders the current page.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var body string
	switch m.page {
	case navigator.Upload:
		body = m.viewUpload()
	case navigator.Organized:
		body = m.viewOrganized()
	default:
		body = m.viewAuth()
	}

	sections := []string{m.viewHeader(), body}
	if notes := m.viewNotifications(); notes != "" {
		sections = append(sections, notes)
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...) + "\n"
}

func (m Model) viewHeader() string {
	parts := []string{m.styles.Title.Render(appTitle)}
	if s, ok := m.app.Session(); ok {
		parts = append(parts, m.styles.Text.Render(s.Username))
	}
	if m.llm != nil {
		if m.llm.Available {
			parts = append(parts, lipgloss.NewStyle().Foreground(m.styles.Palette.Success).Render("AI summaries on"))
		} else {
			parts = append(parts, m.styles.Muted.Render("AI summaries off"))
		}
	}
	parts = append(parts, m.styles.Muted.Render(string(m.theme)+" theme"))
	return strings.Join(parts, m.styles.Muted.Render(" · ")) + "\n"
}

func (m Model) viewNotifications() string {
	list := m.app.Notes.List()
	if len(list) == 0 {
		return ""
	}
	lines := make([]string, len(list))
	for i, n := range list {
		lines[i] = m.styles.Notification(n)
	}
	return "\n" + strings.Join(lines, "\n")
}

func (m Model) viewQuote() string {
	q := m.rotator.Current()
	return m.styles.Quote.Render("“" + q.Text + "” - " + q.Author)
}

// dismissNewest drops the most recent notification.
func (m Model) dismissNewest() {
	list := m.app.Notes.List()
	if len(list) > 0 {
		m.app.Notes.Dismiss(list[len(list)-1].ID)
	}
}
