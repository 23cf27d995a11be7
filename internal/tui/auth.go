package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mfenderov/smart-organizer/internal/auth"
)

const (
	fieldUsername = iota
	fieldEmail
	fieldPassword
)

type authView struct {
	inputs [3]textinput.Model
	focus  int
}

func newAuthView() authView {
	var v authView
	placeholders := [3]string{"username", "email", "password"}
	for i := range v.inputs {
		ti := textinput.New()
		ti.Placeholder = placeholders[i]
		ti.CharLimit = 128
		ti.Width = 32
		v.inputs[i] = ti
	}
	v.inputs[fieldPassword].EchoMode = textinput.EchoPassword
	v.inputs[fieldPassword].EchoCharacter = '•'
	return v
}

// fields lists the visible inputs in tab order.
func fields(signIn bool) []int {
	if signIn {
		return []int{fieldUsername, fieldPassword}
	}
	return []int{fieldUsername, fieldEmail, fieldPassword}
}

func (v *authView) reset() {
	for i := range v.inputs {
		v.inputs[i].Reset()
	}
}

func (v *authView) blurAll() {
	for i := range v.inputs {
		v.inputs[i].Blur()
	}
}

func (v *authView) focusField(field int, signIn bool) {
	if signIn && field == fieldEmail {
		field = fieldUsername
	}
	v.blurAll()
	v.focus = field
	v.inputs[field].Focus()
}

// move shifts focus by delta through the visible fields, wrapping.
func (v *authView) move(delta int, signIn bool) {
	order := fields(signIn)
	pos := 0
	for i, f := range order {
		if f == v.focus {
			pos = i
		}
	}
	pos = (pos + delta + len(order)) % len(order)
	v.focusField(order[pos], signIn)
}

func (v *authView) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	v.inputs[v.focus], cmd = v.inputs[v.focus].Update(msg)
	return cmd
}

func (v authView) value(field int) string {
	return strings.TrimSpace(v.inputs[field].Value())
}

func (m Model) updateAuth(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	signIn := m.app.Auth.Form().SignIn

	switch msg.String() {
	case "esc":
		return m.quit()
	case "tab", "down":
		m.auth.move(1, signIn)
		return m, nil
	case "shift+tab", "up":
		m.auth.move(-1, signIn)
		return m, nil
	case "ctrl+s":
		m.app.Auth.SetMode(!signIn)
		m.auth.reset()
		m.auth.focusField(fieldUsername, !signIn)
		return m, nil
	case "enter":
		if m.app.Auth.State() == auth.Submitting {
			return m, nil
		}
		// passwords are sent as typed
		password := m.auth.inputs[fieldPassword].Value()
		if signIn {
			m.disp.SignIn(m.auth.value(fieldUsername), password)
		} else {
			m.disp.SignUp(m.auth.value(fieldUsername), m.auth.value(fieldEmail), password)
		}
		return m, nil
	}

	cmd := m.auth.update(msg)
	return m, cmd
}

func (m Model) viewAuth() string {
	form := m.app.Auth.Form()
	s := m.styles

	var b strings.Builder
	if form.SignIn {
		b.WriteString(s.Subtitle.Render("Sign in"))
	} else {
		b.WriteString(s.Subtitle.Render("Create an account"))
	}
	b.WriteString("\n\n")

	labels := [3]string{"Username", "Email", "Password"}
	for _, f := range fields(form.SignIn) {
		b.WriteString(s.Muted.Render(labels[f]) + "\n")
		b.WriteString(m.auth.inputs[f].View() + "\n\n")
	}

	if !form.SignIn {
		hints := auth.CheckPassword(m.auth.inputs[fieldPassword].Value())
		b.WriteString(m.hint(hints.MinLength, "At least 6 characters") + "\n")
		b.WriteString(m.hint(hints.HasDigit, "Contains a number") + "\n\n")
	}

	switch m.app.Auth.State() {
	case auth.Submitting:
		if form.SignIn {
			b.WriteString(s.Muted.Render("Signing in...") + "\n")
		} else {
			b.WriteString(s.Muted.Render("Creating account...") + "\n")
		}
	case auth.Failed:
		if form.Error != "" {
			b.WriteString(s.Error.Render(form.Error) + "\n")
		}
	}

	b.WriteString("\n" + m.viewQuote() + "\n\n")
	if form.SignIn {
		b.WriteString(s.Help.Render("enter sign in · tab next field · ctrl+s create account · ctrl+t theme · esc quit"))
	} else {
		b.WriteString(s.Help.Render("enter sign up · tab next field · ctrl+s back to sign in · ctrl+t theme · esc quit"))
	}
	return s.Panel.Render(b.String())
}

func (m Model) hint(ok bool, text string) string {
	if ok {
		return lipgloss.NewStyle().Foreground(m.styles.Palette.Success).Render("✓ " + text)
	}
	return m.styles.Muted.Render("○ " + text)
}
