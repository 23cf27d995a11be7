package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/mfenderov/smart-organizer/internal/notify"
	"github.com/mfenderov/smart-organizer/internal/prefs"
	"github.com/mfenderov/smart-organizer/pkg/models"
)

// Palette is the colour scheme for one theme.
type Palette struct {
	Primary lipgloss.Color
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
	Info    lipgloss.Color
	Muted   lipgloss.Color
	Text    lipgloss.Color
	Border  lipgloss.Color
}

var (
	lightPalette = Palette{
		Primary: lipgloss.Color("#4F46E5"),
		Success: lipgloss.Color("#15803D"),
		Warning: lipgloss.Color("#B45309"),
		Error:   lipgloss.Color("#B91C1C"),
		Info:    lipgloss.Color("#1D4ED8"),
		Muted:   lipgloss.Color("#6B7280"),
		Text:    lipgloss.Color("#111827"),
		Border:  lipgloss.Color("#D1D5DB"),
	}
	darkPalette = Palette{
		Primary: lipgloss.Color("#A78BFA"),
		Success: lipgloss.Color("#4ADE80"),
		Warning: lipgloss.Color("#FBBF24"),
		Error:   lipgloss.Color("#F87171"),
		Info:    lipgloss.Color("#60A5FA"),
		Muted:   lipgloss.Color("#9CA3AF"),
		Text:    lipgloss.Color("#F9FAFB"),
		Border:  lipgloss.Color("#4B5563"),
	}
)

// PaletteFor returns the palette of theme.
func PaletteFor(theme prefs.Theme) Palette {
	if theme == prefs.Dark {
		return darkPalette
	}
	return lightPalette
}

// Styles are the rendered styles for one palette.
type Styles struct {
	Palette Palette

	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Text     lipgloss.Style
	Muted    lipgloss.Style
	Selected lipgloss.Style
	Error    lipgloss.Style
	Help     lipgloss.Style
	Quote    lipgloss.Style
	Panel    lipgloss.Style
	Modal    lipgloss.Style
}

// NewStyles builds the styles for theme.
func NewStyles(theme prefs.Theme) Styles {
	p := PaletteFor(theme)
	return Styles{
		Palette:  p,
		Title:    lipgloss.NewStyle().Bold(true).Foreground(p.Primary),
		Subtitle: lipgloss.NewStyle().Bold(true).Foreground(p.Text),
		Text:     lipgloss.NewStyle().Foreground(p.Text),
		Muted:    lipgloss.NewStyle().Foreground(p.Muted),
		Selected: lipgloss.NewStyle().Bold(true).Foreground(p.Primary),
		Error:    lipgloss.NewStyle().Foreground(p.Error),
		Help:     lipgloss.NewStyle().Foreground(p.Muted).Italic(true),
		Quote:    lipgloss.NewStyle().Foreground(p.Muted).Italic(true),
		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.Border).
			Padding(0, 1),
		Modal: lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(p.Primary).
			Padding(1, 2),
	}
}

func (s Styles) kindColor(kind notify.Kind) lipgloss.Color {
	switch kind {
	case notify.Success:
		return s.Palette.Success
	case notify.Error:
		return s.Palette.Error
	case notify.Warning:
		return s.Palette.Warning
	default:
		return s.Palette.Info
	}
}

var kindIcons = map[notify.Kind]string{
	notify.Success: "✓",
	notify.Error:   "✗",
	notify.Warning: "!",
	notify.Info:    "i",
}

// Notification renders one notification line.
func (s Styles) Notification(n notify.Notification) string {
	style := lipgloss.NewStyle().Foreground(s.kindColor(n.Kind))
	return style.Render(fmt.Sprintf("%s %s", kindIcons[n.Kind], n.Message))
}

// Confidence renders a confidence score with its band.
func (s Styles) Confidence(confidence float64) string {
	band := models.ConfidenceBand(confidence)
	color := s.Palette.Error
	switch band {
	case models.ConfidenceHigh:
		color = s.Palette.Success
	case models.ConfidenceMedium:
		color = s.Palette.Warning
	}
	return lipgloss.NewStyle().Foreground(color).Render(fmt.Sprintf("%.0f%% %s", confidence*100, band))
}
