package tui

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mfenderov/smart-organizer/internal/app"
	"github.com/mfenderov/smart-organizer/internal/navigator"
	"github.com/mfenderov/smart-organizer/internal/notify"
	"github.com/mfenderov/smart-organizer/internal/quotes"
)

// LogFileName is the log file the TUI writes to inside the data directory.
const LogFileName = "smart-organizer.log"

// LogToFile sends slog output to dir/smart-organizer.log so it does not
// corrupt the screen. The caller closes the returned file.
func LogToFile(dir string, level slog.Level) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, LogFileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level})))
	return f, nil
}

// Run starts the TUI and blocks until the user quits or ctx is cancelled.
func Run(ctx context.Context, a *app.App) error {
	disp := app.NewDispatcher(ctx, a, 16)
	defer disp.Close()

	rotator := quotes.NewRotator(quotes.All, quotes.DefaultInterval)
	defer rotator.Stop()

	var program *tea.Program
	// Send blocks until the event loop reads, and callbacks can fire from
	// inside Update, so never send inline.
	send := func(msg tea.Msg) {
		go program.Send(msg)
	}

	model := NewModel(a, disp, rotator, send)
	program = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	a.Notes.OnChange(func([]notify.Notification) { send(notesMsg{}) })
	a.Nav.OnChange(func(from, to navigator.Page) { send(pageMsg{}) })
	defer a.Notes.OnChange(nil)

	slog.Info("tui started", "page", a.Nav.Page())
	if _, err := program.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("tui failed: %w", err)
	}
	return nil
}
