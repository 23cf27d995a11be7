package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mfenderov/smart-organizer/internal/notify"
	"github.com/mfenderov/smart-organizer/internal/tui"
	"github.com/spf13/cobra"
)

func printNotifications(w io.Writer, styles tui.Styles, list []notify.Notification) {
	for _, n := range list {
		fmt.Fprintln(w, styles.Notification(n))
	}
}

func renderTable(styles tui.Styles, headers []string, rows [][]string) string {
	header := lipgloss.NewStyle().Bold(true).Foreground(styles.Palette.Primary).Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(styles.Palette.Border)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		}).
		String()
}

// prompt prints label and reads one line from the command's input.
func prompt(cmd *cobra.Command, label string) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), label)
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
