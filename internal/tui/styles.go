package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#5B8DEF"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")).Bold(true)
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F7B801")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	hintStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	boxStyle     = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)
)

// Success renders a confirmation line, e.g. after a save.
func Success(format string, args ...any) string {
	return successStyle.Render("✅ " + fmt.Sprintf(format, args...))
}

// Info renders a neutral notice, e.g. entering edit mode.
func Info(format string, args ...any) string {
	return infoStyle.Render("📝 " + fmt.Sprintf(format, args...))
}

// Failure renders an error line.
func Failure(format string, args ...any) string {
	return errorStyle.Render("❌ " + fmt.Sprintf(format, args...))
}
