package component

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"
	"github.com/rovshanmuradov/openpump/internal/logger"
	"github.com/rovshanmuradov/openpump/internal/ui/style"
)

const logTail = 50

// CompactLogViewer shows the tail of a LogBuffer in a bordered viewport
type CompactLogViewer struct {
	buffer    *logger.LogBuffer
	viewport  viewport.Model
	style     CompactLogStyle
	showDebug bool
	visible   bool
	width     int
	height    int
	title     string
}

// CompactLogStyle contains all styling for the log viewer
type CompactLogStyle struct {
	container lipgloss.Style
	title     lipgloss.Style
	timestamp lipgloss.Style
	name      lipgloss.Style
	error     lipgloss.Style
	warning   lipgloss.Style
	info      lipgloss.Style
	debug     lipgloss.Style
}

// NewCompactLogViewer creates a new compact log viewer
func NewCompactLogViewer(logBuffer *logger.LogBuffer) *CompactLogViewer {
	palette := style.DefaultPalette()

	return &CompactLogViewer{
		buffer:  logBuffer,
		visible: true,
		title:   "Logs",
		style: CompactLogStyle{
			container: lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(palette.Info).
				Padding(0, 1),

			title: lipgloss.NewStyle().
				Foreground(palette.Info).
				Bold(true),

			timestamp: lipgloss.NewStyle().
				Foreground(palette.TextMuted),

			name: lipgloss.NewStyle().
				Foreground(palette.TextSecondary),

			error: lipgloss.NewStyle().
				Foreground(palette.Error).
				Bold(true),

			warning: lipgloss.NewStyle().
				Foreground(palette.Warning).
				Bold(true),

			info: lipgloss.NewStyle().
				Foreground(palette.Text),

			debug: lipgloss.NewStyle().
				Foreground(palette.TextMuted),
		},
		viewport: viewport.New(50, 4),
	}
}

// SetSize sets the outer dimensions including border and title
func (clv *CompactLogViewer) SetSize(width, height int) {
	clv.width = width
	clv.height = height

	clv.viewport.Width = max(width-4, 10)  // border + padding
	clv.viewport.Height = max(height-3, 1) // border + title
}

// SetVisible toggles the visibility of the log viewer
func (clv *CompactLogViewer) SetVisible(visible bool) {
	clv.visible = visible
}

// IsVisible returns whether the log viewer is visible
func (clv *CompactLogViewer) IsVisible() bool {
	return clv.visible
}

// ToggleDebug shows or hides DEBUG entries
func (clv *CompactLogViewer) ToggleDebug() {
	clv.showDebug = !clv.showDebug
}

// Refresh reloads the tail of the buffer and scrolls to the newest entry
func (clv *CompactLogViewer) Refresh() {
	if clv.buffer == nil {
		clv.viewport.SetContent("No log buffer available")
		return
	}

	var lines []string
	for _, entry := range clv.buffer.GetRecentLogs(logTail) {
		if !clv.showDebug && strings.EqualFold(entry.Level, "debug") {
			continue
		}
		lines = append(lines, clv.formatLogEntry(entry))
	}
	if len(lines) == 0 {
		clv.viewport.SetContent("No logs yet")
		return
	}
	clv.viewport.SetContent(strings.Join(lines, "\n"))
	clv.viewport.GotoBottom()
}

// View renders the compact log viewer
func (clv *CompactLogViewer) View() string {
	if !clv.visible {
		return ""
	}

	title := clv.title
	if clv.showDebug {
		title += " (debug)"
	}
	content := lipgloss.JoinVertical(
		lipgloss.Left,
		clv.style.title.Render(title),
		clv.viewport.View(),
	)
	return clv.style.container.Width(max(clv.width-2, 10)).Render(content)
}

// formatLogEntry formats a log entry for display
func (clv *CompactLogViewer) formatLogEntry(entry logger.LogEntry) string {
	ts := clv.style.timestamp.Render(entry.Timestamp.Format("15:04:05"))

	var msg string
	switch strings.ToLower(entry.Level) {
	case "error", "dpanic", "panic", "fatal":
		msg = clv.style.error.Render(entry.Message)
	case "warn", "warning":
		msg = clv.style.warning.Render(entry.Message)
	case "debug":
		msg = clv.style.debug.Render(entry.Message)
	default:
		msg = clv.style.info.Render(entry.Message)
	}

	if mint, ok := entry.Fields["mint"].(string); ok {
		msg += " " + clv.style.name.Render(logger.ShortenAddress(mint))
	}
	if errText, ok := entry.Fields["error"].(string); ok {
		msg += " " + clv.style.error.Render(errText)
	}
	if entry.Logger != "" {
		return fmt.Sprintf("%s %s %s", ts, clv.style.name.Render(entry.Logger), msg)
	}
	return fmt.Sprintf("%s %s", ts, msg)
}

// GetHeight returns the component height for layout calculations
func (clv *CompactLogViewer) GetHeight() int {
	if !clv.visible {
		return 0
	}
	return clv.height
}
