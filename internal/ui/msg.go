package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rovshanmuradov/openpump/internal/events"
)

// EventMsg wraps a bus event for the UI
type EventMsg struct {
	Event events.Event
}

// StreamClosedMsg is sent once the event channel is closed
type StreamClosedMsg struct{}

// TickMsg drives the per-second refresh of status, sparkline and logs
type TickMsg time.Time

// waitForEvent reads one event from ch. The model re-issues it after every
// EventMsg, so exactly one read is pending at a time.
func waitForEvent(ch <-chan events.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return StreamClosedMsg{}
		}
		return EventMsg{Event: ev}
	}
}

func tick(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
