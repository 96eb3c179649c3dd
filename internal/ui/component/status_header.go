package component

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/rovshanmuradov/openpump/internal/ui/style"
)

// StreamStatus is what the header shows about the live subscription
type StreamStatus struct {
	Running        bool
	SubscriptionID *uint64
	Processed      int
}

// FeedCounters are the running event totals shown in the header
type FeedCounters struct {
	NewTokens  int
	Enriched   int
	Buys       int
	Sells      int
	BuyVolume  float64
	SellVolume float64
}

// StatusHeader provides a one-line header with stream status and totals
type StatusHeader struct {
	title    string
	stream   StreamStatus
	counters FeedCounters
	paused   bool
	filter   string
	style    StatusHeaderStyle
	width    int
}

// StatusHeaderStyle contains all styling for the status header
type StatusHeaderStyle struct {
	container lipgloss.Style
	title     lipgloss.Style
	label     lipgloss.Style
	good      lipgloss.Style
	bad       lipgloss.Style
	warn      lipgloss.Style
	buy       lipgloss.Style
	sell      lipgloss.Style
}

// NewStatusHeader creates a new status header component
func NewStatusHeader(title string) *StatusHeader {
	palette := style.DefaultPalette()

	return &StatusHeader{
		title: title,
		style: StatusHeaderStyle{
			container: lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(palette.Primary).
				Padding(0, 1),

			title: lipgloss.NewStyle().
				Foreground(palette.Primary).
				Bold(true),

			label: lipgloss.NewStyle().
				Foreground(palette.TextSecondary),

			good: lipgloss.NewStyle().
				Foreground(palette.Success).
				Bold(true),

			bad: lipgloss.NewStyle().
				Foreground(palette.Error).
				Bold(true),

			warn: lipgloss.NewStyle().
				Foreground(palette.Warning).
				Bold(true),

			buy: lipgloss.NewStyle().
				Foreground(palette.Buy),

			sell: lipgloss.NewStyle().
				Foreground(palette.Sell),
		},
	}
}

// SetStream updates the stream status
func (sh *StatusHeader) SetStream(status StreamStatus) {
	sh.stream = status
}

// SetCounters updates the event totals
func (sh *StatusHeader) SetCounters(c FeedCounters) {
	sh.counters = c
}

// SetPaused marks the feed as paused
func (sh *StatusHeader) SetPaused(paused bool) {
	sh.paused = paused
}

// SetFilter sets the active filter label
func (sh *StatusHeader) SetFilter(filter string) {
	sh.filter = filter
}

// SetWidth sets the component width for responsive layout
func (sh *StatusHeader) SetWidth(width int) {
	sh.width = width
}

// View renders the status header
func (sh *StatusHeader) View() string {
	c := sh.counters
	parts := []string{
		sh.style.title.Render(sh.title),
		sh.renderStream(),
		sh.style.label.Render(fmt.Sprintf("tokens %d (+%d enriched)", c.NewTokens, c.Enriched)),
		sh.style.buy.Render(fmt.Sprintf("buys %d / %.2f SOL", c.Buys, c.BuyVolume)),
		sh.style.sell.Render(fmt.Sprintf("sells %d / %.2f SOL", c.Sells, c.SellVolume)),
	}
	if sh.filter != "" {
		parts = append(parts, sh.style.label.Render("filter: "+sh.filter))
	}
	if sh.paused {
		parts = append(parts, sh.style.warn.Render("PAUSED"))
	}

	content := ""
	for i, p := range parts {
		if i > 0 {
			content += " | "
		}
		content += p
	}

	container := sh.style.container
	if sh.width > 2 {
		container = container.Width(sh.width - 2)
	}
	return container.Render(content)
}

func (sh *StatusHeader) renderStream() string {
	if !sh.stream.Running {
		return sh.style.bad.Render("● stream stopped")
	}
	if sh.stream.SubscriptionID == nil {
		return sh.style.warn.Render("● reconnecting")
	}
	return sh.style.good.Render(fmt.Sprintf("● live #%d (%d seen)", *sh.stream.SubscriptionID, sh.stream.Processed))
}

// GetHeight returns the component height for layout calculations
func (sh *StatusHeader) GetHeight() int {
	return lipgloss.Height(sh.View())
}
