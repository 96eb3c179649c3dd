package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rovshanmuradov/openpump/internal/events"
	"github.com/rovshanmuradov/openpump/internal/logger"
	"github.com/rovshanmuradov/openpump/internal/ui/component"
	"github.com/rovshanmuradov/openpump/internal/ui/style"
)

const (
	maxFeedRows     = 500
	refreshInterval = time.Second
	logPaneHeight   = 8
)

// Filter selects which rows the feed shows
type Filter int

const (
	FilterAll Filter = iota
	FilterTokens
	FilterTrades
)

func (f Filter) String() string {
	switch f {
	case FilterTokens:
		return "tokens"
	case FilterTrades:
		return "trades"
	default:
		return "all"
	}
}

// StatusFunc reports the live stream status; nil shows the stream as running.
type StatusFunc func() component.StreamStatus

// feedRow is one line of the feed. Token rows are updated in place when the
// enrichment for their mint arrives.
type feedRow struct {
	at       time.Time
	kind     events.EventType
	side     events.TradeSide
	mint     string
	name     string
	detail   string
	enriched bool
}

// FeedModel is the bubbletea model of the live event feed
type FeedModel struct {
	events  <-chan events.Event
	status  StatusFunc
	keys    KeyMap
	palette style.Palette

	header *component.StatusHeader
	table  *component.Table
	volume *component.Sparkline
	logs   *component.CompactLogViewer
	help   *component.HelpBar

	rows     []feedRow // newest first
	counters component.FeedCounters
	bucket   float64 // SOL traded since the last tick
	filter   Filter
	paused   bool
	showHelp bool
	closed   bool

	width  int
	height int
}

// NewFeedModel builds the feed over an event channel, usually from
// events.Bus.SubscribeChan. logs may be nil to hide the log pane.
func NewFeedModel(ch <-chan events.Event, status StatusFunc, logs *logger.LogBuffer) *FeedModel {
	keys := DefaultKeyMap()
	m := &FeedModel{
		events:  ch,
		status:  status,
		keys:    keys,
		palette: style.DefaultPalette(),
		header:  component.NewStatusHeader("OpenPump"),
		table:   component.NewTable(),
		volume:  component.NewSparkline(60),
		help:    component.NewHelpBar().SetKeyBindings(keys.ShortHelp()),
		width:   120,
		height:  40,
	}
	m.table.SetColumns([]component.TableColumn{
		{Header: "Time", Width: 10},
		{Header: "Event", Width: 10},
		{Header: "Mint", Width: 14},
		{Header: "Token", Width: 24},
		{Header: "Details"},
	})
	m.volume.SetColor(m.palette.Buy)
	if logs != nil {
		m.logs = component.NewCompactLogViewer(logs)
	}
	m.layout()
	return m
}

// Init implements tea.Model
func (m *FeedModel) Init() tea.Cmd {
	return tea.Batch(waitForEvent(m.events), tick(refreshInterval))
}

// Update implements tea.Model
func (m *FeedModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		return m, nil

	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case EventMsg:
		m.apply(msg.Event)
		return m, waitForEvent(m.events)

	case StreamClosedMsg:
		m.closed = true
		return m, nil

	case TickMsg:
		m.volume.AddDataPoint(m.bucket)
		m.bucket = 0
		if m.logs != nil {
			m.logs.Refresh()
		}
		return m, tick(refreshInterval)
	}
	return m, nil
}

func (m *FeedModel) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		if m.showHelp {
			m.help.SetKeyBindings(m.keys.FullHelp())
		} else {
			m.help.SetKeyBindings(m.keys.ShortHelp())
		}
		m.layout()
	case key.Matches(msg, m.keys.Up):
		m.table.MoveUp()
	case key.Matches(msg, m.keys.Down):
		m.table.MoveDown()
	case key.Matches(msg, m.keys.Top):
		m.table.SetSelectedRow(0)
	case key.Matches(msg, m.keys.Bottom):
		m.table.SetSelectedRow(m.table.GetRowCount() - 1)
	case key.Matches(msg, m.keys.Pause):
		m.paused = !m.paused
		if !m.paused {
			m.refreshTable()
		}
	case key.Matches(msg, m.keys.Filter):
		m.filter = (m.filter + 1) % 3
		m.refreshTable()
		m.table.SetSelectedRow(0)
	case key.Matches(msg, m.keys.Clear):
		m.rows = nil
		m.refreshTable()
	case key.Matches(msg, m.keys.ToggleLogs):
		if m.logs != nil {
			m.logs.SetVisible(!m.logs.IsVisible())
			m.layout()
		}
	case key.Matches(msg, m.keys.ToggleDebug):
		if m.logs != nil {
			m.logs.ToggleDebug()
			m.logs.Refresh()
		}
	}
	return nil
}

// apply folds one event into counters and rows. Counters keep moving while
// paused; only the table is frozen.
func (m *FeedModel) apply(ev events.Event) {
	switch e := ev.(type) {
	case *events.NewTokenEvent:
		if e.Type() == events.TokenEnriched {
			m.counters.Enriched++
			m.enrich(e)
		} else {
			m.counters.NewTokens++
			m.push(feedRow{
				at:     e.Timestamp(),
				kind:   events.NewToken,
				mint:   e.Mint,
				name:   "…",
				detail: "creator " + logger.ShortenAddress(e.Creator),
			})
		}
	case *events.TradeEvent:
		sol := float64(e.SolAmount) / 1e9
		if e.Side == events.SideBuy {
			m.counters.Buys++
			m.counters.BuyVolume += sol
		} else {
			m.counters.Sells++
			m.counters.SellVolume += sol
		}
		m.bucket += sol
		m.push(feedRow{
			at:     e.Timestamp(),
			kind:   events.Trade,
			side:   e.Side,
			mint:   e.Mint,
			name:   m.nameOf(e.Mint),
			detail: tradeDetail(e, sol),
		})
	default:
		return
	}
	if !m.paused {
		m.refreshTable()
	}
}

func (m *FeedModel) push(r feedRow) {
	m.rows = append([]feedRow{r}, m.rows...)
	if len(m.rows) > maxFeedRows {
		m.rows = m.rows[:maxFeedRows]
	}
}

// enrich updates the creation row of the mint, or adds one when the
// creation row already scrolled out.
func (m *FeedModel) enrich(e *events.NewTokenEvent) {
	name := tokenName(e)
	detail := enrichDetail(e)
	for i := range m.rows {
		if m.rows[i].kind == events.NewToken && m.rows[i].mint == e.Mint {
			m.rows[i].name = name
			m.rows[i].detail = detail
			m.rows[i].enriched = true
			return
		}
	}
	m.push(feedRow{at: e.Timestamp(), kind: events.NewToken, mint: e.Mint, name: name, detail: detail, enriched: true})
}

func (m *FeedModel) nameOf(mint string) string {
	for _, r := range m.rows {
		if r.kind == events.NewToken && r.mint == mint && r.enriched {
			return r.name
		}
	}
	return ""
}

func tokenName(e *events.NewTokenEvent) string {
	switch {
	case e.Symbol != "" && e.Name != "":
		return fmt.Sprintf("%s (%s)", e.Symbol, e.Name)
	case e.Symbol != "":
		return e.Symbol
	case e.Name != "":
		return e.Name
	default:
		return "?"
	}
}

func enrichDetail(e *events.NewTokenEvent) string {
	if e.BondingCurve == nil {
		return "metadata only"
	}
	c := e.BondingCurve
	return fmt.Sprintf("%s %.1f%% raised %.2f SOL mcap %.1f SOL", c.Category, c.Progress, c.SolRaised, c.MarketCap)
}

func tradeDetail(e *events.TradeEvent, sol float64) string {
	if e.SolAmount == 0 && e.TokenAmount == 0 {
		return "by " + logger.ShortenAddress(e.Trader)
	}
	return fmt.Sprintf("%.4f SOL for %.0f tokens by %s", sol, float64(e.TokenAmount)/1e6, logger.ShortenAddress(e.Trader))
}

func (m *FeedModel) visibleRows() []feedRow {
	if m.filter == FilterAll {
		return m.rows
	}
	out := make([]feedRow, 0, len(m.rows))
	for _, r := range m.rows {
		if (m.filter == FilterTokens) == (r.kind == events.NewToken) {
			out = append(out, r)
		}
	}
	return out
}

func (m *FeedModel) refreshTable() {
	rows := m.visibleRows()
	data := make([][]string, len(rows))
	styles := make([]lipgloss.Style, len(rows))
	for i, r := range rows {
		label, color := m.label(r)
		data[i] = []string{
			r.at.Local().Format("15:04:05"),
			label,
			logger.ShortenAddress(r.mint),
			r.name,
			r.detail,
		}
		styles[i] = lipgloss.NewStyle().Foreground(color)
	}
	m.table.SetRows(data, styles)
}

func (m *FeedModel) label(r feedRow) (string, lipgloss.Color) {
	switch {
	case r.kind == events.Trade && r.side == events.SideBuy:
		return "BUY", m.palette.Buy
	case r.kind == events.Trade:
		return "SELL", m.palette.Sell
	case r.enriched:
		return "TOKEN", m.palette.Enriched
	default:
		return "NEW", m.palette.NewToken
	}
}

// layout distributes the height: header, sparkline, table, logs, help.
func (m *FeedModel) layout() {
	m.header.SetWidth(m.width)
	m.help.SetWidth(m.width)
	m.volume.SetWidth(max(m.width-24, 10))

	logsHeight := 0
	if m.logs != nil && m.logs.IsVisible() {
		logsHeight = logPaneHeight
		m.logs.SetSize(m.width, logsHeight)
	}

	used := lipgloss.Height(m.header.View()) + 1 + 2 + logsHeight + lipgloss.Height(m.help.View())
	m.table.SetSize(m.width, max(m.height-used, 3))
}

// View implements tea.Model
func (m *FeedModel) View() string {
	m.header.SetStream(m.streamStatus())
	m.header.SetCounters(m.counters)
	m.header.SetPaused(m.paused)
	m.header.SetFilter(m.filter.String())

	volumeLabel := lipgloss.NewStyle().Foreground(m.palette.TextMuted).
		Render(fmt.Sprintf("SOL/s (max %.2f) ", m.volume.Max()))

	sections := []string{
		m.header.View(),
		volumeLabel + m.volume.View(),
		m.table.View(),
	}
	if m.logs != nil && m.logs.IsVisible() {
		sections = append(sections, m.logs.View())
	}
	sections = append(sections, m.help.View())
	return strings.Join(sections, "\n")
}

func (m *FeedModel) streamStatus() component.StreamStatus {
	if m.closed {
		return component.StreamStatus{}
	}
	if m.status == nil {
		var id uint64
		return component.StreamStatus{Running: true, SubscriptionID: &id}
	}
	return m.status()
}
