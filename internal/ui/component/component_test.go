package component

import (
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/rovshanmuradov/openpump/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableWindowFollowsSelection(t *testing.T) {
	tbl := NewTable().SetColumns([]TableColumn{
		{Header: "N", Width: 6},
		{Header: "Value"},
	})
	rows := make([][]string, 10)
	for i := range rows {
		rows[i] = []string{string(rune('a' + i)), "v"}
	}
	tbl.SetRows(rows, nil).SetSize(40, 3)

	view := tbl.View()
	lines := strings.Split(view, "\n")
	require.Len(t, lines, 5) // header + separator + 3 rows
	assert.Contains(t, lines[2], "a")
	assert.Contains(t, lines[4], "c")

	for i := 0; i < 5; i++ {
		tbl.MoveDown()
	}
	assert.Equal(t, 5, tbl.GetSelectedRow())
	lines = strings.Split(tbl.View(), "\n")
	assert.Contains(t, lines[2], "d")
	assert.Contains(t, lines[4], "f")

	tbl.SetSelectedRow(100)
	assert.Equal(t, 9, tbl.GetSelectedRow())
	assert.Equal(t, []string{"j", "v"}, tbl.GetSelectedRowData())

	// shrinking keeps the selection in range
	tbl.SetRows(rows[:2], nil)
	assert.Equal(t, 1, tbl.GetSelectedRow())
	tbl.SetRows(nil, nil)
	assert.Nil(t, tbl.GetSelectedRowData())
}

func TestRenderCellTruncates(t *testing.T) {
	out := renderCell("abcdefghijkl", 8, lipgloss.Left, lipgloss.NewStyle().Padding(0, 1))
	assert.Equal(t, 8, lipgloss.Width(out))
	assert.Contains(t, out, "abcde…")
}

func TestHelpBarWraps(t *testing.T) {
	bindings := []key.Binding{
		key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
		key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "filter")),
		key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "logs")),
		key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "disabled"), key.WithDisabled()),
	}
	h := NewHelpBar().SetKeyBindings(bindings).SetWidth(200)

	view := h.View()
	assert.Equal(t, 1, lipgloss.Height(view))
	assert.Contains(t, view, "q quit")
	assert.Contains(t, view, "f filter")
	assert.NotContains(t, view, "disabled")

	h.SetWidth(16)
	assert.Equal(t, 3, lipgloss.Height(h.View()))

	h.SetCompact(true).SetWidth(200)
	assert.NotContains(t, h.View(), "quit")

	assert.Empty(t, NewHelpBar().View())
}

func TestSparkline(t *testing.T) {
	s := NewSparkline(4)
	assert.Equal(t, "    ", s.blocks())

	s.AddDataPoint(0).AddDataPoint(7).AddDataPoint(3.5)
	assert.Equal(t, "▁█▄ ", s.blocks())
	assert.Equal(t, 7.0, s.Max())

	s.AddDataPoint(1).AddDataPoint(2)
	assert.Equal(t, []float64{7, 3.5, 1, 2}, s.Data())

	s.SetWidth(2)
	assert.Equal(t, []float64{1, 2}, s.Data())

	s.Clear()
	assert.Zero(t, s.Max())
}

func TestStatusHeader(t *testing.T) {
	h := NewStatusHeader("OpenPump")
	h.SetWidth(200)
	assert.Contains(t, h.View(), "stream stopped")

	id := uint64(3)
	h.SetStream(StreamStatus{Running: true})
	assert.Contains(t, h.View(), "reconnecting")

	h.SetStream(StreamStatus{Running: true, SubscriptionID: &id, Processed: 9})
	h.SetCounters(FeedCounters{NewTokens: 2, Buys: 1, BuyVolume: 0.25})
	h.SetPaused(true)
	view := h.View()
	assert.Contains(t, view, "live #3 (9 seen)")
	assert.Contains(t, view, "tokens 2 (+0 enriched)")
	assert.Contains(t, view, "buys 1 / 0.25 SOL")
	assert.Contains(t, view, "PAUSED")
	assert.Equal(t, 3, h.GetHeight())
}

func TestCompactLogViewer(t *testing.T) {
	buf, err := logger.NewLogBuffer(10, "", nil)
	require.NoError(t, err)
	require.NoError(t, buf.Add("DEBUG", "noisy detail", nil))
	require.NoError(t, buf.Add("ERROR", "Fetch failed", map[string]interface{}{
		"mint":  "6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P",
		"error": "timeout",
	}))

	v := NewCompactLogViewer(buf)
	v.SetSize(100, 8)
	v.Refresh()

	view := v.View()
	assert.Contains(t, view, "Fetch failed 6EF8...wF6P timeout")
	assert.NotContains(t, view, "noisy detail")

	v.ToggleDebug()
	v.Refresh()
	assert.Contains(t, v.View(), "noisy detail")

	v.SetVisible(false)
	assert.Empty(t, v.View())
	assert.Zero(t, v.GetHeight())
}
