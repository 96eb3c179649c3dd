package ui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rovshanmuradov/openpump/internal/events"
	"github.com/rovshanmuradov/openpump/internal/logger"
	"github.com/rovshanmuradov/openpump/internal/ui/component"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	mintA = "6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P"
	mintB = "So11111111111111111111111111111111111111112"
)

var now = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func created(mint string) *events.NewTokenEvent {
	return &events.NewTokenEvent{
		BaseEvent: events.BaseEvent{EventType: events.NewToken, EventTime: now},
		Mint:      mint,
		Creator:   mintB,
	}
}

func enrichedEv(mint string) *events.NewTokenEvent {
	ev := created(mint)
	ev.EventType = events.TokenEnriched
	ev.Name, ev.Symbol = "Cat Coin", "CAT"
	ev.BondingCurve = &events.CurveSnapshot{Progress: 12.3, SolRaised: 4.5, MarketCap: 31, Category: "new"}
	return ev
}

func tradeEv(mint string, side events.TradeSide, lamports uint64) *events.TradeEvent {
	return &events.TradeEvent{
		BaseEvent:   events.BaseEvent{EventType: events.Trade, EventTime: now},
		Side:        side,
		Mint:        mint,
		Trader:      mintB,
		SolAmount:   lamports,
		TokenAmount: 2_000_000,
	}
}

func send(m *FeedModel, msgs ...tea.Msg) {
	for _, msg := range msgs {
		m.Update(msg)
	}
}

func TestFeedModelAppliesEvents(t *testing.T) {
	m := NewFeedModel(make(chan events.Event), nil, nil)

	send(m,
		EventMsg{Event: created(mintA)},
		EventMsg{Event: tradeEv(mintA, events.SideBuy, 1_500_000_000)},
		EventMsg{Event: enrichedEv(mintA)},
		EventMsg{Event: tradeEv(mintA, events.SideSell, 500_000_000)},
	)

	assert.Equal(t, component.FeedCounters{
		NewTokens: 1, Enriched: 1, Buys: 1, Sells: 1, BuyVolume: 1.5, SellVolume: 0.5,
	}, m.counters)

	// enrichment updates the creation row in place
	require.Len(t, m.rows, 3)
	assert.Equal(t, events.Trade, m.rows[0].kind)
	assert.Equal(t, "CAT (Cat Coin)", m.rows[0].name)
	assert.Equal(t, events.NewToken, m.rows[2].kind)
	assert.True(t, m.rows[2].enriched)
	assert.Equal(t, "new 12.3% raised 4.50 SOL mcap 31.0 SOL", m.rows[2].detail)

	assert.Equal(t, 3, m.table.GetRowCount())
	assert.Equal(t, "SELL", m.table.GetSelectedRowData()[1])
	assert.InDelta(t, 2.0, m.bucket, 1e-9)
}

func TestFeedModelEnrichmentWithoutCreationRow(t *testing.T) {
	m := NewFeedModel(make(chan events.Event), nil, nil)
	send(m, EventMsg{Event: enrichedEv(mintB)})

	require.Len(t, m.rows, 1)
	assert.True(t, m.rows[0].enriched)
	assert.Equal(t, "TOKEN", m.table.GetSelectedRowData()[1])
}

func TestFeedModelFilterPauseClear(t *testing.T) {
	m := NewFeedModel(make(chan events.Event), nil, nil)
	send(m,
		EventMsg{Event: created(mintA)},
		EventMsg{Event: tradeEv(mintA, events.SideBuy, 1)},
		EventMsg{Event: tradeEv(mintA, events.SideBuy, 1)},
	)
	require.Equal(t, 3, m.table.GetRowCount())

	send(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("f")})
	assert.Equal(t, FilterTokens, m.filter)
	assert.Equal(t, 1, m.table.GetRowCount())

	send(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("f")})
	assert.Equal(t, FilterTrades, m.filter)
	assert.Equal(t, 2, m.table.GetRowCount())

	send(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("f")})
	assert.Equal(t, FilterAll, m.filter)

	send(m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")})
	require.True(t, m.paused)
	send(m, EventMsg{Event: tradeEv(mintA, events.SideSell, 1)})
	assert.Equal(t, 3, m.table.GetRowCount(), "table frozen while paused")
	assert.Equal(t, 1, m.counters.Sells)

	send(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("p")})
	assert.False(t, m.paused)
	assert.Equal(t, 4, m.table.GetRowCount())

	send(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("c")})
	assert.Zero(t, m.table.GetRowCount())
	assert.Equal(t, 1, m.counters.NewTokens)
}

func TestFeedModelRowCap(t *testing.T) {
	m := NewFeedModel(make(chan events.Event), nil, nil)
	for i := 0; i < maxFeedRows+10; i++ {
		m.apply(tradeEv(mintA, events.SideBuy, 1))
	}
	assert.Len(t, m.rows, maxFeedRows)
}

func TestFeedModelTickAndQuit(t *testing.T) {
	m := NewFeedModel(make(chan events.Event), nil, nil)
	send(m, EventMsg{Event: tradeEv(mintA, events.SideBuy, 3_000_000_000)})

	_, cmd := m.Update(TickMsg(now))
	assert.NotNil(t, cmd)
	assert.Zero(t, m.bucket)
	assert.Equal(t, []float64{3}, m.volume.Data())

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestFeedModelStreamClosed(t *testing.T) {
	ch := make(chan events.Event, 1)
	m := NewFeedModel(ch, nil, nil)

	ch <- created(mintA)
	msg := waitForEvent(ch)()
	assert.IsType(t, EventMsg{}, msg)

	close(ch)
	msg = waitForEvent(ch)()
	assert.Equal(t, StreamClosedMsg{}, msg)

	send(m, msg)
	assert.True(t, m.closed)
	assert.False(t, m.streamStatus().Running)
	assert.Contains(t, m.View(), "stream stopped")
}

func TestFeedModelViewWithLogs(t *testing.T) {
	buf, err := logger.NewLogBuffer(20, "", nil)
	require.NoError(t, err)
	log := zap.New(logger.NewBufferCore(buf, zapcore.InfoLevel))
	log.Warn("Log subscription lost")

	var id uint64 = 7
	status := func() component.StreamStatus {
		return component.StreamStatus{Running: true, SubscriptionID: &id, Processed: 12}
	}
	m := NewFeedModel(make(chan events.Event), status, buf)
	send(m,
		tea.WindowSizeMsg{Width: 140, Height: 40},
		EventMsg{Event: created(mintA)},
		TickMsg(now),
	)

	view := m.View()
	assert.Contains(t, view, "OpenPump")
	assert.Contains(t, view, "live #7 (12 seen)")
	assert.Contains(t, view, "6EF8...wF6P")
	assert.Contains(t, view, "Log subscription lost")

	send(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("l")})
	assert.NotContains(t, m.View(), "Log subscription lost")
}
