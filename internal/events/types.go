// internal/events/types.go
package events

import (
	"time"
)

// EventType represents the type of event.
type EventType string

const (
	// NewToken is the fast creation event, published before any enrichment.
	NewToken EventType = "new_token"
	// TokenEnriched follows NewToken for the same mint once curve or metadata resolved.
	TokenEnriched EventType = "token_enriched"
	// Trade is a buy or sell on a bonding curve.
	Trade EventType = "trade"
)

// Event is the base interface for all events.
type Event interface {
	Type() EventType
	Timestamp() time.Time
}

// BaseEvent provides common fields for all events.
type BaseEvent struct {
	EventType EventType `json:"type"`
	EventTime time.Time `json:"timestamp"`
}

// Type returns the event type.
func (e BaseEvent) Type() EventType {
	return e.EventType
}

// Timestamp returns when the event occurred.
func (e BaseEvent) Timestamp() time.Time {
	return e.EventTime
}

// CurveSnapshot is the bonding curve view attached to an enriched event.
type CurveSnapshot struct {
	Progress     float64 `json:"progress"`
	SolRaised    float64 `json:"sol_raised"`
	CurrentPrice float64 `json:"current_price"`
	MarketCap    float64 `json:"market_cap"`
	Category     string  `json:"category"`
	Complete     bool    `json:"complete"`
}

// NewTokenEvent is emitted once per detected mint as NewToken and
// at most once more as TokenEnriched. Mint is the correlation key.
type NewTokenEvent struct {
	BaseEvent
	Mint      string `json:"mint"`
	Signature string `json:"signature"`
	Creator   string `json:"creator,omitempty"`

	Name        string `json:"name,omitempty"`
	Symbol      string `json:"symbol,omitempty"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`

	BondingCurve *CurveSnapshot `json:"bonding_curve,omitempty"`
}

// TradeSide is buy or sell.
type TradeSide string

const (
	SideBuy  TradeSide = "buy"
	SideSell TradeSide = "sell"
)

// TradeEvent is emitted for a buy or sell on a bonding curve.
// Amounts are zero when the trade log could not be decoded.
type TradeEvent struct {
	BaseEvent
	Side        TradeSide `json:"side"`
	Mint        string    `json:"mint"`
	Signature   string    `json:"signature"`
	Trader      string    `json:"trader,omitempty"`
	SolAmount   uint64    `json:"sol_amount"`
	TokenAmount uint64    `json:"token_amount"`
}
