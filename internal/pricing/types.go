// internal/pricing/types.go
package pricing

import "time"

// Source names where a price came from.
type Source string

const (
	SourceBondingCurve  Source = "bonding-curve"
	SourceGeckoTerminal Source = "geckoterminal"
)

// TokenPrice is the USD view of a token.
type TokenPrice struct {
	Mint           string    `json:"mint"`
	PriceUSD       float64   `json:"price_usd"`
	PriceSOL       float64   `json:"price_sol"`
	MarketCapUSD   float64   `json:"market_cap_usd"`
	LiquidityUSD   float64   `json:"liquidity_usd"`
	Volume24h      *float64  `json:"volume_24h,omitempty"`
	PriceChange24h *float64  `json:"price_change_24h,omitempty"`
	Source         Source    `json:"source"`
	Timestamp      time.Time `json:"timestamp"`
}
