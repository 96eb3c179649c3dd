// =============================
// File: internal/dex/pumpfun/types.go
// =============================
package pumpfun

import (
	"time"

	"github.com/gagliardetto/solana-go"
)

// Category is the lifecycle bucket of a token derived from its curve progress.
type Category string

const (
	CategoryGraduated    Category = "graduated"
	CategoryFinalStretch Category = "final_stretch"
	CategoryRising       Category = "rising"
	CategoryNew          Category = "new"
	CategoryUnknown      Category = "unknown"
)

// CurveState is the decoded on-chain state of a bonding curve.
// All reserves are raw base units. Complete is terminal.
type CurveState struct {
	Mint         solana.PublicKey `json:"mint"`
	BondingCurve solana.PublicKey `json:"bonding_curve"`

	VirtualTokenReserves uint64 `json:"virtual_token_reserves"`
	VirtualSolReserves   uint64 `json:"virtual_sol_reserves"`
	RealTokenReserves    uint64 `json:"real_token_reserves"`
	RealSolReserves      uint64 `json:"real_sol_reserves"`
	TokenTotalSupply     uint64 `json:"token_total_supply"`
	Complete             bool   `json:"complete"`
}

// Valuation is the display view computed from a CurveState.
type Valuation struct {
	Mint         string `json:"mint"`
	BondingCurve string `json:"bonding_curve"`

	Progress     float64 `json:"progress"`
	SolRaised    float64 `json:"sol_raised"`
	SolRemaining float64 `json:"sol_remaining"`

	// Reserves in SOL / whole tokens
	VirtualSolReserves   float64 `json:"virtual_sol_reserves"`
	VirtualTokenReserves float64 `json:"virtual_token_reserves"`
	RealSolReserves      float64 `json:"real_sol_reserves"`
	RealTokenReserves    float64 `json:"real_token_reserves"`

	// CurrentPrice is the raw reserve ratio (lamports per base unit).
	CurrentPrice float64 `json:"current_price"`
	// PriceSOL is the price of one whole token in SOL.
	PriceSOL  float64 `json:"price_sol"`
	MarketCap float64 `json:"market_cap"`

	Category  Category  `json:"category"`
	Complete  bool      `json:"complete"`
	CreatedAt time.Time `json:"created_at"`
}

// BuyQuote is the result of simulating a buy against a curve.
type BuyQuote struct {
	SolIn          uint64  `json:"sol_in"`
	TokensOut      uint64  `json:"tokens_out"`
	TokensOutUI    float64 `json:"tokens_out_ui"`
	NewSolReserves uint64  `json:"new_sol_reserves"`
	NewTokReserves uint64  `json:"new_token_reserves"`
	NewPrice       float64 `json:"new_price"`
	PriceImpact    float64 `json:"price_impact"`
}

// SellQuote is the result of simulating a sell against a curve.
type SellQuote struct {
	TokensIn       uint64  `json:"tokens_in"`
	SolOut         uint64  `json:"sol_out"`
	SolOutUI       float64 `json:"sol_out_ui"`
	NewSolReserves uint64  `json:"new_sol_reserves"`
	NewTokReserves uint64  `json:"new_token_reserves"`
	NewPrice       float64 `json:"new_price"`
	PriceImpact    float64 `json:"price_impact"`
}

// bondingCurveLayout is the positional Borsh layout of the account body
// following the 8-byte discriminator. Trailing fields are ignored.
type bondingCurveLayout struct {
	VirtualTokenReserves uint64
	VirtualSolReserves   uint64
	RealTokenReserves    uint64
	RealSolReserves      uint64
	TokenTotalSupply     uint64
	Complete             bool
}
