// internal/token/types.go
package token

import (
	"time"

	"github.com/rovshanmuradov/openpump/internal/dex/pumpfun"
	"github.com/rovshanmuradov/openpump/internal/metadata"
	"github.com/rovshanmuradov/openpump/internal/pricing"
)

// View is everything known about one token.
type View struct {
	Mint        string                  `json:"mint"`
	Metadata    *metadata.TokenMetadata `json:"metadata"`
	Bonding     *pumpfun.Valuation      `json:"bonding,omitempty"`
	Price       *pricing.TokenPrice     `json:"price,omitempty"`
	Category    pumpfun.Category        `json:"category"`
	LastUpdated time.Time               `json:"last_updated"`
}

// Listing is one row of the token list.
type Listing struct {
	Mint             string           `json:"mint"`
	Name             string           `json:"name"`
	Symbol           string           `json:"symbol"`
	Description      string           `json:"description"`
	ImageURI         string           `json:"image_uri"`
	MetadataURI      string           `json:"metadata_uri"`
	Twitter          *string          `json:"twitter"`
	Telegram         *string          `json:"telegram"`
	Website          *string          `json:"website"`
	Creator          string           `json:"creator"`
	CreatedTimestamp int64            `json:"created_timestamp"`
	PriceSOL         float64          `json:"price_sol"`
	MarketCapSOL     float64          `json:"market_cap_sol"`
	SolRaised        float64          `json:"sol_raised"`
	SolRemaining     float64          `json:"sol_remaining"`
	QualityScore     int              `json:"quality_score"`
	Category         pumpfun.Category `json:"category"`
	Progress         float64          `json:"progress"`
	Complete         bool             `json:"complete"`
}

// Sort fields accepted by ListTokens.
const (
	SortCreated   = "created_timestamp"
	SortMarketCap = "market_cap"
)

// ListParams selects a page of the token list.
type ListParams struct {
	Limit  int
	Offset int
	// Sort is SortCreated or SortMarketCap; anything else keeps discovery order.
	Sort string
	// Descending orders by the sort field high to low.
	Descending bool
	// Category filters by lifecycle bucket; empty or "all" keeps everything.
	Category string
}
