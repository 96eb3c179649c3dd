// internal/token/service.go
package token

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rovshanmuradov/openpump/internal/cache"
	"github.com/rovshanmuradov/openpump/internal/dex/pumpfun"
	"github.com/rovshanmuradov/openpump/internal/discovery"
	"github.com/rovshanmuradov/openpump/internal/metadata"
	"github.com/rovshanmuradov/openpump/internal/pricing"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrNotFound is returned when no source knows anything about a token.
var ErrNotFound = errors.New("token not found")

const (
	DefaultViewTTL   = 30 * time.Second
	DefaultListLimit = 50
	MaxListLimit     = 100
)

// Curves is the bonding curve surface the service exposes.
type Curves interface {
	GetBondingCurve(ctx context.Context, mint string) (*pumpfun.Valuation, error)
	SimulateBuy(ctx context.Context, mint string, sol float64) (*pumpfun.BuyQuote, error)
	SimulateSell(ctx context.Context, mint string, tokens float64) (*pumpfun.SellQuote, error)
}

// Metadata resolves token metadata.
type Metadata interface {
	GetTokenMetadata(ctx context.Context, mint string) (*metadata.TokenMetadata, error)
	GetTokenMetadataBatch(ctx context.Context, mints []string) map[string]*metadata.TokenMetadata
}

// Prices resolves USD prices.
type Prices interface {
	GetTokenPrice(ctx context.Context, mint string) (*pricing.TokenPrice, error)
}

// Discoverer lists recently created tokens.
type Discoverer interface {
	DiscoverRecentTokens(ctx context.Context, limit int) []discovery.DiscoveredToken
}

// Service is the read API over curves, metadata, prices and discovery.
type Service struct {
	curves    Curves
	meta      Metadata
	prices    Prices
	discovery Discoverer
	cache     cache.Cache
	ttl       time.Duration
	logger    *zap.Logger
}

// NewService wires a token service. c may be nil.
func NewService(curves Curves, meta Metadata, prices Prices, disc Discoverer, c cache.Cache, logger *zap.Logger) *Service {
	return &Service{
		curves:    curves,
		meta:      meta,
		prices:    prices,
		discovery: disc,
		cache:     c,
		ttl:       DefaultViewTTL,
		logger:    logger.Named("token"),
	}
}

// GetToken fetches metadata, curve and price in parallel and merges them.
// Any single source may be missing; all three missing is ErrNotFound.
func (s *Service) GetToken(ctx context.Context, mint string) (*View, error) {
	if _, err := pumpfun.ParseMint(mint); err != nil {
		return nil, err
	}

	key := cache.PrefixComplete + mint
	var cached View
	if cache.GetJSON(ctx, s.cache, key, &cached) {
		return &cached, nil
	}

	var (
		md    *metadata.TokenMetadata
		curve *pumpfun.Valuation
		price *pricing.TokenPrice
		g     errgroup.Group
	)
	g.Go(func() error {
		v, err := s.meta.GetTokenMetadata(ctx, mint)
		if err != nil {
			s.logger.Debug("Metadata unavailable", zap.String("mint", mint), zap.Error(err))
			return nil
		}
		md = v
		return nil
	})
	g.Go(func() error {
		v, err := s.curves.GetBondingCurve(ctx, mint)
		if err != nil {
			s.logger.Debug("Bonding curve unavailable", zap.String("mint", mint), zap.Error(err))
			return nil
		}
		curve = v
		return nil
	})
	g.Go(func() error {
		v, err := s.prices.GetTokenPrice(ctx, mint)
		if err != nil {
			s.logger.Debug("Price unavailable", zap.String("mint", mint), zap.Error(err))
			return nil
		}
		price = v
		return nil
	})
	_ = g.Wait()

	if md == nil && curve == nil && price == nil {
		return nil, fmt.Errorf("%s: %w", mint, ErrNotFound)
	}

	view := &View{
		Mint:        mint,
		Metadata:    md,
		Bonding:     curve,
		Price:       price,
		Category:    pumpfun.CategoryUnknown,
		LastUpdated: time.Now().UTC(),
	}
	switch {
	case curve != nil:
		view.Category = curve.Category
	case price != nil && price.Source == pricing.SourceGeckoTerminal:
		// market price without a curve means the token left the curve
		view.Category = pumpfun.CategoryGraduated
	}
	if view.Metadata == nil {
		view.Metadata = placeholderMetadata(mint)
	}

	cache.SetJSON(ctx, s.cache, key, view, s.ttl)
	return view, nil
}

func placeholderMetadata(mint string) *metadata.TokenMetadata {
	return &metadata.TokenMetadata{
		Mint:     mint,
		Name:     "Unknown",
		Symbol:   "UNKNOWN",
		Decimals: 6,
		Supply:   "1000000000",
	}
}

// GetMetadata returns metadata.ErrNotFound when the mint is unknown.
func (s *Service) GetMetadata(ctx context.Context, mint string) (*metadata.TokenMetadata, error) {
	if _, err := pumpfun.ParseMint(mint); err != nil {
		return nil, err
	}
	return s.meta.GetTokenMetadata(ctx, mint)
}

func (s *Service) GetBondingCurve(ctx context.Context, mint string) (*pumpfun.Valuation, error) {
	return s.curves.GetBondingCurve(ctx, mint)
}

func (s *Service) GetPrice(ctx context.Context, mint string) (*pricing.TokenPrice, error) {
	if _, err := pumpfun.ParseMint(mint); err != nil {
		return nil, err
	}
	return s.prices.GetTokenPrice(ctx, mint)
}

func (s *Service) SimulateBuy(ctx context.Context, mint string, sol float64) (*pumpfun.BuyQuote, error) {
	return s.curves.SimulateBuy(ctx, mint, sol)
}

func (s *Service) SimulateSell(ctx context.Context, mint string, tokens float64) (*pumpfun.SellQuote, error) {
	return s.curves.SimulateSell(ctx, mint, tokens)
}

// RecentTokens returns the raw discovery result.
func (s *Service) RecentTokens(ctx context.Context, limit int) []discovery.DiscoveredToken {
	return s.discovery.DiscoverRecentTokens(ctx, clampLimit(limit))
}

// ListTokens returns a filtered, sorted page of recently discovered tokens.
func (s *Service) ListTokens(ctx context.Context, p ListParams) []Listing {
	p.Limit = clampLimit(p.Limit)
	if p.Offset < 0 {
		p.Offset = 0
	}

	found := s.discovery.DiscoverRecentTokens(ctx, p.Limit+p.Offset)
	mints := make([]string, 0, len(found))
	for _, t := range found {
		mints = append(mints, t.Mint)
	}
	metas := s.meta.GetTokenMetadataBatch(ctx, mints)

	rows := make([]Listing, 0, len(found))
	for _, t := range found {
		row := toListing(t, metas[t.Mint])
		if p.Category != "" && p.Category != "all" && string(row.Category) != p.Category {
			continue
		}
		rows = append(rows, row)
	}

	sortListings(rows, p.Sort, p.Descending)

	if p.Offset >= len(rows) {
		return []Listing{}
	}
	end := min(len(rows), p.Offset+p.Limit)
	return rows[p.Offset:end]
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return min(limit, MaxListLimit)
}

func toListing(t discovery.DiscoveredToken, md *metadata.TokenMetadata) Listing {
	row := Listing{
		Mint:             t.Mint,
		Name:             "Unknown",
		Symbol:           "PUMP",
		Creator:          t.Creator,
		CreatedTimestamp: t.CreatedTimestamp,
		Category:         pumpfun.CategoryUnknown,
	}
	if v := t.Valuation; v != nil {
		row.PriceSOL = v.PriceSOL
		row.MarketCapSOL = v.MarketCap
		row.SolRaised = v.SolRaised
		row.SolRemaining = v.SolRemaining
		row.Category = v.Category
		row.Progress = v.Progress
		row.Complete = v.Complete
	}
	row.QualityScore = BaseQualityScore(row.Progress, row.SolRaised)

	if md == nil {
		return row
	}
	row.Name = md.Name
	row.Symbol = md.Symbol
	row.Description = md.Description
	row.ImageURI = md.Image
	row.MetadataURI = md.URI
	row.Twitter = optional(md.SocialLinks.Twitter)
	row.Telegram = optional(md.SocialLinks.Telegram)
	row.Website = optional(md.SocialLinks.Website)
	if md.Creator != "" {
		row.Creator = md.Creator
	}
	if md.QualityScore > 0 {
		row.QualityScore = md.QualityScore
	}
	return row
}

// BaseQualityScore rates a token from curve activity alone.
func BaseQualityScore(progress, solRaised float64) int {
	score := progress*0.4 + min(30, solRaised*0.3) + 20
	return min(100, int(score))
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func sortListings(rows []Listing, field string, desc bool) {
	var less func(a, b Listing) bool
	switch field {
	case SortMarketCap:
		less = func(a, b Listing) bool { return a.MarketCapSOL < b.MarketCapSOL }
	case SortCreated:
		less = func(a, b Listing) bool { return a.CreatedTimestamp < b.CreatedTimestamp }
	default:
		return
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if desc {
			return less(rows[j], rows[i])
		}
		return less(rows[i], rows[j])
	})
}
