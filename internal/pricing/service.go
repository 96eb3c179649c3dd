// internal/pricing/service.go
package pricing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rovshanmuradov/openpump/internal/cache"
	"github.com/rovshanmuradov/openpump/internal/dex/pumpfun"
	"go.uber.org/zap"
)

const (
	DefaultPriceTTL    = 10 * time.Second
	DefaultSOLPriceTTL = 60 * time.Second
	// DefaultSOLPriceFallback is used when no SOL/USD quote can be fetched.
	DefaultSOLPriceFallback = 100.0
)

// ErrPriceUnavailable is returned when neither source can price a token.
var ErrPriceUnavailable = errors.New("price unavailable")

// CurveSource values a mint from its bonding curve.
type CurveSource interface {
	GetBondingCurve(ctx context.Context, mint string) (*pumpfun.Valuation, error)
}

// MarketSource quotes graduated tokens and SOL itself.
type MarketSource interface {
	GetPoolPrice(ctx context.Context, mint string) (*TokenPrice, error)
	GetSOLPrice(ctx context.Context) (float64, error)
}

// Config tunes the pricing service.
type Config struct {
	PriceTTL    time.Duration
	SOLPriceTTL time.Duration
	SOLFallback float64
}

// Service prices tokens from the bonding curve first and the market second.
type Service struct {
	curves CurveSource
	market MarketSource
	cache  cache.Cache
	config Config
	logger *zap.Logger
}

// NewService creates a pricing service. market and c may be nil.
func NewService(curves CurveSource, market MarketSource, c cache.Cache, cfg Config, logger *zap.Logger) *Service {
	if cfg.PriceTTL <= 0 {
		cfg.PriceTTL = DefaultPriceTTL
	}
	if cfg.SOLPriceTTL <= 0 {
		cfg.SOLPriceTTL = DefaultSOLPriceTTL
	}
	if cfg.SOLFallback <= 0 {
		cfg.SOLFallback = DefaultSOLPriceFallback
	}
	return &Service{
		curves: curves,
		market: market,
		cache:  c,
		config: cfg,
		logger: logger.Named("pricing"),
	}
}

// GetTokenPrice returns the USD price of mint.
// Live curves are priced from reserves; graduated or unknown mints from the market.
func (s *Service) GetTokenPrice(ctx context.Context, mint string) (*TokenPrice, error) {
	key := cache.PrefixPrice + mint

	var cached TokenPrice
	if cache.GetJSON(ctx, s.cache, key, &cached) {
		return &cached, nil
	}

	var valuation *pumpfun.Valuation
	if s.curves != nil {
		v, err := s.curves.GetBondingCurve(ctx, mint)
		switch {
		case errors.Is(err, pumpfun.ErrInvalidAddress):
			return nil, err
		case err != nil:
			s.logger.Debug("Bonding curve unavailable for pricing", zap.String("mint", mint), zap.Error(err))
		default:
			valuation = v
		}
	}

	if valuation != nil && !valuation.Complete {
		price := s.fromCurve(ctx, mint, valuation)
		cache.SetJSON(ctx, s.cache, key, price, s.config.PriceTTL)
		return price, nil
	}

	if s.market != nil {
		price, err := s.market.GetPoolPrice(ctx, mint)
		if err == nil {
			cache.SetJSON(ctx, s.cache, key, price, s.config.PriceTTL)
			return price, nil
		}
		s.logger.Debug("Market price unavailable", zap.String("mint", mint), zap.Error(err))
	}

	// graduated curve without a listed pool: last reserves are better than nothing
	if valuation != nil {
		return s.fromCurve(ctx, mint, valuation), nil
	}
	return nil, fmt.Errorf("%s: %w", mint, ErrPriceUnavailable)
}

func (s *Service) fromCurve(ctx context.Context, mint string, v *pumpfun.Valuation) *TokenPrice {
	solUSD := s.GetSOLPrice(ctx)
	return &TokenPrice{
		Mint:         mint,
		PriceUSD:     v.PriceSOL * solUSD,
		PriceSOL:     v.PriceSOL,
		MarketCapUSD: v.MarketCap * solUSD,
		LiquidityUSD: v.SolRaised * solUSD,
		Source:       SourceBondingCurve,
		Timestamp:    time.Now().UTC(),
	}
}

// GetSOLPrice returns SOL/USD, cached, or the configured fallback.
func (s *Service) GetSOLPrice(ctx context.Context) float64 {
	var cached float64
	if cache.GetJSON(ctx, s.cache, cache.KeySOLPrice, &cached) && cached > 0 {
		return cached
	}
	if s.market == nil {
		return s.config.SOLFallback
	}
	price, err := s.market.GetSOLPrice(ctx)
	if err != nil {
		s.logger.Warn("Failed to fetch SOL price, using fallback",
			zap.Float64("fallback", s.config.SOLFallback),
			zap.Error(err))
		return s.config.SOLFallback
	}
	cache.SetJSON(ctx, s.cache, cache.KeySOLPrice, price, s.config.SOLPriceTTL)
	return price
}
