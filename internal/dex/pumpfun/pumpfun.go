// ==============================================
// File: internal/dex/pumpfun/pumpfun.go
// ==============================================

package pumpfun

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/rovshanmuradov/openpump/internal/blockchain"
	"github.com/rovshanmuradov/openpump/internal/cache"
	"github.com/rovshanmuradov/openpump/internal/utils/metrics"
	"go.uber.org/zap"
)

// CurveService is a read-through view over bonding curve accounts.
type CurveService struct {
	reader  blockchain.AccountReader
	cache   cache.Cache
	config  *Config
	metrics *metrics.Collector
	logger  *zap.Logger
}

// NewCurveService creates a curve service. cache and m may be nil.
func NewCurveService(reader blockchain.AccountReader, c cache.Cache, config *Config, m *metrics.Collector, logger *zap.Logger) *CurveService {
	if config == nil {
		config = GetDefaultConfig()
	}
	if config.ProgramID.IsZero() {
		config.ProgramID = PumpFunProgramID
	}
	return &CurveService{
		reader:  reader,
		cache:   c,
		config:  config,
		metrics: m,
		logger:  logger.Named("pumpfun"),
	}
}

// GetCurveState returns the decoded curve of a mint.
// A missing or undecodable account yields ErrValuationUnavailable, an RPC failure ErrFetch.
func (s *CurveService) GetCurveState(ctx context.Context, mint string) (*CurveState, error) {
	mintKey, err := ParseMint(mint)
	if err != nil {
		return nil, err
	}
	return s.GetCurveStateForKey(ctx, mintKey)
}

// GetCurveStateForKey is GetCurveState for an already parsed mint.
func (s *CurveService) GetCurveStateForKey(ctx context.Context, mint solana.PublicKey) (*CurveState, error) {
	key := cache.PrefixBonding + mint.String()

	var cached CurveState
	if cache.GetJSON(ctx, s.cache, key, &cached) {
		s.metrics.RecordCache("bonding", true)
		return &cached, nil
	}
	s.metrics.RecordCache("bonding", false)

	curveAddr, err := deriveBondingCurveFor(mint, s.config.ProgramID)
	if err != nil {
		return nil, err
	}

	data, err := s.reader.GetAccountData(ctx, curveAddr)
	if err != nil {
		if errors.Is(err, blockchain.ErrAccountNotFound) {
			s.metrics.RecordCurveLookup("unavailable")
			return nil, fmt.Errorf("no bonding curve for %s: %w", mint, ErrValuationUnavailable)
		}
		s.metrics.RecordCurveLookup("error")
		s.logger.Debug("Failed to read bonding curve account",
			zap.String("mint", mint.String()),
			zap.String("bonding_curve", curveAddr.String()),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}

	state, err := DecodeBondingCurve(data)
	if err != nil {
		s.metrics.RecordCurveLookup("unavailable")
		s.logger.Debug("Account is not a bonding curve",
			zap.String("mint", mint.String()),
			zap.Error(err))
		return nil, fmt.Errorf("%v: %w", err, ErrValuationUnavailable)
	}
	state.Mint = mint
	state.BondingCurve = curveAddr

	s.metrics.RecordCurveLookup("ok")
	cache.SetJSON(ctx, s.cache, key, state, s.config.CacheTTL)
	return state, nil
}

// GetBondingCurve returns the valuation of a mint's curve.
func (s *CurveService) GetBondingCurve(ctx context.Context, mint string) (*Valuation, error) {
	state, err := s.GetCurveState(ctx, mint)
	if err != nil {
		return nil, err
	}
	return Valuate(state), nil
}

// ValuateKey is GetBondingCurve for an already parsed mint.
func (s *CurveService) ValuateKey(ctx context.Context, mint solana.PublicKey) (*Valuation, error) {
	state, err := s.GetCurveStateForKey(ctx, mint)
	if err != nil {
		return nil, err
	}
	return Valuate(state), nil
}

// SimulateBuy quotes a buy of sol SOL against the live curve.
func (s *CurveService) SimulateBuy(ctx context.Context, mint string, sol float64) (*BuyQuote, error) {
	lamports := SolToLamports(sol)
	if lamports == 0 {
		return nil, ErrInvalidAmount
	}
	state, err := s.GetCurveState(ctx, mint)
	if err != nil {
		return nil, err
	}
	if state.Complete {
		return nil, fmt.Errorf("curve graduated: %w", ErrValuationUnavailable)
	}
	return SimulateBuy(state, lamports)
}

// SimulateSell quotes a sell of tokens whole tokens against the live curve.
func (s *CurveService) SimulateSell(ctx context.Context, mint string, tokens float64) (*SellQuote, error) {
	raw := TokensToRaw(tokens)
	if raw == 0 {
		return nil, ErrInvalidAmount
	}
	state, err := s.GetCurveState(ctx, mint)
	if err != nil {
		return nil, err
	}
	if state.Complete {
		return nil, fmt.Errorf("curve graduated: %w", ErrValuationUnavailable)
	}
	return SimulateSell(state, raw)
}
