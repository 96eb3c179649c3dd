// internal/discovery/scanner.go
package discovery

import (
	"context"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/rovshanmuradov/openpump/internal/blockchain"
	"github.com/rovshanmuradov/openpump/internal/cache"
	"github.com/rovshanmuradov/openpump/internal/dex/pumpfun"
	"github.com/rovshanmuradov/openpump/internal/eventlistener"
	"github.com/rovshanmuradov/openpump/internal/utils/metrics"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DiscoveredToken is a recently created mint with a live bonding curve.
type DiscoveredToken struct {
	Mint             string `json:"mint"`
	Creator          string `json:"creator"`
	CreatedTimestamp int64  `json:"created_timestamp"`
	Signature        string `json:"signature"`

	Valuation *pumpfun.Valuation `json:"valuation,omitempty"`
}

// ChainReader is what the scanner needs from the chain.
type ChainReader interface {
	blockchain.SignatureLister
	blockchain.TransactionFetcher
}

// Config tunes a scan.
type Config struct {
	ProgramID solana.PublicKey
	// SignatureLimit is how many recent program signatures are listed.
	SignatureLimit int
	// ScanLimit caps the transactions fetched per scan.
	ScanLimit int
	// RequestsPerSecond paces transaction fetches.
	RequestsPerSecond float64
	CacheTTL          time.Duration
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		ProgramID:         pumpfun.PumpFunProgramID,
		SignatureLimit:    100,
		ScanLimit:         50,
		RequestsPerSecond: 10,
		CacheTTL:          60 * time.Second,
	}
}

// Scanner finds recently created tokens from program history.
type Scanner struct {
	chain   ChainReader
	curves  eventlistener.CurveValuator
	cache   cache.Cache
	config  Config
	limiter *rate.Limiter
	metrics *metrics.Collector
	logger  *zap.Logger
}

// NewScanner creates a scanner. c and m may be nil.
func NewScanner(chain ChainReader, curves eventlistener.CurveValuator, c cache.Cache, cfg Config, m *metrics.Collector, logger *zap.Logger) *Scanner {
	def := DefaultConfig()
	if cfg.ProgramID.IsZero() {
		cfg.ProgramID = def.ProgramID
	}
	if cfg.SignatureLimit <= 0 {
		cfg.SignatureLimit = def.SignatureLimit
	}
	if cfg.ScanLimit <= 0 {
		cfg.ScanLimit = def.ScanLimit
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = def.RequestsPerSecond
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = def.CacheTTL
	}
	return &Scanner{
		chain:   chain,
		curves:  curves,
		cache:   c,
		config:  cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		metrics: m,
		logger:  logger.Named("discovery"),
	}
}

// DiscoverRecentTokens returns up to limit recently created tokens, newest
// first. Failures shorten the result, they are never returned.
func (s *Scanner) DiscoverRecentTokens(ctx context.Context, limit int) []DiscoveredToken {
	if limit <= 0 {
		return nil
	}

	var cached []DiscoveredToken
	if cache.GetJSON(ctx, s.cache, cache.KeyDiscovered, &cached) && len(cached) > 0 {
		s.metrics.RecordCache("discovery", true)
		return cached[:min(limit, len(cached))]
	}
	s.metrics.RecordCache("discovery", false)

	sigs, err := s.chain.GetSignaturesForAddress(ctx, s.config.ProgramID, s.config.SignatureLimit)
	if err != nil {
		s.logger.Warn("Failed to list program signatures", zap.Error(err))
		return nil
	}
	s.logger.Debug("Scanning recent program signatures", zap.Int("count", len(sigs)))

	found := s.scan(ctx, sigs, limit)
	if len(found) > 0 {
		cache.SetJSON(ctx, s.cache, cache.KeyDiscovered, found, s.config.CacheTTL)
	}
	s.metrics.SetDiscoveredTokens(len(found))
	s.logger.Info("Discovered tokens from chain", zap.Int("count", len(found)))
	return found
}

func (s *Scanner) scan(ctx context.Context, sigs []blockchain.SignatureInfo, limit int) []DiscoveredToken {
	seen := make(map[solana.PublicKey]struct{})
	found := make([]DiscoveredToken, 0, limit)

	for i, sig := range sigs {
		if i >= s.config.ScanLimit || len(found) >= limit {
			break
		}
		if sig.Err != nil {
			continue
		}
		if err := s.limiter.Wait(ctx); err != nil {
			break
		}

		tx, err := s.chain.GetParsedTransaction(ctx, sig.Signature)
		if err != nil || tx == nil {
			s.logger.Debug("Skipping transaction", zap.String("signature", sig.Signature.String()), zap.Error(err))
			continue
		}

		mint, ok := eventlistener.ExtractMint(tx, s.config.ProgramID)
		if !ok {
			continue
		}
		if _, dup := seen[mint]; dup {
			continue
		}
		seen[mint] = struct{}{}

		valuation, err := s.curves.ValuateKey(ctx, mint)
		if err != nil {
			continue
		}

		created := time.Now().Unix()
		if sig.BlockTime != nil {
			created = sig.BlockTime.Unix()
		} else if tx.BlockTime != nil {
			created = tx.BlockTime.Unix()
		}
		found = append(found, DiscoveredToken{
			Mint:             mint.String(),
			Creator:          tx.FeePayer().String(),
			CreatedTimestamp: created,
			Signature:        sig.Signature.String(),
			Valuation:        valuation,
		})
	}
	return found
}
