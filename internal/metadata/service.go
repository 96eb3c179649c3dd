// internal/metadata/service.go
package metadata

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/rovshanmuradov/openpump/internal/blockchain"
	"github.com/rovshanmuradov/openpump/internal/blockchain/solbc"
	"github.com/rovshanmuradov/openpump/internal/cache"
	"github.com/rovshanmuradov/openpump/internal/utils/metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrNotFound is returned when no metadata source knows the mint.
var ErrNotFound = errors.New("token metadata not found")

const (
	DefaultCacheTTL = 300 * time.Second
	batchSize       = 5

	// pump.fun mints are always 6 decimals with 1B supply.
	defaultDecimals = 6
	defaultSupply   = "1000000000"
)

// AssetSource resolves on-chain metadata for a mint.
type AssetSource interface {
	GetTokenMetadata(ctx context.Context, mint string) (*OnChainMetadata, error)
}

// DocumentFetcher loads the off-chain JSON a metadata URI points to.
type DocumentFetcher interface {
	FetchMetadata(ctx context.Context, uri string) *OffChainMetadata
}

// Service merges DAS, IPFS and mint account data into TokenMetadata.
type Service struct {
	assets  AssetSource
	docs    DocumentFetcher
	mints   blockchain.AccountReader
	cache   cache.Cache
	ttl     time.Duration
	metrics *metrics.Collector
	logger  *zap.Logger
}

// Options wires optional collaborators of a Service.
type Options struct {
	// Mints, when set, supplies decimals and supply from the mint account.
	Mints    blockchain.AccountReader
	Cache    cache.Cache
	CacheTTL time.Duration
	Metrics  *metrics.Collector
}

// NewService creates a metadata service. docs may be nil.
func NewService(assets AssetSource, docs DocumentFetcher, opts Options, logger *zap.Logger) *Service {
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = DefaultCacheTTL
	}
	return &Service{
		assets:  assets,
		docs:    docs,
		mints:   opts.Mints,
		cache:   opts.Cache,
		ttl:     opts.CacheTTL,
		metrics: opts.Metrics,
		logger:  logger.Named("metadata"),
	}
}

// GetTokenMetadata returns merged metadata for mint or ErrNotFound.
func (s *Service) GetTokenMetadata(ctx context.Context, mint string) (*TokenMetadata, error) {
	key := cache.PrefixMetadata + mint

	var cached TokenMetadata
	if cache.GetJSON(ctx, s.cache, key, &cached) {
		s.metrics.RecordCache("metadata", true)
		return &cached, nil
	}
	s.metrics.RecordCache("metadata", false)

	if s.assets == nil {
		return nil, ErrNotFound
	}
	onChain, err := s.assets.GetTokenMetadata(ctx, mint)
	if err != nil {
		s.logger.Debug("Error fetching metadata", zap.String("mint", mint), zap.Error(err))
		return nil, err
	}
	if onChain == nil {
		return nil, ErrNotFound
	}

	var offChain *OffChainMetadata
	if onChain.URI != "" && s.docs != nil {
		offChain = s.docs.FetchMetadata(ctx, onChain.URI)
	}

	links := ExtractSocialLinks(offChain)
	md := &TokenMetadata{
		Mint:         mint,
		Name:         firstNonEmpty(onChain.Name, offName(offChain), "Unknown"),
		Symbol:       firstNonEmpty(onChain.Symbol, offSymbol(offChain), "UNKNOWN"),
		Description:  onChain.Description,
		Image:        onChain.Image,
		Decimals:     defaultDecimals,
		Supply:       defaultSupply,
		Creator:      onChain.Creator,
		URI:          onChain.URI,
		QualityScore: QualityScore(onChain, offChain, links),
		SocialLinks:  links,
		HasSocial:    !links.IsEmpty(),
	}
	if offChain != nil {
		md.Description = firstNonEmpty(md.Description, offChain.Description)
		md.Image = firstNonEmpty(md.Image, offChain.Image)
	}
	s.applyMintInfo(ctx, mint, md)

	cache.SetJSON(ctx, s.cache, key, md, s.ttl)
	return md, nil
}

func (s *Service) applyMintInfo(ctx context.Context, mint string, md *TokenMetadata) {
	if s.mints == nil {
		return
	}
	key, err := solana.PublicKeyFromBase58(mint)
	if err != nil {
		return
	}
	info, err := solbc.ReadMintInfo(ctx, s.mints, key)
	if err != nil {
		s.logger.Debug("Mint account unavailable, keeping defaults",
			zap.String("mint", mint), zap.Error(err))
		return
	}
	md.Decimals = info.Decimals
	scale := uint64(1)
	for i := uint8(0); i < info.Decimals; i++ {
		scale *= 10
	}
	md.Supply = strconv.FormatUint(info.Supply/scale, 10)
}

// GetTokenMetadataBatch fetches up to five mints at a time. Mints without
// metadata are left out of the result.
func (s *Service) GetTokenMetadataBatch(ctx context.Context, mints []string) map[string]*TokenMetadata {
	var (
		mu  sync.Mutex
		out = make(map[string]*TokenMetadata, len(mints))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchSize)
	for _, mint := range mints {
		g.Go(func() error {
			md, err := s.GetTokenMetadata(gctx, mint)
			if err != nil || md == nil {
				return nil
			}
			mu.Lock()
			out[mint] = md
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func offName(md *OffChainMetadata) string {
	if md == nil {
		return ""
	}
	return md.Name
}

func offSymbol(md *OffChainMetadata) string {
	if md == nil {
		return ""
	}
	return md.Symbol
}
