package token

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/rovshanmuradov/openpump/internal/cache"
	"github.com/rovshanmuradov/openpump/internal/dex/pumpfun"
	"github.com/rovshanmuradov/openpump/internal/discovery"
	"github.com/rovshanmuradov/openpump/internal/metadata"
	"github.com/rovshanmuradov/openpump/internal/pricing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeCurves map[string]*pumpfun.Valuation

func (f fakeCurves) GetBondingCurve(_ context.Context, mint string) (*pumpfun.Valuation, error) {
	if v, ok := f[mint]; ok {
		return v, nil
	}
	return nil, pumpfun.ErrValuationUnavailable
}

func (f fakeCurves) SimulateBuy(context.Context, string, float64) (*pumpfun.BuyQuote, error) {
	return &pumpfun.BuyQuote{}, nil
}

func (f fakeCurves) SimulateSell(context.Context, string, float64) (*pumpfun.SellQuote, error) {
	return &pumpfun.SellQuote{}, nil
}

type fakeMeta struct {
	md    map[string]*metadata.TokenMetadata
	calls int32
}

func (f *fakeMeta) GetTokenMetadata(_ context.Context, mint string) (*metadata.TokenMetadata, error) {
	atomic.AddInt32(&f.calls, 1)
	if v, ok := f.md[mint]; ok {
		return v, nil
	}
	return nil, metadata.ErrNotFound
}

func (f *fakeMeta) GetTokenMetadataBatch(ctx context.Context, mints []string) map[string]*metadata.TokenMetadata {
	out := make(map[string]*metadata.TokenMetadata)
	for _, m := range mints {
		if v, err := f.GetTokenMetadata(ctx, m); err == nil {
			out[m] = v
		}
	}
	return out
}

type fakePrices map[string]*pricing.TokenPrice

func (f fakePrices) GetTokenPrice(_ context.Context, mint string) (*pricing.TokenPrice, error) {
	if v, ok := f[mint]; ok {
		return v, nil
	}
	return nil, pricing.ErrPriceUnavailable
}

type fakeDiscovery []discovery.DiscoveredToken

func (f fakeDiscovery) DiscoverRecentTokens(_ context.Context, limit int) []discovery.DiscoveredToken {
	return f[:min(limit, len(f))]
}

func mintAddr() string { return solana.NewWallet().PublicKey().String() }

func TestGetToken_Merges(t *testing.T) {
	live, grad, ghost := mintAddr(), mintAddr(), mintAddr()
	meta := &fakeMeta{md: map[string]*metadata.TokenMetadata{live: {Mint: live, Name: "Live"}}}
	curves := fakeCurves{live: {Category: pumpfun.CategoryRising, Progress: 30}}
	prices := fakePrices{grad: {Mint: grad, Source: pricing.SourceGeckoTerminal}}

	s := NewService(curves, meta, prices, fakeDiscovery{}, cache.NewMemory(), zap.NewNop())
	ctx := context.Background()

	v, err := s.GetToken(ctx, live)
	require.NoError(t, err)
	assert.Equal(t, "Live", v.Metadata.Name)
	assert.Equal(t, pumpfun.CategoryRising, v.Category)
	assert.Nil(t, v.Price)

	v, err = s.GetToken(ctx, grad)
	require.NoError(t, err)
	assert.Equal(t, pumpfun.CategoryGraduated, v.Category)
	assert.Equal(t, "Unknown", v.Metadata.Name)

	_, err = s.GetToken(ctx, ghost)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.GetToken(ctx, "not-a-mint")
	assert.ErrorIs(t, err, pumpfun.ErrInvalidAddress)

	// cached view
	calls := atomic.LoadInt32(&meta.calls)
	_, err = s.GetToken(ctx, live)
	require.NoError(t, err)
	assert.Equal(t, calls, atomic.LoadInt32(&meta.calls))
}

func TestListTokens(t *testing.T) {
	a, b, c := mintAddr(), mintAddr(), mintAddr()
	disc := fakeDiscovery{
		{Mint: a, Creator: "payerA", CreatedTimestamp: 300, Valuation: &pumpfun.Valuation{MarketCap: 10, Category: pumpfun.CategoryNew, Progress: 5, SolRaised: 4.25}},
		{Mint: b, Creator: "payerB", CreatedTimestamp: 200, Valuation: &pumpfun.Valuation{MarketCap: 90, Category: pumpfun.CategoryFinalStretch, Progress: 80}},
		{Mint: c, Creator: "payerC", CreatedTimestamp: 100, Valuation: &pumpfun.Valuation{MarketCap: 50, Category: pumpfun.CategoryNew}},
	}
	meta := &fakeMeta{md: map[string]*metadata.TokenMetadata{
		b: {Name: "Bee", Symbol: "BEE", Creator: "creatorB", QualityScore: 70,
			SocialLinks: metadata.SocialLinks{Twitter: "https://twitter.com/bee"}},
	}}
	s := NewService(fakeCurves{}, meta, fakePrices{}, disc, nil, zap.NewNop())
	ctx := context.Background()

	rows := s.ListTokens(ctx, ListParams{Limit: 10, Sort: SortMarketCap, Descending: true})
	require.Len(t, rows, 3)
	assert.Equal(t, []string{b, c, a}, []string{rows[0].Mint, rows[1].Mint, rows[2].Mint})

	bee := rows[0]
	assert.Equal(t, "Bee", bee.Name)
	assert.Equal(t, "creatorB", bee.Creator)
	assert.Equal(t, 70, bee.QualityScore)
	require.NotNil(t, bee.Twitter)
	assert.Nil(t, bee.Telegram)

	anon := rows[2]
	assert.Equal(t, "Unknown", anon.Name)
	assert.Equal(t, "PUMP", anon.Symbol)
	assert.Equal(t, "payerA", anon.Creator)
	assert.Equal(t, BaseQualityScore(5, 4.25), anon.QualityScore)

	rows = s.ListTokens(ctx, ListParams{Limit: 10, Category: "new", Sort: SortCreated})
	require.Len(t, rows, 2)
	assert.Equal(t, c, rows[0].Mint)
	assert.Equal(t, a, rows[1].Mint)

	rows = s.ListTokens(ctx, ListParams{Limit: 1, Offset: 1, Category: "all"})
	require.Len(t, rows, 1)
	assert.Equal(t, b, rows[0].Mint)

	assert.Empty(t, s.ListTokens(ctx, ListParams{Limit: 5, Offset: 10}))
}

func TestBaseQualityScore(t *testing.T) {
	assert.Equal(t, 20, BaseQualityScore(0, 0))
	assert.Equal(t, 23, BaseQualityScore(5, 4.25))
	// 40 + 25.5 + 20
	assert.Equal(t, 85, BaseQualityScore(100, 85))
	assert.Equal(t, 90, BaseQualityScore(100, 200))
}
