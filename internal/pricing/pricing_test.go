package pricing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rovshanmuradov/openpump/internal/cache"
	"github.com/rovshanmuradov/openpump/internal/dex/pumpfun"
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

type fakeMarket struct {
	pools    map[string]*TokenPrice
	sol      float64
	solErr   error
	solCalls int
}

func (f *fakeMarket) GetPoolPrice(_ context.Context, mint string) (*TokenPrice, error) {
	if p, ok := f.pools[mint]; ok {
		return p, nil
	}
	return nil, ErrNoPool
}

func (f *fakeMarket) GetSOLPrice(context.Context) (float64, error) {
	f.solCalls++
	return f.sol, f.solErr
}

func TestGetTokenPrice_FromCurve(t *testing.T) {
	curves := fakeCurves{"live": {PriceSOL: 0.00003, MarketCap: 30, SolRaised: 10}}
	market := &fakeMarket{sol: 200}
	s := NewService(curves, market, cache.NewMemory(), Config{}, zap.NewNop())

	p, err := s.GetTokenPrice(context.Background(), "live")
	require.NoError(t, err)
	assert.Equal(t, SourceBondingCurve, p.Source)
	assert.InDelta(t, 0.006, p.PriceUSD, 1e-12)
	assert.InDelta(t, 6000, p.MarketCapUSD, 1e-9)
	assert.InDelta(t, 2000, p.LiquidityUSD, 1e-9)

	_, err = s.GetTokenPrice(context.Background(), "live")
	require.NoError(t, err)
	assert.Equal(t, 1, market.solCalls)
}

func TestGetTokenPrice_GraduatedUsesMarket(t *testing.T) {
	curves := fakeCurves{"grad": {Complete: true, PriceSOL: 1}}
	market := &fakeMarket{sol: 150, pools: map[string]*TokenPrice{
		"grad":   {Mint: "grad", PriceUSD: 0.5, Source: SourceGeckoTerminal},
		"listed": {Mint: "listed", PriceUSD: 2, Source: SourceGeckoTerminal},
	}}
	s := NewService(curves, market, nil, Config{}, zap.NewNop())

	p, err := s.GetTokenPrice(context.Background(), "grad")
	require.NoError(t, err)
	assert.Equal(t, SourceGeckoTerminal, p.Source)

	p, err = s.GetTokenPrice(context.Background(), "listed")
	require.NoError(t, err)
	assert.Equal(t, 2.0, p.PriceUSD)

	_, err = s.GetTokenPrice(context.Background(), "nowhere")
	assert.ErrorIs(t, err, ErrPriceUnavailable)
}

func TestGetSOLPrice_Fallback(t *testing.T) {
	s := NewService(nil, &fakeMarket{solErr: errors.New("down")}, nil, Config{SOLFallback: 123}, zap.NewNop())
	assert.Equal(t, 123.0, s.GetSOLPrice(context.Background()))

	s = NewService(nil, nil, nil, Config{}, zap.NewNop())
	assert.Equal(t, DefaultSOLPriceFallback, s.GetSOLPrice(context.Background()))
}

func TestGeckoClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/networks/solana/tokens/PoolMint/pools":
			_, _ = w.Write([]byte(`{"data":[{"attributes":{
				"base_token_price_usd":"0.0123",
				"base_token_price_native_currency":"0.00008",
				"reserve_in_usd":"50000.5",
				"fdv_usd":"12300000",
				"volume_usd":{"h24":"1000"},
				"price_change_percentage":{"h24":"-4.2"}
			}}]}`))
		case "/networks/solana/tokens/EmptyMint/pools":
			_, _ = w.Write([]byte(`{"data":[]}`))
		case "/simple/networks/solana/token_price/So11111111111111111111111111111111111111112":
			_, _ = w.Write([]byte(`{"data":{"attributes":{"token_prices":{"So11111111111111111111111111111111111111112":"172.5"}}}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewGeckoClient(srv.URL+"/", nil, zap.NewNop())
	ctx := context.Background()

	p, err := c.GetPoolPrice(ctx, "PoolMint")
	require.NoError(t, err)
	assert.Equal(t, 0.0123, p.PriceUSD)
	assert.Equal(t, 0.00008, p.PriceSOL)
	assert.Equal(t, 12300000.0, p.MarketCapUSD)
	require.NotNil(t, p.PriceChange24h)
	assert.Equal(t, -4.2, *p.PriceChange24h)

	_, err = c.GetPoolPrice(ctx, "EmptyMint")
	assert.ErrorIs(t, err, ErrNoPool)
	_, err = c.GetPoolPrice(ctx, "Unknown")
	assert.ErrorIs(t, err, ErrNoPool)

	sol, err := c.GetSOLPrice(ctx)
	require.NoError(t, err)
	assert.Equal(t, 172.5, sol)
}
