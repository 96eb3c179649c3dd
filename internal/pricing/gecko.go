// internal/pricing/gecko.go
package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/rovshanmuradov/openpump/internal/utils/breaker"
	"github.com/rovshanmuradov/openpump/internal/utils/metrics"
	"go.uber.org/zap"
)

// DefaultGeckoTerminalURL is the public v2 API root.
const DefaultGeckoTerminalURL = "https://api.geckoterminal.com/api/v2"

// ErrNoPool is returned when GeckoTerminal lists no pool for a token.
var ErrNoPool = errors.New("no pool found")

type poolsResponse struct {
	Data []struct {
		Attributes struct {
			BaseTokenPriceUSD    string `json:"base_token_price_usd"`
			BaseTokenPriceNative string `json:"base_token_price_native_currency"`
			ReserveInUSD         string `json:"reserve_in_usd"`
			FdvUSD               string `json:"fdv_usd"`
			VolumeUSD            struct {
				H24 string `json:"h24"`
			} `json:"volume_usd"`
			PriceChangePercentage struct {
				H24 string `json:"h24"`
			} `json:"price_change_percentage"`
		} `json:"attributes"`
	} `json:"data"`
}

type tokenPriceResponse struct {
	Data struct {
		Attributes struct {
			TokenPrices map[string]string `json:"token_prices"`
		} `json:"attributes"`
	} `json:"data"`
}

// GeckoClient reads pool and spot prices from GeckoTerminal.
type GeckoClient struct {
	baseURL string
	http    *http.Client
	breaker *breaker.Breaker
	metrics *metrics.Collector
	logger  *zap.Logger
}

// NewGeckoClient creates a client. An empty baseURL selects DefaultGeckoTerminalURL.
func NewGeckoClient(baseURL string, m *metrics.Collector, logger *zap.Logger) *GeckoClient {
	if baseURL == "" {
		baseURL = DefaultGeckoTerminalURL
	}
	return &GeckoClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		breaker: breaker.New("geckoterminal", breaker.Settings{
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, ErrNoPool)
			},
		}, logger),
		metrics: m,
		logger:  logger.Named("geckoterminal"),
	}
}

// GetPoolPrice returns the price of mint from its first listed pool.
func (c *GeckoClient) GetPoolPrice(ctx context.Context, mint string) (*TokenPrice, error) {
	var out poolsResponse
	if err := c.get(ctx, "/networks/solana/tokens/"+mint+"/pools", &out); err != nil {
		return nil, err
	}
	if len(out.Data) == 0 {
		return nil, ErrNoPool
	}

	a := out.Data[0].Attributes
	price := &TokenPrice{
		Mint:         mint,
		PriceUSD:     parseFloat(a.BaseTokenPriceUSD),
		PriceSOL:     parseFloat(a.BaseTokenPriceNative),
		MarketCapUSD: parseFloat(a.FdvUSD),
		LiquidityUSD: parseFloat(a.ReserveInUSD),
		Source:       SourceGeckoTerminal,
		Timestamp:    time.Now().UTC(),
	}
	if a.VolumeUSD.H24 != "" {
		v := parseFloat(a.VolumeUSD.H24)
		price.Volume24h = &v
	}
	if a.PriceChangePercentage.H24 != "" {
		v := parseFloat(a.PriceChangePercentage.H24)
		price.PriceChange24h = &v
	}
	return price, nil
}

// GetSOLPrice returns the USD price of wrapped SOL.
func (c *GeckoClient) GetSOLPrice(ctx context.Context) (float64, error) {
	sol := solana.SolMint.String()
	var out tokenPriceResponse
	if err := c.get(ctx, "/simple/networks/solana/token_price/"+sol, &out); err != nil {
		return 0, err
	}
	raw, ok := out.Data.Attributes.TokenPrices[sol]
	if !ok {
		return 0, fmt.Errorf("no price for %s", sol)
	}
	price, err := strconv.ParseFloat(raw, 64)
	if err != nil || price <= 0 {
		return 0, fmt.Errorf("invalid sol price %q", raw)
	}
	return price, nil
}

func (c *GeckoClient) get(ctx context.Context, path string, dst interface{}) error {
	_, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			return nil, ErrNoPool
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("geckoterminal returned status code: %d", resp.StatusCode)
		}
		return nil, json.NewDecoder(resp.Body).Decode(dst)
	})
	c.metrics.RecordExternalRequest("geckoterminal", err)
	return err
}

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}
