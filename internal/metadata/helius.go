// internal/metadata/helius.go
package metadata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rovshanmuradov/openpump/internal/utils/breaker"
	"github.com/rovshanmuradov/openpump/internal/utils/metrics"
	"go.uber.org/zap"
)

type heliusRequest struct {
	JSONRPC string       `json:"jsonrpc"`
	ID      string       `json:"id"`
	Method  string       `json:"method"`
	Params  heliusParams `json:"params"`
}

type heliusParams struct {
	ID             string `json:"id"`
	DisplayOptions struct {
		ShowFungible bool `json:"showFungible"`
	} `json:"displayOptions"`
}

type heliusAsset struct {
	ID      string `json:"id"`
	Content *struct {
		Metadata *struct {
			Name        string `json:"name"`
			Symbol      string `json:"symbol"`
			Description string `json:"description"`
		} `json:"metadata"`
		JSONURI string `json:"json_uri"`
		Files   []struct {
			URI    string `json:"uri"`
			CDNURI string `json:"cdn_uri"`
		} `json:"files"`
	} `json:"content"`
	Creators []struct {
		Address  string `json:"address"`
		Verified bool   `json:"verified"`
	} `json:"creators"`
}

type heliusResponse struct {
	Result *heliusAsset `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// HeliusClient calls the DAS getAsset method.
type HeliusClient struct {
	url     string
	http    *http.Client
	breaker *breaker.Breaker
	metrics *metrics.Collector
	logger  *zap.Logger
}

// NewHeliusClient creates a DAS client for a Helius RPC URL (api key included).
func NewHeliusClient(url string, m *metrics.Collector, logger *zap.Logger) *HeliusClient {
	return &HeliusClient{
		url:     url,
		http:    &http.Client{Timeout: 10 * time.Second},
		breaker: breaker.New("helius", breaker.Settings{}, logger),
		metrics: m,
		logger:  logger.Named("helius"),
	}
}

// GetTokenMetadata returns nil without error when the asset is unknown.
func (c *HeliusClient) GetTokenMetadata(ctx context.Context, mint string) (*OnChainMetadata, error) {
	res, err := c.breaker.Execute(func() (interface{}, error) {
		return c.getAsset(ctx, mint)
	})
	c.metrics.RecordExternalRequest("helius", err)
	if err != nil {
		return nil, err
	}
	asset, _ := res.(*heliusAsset)
	if asset == nil {
		return nil, nil
	}

	md := &OnChainMetadata{}
	if asset.Content != nil {
		if asset.Content.Metadata != nil {
			md.Name = asset.Content.Metadata.Name
			md.Symbol = asset.Content.Metadata.Symbol
			md.Description = asset.Content.Metadata.Description
		}
		md.URI = asset.Content.JSONURI
		if len(asset.Content.Files) > 0 {
			md.Image = asset.Content.Files[0].CDNURI
			if md.Image == "" {
				md.Image = asset.Content.Files[0].URI
			}
		}
	}
	if len(asset.Creators) > 0 {
		md.Creator = asset.Creators[0].Address
	}
	return md, nil
}

func (c *HeliusClient) getAsset(ctx context.Context, mint string) (*heliusAsset, error) {
	body := heliusRequest{
		JSONRPC: "2.0",
		ID:      "openpump-api",
		Method:  "getAsset",
	}
	body.Params.ID = mint
	body.Params.DisplayOptions.ShowFungible = true

	raw, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("helius returned status code: %d", resp.StatusCode)
	}

	var out heliusResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode helius response: %w", err)
	}
	if out.Error != nil {
		// unknown assets come back as JSON-RPC errors
		c.logger.Debug("getAsset error",
			zap.String("mint", mint),
			zap.Int("code", out.Error.Code),
			zap.String("message", out.Error.Message))
		return nil, nil
	}
	return out.Result, nil
}
