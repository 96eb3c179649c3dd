// internal/metadata/ipfs.go
package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/rovshanmuradov/openpump/internal/utils/metrics"
	"go.uber.org/zap"
)

// DefaultGateways are tried in order for ipfs:// and /ipfs/ URIs.
var DefaultGateways = []string{
	"https://ipfs.io/ipfs/",
	"https://cloudflare-ipfs.com/ipfs/",
	"https://dweb.link/ipfs/",
	"https://gateway.pinata.cloud/ipfs/",
}

const (
	gatewayTimeout  = 5 * time.Second
	maxMetadataSize = 1 << 20
)

var ipfsPathRe = regexp.MustCompile(`/ipfs/([^/?#]+)`)

// IPFSClient fetches off-chain metadata JSON through public gateways.
type IPFSClient struct {
	gateways []string
	http     *http.Client
	metrics  *metrics.Collector
	logger   *zap.Logger
}

// NewIPFSClient creates a client. An empty gateway list selects DefaultGateways.
func NewIPFSClient(gateways []string, m *metrics.Collector, logger *zap.Logger) *IPFSClient {
	if len(gateways) == 0 {
		gateways = DefaultGateways
	}
	normalized := make([]string, 0, len(gateways))
	for _, g := range gateways {
		if !strings.HasSuffix(g, "/") {
			g += "/"
		}
		normalized = append(normalized, g)
	}
	return &IPFSClient{
		gateways: normalized,
		http:     &http.Client{Timeout: gatewayTimeout},
		metrics:  m,
		logger:   logger.Named("ipfs"),
	}
}

// ExtractIPFSHash returns the content id of an ipfs:// or gateway URI.
func ExtractIPFSHash(uri string) (string, bool) {
	if strings.HasPrefix(uri, "ipfs://") {
		hash := strings.TrimPrefix(uri, "ipfs://")
		hash = strings.TrimPrefix(hash, "ipfs/")
		return hash, hash != ""
	}
	if m := ipfsPathRe.FindStringSubmatch(uri); m != nil {
		return m[1], true
	}
	return "", false
}

// FetchMetadata resolves uri. Plain http(s) URIs are fetched directly first,
// IPFS content ids go through each gateway in order. Returns nil when
// nothing could be fetched.
func (c *IPFSClient) FetchMetadata(ctx context.Context, uri string) *OffChainMetadata {
	if uri == "" {
		return nil
	}

	hash, isIPFS := ExtractIPFSHash(uri)
	if strings.HasPrefix(uri, "http") {
		if md, err := c.fetchFromURL(ctx, uri); err == nil {
			return md
		}
	}
	if !isIPFS {
		c.logger.Debug("Could not extract IPFS hash from URI", zap.String("uri", uri))
		return nil
	}

	for _, gw := range c.gateways {
		if ctx.Err() != nil {
			return nil
		}
		md, err := c.fetchFromURL(ctx, gw+hash)
		if err == nil {
			return md
		}
		c.logger.Debug("Gateway failed, trying next",
			zap.String("gateway", gw),
			zap.Error(err))
	}
	return nil
}

func (c *IPFSClient) fetchFromURL(ctx context.Context, url string) (md *OffChainMetadata, err error) {
	defer func() { c.metrics.RecordExternalRequest("ipfs", err) }()

	ctx, cancel := context.WithTimeout(ctx, gatewayTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gateway returned status code: %d", resp.StatusCode)
	}

	var out OffChainMetadata
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxMetadataSize)).Decode(&out); err != nil {
		return nil, fmt.Errorf("invalid metadata json: %w", err)
	}
	return &out, nil
}
