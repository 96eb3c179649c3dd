// =================================
// File: internal/config/config.go
// =================================
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	RPCURL       string `mapstructure:"rpc_url"`
	WebSocketURL string `mapstructure:"websocket_url"`
	HeliusAPIKey string `mapstructure:"helius_api_key"`
	RedisURL     string `mapstructure:"redis_url"`
	ListenAddr   string `mapstructure:"listen_addr"`
	DebugLogging bool   `mapstructure:"debug_logging"`
	LogFile      string `mapstructure:"log_file"`

	DedupCapacity         int   `mapstructure:"dedup_capacity"`
	MaxInFlight           int64 `mapstructure:"max_inflight"`
	EnrichmentConcurrency int64 `mapstructure:"enrichment_concurrency"`

	Discovery DiscoveryConfig `mapstructure:"discovery"`
	Cache     CacheConfig     `mapstructure:"cache"`

	IPFSGateways     []string `mapstructure:"ipfs_gateways"`
	GeckoTerminalURL string   `mapstructure:"geckoterminal_url"`
	SOLPriceFallback float64  `mapstructure:"sol_price_fallback"`
}

type DiscoveryConfig struct {
	SignatureLimit    int     `mapstructure:"signature_limit"`
	ScanLimit         int     `mapstructure:"scan_limit"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
}

// CacheConfig holds TTLs in seconds.
type CacheConfig struct {
	BondingCurveTTL int `mapstructure:"bonding_curve_ttl"`
	MetadataTTL     int `mapstructure:"metadata_ttl"`
	PriceTTL        int `mapstructure:"price_ttl"`
	RecentTokensTTL int `mapstructure:"recent_tokens_ttl"`
}

const (
	DefaultRPCURL           = "https://api.mainnet-beta.solana.com"
	DefaultListenAddr       = ":3000"
	DefaultLogFile          = "logs/openpump.log"
	DefaultDedupCapacity    = 10000
	DefaultMaxInFlight      = 32
	DefaultEnrichment       = 5
	DefaultSignatureLimit   = 100
	DefaultScanLimit        = 50
	DefaultDiscoveryRPS     = 10
	DefaultSOLPriceFallback = 100

	heliusRPCBase = "https://mainnet.helius-rpc.com/?api-key="
	envPrefix     = "OPENPUMP"
)

// Seconds returns a TTL value as a duration.
func Seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"rpc_url":                       DefaultRPCURL,
		"websocket_url":                 "",
		"helius_api_key":                "",
		"redis_url":                     "",
		"listen_addr":                   DefaultListenAddr,
		"debug_logging":                 false,
		"log_file":                      DefaultLogFile,
		"dedup_capacity":                DefaultDedupCapacity,
		"max_inflight":                  DefaultMaxInFlight,
		"enrichment_concurrency":        DefaultEnrichment,
		"discovery.signature_limit":     DefaultSignatureLimit,
		"discovery.scan_limit":          DefaultScanLimit,
		"discovery.requests_per_second": DefaultDiscoveryRPS,
		"cache.bonding_curve_ttl":       30,
		"cache.metadata_ttl":            300,
		"cache.price_ttl":               10,
		"cache.recent_tokens_ttl":       60,
		"ipfs_gateways":                 []string{},
		"geckoterminal_url":             "https://api.geckoterminal.com/api/v2",
		"sol_price_fallback":            DefaultSOLPriceFallback,
	}
}

// LoadConfig reads an optional config file and OPENPUMP_* environment
// overrides (OPENPUMP_DISCOVERY_SCAN_LIMIT for discovery.scan_limit).
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults() {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// comma separated lists from the environment keep their spaces
	cfg.IPFSGateways = splitList(strings.Join(cfg.IPFSGateways, ","))

	if cfg.HeliusAPIKey != "" && cfg.RPCURL == DefaultRPCURL {
		cfg.RPCURL = heliusRPCBase + cfg.HeliusAPIKey
	}

	return &cfg, validateConfig(&cfg)
}

// DASURL is the endpoint serving the getAsset method.
func (c *Config) DASURL() string {
	if c.HeliusAPIKey != "" {
		return heliusRPCBase + c.HeliusAPIKey
	}
	return c.RPCURL
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if clean := strings.TrimSpace(part); clean != "" {
			out = append(out, clean)
		}
	}
	return out
}

func validateConfig(cfg *Config) error {
	if cfg.RPCURL == "" {
		return errors.New("rpc_url is empty")
	}
	if err := validateURLWithCache(cfg.RPCURL, "http"); err != nil {
		return errors.New("invalid RPC URL protocol")
	}
	if cfg.WebSocketURL != "" {
		if err := validateURLWithCache(cfg.WebSocketURL, "ws"); err != nil {
			return errors.New("invalid WebSocket URL protocol")
		}
	}
	if cfg.RedisURL != "" {
		if err := validateURLWithCache(cfg.RedisURL, "redis"); err != nil {
			return errors.New("invalid Redis URL protocol")
		}
	}
	if err := validateURLWithCache(cfg.GeckoTerminalURL, "http"); err != nil {
		return errors.New("invalid GeckoTerminal URL protocol")
	}
	for _, gw := range cfg.IPFSGateways {
		if err := validateURLWithCache(gw, "http"); err != nil {
			return fmt.Errorf("invalid IPFS gateway %q", gw)
		}
	}
	return validateNumericParams(cfg)
}

func validateNumericParams(cfg *Config) error {
	if cfg.DedupCapacity <= 0 {
		return errors.New("invalid dedup_capacity")
	}
	if cfg.MaxInFlight <= 0 {
		return errors.New("invalid max_inflight")
	}
	if cfg.EnrichmentConcurrency <= 0 {
		return errors.New("invalid enrichment_concurrency")
	}
	if cfg.Discovery.SignatureLimit <= 0 || cfg.Discovery.SignatureLimit > 1000 {
		return errors.New("invalid discovery.signature_limit")
	}
	if cfg.Discovery.ScanLimit <= 0 {
		return errors.New("invalid discovery.scan_limit")
	}
	if cfg.Discovery.RequestsPerSecond <= 0 {
		return errors.New("invalid discovery.requests_per_second")
	}
	c := cfg.Cache
	if c.BondingCurveTTL <= 0 || c.MetadataTTL <= 0 || c.PriceTTL <= 0 || c.RecentTokensTTL <= 0 {
		return errors.New("cache TTLs must be positive")
	}
	if cfg.SOLPriceFallback <= 0 {
		return errors.New("invalid sol_price_fallback")
	}
	return nil
}

var urlCache sync.Map

func validateURLWithCache(rawURL string, protocol string) error {
	if _, ok := urlCache.Load(rawURL); ok {
		return nil
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return errors.New("invalid URL format")
	}
	if !strings.HasPrefix(parsed.Scheme, protocol) {
		return errors.New("invalid URL protocol")
	}
	urlCache.Store(rawURL, parsed)
	return nil
}
