package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, DefaultRPCURL, cfg.RPCURL)
	assert.Equal(t, DefaultListenAddr, cfg.ListenAddr)
	assert.Equal(t, 10000, cfg.DedupCapacity)
	assert.Equal(t, int64(32), cfg.MaxInFlight)
	assert.Equal(t, 100, cfg.Discovery.SignatureLimit)
	assert.Equal(t, 50, cfg.Discovery.ScanLimit)
	assert.Equal(t, 300, cfg.Cache.MetadataTTL)
	assert.Equal(t, DefaultRPCURL, cfg.DASURL())
}

func TestLoadConfig_File(t *testing.T) {
	path := writeConfig(t, `{
		"rpc_url": "https://rpc.example.com",
		"websocket_url": "wss://rpc.example.com",
		"redis_url": "redis://localhost:6379/0",
		"discovery": {"scan_limit": 20},
		"cache": {"price_ttl": 5},
		"ipfs_gateways": ["https://ipfs.example/ipfs/"]
	}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "https://rpc.example.com", cfg.RPCURL)
	assert.Equal(t, "wss://rpc.example.com", cfg.WebSocketURL)
	assert.Equal(t, 20, cfg.Discovery.ScanLimit)
	assert.Equal(t, 100, cfg.Discovery.SignatureLimit)
	assert.Equal(t, 5, cfg.Cache.PriceTTL)
	assert.Equal(t, []string{"https://ipfs.example/ipfs/"}, cfg.IPFSGateways)
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("OPENPUMP_HELIUS_API_KEY", "secret")
	t.Setenv("OPENPUMP_DISCOVERY_SCAN_LIMIT", "7")
	t.Setenv("OPENPUMP_DEBUG_LOGGING", "true")
	t.Setenv("OPENPUMP_IPFS_GATEWAYS", "https://a.example/ipfs/, https://b.example/ipfs/")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Discovery.ScanLimit)
	assert.True(t, cfg.DebugLogging)
	assert.Equal(t, "https://mainnet.helius-rpc.com/?api-key=secret", cfg.RPCURL)
	assert.Equal(t, cfg.RPCURL, cfg.DASURL())
	assert.Equal(t, []string{"https://a.example/ipfs/", "https://b.example/ipfs/"}, cfg.IPFSGateways)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := map[string]string{
		"ws scheme for rpc": `{"rpc_url": "wss://rpc.example.com"}`,
		"http websocket":    `{"websocket_url": "http://rpc.example.com"}`,
		"bad redis":         `{"redis_url": "http://cache"}`,
		"zero dedup":        `{"dedup_capacity": 0}`,
		"negative inflight": `{"max_inflight": -1}`,
		"zero scan limit":   `{"discovery": {"scan_limit": 0}}`,
		"too many sigs":     `{"discovery": {"signature_limit": 5000}}`,
		"zero ttl":          `{"cache": {"metadata_ttl": 0}}`,
		"bad ipfs gateway":  `{"ipfs_gateways": ["ftp://gw"]}`,
		"zero fallback":     `{"sol_price_fallback": 0}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
