// =============================
// File: internal/dex/pumpfun/config.go
// =============================
package pumpfun

import (
	"time"

	"github.com/gagliardetto/solana-go"
)

// Known Pump.fun protocol addresses
var (
	// Program ID for Pump.fun protocol
	PumpFunProgramID = solana.MustPublicKeyFromBase58("6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P")

	// Event authority for the Pump.fun protocol
	PumpFunEventAuth = solana.MustPublicKeyFromBase58("Ce6TQqeHC9p8KetsN6JsjHK7UTZk7nasjjnr7XxXp9F1")

	// Global state account of the protocol
	PumpFunGlobal = solana.MustPublicKeyFromBase58("4wTV1YmiEkRvAtNtsSGPtUrqRYQMe5SKy2uB4Jjaxnjf")

	// Fee recipient used by the protocol
	PumpFunFeeRecipient = solana.MustPublicKeyFromBase58("CebN5WGQ4jvEPvsVU4EoHEpgzq1VV7AbicfhtW4xC9iM")
)

// Curve economics
const (
	// GraduationThresholdSOL is the amount of real SOL a curve must raise to complete.
	GraduationThresholdSOL = 85.0

	// LamportsPerSOL converts lamports to SOL.
	LamportsPerSOL = 1e9

	// TokenDecimalScale converts raw token units to whole tokens (6 decimals).
	TokenDecimalScale = 1e6

	// DefaultTotalSupply is the raw total supply used when the account reports none.
	DefaultTotalSupply uint64 = 1_000_000_000_000_000
)

// Progress category thresholds, in percent.
const (
	finalStretchThreshold = 70.0
	risingThreshold       = 20.0
)

const bondingCurveSeed = "bonding-curve"

// Config holds the tunables of the curve service.
type Config struct {
	ProgramID solana.PublicKey

	// CacheTTL is how long a decoded curve state is served from cache.
	CacheTTL time.Duration
}

// GetDefaultConfig creates a default configuration for the curve service
func GetDefaultConfig() *Config {
	return &Config{
		ProgramID: PumpFunProgramID,
		CacheTTL:  30 * time.Second,
	}
}
