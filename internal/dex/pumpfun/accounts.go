// =============================
// File: internal/dex/pumpfun/accounts.go
// =============================
package pumpfun

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
)

// Anchor discriminators of the accounts, instructions and events we read.
var (
	BondingCurveDiscriminator = anchorDiscriminator("account", "BondingCurve")

	CreateDiscriminator = anchorDiscriminator("global", "create")
	BuyDiscriminator    = anchorDiscriminator("global", "buy")
	SellDiscriminator   = anchorDiscriminator("global", "sell")

	TradeEventDiscriminator = anchorDiscriminator("event", "TradeEvent")
)

func anchorDiscriminator(namespace, name string) [8]byte {
	sum := sha256.Sum256([]byte(namespace + ":" + name))
	var d [8]byte
	copy(d[:], sum[:8])
	return d
}

// ParseMint validates a base58 mint address.
func ParseMint(mint string) (solana.PublicKey, error) {
	mint = strings.TrimSpace(mint)
	if mint == "" {
		return solana.PublicKey{}, fmt.Errorf("empty mint: %w", ErrInvalidAddress)
	}
	key, err := solana.PublicKeyFromBase58(mint)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("mint %q: %v: %w", mint, err, ErrInvalidAddress)
	}
	return key, nil
}

// DeriveBondingCurve returns the bonding curve PDA for a base58 mint.
func DeriveBondingCurve(mint string) (solana.PublicKey, error) {
	key, err := ParseMint(mint)
	if err != nil {
		return solana.PublicKey{}, err
	}
	return DeriveBondingCurveFromKey(key)
}

// DeriveBondingCurveFromKey returns the PDA of seeds ["bonding-curve", mint]
// under the Pump.fun program.
func DeriveBondingCurveFromKey(mint solana.PublicKey) (solana.PublicKey, error) {
	return deriveBondingCurveFor(mint, PumpFunProgramID)
}

func deriveBondingCurveFor(mint, programID solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress(
		[][]byte{[]byte(bondingCurveSeed), mint.Bytes()},
		programID,
	)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to derive bonding curve: %v: %w", err, ErrInvalidAddress)
	}
	return addr, nil
}
