// =============================
// File: internal/dex/pumpfun/token_calc.go
// =============================
package pumpfun

import (
	"fmt"
	"math"
	"math/big"
)

// SimulateBuy applies a buy of lamportsIn against the constant product
// k = vSol * vTok. Division floors, so newSol*newTok <= k and
// k - newSol*newTok < newSol.
func SimulateBuy(state *CurveState, lamportsIn uint64) (*BuyQuote, error) {
	if lamportsIn == 0 {
		return nil, ErrInvalidAmount
	}
	if state.VirtualSolReserves == 0 || state.VirtualTokenReserves == 0 {
		return nil, fmt.Errorf("empty reserves: %w", ErrValuationUnavailable)
	}

	vSol := new(big.Int).SetUint64(state.VirtualSolReserves)
	vTok := new(big.Int).SetUint64(state.VirtualTokenReserves)
	k := new(big.Int).Mul(vSol, vTok)

	newSol := new(big.Int).Add(vSol, new(big.Int).SetUint64(lamportsIn))
	if !newSol.IsUint64() {
		return nil, fmt.Errorf("sol reserves overflow: %w", ErrInvalidAmount)
	}
	newTok := new(big.Int).Quo(k, newSol)
	tokensOut := new(big.Int).Sub(vTok, newTok)

	quote := &BuyQuote{
		SolIn:          lamportsIn,
		TokensOut:      tokensOut.Uint64(),
		NewSolReserves: newSol.Uint64(),
		NewTokReserves: newTok.Uint64(),
	}
	quote.TokensOutUI = float64(quote.TokensOut) / TokenDecimalScale
	quote.NewPrice, quote.PriceImpact = priceMove(state, quote.NewSolReserves, quote.NewTokReserves)
	return quote, nil
}

// SimulateSell is the mirror of SimulateBuy for tokensIn raw token units.
func SimulateSell(state *CurveState, tokensIn uint64) (*SellQuote, error) {
	if tokensIn == 0 {
		return nil, ErrInvalidAmount
	}
	if state.VirtualSolReserves == 0 || state.VirtualTokenReserves == 0 {
		return nil, fmt.Errorf("empty reserves: %w", ErrValuationUnavailable)
	}

	vSol := new(big.Int).SetUint64(state.VirtualSolReserves)
	vTok := new(big.Int).SetUint64(state.VirtualTokenReserves)
	k := new(big.Int).Mul(vSol, vTok)

	newTok := new(big.Int).Add(vTok, new(big.Int).SetUint64(tokensIn))
	if !newTok.IsUint64() {
		return nil, fmt.Errorf("token reserves overflow: %w", ErrInvalidAmount)
	}
	newSol := new(big.Int).Quo(k, newTok)
	solOut := new(big.Int).Sub(vSol, newSol)

	quote := &SellQuote{
		TokensIn:       tokensIn,
		SolOut:         solOut.Uint64(),
		NewSolReserves: newSol.Uint64(),
		NewTokReserves: newTok.Uint64(),
	}
	quote.SolOutUI = float64(quote.SolOut) / LamportsPerSOL
	quote.NewPrice, quote.PriceImpact = priceMove(state, quote.NewSolReserves, quote.NewTokReserves)
	return quote, nil
}

// priceMove returns the post-trade raw price and the change in percent.
func priceMove(state *CurveState, newSol, newTok uint64) (float64, float64) {
	oldPrice := float64(state.VirtualSolReserves) / float64(state.VirtualTokenReserves)
	if newTok == 0 {
		return 0, 0
	}
	newPrice := float64(newSol) / float64(newTok)
	return newPrice, (newPrice - oldPrice) / oldPrice * 100
}

// Largest amounts whose base-unit value still fits in a uint64.
const (
	MaxSolAmount   = math.MaxUint64 / LamportsPerSOL
	MaxTokenAmount = math.MaxUint64 / TokenDecimalScale
)

// SolToLamports converts a SOL amount to lamports, truncating dust. It
// returns 0 for non-positive, NaN and out of range amounts.
func SolToLamports(sol float64) uint64 {
	if !(sol > 0) || sol >= MaxSolAmount {
		return 0
	}
	return uint64(sol * LamportsPerSOL)
}

// TokensToRaw converts whole tokens to raw base units. Same range rules as
// SolToLamports.
func TokensToRaw(tokens float64) uint64 {
	if !(tokens > 0) || tokens >= MaxTokenAmount {
		return 0
	}
	return uint64(tokens * TokenDecimalScale)
}
