// ==============================================
// File: internal/dex/pumpfun/bonding_curve.go
// ==============================================
package pumpfun

import (
	"bytes"
	"fmt"
	"math"
	"time"

	bin "github.com/gagliardetto/binary"
)

// bondingCurveMinLen is the discriminator plus five u64 and one bool.
const bondingCurveMinLen = 8 + 5*8 + 1

// DecodeBondingCurve decodes raw bonding curve account data.
// Data that is short, uninitialized or owned by another layout returns ErrDecode.
func DecodeBondingCurve(data []byte) (*CurveState, error) {
	if len(data) < bondingCurveMinLen {
		return nil, fmt.Errorf("account data too short (%d bytes): %w", len(data), ErrDecode)
	}
	if !bytes.Equal(data[:8], BondingCurveDiscriminator[:]) {
		return nil, fmt.Errorf("discriminator mismatch: %w", ErrDecode)
	}

	var layout bondingCurveLayout
	if err := bin.NewBorshDecoder(data[8:]).Decode(&layout); err != nil {
		return nil, fmt.Errorf("borsh: %v: %w", err, ErrDecode)
	}

	return &CurveState{
		VirtualTokenReserves: layout.VirtualTokenReserves,
		VirtualSolReserves:   layout.VirtualSolReserves,
		RealTokenReserves:    layout.RealTokenReserves,
		RealSolReserves:      layout.RealSolReserves,
		TokenTotalSupply:     layout.TokenTotalSupply,
		Complete:             layout.Complete,
	}, nil
}

// EncodeBondingCurve is the inverse of DecodeBondingCurve. It is used to
// build fixture accounts.
func EncodeBondingCurve(state *CurveState) ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.Write(BondingCurveDiscriminator[:])
	layout := bondingCurveLayout{
		VirtualTokenReserves: state.VirtualTokenReserves,
		VirtualSolReserves:   state.VirtualSolReserves,
		RealTokenReserves:    state.RealTokenReserves,
		RealSolReserves:      state.RealSolReserves,
		TokenTotalSupply:     state.TokenTotalSupply,
		Complete:             state.Complete,
	}
	if err := bin.NewBorshEncoder(buf).Encode(layout); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Categorize maps curve completion and unrounded progress to a category.
func Categorize(complete bool, progress float64) Category {
	switch {
	case complete || progress >= 100:
		return CategoryGraduated
	case progress >= finalStretchThreshold:
		return CategoryFinalStretch
	case progress >= risingThreshold:
		return CategoryRising
	case progress > 0:
		return CategoryNew
	default:
		return CategoryUnknown
	}
}

// Progress returns the unrounded graduation progress in percent, clamped to 100.
func Progress(realSolReserves uint64) float64 {
	solRaised := float64(realSolReserves) / LamportsPerSOL
	return math.Min(100, solRaised/GraduationThresholdSOL*100)
}

// Valuate computes the display valuation of a curve state.
func Valuate(state *CurveState) *Valuation {
	solRaised := float64(state.RealSolReserves) / LamportsPerSOL
	progress := Progress(state.RealSolReserves)

	var price float64
	if state.VirtualTokenReserves > 0 {
		price = float64(state.VirtualSolReserves) / float64(state.VirtualTokenReserves)
	}

	supply := state.TokenTotalSupply
	if supply == 0 {
		supply = DefaultTotalSupply
	}
	var circulating uint64
	if supply > state.RealTokenReserves {
		circulating = supply - state.RealTokenReserves
	}

	v := &Valuation{
		Progress:             round2(progress),
		SolRaised:            solRaised,
		SolRemaining:         math.Max(0, GraduationThresholdSOL-solRaised),
		VirtualSolReserves:   float64(state.VirtualSolReserves) / LamportsPerSOL,
		VirtualTokenReserves: float64(state.VirtualTokenReserves) / TokenDecimalScale,
		RealSolReserves:      solRaised,
		RealTokenReserves:    float64(state.RealTokenReserves) / TokenDecimalScale,
		CurrentPrice:         price,
		PriceSOL:             price * TokenDecimalScale / LamportsPerSOL,
		MarketCap:            float64(circulating) * price / LamportsPerSOL,
		Category:             Categorize(state.Complete, progress),
		Complete:             state.Complete,
		CreatedAt:            time.Now().UTC(),
	}
	if !state.Mint.IsZero() {
		v.Mint = state.Mint.String()
	}
	if !state.BondingCurve.IsZero() {
		v.BondingCurve = state.BondingCurve.String()
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
