package pumpfun

import (
	"errors"
	"math"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMint = "So11111111111111111111111111111111111111112"

func TestDeriveBondingCurve_Deterministic(t *testing.T) {
	first, err := DeriveBondingCurve(testMint)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := DeriveBondingCurve(testMint)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}

	byKey, err := DeriveBondingCurveFromKey(solana.MustPublicKeyFromBase58(testMint))
	require.NoError(t, err)
	assert.Equal(t, first, byKey)

	expected, _, err := solana.FindProgramAddress(
		[][]byte{[]byte("bonding-curve"), solana.MustPublicKeyFromBase58(testMint).Bytes()},
		PumpFunProgramID,
	)
	require.NoError(t, err)
	assert.Equal(t, expected, first)
}

func TestDeriveBondingCurve_InvalidAddress(t *testing.T) {
	for _, mint := range []string{"", "   ", "not-base58-0OIl", "abc", "3yZe7d"} {
		_, err := DeriveBondingCurve(mint)
		assert.ErrorIs(t, err, ErrInvalidAddress, "mint %q", mint)
	}
}

func TestDecodeBondingCurve_RoundTrip(t *testing.T) {
	in := &CurveState{
		VirtualTokenReserves: 900_000_000_000,
		VirtualSolReserves:   30_000_000_000,
		RealTokenReserves:    620_000_000_000,
		RealSolReserves:      12_500_000_000,
		TokenTotalSupply:     DefaultTotalSupply,
		Complete:             true,
	}
	data, err := EncodeBondingCurve(in)
	require.NoError(t, err)
	require.Len(t, data, bondingCurveMinLen)

	// trailing fields such as the creator key are ignored
	data = append(data, make([]byte, 32)...)

	out, err := DecodeBondingCurve(data)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestDecodeBondingCurve_Rejects(t *testing.T) {
	valid, err := EncodeBondingCurve(&CurveState{VirtualSolReserves: 1, VirtualTokenReserves: 1})
	require.NoError(t, err)

	foreign := append([]byte(nil), valid...)
	copy(foreign[:8], []byte{1, 2, 3, 4, 5, 6, 7, 8})

	cases := map[string][]byte{
		"nil":           nil,
		"empty":         {},
		"short":         valid[:20],
		"one byte less": valid[:len(valid)-1],
		"uninitialized": make([]byte, 256),
		"foreign":       foreign,
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			var state *CurveState
			assert.NotPanics(t, func() {
				state, err = DecodeBondingCurve(data)
			})
			assert.Nil(t, state)
			assert.True(t, errors.Is(err, ErrDecode))
		})
	}
}

func TestValuate_GraduationBoundary(t *testing.T) {
	v := Valuate(&CurveState{
		VirtualTokenReserves: 279_900_000_000_000,
		VirtualSolReserves:   115_005_359_056,
		RealSolReserves:      85 * 1_000_000_000,
		TokenTotalSupply:     DefaultTotalSupply,
	})
	assert.Equal(t, 100.0, v.Progress)
	assert.Equal(t, CategoryGraduated, v.Category)
	assert.Equal(t, 0.0, v.SolRemaining)
	assert.False(t, v.Complete)
}

func TestValuate_MidCurve(t *testing.T) {
	state := &CurveState{
		Mint:                 solana.MustPublicKeyFromBase58(testMint),
		VirtualTokenReserves: 900_000_000_000,
		VirtualSolReserves:   30_000_000_000,
		RealTokenReserves:    620_000_000_000,
		RealSolReserves:      17_000_000_000,
		TokenTotalSupply:     DefaultTotalSupply,
	}
	v := Valuate(state)

	assert.Equal(t, testMint, v.Mint)
	assert.Equal(t, 17.0, v.SolRaised)
	assert.Equal(t, 20.0, v.Progress)
	assert.Equal(t, CategoryRising, v.Category)
	assert.InDelta(t, 68.0, v.SolRemaining, 1e-9)

	price := 30_000_000_000.0 / 900_000_000_000.0
	assert.InDelta(t, price, v.CurrentPrice, 1e-12)
	assert.InDelta(t, price*1e6/1e9, v.PriceSOL, 1e-15)
	assert.InDelta(t, float64(DefaultTotalSupply-620_000_000_000)*price/1e9, v.MarketCap, 1e-6)
	assert.Equal(t, 30.0, v.VirtualSolReserves)
	assert.Equal(t, 900_000.0, v.VirtualTokenReserves)
}

func TestValuate_ZeroReserves(t *testing.T) {
	v := Valuate(&CurveState{})
	assert.Equal(t, 0.0, v.Progress)
	assert.Equal(t, 0.0, v.CurrentPrice)
	assert.Equal(t, CategoryUnknown, v.Category)
	assert.False(t, math.IsNaN(v.MarketCap))
}

func TestProgress_MonotonicAndClamped(t *testing.T) {
	prev := -1.0
	for lamports := uint64(0); lamports <= 120_000_000_000; lamports += 250_000_000 {
		p := Progress(lamports)
		assert.GreaterOrEqual(t, p, prev)
		assert.LessOrEqual(t, p, 100.0)
		if lamports >= 85_000_000_000 {
			assert.Equal(t, 100.0, p)
		}
		prev = p
	}
}

func TestCategorize_Totality(t *testing.T) {
	expect := func(complete bool, p float64) Category {
		if complete || p >= 100 {
			return CategoryGraduated
		}
		if p >= 70 {
			return CategoryFinalStretch
		}
		if p >= 20 {
			return CategoryRising
		}
		if p > 0 {
			return CategoryNew
		}
		return CategoryUnknown
	}

	valid := map[Category]bool{
		CategoryGraduated: true, CategoryFinalStretch: true, CategoryRising: true,
		CategoryNew: true, CategoryUnknown: true,
	}
	for _, complete := range []bool{false, true} {
		for p := -1.0; p <= 101; p += 0.25 {
			got := Categorize(complete, p)
			assert.True(t, valid[got])
			assert.Equal(t, expect(complete, p), got, "complete=%v progress=%v", complete, p)
		}
	}

	assert.Equal(t, CategoryFinalStretch, Categorize(false, 70))
	assert.Equal(t, CategoryRising, Categorize(false, 69.999))
	assert.Equal(t, CategoryNew, Categorize(false, 0.01))
	assert.Equal(t, CategoryUnknown, Categorize(false, 0))
	assert.Equal(t, CategoryGraduated, Categorize(true, 0))
}
