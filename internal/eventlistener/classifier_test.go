package eventlistener

import (
	"testing"

	"github.com/rovshanmuradov/openpump/internal/dex/pumpfun"
	"github.com/stretchr/testify/assert"
)

const (
	computeBudget = "ComputeBudget111111111111111111111111111111"
	ataProgram    = "ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL"
)

func pumpInvoke(depth string) string {
	return "Program " + pumpfun.PumpFunProgramID.String() + " invoke [" + depth + "]"
}

func pumpSuccess() string {
	return "Program " + pumpfun.PumpFunProgramID.String() + " success"
}

func TestClassify(t *testing.T) {
	program := pumpfun.PumpFunProgramID

	tests := []struct {
		name string
		logs []string
		want Kind
	}{
		{"empty", nil, KindNone},
		{"unframed create", []string{"Program log: Instruction: Create"}, KindCreation},
		{"unframed sell", []string{"Program log: Instruction: Sell"}, KindSell},
		{
			"framed buy",
			[]string{
				"Program " + computeBudget + " invoke [1]",
				"Program " + computeBudget + " success",
				pumpInvoke("1"),
				"Program log: Instruction: Buy",
				pumpSuccess(),
			},
			KindBuy,
		},
		{
			"create wins over buy",
			[]string{
				pumpInvoke("1"),
				"Program log: Instruction: Create",
				pumpSuccess(),
				pumpInvoke("1"),
				"Program log: Instruction: Buy",
				pumpSuccess(),
			},
			KindCreation,
		},
		{
			"buy wins over sell",
			[]string{"Program log: Instruction: Sell", "Program log: Instruction: Buy"},
			KindBuy,
		},
		{
			"other program create is ignored",
			[]string{
				pumpInvoke("1"),
				"Program log: Instruction: Sell",
				"Program " + ataProgram + " invoke [2]",
				"Program log: Instruction: Create",
				"Program " + ataProgram + " success",
				pumpSuccess(),
			},
			KindSell,
		},
		{
			"substring is not a match",
			[]string{"Program log: Instruction: CreateIdempotent", "Program log: Instruction: Buyback"},
			KindNone,
		},
		{
			"lines outside any frame are ignored",
			[]string{
				"Program log: Instruction: Create",
				pumpInvoke("1"),
				pumpSuccess(),
			},
			KindNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.logs, program))
		})
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "creation", KindCreation.String())
	assert.Equal(t, "buy", KindBuy.String())
	assert.Equal(t, "sell", KindSell.String())
	assert.Equal(t, "none", KindNone.String())
}
