package eventlistener

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/rovshanmuradov/openpump/internal/blockchain"
	"github.com/rovshanmuradov/openpump/internal/dex/pumpfun"
	"github.com/stretchr/testify/assert"
)

func newKey() solana.PublicKey {
	return solana.NewWallet().PublicKey()
}

func ixData(disc [8]byte) []byte {
	return append(disc[:], 1, 2, 3, 4)
}

func TestExtractMint_FromInstruction(t *testing.T) {
	program := pumpfun.PumpFunProgramID
	payer, mint, curve := newKey(), newKey(), newKey()

	create := &blockchain.ParsedTransaction{
		AccountKeys: []solana.PublicKey{payer, curve, mint},
		Instructions: []blockchain.Instruction{
			{ProgramID: solana.MustPublicKeyFromBase58(computeBudget), Data: []byte{2, 0, 0, 0}},
			{ProgramID: program, Accounts: []solana.PublicKey{mint, newKey(), curve}, Data: ixData(pumpfun.CreateDiscriminator)},
		},
	}
	got, ok := ExtractMint(create, program)
	assert.True(t, ok)
	assert.Equal(t, mint, got)

	buy := &blockchain.ParsedTransaction{
		AccountKeys: []solana.PublicKey{payer, curve, mint},
		Instructions: []blockchain.Instruction{
			{ProgramID: program, Accounts: []solana.PublicKey{pumpfun.PumpFunGlobal, pumpfun.PumpFunFeeRecipient, mint}, Data: ixData(pumpfun.SellDiscriminator)},
		},
	}
	got, ok = ExtractMint(buy, program)
	assert.True(t, ok)
	assert.Equal(t, mint, got)
}

func TestExtractMint_FromBalances(t *testing.T) {
	payer, mint := newKey(), newKey()
	tx := &blockchain.ParsedTransaction{
		AccountKeys: []solana.PublicKey{payer, newKey()},
		Instructions: []blockchain.Instruction{
			// unknown discriminator
			{ProgramID: pumpfun.PumpFunProgramID, Accounts: []solana.PublicKey{newKey()}, Data: []byte{9, 9, 9, 9, 9, 9, 9, 9}},
		},
		PostTokenBalances: []blockchain.TokenBalance{
			{Mint: solana.SolMint, Owner: payer},
			{Mint: mint, Owner: payer},
		},
	}
	got, ok := ExtractMint(tx, pumpfun.PumpFunProgramID)
	assert.True(t, ok)
	assert.Equal(t, mint, got)
}

func TestExtractMint_Heuristic(t *testing.T) {
	payer, mint := newKey(), newKey()
	tx := &blockchain.ParsedTransaction{
		AccountKeys: []solana.PublicKey{
			payer,
			pumpfun.PumpFunProgramID,
			pumpfun.PumpFunGlobal,
			solana.SystemProgramID,
			solana.TokenProgramID,
			solana.SysVarRentPubkey,
			mint,
		},
	}
	got, ok := ExtractMint(tx, pumpfun.PumpFunProgramID)
	assert.True(t, ok)
	assert.Equal(t, mint, got)
}

func TestExtractMint_Nothing(t *testing.T) {
	_, ok := ExtractMint(nil, pumpfun.PumpFunProgramID)
	assert.False(t, ok)

	payer := newKey()
	_, ok = ExtractMint(&blockchain.ParsedTransaction{
		AccountKeys: []solana.PublicKey{payer, pumpfun.PumpFunProgramID, solana.SystemProgramID},
	}, pumpfun.PumpFunProgramID)
	assert.False(t, ok)
}
