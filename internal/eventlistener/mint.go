// internal/eventlistener/mint.go
package eventlistener

import (
	"bytes"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/rovshanmuradov/openpump/internal/blockchain"
	"github.com/rovshanmuradov/openpump/internal/dex/pumpfun"
)

// Account positions of the mint in platform instructions.
const (
	createMintIndex = 0
	tradeMintIndex  = 2
)

// Prefixes of well-known program and sysvar addresses that are never a mint.
var knownAccountPrefixes = []string{
	"11111111",
	"Token",
	"ATokenGP",
	"ComputeBudget",
	"Sysvar",
	"metaqbxx",
}

// ExtractMint finds the token mint a platform transaction acts on.
//
// Order: a top-level platform instruction decoded by its discriminator,
// then the first post-transaction token balance that is not wrapped SOL,
// then the first account key that is not the fee payer, a platform
// account or a well-known program. The last step is a heuristic and can
// pick the wrong key when a transaction creates several accounts.
func ExtractMint(tx *blockchain.ParsedTransaction, programID solana.PublicKey) (solana.PublicKey, bool) {
	if tx == nil {
		return solana.PublicKey{}, false
	}
	if mint, ok := mintFromInstructions(tx, programID); ok {
		return mint, true
	}
	if mint, ok := mintFromBalances(tx); ok {
		return mint, true
	}
	return mintFromAccountKeys(tx, programID)
}

func mintFromInstructions(tx *blockchain.ParsedTransaction, programID solana.PublicKey) (solana.PublicKey, bool) {
	for _, ix := range tx.Instructions {
		if !ix.ProgramID.Equals(programID) || len(ix.Data) < 8 {
			continue
		}
		disc := ix.Data[:8]
		switch {
		case bytes.Equal(disc, pumpfun.CreateDiscriminator[:]):
			if len(ix.Accounts) > createMintIndex {
				return ix.Accounts[createMintIndex], true
			}
		case bytes.Equal(disc, pumpfun.BuyDiscriminator[:]), bytes.Equal(disc, pumpfun.SellDiscriminator[:]):
			if len(ix.Accounts) > tradeMintIndex {
				return ix.Accounts[tradeMintIndex], true
			}
		}
	}
	return solana.PublicKey{}, false
}

func mintFromBalances(tx *blockchain.ParsedTransaction) (solana.PublicKey, bool) {
	for _, b := range tx.PostTokenBalances {
		if b.Mint.IsZero() || b.Mint.Equals(solana.SolMint) {
			continue
		}
		return b.Mint, true
	}
	return solana.PublicKey{}, false
}

func mintFromAccountKeys(tx *blockchain.ParsedTransaction, programID solana.PublicKey) (solana.PublicKey, bool) {
	payer := tx.FeePayer()
	for _, key := range tx.AccountKeys {
		if key.Equals(payer) || isPlatformAccount(key, programID) {
			continue
		}
		s := key.String()
		if hasKnownPrefix(s) || len(s) < 32 || len(s) > 44 {
			continue
		}
		return key, true
	}
	return solana.PublicKey{}, false
}

func isPlatformAccount(key, programID solana.PublicKey) bool {
	return key.Equals(programID) ||
		key.Equals(pumpfun.PumpFunGlobal) ||
		key.Equals(pumpfun.PumpFunFeeRecipient) ||
		key.Equals(pumpfun.PumpFunEventAuth)
}

func hasKnownPrefix(addr string) bool {
	for _, p := range knownAccountPrefixes {
		if strings.HasPrefix(addr, p) {
			return true
		}
	}
	return false
}
