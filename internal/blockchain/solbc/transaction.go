// internal/blockchain/solbc/transaction.go
package solbc

import (
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/rovshanmuradov/openpump/internal/blockchain"
)

// convertTransaction resolves account indices against static plus loaded
// keys and copies the meta fields the pipeline reads.
func convertTransaction(tx *solana.Transaction, meta *rpc.TransactionMeta) *blockchain.ParsedTransaction {
	keys := make([]solana.PublicKey, 0, len(tx.Message.AccountKeys))
	keys = append(keys, tx.Message.AccountKeys...)
	if meta != nil {
		// Порядок для v0: статические, затем загруженные writable, затем readonly
		keys = append(keys, meta.LoadedAddresses.Writable...)
		keys = append(keys, meta.LoadedAddresses.ReadOnly...)
	}

	parsed := &blockchain.ParsedTransaction{
		AccountKeys:  keys,
		Instructions: make([]blockchain.Instruction, 0, len(tx.Message.Instructions)),
	}

	for _, ci := range tx.Message.Instructions {
		if int(ci.ProgramIDIndex) >= len(keys) {
			continue
		}
		ix := blockchain.Instruction{
			ProgramID: keys[ci.ProgramIDIndex],
			Accounts:  make([]solana.PublicKey, 0, len(ci.Accounts)),
			Data:      []byte(ci.Data),
		}
		for _, idx := range ci.Accounts {
			if int(idx) < len(keys) {
				ix.Accounts = append(ix.Accounts, keys[idx])
			}
		}
		parsed.Instructions = append(parsed.Instructions, ix)
	}

	if meta == nil {
		return parsed
	}

	parsed.Err = meta.Err
	parsed.LogMessages = meta.LogMessages
	for _, b := range meta.PostTokenBalances {
		tb := blockchain.TokenBalance{
			AccountIndex: b.AccountIndex,
			Mint:         b.Mint,
		}
		if b.Owner != nil {
			tb.Owner = *b.Owner
		}
		parsed.PostTokenBalances = append(parsed.PostTokenBalances, tb)
	}
	return parsed
}
