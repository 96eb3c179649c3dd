// internal/blockchain/types.go
package blockchain

import (
	"time"

	"github.com/gagliardetto/solana-go"
)

// LogMessage – одно уведомление logsSubscribe.
type LogMessage struct {
	Signature solana.Signature
	Slot      uint64
	// Err is non-nil when the transaction failed on chain.
	Err  interface{}
	Logs []string
}

// TokenBalance is a post-transaction token balance entry.
type TokenBalance struct {
	AccountIndex uint16
	Mint         solana.PublicKey
	Owner        solana.PublicKey
}

// Instruction is a compiled instruction with its account indices resolved.
type Instruction struct {
	ProgramID solana.PublicKey
	Accounts  []solana.PublicKey
	Data      []byte
}

// ParsedTransaction – транзакция, приведённая к тем полям, которые читает пайплайн.
type ParsedTransaction struct {
	Signature solana.Signature
	Slot      uint64
	BlockTime *time.Time

	// AccountKeys holds static keys followed by loaded writable and readonly keys.
	// AccountKeys[0] is the fee payer.
	AccountKeys       []solana.PublicKey
	Instructions      []Instruction
	PostTokenBalances []TokenBalance
	LogMessages       []string
	Err               interface{}
}

// FeePayer returns the first account key, or the zero key for an empty message.
func (tx *ParsedTransaction) FeePayer() solana.PublicKey {
	if tx == nil || len(tx.AccountKeys) == 0 {
		return solana.PublicKey{}
	}
	return tx.AccountKeys[0]
}

// SignatureInfo is one entry of getSignaturesForAddress.
type SignatureInfo struct {
	Signature solana.Signature
	Slot      uint64
	BlockTime *time.Time
	Err       interface{}
}
