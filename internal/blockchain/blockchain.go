// internal/blockchain/blockchain.go
package blockchain

import (
	"context"
	"errors"

	"github.com/gagliardetto/solana-go"
)

// ErrAccountNotFound is returned by AccountReader when the account does not exist.
var ErrAccountNotFound = errors.New("account not found")

// ErrSubscriptionClosed is returned by Recv after Unsubscribe or when the
// underlying stream went away.
var ErrSubscriptionClosed = errors.New("log subscription closed")

// LogSubscription is a live log stream for one program.
type LogSubscription interface {
	// ID is a process-local identifier of the subscription.
	ID() uint64
	// Recv blocks until the next message, ctx cancellation or stream failure.
	Recv(ctx context.Context) (*LogMessage, error)
	// Unsubscribe releases the stream and unblocks a pending Recv. Safe to
	// call more than once.
	Unsubscribe()
}

// LogStreamer opens log subscriptions mentioning a program.
type LogStreamer interface {
	SubscribeLogs(ctx context.Context, program solana.PublicKey) (LogSubscription, error)
}

// TransactionFetcher получает разобранную транзакцию по подписи.
type TransactionFetcher interface {
	GetParsedTransaction(ctx context.Context, sig solana.Signature) (*ParsedTransaction, error)
}

// AccountReader reads raw account data.
type AccountReader interface {
	GetAccountData(ctx context.Context, account solana.PublicKey) ([]byte, error)
}

// SignatureLister lists the most recent signatures mentioning an address, newest first.
type SignatureLister interface {
	GetSignaturesForAddress(ctx context.Context, address solana.PublicKey, limit int) ([]SignatureInfo, error)
}

// Client is everything the service reads from the chain.
type Client interface {
	LogStreamer
	TransactionFetcher
	AccountReader
	SignatureLister
}
