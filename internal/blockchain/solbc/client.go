// internal/blockchain/solbc/client.go
package solbc

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/rovshanmuradov/openpump/internal/blockchain"
	"github.com/rovshanmuradov/openpump/internal/utils/metrics"
	"go.uber.org/zap"
)

// Client – тонкий read-only адаптер к Solana через solana-go (RPC + websocket).
type Client struct {
	rpc        *rpc.Client
	wsURL      string
	commitment rpc.CommitmentType
	metrics    *metrics.Collector
	logger     *zap.Logger
}

// IsAccountNotFoundError проверяет, является ли ошибка "not found"
func IsAccountNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, blockchain.ErrAccountNotFound) || errors.Is(err, rpc.ErrNotFound) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "not found")
}

// NewClient создаёт новый клиент, принимая RPC и websocket URL и логгер через dependency injection.
// An empty wsURL is derived from rpcURL.
func NewClient(rpcURL, wsURL string, m *metrics.Collector, logger *zap.Logger) *Client {
	if wsURL == "" {
		wsURL = DeriveWebsocketURL(rpcURL)
	}
	return &Client{
		rpc:        rpc.New(rpcURL),
		wsURL:      wsURL,
		commitment: rpc.CommitmentConfirmed,
		metrics:    m,
		logger:     logger.Named("solbc-client"),
	}
}

// DeriveWebsocketURL maps http(s) to ws(s).
func DeriveWebsocketURL(rpcURL string) string {
	switch {
	case strings.HasPrefix(rpcURL, "https://"):
		return "wss://" + strings.TrimPrefix(rpcURL, "https://")
	case strings.HasPrefix(rpcURL, "http://"):
		return "ws://" + strings.TrimPrefix(rpcURL, "http://")
	default:
		return rpcURL
	}
}

// GetAccountData получает сырые данные аккаунта.
func (c *Client) GetAccountData(ctx context.Context, account solana.PublicKey) ([]byte, error) {
	start := time.Now()
	result, err := c.rpc.GetAccountInfoWithOpts(ctx, account, &rpc.GetAccountInfoOpts{
		Encoding:   solana.EncodingBase64,
		Commitment: c.commitment,
	})
	c.metrics.RecordRPCLatency("getAccountInfo", time.Since(start), err)
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return nil, blockchain.ErrAccountNotFound
		}
		c.logger.Debug("GetAccountInfo error",
			zap.String("pubkey", account.String()),
			zap.Error(err))
		return nil, err
	}
	if result == nil || result.Value == nil {
		return nil, blockchain.ErrAccountNotFound
	}
	return result.Value.Data.GetBinary(), nil
}

// GetParsedTransaction получает транзакцию и приводит её к blockchain.ParsedTransaction.
func (c *Client) GetParsedTransaction(ctx context.Context, sig solana.Signature) (*blockchain.ParsedTransaction, error) {
	maxVersion := uint64(0)
	start := time.Now()
	result, err := c.rpc.GetTransaction(ctx, sig, &rpc.GetTransactionOpts{
		Encoding:                       solana.EncodingBase64,
		Commitment:                     c.commitment,
		MaxSupportedTransactionVersion: &maxVersion,
	})
	c.metrics.RecordRPCLatency("getTransaction", time.Since(start), err)
	if err != nil {
		c.logger.Debug("GetTransaction error",
			zap.String("signature", sig.String()),
			zap.Error(err))
		return nil, err
	}
	if result == nil || result.Transaction == nil {
		return nil, fmt.Errorf("transaction %s not found", sig)
	}

	tx, err := result.Transaction.GetTransaction()
	if err != nil {
		return nil, fmt.Errorf("failed to decode transaction %s: %w", sig, err)
	}

	parsed := convertTransaction(tx, result.Meta)
	parsed.Signature = sig
	parsed.Slot = result.Slot
	if result.BlockTime != nil {
		bt := result.BlockTime.Time()
		parsed.BlockTime = &bt
	}
	return parsed, nil
}

// GetSignaturesForAddress возвращает последние подписи для адреса, новые первыми.
func (c *Client) GetSignaturesForAddress(ctx context.Context, address solana.PublicKey, limit int) ([]blockchain.SignatureInfo, error) {
	start := time.Now()
	result, err := c.rpc.GetSignaturesForAddressWithOpts(ctx, address, &rpc.GetSignaturesForAddressOpts{
		Limit:      &limit,
		Commitment: c.commitment,
	})
	c.metrics.RecordRPCLatency("getSignaturesForAddress", time.Since(start), err)
	if err != nil {
		c.logger.Debug("GetSignaturesForAddress error",
			zap.String("address", address.String()),
			zap.Error(err))
		return nil, err
	}

	out := make([]blockchain.SignatureInfo, 0, len(result))
	for _, s := range result {
		if s == nil {
			continue
		}
		info := blockchain.SignatureInfo{
			Signature: s.Signature,
			Slot:      s.Slot,
			Err:       s.Err,
		}
		if s.BlockTime != nil {
			bt := s.BlockTime.Time()
			info.BlockTime = &bt
		}
		out = append(out, info)
	}
	return out, nil
}

// Гарантируем, что Client реализует интерфейс blockchain.Client.
var _ blockchain.Client = (*Client)(nil)
