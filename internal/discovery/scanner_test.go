package discovery

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/rovshanmuradov/openpump/internal/blockchain"
	"github.com/rovshanmuradov/openpump/internal/cache"
	"github.com/rovshanmuradov/openpump/internal/dex/pumpfun"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeChain struct {
	mu       sync.Mutex
	sigs     []blockchain.SignatureInfo
	sigErr   error
	txs      map[solana.Signature]*blockchain.ParsedTransaction
	fetched  int
	listings int
}

func (f *fakeChain) GetSignaturesForAddress(_ context.Context, _ solana.PublicKey, limit int) ([]blockchain.SignatureInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listings++
	if f.sigErr != nil {
		return nil, f.sigErr
	}
	if limit < len(f.sigs) {
		return f.sigs[:limit], nil
	}
	return f.sigs, nil
}

func (f *fakeChain) GetParsedTransaction(_ context.Context, sig solana.Signature) (*blockchain.ParsedTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetched++
	tx, ok := f.txs[sig]
	if !ok {
		return nil, errors.New("transaction not found")
	}
	return tx, nil
}

type fakeValuator map[solana.PublicKey]*pumpfun.Valuation

func (f fakeValuator) ValuateKey(_ context.Context, mint solana.PublicKey) (*pumpfun.Valuation, error) {
	if v, ok := f[mint]; ok {
		return v, nil
	}
	return nil, pumpfun.ErrValuationUnavailable
}

func newSig(b byte) solana.Signature {
	var s solana.Signature
	s[0] = b
	s[63] = 1
	return s
}

// addCreation registers a transaction whose post balances point at mint.
func (f *fakeChain) addCreation(b byte, mint, payer solana.PublicKey, at time.Time) {
	sig := newSig(b)
	f.sigs = append(f.sigs, blockchain.SignatureInfo{Signature: sig, BlockTime: &at})
	f.txs[sig] = &blockchain.ParsedTransaction{
		Signature:         sig,
		AccountKeys:       []solana.PublicKey{payer, mint},
		PostTokenBalances: []blockchain.TokenBalance{{Mint: mint, Owner: payer}},
	}
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.RequestsPerSecond = 1000
	return cfg
}

func TestDiscoverRecentTokens(t *testing.T) {
	chain := &fakeChain{txs: map[solana.Signature]*blockchain.ParsedTransaction{}}
	payer := solana.NewWallet().PublicKey()
	mintA := solana.NewWallet().PublicKey()
	mintB := solana.NewWallet().PublicKey()
	noCurve := solana.NewWallet().PublicKey()
	at := time.Unix(1_700_000_000, 0)

	chain.addCreation(1, mintA, payer, at)
	chain.addCreation(2, mintA, payer, at) // trade on the same mint
	chain.addCreation(3, noCurve, payer, at)
	chain.sigs = append(chain.sigs, blockchain.SignatureInfo{Signature: newSig(4)}) // fetch fails
	chain.sigs = append(chain.sigs, blockchain.SignatureInfo{Signature: newSig(5), Err: "failed"})
	chain.addCreation(6, mintB, payer, at)

	curves := fakeValuator{
		mintA: {Progress: 10, Category: pumpfun.CategoryNew},
		mintB: {Progress: 75, Category: pumpfun.CategoryFinalStretch},
	}

	s := NewScanner(chain, curves, cache.NewMemory(), testConfig(), nil, zap.NewNop())
	found := s.DiscoverRecentTokens(context.Background(), 10)

	require.Len(t, found, 2)
	assert.Equal(t, mintA.String(), found[0].Mint)
	assert.Equal(t, payer.String(), found[0].Creator)
	assert.Equal(t, at.Unix(), found[0].CreatedTimestamp)
	assert.Equal(t, newSig(1).String(), found[0].Signature)
	assert.Equal(t, mintB.String(), found[1].Mint)
	assert.Equal(t, pumpfun.CategoryFinalStretch, found[1].Valuation.Category)

	// served from cache on the second call
	again := s.DiscoverRecentTokens(context.Background(), 1)
	require.Len(t, again, 1)
	assert.Equal(t, 1, chain.listings)
}

func TestDiscoverRecentTokens_StopsAtLimit(t *testing.T) {
	chain := &fakeChain{txs: map[solana.Signature]*blockchain.ParsedTransaction{}}
	curves := fakeValuator{}
	payer := solana.NewWallet().PublicKey()
	for i := byte(1); i <= 20; i++ {
		mint := solana.NewWallet().PublicKey()
		curves[mint] = &pumpfun.Valuation{}
		chain.addCreation(i, mint, payer, time.Now())
	}

	s := NewScanner(chain, curves, nil, testConfig(), nil, zap.NewNop())
	found := s.DiscoverRecentTokens(context.Background(), 3)

	assert.Len(t, found, 3)
	assert.Equal(t, 3, chain.fetched)
}

func TestDiscoverRecentTokens_ScanLimit(t *testing.T) {
	chain := &fakeChain{txs: map[solana.Signature]*blockchain.ParsedTransaction{}}
	payer := solana.NewWallet().PublicKey()
	for i := byte(1); i <= 20; i++ {
		chain.addCreation(i, solana.NewWallet().PublicKey(), payer, time.Now())
	}

	cfg := testConfig()
	cfg.ScanLimit = 5
	s := NewScanner(chain, fakeValuator{}, nil, cfg, nil, zap.NewNop())

	assert.Empty(t, s.DiscoverRecentTokens(context.Background(), 10))
	assert.Equal(t, 5, chain.fetched)
}

func TestDiscoverRecentTokens_NeverErrors(t *testing.T) {
	chain := &fakeChain{sigErr: errors.New("rpc down")}
	s := NewScanner(chain, fakeValuator{}, nil, testConfig(), nil, zap.NewNop())

	assert.Empty(t, s.DiscoverRecentTokens(context.Background(), 10))
	assert.Nil(t, s.DiscoverRecentTokens(context.Background(), 0))
}

func TestDiscoverRecentTokens_Cancelled(t *testing.T) {
	chain := &fakeChain{txs: map[solana.Signature]*blockchain.ParsedTransaction{}}
	curves := fakeValuator{}
	payer := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()
	curves[mint] = &pumpfun.Valuation{}
	chain.addCreation(1, mint, payer, time.Now())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewScanner(chain, curves, nil, testConfig(), nil, zap.NewNop())
	assert.Empty(t, s.DiscoverRecentTokens(ctx, 10))
}
