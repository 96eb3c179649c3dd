package solbc

import (
	"bytes"
	"context"
	"errors"
	"testing"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/rovshanmuradov/openpump/internal/blockchain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveWebsocketURL(t *testing.T) {
	assert.Equal(t, "wss://api.mainnet-beta.solana.com", DeriveWebsocketURL("https://api.mainnet-beta.solana.com"))
	assert.Equal(t, "ws://127.0.0.1:8899", DeriveWebsocketURL("http://127.0.0.1:8899"))
	assert.Equal(t, "wss://x", DeriveWebsocketURL("wss://x"))
}

func TestIsAccountNotFoundError(t *testing.T) {
	assert.False(t, IsAccountNotFoundError(nil))
	assert.True(t, IsAccountNotFoundError(blockchain.ErrAccountNotFound))
	assert.True(t, IsAccountNotFoundError(rpc.ErrNotFound))
	assert.False(t, IsAccountNotFoundError(errors.New("timeout")))
}

func TestConvertTransaction_ResolvesLoadedKeys(t *testing.T) {
	payer := solana.NewWallet().PublicKey()
	program := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()
	loadedW := solana.NewWallet().PublicKey()
	loadedR := solana.NewWallet().PublicKey()
	owner := solana.NewWallet().PublicKey()

	tx := &solana.Transaction{
		Message: solana.Message{
			AccountKeys: solana.PublicKeySlice{payer, program, mint},
			Instructions: []solana.CompiledInstruction{
				{ProgramIDIndex: 1, Accounts: []uint16{2, 0, 3, 4}, Data: solana.Base58{1, 2, 3}},
				{ProgramIDIndex: 9, Accounts: []uint16{0}},
			},
		},
	}
	meta := &rpc.TransactionMeta{
		LogMessages: []string{"Program log: Instruction: Create"},
		LoadedAddresses: rpc.LoadedAddresses{
			Writable: solana.PublicKeySlice{loadedW},
			ReadOnly: solana.PublicKeySlice{loadedR},
		},
		PostTokenBalances: []rpc.TokenBalance{
			{AccountIndex: 3, Mint: mint, Owner: &owner},
		},
	}

	parsed := convertTransaction(tx, meta)

	assert.Equal(t, []solana.PublicKey{payer, program, mint, loadedW, loadedR}, parsed.AccountKeys)
	assert.Equal(t, payer, parsed.FeePayer())
	require.Len(t, parsed.Instructions, 1, "out-of-range program index is skipped")
	ix := parsed.Instructions[0]
	assert.Equal(t, program, ix.ProgramID)
	assert.Equal(t, []solana.PublicKey{mint, payer, loadedW, loadedR}, ix.Accounts)
	assert.Equal(t, []byte{1, 2, 3}, ix.Data)
	require.Len(t, parsed.PostTokenBalances, 1)
	assert.Equal(t, mint, parsed.PostTokenBalances[0].Mint)
	assert.Equal(t, owner, parsed.PostTokenBalances[0].Owner)
	assert.Equal(t, meta.LogMessages, parsed.LogMessages)
}

func TestConvertTransaction_NilMeta(t *testing.T) {
	payer := solana.NewWallet().PublicKey()
	parsed := convertTransaction(&solana.Transaction{
		Message: solana.Message{AccountKeys: solana.PublicKeySlice{payer}},
	}, nil)
	assert.Equal(t, payer, parsed.FeePayer())
	assert.Empty(t, parsed.PostTokenBalances)
}

type staticReader map[solana.PublicKey][]byte

func (r staticReader) GetAccountData(_ context.Context, k solana.PublicKey) ([]byte, error) {
	if d, ok := r[k]; ok {
		return d, nil
	}
	return nil, blockchain.ErrAccountNotFound
}

func TestReadMintInfo(t *testing.T) {
	mint := solana.NewWallet().PublicKey()
	authority := solana.NewWallet().PublicKey()

	buf := new(bytes.Buffer)
	require.NoError(t, bin.NewBinEncoder(buf).Encode(&token.Mint{
		MintAuthority: &authority,
		Supply:        1_000_000_000_000_000,
		Decimals:      6,
		IsInitialized: true,
	}))

	info, err := ReadMintInfo(context.Background(), staticReader{mint: buf.Bytes()}, mint)
	require.NoError(t, err)
	assert.Equal(t, uint8(6), info.Decimals)
	assert.Equal(t, uint64(1_000_000_000_000_000), info.Supply)
	require.NotNil(t, info.MintAuthority)
	assert.Equal(t, authority, *info.MintAuthority)
	assert.Nil(t, info.FreezeAuthority)

	_, err = ReadMintInfo(context.Background(), staticReader{}, mint)
	assert.ErrorIs(t, err, blockchain.ErrAccountNotFound)

	_, err = DecodeMintInfo(mint, make([]byte, 10))
	assert.Error(t, err)

	_, err = DecodeMintInfo(mint, make([]byte, mintAccountSize))
	assert.Error(t, err, "uninitialized mint")
}
