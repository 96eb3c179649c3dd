// internal/blockchain/solbc/mint.go
package solbc

import (
	"context"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/rovshanmuradov/openpump/internal/blockchain"
)

const mintAccountSize = 82

// MintInfo – данные SPL mint аккаунта.
type MintInfo struct {
	Mint            solana.PublicKey
	Decimals        uint8
	Supply          uint64
	MintAuthority   *solana.PublicKey
	FreezeAuthority *solana.PublicKey
}

// ReadMintInfo читает и декодирует SPL mint аккаунт.
func ReadMintInfo(ctx context.Context, reader blockchain.AccountReader, mint solana.PublicKey) (*MintInfo, error) {
	data, err := reader.GetAccountData(ctx, mint)
	if err != nil {
		return nil, err
	}
	return DecodeMintInfo(mint, data)
}

// DecodeMintInfo decodes the 82-byte SPL token mint layout.
func DecodeMintInfo(mint solana.PublicKey, data []byte) (*MintInfo, error) {
	if len(data) < mintAccountSize {
		return nil, fmt.Errorf("invalid mint account data length: %d", len(data))
	}
	var m token.Mint
	if err := bin.NewBinDecoder(data).Decode(&m); err != nil {
		return nil, fmt.Errorf("failed to decode mint %s: %w", mint, err)
	}
	if !m.IsInitialized {
		return nil, fmt.Errorf("mint %s is not initialized", mint)
	}
	return &MintInfo{
		Mint:            mint,
		Decimals:        m.Decimals,
		Supply:          m.Supply,
		MintAuthority:   m.MintAuthority,
		FreezeAuthority: m.FreezeAuthority,
	}, nil
}
