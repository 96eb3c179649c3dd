// internal/eventlistener/tradelog.go
package eventlistener

import (
	"bytes"
	"encoding/base64"
	"strings"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/rovshanmuradov/openpump/internal/dex/pumpfun"
)

const programDataPrefix = "Program data: "

// TradeLog is the prefix of the platform's Anchor TradeEvent.
type TradeLog struct {
	Mint        solana.PublicKey
	SolAmount   uint64
	TokenAmount uint64
	IsBuy       bool
	User        solana.PublicKey
	Timestamp   int64
}

// DecodeTradeLog returns the first TradeEvent found in "Program data:" lines.
func DecodeTradeLog(logs []string) (*TradeLog, bool) {
	for _, line := range logs {
		if !strings.HasPrefix(line, programDataPrefix) {
			continue
		}
		raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(line[len(programDataPrefix):]))
		if err != nil || len(raw) < 8 {
			continue
		}
		if !bytes.Equal(raw[:8], pumpfun.TradeEventDiscriminator[:]) {
			continue
		}
		var ev TradeLog
		if err := bin.NewBorshDecoder(raw[8:]).Decode(&ev); err != nil {
			continue
		}
		return &ev, true
	}
	return nil, false
}
