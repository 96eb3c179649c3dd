// internal/eventlistener/classifier.go
package eventlistener

import (
	"strings"

	"github.com/gagliardetto/solana-go"
)

// Kind is the classification of a transaction's program logs.
type Kind int

const (
	KindNone Kind = iota
	KindCreation
	KindBuy
	KindSell
)

func (k Kind) String() string {
	switch k {
	case KindCreation:
		return "creation"
	case KindBuy:
		return "buy"
	case KindSell:
		return "sell"
	default:
		return "none"
	}
}

const (
	logCreate = "Program log: Instruction: Create"
	logBuy    = "Program log: Instruction: Buy"
	logSell   = "Program log: Instruction: Sell"

	programPrefix = "Program "
)

// Classify returns the most significant platform instruction in logs.
// Only exact instruction-name lines count. When the logs carry
// "Program <id> invoke [n]" frames, a line counts only while programID is
// the executing frame, so CPI logs of other programs are ignored.
// Priority is Creation, then Buy, then Sell.
func Classify(logs []string, programID solana.PublicKey) Kind {
	program := programID.String()
	framed := hasInvokeFrames(logs)

	var stack []string
	var create, buy, sell bool

	for _, line := range logs {
		if framed {
			if id, ok := parseInvoke(line); ok {
				stack = append(stack, id)
				continue
			}
			if id, ok := parseFrameExit(line); ok {
				// pop to the matching frame; tolerate truncated logs
				for i := len(stack) - 1; i >= 0; i-- {
					if stack[i] == id {
						stack = stack[:i]
						break
					}
				}
				continue
			}
			if len(stack) == 0 || stack[len(stack)-1] != program {
				continue
			}
		}

		switch line {
		case logCreate:
			create = true
		case logBuy:
			buy = true
		case logSell:
			sell = true
		}
	}

	switch {
	case create:
		return KindCreation
	case buy:
		return KindBuy
	case sell:
		return KindSell
	default:
		return KindNone
	}
}

func hasInvokeFrames(logs []string) bool {
	for _, line := range logs {
		if _, ok := parseInvoke(line); ok {
			return true
		}
	}
	return false
}

// parseInvoke matches "Program <id> invoke [<depth>]".
func parseInvoke(line string) (string, bool) {
	if !strings.HasPrefix(line, programPrefix) {
		return "", false
	}
	fields := strings.Fields(line[len(programPrefix):])
	if len(fields) != 3 || fields[1] != "invoke" || !strings.HasPrefix(fields[2], "[") {
		return "", false
	}
	return fields[0], true
}

// parseFrameExit matches "Program <id> success" and "Program <id> failed: ...".
func parseFrameExit(line string) (string, bool) {
	if !strings.HasPrefix(line, programPrefix) {
		return "", false
	}
	fields := strings.Fields(line[len(programPrefix):])
	if len(fields) < 2 {
		return "", false
	}
	if fields[1] == "success" || strings.HasPrefix(fields[1], "failed") {
		return fields[0], true
	}
	return "", false
}
