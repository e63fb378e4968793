package api

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ErrInvalidTxHash is returned when a payment proof is not a 0x-prefixed,
// 32-byte hexadecimal transaction hash.
var ErrInvalidTxHash = errors.New("invalid transaction hash")

// ParseTxHash validates a payment proof before it is handed to the client.
// The client itself forwards proofs verbatim; this is for the edges (CLI,
// agent commands) that accept hashes typed by a human or a model.
func ParseTxHash(s string) (common.Hash, error) {
	s = strings.TrimSpace(s)

	b, err := hexutil.Decode(s)
	if err != nil {
		return common.Hash{}, fmt.Errorf("%w: %w", ErrInvalidTxHash, err)
	}

	if len(b) != common.HashLength {
		return common.Hash{}, fmt.Errorf("%w: want %d bytes, got %d", ErrInvalidTxHash, common.HashLength, len(b))
	}

	return common.BytesToHash(b), nil
}
