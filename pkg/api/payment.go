package api

import (
	"strings"

	"github.com/coinbase/x402/go/pkg/types"
)

// Headers attached to a call when the caller supplies proof of payment.
const (
	HeaderPaymentTxHash = "X-Payment-TxHash"
	HeaderPaymentChain  = "X-Payment-Chain"
)

type Method string

const (
	MethodGet  Method = "GET"
	MethodPost Method = "POST"
)

// ParseMethod normalizes a method name.  Only GET and POST are part of the
// marketplace protocol; ok is false for anything else.
func ParseMethod(s string) (Method, bool) {
	switch m := Method(strings.ToUpper(s)); m {
	case MethodGet, MethodPost:
		return m, true
	default:
		return "", false
	}
}

type PaymentStatus string

const (
	PaymentStatusFree      PaymentStatus = "free"
	PaymentStatusCompleted PaymentStatus = "completed"
)

// PaymentRequest represents the standard x402 body of a 402 Payment Required
// response.  Marketplace servers may answer with this shape, with a bare
// {"amount": ...} object, or with both.
type PaymentRequest struct {
	X402Version int                         `json:"x402Version"`
	Err         string                      `json:"error"`
	Accepts     []types.PaymentRequirements `json:"accepts"`
}
