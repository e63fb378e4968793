package bazaar

import (
	"encoding/json"
	"fmt"
	"maps"
	"strings"

	"github.com/coinbase/x402/go/pkg/types"

	"github.com/x402-bazaar/x402-bazaar-go/pkg/api"
)

const unknownAmount = "unknown"

// Keys synthesized by the client.  They win over the same keys in the
// server's 402 body.
const (
	keyMessage        = "message"
	keyInstructions   = "instructions"
	keyPaymentAddress = "payment_address"
	keyPaymentChain   = "payment_chain"
	keyPaymentToken   = "payment_token"
	keyPaymentAmount  = "payment_amount"
)

// PaymentDetails tells the caller how to pay for a call.  Extra holds every
// field of the server's 402 body that the client did not synthesize itself.
type PaymentDetails struct {
	PaymentAddress string
	PaymentChain   string
	PaymentToken   string
	PaymentAmount  string
	Message        string
	Instructions   []string

	// Accepts is populated when the 402 body also carries the standard
	// x402 "accepts" list.  It remains in Extra as well.
	Accepts []types.PaymentRequirements

	Extra map[string]any
}

// NewPaymentDetails turns a 402 body into PaymentDetails.  It never fails:
// a body without a recognizable amount yields "unknown".
func NewPaymentDetails(body map[string]any) PaymentDetails {
	cost := paymentAmount(body)

	details := PaymentDetails{
		PaymentAddress: PaymentAddress,
		PaymentChain:   PaymentChain,
		PaymentToken:   PaymentToken,
		PaymentAmount:  cost,
		Message:        fmt.Sprintf("Payment required: %s %s", cost, PaymentToken),
		Instructions: []string{
			fmt.Sprintf("1. Send %s %s on %s to: %s", cost, PaymentToken, strings.ToUpper(PaymentChain), PaymentAddress),
			"2. Wait for transaction confirmation",
			"3. Call this endpoint again with transaction hash",
		},
		Accepts: paymentRequirements(body),
		Extra:   map[string]any{},
	}

	for k, v := range body {
		switch k {
		case keyMessage, keyInstructions, keyPaymentAddress, keyPaymentChain, keyPaymentToken, keyPaymentAmount:
			continue
		default:
			details.Extra[k] = v
		}
	}

	return details
}

// MarshalJSON emits the server's fields overlaid with the synthesized ones.
func (d PaymentDetails) MarshalJSON() ([]byte, error) {
	out := maps.Clone(d.Extra)
	if out == nil {
		out = map[string]any{}
	}

	out[keyMessage] = d.Message
	out[keyInstructions] = d.Instructions
	out[keyPaymentAddress] = d.PaymentAddress
	out[keyPaymentChain] = d.PaymentChain
	out[keyPaymentToken] = d.PaymentToken
	out[keyPaymentAmount] = d.PaymentAmount

	return json.Marshal(out)
}

func newPaymentRequired(body map[string]any) *PaymentRequired {
	details := NewPaymentDetails(body)

	return &PaymentRequired{
		CostUSDC: details.PaymentAmount,
		Details:  details,
	}
}

// fallbackPaymentBody stands in for a 402 body that isn't a JSON object.
func fallbackPaymentBody() map[string]any {
	return map[string]any{
		"amount":  unknownAmount,
		"address": PaymentAddress,
		"chain":   PaymentChain,
	}
}

// paymentAmount resolves the cost from "amount", then "required_payment".
// A null value counts as absent.
func paymentAmount(body map[string]any) string {
	for _, key := range []string{"amount", "required_payment"} {
		if v, ok := body[key]; ok && v != nil {
			return stringify(v)
		}
	}

	return unknownAmount
}

func paymentRequirements(body map[string]any) []types.PaymentRequirements {
	if _, ok := body["accepts"]; !ok {
		return nil
	}

	b, err := json.Marshal(body)
	if err != nil {
		return nil
	}

	var req api.PaymentRequest
	if err := json.Unmarshal(b, &req); err != nil {
		return nil
	}

	return req.Accepts
}

func stringify(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
