package bazaar

import (
	"encoding/json"

	"github.com/x402-bazaar/x402-bazaar-go/pkg/api"
)

// Outcome is the result of CallAPI.  It is always exactly one of *Success,
// *PaymentRequired or *Failure; no other type implements it.
type Outcome interface {
	outcome()
}

var (
	_ Outcome = (*Success)(nil)
	_ Outcome = (*PaymentRequired)(nil)
	_ Outcome = (*Failure)(nil)
)

// Success is a 200 response.  Data is the decoded JSON body (numbers are
// json.Number) or, when the body is not JSON, {"text": <body>}.
type Success struct {
	Data          any
	PaymentStatus api.PaymentStatus
}

func (*Success) outcome() {}

// Decode re-decodes Data into v.
func (s *Success) Decode(v any) error {
	b, err := json.Marshal(s.Data)
	if err != nil {
		return err
	}

	return json.Unmarshal(b, v)
}

// PaymentRequired is a 402 response.  The caller pays out of band and calls
// again with WithPaymentProof.
type PaymentRequired struct {
	CostUSDC string
	Details  PaymentDetails
}

func (*PaymentRequired) outcome() {}

// Instructions returns the numbered steps for paying and retrying.
func (p *PaymentRequired) Instructions() []string {
	return p.Details.Instructions
}

// Failure is every other result, including transport errors.
type Failure struct {
	Message string
}

func (*Failure) outcome() {}

// Error lets a Failure be returned where an error is expected.
func (f *Failure) Error() string {
	return f.Message
}
