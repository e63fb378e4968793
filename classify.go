package bazaar

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/x402-bazaar/x402-bazaar-go/pkg/api"
)

const (
	msgBadRequest  = "Bad request"
	msgRateLimited = "Rate limit exceeded. Please try again later."
	msgServerError = "Server error. Please try again later."

	errorTextLimit = 200
)

var errTrailingData = errors.New("invalid character after top-level value")

// Classify maps a marketplace response to an Outcome.  paid reports whether
// the request carried a payment proof and only affects the PaymentStatus of
// a Success.  The second result reports whether body parsed as JSON.
func Classify(statusCode int, body []byte, paid bool) (Outcome, bool) {
	v, err := decodeJSON(body)
	parsed := err == nil
	obj, isObj := v.(map[string]any)

	switch statusCode {
	case http.StatusOK:
		status := api.PaymentStatusFree
		if paid {
			status = api.PaymentStatusCompleted
		}

		if !parsed {
			v = map[string]any{"text": string(body)}
		}

		return &Success{Data: v, PaymentStatus: status}, parsed

	case http.StatusPaymentRequired:
		if !isObj {
			obj = fallbackPaymentBody()
		}

		return newPaymentRequired(obj), parsed

	case http.StatusBadRequest:
		if !parsed {
			return &Failure{Message: string(body)}, false
		}

		return &Failure{Message: errorField(obj, msgBadRequest)}, true

	case http.StatusTooManyRequests:
		return &Failure{Message: msgRateLimited}, parsed

	case http.StatusInternalServerError:
		return &Failure{Message: msgServerError}, parsed

	default:
		if !parsed {
			return &Failure{
				Message: fmt.Sprintf("HTTP %d: %s", statusCode, truncate(string(body), errorTextLimit)),
			}, false
		}

		return &Failure{Message: errorField(obj, fmt.Sprintf("HTTP %d", statusCode))}, true
	}
}

// errorField returns obj["error"] as text, or def when it is missing.  A nil
// obj (the body was JSON but not an object) also yields def.
func errorField(obj map[string]any, def string) string {
	if v, ok := obj["error"]; ok && v != nil {
		return stringify(v)
	}

	return def
}

// decodeJSON decodes exactly one JSON value, keeping numbers as json.Number
// so amounts and prices keep their original spelling.
func decodeJSON(b []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}

	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errTrailingData
	}

	return v, nil
}

// truncate keeps at most n runes of s.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}

	return string(r[:n])
}
