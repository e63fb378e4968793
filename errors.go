package bazaar

import (
	"errors"
	"fmt"
)

// ErrInvalidBaseURL is returned by NewClient when WithBaseURL is given
// something other than an absolute URL.
var ErrInvalidBaseURL = errors.New("invalid base URL")

// ErrInvalidTimeout is returned by NewClient when WithTimeout is given a
// non-positive duration.
var ErrInvalidTimeout = errors.New("timeout must be positive")

// ErrUnexpectedStatus is wrapped by every StatusError.
var ErrUnexpectedStatus = errors.New("unexpected HTTP status")

// ErrDecode is returned when a discovery or stats response is not the JSON
// document the marketplace is expected to serve.
var ErrDecode = errors.New("failed to decode response")

// StatusError is returned by the discovery, info and stats operations when
// the marketplace answers with a status of 400 or above.  Calls made with
// CallAPI never return it; they report a Failure instead.
type StatusError struct {
	StatusCode int
	Status     string
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %s for url %s", ErrUnexpectedStatus, e.Status, e.URL)
}

func (e *StatusError) Unwrap() error {
	return ErrUnexpectedStatus
}
