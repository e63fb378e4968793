package bazaar

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultCategory is used for services that don't name one.
const DefaultCategory = "Other"

// Service describes one API listed by the marketplace.  Services are
// fetched fresh on every discovery call and never modified by the client.
type Service struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Endpoint    string   `json:"endpoint"`
	CostUSDC    string   `json:"cost_usdc,omitempty"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags"`
}

// UnmarshalJSON accepts cost_usdc as either a string or a number, renders
// scalar tags as text and fills in DefaultCategory.
func (s *Service) UnmarshalJSON(b []byte) error {
	type plain Service

	var raw struct {
		plain
		CostUSDC json.RawMessage `json:"cost_usdc"`
		Tags     json.RawMessage `json:"tags"`
	}

	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	*s = Service(raw.plain)

	cost, err := rawCost(raw.CostUSDC)
	if err != nil {
		return fmt.Errorf("service %q: cost_usdc: %w", s.Name, err)
	}

	s.CostUSDC = cost

	if s.Category == "" {
		s.Category = DefaultCategory
	}

	tags, err := rawTags(raw.Tags)
	if err != nil {
		return fmt.Errorf("service %q: tags: %w", s.Name, err)
	}

	s.Tags = tags

	return nil
}

// Free reports whether the service has no listed cost.
func (s Service) Free() bool {
	if s.CostUSDC == "" {
		return true
	}

	cost, err := s.Cost()

	return err == nil && cost.IsZero()
}

// Cost parses CostUSDC.  A service without a cost is free.
func (s Service) Cost() (decimal.Decimal, error) {
	if s.CostUSDC == "" {
		return decimal.Zero, nil
	}

	return decimal.NewFromString(s.CostUSDC)
}

// Matches reports whether the lower-cased query is a substring of the
// name, the description or any tag.  The empty query matches everything.
func (s Service) Matches(query string) bool {
	q := strings.ToLower(query)

	if strings.Contains(strings.ToLower(s.Name), q) || strings.Contains(strings.ToLower(s.Description), q) {
		return true
	}

	for _, tag := range s.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}

	return false
}

func rawCost(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", err
	}

	return n.String(), nil
}

// rawTags keeps strings, renders numbers and booleans as text and drops
// nulls and nested values.
func rawTags(raw json.RawMessage) ([]string, error) {
	tags := []string{}

	if len(raw) == 0 || string(raw) == "null" {
		return tags, nil
	}

	v, err := decodeJSON(raw)
	if err != nil {
		return nil, err
	}

	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: want a list, got %T", ErrDecode, v)
	}

	for _, e := range list {
		switch e := e.(type) {
		case string, json.Number, bool:
			tags = append(tags, stringify(e))
		}
	}

	return tags, nil
}
