package bazaar

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/x402-bazaar/x402-bazaar-go/pkg/api"
)

// Params are sent as the query string of a GET or the JSON body of a POST.
type Params map[string]any

type callConfig struct {
	method string
	proof  string
}

// CallOption alters a single CallAPI invocation.
type CallOption func(*callConfig)

// WithMethod selects the HTTP method.  Only GET (the default) and POST are
// accepted, in any case.
func WithMethod(method string) CallOption {
	return func(c *callConfig) {
		c.method = method
	}
}

// WithPaymentProof attaches the hash of a transaction that paid for this
// call.  An empty hash is the same as no proof.
func WithPaymentProof(txHash string) CallOption {
	return func(c *callConfig) {
		c.proof = txHash
	}
}

// CallAPI calls endpoint (a path such as "/api/weather") on the marketplace
// and classifies the response.  It makes exactly one request and never
// retries; every problem, including timeouts and transport errors, is
// reported as a *Failure rather than an error.
func (c *Client) CallAPI(ctx context.Context, endpoint string, params Params, opts ...CallOption) Outcome {
	cfg := callConfig{method: string(api.MethodGet)}
	for _, opt := range opts {
		opt(&cfg)
	}

	method, ok := api.ParseMethod(cfg.method)
	if !ok {
		c.log.Error("Unsupported HTTP method", slog.String("method", cfg.method))

		return &Failure{Message: "Unsupported HTTP method: " + cfg.method}
	}

	target := c.url(endpoint)
	log := c.log.With(slog.String("method", string(method)), slog.String("url", target))

	req, err := c.newCallRequest(ctx, method, target, params)
	if err != nil {
		log.Error("Request error", slog.Any("error", err))

		return &Failure{Message: "Request error: " + err.Error()}
	}

	paid := cfg.proof != ""
	if paid {
		req.Header.Set(api.HeaderPaymentTxHash, cfg.proof)
		req.Header.Set(api.HeaderPaymentChain, PaymentChain)
		log.Info("Including payment headers", slog.String("tx", cfg.proof))
	}

	log.Info("Calling API")

	resp, err := c.session.Do(req)
	if err != nil {
		return c.transportFailure(ctx, log, err)
	}

	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.transportFailure(ctx, log, err)
	}

	log.Debug("API response body", slog.Int("code", resp.StatusCode), slog.String("body", string(body)))

	out, _ := Classify(resp.StatusCode, body, paid)
	logOutcome(log, resp.StatusCode, out)

	return out
}

func (c *Client) newCallRequest(ctx context.Context, method api.Method, target string, params Params) (*http.Request, error) {
	if method == api.MethodGet {
		u, err := url.Parse(target)
		if err != nil {
			return nil, err
		}

		if len(params) > 0 {
			q := u.Query()
			for k, v := range params {
				addQuery(q, k, v)
			}

			u.RawQuery = q.Encode()
		}

		return http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	}

	if params == nil {
		return http.NewRequestWithContext(ctx, http.MethodPost, target, nil)
	}

	b, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")

	return req, nil
}

// transportFailure reports the configured timeout only when it is what
// expired.  A caller's own deadline or cancellation is a request error.
func (c *Client) transportFailure(ctx context.Context, log *slog.Logger, err error) *Failure {
	if cerr := ctx.Err(); cerr != nil {
		log.Error("Request abandoned by caller", slog.Any("error", cerr))

		return &Failure{Message: "Request error: " + cerr.Error()}
	}

	if isTimeout(err) {
		log.Error("Request timeout", slog.Duration("timeout", c.timeout))

		return &Failure{Message: fmt.Sprintf("Request timeout after %s seconds", formatSeconds(c.timeout))}
	}

	log.Error("Request error", slog.Any("error", err))

	return &Failure{Message: "Request error: " + err.Error()}
}

func logOutcome(log *slog.Logger, code int, out Outcome) {
	log = log.With(slog.Int("code", code))

	switch out := out.(type) {
	case *Success:
		log.Info("API call successful", slog.String("payment_status", string(out.PaymentStatus)))
	case *PaymentRequired:
		log.Info("Payment required", slog.String("cost_usdc", out.CostUSDC))
	case *Failure:
		switch code {
		case http.StatusBadRequest, http.StatusTooManyRequests:
			log.Warn("API call failed", slog.String("error", out.Message))
		default:
			log.Error("API call failed", slog.String("error", out.Message))
		}
	}
}

// addQuery encodes slices as repeated keys and everything else as text.
func addQuery(q url.Values, key string, v any) {
	switch v := v.(type) {
	case nil:
	case []string:
		for _, s := range v {
			q.Add(key, s)
		}
	case []any:
		for _, e := range v {
			addQuery(q, key, e)
		}
	default:
		q.Add(key, stringify(v))
	}
}

func isTimeout(err error) bool {
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return true
	}

	return errors.Is(err, context.DeadlineExceeded)
}

// formatSeconds renders d in seconds without trailing zeros: 30s is "30",
// 50ms is "0.05".
func formatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
}
