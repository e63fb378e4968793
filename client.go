package bazaar

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/x402-bazaar/x402-bazaar-go/pkg/api"
)

// Payment destination for every paid call.  These are fixed for the
// marketplace.
const (
	PaymentAddress = "0xfb1c478BD5567BdcD39782E0D6D23418bFda2430"
	PaymentChain   = api.NetworkBase
	PaymentToken   = "USDC"
)

// Fixed marketplace paths.
const (
	PathRoot        = "/"
	PathServices    = "/api/services"
	PathPublicStats = "/api/public-stats"
)

// PaymentAccount returns PaymentAddress as an Ethereum address.
func PaymentAccount() common.Address {
	return common.HexToAddress(PaymentAddress)
}

// PaymentTokenContract returns the address of the PaymentToken contract on
// PaymentChain.
func PaymentTokenContract() common.Address {
	t, _ := api.USDC(PaymentChain)

	return t.Address
}

// Client talks to a single marketplace.  Its configuration is fixed at
// construction and it is safe for concurrent use.
type Client struct {
	config

	session *http.Client
}

// NewClient returns a Client configured by opts.  All option errors are
// reported together.
func NewClient(opts ...Option) (*Client, error) {
	cfg, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}

	cfg.log.Info("x402 Bazaar client initialized", slog.String("base_url", cfg.baseURL))

	return &Client{
		config:  *cfg,
		session: newSession(cfg),
	}, nil
}

// BaseURL returns the marketplace URL every path is appended to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Timeout returns the per-request time limit.
func (c *Client) Timeout() time.Duration {
	return c.timeout
}

func (c *Client) url(path string) string {
	return c.baseURL + path
}

// get issues a plain GET with no payment semantics.  The caller owns the
// returned response body.
func (c *Client) get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(path), nil)
	if err != nil {
		return nil, err
	}

	return c.session.Do(req)
}

// getOK is get followed by a status check and a full read of the body.
func (c *Client) getOK(ctx context.Context, path string) ([]byte, error) {
	resp, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}

	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		_, _ = io.Copy(io.Discard, resp.Body)

		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			URL:        c.url(path),
		}
	}

	return io.ReadAll(resp.Body)
}
