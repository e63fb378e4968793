package bazaar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

const (
	marketplaceName = "x402 Bazaar"
	htmlLimit       = 500
)

// TestConnection reports whether the marketplace answers on its root path.
// 200, 402 and 400 all count as alive; any other status or any transport
// error counts as not connected.
func (c *Client) TestConnection(ctx context.Context) bool {
	resp, err := c.get(ctx, PathRoot)
	if err != nil {
		c.log.Error("Connection test failed", slog.Any("error", err))

		return false
	}

	defer resp.Body.Close()

	_, _ = io.Copy(io.Discard, resp.Body)

	switch resp.StatusCode {
	case http.StatusOK, http.StatusPaymentRequired, http.StatusBadRequest:
		return true
	default:
		c.log.Error("Connection test failed", slog.Int("code", resp.StatusCode))

		return false
	}
}

// MarketplaceInfo fetches the root document.  A root that serves something
// other than a JSON object (typically an HTML landing page) is summarized as
// {"name": "x402 Bazaar", "status": "online", "html": <first 500 runes>}.
func (c *Client) MarketplaceInfo(ctx context.Context) (map[string]any, error) {
	c.log.Info("Fetching marketplace info")

	body, err := c.getOK(ctx, PathRoot)
	if err != nil {
		c.log.Error("Error getting marketplace info", slog.Any("error", err))

		return nil, err
	}

	v, err := decodeJSON(body)
	info, ok := v.(map[string]any)

	if err != nil || !ok {
		info = map[string]any{
			"name":   marketplaceName,
			"status": "online",
			"html":   truncate(string(body), htmlLimit),
		}
	}

	c.log.Info("Marketplace info retrieved successfully")

	return info, nil
}

// PublicStats fetches the marketplace's public usage statistics.
func (c *Client) PublicStats(ctx context.Context) (map[string]any, error) {
	c.log.Info("Fetching public stats")

	body, err := c.getOK(ctx, PathPublicStats)
	if err != nil {
		c.log.Error("Error getting public stats", slog.Any("error", err))

		return nil, err
	}

	var stats map[string]any
	if err := json.Unmarshal(body, &stats); err != nil {
		c.log.Error("Error getting public stats", slog.Any("error", err))

		return nil, fmt.Errorf("%w: public stats: %w", ErrDecode, err)
	}

	c.log.Info("Public stats retrieved successfully")

	return stats, nil
}
