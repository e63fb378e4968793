package bazaar

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
)

// DiscoverServices lists every service on the marketplace.  Unlike CallAPI,
// transport failures and error statuses are returned as errors.
func (c *Client) DiscoverServices(ctx context.Context) ([]Service, error) {
	c.log.Info("Discovering services", slog.String("url", c.url(PathServices)))

	body, err := c.getOK(ctx, PathServices)
	if err != nil {
		c.log.Error("Error discovering services", slog.Any("error", err))

		return nil, err
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(body, &entries); err != nil {
		c.log.Error("Error discovering services", slog.Any("error", err))

		return nil, fmt.Errorf("%w: services: %w", ErrDecode, err)
	}

	// One malformed entry doesn't hide the rest of the catalog.
	services := make([]Service, 0, len(entries))

	for i, entry := range entries {
		var svc Service
		if err := json.Unmarshal(entry, &svc); err != nil {
			c.log.Warn("Skipping malformed service", slog.Int("index", i), slog.Any("error", err))

			continue
		}

		services = append(services, svc)
	}

	c.log.Info("Discovered services", slog.Int("count", len(services)))

	return services, nil
}

// SearchServices returns the services matching query, in discovery order.
// See Service.Matches.
func (c *Client) SearchServices(ctx context.Context, query string) ([]Service, error) {
	c.log.Info("Searching services", slog.String("query", query))

	services, err := c.DiscoverServices(ctx)
	if err != nil {
		return nil, err
	}

	results := []Service{}

	for _, svc := range services {
		if svc.Matches(query) {
			results = append(results, svc)
		}
	}

	c.log.Info("Found matching services", slog.String("query", query), slog.Int("count", len(results)))

	return results, nil
}

// ServiceDetails returns the first service whose name equals name, ignoring
// case.  A failed discovery is logged and reported as not found.
func (c *Client) ServiceDetails(ctx context.Context, name string) (Service, bool) {
	services, err := c.DiscoverServices(ctx)
	if err != nil {
		c.log.Error("Error getting service details", slog.String("name", name), slog.Any("error", err))

		return Service{}, false
	}

	for _, svc := range services {
		if strings.EqualFold(svc.Name, name) {
			return svc, true
		}
	}

	return Service{}, false
}
