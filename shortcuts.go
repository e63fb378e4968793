package bazaar

import (
	"context"

	"github.com/x402-bazaar/x402-bazaar-go/pkg/api"
)

// Endpoints of the well-known marketplace services.
const (
	EndpointWeather = "/api/weather"
	EndpointSearch  = "/api/search"
	EndpointCrypto  = "/api/crypto"
	EndpointImage   = "/api/image"
	EndpointScrape  = "/api/scrape"
)

// Weather calls the weather service for city.
func (c *Client) Weather(ctx context.Context, city string, opts ...CallOption) Outcome {
	return c.shortcut(ctx, EndpointWeather, api.MethodGet, Params{"city": city}, opts)
}

// Search calls the web search service.
func (c *Client) Search(ctx context.Context, query string, opts ...CallOption) Outcome {
	return c.shortcut(ctx, EndpointSearch, api.MethodGet, Params{"q": query}, opts)
}

// Crypto calls the crypto price service for symbol (e.g. "BTC").
func (c *Client) Crypto(ctx context.Context, symbol string, opts ...CallOption) Outcome {
	return c.shortcut(ctx, EndpointCrypto, api.MethodGet, Params{"symbol": symbol}, opts)
}

// Image asks the image generation service to draw prompt.
func (c *Client) Image(ctx context.Context, prompt string, opts ...CallOption) Outcome {
	return c.shortcut(ctx, EndpointImage, api.MethodPost, Params{"prompt": prompt}, opts)
}

// Scrape fetches the text of the page at url.
func (c *Client) Scrape(ctx context.Context, url string, opts ...CallOption) Outcome {
	return c.shortcut(ctx, EndpointScrape, api.MethodGet, Params{"url": url}, opts)
}

// shortcut pins the method so a WithMethod among opts can't change it.
func (c *Client) shortcut(ctx context.Context, endpoint string, method api.Method, params Params, opts []CallOption) Outcome {
	all := make([]CallOption, 0, len(opts)+1)
	all = append(all, opts...)
	all = append(all, WithMethod(string(method)))

	return c.CallAPI(ctx, endpoint, params, all...)
}
