package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/urfave/cli/v2"

	bazaar "github.com/x402-bazaar/x402-bazaar-go"
)

func demoCommand() *cli.Command {
	return &cli.Command{
		Name:  "demo",
		Usage: "walk through every client operation against the marketplace",
		Action: func(cCtx *cli.Context) error {
			cl, _, err := newClient(cCtx)
			if err != nil {
				return err
			}

			runDemo(cCtx.Context, cl, cCtx.App.Writer)

			return nil
		},
	}
}

// runDemo never pays: paid endpoints stop at their payment instructions.
// Errors are printed and the walk-through moves on.
func runDemo(ctx context.Context, cl *bazaar.Client, w io.Writer) {
	p := func(format string, args ...any) {
		fmt.Fprintf(w, format+"\n", args...)
	}

	p("=== x402 Bazaar Client Demo ===\n")
	p("Base URL: %s\n", cl.BaseURL())

	p("1. Testing connection...")

	if !cl.TestConnection(ctx) {
		p("   Connection: FAILED\n")
		p("Cannot connect to marketplace.")

		return
	}

	p("   Connection: OK\n")

	p("2. Getting marketplace statistics...")

	if stats, err := cl.PublicStats(ctx); err != nil {
		p("   Error: %s\n", err)
	} else {
		p("   Total services: %s", nestedTotal(stats, "services"))
		p("   API calls: %s", nestedTotal(stats, "apiCalls"))
		p("   Integrations: %s\n", nestedTotal(stats, "integrations"))
	}

	p("3. Discovering all services...")

	if services, err := cl.DiscoverServices(ctx); err != nil {
		p("   Error: %s\n", err)
	} else {
		p("   Found %d APIs\n", len(services))
		p("   First 5 services:")

		for i, svc := range services[:min(5, len(services))] {
			p("   %d. %s - %s", i+1, svc.Name, cost(svc))
		}

		p("")
	}

	p("4. Searching for 'weather' APIs...")

	if results, err := cl.SearchServices(ctx, "weather"); err != nil {
		p("   Error: %s\n", err)
	} else {
		p("   Found %d weather-related APIs\n", len(results))

		for _, svc := range results {
			p("   • %s", svc.Name)
			p("     Description: %s", svc.Description)
			p("     Endpoint: %s", svc.Endpoint)
			p("     Cost: %s\n", cost(svc))
		}
	}

	p("5. Calling free endpoint (%s)...", bazaar.PathServices)

	switch out := cl.CallAPI(ctx, bazaar.PathServices, nil).(type) {
	case *bazaar.Success:
		n := 0
		if list, ok := out.Data.([]any); ok {
			n = len(list)
		}

		p("   Success! Received %d services\n", n)
	default:
		p("   %s\n", summary(out))
	}

	p("6. Calling paid endpoint (Weather API for Paris)...")

	switch out := cl.Weather(ctx, "Paris").(type) {
	case *bazaar.PaymentRequired:
		p("   Payment Required!")
		p("   Amount: %s %s", out.Details.PaymentAmount, out.Details.PaymentToken)
		p("   Address: %s", out.Details.PaymentAddress)
		p("   Chain: %s", strings.ToUpper(out.Details.PaymentChain))
		p("   Token contract: %s\n", bazaar.PaymentTokenContract().Hex())
		p("   Instructions:")

		for _, line := range out.Instructions() {
			p("   %s", line)
		}

		p("\n   Then run: x402bazaar call --tx <hash> --param city=Paris %s\n", bazaar.EndpointWeather)
	default:
		p("   %s\n", summary(out))
	}

	p("7. Getting details for 'Weather API'...")

	if svc, ok := cl.ServiceDetails(ctx, "Weather API"); ok {
		p("   Name: %s", svc.Name)
		p("   Description: %s", svc.Description)
		p("   Endpoint: %s", svc.Endpoint)
		p("   Cost: %s", cost(svc))
		p("   Category: %s\n", svc.Category)
	} else {
		p("   Service not found\n")
	}

	p("8. Testing convenience methods...")
	p("   a) Crypto Price API (BTC)... %s", summary(cl.Crypto(ctx, "BTC")))
	p("   b) Web Search API... %s", summary(cl.Search(ctx, "x402 protocol")))
	p("   c) Image Generation API... %s", summary(cl.Image(ctx, "a bazaar at dusk")))
	p("   d) URL Scraper API... %s", summary(cl.Scrape(ctx, "https://example.com")))
	p("\n=== Demo Complete ===")
}

func summary(out bazaar.Outcome) string {
	switch out := out.(type) {
	case *bazaar.Success:
		return "Success (" + string(out.PaymentStatus) + ")"
	case *bazaar.PaymentRequired:
		return "Payment required: " + out.CostUSDC + " " + bazaar.PaymentToken
	case *bazaar.Failure:
		return "Error: " + out.Message
	default:
		return fmt.Sprintf("unexpected outcome %T", out)
	}
}

func cost(svc bazaar.Service) string {
	if svc.Free() {
		return "Free"
	}

	return svc.CostUSDC + " " + bazaar.PaymentToken
}

func nestedTotal(stats map[string]any, key string) string {
	m, ok := stats[key].(map[string]any)
	if !ok {
		return "N/A"
	}

	v, ok := m["total"]
	if !ok {
		return "N/A"
	}

	return fmt.Sprint(v)
}
