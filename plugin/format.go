package plugin

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	bazaar "github.com/x402-bazaar/x402-bazaar-go"
)

const (
	prefix = "[x402 Bazaar]"

	// ListLimit is the number of services shown by the list command.
	ListLimit = 20

	topCategories = 5
)

// FormatServiceList renders at most limit services, then a count of the
// rest.  A limit of zero or less shows every service.
func FormatServiceList(services []bazaar.Service, limit int) string {
	b := &strings.Builder{}
	fmt.Fprintf(b, "\n%s %d APIs available:\n\n", prefix, len(services))

	shown := services
	if limit > 0 && len(shown) > limit {
		shown = shown[:limit]
	}

	writeServices(b, shown)

	if rest := len(services) - len(shown); rest > 0 {
		fmt.Fprintf(b, "  ... and %d more APIs\n", rest)
	}

	return b.String()
}

// FormatSearchResults renders every service matching query.
func FormatSearchResults(query string, services []bazaar.Service) string {
	b := &strings.Builder{}
	fmt.Fprintf(b, "\n%s Found %d APIs matching '%s':\n\n", prefix, len(services), query)
	writeServices(b, services)

	return b.String()
}

func writeServices(b *strings.Builder, services []bazaar.Service) {
	for _, svc := range services {
		name := svc.Name
		if name == "" {
			name = "Unknown"
		}

		desc := svc.Description
		if desc == "" {
			desc = "No description"
		}

		fmt.Fprintf(b, "  • %s\n", name)
		fmt.Fprintf(b, "    %s\n", desc)

		if svc.Endpoint != "" {
			fmt.Fprintf(b, "    Endpoint: %s\n", svc.Endpoint)
		}

		fmt.Fprintf(b, "    Cost: %s\n\n", costText(svc))
	}
}

func costText(svc bazaar.Service) string {
	if svc.Free() {
		return "Free"
	}

	return svc.CostUSDC + " " + bazaar.PaymentToken
}

// FormatOutcome renders the result of a call.
func FormatOutcome(out bazaar.Outcome) string {
	switch out := out.(type) {
	case *bazaar.Success:
		data, err := json.MarshalIndent(out.Data, "", "  ")
		if err != nil {
			return fmt.Sprintf("%s Success, but the response could not be rendered: %s\n", prefix, err)
		}

		return fmt.Sprintf("%s Success! Response:\n%s\n", prefix, data)

	case *bazaar.PaymentRequired:
		b := &strings.Builder{}
		fmt.Fprintf(b, "%s %s\n", prefix, out.Details.Message)

		for _, line := range out.Details.Instructions {
			fmt.Fprintf(b, "  %s\n", line)
		}

		return b.String()

	case *bazaar.Failure:
		return fmt.Sprintf("%s Error: %s\n", prefix, out.Message)

	default:
		return fmt.Sprintf("%s Error: unknown outcome %T\n", prefix, out)
	}
}

// FormatInfo renders the marketplace's root document.
func FormatInfo(info map[string]any) string {
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return fmt.Sprintf("%s Error getting marketplace info: %s\n", prefix, err)
	}

	return fmt.Sprintf("\n%s Marketplace Information:\n%s\n", prefix, data)
}

// formatReport renders the plugin report.  It has no trailing newline.
func formatReport(enabled bool, baseURL string, info map[string]any, services []bazaar.Service) string {
	status := "Disabled"
	if enabled {
		status = "Enabled"
	}

	name, _ := info["name"].(string)
	if name == "" {
		name = "x402 Bazaar"
	}

	free, paid, total := 0, 0, decimal.Zero

	for _, svc := range services {
		if svc.Free() {
			free++
			continue
		}

		cost, err := svc.Cost()
		if err != nil {
			continue
		}

		paid++
		total = total.Add(cost)
	}

	lines := []string{
		"=== x402 Bazaar Plugin Report ===",
		"Status: " + status,
		"Version: " + Version,
		"Marketplace: " + name,
		fmt.Sprintf("Available APIs: %d", len(services)),
		fmt.Sprintf("Free APIs: %d", free),
		fmt.Sprintf("Paid APIs: %d", paid),
	}

	if paid > 0 {
		avg := total.Div(decimal.NewFromInt(int64(paid)))
		lines = append(lines, fmt.Sprintf("Average cost: %s %s", avg.StringFixed(4), bazaar.PaymentToken))
	}

	lines = append(lines, "Base URL: "+baseURL, "", "Top Categories:")

	for _, c := range rankCategories(services, topCategories) {
		lines = append(lines, fmt.Sprintf("  - %s: %d APIs", c.name, c.count))
	}

	lines = append(lines,
		"",
		"Commands:",
		"  - x402_list: List all available APIs",
		"  - x402_search: Search for APIs by keyword",
		"  - x402_call: Call an API endpoint (retry with payment_tx_hash after paying)",
		"  - x402_info: Get marketplace information",
	)

	return strings.Join(lines, "\n")
}

type categoryCount struct {
	name  string
	count int
}

// rankCategories orders categories by service count, ties in first-seen
// order, and keeps the first n.
func rankCategories(services []bazaar.Service, n int) []categoryCount {
	idx := map[string]int{}
	counts := []categoryCount{}

	for _, svc := range services {
		cat := svc.Category
		if cat == "" {
			cat = bazaar.DefaultCategory
		}

		i, ok := idx[cat]
		if !ok {
			i = len(counts)
			idx[cat] = i
			counts = append(counts, categoryCount{name: cat})
		}

		counts[i].count++
	}

	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].count > counts[j].count
	})

	if len(counts) > n {
		counts = counts[:n]
	}

	return counts
}
