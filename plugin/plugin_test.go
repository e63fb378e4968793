package plugin_test

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gotest.tools/v3/golden"

	bazaar "github.com/x402-bazaar/x402-bazaar-go"
	"github.com/x402-bazaar/x402-bazaar-go/pkg/api"
	"github.com/x402-bazaar/x402-bazaar-go/pkg/api/apitest"
	"github.com/x402-bazaar/x402-bazaar-go/plugin"
)

// production reports the default base URL so rendered output doesn't
// depend on the stub's port.
type production struct {
	*bazaar.Client
}

func (production) BaseURL() string {
	return bazaar.DefaultBaseURL
}

func newPlugin(t *testing.T) (*plugin.Plugin, *apitest.Marketplace, *bytes.Buffer) {
	t.Helper()

	m := apitest.NewMarketplace(t)

	cl, err := bazaar.NewClient(bazaar.WithBaseURL(m.URL))
	require.NoError(t, err)

	buf := &bytes.Buffer{}

	return plugin.New(production{cl}, plugin.WithOutput(buf)), m, buf
}

func TestPreCommand(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("passes - list", func(t *testing.T) {
		t.Parallel()

		p, _, buf := newPlugin(t)

		assert.Equal(t, "x402_list", p.PreCommand(ctx, "x402_list", nil))
		golden.Assert(t, buf.String(), "list.golden")
	})

	t.Run("passes - search", func(t *testing.T) {
		t.Parallel()

		p, _, buf := newPlugin(t)

		p.PreCommand(ctx, "x402_search", map[string]any{"query": "weather"})

		out := buf.String()
		assert.Contains(t, out, "Found 1 APIs matching 'weather'")
		assert.Contains(t, out, "• Weather API")
		assert.NotContains(t, out, "Web Search")
	})

	t.Run("passes - info", func(t *testing.T) {
		t.Parallel()

		p, _, buf := newPlugin(t)

		p.PreCommand(ctx, "x402_info", nil)

		assert.Contains(t, buf.String(), "Marketplace Information:")
		assert.Contains(t, buf.String(), `"version": "2.0.0"`)
	})

	t.Run("passes - call requiring payment is cached", func(t *testing.T) {
		t.Parallel()

		p, m, buf := newPlugin(t)

		p.PreCommand(ctx, "x402_call", map[string]any{
			"endpoint": "/api/weather",
			"params":   map[string]any{"city": "Paris"},
		})

		out := buf.String()
		assert.Contains(t, out, "[x402 Bazaar] Calling GET /api/weather...")
		assert.Contains(t, out, "Payment required: 0.03 USDC")
		assert.Contains(t, out, "1. Send 0.03 USDC on BASE to: "+bazaar.PaymentAddress)
		assert.Equal(t, "Paris", m.LastRequest(t).Query.Get("city"))

		rec, ok := p.LastCall()
		require.True(t, ok)
		assert.Equal(t, plugin.CallRecord{Endpoint: "/api/weather", Cost: "0.03", PaymentStatus: "required"}, rec)
	})

	t.Run("passes - call with payment proof and JSON params", func(t *testing.T) {
		t.Parallel()

		p, m, buf := newPlugin(t)

		p.PreCommand(ctx, "x402_call", map[string]any{
			"endpoint":        "/api/weather",
			"params":          `{"city":"Oslo"}`,
			"payment_tx_hash": apitest.TxHash,
		})

		assert.Contains(t, buf.String(), "Success! Response:")
		assert.Contains(t, buf.String(), `"city": "Oslo"`)

		req := m.LastRequest(t)
		assert.Equal(t, apitest.TxHash, req.Header.Get(api.HeaderPaymentTxHash))
		assert.Equal(t, "base", req.Header.Get(api.HeaderPaymentChain))

		rec, ok := p.LastCall()
		require.True(t, ok)
		assert.Equal(t, "completed", rec.PaymentStatus)
		assert.Equal(t, "unknown", rec.Cost)
	})

	t.Run("passes - POST call", func(t *testing.T) {
		t.Parallel()

		p, m, buf := newPlugin(t)

		p.PreCommand(ctx, "x402_call", map[string]any{
			"endpoint":        "/api/image",
			"method":          "post",
			"params":          map[string]any{"prompt": "a lighthouse"},
			"payment_tx_hash": apitest.TxHash,
		})

		assert.Contains(t, buf.String(), "Calling POST /api/image...")
		assert.Equal(t, http.MethodPost, m.LastRequest(t).Method)
		assert.JSONEq(t, `{"prompt":"a lighthouse"}`, string(m.LastRequest(t).Body))
	})

	t.Run("fails - unsupported method is echoed as given", func(t *testing.T) {
		t.Parallel()

		p, m, buf := newPlugin(t)

		p.PreCommand(ctx, "x402_call", map[string]any{"endpoint": "/api/weather", "method": "put"})

		assert.Contains(t, buf.String(), "[x402 Bazaar] Error: Unsupported HTTP method: put\n")
		assert.Empty(t, m.Requests())
	})

	t.Run("fails - malformed payment proof is not sent", func(t *testing.T) {
		t.Parallel()

		p, m, buf := newPlugin(t)

		p.PreCommand(ctx, "x402_call", map[string]any{
			"endpoint":        "/api/weather",
			"payment_tx_hash": "0x1234",
		})

		assert.Contains(t, buf.String(), "Error calling API: invalid transaction hash")
		assert.Empty(t, m.Requests())

		_, ok := p.LastCall()
		assert.False(t, ok)
	})

	t.Run("fails - missing endpoint", func(t *testing.T) {
		t.Parallel()

		p, _, buf := newPlugin(t)

		p.PreCommand(ctx, "x402_call", map[string]any{})

		assert.Contains(t, buf.String(), plugin.ErrMissingEndpoint.Error())
	})

	t.Run("fails - params that are not an object", func(t *testing.T) {
		t.Parallel()

		p, m, buf := newPlugin(t)

		p.PreCommand(ctx, "x402_call", map[string]any{"endpoint": "/api/weather", "params": "[1,2]"})

		assert.Contains(t, buf.String(), "params must be a JSON object")
		assert.Empty(t, m.Requests())
	})

	t.Run("passes - other commands are ignored", func(t *testing.T) {
		t.Parallel()

		p, m, buf := newPlugin(t)

		assert.Equal(t, "browse_website", p.PreCommand(ctx, "browse_website", nil))
		assert.Equal(t, "x402_unknown", p.PreCommand(ctx, "x402_unknown", nil))
		assert.Empty(t, buf.String())
		assert.Empty(t, m.Requests())
	})

	t.Run("passes - disabled plugin does nothing", func(t *testing.T) {
		t.Parallel()

		p, m, buf := newPlugin(t)
		p.SetEnabled(false)

		assert.Equal(t, "x402_list", p.PreCommand(ctx, "x402_list", nil))
		assert.Empty(t, buf.String())
		assert.Empty(t, m.Requests())
	})

	t.Run("passes - discovery errors are written", func(t *testing.T) {
		t.Parallel()

		p, m, buf := newPlugin(t)
		m.Handle(http.MethodGet, "/api/services", apitest.Respond(http.StatusInternalServerError, "boom"))

		p.PreCommand(ctx, "x402_list", nil)

		assert.Contains(t, buf.String(), "[x402 Bazaar] Error listing services:")
	})
}

func TestPostCommand(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	const hint = "\n\n[x402 Bazaar] 5 APIs available. Use 'x402 list' to see all services."

	t.Run("passes - search commands get the service count", func(t *testing.T) {
		t.Parallel()

		p, _, _ := newPlugin(t)

		assert.Equal(t, "done"+hint, p.PostCommand(ctx, "x402_search", "done"))
		assert.Equal(t, "done"+hint, p.PostCommand(ctx, "API_Search", "done"))
	})

	t.Run("passes - other commands are unchanged", func(t *testing.T) {
		t.Parallel()

		p, m, _ := newPlugin(t)

		assert.Equal(t, "done", p.PostCommand(ctx, "x402_list", "done"))
		assert.Equal(t, "done", p.PostCommand(ctx, "web_search", "done"))
		assert.Empty(t, m.Requests())
	})

	t.Run("passes - discovery errors are swallowed", func(t *testing.T) {
		t.Parallel()

		p, m, _ := newPlugin(t)
		m.Handle(http.MethodGet, "/api/services", apitest.Respond(http.StatusBadGateway, ""))

		assert.Equal(t, "done", p.PostCommand(ctx, "x402_search", "done"))
	})

	t.Run("passes - empty catalog adds nothing", func(t *testing.T) {
		t.Parallel()

		p, m, _ := newPlugin(t)
		m.Handle(http.MethodGet, "/api/services", apitest.Respond(http.StatusOK, "[]"))

		assert.Equal(t, "done", p.PostCommand(ctx, "x402_search", "done"))
	})

	t.Run("passes - disabled", func(t *testing.T) {
		t.Parallel()

		p, m, _ := newPlugin(t)
		p.SetEnabled(false)

		assert.Equal(t, "done", p.PostCommand(ctx, "x402_search", "done"))
		assert.Empty(t, m.Requests())
	})
}

func TestOnResponse(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("passes - summarizes and clears the last call", func(t *testing.T) {
		t.Parallel()

		p, _, buf := newPlugin(t)

		p.PreCommand(ctx, "x402_call", map[string]any{"endpoint": "/api/crypto", "params": map[string]any{"symbol": "BTC"}})
		buf.Reset()

		assert.Equal(t, "response", p.OnResponse("response"))
		assert.Equal(t, "[x402 Bazaar] API call completed:\n  Endpoint: /api/crypto\n  Cost: 0.02 USDC\n  Payment: required\n", buf.String())

		_, ok := p.LastCall()
		assert.False(t, ok)

		buf.Reset()
		assert.Equal(t, "again", p.OnResponse("again"))
		assert.Empty(t, buf.String())
	})

	t.Run("passes - nothing cached", func(t *testing.T) {
		t.Parallel()

		p, _, buf := newPlugin(t)

		assert.Equal(t, "response", p.OnResponse("response"))
		assert.Empty(t, buf.String())
	})

	t.Run("passes - failed calls are summarized as unknown", func(t *testing.T) {
		t.Parallel()

		p, m, buf := newPlugin(t)
		m.Handle(http.MethodGet, "/api/crypto", apitest.Respond(http.StatusServiceUnavailable, `{"error":"upstream down"}`))

		p.PreCommand(ctx, "x402_call", map[string]any{"endpoint": "/api/crypto"})
		assert.Contains(t, buf.String(), "[x402 Bazaar] Error: upstream down")
		buf.Reset()

		p.OnResponse("response")
		assert.Contains(t, buf.String(), "Cost: unknown USDC")
		assert.Contains(t, buf.String(), "Payment: unknown")
	})
}

func TestReport(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("passes - enabled", func(t *testing.T) {
		t.Parallel()

		p, _, _ := newPlugin(t)

		golden.Assert(t, p.Report(ctx), "report.golden")
	})

	t.Run("passes - disabled and HTML root", func(t *testing.T) {
		t.Parallel()

		p, m, _ := newPlugin(t)
		p.SetEnabled(false)
		m.Handle(http.MethodGet, "/", apitest.Respond(http.StatusOK, "<html>Bazaar</html>"))

		report := p.Report(ctx)
		assert.Contains(t, report, "Status: Disabled")
		assert.Contains(t, report, "Marketplace: x402 Bazaar")
	})

	t.Run("passes - categories are capped at five", func(t *testing.T) {
		t.Parallel()

		p, m, _ := newPlugin(t)

		services := make([]string, 0, 7)
		for i := range 7 {
			services = append(services, fmt.Sprintf(`{"name":"s%d","category":"c%d"}`, i, i))
		}

		m.Handle(http.MethodGet, "/api/services", apitest.Respond(http.StatusOK, "["+strings.Join(services, ",")+"]"))

		report := p.Report(ctx)
		assert.Contains(t, report, "  - c4: 1 APIs")
		assert.NotContains(t, report, "  - c5:")
		assert.Contains(t, report, "Free APIs: 7")
		assert.NotContains(t, report, "Average cost")
	})

	t.Run("fails - discovery error", func(t *testing.T) {
		t.Parallel()

		p, m, _ := newPlugin(t)
		m.Handle(http.MethodGet, "/api/services", apitest.Respond(http.StatusInternalServerError, ""))

		report := p.Report(ctx)
		assert.True(t, strings.HasPrefix(report, "Error generating report: "), report)
	})
}

func TestFormatServiceList(t *testing.T) {
	t.Parallel()

	services := make([]bazaar.Service, 25)
	for i := range services {
		services[i] = bazaar.Service{Name: fmt.Sprintf("svc-%02d", i), CostUSDC: "0.01"}
	}

	t.Run("passes - truncated at the limit", func(t *testing.T) {
		t.Parallel()

		out := plugin.FormatServiceList(services, plugin.ListLimit)
		assert.Contains(t, out, "25 APIs available")
		assert.Contains(t, out, "• svc-19")
		assert.NotContains(t, out, "• svc-20")
		assert.Contains(t, out, "  ... and 5 more APIs\n")
		assert.Contains(t, out, "    No description\n")
	})

	t.Run("passes - no limit", func(t *testing.T) {
		t.Parallel()

		out := plugin.FormatServiceList(services, 0)
		assert.Contains(t, out, "• svc-24")
		assert.NotContains(t, out, "more APIs")
	})
}

func TestFormatOutcome(t *testing.T) {
	t.Parallel()

	out := plugin.FormatOutcome(&bazaar.Failure{Message: "Request timeout after 30 seconds"})
	assert.Equal(t, "[x402 Bazaar] Error: Request timeout after 30 seconds\n", out)

	out = plugin.FormatOutcome(&bazaar.Success{Data: map[string]any{"ok": true}})
	assert.Equal(t, "[x402 Bazaar] Success! Response:\n{\n  \"ok\": true\n}\n", out)
}
