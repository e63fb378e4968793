package plugin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	bazaar "github.com/x402-bazaar/x402-bazaar-go"
	"github.com/x402-bazaar/x402-bazaar-go/internal/observability"
	"github.com/x402-bazaar/x402-bazaar-go/pkg/api"
)

const (
	Name        = "x402-bazaar"
	Version     = "0.1.0"
	Description = "Access 70+ paid APIs via x402 Bazaar marketplace with automatic " +
		"USDC payments on Base chain. Services include: web search, weather, " +
		"crypto prices, AI image generation, web scraping, translations, " +
		"stock data, and more."

	commandPrefix = "x402_"
	unknown       = "unknown"
)

// Marketplace is the subset of *bazaar.Client used by the plugin.
type Marketplace interface {
	BaseURL() string
	DiscoverServices(ctx context.Context) ([]bazaar.Service, error)
	SearchServices(ctx context.Context, query string) ([]bazaar.Service, error)
	CallAPI(ctx context.Context, endpoint string, params bazaar.Params, opts ...bazaar.CallOption) bazaar.Outcome
	MarketplaceInfo(ctx context.Context) (map[string]any, error)
}

var _ Marketplace = (*bazaar.Client)(nil)

// ErrMissingEndpoint is returned for an x402_call without an endpoint.
var ErrMissingEndpoint = errors.New("endpoint is required")

// CallRecord summarizes the most recent x402_call.
type CallRecord struct {
	Endpoint      string
	Cost          string
	PaymentStatus string
}

// Plugin handles x402_* agent commands.  It is safe for concurrent use.
type Plugin struct {
	market Marketplace
	out    io.Writer
	log    *slog.Logger

	mu      sync.Mutex
	enabled bool
	last    *CallRecord
}

// Option alters the default configuration of a Plugin.
type Option func(*Plugin)

// WithOutput sets where command output is written.  The default is
// os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(p *Plugin) {
		p.out = w
	}
}

// WithLogger sets the logger used to record swallowed errors.
func WithLogger(log *slog.Logger) Option {
	return func(p *Plugin) {
		p.log = observability.OrNoop(log)
	}
}

// New returns an enabled Plugin backed by market.
func New(market Marketplace, opts ...Option) *Plugin {
	p := &Plugin{
		market:  market,
		out:     os.Stdout,
		log:     observability.NewNoopLogger(),
		enabled: true,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Enabled reports whether the hooks are active.
func (p *Plugin) Enabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.enabled
}

// SetEnabled turns every hook on or off.  Report still works when disabled.
func (p *Plugin) SetEnabled(enabled bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.enabled = enabled
}

// LastCall returns the cached record of the most recent call, if any.
func (p *Plugin) LastCall() (CallRecord, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.last == nil {
		return CallRecord{}, false
	}

	return *p.last, true
}

// PreCommand runs x402_list, x402_search, x402_call and x402_info before
// the host dispatches them, writing the result to the plugin's output.  The
// command is always returned unchanged.
//
// x402_call reads "endpoint", "params" (an object or a JSON string),
// "method" (default GET) and "payment_tx_hash" from args.
func (p *Plugin) PreCommand(ctx context.Context, command string, args map[string]any) string {
	if !p.Enabled() || !strings.HasPrefix(command, commandPrefix) {
		return command
	}

	switch strings.TrimPrefix(command, commandPrefix) {
	case "list":
		p.write(p.list(ctx))
	case "search":
		p.write(p.search(ctx, stringArg(args, "query")))
	case "call":
		p.write(p.call(ctx, args))
	case "info":
		p.write(p.info(ctx))
	}

	return command
}

// PostCommand appends the number of available services to the response of
// any x402 or api search command.  Discovery errors leave the response
// unchanged.
func (p *Plugin) PostCommand(ctx context.Context, command, response string) string {
	if !p.Enabled() {
		return response
	}

	cmd := strings.ToLower(command)
	if !strings.Contains(cmd, "x402") && !strings.Contains(cmd, "api") {
		return response
	}

	if !strings.Contains(cmd, "search") {
		return response
	}

	services, err := p.market.DiscoverServices(ctx)
	if err != nil {
		p.log.Warn("Service count unavailable", slog.Any("error", err))

		return response
	}

	if len(services) == 0 {
		return response
	}

	return response + fmt.Sprintf("\n\n%s %d APIs available. Use 'x402 list' to see all services.", prefix, len(services))
}

// OnResponse writes a summary of the cached call, if there is one, and
// clears the cache.  The response is returned unchanged.
func (p *Plugin) OnResponse(response string) string {
	p.mu.Lock()
	enabled, rec := p.enabled, p.last
	if enabled {
		p.last = nil
	}
	p.mu.Unlock()

	if !enabled || rec == nil {
		return response
	}

	p.write(fmt.Sprintf("%s API call completed:\n  Endpoint: %s\n  Cost: %s %s\n  Payment: %s\n",
		prefix, rec.Endpoint, rec.Cost, bazaar.PaymentToken, rec.PaymentStatus))

	return response
}

// Report summarizes the plugin and the marketplace.
func (p *Plugin) Report(ctx context.Context) string {
	info, err := p.market.MarketplaceInfo(ctx)
	if err != nil {
		return "Error generating report: " + err.Error()
	}

	services, err := p.market.DiscoverServices(ctx)
	if err != nil {
		return "Error generating report: " + err.Error()
	}

	return formatReport(p.Enabled(), p.market.BaseURL(), info, services)
}

func (p *Plugin) list(ctx context.Context) string {
	services, err := p.market.DiscoverServices(ctx)
	if err != nil {
		return fmt.Sprintf("%s Error listing services: %s\n", prefix, err)
	}

	return FormatServiceList(services, ListLimit)
}

func (p *Plugin) search(ctx context.Context, query string) string {
	services, err := p.market.SearchServices(ctx, query)
	if err != nil {
		return fmt.Sprintf("%s Error searching services: %s\n", prefix, err)
	}

	return FormatSearchResults(query, services)
}

func (p *Plugin) info(ctx context.Context) string {
	info, err := p.market.MarketplaceInfo(ctx)
	if err != nil {
		return fmt.Sprintf("%s Error getting marketplace info: %s\n", prefix, err)
	}

	return FormatInfo(info)
}

func (p *Plugin) call(ctx context.Context, args map[string]any) string {
	req, err := parseCall(args)
	if err != nil {
		return fmt.Sprintf("%s Error calling API: %s\n", prefix, err)
	}

	out := p.market.CallAPI(ctx, req.endpoint, req.params, req.options()...)
	p.record(req.endpoint, out)

	return fmt.Sprintf("%s Calling %s %s...\n", prefix, strings.ToUpper(req.method), req.endpoint) + FormatOutcome(out)
}

func (p *Plugin) record(endpoint string, out bazaar.Outcome) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.last = newCallRecord(endpoint, out)
}

func (p *Plugin) write(s string) {
	if _, err := io.WriteString(p.out, s); err != nil {
		p.log.Error("Failed to write plugin output", slog.Any("error", err))
	}
}

type callRequest struct {
	endpoint string
	method   string
	params   bazaar.Params
	proof    string
}

func (r callRequest) options() []bazaar.CallOption {
	opts := []bazaar.CallOption{bazaar.WithMethod(r.method)}
	if r.proof != "" {
		opts = append(opts, bazaar.WithPaymentProof(r.proof))
	}

	return opts
}

// parseCall reads x402_call arguments.  Arguments arrive from models and
// MCP clients, so params may be an object or its JSON encoding.
func parseCall(args map[string]any) (callRequest, error) {
	req := callRequest{
		endpoint: stringArg(args, "endpoint"),
		method:   string(api.MethodGet),
	}

	if req.endpoint == "" {
		return req, ErrMissingEndpoint
	}

	if m := stringArg(args, "method"); m != "" {
		req.method = m
	}

	switch v := args["params"].(type) {
	case nil:
	case map[string]any:
		req.params = v
	case bazaar.Params:
		req.params = v
	case string:
		if strings.TrimSpace(v) == "" {
			break
		}

		if err := json.Unmarshal([]byte(v), &req.params); err != nil {
			return req, fmt.Errorf("params must be a JSON object: %w", err)
		}
	default:
		return req, fmt.Errorf("params must be an object, got %T", v)
	}

	if tx := stringArg(args, "payment_tx_hash"); tx != "" {
		hash, err := api.ParseTxHash(tx)
		if err != nil {
			return req, err
		}

		req.proof = hash.Hex()
	}

	return req, nil
}

func newCallRecord(endpoint string, out bazaar.Outcome) *CallRecord {
	rec := &CallRecord{Endpoint: endpoint, Cost: unknown, PaymentStatus: unknown}

	switch out := out.(type) {
	case *bazaar.Success:
		if out.PaymentStatus != "" {
			rec.PaymentStatus = string(out.PaymentStatus)
		}
	case *bazaar.PaymentRequired:
		rec.Cost = out.CostUSDC
		rec.PaymentStatus = "required"
	}

	return rec
}

func stringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)

	return s
}
