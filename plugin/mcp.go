package plugin

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer exposes the plugin's commands as MCP tools.
func (p *Plugin) NewMCPServer() *server.MCPServer {
	s := server.NewMCPServer(Name, Version, server.WithToolCapabilities(false))
	s.AddTools(p.Tools()...)

	return s
}

// Tools returns x402_list, x402_search, x402_call, x402_info and
// x402_report.  Tool output is the same text PreCommand writes.  A call
// that needs payment or fails at the marketplace is a normal result so the
// model can read the instructions; bad arguments and discovery errors are
// tool errors.
//
// Tools ignore the enabled flag.
func (p *Plugin) Tools() []server.ServerTool {
	return []server.ServerTool{
		{
			Tool: mcp.NewTool(commandPrefix+"list",
				mcp.WithDescription("List the APIs available on the x402 Bazaar marketplace"),
			),
			Handler: p.handleList,
		},
		{
			Tool: mcp.NewTool(commandPrefix+"search",
				mcp.WithDescription("Search x402 Bazaar APIs by keyword in name, description or tags"),
				mcp.WithString("query", mcp.Required(), mcp.Description("Keyword to search for")),
			),
			Handler: p.handleSearch,
		},
		{
			Tool: mcp.NewTool(commandPrefix+"call",
				mcp.WithDescription("Call an x402 Bazaar API endpoint. If payment is required, pay as instructed and call again with payment_tx_hash."),
				mcp.WithString("endpoint", mcp.Required(), mcp.Description("Endpoint path, for example /api/weather")),
				mcp.WithString("method", mcp.Description("HTTP method"), mcp.Enum("GET", "POST")),
				mcp.WithObject("params", mcp.Description("Query parameters for GET or JSON body for POST")),
				mcp.WithString("payment_tx_hash", mcp.Description("Hash of the USDC transfer that paid for this call")),
			),
			Handler: p.handleCall,
		},
		{
			Tool: mcp.NewTool(commandPrefix+"info",
				mcp.WithDescription("Get information about the x402 Bazaar marketplace"),
			),
			Handler: p.handleInfo,
		},
		{
			Tool: mcp.NewTool(commandPrefix+"report",
				mcp.WithDescription("Summarize the plugin status and the marketplace catalog"),
			),
			Handler: p.handleReport,
		},
	}
}

func (p *Plugin) handleList(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	services, err := p.market.DiscoverServices(ctx)
	if err != nil {
		return toolError("Error listing services: " + err.Error()), nil
	}

	return toolText(FormatServiceList(services, ListLimit)), nil
}

func (p *Plugin) handleSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := stringArg(req.GetArguments(), "query")

	services, err := p.market.SearchServices(ctx, query)
	if err != nil {
		return toolError("Error searching services: " + err.Error()), nil
	}

	return toolText(FormatSearchResults(query, services)), nil
}

func (p *Plugin) handleCall(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	call, err := parseCall(req.GetArguments())
	if err != nil {
		return toolError("Error calling API: " + err.Error()), nil
	}

	out := p.market.CallAPI(ctx, call.endpoint, call.params, call.options()...)
	p.record(call.endpoint, out)

	return toolText(FormatOutcome(out)), nil
}

func (p *Plugin) handleInfo(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	info, err := p.market.MarketplaceInfo(ctx)
	if err != nil {
		return toolError("Error getting marketplace info: " + err.Error()), nil
	}

	return toolText(FormatInfo(info)), nil
}

func (p *Plugin) handleReport(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return toolText(p.Report(ctx)), nil
}

func toolText(s string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(s),
		},
	}
}

func toolError(s string) *mcp.CallToolResult {
	res := toolText(s)
	res.IsError = true

	return res
}
