// Package plugin adapts a bazaar.Client to an agent host.
//
// Plugin follows the command lifecycle of agent frameworks: x402_* commands
// are handled before dispatch, search results are annotated after it, and
// the last call is summarized when the command's response comes back.
// NewMCPServer exposes the same commands as MCP tools.
//
// Nothing here interprets the payment protocol; rendering is the only job.
package plugin
