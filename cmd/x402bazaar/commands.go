package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"strings"

	"github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v2"

	bazaar "github.com/x402-bazaar/x402-bazaar-go"
	"github.com/x402-bazaar/x402-bazaar-go/pkg/api"
	"github.com/x402-bazaar/x402-bazaar-go/plugin"
)

var (
	errUsage      = errors.New("usage")
	errCallFailed = errors.New("call failed")
)

func listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "list the available APIs",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "all", Usage: fmt.Sprintf("show every API instead of the first %d", plugin.ListLimit)},
		},
		Action: func(cCtx *cli.Context) error {
			cl, _, err := newClient(cCtx)
			if err != nil {
				return err
			}

			services, err := cl.DiscoverServices(cCtx.Context)
			if err != nil {
				return err
			}

			limit := plugin.ListLimit
			if cCtx.Bool("all") {
				limit = 0
			}

			_, err = io.WriteString(cCtx.App.Writer, plugin.FormatServiceList(services, limit))

			return err
		},
	}
}

func searchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "search APIs by name, description or tag",
		ArgsUsage: "QUERY",
		Action: func(cCtx *cli.Context) error {
			if cCtx.NArg() != 1 {
				return fmt.Errorf("%w: search QUERY", errUsage)
			}

			cl, _, err := newClient(cCtx)
			if err != nil {
				return err
			}

			query := cCtx.Args().First()

			services, err := cl.SearchServices(cCtx.Context, query)
			if err != nil {
				return err
			}

			_, err = io.WriteString(cCtx.App.Writer, plugin.FormatSearchResults(query, services))

			return err
		},
	}
}

func callCommand() *cli.Command {
	return &cli.Command{
		Name:      "call",
		Usage:     "call an API endpoint",
		ArgsUsage: "ENDPOINT",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "method", Aliases: []string{"X"}, Value: string(api.MethodGet), Usage: "GET or POST"},
			&cli.StringSliceFlag{Name: "param", Aliases: []string{"p"}, Usage: "parameter as key=value, repeatable"},
			&cli.StringFlag{Name: "data", Aliases: []string{"d"}, Usage: "parameters as a JSON object"},
			&cli.StringFlag{Name: "tx", Usage: "hash of the transaction that paid for this call"},
			&cli.BoolFlag{Name: "json", Usage: "print payment details as JSON"},
		},
		Action: func(cCtx *cli.Context) error {
			if cCtx.NArg() != 1 {
				return fmt.Errorf("%w: call [flags] ENDPOINT", errUsage)
			}

			params, err := callParams(cCtx.StringSlice("param"), cCtx.String("data"))
			if err != nil {
				return err
			}

			opts := []bazaar.CallOption{bazaar.WithMethod(cCtx.String("method"))}

			if tx := cCtx.String("tx"); tx != "" {
				hash, err := api.ParseTxHash(tx)
				if err != nil {
					return err
				}

				opts = append(opts, bazaar.WithPaymentProof(hash.Hex()))
			}

			cl, _, err := newClient(cCtx)
			if err != nil {
				return err
			}

			out := cl.CallAPI(cCtx.Context, cCtx.Args().First(), params, opts...)

			if pr, ok := out.(*bazaar.PaymentRequired); ok && cCtx.Bool("json") {
				return writeJSON(cCtx.App.Writer, pr.Details)
			}

			if _, err := io.WriteString(cCtx.App.Writer, plugin.FormatOutcome(out)); err != nil {
				return err
			}

			if f, ok := out.(*bazaar.Failure); ok {
				return fmt.Errorf("%w: %w", errCallFailed, f)
			}

			return nil
		},
	}
}

// callParams merges --data with --param pairs; pairs win.
func callParams(pairs []string, data string) (bazaar.Params, error) {
	params := bazaar.Params{}

	if data != "" {
		var obj map[string]any
		if err := json.Unmarshal([]byte(data), &obj); err != nil {
			return nil, fmt.Errorf("%w: --data must be a JSON object: %w", errUsage, err)
		}

		maps.Copy(params, obj)
	}

	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("%w: --param %q is not key=value", errUsage, pair)
		}

		params[k] = v
	}

	if len(params) == 0 {
		return nil, nil
	}

	return params, nil
}

func infoCommand() *cli.Command {
	return &cli.Command{
		Name:  "info",
		Usage: "show the marketplace's root document",
		Action: func(cCtx *cli.Context) error {
			cl, _, err := newClient(cCtx)
			if err != nil {
				return err
			}

			info, err := cl.MarketplaceInfo(cCtx.Context)
			if err != nil {
				return err
			}

			_, err = io.WriteString(cCtx.App.Writer, plugin.FormatInfo(info))

			return err
		},
	}
}

func statsCommand() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "show public usage statistics",
		Action: func(cCtx *cli.Context) error {
			cl, _, err := newClient(cCtx)
			if err != nil {
				return err
			}

			stats, err := cl.PublicStats(cCtx.Context)
			if err != nil {
				return err
			}

			return writeJSON(cCtx.App.Writer, stats)
		},
	}
}

func reportCommand() *cli.Command {
	return &cli.Command{
		Name:  "report",
		Usage: "summarize the marketplace catalog",
		Action: func(cCtx *cli.Context) error {
			cl, log, err := newClient(cCtx)
			if err != nil {
				return err
			}

			p := plugin.New(cl, plugin.WithOutput(cCtx.App.Writer), plugin.WithLogger(log))

			_, err = fmt.Fprintln(cCtx.App.Writer, p.Report(cCtx.Context))

			return err
		},
	}
}

func mcpCommand() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "serve the x402_* tools over MCP",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "http", Usage: "listen on this address with streamable HTTP instead of stdio"},
		},
		Action: func(cCtx *cli.Context) error {
			cl, log, err := newClient(cCtx)
			if err != nil {
				return err
			}

			// stdout belongs to the protocol.
			p := plugin.New(cl, plugin.WithOutput(io.Discard), plugin.WithLogger(log))
			s := p.NewMCPServer()

			if addr := cCtx.String("http"); addr != "" {
				log.Info("Serving MCP over HTTP", slog.String("addr", addr))

				return server.NewStreamableHTTPServer(s).Start(addr)
			}

			return server.ServeStdio(s)
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}
