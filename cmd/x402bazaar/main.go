// Command x402bazaar browses and calls the x402 Bazaar API marketplace.
//
// Payments are made out of band: a call that answers 402 prints where to
// send USDC, and the same call is repeated with --tx once the transfer is
// confirmed.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/lmittmann/tint"
	"github.com/urfave/cli/v2"

	bazaar "github.com/x402-bazaar/x402-bazaar-go"
	"github.com/x402-bazaar/x402-bazaar-go/plugin"
)

const (
	urlEnvVar     = "X402_BAZAAR_URL"
	timeoutEnvVar = "X402_BAZAAR_TIMEOUT"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp(os.Stdout, os.Stderr).RunContext(ctx, os.Args); err != nil {
		slog.New(tint.NewHandler(os.Stderr, nil)).Error("x402bazaar failed", tint.Err(err))
		os.Exit(1)
	}
}

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:                      "x402bazaar",
		Usage:                     "browse and call the x402 Bazaar API marketplace",
		Version:                   plugin.Version,
		Writer:                    stdout,
		ErrWriter:                 stderr,
		DisableSliceFlagSeparator: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "url",
				Usage:   "marketplace base URL",
				Value:   bazaar.DefaultBaseURL,
				EnvVars: []string{urlEnvVar},
			},
			&cli.DurationFlag{
				Name:    "timeout",
				Usage:   "per-request time limit",
				Value:   bazaar.DefaultTimeout,
				EnvVars: []string{timeoutEnvVar},
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "log requests and responses to stderr",
			},
		},
		Commands: []*cli.Command{
			demoCommand(),
			listCommand(),
			searchCommand(),
			callCommand(),
			infoCommand(),
			statsCommand(),
			reportCommand(),
			mcpCommand(),
		},
	}
}

// newClient builds a Client from the global flags.  Without --verbose only
// warnings and errors are logged.
func newClient(cCtx *cli.Context) (*bazaar.Client, *slog.Logger, error) {
	level := slog.LevelWarn
	if cCtx.Bool("verbose") {
		level = slog.LevelDebug
	}

	log := slog.New(tint.NewHandler(cCtx.App.ErrWriter, &tint.Options{
		Level: level,
	}))

	cl, err := bazaar.NewClient(
		bazaar.WithBaseURL(cCtx.String("url")),
		bazaar.WithTimeout(cCtx.Duration("timeout")),
		bazaar.WithLogger(log),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create client: %w", err)
	}

	return cl, log, nil
}
