// Package cli implements the fincache command line.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-finance-cache/aggregator"
	"github.com/goliatone/go-finance-cache/config"
	"github.com/goliatone/go-finance-cache/pkg/di"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// SetVersionInfo records build metadata for the version command.
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
}

type app struct {
	configPath string
	verbose    bool
	out        io.Writer
	errOut     io.Writer

	logger    *slog.Logger
	container *di.Container
}

// NewRootCommand builds the command tree writing results to out and logs to
// errOut.
func NewRootCommand(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out, errOut: errOut}

	root := &cobra.Command{
		Use:           "fincache",
		Short:         "Cached finance news and live metal prices",
		Long:          "fincache fetches finance headlines and gold and silver prices in INR, falling back across providers and serving cached data when they fail.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelWarn
			if a.verbose {
				level = slog.LevelDebug
			}
			a.logger = slog.New(slog.NewTextHandler(a.errOut, &slog.HandlerOptions{Level: level}))
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to config file (default "+config.DefaultPath()+")")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log every source attempt to stderr")

	root.AddCommand(
		newNewsCommand(a),
		newCategorizedCommand(a),
		newHeadlinesCommand(a),
		newPriceCommand(a, "gold", "Live gold price in INR", (*aggregator.Service).GetLiveGoldPrice),
		newPriceCommand(a, "silver", "Live silver price in INR", (*aggregator.Service).GetLiveSilverPrice),
		newMetalsCommand(a),
		newFXCommand(a),
		newWatchCommand(a),
		newConfigCommand(a),
		newVersionCommand(a),
	)

	return root
}

// Execute runs the command line with the process arguments.
func Execute(ctx context.Context) error {
	root := NewRootCommand(os.Stdout, os.Stderr)
	err := root.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
	return err
}

// service loads the configuration and builds the container on first use.
func (a *app) service() (*aggregator.Service, error) {
	if a.container != nil {
		return a.container.Service(), nil
	}

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return nil, err
	}

	container, err := di.NewContainer(cfg, di.WithLogger(a.logger))
	if err != nil {
		return nil, err
	}
	a.container = container
	return container.Service(), nil
}

func (a *app) print(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
