package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-finance-cache/aggregator"
	"github.com/goliatone/go-finance-cache/config"
	"github.com/goliatone/go-finance-cache/metals"
	"github.com/goliatone/go-finance-cache/news"
)

func newNewsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "news [category]",
		Short: "Finance news for a category (all, stocks, crypto, economy)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service()
			if err != nil {
				return err
			}
			category := news.CategoryAll
			if len(args) == 1 {
				category = args[0]
			}
			return a.print(svc.GetFinanceNews(cmd.Context(), category))
		},
	}
}

func newCategorizedCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "categorized",
		Short: "News for every category at once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service()
			if err != nil {
				return err
			}
			return a.print(svc.GetCategorizedNews(cmd.Context()))
		},
	}
}

func newHeadlinesCommand(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "headlines",
		Short: "The newest headlines across all categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 0 {
				return fmt.Errorf("--limit must not be negative, got %d", limit)
			}
			svc, err := a.service()
			if err != nil {
				return err
			}
			return a.print(svc.GetTopHeadlines(cmd.Context(), limit))
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", aggregator.DefaultHeadlineLimit, "number of headlines")
	return cmd
}

type priceFunc func(*aggregator.Service, context.Context) (metals.Quote, error)

func newPriceCommand(a *app, use, short string, get priceFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service()
			if err != nil {
				return err
			}
			quote, err := get(svc, cmd.Context())
			if err != nil {
				return err
			}
			return a.print(quote)
		},
	}
}

func newMetalsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "metals",
		Short: "Gold and silver prices; a metal that cannot be priced is null",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service()
			if err != nil {
				return err
			}
			return a.print(svc.GetLiveMetalPrices(cmd.Context()))
		},
	}
}

func newFXCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "fx",
		Short: "The USD/INR rate used for conversions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service()
			if err != nil {
				return err
			}
			rate, err := svc.GetUSDINRRate(cmd.Context())
			if err != nil {
				return err
			}
			return a.print(rate)
		},
	}
}

func newWatchCommand(a *app) *cobra.Command {
	var (
		interval time.Duration
		count    int
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print metal prices on an interval, one JSON line per tick",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if interval <= 0 {
				return fmt.Errorf("--interval must be positive, got %s", interval)
			}
			svc, err := a.service()
			if err != nil {
				return err
			}
			return watch(cmd.Context(), interval, count, func(ctx context.Context) error {
				return json.NewEncoder(a.out).Encode(svc.GetLiveMetalPrices(ctx))
			})
		},
	}
	cmd.Flags().DurationVarP(&interval, "interval", "i", 15*time.Second, "time between refreshes")
	cmd.Flags().IntVarP(&count, "count", "c", 0, "stop after this many ticks, 0 runs until interrupted")
	return cmd
}

// watch calls tick immediately and then every interval until count ticks ran
// or ctx is done.
func watch(ctx context.Context, interval time.Duration, count int, tick func(context.Context) error) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for n := 1; ; n++ {
		if err := tick(ctx); err != nil {
			return err
		}
		if count > 0 && n >= count {
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func newConfigCommand(a *app) *cobra.Command {
	var initFile bool
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration, or write the defaults with --init",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if initFile {
				path := a.configPath
				if path == "" {
					path = config.DefaultPath()
				}
				if err := config.WriteDefaults(path); err != nil {
					return err
				}
				fmt.Fprintf(a.out, "wrote %s\n", path)
				return nil
			}

			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(a.out)
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(cfg.Redacted())
		},
	}
	cmd.Flags().BoolVar(&initFile, "init", false, "write the default configuration to --config or the default path")
	return cmd
}

func newVersionCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.out, "fincache %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}
