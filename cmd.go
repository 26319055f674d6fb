package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"sjsage522/skinpricer/config"
	"sjsage522/skinpricer/helpers"
	"sjsage522/skinpricer/internal/identity"
	"sjsage522/skinpricer/logger"
	"sjsage522/skinpricer/services/worker"

	"github.com/spf13/cobra"
)

var (
	cfg *config.Config

	showIdentity bool
	itemsFile    string
	schedule     string
)

var rootCmd = &cobra.Command{
	Use:   "skinpricer",
	Short: "Resolve CS2 item names to marketplace URLs and price quotes",
	Long: `skinpricer turns CS2 item display names such as
"StatTrak™ AWP | Asiimov (Battle-Scarred)" into the canonical marketplace URL
for that exact item and wear, and reads a variant price and the best market
listing from the rendered item page.

Configuration comes from the environment (and a .env file, if present).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.Load()
		if cfg.Debug && os.Getenv("LOG_LEVEL") == "" {
			os.Setenv("LOG_LEVEL", "debug")
		}
		logger.Init()
		return cfg.Validate()
	},
}

var urlCmd = &cobra.Command{
	Use:   "url [item name]...",
	Short: "Print the canonical marketplace URL of each item",
	Args:  cobra.MinimumNArgs(1),
	RunE:  printURLs,
}

var resolveCmd = &cobra.Command{
	Use:   "resolve [item name]...",
	Short: "Resolve items and print one JSON result per line",
	Args:  cobra.MinimumNArgs(1),
	RunE:  resolveItems,
}

var runCmd = &cobra.Command{
	Use:   "run [item name]...",
	Short: "Resolve a batch of items, publish and record the quotes",
	Long: `Resolves every item given as an argument or listed in the items file
(one name per line, "#" starts a comment), retries once the items that came
back without a variant price, publishes the results to Redis and appends them
to the quote history.

With a schedule (cron syntax) the batch is repeated until interrupted.`,
	RunE: runBatch,
}

func init() {
	urlCmd.Flags().BoolVar(&showIdentity, "identity", false, "print the parsed identity as JSON next to the URL")
	runCmd.Flags().StringVar(&itemsFile, "items", "", "items file (overrides ITEMS_FILE)")
	runCmd.Flags().StringVar(&schedule, "schedule", "", "cron schedule (overrides REPRICE_SCHEDULE)")

	rootCmd.AddCommand(urlCmd, resolveCmd, runCmd)
}

func printURLs(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	for _, name := range args {
		id, url := identity.Resolve(cfg.MarketBaseURL, name)
		if !showIdentity {
			fmt.Fprintln(out, url)
			continue
		}
		data, err := json.Marshal(id)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s\t%s\n", url, data)
	}
	return nil
}

func resolveItems(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := initializeServices(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer deps.Close()

	res, err := newResolver(cfg, deps)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	for _, name := range args {
		result, err := res.Resolve(ctx, name)
		if err != nil {
			logger.ForResolver().Error().Err(err).Str("item", name).Msg("Resolve failed")
			result.Error = err.Error()
		}
		if err := enc.Encode(result); err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	if itemsFile == "" {
		itemsFile = cfg.ItemsFile
	}
	if schedule == "" {
		schedule = cfg.RepriceSchedule
	}

	load := func() ([]string, error) {
		names := append([]string(nil), args...)
		if itemsFile != "" {
			fromFile, err := helpers.LoadItems(itemsFile)
			if err != nil {
				return nil, err
			}
			names = append(names, fromFile...)
		}
		return names, nil
	}

	names, err := load()
	if err != nil {
		return err
	}
	if len(names) == 0 {
		return fmt.Errorf("no items: pass names as arguments or set --items / ITEMS_FILE")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := initializeServices(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer deps.Close()

	res, err := newResolver(cfg, deps)
	if err != nil {
		return err
	}

	w := worker.NewWorker(res, worker.Options{
		Workers:   cfg.Workers,
		Publisher: deps.Publisher,
		Store:     deps.Store,
		Failures:  helpers.NewLogger(cfg.FailureLog),
	})

	log := logger.Default
	log.Info().
		Str("environment", cfg.Environment).
		Str("fetch_mode", cfg.FetchMode).
		Int("workers", cfg.Workers).
		Int("items", len(names)).
		Msg("Starting skinpricer")

	if schedule != "" {
		return w.Schedule(ctx, schedule, load)
	}

	results, err := w.RunOnce(ctx, names)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	for _, r := range results {
		if err := enc.Encode(r); err != nil {
			return err
		}
	}
	return nil
}
