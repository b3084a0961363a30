package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"taskrabbit-scraper/config"
	"taskrabbit-scraper/models"
	"taskrabbit-scraper/services"
	"taskrabbit-scraper/storage"
	"taskrabbit-scraper/utils"
)

// errRunFailed marks a run whose exit status is non-zero after the
// summary has already been printed.
var errRunFailed = errors.New("scrape failed")

type options struct {
	configPath string
	maxPages   int
	headless   bool
	outputDir  string
	address    string
	verbose    bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		if !errors.Is(err, errRunFailed) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "taskrabbit-scraper [category|all]",
		Short: "Scrape TaskRabbit recommended taskers into CSV files",
		Long: "Walks the TaskRabbit booking flow for one category (or all of them),\n" +
			"collects every tasker card across result pages and writes one CSV per category.\n" +
			"Without an argument the categories are offered in an interactive prompt.",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.configPath, "config", "c", "", "path to a YAML config file (default taskrabbit.yaml in . or ./configs)")
	f.IntVar(&opts.maxPages, "max-pages", 0, "stop after this many result pages per category (0 = all)")
	f.BoolVar(&opts.headless, "headless", false, "run Chrome without a window")
	f.StringVarP(&opts.outputDir, "output-dir", "o", "", "directory for CSV files")
	f.StringVar(&opts.address, "address", "", "booking address typed into the flow")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")

	return cmd
}

func run(cmd *cobra.Command, args []string, opts options) error {
	ctx := cmd.Context()

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	applyFlags(cmd, cfg, opts)
	if err := config.Validate(cfg); err != nil {
		return err
	}
	if err := utils.SetupLogger(cfg.Logging.Level, cfg.Logging.Format); err != nil {
		return err
	}

	registry, err := cfg.Registry()
	if err != nil {
		return err
	}

	target, err := resolveTarget(args, registry)
	if err != nil {
		return err
	}
	if target == "" {
		utils.Info("Cancelled")
		return nil
	}

	utils.Info("Scraper starting | target=%s max_pages=%d headless=%t delay=%v-%v",
		target, cfg.Scrape.MaxPages, cfg.Browser.Headless, cfg.Scrape.MinDelay, cfg.Scrape.MaxDelay)

	sinks := openSinks(ctx, cfg)
	defer func() {
		for _, s := range sinks {
			if err := s.Close(); err != nil {
				utils.Warn("Closing %s: %v", s.Name(), err)
			}
		}
	}()

	runner := services.NewRunner(cfg, registry, services.ChromeSessions(cfg), storage.NewCSVWriter(cfg.Output.Dir), sinks...)
	outcomes := runner.Run(ctx, target)

	printSummary(outcomes)
	services.PrintReport(cmd.OutOrStdout(), services.GenerateReport(outcomes))

	if services.Failed(outcomes) {
		return errRunFailed
	}
	return nil
}

// applyFlags lets explicitly set flags win over file and env values.
func applyFlags(cmd *cobra.Command, cfg *config.Config, opts options) {
	f := cmd.Flags()
	if f.Changed("max-pages") {
		cfg.Scrape.MaxPages = opts.maxPages
	}
	if f.Changed("headless") {
		cfg.Browser.Headless = opts.headless
	}
	if f.Changed("output-dir") {
		cfg.Output.Dir = opts.outputDir
	}
	if f.Changed("address") {
		cfg.Address = opts.address
	}
	if opts.verbose {
		cfg.Logging.Level = "debug"
	}
}

// resolveTarget returns the category key or "all" to run. An empty
// target with a nil error means the prompt was cancelled.
func resolveTarget(args []string, registry *config.Registry) (string, error) {
	if len(args) == 0 {
		return promptCategory(os.Stdin, os.Stdout, registry.Keys())
	}

	target := strings.ToLower(strings.TrimSpace(args[0]))
	if target == services.AllCategories {
		return target, nil
	}
	if _, err := registry.Lookup(target); err != nil {
		return "", fmt.Errorf("%w\nvalid categories: %s, %s", err, strings.Join(registry.Keys(), ", "), services.AllCategories)
	}
	return target, nil
}

// openSinks connects the optional database sinks. A sink that cannot be
// reached is skipped; the CSV file is the primary output.
func openSinks(ctx context.Context, cfg *config.Config) []storage.Sink {
	var sinks []storage.Sink

	if cfg.Postgres.Enabled {
		pg, err := storage.NewPostgresWriter(ctx, cfg.Postgres)
		if err != nil {
			utils.Warn("PostgreSQL disabled: %v", err)
		} else if err := pg.EnsureSchema(ctx); err != nil {
			utils.Warn("PostgreSQL disabled, schema setup failed: %v", err)
			pg.Close()
		} else {
			sinks = append(sinks, pg)
		}
	}

	if cfg.Mongo.Enabled {
		mg, err := storage.NewMongoWriter(ctx, cfg.Mongo)
		if err != nil {
			utils.Warn("MongoDB disabled: %v", err)
		} else {
			sinks = append(sinks, mg)
		}
	}

	return sinks
}

func printSummary(outcomes []models.CategoryOutcome) {
	total, ok := 0, 0
	for _, o := range outcomes {
		if o.Result != nil {
			ok++
			total += len(o.Result.Taskers)
		}
	}

	fmt.Println()
	fmt.Println("╔══════════════════════════════════════════════╗")
	fmt.Println("║                SCRAPE COMPLETE               ║")
	fmt.Println("╠══════════════════════════════════════════════╣")
	fmt.Printf("║  Categories     : %-26s║\n", fmt.Sprintf("%d/%d", ok, len(outcomes)))
	fmt.Printf("║  Total taskers  : %-26d║\n", total)
	fmt.Println("╚══════════════════════════════════════════════╝")
}
