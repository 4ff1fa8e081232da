package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aluiziolira/go-scrape-search/config"
	"github.com/aluiziolira/go-scrape-search/pipeline"
	"github.com/aluiziolira/go-scrape-search/scraper"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

const defaultQuery = "smart phone"

func newRootCmd(cfg *config.Config) *cobra.Command {
	root := &cobra.Command{
		Use:          "scraper",
		Short:        "Keyword search scraper for storefront result pages",
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&cfg.BaseURL, "base-url", cfg.BaseURL, "Storefront origin to search")
	flags.BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "Enable debug logging")
	flags.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "Prometheus metrics listen address (e.g. :9090)")

	root.AddCommand(newSearchCmd(cfg))
	return root
}

func newSearchCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search [words...]",
		Short: "Search by keyword and write every product found",
		Long: "Fetches the first result page, reads the page count from its pagination " +
			"control and fetches the remaining pages concurrently. Pages that keep failing " +
			"are skipped; the command only fails when the first page cannot be fetched.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd.Context(), cfg, args)
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&cfg.MaxPages, "pages", cfg.MaxPages, "Upper bound on result pages to fetch")
	flags.IntVar(&cfg.Parallelism, "parallel", cfg.Parallelism, "Concurrent page workers (0 = one per page)")
	flags.DurationVar(&cfg.Delay, "delay", cfg.Delay, "Delay between requests to the same domain")
	flags.DurationVar(&cfg.RandomDelay, "random-delay", cfg.RandomDelay, "Random jitter added to --delay")
	flags.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "Per-request timeout")
	flags.IntVar(&cfg.MaxAttempts, "max-attempts", cfg.MaxAttempts, "Fetch attempts per page before it is given up")
	flags.DurationVar(&cfg.RetryDelay, "retry-delay", cfg.RetryDelay, "Fixed wait between attempts")
	flags.DurationVar(&cfg.RetryJitter, "retry-jitter", cfg.RetryJitter, "Random extra wait added to --retry-delay")
	flags.Float64Var(&cfg.RatePerSecond, "rate", cfg.RatePerSecond, "Request rate limit per second (0 = off)")
	flags.BoolVar(&cfg.RespectRobotsTxt, "respect-robots", cfg.RespectRobotsTxt, "Respect robots.txt directives")
	flags.StringVar(&cfg.OutputFile, "output", cfg.OutputFile, "Output file path (default <uuid>.<format>)")
	flags.StringVar(&cfg.OutputFormat, "format", cfg.OutputFormat, "Output format: json, jsonl, csv, or dual")
	return cmd
}

func runSearch(ctx context.Context, cfg *config.Config, args []string) error {
	logger, level := newLogger(cfg.Verbose)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	cfg.OutputFormat = strings.ToLower(cfg.OutputFormat)
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		return err
	}
	if cfg.OutputFile == "" {
		cfg.OutputFile = defaultOutputFile(cfg.OutputFormat)
	}

	query := strings.Join(args, " ")
	if strings.TrimSpace(query) == "" {
		query = defaultQuery
	}

	s, err := scraper.NewScraper(cfg)
	if err != nil {
		slog.Error("initialising scraper", slog.Any("error", err))
		return err
	}

	writer, err := createWriter(cfg.OutputFormat, cfg.OutputFile)
	if err != nil {
		slog.Error("creating writer", slog.Any("error", err))
		return err
	}
	defer func() {
		if err := writer.Close(); err != nil {
			slog.Error("close writer", slog.Any("error", err))
		}
	}()

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.MetricsAddr != "" {
		metricsServer := &http.Server{
			Addr:    cfg.MetricsAddr,
			Handler: promhttp.HandlerFor(s.Metrics.Registry, promhttp.HandlerOpts{}),
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", slog.Any("error", err))
			}
		}()
		slog.Info("metrics server enabled", slog.String("addr", cfg.MetricsAddr))
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				slog.Error("metrics server shutdown failed", slog.Any("error", err))
			}
		}()
	}

	// One worker keeps the written order equal to the search order.
	p := pipeline.NewPipeline(ctx, writer, cfg)
	p.Start(1)
	if cfg.Verbose {
		p.StartMetricsReporting(10 * time.Second)
	}

	result, err := s.Run(ctx, query, p)
	if err != nil {
		slog.Error("search failed", slog.String("query", query), slog.Any("error", err))
		if closeErr := p.Close(); closeErr != nil {
			slog.Error("pipeline shutdown failed", slog.Any("error", closeErr))
		}
		return err
	}

	if err := p.Close(); err != nil {
		slog.Error("pipeline shutdown failed", slog.Any("error", err))
		return err
	}

	if err := writer.Validate(); err != nil {
		slog.Error("output validation failed", slog.Any("error", err))
		return err
	}

	printSummary(os.Stdout, result, cfg.OutputFile, p.GetMetrics())
	return nil
}
