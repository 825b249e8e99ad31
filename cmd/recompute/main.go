// Command recompute rescores every eligible partnership pair once and
// prints the batch report as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/forgo/accord/internal/bootstrap"
	"github.com/forgo/accord/internal/config"
	"github.com/forgo/accord/internal/jobs"
)

func main() {
	timeout := flag.Duration("timeout", 30*time.Minute, "Abort the run after this long")
	details := flag.Bool("details", false, "Include per-pair details in the report")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := bootstrap.NewLogger(cfg.Server.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := run(ctx, cfg, logger, *details); err != nil {
		logger.Error("recompute failed", zap.Error(err))
		cancel()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger, details bool) error {
	stores, err := bootstrap.OpenStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = stores.Close() }()

	svcs, err := bootstrap.NewServices(cfg.Matching, stores, bootstrap.Dependencies{Logger: logger})
	if err != nil {
		return err
	}

	report, err := jobs.NewRecomputer(jobs.RecomputerConfig{Matches: svcs.Matches, Logger: logger}).RunOnce(ctx)
	if err != nil {
		return err
	}
	if !details {
		report.Details = nil
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
