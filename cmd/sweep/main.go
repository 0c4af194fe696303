// Command sweep runs one expired-hold sweep and exits. It is meant for
// external schedulers when the API's in-process sweeper is disabled.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/cimillas/seatlease/internal/app"
	"github.com/cimillas/seatlease/internal/clock"
	"github.com/cimillas/seatlease/internal/config"
	"github.com/cimillas/seatlease/internal/logging"
	"github.com/cimillas/seatlease/internal/storage/postgres"
	"github.com/cimillas/seatlease/internal/sweeper"
)

func main() {
	if err := run(); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	flagSet := pflag.NewFlagSet("seatlease-sweep", pflag.ContinueOnError)
	flagSet.StringVar(&cfg.DatabaseURL, "database-url", cfg.DatabaseURL, "Postgres connection string")
	flagSet.IntVar(&cfg.SweepBatchSize, "batch-size", cfg.SweepBatchSize, "maximum holds expired in this run")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		return err
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	inventory := postgres.NewInventoryRepository(pool, cfg.NotifyChannel)
	holdSvc := app.NewHoldService(postgres.NewHoldRepository(inventory), clock.NewSystem(),
		app.WithPopularity(app.DefaultPopularity(cfg.PopularityHalfLife), cfg.PopularityHalfLife),
		app.WithSweepBatchSize(cfg.SweepBatchSize),
		app.WithHoldLogger(logger),
	)

	res, err := sweeper.New(holdSvc, 0, sweeper.WithLogger(logger)).Trigger(ctx)
	if err != nil {
		return err
	}
	return json.NewEncoder(os.Stdout).Encode(res)
}
