// Command seed imports YAML floor plans into the database.
//
//	seed [--database-url URL] plan.yaml [more.yaml ...]
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/cimillas/seatlease/internal/app"
	"github.com/cimillas/seatlease/internal/catalog"
	"github.com/cimillas/seatlease/internal/clock"
	"github.com/cimillas/seatlease/internal/config"
	"github.com/cimillas/seatlease/internal/logging"
	"github.com/cimillas/seatlease/internal/storage/postgres"
	"github.com/cimillas/seatlease/migrations"
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
	var skipMigrate bool
	flagSet := pflag.NewFlagSet("seatlease-seed", pflag.ContinueOnError)
	flagSet.StringVar(&cfg.DatabaseURL, "database-url", cfg.DatabaseURL, "Postgres connection string")
	flagSet.BoolVar(&skipMigrate, "skip-migrate", false, "do not apply migrations first")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		return err
	}
	files := flagSet.Args()
	if len(files) == 0 {
		return errors.New("at least one floor plan file is required")
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	ctx := context.Background()

	pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	if !skipMigrate {
		if _, err := migrations.Apply(ctx, pool); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
	}

	svc := app.NewCatalogService(
		postgres.NewCatalogRepository(postgres.NewInventoryRepository(pool, cfg.NotifyChannel)),
		clock.NewSystem(),
	)
	for _, path := range files {
		plan, err := readPlan(path)
		if err != nil {
			return err
		}
		res, err := svc.ImportFloorPlan(ctx, plan)
		if err != nil {
			return fmt.Errorf("import %s: %w", path, err)
		}
		logger.Info("imported floor plan",
			slog.String("file", path),
			slog.String("event_id", res.Event.ID),
			slog.Int("zones", len(res.Zones)),
			slog.Int("seats", res.Seats),
		)
	}
	return nil
}

func readPlan(path string) (catalog.FloorPlan, error) {
	f, err := os.Open(path)
	if err != nil {
		return catalog.FloorPlan{}, err
	}
	defer f.Close()
	plan, err := catalog.Parse(f)
	if err != nil {
		return catalog.FloorPlan{}, fmt.Errorf("%s: %w", path, err)
	}
	return plan, nil
}
