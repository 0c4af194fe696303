// Command api serves the seat reservation engine over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/cimillas/seatlease/internal/app"
	"github.com/cimillas/seatlease/internal/broadcast"
	"github.com/cimillas/seatlease/internal/clock"
	"github.com/cimillas/seatlease/internal/config"
	"github.com/cimillas/seatlease/internal/logging"
	"github.com/cimillas/seatlease/internal/platform/otel"
	"github.com/cimillas/seatlease/internal/session"
	"github.com/cimillas/seatlease/internal/storage/postgres"
	"github.com/cimillas/seatlease/internal/sweeper"
	transporthttp "github.com/cimillas/seatlease/internal/transport/http"
	"github.com/cimillas/seatlease/migrations"
)

const serviceName = "seatlease-api"

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
	flagSet := pflag.NewFlagSet(serviceName, pflag.ContinueOnError)
	cfg.AddFlags(flagSet)
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		return err
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Setup(ctx, serviceName, cfg.OTelEndpoint)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn("tracing shutdown", slog.Any("error", err))
		}
	}()

	startupCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := postgres.Connect(startupCtx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	applied, err := migrations.Apply(startupCtx, pool)
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	for _, name := range applied {
		logger.Info("applied migration", slog.String("name", name))
	}

	clk := clock.NewSystem()
	popularity := app.DefaultPopularity(cfg.PopularityHalfLife)

	inventory := postgres.NewInventoryRepository(pool, cfg.NotifyChannel)
	holdRepo := postgres.NewHoldRepository(inventory)

	holdSvc := app.NewHoldService(holdRepo, clk,
		app.WithHoldTTLs(app.HoldTTLs{
			Cart:         cfg.HoldTTLCart,
			Checkout:     cfg.HoldTTLCheckout,
			StaffReserve: cfg.HoldTTLStaffReserve,
		}),
		app.WithPopularity(popularity, cfg.PopularityHalfLife),
		app.WithSweepBatchSize(cfg.SweepBatchSize),
		app.WithHoldLogger(logger),
	)
	orderSvc := app.NewOrderService(postgres.NewOrderRepository(holdRepo), clk, popularity, cfg.PopularityHalfLife)
	availabilitySvc := app.NewAvailabilityService(inventory, clk, popularity)
	recommendSvc := app.NewRecommendationService(postgres.NewRecommendationRepository(inventory), clk, popularity, cfg.RecommendLimit, logger)
	catalogSvc := app.NewCatalogService(postgres.NewCatalogRepository(inventory), clk)

	hub := broadcast.NewHub(broadcast.WithLogger(logger))
	listener := postgres.NewChangeListener(pool, cfg.NotifyChannel, hub, logger)
	sweep := sweeper.New(holdSvc, cfg.SweepInterval, sweeper.WithLogger(logger))

	router := transporthttp.NewRouter(transporthttp.Deps{
		Holds:           holdSvc,
		Orders:          orderSvc,
		Availability:    availabilitySvc,
		Recommendations: recommendSvc,
		Catalog:         catalogSvc,
		Sessions:        session.NewIssuer(cfg.SessionSecret, cfg.SessionTTL, clk),
		Sweeper:         sweep,
		Feed:            hub,
		DB:              pool,
		OpsToken:        cfg.OpsToken,
		CORSOrigins:     cfg.CORSOrigins,
		Logger:          logger,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("api listening", slog.String("addr", server.Addr), slog.String("env", cfg.Env))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})
	g.Go(func() error { return listener.Run(gctx) })
	g.Go(func() error { return sweep.Run(gctx) })
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	err = g.Wait()
	logger.Info("server stopped")
	return err
}
