package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/stationbook/adapter/cli"
	"github.com/felixgeelhaar/stationbook/adapter/cli/booking"
	"github.com/felixgeelhaar/stationbook/adapter/cli/catalog"
	"github.com/felixgeelhaar/stationbook/adapter/cli/schedule"
	"github.com/felixgeelhaar/stationbook/internal/app"
	"github.com/felixgeelhaar/stationbook/internal/booking/application/services"
	"github.com/felixgeelhaar/stationbook/pkg/config"
	"github.com/felixgeelhaar/stationbook/pkg/observability"
	"github.com/google/uuid"
)

func main() {
	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		cancel()
	}()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		os.Exit(1)
	}

	logCfg := observability.LogConfigFor(cfg.AppEnv, cfg.LogLevel, cfg.LogFormat, cli.Version)
	logger := observability.NewLogger(logCfg)
	slog.SetDefault(logger)
	cli.SetLogger(logger)

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize container", "error", err)
		os.Exit(1)
	}
	defer container.Close()

	// Relay events from the CLI process too when no worker runs
	if cfg.OutboxProcessorEnabled {
		if err := container.OutboxProcessor.Start(ctx); err != nil {
			logger.Warn("outbox processor not started", "error", err)
		}
	} else {
		logger.Debug("outbox processor disabled in CLI")
	}

	// Create CLI app with handlers
	cliApp := cli.NewApp(
		container.Coordinator,
		container.GenerateSlotsHandler,
		container.GetReservationHandler,
		container.GetReservationByCodeHandler,
		container.CreateStationHandler,
		container.CreateServiceHandler,
		container.ListStationsHandler,
		container.ListServicesHandler,
		container.AddRuleHandler,
		container.ResolveScheduleHandler,
	)
	cliApp.SetLocation(cfg.BookingPolicy().Location)
	cliApp.SetOperations(container.Health, container.Migrate)

	actorID, err := uuid.Parse(cfg.ActorID)
	if err != nil {
		logger.Error("invalid STATIONBOOK_ACTOR_ID", "error", err)
		os.Exit(1)
	}
	role, err := services.ParseRole(cfg.ActorRole)
	if err != nil {
		logger.Error("invalid STATIONBOOK_ACTOR_ROLE", "error", err)
		os.Exit(1)
	}
	cliApp.SetActor(actorID, role)

	cli.SetApp(cliApp)

	// Register commands
	cli.AddCommand(catalog.StationCmd)
	cli.AddCommand(catalog.ServiceCmd)
	cli.AddCommand(schedule.HoursCmd)
	cli.AddCommand(schedule.RuleCmd)
	cli.AddCommand(booking.SlotsCmd)
	cli.AddCommand(booking.BookCmd)
	cli.AddCommand(booking.ReservationCmd)

	// Execute CLI
	cli.Execute(ctx)
}
