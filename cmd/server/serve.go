package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"droneFlightAuthority/internal/broadcast"
	"droneFlightAuthority/internal/db"
	"droneFlightAuthority/internal/geofence"
	grpcserver "droneFlightAuthority/internal/grpc"
	"droneFlightAuthority/internal/httpapi"
	"droneFlightAuthority/internal/lifecycle"
	"droneFlightAuthority/internal/logging"
	"droneFlightAuthority/internal/simulation"
	"droneFlightAuthority/repository"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the gRPC and HTTP servers",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		return err
	}
	defer logger.Close()
	log := logger.Logger
	log.Info("configuration loaded", "config", cfg.String())

	d, err := db.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer func() {
		if err := d.Close(); err != nil {
			log.Error("close db", "error", err)
		}
	}()

	users := repository.NewUserRepository(d)
	drones := repository.NewDroneRepository(d)
	zones := repository.NewZoneRepository(d)
	telemetry := repository.NewTelemetryRepository(d)

	cache := geofence.NewZoneCache(zones, cfg.Simulation.ZoneCacheTTL)
	bus := broadcast.New(cfg.Simulation.SubscriberBuffer, log)
	engine := simulation.NewEngine(simulation.Deps{
		Drones:    drones,
		Telemetry: telemetry,
		Zones:     cache,
		Publisher: bus,
		Logger:    log,
	}, simulation.Config{Interval: cfg.Simulation.Interval})
	flights := lifecycle.NewService(lifecycle.Deps{DB: d, Zones: cache, Simulator: engine, Logger: log})
	engine.SetCompleter(flights)

	stopGRPC, err := grpcserver.StartGRPC(cfg, grpcserver.Services{
		Flights: &grpcserver.FlightServer{Users: users, Flights: flights},
		Admin: &grpcserver.AdminServer{
			Users:       users,
			Orgs:        repository.NewOrganizationRepository(d),
			Drones:      drones,
			Assignments: repository.NewAssignmentRepository(d),
			Zones:       zones,
			ZoneCache:   cache,
			Log:         log,
		},
		Telemetry: &grpcserver.TelemetryServer{Users: users, Bus: bus},
		Logger:    log,
	})
	if err != nil {
		return fmt.Errorf("start grpc: %w", err)
	}
	stopHTTP, err := httpapi.Start(cfg, &httpapi.Server{
		Secret:    cfg.Auth.JWTSecret,
		Users:     users,
		Flights:   flights,
		Zones:     cache,
		Telemetry: telemetry,
		Bus:       bus,
		Log:       log,
	})
	if err != nil {
		bus.Close()
		_ = stopGRPC(context.Background())
		return fmt.Errorf("start http: %w", err)
	}
	colorOK.Fprintf(cmd.OutOrStdout(), "gRPC listening on %s, HTTP on %s\n", cfg.GRPC.Address, cfg.HTTP.Address)
	log.Info("servers started", "grpc", cfg.GRPC.Address, "http", cfg.HTTP.Address)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := shutdown(shutdownCtx, bus, stopGRPC, stopHTTP, engine.Shutdown); err != nil {
		log.Error("shutdown", "error", err)
		return err
	}
	return nil
}

// shutdown ends every live subscription first, since graceful stops wait for
// open telemetry streams, then runs the stop functions in parallel.
func shutdown(ctx context.Context, bus *broadcast.Broadcaster, stops ...func(context.Context) error) error {
	bus.Close()
	var eg errgroup.Group
	for _, stop := range stops {
		eg.Go(func() error { return stop(ctx) })
	}
	return eg.Wait()
}
