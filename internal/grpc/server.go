package grpcserver

import (
	"context"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"droneFlightAuthority/internal/auth"
	"droneFlightAuthority/internal/config"
)

const (
	healthCheckMethod = "/grpc.health.v1.Health/Check"
	healthWatchMethod = "/grpc.health.v1.Health/Watch"
)

// Services are the handlers served over gRPC.
type Services struct {
	Flights   *FlightServer
	Admin     *AdminServer
	Telemetry *TelemetryServer
	Logger    *slog.Logger
}

// NewServer builds a gRPC server with authentication, request logging and
// the health service. Health checks bypass authentication.
func NewServer(secret string, svc Services) *grpc.Server {
	log := svc.Logger
	if log == nil {
		log = slog.Default()
	}
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			auth.NewUnaryAuthInterceptor(secret, healthCheckMethod),
			unaryLogger(log),
		),
		grpc.ChainStreamInterceptor(auth.NewStreamAuthInterceptor(secret, healthWatchMethod)),
	)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	if svc.Flights != nil {
		RegisterFlightServiceServer(srv, svc.Flights)
		hs.SetServingStatus(FlightServiceName, healthpb.HealthCheckResponse_SERVING)
	}
	if svc.Admin != nil {
		RegisterAdminServiceServer(srv, svc.Admin)
		hs.SetServingStatus(AdminServiceName, healthpb.HealthCheckResponse_SERVING)
	}
	if svc.Telemetry != nil {
		RegisterTelemetryServiceServer(srv, svc.Telemetry)
		hs.SetServingStatus(TelemetryServiceName, healthpb.HealthCheckResponse_SERVING)
	}
	return srv
}

func unaryLogger(log *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		attrs := []any{"method", info.FullMethod, "duration", time.Since(start)}
		if p, ok := auth.FromContext(ctx); ok {
			attrs = append(attrs, "user", p.Name)
		}
		if err != nil {
			log.Warn("grpc call failed", append(attrs, "error", err)...)
		} else {
			log.Debug("grpc call", attrs...)
		}
		return resp, err
	}
}

// StartGRPC starts the gRPC server on the configured address and returns a shutdown function.
func StartGRPC(cfg *config.Config, svc Services) (func(context.Context) error, error) {
	if cfg == nil {
		panic("config is required")
	}

	addr := cfg.GRPC.Address
	if addr == "" {
		addr = ":50051"
	}

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	srv := NewServer(cfg.Auth.JWTSecret, svc)
	go func() {
		if err := srv.Serve(lis); err != nil && svc.Logger != nil {
			svc.Logger.Error("grpc serve", "error", err)
		}
	}()

	return func(ctx context.Context) error {
		done := make(chan struct{})
		go func() { srv.GracefulStop(); close(done) }()
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			srv.Stop()
			return ctx.Err()
		}
	}, nil
}
