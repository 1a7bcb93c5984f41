package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/gvitanovic/cqrs/runtime/workers"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

// ProjectionService is the health service name of the projection subscription.
const ProjectionService = "cqrs.v1.OrderProjection"

// HealthServer reports the projection subscription over the standard gRPC
// health protocol: NOT_SERVING while CONNECTING, SERVING once RUNNING.
type HealthServer struct {
	log    *slog.Logger
	health *health.Server
}

func NewHealthServer(log *slog.Logger) *HealthServer {
	h := health.NewServer()
	h.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	h.SetServingStatus(ProjectionService, grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	return &HealthServer{log: log, health: h}
}

// OnStateChange is meant to be registered on the projector.
func (s *HealthServer) OnStateChange(state workers.State) {
	status := grpc_health_v1.HealthCheckResponse_NOT_SERVING
	if state == workers.Running {
		status = grpc_health_v1.HealthCheckResponse_SERVING
	}
	s.log.Debug("Projection state changed", "state", state, "health", status.String())
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ProjectionService, status)
}

func (s *HealthServer) Register(server *grpc.Server) {
	grpc_health_v1.RegisterHealthServer(server, s.health)
}

// Serve listens on address until ctx is done.
func (s *HealthServer) Serve(ctx context.Context, address string) error {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", address, err)
	}
	server := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	s.Register(server)

	errChan := make(chan error, 1)
	go func() {
		s.log.Info("Starting gRPC health server", "address", address, "at", time.Now().UTC())
		if err := server.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			errChan <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		s.health.Shutdown()
		server.GracefulStop()
		return nil
	case err := <-errChan:
		return err
	}
}
