package status

import (
	"context"
	"errors"
	"fmt"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/oshokin/mcsync/internal/logger"
)

const (
	// ServiceSync reports whether the release is synchronised.
	ServiceSync = "mcsync.sync"
	// ServiceGame reports whether the game process is running.
	ServiceGame = "mcsync.game"
)

// Server publishes health statuses over gRPC.
type Server struct {
	grpc   *grpc.Server
	health *health.Server
	lis    net.Listener
}

// Listen binds the address and registers the health service.
// Both services start as NOT_SERVING.
func Listen(ctx context.Context, address string) (*Server, error) {
	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", address, err)
	}

	s := &Server{
		grpc:   grpc.NewServer(),
		health: health.NewServer(),
		lis:    lis,
	}

	s.health.SetServingStatus(ServiceSync, healthpb.HealthCheckResponse_NOT_SERVING)
	s.health.SetServingStatus(ServiceGame, healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(s.grpc, s.health)

	return s, nil
}

// Addr is the bound address.
func (s *Server) Addr() string {
	return s.lis.Addr().String()
}

// Serve blocks until ctx is canceled or serving fails, and returns once the server has stopped.
func (s *Server) Serve(ctx context.Context) error {
	ctx = logger.WithName(ctx, "status")

	logger.InfoKV(ctx, "Status endpoint listening", "address", s.Addr())

	// A failed Serve stops the shutdown goroutine too.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Closed after GracefulStop returns so Serve never outlives the shutdown.
	done := make(chan struct{})

	go func() {
		<-ctx.Done()
		s.health.Shutdown()
		s.grpc.GracefulStop()
		close(done)
	}()

	err := s.grpc.Serve(s.lis)

	cancel()
	<-done

	if err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("serve gRPC: %w", err)
	}

	logger.Info(ctx, "Status endpoint stopped")

	return nil
}

// Syncing marks the release as being synchronised.
func (s *Server) Syncing() {
	s.set(ServiceSync, false)
}

// Synced marks the release as complete.
func (s *Server) Synced() {
	s.set(ServiceSync, true)
}

// GameStarted marks the game as running.
func (s *Server) GameStarted() {
	s.set(ServiceGame, true)
}

// GameExited marks the game as stopped.
func (s *Server) GameExited() {
	s.set(ServiceGame, false)
}

// set is a no-op on a nil server so callers need not check whether the endpoint is enabled.
func (s *Server) set(service string, serving bool) {
	if s == nil {
		return
	}

	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}

	s.health.SetServingStatus(service, status)
}
