package grpc

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"travelhub/pkg/logger"
)

// Probe reports whether one dependency is reachable
type Probe func(ctx context.Context) error

// HealthServer serves grpc.health.v1.Health and refreshes its status from probes
type HealthServer struct {
	*grpc.Server
	health  *health.Server
	probes  map[string]Probe
	log     *logger.Logger
	service string
}

// NewHealthServer builds a gRPC server exposing the health service for service.
// creds may be nil for plaintext.
func NewHealthServer(service string, log *logger.Logger, timeout time.Duration, creds credentials.TransportCredentials, probes map[string]Probe) *HealthServer {
	opts := []grpc.ServerOption{
		grpc.UnaryInterceptor(UnaryServerInterceptor(log, timeout)),
		grpc.StreamInterceptor(StreamServerInterceptor(log)),
	}
	if creds != nil {
		opts = append(opts, grpc.Creds(creds))
	}

	srv := grpc.NewServer(opts...)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)

	return &HealthServer{
		Server:  srv,
		health:  hs,
		probes:  probes,
		log:     log,
		service: service,
	}
}

// Check runs every probe once and publishes the aggregate status
func (s *HealthServer) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING
	for name, probe := range s.probes {
		if err := probe(ctx); err != nil {
			s.log.Warn("health probe failed", zap.String("dependency", name), zap.Error(err))
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(s.service, status)
	return status
}

// Watch re-runs the probes every interval until ctx is done
func (s *HealthServer) Watch(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		probeCtx, cancel := context.WithTimeout(ctx, interval)
		s.Check(probeCtx)
		cancel()

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Shutdown marks the service as not serving and stops the server gracefully
func (s *HealthServer) Shutdown() {
	s.health.Shutdown()
	s.GracefulStop()
}
