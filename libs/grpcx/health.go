package grpcx

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Check is a named dependency probe, mirroring runtime.ReadyCheck.
type Check struct {
	Name  string
	Check func(context.Context) error
}

// NewHealthServer builds a gRPC server exposing grpc.health.v1.Health for
// the given service name. Call Watch to keep the serving status in sync with checks.
func NewHealthServer(logger *slog.Logger) (*grpc.Server, *health.Server) {
	srv := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			UnaryServerRequestIDInterceptor(),
			UnaryServerLogInterceptor(logger),
		),
	)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	return srv, hs
}

// Watch re-evaluates checks every interval and flips the service status
// between SERVING and NOT_SERVING until ctx is done.
func Watch(ctx context.Context, hs *health.Server, service string, interval time.Duration, logger *slog.Logger, checks ...Check) {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	update := func() {
		st := healthpb.HealthCheckResponse_SERVING
		for _, c := range checks {
			if c.Check == nil {
				continue
			}
			checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			err := c.Check(checkCtx)
			cancel()
			if err != nil {
				logger.Warn("health check failed", "check", c.Name, "err", err)
				st = healthpb.HealthCheckResponse_NOT_SERVING
			}
		}
		hs.SetServingStatus(service, st)
		hs.SetServingStatus("", st)
	}

	update()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			hs.Shutdown()
			return
		case <-ticker.C:
			update()
		}
	}
}
