package grpc

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/vogiaan1904/courtside-queue/internal/service"
	"github.com/vogiaan1904/courtside-queue/pkg/logger"
)

// ServiceName is the health-checked service name of the queue engine.
const ServiceName = "courtside.queue.v1.CourtQueue"

// NewServer builds the ops gRPC server with the standard health service registered.
func NewServer(l logger.Logger) (*grpc.Server, *health.Server) {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(loggingInterceptor(l)))
	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(srv, hs)
	return srv, hs
}

func loggingInterceptor(l logger.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		if err != nil {
			l.Warnf(ctx, "gRPC %s failed after %v: %v", info.FullMethod, time.Since(start), err)
		} else {
			l.Debugf(ctx, "gRPC %s took %v", info.FullMethod, time.Since(start))
		}
		return resp, err
	}
}

type HealthReporter struct {
	hs       *health.Server
	proc     service.QueueProcessor
	l        logger.Logger
	interval time.Duration
	last     healthpb.HealthCheckResponse_ServingStatus
}

func NewHealthReporter(hs *health.Server, proc service.QueueProcessor, l logger.Logger, interval time.Duration) *HealthReporter {
	return &HealthReporter{
		hs:       hs,
		proc:     proc,
		l:        l,
		interval: interval,
		last:     healthpb.HealthCheckResponse_NOT_SERVING,
	}
}

// Run reports SERVING while the processor is running, until ctx is done.
func (r *HealthReporter) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		r.Report(ctx)
		select {
		case <-ctx.Done():
			r.hs.Shutdown()
			return nil
		case <-ticker.C:
		}
	}
}

func (r *HealthReporter) Report(ctx context.Context) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if r.proc.GetStatus().IsRunning {
		status = healthpb.HealthCheckResponse_SERVING
	}
	if status == r.last {
		return
	}

	r.l.Infof(ctx, "Health status for %s changed to %s", ServiceName, status)
	r.hs.SetServingStatus(ServiceName, status)
	r.hs.SetServingStatus("", status)
	r.last = status
}
