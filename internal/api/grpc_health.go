package api

import (
	"context"
	"log"
	"time"

	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the gRPC health service name the storefront reports under.
const ServiceName = "storefront.v1.StorefrontService"

// Pinger is anything whose liveness the health status follows.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthReporter mirrors the cart record store's health into a gRPC health server.
type HealthReporter struct {
	server  *health.Server
	records Pinger
	logger  *log.Logger
	timeout time.Duration
}

func NewHealthReporter(server *health.Server, records Pinger, logger *log.Logger) *HealthReporter {
	return &HealthReporter{server: server, records: records, logger: logger, timeout: 2 * time.Second}
}

// Check pings the record store once and updates both the overall and the
// storefront service status.
func (h *HealthReporter) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if err := h.records.Ping(ctx); err != nil {
		h.logger.Printf("WARN: Health check record store ping failed: %v", err)
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	h.server.SetServingStatus("", status)
	h.server.SetServingStatus(ServiceName, status)
	return status
}

// Run checks every interval until ctx is done.
func (h *HealthReporter) Run(ctx context.Context, interval time.Duration) {
	h.Check(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.Check(ctx)
		}
	}
}
