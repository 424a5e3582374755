package health

import (
	"context"
	"sync"

	"github.com/ciricc/go-gemm-bench/internal/monitor"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

// ServiceName is the health service name registered for the simulator.
const ServiceName = "gemmbench.Simulator"

// HealthChecker implements the gRPC health checking protocol. A service
// reported as SERVING is downgraded to NOT_SERVING while a measurement holds
// the device, so schedulers can keep other work off the accelerator.
type HealthChecker struct {
	grpc_health_v1.UnimplementedHealthServer
	mu        sync.RWMutex
	monitor   monitor.DeviceMonitor
	statusMap map[string]grpc_health_v1.HealthCheckResponse_ServingStatus
}

func NewHealthChecker(m monitor.DeviceMonitor) *HealthChecker {
	return &HealthChecker{
		monitor:   m,
		statusMap: make(map[string]grpc_health_v1.HealthCheckResponse_ServingStatus),
	}
}

// status resolves the effective status of service. The empty name is the
// global status, which depends on device occupancy only.
func (h *HealthChecker) status(service string) (grpc_health_v1.HealthCheckResponse_ServingStatus, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	st := grpc_health_v1.HealthCheckResponse_SERVING
	if service != "" {
		var ok bool
		if st, ok = h.statusMap[service]; !ok {
			return 0, status.Error(codes.NotFound, "service not found")
		}
	}
	if st == grpc_health_v1.HealthCheckResponse_SERVING && h.monitor.Busy() {
		st = grpc_health_v1.HealthCheckResponse_NOT_SERVING
	}
	return st, nil
}

func (h *HealthChecker) Check(ctx context.Context, req *grpc_health_v1.HealthCheckRequest) (*grpc_health_v1.HealthCheckResponse, error) {
	st, err := h.status(req.GetService())
	if err != nil {
		return nil, err
	}
	return &grpc_health_v1.HealthCheckResponse{Status: st}, nil
}

// Watch sends the current status and then every change caused by device
// occupancy, until the stream ends.
func (h *HealthChecker) Watch(req *grpc_health_v1.HealthCheckRequest, stream grpc_health_v1.Health_WatchServer) error {
	service := req.GetService()
	last := grpc_health_v1.HealthCheckResponse_ServingStatus(-1)
	for {
		changed := h.monitor.Changed()
		st, err := h.status(service)
		if err != nil {
			return err
		}
		if st != last {
			if err := stream.Send(&grpc_health_v1.HealthCheckResponse{Status: st}); err != nil {
				return err
			}
			last = st
		}
		select {
		case <-stream.Context().Done():
			return stream.Context().Err()
		case <-changed:
		}
	}
}

func (h *HealthChecker) SetServingStatus(service string, st grpc_health_v1.HealthCheckResponse_ServingStatus) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.statusMap[service] = st
}

// Occupancy exposes device usage for logging.
func (h *HealthChecker) Occupancy() monitor.Occupancy {
	return h.monitor.Occupancy()
}
