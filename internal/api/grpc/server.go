// Package grpcapi exposes a standard gRPC health service. The
// teacher's custom AudioStreamService RPC carried audio frames over
// gRPC streaming; this core instead drives audio/transcript traffic
// through the Session Client's WebSocket connection (spec §4.3), so
// the gRPC surface here is health/readiness only, the same pattern
// many of the teacher's sibling services use for a sidecar-friendly
// liveness probe.
package grpcapi

import (
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

// RegisterHealth wires a standard health.Server into g and sets every
// known service name to SERVING. Callers keep the returned
// *health.Server to flip status to NOT_SERVING during shutdown.
func RegisterHealth(g *grpc.Server) *health.Server {
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(g, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus("caption.core.CaptionCore", grpc_health_v1.HealthCheckResponse_SERVING)
	return healthServer
}
