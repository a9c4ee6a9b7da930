package server

import (
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// Options configures NewGRPCServer.
type Options struct {
	MaxRecvBytes int
}

// NewGRPCServer builds a grpc.Server with TicketService, health and
// reflection registered. The returned health server starts as SERVING.
func NewGRPCServer(svc TicketServiceServer, opts Options, logger *slog.Logger) (*grpc.Server, *health.Server) {
	if logger == nil {
		logger = slog.Default()
	}
	var sopts []grpc.ServerOption
	sopts = append(sopts, grpc.ChainUnaryInterceptor(UnaryInterceptor(logger)))
	if opts.MaxRecvBytes > 0 {
		sopts = append(sopts, grpc.MaxRecvMsgSize(opts.MaxRecvBytes))
	}
	gs := grpc.NewServer(sopts...)
	RegisterTicketServiceServer(gs, svc)

	hs := health.NewServer()
	grpc_health_v1.RegisterHealthServer(gs, hs)
	// empty string means overall server health
	hs.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	// reflection for grpcurl
	reflection.Register(gs)
	return gs, hs
}
