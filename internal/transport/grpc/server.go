package grpc

import (
	"net"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// Server отдаёт стандартный grpc.health.v1 для балансировщиков и оркестратора.
type Server struct {
	srv    *grpc.Server
	health *health.Server
	log    *zap.Logger
}

func NewServer(auth Authenticator, log *zap.Logger) *Server {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			NewLoggingUnaryInterceptor(log),
			NewErrorMappingUnaryInterceptor(),
			NewAuthUnaryServerInterceptor(auth),
		),
	)

	healthSrv := health.NewServer()
	healthSrv.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	grpc_health_v1.RegisterHealthServer(srv, healthSrv)

	// reflection для grpcurl при локальной отладке
	reflection.Register(srv)

	return &Server{srv: srv, health: healthSrv, log: log}
}

// Serve блокируется до Stop.
func (s *Server) Serve(lis net.Listener) error {
	s.log.Info("gRPC health server started", zap.String("addr", lis.Addr().String()))
	return s.srv.Serve(lis)
}

// SetServing переключает статус health, например при потере базы.
func (s *Server) SetServing(ok bool) {
	st := grpc_health_v1.HealthCheckResponse_SERVING
	if !ok {
		st = grpc_health_v1.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", st)
}

func (s *Server) Stop() {
	s.health.Shutdown()
	s.srv.GracefulStop()
	s.log.Info("gRPC server stopped gracefully")
}
