package grpcserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/RoGogDBD/honeypot-dashboard/pkg/schedule"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName - имя сервиса в health-ответах.
const ServiceName = "honeypot.Dashboard"

// Pinger проверяет доступность хранилища.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server - gRPC-сервер со стандартным health-сервисом.
// Статус сервиса следует за результатом проверки хранилища.
type Server struct {
	grpc   *grpc.Server
	health *health.Server
	pinger Pinger
	logger *zap.Logger
}

// NewServer создаёт сервер. trustedSubnet == nil разрешает всех.
func NewServer(pinger Pinger, trustedSubnet *net.IPNet, logger *zap.Logger) *Server {
	srv := grpc.NewServer(
		grpc.UnaryInterceptor(IPSubnetInterceptor(trustedSubnet)),
		grpc.StreamInterceptor(IPSubnetStreamInterceptor(trustedSubnet)),
	)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)

	return &Server{grpc: srv, health: hs, pinger: pinger, logger: logger}
}

// Serve слушает addr до отмены ctx, затем плавно останавливается.
func (s *Server) Serve(ctx context.Context, addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.ServeListener(ctx, lis)
}

// ServeListener обслуживает уже открытый listener.
func (s *Server) ServeListener(ctx context.Context, lis net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("gRPC health server started", zap.String("address", lis.Addr().String()))
		errCh <- s.grpc.Serve(lis)
	}()

	select {
	case <-ctx.Done():
		s.health.Shutdown()
		s.grpc.GracefulStop()
		<-errCh
		return nil
	case err := <-errCh:
		if errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return err
	}
}

// Check обновляет статус по одной проверке хранилища.
func (s *Server) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	st := healthpb.HealthCheckResponse_SERVING
	if err := s.pinger.Ping(pingCtx); err != nil {
		s.logger.Warn("storage ping failed", zap.Error(err))
		st = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
	return st
}

// Watch выполняет Check сразу и затем каждые interval до отмены ctx.
func (s *Server) Watch(ctx context.Context, interval time.Duration) error {
	s.Check(ctx)
	return schedule.Every(ctx, interval, func(ctx context.Context) {
		s.Check(ctx)
	})
}
