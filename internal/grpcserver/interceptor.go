// Package grpcserver поднимает gRPC health-сервер панели мониторинга.
package grpcserver

import (
	"context"
	"fmt"
	"net"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

// ParseSubnet разбирает CIDR доверенной подсети. Пустая строка даёт nil.
func ParseSubnet(cidr string) (*net.IPNet, error) {
	cidr = strings.TrimSpace(cidr)
	if cidr == "" {
		return nil, nil
	}
	_, subnet, err := net.ParseCIDR(cidr)
	if err != nil {
		return nil, fmt.Errorf("invalid trusted subnet %q: %w", cidr, err)
	}
	return subnet, nil
}

// callerIP возвращает адрес вызывающего из метаданных x-real-ip,
// а при их отсутствии - адрес соединения.
func callerIP(ctx context.Context) net.IP {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get("x-real-ip"); len(values) > 0 {
			return net.ParseIP(strings.TrimSpace(values[0]))
		}
	}
	p, ok := peer.FromContext(ctx)
	if !ok || p.Addr == nil {
		return nil
	}
	host, _, err := net.SplitHostPort(p.Addr.String())
	if err != nil {
		return nil
	}
	return net.ParseIP(host)
}

func checkCaller(ctx context.Context, trustedSubnet *net.IPNet) error {
	if trustedSubnet == nil {
		return nil
	}
	ip := callerIP(ctx)
	if ip == nil {
		return status.Error(codes.PermissionDenied, "unknown caller address")
	}
	if !trustedSubnet.Contains(ip) {
		return status.Error(codes.PermissionDenied, "ip not allowed")
	}
	return nil
}

// IPSubnetInterceptor пропускает только вызовы из доверенной подсети.
// nil отключает проверку.
func IPSubnetInterceptor(trustedSubnet *net.IPNet) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if err := checkCaller(ctx, trustedSubnet); err != nil {
			return nil, err
		}
		return handler(ctx, req)
	}
}

// IPSubnetStreamInterceptor - то же для потоковых вызовов (health Watch).
func IPSubnetStreamInterceptor(trustedSubnet *net.IPNet) grpc.StreamServerInterceptor {
	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		if err := checkCaller(ss.Context(), trustedSubnet); err != nil {
			return err
		}
		return handler(srv, ss)
	}
}
