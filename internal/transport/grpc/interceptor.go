package grpc

import (
	"context"
	"errors"
	"strings"
	"time"

	"pizzeria-service/internal/service"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// Authenticator проверяет access-токен. Реализуется CustomerService.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*service.Claims, error)
}

var publicMethods = map[string]struct{}{
	"/grpc.health.v1.Health/Check":                                   {},
	"/grpc.health.v1.Health/Watch":                                   {},
	"/grpc.health.v1.Health/List":                                    {},
	"/grpc.reflection.v1.ServerReflection/ServerReflectionInfo":      {},
	"/grpc.reflection.v1alpha.ServerReflection/ServerReflectionInfo": {},
}

// NewAuthUnaryServerInterceptor пропускает health и reflection без токена,
// для остальных методов берёт Bearer из metadata и кладёт Claims в контекст.
func NewAuthUnaryServerInterceptor(auth Authenticator) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if _, ok := publicMethods[info.FullMethod]; ok {
			return handler(ctx, req)
		}

		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return nil, status.Errorf(codes.Unauthenticated, "missing metadata (method=%s)", info.FullMethod)
		}
		authz := getFirst(md, "authorization")
		if authz == "" {
			return nil, status.Errorf(codes.Unauthenticated, "authorization header not found (method=%s)", info.FullMethod)
		}
		prefix := "bearer "
		if len(authz) < len(prefix) || !strings.EqualFold(authz[:len(prefix)], prefix) {
			return nil, status.Error(codes.Unauthenticated, "invalid authorization scheme")
		}
		access := strings.TrimSpace(authz[len(prefix):])
		if access == "" {
			return nil, status.Error(codes.Unauthenticated, "empty bearer token")
		}

		claims, err := auth.Authenticate(ctx, access)
		if err != nil || claims == nil {
			return nil, status.Error(codes.Unauthenticated, "invalid or expired token")
		}
		return handler(service.WithClaims(ctx, claims), req)
	}
}

// NewErrorMappingUnaryInterceptor переводит ошибки сервисного слоя в gRPC-статусы.
func NewErrorMappingUnaryInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		resp, err := handler(ctx, req)
		if err != nil {
			return nil, toStatusErr(err)
		}
		return resp, nil
	}
}

func NewLoggingUnaryInterceptor(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)
		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.String("code", code.String()),
			zap.Duration("latency", time.Since(start)),
		}
		switch code {
		case codes.OK:
			log.Debug("grpc call", fields...)
		case codes.Internal, codes.Unknown, codes.Unavailable:
			log.Error("grpc call failed", append(fields, zap.Error(err))...)
		default:
			log.Warn("grpc call rejected", append(fields, zap.Error(err))...)
		}
		return resp, err
	}
}

func toStatusErr(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, service.ErrInvalidArgument):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, service.ErrUnauthorized):
		return status.Error(codes.Unauthenticated, "unauthorized")
	case errors.Is(err, service.ErrForbidden):
		return status.Error(codes.PermissionDenied, "forbidden")
	case errors.Is(err, service.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, service.ErrIllegalState):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, service.ErrAlreadyExists):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "deadline exceeded")
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "canceled")
	default:
		return status.Error(codes.Internal, "internal error")
	}
}

func getFirst(md metadata.MD, key string) string {
	vals := md.Get(key)
	if len(vals) > 0 {
		return vals[0]
	}
	return ""
}
