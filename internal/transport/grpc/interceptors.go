package grpcx

import (
	"context"
	"crypto/subtle"
	"runtime/debug"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/elderberry/agentops/internal/domain"
	"github.com/elderberry/agentops/internal/rpccontract"
)

func RecoveryUnaryInterceptor(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (response any, err error) {
		defer func() {
			if recovered := recover(); recovered != nil {
				log.Error("panic recovered",
					zap.String("method", info.FullMethod),
					zap.Any("panic", recovered),
					zap.ByteString("stack", debug.Stack()),
				)
				err = status.Error(codes.Internal, "internal server error")
			}
		}()
		return handler(ctx, req)
	}
}

// AuthUnaryInterceptor guards the write methods with a shared token. Reads
// stay open. An empty token disables the check.
func AuthUnaryInterceptor(token string) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		if token == "" {
			return handler(ctx, req)
		}
		if _, isWriteMethod := rpccontract.WriteMethods[info.FullMethod]; !isWriteMethod {
			return handler(ctx, req)
		}

		requestToken := extractToken(ctx)
		if subtle.ConstantTimeCompare([]byte(requestToken), []byte(token)) != 1 {
			return nil, status.Error(codes.Unauthenticated, "invalid authentication token")
		}
		return handler(ctx, req)
	}
}

func LoggingUnaryInterceptor(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		started := time.Now()
		response, err := handler(ctx, req)
		code := status.Code(err)
		if appErr, ok := domain.AsAppError(err); ok {
			code = codeFor(appErr.Code)
		}
		log.Info("grpc call",
			zap.String("method", info.FullMethod),
			zap.Duration("duration", time.Since(started)),
			zap.String("code", code.String()),
		)
		return response, err
	}
}

func ErrorUnaryInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		response, err := handler(ctx, req)
		if err == nil {
			return response, nil
		}

		if status.Code(err) != codes.Unknown {
			return nil, err
		}

		return nil, mapError(err)
	}
}

func mapError(err error) error {
	if appError, ok := domain.AsAppError(err); ok {
		code := codeFor(appError.Code)
		if code == codes.Internal {
			return status.Error(codes.Internal, "internal server error")
		}
		return status.Error(code, appError.Message)
	}

	return status.Error(codes.Internal, "internal server error")
}

func codeFor(code domain.ErrorCode) codes.Code {
	switch code {
	case domain.CodeInvalidArgument:
		return codes.InvalidArgument
	case domain.CodeNotFound:
		return codes.NotFound
	case domain.CodeConflict:
		return codes.AlreadyExists
	case domain.CodeUnauthenticated:
		return codes.Unauthenticated
	case domain.CodeFailedPrecondition:
		return codes.FailedPrecondition
	case domain.CodeUnavailable:
		return codes.Unavailable
	default:
		return codes.Internal
	}
}

func extractToken(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}

	token := strings.TrimSpace(first(md.Get(rpccontract.TokenHeader)))
	if token != "" {
		return token
	}

	authHeader := strings.TrimSpace(first(md.Get("authorization")))
	const bearer = "Bearer "
	if strings.HasPrefix(authHeader, bearer) {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, bearer))
	}
	return ""
}

func first(items []string) string {
	if len(items) == 0 {
		return ""
	}
	return items[0]
}
