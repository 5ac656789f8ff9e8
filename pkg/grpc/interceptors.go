package grpc

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"travelhub/pkg/errors"
	"travelhub/pkg/logger"
)

// TraceIDMetadataKey is the metadata key for trace ID
const TraceIDMetadataKey = "x-trace-id"

// UnaryServerInterceptor adds trace ids, a deadline, request logging and AppError → status mapping
func UnaryServerInterceptor(log *logger.Logger, timeout time.Duration) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		start := time.Now()

		traceID := extractTraceID(ctx)
		if traceID == "" {
			traceID = uuid.New().String()
		}
		ctx = logger.WithTraceIDContext(ctx, traceID)

		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		resp, err := handler(ctx, req)

		logFields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.Duration("duration", time.Since(start)),
		}

		if err != nil {
			if _, ok := status.FromError(err); !ok {
				err = errors.GRPCStatus(err)
			}
			st, _ := status.FromError(err)
			logFields = append(logFields, zap.String("grpc_code", st.Code().String()))
			log.WithContext(ctx).Error("grpc request failed", logFields...)
			return nil, err
		}

		log.WithContext(ctx).Debug("grpc request completed", logFields...)
		return resp, nil
	}
}

// StreamServerInterceptor logs streaming calls such as Health/Watch
func StreamServerInterceptor(log *logger.Logger) grpc.StreamServerInterceptor {
	return func(
		srv interface{},
		ss grpc.ServerStream,
		info *grpc.StreamServerInfo,
		handler grpc.StreamHandler,
	) error {
		start := time.Now()

		traceID := extractTraceID(ss.Context())
		if traceID == "" {
			traceID = uuid.New().String()
		}
		ctx := logger.WithTraceIDContext(ss.Context(), traceID)

		err := handler(srv, ss)

		log.WithContext(ctx).Info("grpc stream completed",
			zap.String("method", info.FullMethod),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)

		return err
	}
}

func extractTraceID(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}

	values := md.Get(TraceIDMetadataKey)
	if len(values) > 0 {
		return values[0]
	}
	return ""
}
