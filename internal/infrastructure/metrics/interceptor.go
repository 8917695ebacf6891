package metrics

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// UnaryServerInterceptor returns a gRPC interceptor that records metrics for each request.
func UnaryServerInterceptor(collector *Collector, exporter *PrometheusExporter) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		start := time.Now()
		method := info.FullMethod

		// Count the call before the handler runs
		collector.RecordRequest(method)
		if exporter != nil {
			exporter.RecordRequest(method)
		}

		resp, err := handler(ctx, req)

		// Duration covers failed calls too
		duration := time.Since(start).Seconds()
		collector.RecordDuration(method, duration)
		if exporter != nil {
			exporter.RecordDuration(method, duration)
		}

		// Any non-nil error counts, whatever its status code
		if err != nil {
			collector.RecordError(method)
			if exporter != nil {
				exporter.RecordError(method)
			}
		}

		return resp, err
	}
}

// LoggingUnaryInterceptor logs every call with its status code and latency.
func LoggingUnaryInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.String("code", status.Code(err).String()),
			zap.Duration("duration", time.Since(start)),
		}
		// Failures at warn, successes at debug
		if err != nil {
			logger.Warn("grpc call failed", append(fields, zap.Error(err))...)
		} else {
			logger.Debug("grpc call", fields...)
		}
		return resp, err
	}
}
