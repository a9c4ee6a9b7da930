package server

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/joseph-ayodele/ticket-record/internal/common"
)

const (
	// UserIDHeader carries the caller's opaque user id. It is not authenticated.
	UserIDHeader    = "x-user-id"
	RequestIDHeader = "x-request-id"
)

// UnaryInterceptor copies caller identity from metadata into the context and
// logs one line per call.
func UnaryInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		md, _ := metadata.FromIncomingContext(ctx)
		rid := first(md, RequestIDHeader)
		if rid == "" {
			rid = uuid.NewString()
		}
		ctx = common.WithRequestID(ctx, rid)
		if uid := first(md, UserIDHeader); uid != "" {
			ctx = common.WithUserID(ctx, uid)
		}
		_ = grpc.SetHeader(ctx, metadata.Pairs(RequestIDHeader, rid))

		resp, err := handler(ctx, req)

		log := common.LoggerFrom(ctx, logger)
		attrs := []any{
			"method", info.FullMethod,
			"code", status.Code(err).String(),
			"elapsed_ms", time.Since(start).Milliseconds(),
		}
		if err != nil {
			log.Warn("grpc.request.failed", append(attrs, "err", err)...)
		} else {
			log.Info("grpc.request", attrs...)
		}
		return resp, err
	}
}

func first(md metadata.MD, key string) string {
	for _, v := range md.Get(key) {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
