package proximity

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/oshokin/proximity-alert/internal/logger"
)

// ActorMetadataKey carries the user@host of the calling client.
const ActorMetadataKey = "x-proximity-actor"

// ActorFromContext returns the caller announced in the incoming metadata, or "".
func ActorFromContext(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}

	values := md.Get(ActorMetadataKey)
	if len(values) == 0 {
		return ""
	}

	return values[0]
}

// LoggingInterceptor logs every unary call at debug level with its caller and outcome.
func LoggingInterceptor(base context.Context) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		started := time.Now()
		resp, err := handler(ctx, req)

		logger.DebugKV(base, "Status request served",
			"method", info.FullMethod,
			"actor", ActorFromContext(ctx),
			"code", status.Code(err).String(),
			"elapsed", time.Since(started).String())

		return resp, err
	}
}
