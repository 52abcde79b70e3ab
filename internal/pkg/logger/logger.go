// internal/pkg/logger/logger.go
package logger

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// base 是全局的根 logger。所有通过 Ctx 派生出来的 logger 都基于它。
var base = zerolog.New(os.Stdout).With().Timestamp().Logger()

// Init 在服务启动时调用，为所有日志附加 service 字段。
func Init(serviceName string) {
	base = zerolog.New(os.Stdout).With().
		Timestamp().
		Str("service", serviceName).
		Logger()
}

// Ctx 返回一个与追踪上下文关联的 logger。
// 如果 ctx 中存在有效的 Span，则日志会自动带上 trace_id，
// 方便在日志系统中与 Jaeger 链路进行关联查询。
func Ctx(ctx context.Context) *zerolog.Logger {
	sc := trace.SpanContextFromContext(ctx)
	if sc.HasTraceID() {
		l := base.With().Str("trace_id", sc.TraceID().String()).Logger()
		return &l
	}
	return &base
}
