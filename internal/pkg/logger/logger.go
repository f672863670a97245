// internal/pkg/logger/logger.go
package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

var (
	base = zerolog.New(os.Stdout).With().Timestamp().Logger()
	mu   sync.RWMutex
)

// Init 配置全局日志：输出格式、级别以及服务名字段。
// level 为空或无法解析时回退到 info。
func Init(serviceName, level string, out io.Writer) {
	if out == nil {
		out = os.Stdout
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.TimeFieldFormat = time.RFC3339Nano

	mu.Lock()
	defer mu.Unlock()
	base = zerolog.New(out).Level(lvl).With().
		Timestamp().
		Str("service", serviceName).
		Logger()
}

// L 返回不携带请求上下文的全局日志器
func L() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	l := base
	return &l
}

// Ctx 返回一个带有 trace_id / span_id 的日志器，便于在 Jaeger 中关联日志与链路。
func Ctx(ctx context.Context) *zerolog.Logger {
	l := L()
	if ctx == nil {
		return l
	}
	spanCtx := trace.SpanContextFromContext(ctx)
	if !spanCtx.IsValid() {
		return l
	}
	enriched := l.With().
		Str("trace_id", spanCtx.TraceID().String()).
		Str("span_id", spanCtx.SpanID().String()).
		Logger()
	return &enriched
}
