// internal/tracing/tracer.go
package tracing

import (
	"context"

	"artshop/internal/pkg/logger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// ShutdownFunc 用于在服务退出时刷新并关闭 TracerProvider
type ShutdownFunc func(ctx context.Context) error

// InitTracerProvider 初始化并注册全局 TracerProvider。
// enabled 为 false 时不创建 Jaeger Exporter，只注册传播器，Span 不会被导出。
func InitTracerProvider(serviceName, jaegerEndpoint string, enabled bool) (ShutdownFunc, error) {
	// 无论是否导出，都设置全局传播器，保证 Kafka / HTTP 之间的上下文能够传递
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceNameKey.String(serviceName),
	)

	if !enabled {
		tp := sdktrace.NewTracerProvider(sdktrace.WithResource(res))
		otel.SetTracerProvider(tp)
		logger.L().Info().Str("service", serviceName).Msg("Tracing initialized without exporter")
		return tp.Shutdown, nil
	}

	exporter, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(jaegerEndpoint)))
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.AlwaysSample())),
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	logger.L().Info().Str("service", serviceName).Str("endpoint", jaegerEndpoint).Msg("Tracing initialized")
	return tp.Shutdown, nil
}
