package mq

import (
	"context"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

type recordingWriter struct {
	msgs []kafka.Message
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func TestKafkaHeaderCarrier(t *testing.T) {
	var c KafkaHeaderCarrier
	c.Set("traceparent", "a")
	c.Set("traceparent", "b")
	c.Set("baggage", "k=v")

	assert.Equal(t, "b", c.Get("traceparent"))
	assert.Equal(t, "", c.Get("missing"))
	assert.ElementsMatch(t, []string{"traceparent", "baggage"}, c.Keys())
}

func TestProduceMessagePropagatesTraceContext(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})
	tp := sdktrace.NewTracerProvider()
	defer tp.Shutdown(context.Background())

	ctx, span := tp.Tracer("test").Start(context.Background(), "produce")
	defer span.End()

	w := &recordingWriter{}
	require.NoError(t, ProduceMessage(ctx, w, []byte("user-1"), []byte(`{}`)))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, []byte("user-1"), w.msgs[0].Key)

	extracted := ExtractTraceContext(context.Background(), w.msgs[0].Headers)
	got := trace.SpanContextFromContext(extracted)
	assert.True(t, got.IsValid())
	assert.Equal(t, span.SpanContext().TraceID(), got.TraceID())
}
