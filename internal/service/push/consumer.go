// internal/service/push/consumer.go
package push

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"artshop/internal/pkg/logger"
	"artshop/internal/pkg/metrics"
	"artshop/internal/pkg/mq"
	orderdomain "artshop/internal/service/order/domain"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// fetchRetryDelay 避免 Kafka 不可用时快速失败循环
const fetchRetryDelay = time.Second

// OrderEventConsumer 监听订单事件，并推送给订单归属用户在本节点上的连接
type OrderEventConsumer struct {
	reader mq.MessageReader
	hub    *Hub
	tracer trace.Tracer

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewOrderEventConsumer(reader mq.MessageReader, hub *Hub, tracer trace.Tracer) *OrderEventConsumer {
	return &OrderEventConsumer{reader: reader, hub: hub, tracer: tracer}
}

// Start 在后台开始消费，立即返回
func (c *OrderEventConsumer) Start(ctx context.Context) error {
	ctx, c.cancel = context.WithCancel(ctx)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.run(ctx)
	}()
	return nil
}

// Stop 停止拉取并等待正在处理的消息完成
func (c *OrderEventConsumer) Stop(ctx context.Context) {
	if c.cancel != nil {
		c.cancel()
	}
	stopped := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-ctx.Done():
		logger.L().Warn().Msg("Order event consumer did not stop in time")
	}
	if err := c.reader.Close(); err != nil {
		logger.L().Error().Err(err).Msg("Failed to close kafka reader")
	}
	logger.L().Info().Msg("Order event consumer stopped")
}

func (c *OrderEventConsumer) run(ctx context.Context) {
	logger.L().Info().Msg("Order event consumer started")
	for {
		// FetchMessage 而不是 ReadMessage，处理完成后再显式提交 Offset
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.L().Error().Err(err).Msg("Could not fetch message, retrying")
			select {
			case <-time.After(fetchRetryDelay):
				continue
			case <-ctx.Done():
				return
			}
		}

		c.handle(ctx, msg)

		if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			logger.L().Error().Err(err).Int64("offset", msg.Offset).Msg("Failed to commit message")
		}
	}
}

// handle 处理单条消息。无法解析的消息记录后跳过，不阻塞后续消费。
func (c *OrderEventConsumer) handle(parent context.Context, msg kafka.Message) {
	ctx := mq.ExtractTraceContext(parent, msg.Headers)
	ctx, span := c.tracer.Start(ctx, "push-gateway.DeliverOrderEvent",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination", msg.Topic),
			attribute.Int("messaging.kafka.partition", msg.Partition),
			attribute.Int64("messaging.kafka.message.offset", msg.Offset),
			attribute.String("messaging.kafka.message.key", string(msg.Key)),
		),
	)
	defer span.End()

	var event orderdomain.OrderEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		err = errors.Wrap(err, "decode order event")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		metrics.ObserveOperation("push.deliver", err)
		logger.Ctx(ctx).Error().Err(err).Int64("offset", msg.Offset).Msg("Skipping malformed order event")
		return
	}
	if event.UserID == 0 {
		err := errors.Errorf("order event %s has no user", event.EventID)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		metrics.ObserveOperation("push.deliver", err)
		logger.Ctx(ctx).Error().Err(err).Msg("Skipping order event")
		return
	}

	userID := strconv.FormatUint(uint64(event.UserID), 10)
	span.SetAttributes(
		attribute.String("user.id", userID),
		attribute.Int("order.id", int(event.OrderID)),
		attribute.String("event.type", string(event.Type)),
	)

	delivered := c.hub.Send(userID, msg.Value)
	span.SetAttributes(attribute.Int("push.connections", delivered))
	metrics.ObserveOperation("push.deliver", nil)
	if delivered == 0 {
		// 用户不在本节点在线，其他节点各自消费同一事件
		logger.Ctx(ctx).Debug().Str("userId", userID).Str("type", string(event.Type)).Msg("User offline on this node")
		return
	}
	logger.Ctx(ctx).Info().Str("userId", userID).Str("type", string(event.Type)).Uint("orderId", event.OrderID).
		Int("connections", delivered).Msg("Order event pushed")
}
