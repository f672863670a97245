package infrastructure

import (
	"context"
	"encoding/json"
	"strconv"

	"artshop/internal/pkg/mq"
	"artshop/internal/service/order/domain"

	"github.com/pkg/errors"
)

// OrderEventProducer 把订单事件写入 Kafka，以用户 ID 作为 key 保证同一用户的事件有序
type OrderEventProducer struct {
	writer mq.MessageWriter
}

func NewOrderEventProducer(writer mq.MessageWriter) *OrderEventProducer {
	return &OrderEventProducer{writer: writer}
}

func (p *OrderEventProducer) Publish(ctx context.Context, event *domain.OrderEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "marshal order event")
	}
	key := []byte(strconv.FormatUint(uint64(event.UserID), 10))
	if err := mq.ProduceMessage(ctx, p.writer, key, data); err != nil {
		return errors.Wrapf(err, "produce %s event for order %d", event.Type, event.OrderID)
	}
	return nil
}

// NoopEventPublisher 在未启用 Kafka 时使用
type NoopEventPublisher struct{}

func (NoopEventPublisher) Publish(context.Context, *domain.OrderEvent) error { return nil }
