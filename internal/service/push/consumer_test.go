package push

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	orderdomain "artshop/internal/service/order/domain"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

// fakeReader 按顺序返回预置的消息，取完后阻塞直到 ctx 结束
type fakeReader struct {
	mu        sync.Mutex
	msgs      []kafka.Message
	failFirst bool
	committed []int64
	closed    bool
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if r.failFirst {
		r.failFirst = false
		r.mu.Unlock()
		return kafka.Message{}, errors.New("broker unavailable")
	}
	if len(r.msgs) > 0 {
		msg := r.msgs[0]
		r.msgs = r.msgs[1:]
		r.mu.Unlock()
		return msg, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *fakeReader) commits() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.committed...)
}

func eventMessage(t *testing.T, offset int64, event *orderdomain.OrderEvent) kafka.Message {
	data, err := json.Marshal(event)
	require.NoError(t, err)
	return kafka.Message{Topic: "order-events", Offset: offset, Value: data}
}

func TestOrderEventConsumerPushesToOwner(t *testing.T) {
	hub, srv := startHub(t, nil)
	conn := dial(t, srv, "?userId=7", nil)
	require.Eventually(t, func() bool { return hub.Online("7") == 1 }, time.Second, 10*time.Millisecond)

	order := &orderdomain.Order{ID: 3, UserID: 7, Status: orderdomain.StatusPending, Items: []*orderdomain.OrderItem{
		{ArtID: 1, Quantity: 2, Price: decimal.RequireFromString("10.00")},
	}}
	reader := &fakeReader{
		failFirst: true,
		msgs: []kafka.Message{
			{Topic: "order-events", Offset: 0, Value: []byte("not json")},
			eventMessage(t, 1, orderdomain.NewOrderEvent(orderdomain.EventOrderPlaced, order)),
			eventMessage(t, 2, &orderdomain.OrderEvent{EventID: "e-2", Type: orderdomain.EventOrderDeleted, OrderID: 4, UserID: 8}),
		},
	}

	consumer := NewOrderEventConsumer(reader, hub, noop.NewTracerProvider().Tracer("test"))
	require.NoError(t, consumer.Start(context.Background()))

	var got orderdomain.OrderEvent
	require.NoError(t, json.Unmarshal([]byte(readText(t, conn)), &got))
	assert.Equal(t, orderdomain.EventOrderPlaced, got.Type)
	assert.Equal(t, uint(3), got.OrderID)
	assert.True(t, decimal.RequireFromString("20").Equal(got.Total))

	// 无法解析的消息和离线用户的消息同样会提交，不阻塞消费
	require.Eventually(t, func() bool { return len(reader.commits()) == 3 }, 3*time.Second, 10*time.Millisecond)
	assert.Equal(t, []int64{0, 1, 2}, reader.commits())

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	consumer.Stop(stopCtx)
	assert.True(t, reader.closed)
}
