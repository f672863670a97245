package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"artshop/internal/service/order/domain"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func TestOrderEventProducerPublish(t *testing.T) {
	w := &recordingWriter{}
	p := NewOrderEventProducer(w)

	o := domain.NewOrder(42, "Ada", "555", "Main St", []*domain.OrderItem{
		{ArtID: 1, Quantity: 2, Price: decimal.RequireFromString("10.00")},
	})
	o.ID = 7
	require.NoError(t, p.Publish(context.Background(), domain.NewOrderEvent(domain.EventOrderPlaced, o)))

	require.Len(t, w.msgs, 1)
	assert.Equal(t, "42", string(w.msgs[0].Key))

	var got domain.OrderEvent
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	assert.Equal(t, domain.EventOrderPlaced, got.Type)
	assert.Equal(t, uint(7), got.OrderID)
	assert.True(t, got.Total.Equal(decimal.NewFromInt(20)))
}

func TestOrderEventProducerWrapsWriteError(t *testing.T) {
	boom := errors.New("broker down")
	p := NewOrderEventProducer(&recordingWriter{err: boom})

	err := p.Publish(context.Background(), &domain.OrderEvent{Type: domain.EventOrderDeleted, OrderID: 3})
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "order.deleted")
}
