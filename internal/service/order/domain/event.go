// internal/service/order/domain/event.go
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type EventType string

const (
	EventOrderPlaced        EventType = "order.placed"
	EventOrderUpdated       EventType = "order.updated"
	EventOrderStatusChanged EventType = "order.status_changed"
	EventOrderDeleted       EventType = "order.deleted"
)

// OrderEvent 在订单事务提交后发布，推送网关据此通知订单的归属用户
type OrderEvent struct {
	EventID    string          `json:"eventId"`
	Type       EventType       `json:"type"`
	OrderID    uint            `json:"orderId"`
	UserID     uint            `json:"userId"`
	Status     string          `json:"status"`
	Total      decimal.Decimal `json:"total"`
	Items      []EventItem     `json:"items,omitempty"`
	OccurredAt time.Time       `json:"occurredAt"`
}

type EventItem struct {
	ArtID    uint            `json:"artId"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// NewOrderEvent 以订单当前状态构造事件
func NewOrderEvent(t EventType, o *Order) *OrderEvent {
	items := make([]EventItem, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, EventItem{ArtID: item.ArtID, Quantity: item.Quantity, Price: item.Price})
	}
	return &OrderEvent{
		EventID:    uuid.NewString(),
		Type:       t,
		OrderID:    o.ID,
		UserID:     o.UserID,
		Status:     o.Status,
		Total:      o.Total(),
		Items:      items,
		OccurredAt: time.Now().UTC(),
	}
}
