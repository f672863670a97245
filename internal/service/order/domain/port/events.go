package port

import (
	"context"

	"artshop/internal/service/order/domain"
)

// OrderEventPublisher 是订单事件的出站端口
type OrderEventPublisher interface {
	Publish(ctx context.Context, event *domain.OrderEvent) error
}
