// internal/service/order/application/service.go
package application

import (
	"context"
	"errors"
	"fmt"

	"artshop/internal/pkg/auth"
	"artshop/internal/pkg/logger"
	"artshop/internal/pkg/metrics"
	artdomain "artshop/internal/service/art/domain"
	artport "artshop/internal/service/art/domain/port"
	"artshop/internal/service/order/domain"
	"artshop/internal/service/order/domain/port"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const deleteSuccessMessage = "Order has been deleted successfully"

// Options 是订单服务的可调行为
type Options struct {
	// RestockOnDelete 每次删除时读取，返回 true 时删除待处理订单会归还库存。
	// nil 等同于始终返回 false。
	RestockOnDelete func() bool
}

// OrderApplicationService 编排下单、改单、删单等订单用例，并负责库存对账。
type OrderApplicationService struct {
	orders domain.OrderRepository
	arts   artdomain.ArtRepository
	tx     domain.Transactor
	locker artport.StockLocker
	cache  artport.ArtCache
	events port.OrderEventPublisher
	tracer trace.Tracer
	opts   Options
}

func NewOrderApplicationService(
	orders domain.OrderRepository,
	arts artdomain.ArtRepository,
	tx domain.Transactor,
	locker artport.StockLocker,
	cache artport.ArtCache,
	events port.OrderEventPublisher,
	tracer trace.Tracer,
	opts Options,
) *OrderApplicationService {
	return &OrderApplicationService{
		orders: orders,
		arts:   arts,
		tx:     tx,
		locker: locker,
		cache:  cache,
		events: events,
		tracer: tracer,
		opts:   opts,
	}
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func insufficientStock(art *artdomain.Art) error {
	return domain.Errorf(domain.ErrInsufficientStock, "Not enough stock for art: %s", art.Title)
}

// findArt 把目录的 NotFound 转换成带 ID 的消息
func (s *OrderApplicationService) findArt(ctx context.Context, id uint) (*artdomain.Art, error) {
	art, err := s.arts.FindByID(ctx, id)
	if errors.Is(err, artdomain.ErrArtNotFound) {
		return nil, domain.Errorf(artdomain.ErrArtNotFound, "Art with ID %d not found", id)
	}
	return art, err
}

// adjustStock 原子地扣减（delta 为负时归还）库存，库存不足时返回带艺术品名称的错误
func (s *OrderApplicationService) adjustStock(ctx context.Context, art *artdomain.Art, delta int) (*artdomain.Art, error) {
	updated, err := s.arts.AdjustStock(ctx, art.ID, delta)
	if errors.Is(err, artdomain.ErrInsufficientStock) {
		return nil, insufficientStock(art)
	}
	return updated, err
}

// CreateOrder 为调用方创建订单。所有订单行的库存扣减与订单写入在同一个事务中，任何一行失败都会整体回滚。
func (s *OrderApplicationService) CreateOrder(ctx context.Context, caller auth.Caller, req *CreateOrderRequest) (order *domain.Order, err error) {
	ctx, span := s.tracer.Start(ctx, "service.CreateOrder")
	defer span.End()
	defer func() { metrics.ObserveOperation("order.create", err) }()

	if err := caller.RequireUser(); err != nil {
		return nil, fail(span, err)
	}
	if err := req.Validate(); err != nil {
		return nil, fail(span, err)
	}
	span.SetAttributes(
		attribute.Int("user.id", int(caller.UserID)),
		attribute.Int("order.lines", len(req.Items)),
	)

	unlock, err := s.locker.Lock(ctx, artIDs(req.Items)...)
	if err != nil {
		return nil, fail(span, fmt.Errorf("failed to lock stock: %w", err))
	}
	defer unlock()

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		items := make([]*domain.OrderItem, 0, len(req.Items))
		for _, line := range req.Items {
			art, err := s.findArt(ctx, line.ArtID)
			if err != nil {
				return err
			}
			if line.Quantity > art.Quantity {
				return insufficientStock(art)
			}
			updated, err := s.adjustStock(ctx, art, line.Quantity)
			if err != nil {
				return err
			}
			items = append(items, &domain.OrderItem{
				ArtID:    updated.ID,
				Art:      updated,
				Quantity: line.Quantity,
				Price:    updated.Price,
			})
		}

		order = domain.NewOrder(caller.UserID, req.FullName, req.Phone, req.Address, items)
		return s.orders.Create(ctx, order)
	})
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientStock) {
			metrics.StockRejections.WithLabelValues("create").Inc()
		}
		return nil, fail(span, err)
	}

	metrics.OrdersPlaced.Inc()
	span.SetAttributes(attribute.Int("order.id", int(order.ID)))
	logger.Ctx(ctx).Info().
		Uint("orderId", order.ID).
		Uint("userId", order.UserID).
		Str("total", order.Total().StringFixed(2)).
		Msg("Order placed")

	s.afterCommit(ctx, span, domain.EventOrderPlaced, order, order.ArtIDs())
	return order, nil
}

// FindOrdersByUser 返回调用方的全部订单
func (s *OrderApplicationService) FindOrdersByUser(ctx context.Context, caller auth.Caller) ([]*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "service.FindOrdersByUser")
	defer span.End()

	if err := caller.RequireUser(); err != nil {
		return nil, fail(span, err)
	}
	span.SetAttributes(attribute.Int("user.id", int(caller.UserID)))

	orders, err := s.orders.FindByUser(ctx, caller.UserID)
	if err != nil {
		return nil, fail(span, err)
	}
	return orders, nil
}

// FindAll 返回系统中的全部订单（管理员）
func (s *OrderApplicationService) FindAll(ctx context.Context, caller auth.Caller) ([]*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "service.FindAllOrders")
	defer span.End()

	if err := caller.RequireAdmin(); err != nil {
		return nil, fail(span, err)
	}
	orders, err := s.orders.FindAll(ctx)
	if err != nil {
		return nil, fail(span, err)
	}
	return orders, nil
}

// UpdateOrderStatus 无条件覆盖订单状态（管理员），不校验状态值和流转是否合法
func (s *OrderApplicationService) UpdateOrderStatus(ctx context.Context, caller auth.Caller, orderID uint, status string) (order *domain.Order, err error) {
	ctx, span := s.tracer.Start(ctx, "service.UpdateOrderStatus")
	defer span.End()
	defer func() { metrics.ObserveOperation("order.update_status", err) }()
	span.SetAttributes(attribute.Int("order.id", int(orderID)), attribute.String("order.status", status))

	if err := caller.RequireAdmin(); err != nil {
		return nil, fail(span, err)
	}

	var previous string
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		o, err := s.orders.FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		previous = o.Status
		o.Status = status
		if err := s.orders.Save(ctx, o); err != nil {
			return err
		}
		order, err = s.orders.FindByID(ctx, orderID)
		return err
	})
	if err != nil {
		return nil, fail(span, err)
	}

	logger.Ctx(ctx).Info().Uint("orderId", orderID).Str("from", previous).Str("to", status).Msg("Order status changed")
	s.afterCommit(ctx, span, domain.EventOrderStatusChanged, order, nil)
	return order, nil
}

// DeleteOrder 删除调用方的待处理订单。默认不归还库存，Options.RestockOnDelete 打开后才归还。
func (s *OrderApplicationService) DeleteOrder(ctx context.Context, caller auth.Caller, orderID uint) (resp *DeleteOrderResponse, err error) {
	ctx, span := s.tracer.Start(ctx, "service.DeleteOrder")
	defer span.End()
	defer func() { metrics.ObserveOperation("order.delete", err) }()
	span.SetAttributes(attribute.Int("order.id", int(orderID)))

	if err := caller.RequireUser(); err != nil {
		return nil, fail(span, err)
	}

	restock := s.opts.RestockOnDelete != nil && s.opts.RestockOnDelete()
	span.SetAttributes(attribute.Bool("order.restock", restock))

	order, err := s.orders.FindByIDForUser(ctx, orderID, caller.UserID)
	if err != nil {
		return nil, fail(span, err)
	}
	if err := order.EnsurePending("deleted"); err != nil {
		return nil, fail(span, err)
	}

	if restock {
		unlock, err := s.locker.Lock(ctx, order.ArtIDs()...)
		if err != nil {
			return nil, fail(span, fmt.Errorf("failed to lock stock: %w", err))
		}
		defer unlock()
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		// 事务内重新读取，避免与并发的状态变更交错
		current, err := s.orders.FindByIDForUser(ctx, orderID, caller.UserID)
		if err != nil {
			return err
		}
		if err := current.EnsurePending("deleted"); err != nil {
			return err
		}
		if restock {
			for _, item := range current.Items {
				if _, err := s.arts.AdjustStock(ctx, item.ArtID, -item.Quantity); err != nil && !errors.Is(err, artdomain.ErrArtNotFound) {
					return err
				}
			}
		}
		order = current
		return s.orders.Delete(ctx, orderID)
	})
	if err != nil {
		return nil, fail(span, err)
	}

	logger.Ctx(ctx).Info().Uint("orderId", orderID).Bool("restocked", restock).Msg("Order deleted")
	var touched []uint
	if restock {
		touched = order.ArtIDs()
	}
	s.afterCommit(ctx, span, domain.EventOrderDeleted, order, touched)
	return &DeleteOrderResponse{Success: true, Message: deleteSuccessMessage}, nil
}

// UpdateOrder 修改调用方的待处理订单。订单行数量的变化按差值调整库存，单价重新取当前价格。
func (s *OrderApplicationService) UpdateOrder(ctx context.Context, caller auth.Caller, orderID uint, req *UpdateOrderRequest) (order *domain.Order, err error) {
	ctx, span := s.tracer.Start(ctx, "service.UpdateOrder")
	defer span.End()
	defer func() { metrics.ObserveOperation("order.update", err) }()
	span.SetAttributes(attribute.Int("order.id", int(orderID)), attribute.Int("order.line_updates", len(req.Items)))

	if err := caller.RequireUser(); err != nil {
		return nil, fail(span, err)
	}
	if err := req.Validate(); err != nil {
		return nil, fail(span, err)
	}

	unlock, err := s.locker.Lock(ctx, artIDs(req.Items)...)
	if err != nil {
		return nil, fail(span, fmt.Errorf("failed to lock stock: %w", err))
	}
	defer unlock()

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		o, err := s.orders.FindByIDForUser(ctx, orderID, caller.UserID)
		if err != nil {
			return err
		}
		if err := o.EnsurePending("updated"); err != nil {
			return err
		}

		o.UpdateContact(req.FullName, req.Phone, req.Address)

		for _, line := range req.Items {
			item, err := o.ItemFor(line.ArtID)
			if err != nil {
				return err
			}
			art, err := s.findArt(ctx, line.ArtID)
			if err != nil {
				return err
			}
			// 只校验增量：减少数量永远不会被拒绝
			delta := line.Quantity - item.Quantity
			if art.Quantity < delta {
				return insufficientStock(art)
			}
			if delta != 0 {
				if art, err = s.adjustStock(ctx, art, delta); err != nil {
					return err
				}
			}
			item.Quantity = line.Quantity
			item.Price = art.Price
			item.Art = art
		}

		if err := s.orders.Save(ctx, o); err != nil {
			return err
		}
		order, err = s.orders.FindByIDForUser(ctx, orderID, caller.UserID)
		return err
	})
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientStock) {
			metrics.StockRejections.WithLabelValues("update").Inc()
		}
		return nil, fail(span, err)
	}

	logger.Ctx(ctx).Info().Uint("orderId", orderID).Int("lineUpdates", len(req.Items)).Msg("Order updated")
	s.afterCommit(ctx, span, domain.EventOrderUpdated, order, artIDs(req.Items))
	return order, nil
}

// GetOrderByID 管理员路径只按 ID 查询，普通路径要求归属匹配
func (s *OrderApplicationService) GetOrderByID(ctx context.Context, caller auth.Caller, orderID uint, asAdmin bool) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "service.GetOrderByID")
	defer span.End()
	span.SetAttributes(attribute.Int("order.id", int(orderID)), attribute.Bool("admin", asAdmin))

	if asAdmin {
		if err := caller.RequireAdmin(); err != nil {
			return nil, fail(span, err)
		}
		order, err := s.orders.FindByID(ctx, orderID)
		if err != nil {
			return nil, fail(span, err)
		}
		return order, nil
	}

	if err := caller.RequireUser(); err != nil {
		return nil, fail(span, err)
	}
	order, err := s.orders.FindByIDForUser(ctx, orderID, caller.UserID)
	if err != nil {
		return nil, fail(span, err)
	}
	return order, nil
}

// afterCommit 执行提交后的副作用：失效艺术品缓存并发布订单事件。失败只记录，不影响结果。
func (s *OrderApplicationService) afterCommit(ctx context.Context, span trace.Span, t domain.EventType, order *domain.Order, touched []uint) {
	if len(touched) > 0 {
		if err := s.cache.Invalidate(ctx, touched...); err != nil {
			span.RecordError(err)
			logger.Ctx(ctx).Warn().Err(err).Uint("orderId", order.ID).Msg("Failed to invalidate art cache")
		}
	}
	if err := s.events.Publish(ctx, domain.NewOrderEvent(t, order)); err != nil {
		span.RecordError(err)
		logger.Ctx(ctx).Error().Err(err).Str("event", string(t)).Uint("orderId", order.ID).Msg("Failed to publish order event")
	}
}
