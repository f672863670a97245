package infrastructure

import (
	artinfra "artshop/internal/service/art/infrastructure"
	"artshop/internal/service/order/domain"
)

// ToDomainOrder 将数据库模型转换为领域模型，预加载的艺术品一并转换
func ToDomainOrder(m *OrderModel) *domain.Order {
	if m == nil {
		return nil
	}
	items := make([]*domain.OrderItem, 0, len(m.Items))
	for _, im := range m.Items {
		items = append(items, &domain.OrderItem{
			ID:       im.ID,
			OrderID:  im.OrderID,
			ArtID:    im.ArtID,
			Art:      artinfra.ToDomainArt(im.Art),
			Quantity: im.Quantity,
			Price:    im.Price,
		})
	}
	return &domain.Order{
		ID:        m.ID,
		UserID:    m.UserID,
		FullName:  m.FullName,
		Phone:     m.Phone,
		Address:   m.Address,
		Status:    m.Status,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
		Items:     items,
	}
}

// FromDomainOrder 不携带 Art，避免 GORM 级联写入 arts 表
func FromDomainOrder(o *domain.Order) *OrderModel {
	if o == nil {
		return nil
	}
	items := make([]*OrderItemModel, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, &OrderItemModel{
			ID:       item.ID,
			OrderID:  item.OrderID,
			ArtID:    item.ArtID,
			Quantity: item.Quantity,
			Price:    item.Price,
		})
	}
	return &OrderModel{
		ID:        o.ID,
		UserID:    o.UserID,
		FullName:  o.FullName,
		Phone:     o.Phone,
		Address:   o.Address,
		Status:    o.Status,
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
		Items:     items,
	}
}
