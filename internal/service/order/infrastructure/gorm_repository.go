package infrastructure

import (
	"context"

	"artshop/internal/pkg/database"
	artinfra "artshop/internal/service/art/infrastructure"
	"artshop/internal/service/order/domain"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// GormOrderRepository 是 OrderRepository 的 GORM 实现
type GormOrderRepository struct {
	db *gorm.DB
}

func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// AutoMigrate 创建订单相关的表，order_items 引用 arts，所以先迁移 arts
func AutoMigrate(db *gorm.DB) error {
	if err := artinfra.AutoMigrate(db); err != nil {
		return err
	}
	return db.AutoMigrate(&OrderModel{}, &OrderItemModel{})
}

// withRelations 显式预加载订单行及其艺术品
func withRelations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Items", func(tx *gorm.DB) *gorm.DB { return tx.Order("order_items.id") }).
		Preload("Items.Art")
}

func (r *GormOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	model := FromDomainOrder(order)
	if err := database.Conn(ctx, r.db).Create(model).Error; err != nil {
		return errors.Wrap(err, "create order")
	}
	order.ID = model.ID
	order.CreatedAt = model.CreatedAt
	order.UpdatedAt = model.UpdatedAt
	for i, im := range model.Items {
		order.Items[i].ID = im.ID
		order.Items[i].OrderID = model.ID
	}
	return nil
}

func (r *GormOrderRepository) Save(ctx context.Context, order *domain.Order) error {
	db := database.Conn(ctx, r.db)
	err := db.Model(&OrderModel{ID: order.ID}).Updates(map[string]any{
		"full_name": order.FullName,
		"phone":     order.Phone,
		"address":   order.Address,
		"status":    order.Status,
	}).Error
	if err != nil {
		return errors.Wrapf(err, "save order %d", order.ID)
	}
	for _, item := range order.Items {
		err := db.Model(&OrderItemModel{}).Where("id = ?", item.ID).Updates(map[string]any{
			"quantity": item.Quantity,
			"price":    item.Price,
		}).Error
		if err != nil {
			return errors.Wrapf(err, "save order item %d", item.ID)
		}
	}
	return nil
}

func (r *GormOrderRepository) FindByID(ctx context.Context, id uint) (*domain.Order, error) {
	var model OrderModel
	err := withRelations(database.Conn(ctx, r.db)).First(&model, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.OrderNotFound(id)
		}
		return nil, errors.Wrapf(err, "find order %d", id)
	}
	return ToDomainOrder(&model), nil
}

func (r *GormOrderRepository) FindByIDForUser(ctx context.Context, id, userID uint) (*domain.Order, error) {
	var model OrderModel
	err := withRelations(database.Conn(ctx, r.db)).
		Where("id = ? AND user_id = ?", id, userID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.OrderNotFoundForUser(id)
		}
		return nil, errors.Wrapf(err, "find order %d of user %d", id, userID)
	}
	return ToDomainOrder(&model), nil
}

func (r *GormOrderRepository) FindByUser(ctx context.Context, userID uint) ([]*domain.Order, error) {
	var models []*OrderModel
	err := withRelations(database.Conn(ctx, r.db)).
		Where("user_id = ?", userID).
		Order("id").
		Find(&models).Error
	if err != nil {
		return nil, errors.Wrapf(err, "list orders of user %d", userID)
	}
	return toDomainOrders(models), nil
}

func (r *GormOrderRepository) FindAll(ctx context.Context) ([]*domain.Order, error) {
	var models []*OrderModel
	if err := withRelations(database.Conn(ctx, r.db)).Order("id").Find(&models).Error; err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	return toDomainOrders(models), nil
}

// Delete 先删订单行再删订单，调用方应在事务中调用
func (r *GormOrderRepository) Delete(ctx context.Context, id uint) error {
	db := database.Conn(ctx, r.db)
	if err := db.Where("order_id = ?", id).Delete(&OrderItemModel{}).Error; err != nil {
		return errors.Wrapf(err, "delete items of order %d", id)
	}
	res := db.Delete(&OrderModel{}, id)
	if res.Error != nil {
		return errors.Wrapf(res.Error, "delete order %d", id)
	}
	if res.RowsAffected == 0 {
		return domain.OrderNotFound(id)
	}
	return nil
}

func (r *GormOrderRepository) CountLinesForArt(ctx context.Context, artID uint) (int64, error) {
	var count int64
	err := database.Conn(ctx, r.db).Model(&OrderItemModel{}).Where("art_id = ?", artID).Count(&count).Error
	if err != nil {
		return 0, errors.Wrapf(err, "count order items of art %d", artID)
	}
	return count, nil
}

func toDomainOrders(models []*OrderModel) []*domain.Order {
	orders := make([]*domain.Order, len(models))
	for i, m := range models {
		orders[i] = ToDomainOrder(m)
	}
	return orders
}
