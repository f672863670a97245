// internal/service/order/domain/repository.go
package domain

import "context"

// OrderRepository 定义了订单聚合的持久化接口。
// 查询方法都会附带订单行及其引用的艺术品。在事务中调用时使用 ctx 携带的事务。
type OrderRepository interface {
	// Create 保存新订单及其全部订单行
	Create(ctx context.Context, order *Order) error

	// Save 更新订单头和已有订单行的数量与单价
	Save(ctx context.Context, order *Order) error

	// FindByID 管理员路径，不存在时返回 OrderNotFound
	FindByID(ctx context.Context, id uint) (*Order, error)

	// FindByIDForUser 要求归属匹配，不存在时返回 OrderNotFoundForUser
	FindByIDForUser(ctx context.Context, id, userID uint) (*Order, error)

	FindByUser(ctx context.Context, userID uint) ([]*Order, error)
	FindAll(ctx context.Context) ([]*Order, error)

	// Delete 先删除订单行再删除订单
	Delete(ctx context.Context, id uint) error

	// CountLinesForArt 统计引用某件艺术品的订单行数量
	CountLinesForArt(ctx context.Context, artID uint) (int64, error)
}

// Transactor 在一个数据库事务中执行 fn
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
