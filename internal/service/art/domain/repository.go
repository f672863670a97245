package domain

import "context"

// ArtRepository 定义了艺术品的持久化接口，由基础设施层实现。
// 在事务中调用时，实现必须使用 ctx 携带的事务。
type ArtRepository interface {
	FindByID(ctx context.Context, id uint) (*Art, error)
	// FindByIDForUpdate 在事务中读取并锁定该行，直到事务结束
	FindByIDForUpdate(ctx context.Context, id uint) (*Art, error)
	FindAll(ctx context.Context) ([]*Art, error)
	Create(ctx context.Context, art *Art) error
	// Save 只写回描述性字段，库存列由 SetQuantity 和 AdjustStock 维护
	Save(ctx context.Context, art *Art) error
	// SetQuantity 把库存设置为绝对值并重算 in_stock
	SetQuantity(ctx context.Context, id uint, quantity int) (*Art, error)
	Delete(ctx context.Context, id uint) error

	// AdjustStock 原子地把库存减去 delta（delta 为负时即归还库存），并重算 in_stock。
	// 当剩余库存小于 delta 时不做任何修改并返回 ErrInsufficientStock。
	AdjustStock(ctx context.Context, id uint, delta int) (*Art, error)
}

// Transactor 在一个数据库事务中执行 fn
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
