package infrastructure

import (
	"context"

	"artshop/internal/pkg/database"
	"artshop/internal/service/art/domain"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// detailColumns 是 Save 允许写入的列，不包含 quantity 和 in_stock
var detailColumns = []string{"title", "description", "price", "category", "image_url", "updated_at"}

// GormArtRepository 是 ArtRepository 的 GORM 实现
type GormArtRepository struct {
	db *gorm.DB
}

// NewGormArtRepository 创建一个新的 GORM 仓储实例
func NewGormArtRepository(db *gorm.DB) *GormArtRepository {
	return &GormArtRepository{db: db}
}

// AutoMigrate 创建或更新 arts 表
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&ArtModel{})
}

func (r *GormArtRepository) FindByID(ctx context.Context, id uint) (*domain.Art, error) {
	var model ArtModel
	err := database.Conn(ctx, r.db).First(&model, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrArtNotFound
		}
		return nil, errors.Wrapf(err, "find art %d", id)
	}
	return ToDomainArt(&model), nil
}

// FindByIDForUpdate 使用 SELECT ... FOR UPDATE，必须在事务中调用才有意义。
// SQLite 不支持行锁，驱动会忽略该子句。
func (r *GormArtRepository) FindByIDForUpdate(ctx context.Context, id uint) (*domain.Art, error) {
	var model ArtModel
	err := database.Conn(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).First(&model, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrArtNotFound
		}
		return nil, errors.Wrapf(err, "lock art %d", id)
	}
	return ToDomainArt(&model), nil
}

func (r *GormArtRepository) FindAll(ctx context.Context) ([]*domain.Art, error) {
	var models []*ArtModel
	if err := database.Conn(ctx, r.db).Order("id").Find(&models).Error; err != nil {
		return nil, errors.Wrap(err, "list arts")
	}
	arts := make([]*domain.Art, len(models))
	for i, m := range models {
		arts[i] = ToDomainArt(m)
	}
	return arts, nil
}

func (r *GormArtRepository) Create(ctx context.Context, art *domain.Art) error {
	model := FromDomainArt(art)
	if err := database.Conn(ctx, r.db).Create(model).Error; err != nil {
		return errors.Wrap(err, "create art")
	}
	art.ID = model.ID
	art.CreatedAt = model.CreatedAt
	art.UpdatedAt = model.UpdatedAt
	return nil
}

// Save 只更新描述性字段。订单服务可能在另一个进程中并发扣减库存，
// 整行写回会覆盖这些扣减。
func (r *GormArtRepository) Save(ctx context.Context, art *domain.Art) error {
	model := FromDomainArt(art)
	res := database.Conn(ctx, r.db).Model(model).Select(detailColumns).Updates(model)
	if res.Error != nil {
		return errors.Wrapf(res.Error, "save art %d", art.ID)
	}
	if res.RowsAffected == 0 {
		return domain.ErrArtNotFound
	}
	art.UpdatedAt = model.UpdatedAt
	return nil
}

// SetQuantity 在一条 UPDATE 中同时写入 quantity 和 in_stock
func (r *GormArtRepository) SetQuantity(ctx context.Context, id uint, quantity int) (*domain.Art, error) {
	res := database.Conn(ctx, r.db).Model(&ArtModel{ID: id}).Updates(map[string]any{
		"quantity": quantity,
		"in_stock": quantity > 0,
	})
	if res.Error != nil {
		return nil, errors.Wrapf(res.Error, "set stock of art %d", id)
	}
	if res.RowsAffected == 0 {
		return nil, domain.ErrArtNotFound
	}
	return r.FindByID(ctx, id)
}

func (r *GormArtRepository) Delete(ctx context.Context, id uint) error {
	res := database.Conn(ctx, r.db).Delete(&ArtModel{}, id)
	if res.Error != nil {
		return errors.Wrapf(res.Error, "delete art %d", id)
	}
	if res.RowsAffected == 0 {
		return domain.ErrArtNotFound
	}
	return nil
}

// AdjustStock 使用条件更新实现"检查并扣减"的原子操作：
// UPDATE arts SET quantity = quantity - ? WHERE id = ? AND quantity >= ?
func (r *GormArtRepository) AdjustStock(ctx context.Context, id uint, delta int) (*domain.Art, error) {
	if delta == 0 {
		// MySQL 对未改变的行报告 0 行受影响，这里直接返回当前状态
		return r.FindByID(ctx, id)
	}
	db := database.Conn(ctx, r.db)

	res := db.Model(&ArtModel{}).
		Where("id = ? AND quantity >= ?", id, delta).
		Update("quantity", gorm.Expr("quantity - ?", delta))
	if res.Error != nil {
		return nil, errors.Wrapf(res.Error, "adjust stock of art %d", id)
	}
	if res.RowsAffected == 0 {
		// 没有命中的行：要么商品不存在，要么库存不足
		var count int64
		if err := db.Model(&ArtModel{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return nil, errors.Wrapf(err, "check art %d", id)
		}
		if count == 0 {
			return nil, domain.ErrArtNotFound
		}
		return nil, domain.ErrInsufficientStock
	}

	// 单独更新 in_stock，不依赖各数据库对同一 SET 子句中列求值顺序的差异
	if err := db.Model(&ArtModel{}).Where("id = ?", id).
		Update("in_stock", gorm.Expr("quantity > 0")).Error; err != nil {
		return nil, errors.Wrapf(err, "refresh in_stock of art %d", id)
	}
	return r.FindByID(ctx, id)
}
