package infrastructure

import (
	"time"

	artinfra "artshop/internal/service/art/infrastructure"

	"github.com/shopspring/decimal"
)

// OrderModel 对应数据库中的 orders 表
type OrderModel struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"not null;index"`
	FullName  string `gorm:"size:255;not null"`
	Phone     string `gorm:"size:64;not null"`
	Address   string `gorm:"size:512;not null"`
	Status    string `gorm:"size:64;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Items []*OrderItemModel `gorm:"foreignKey:OrderID"`
}

func (OrderModel) TableName() string {
	return "orders"
}

// OrderItemModel 对应 order_items 表，Art 只在查询时预加载
type OrderItemModel struct {
	ID       uint               `gorm:"primaryKey"`
	OrderID  uint               `gorm:"not null;index"`
	ArtID    uint               `gorm:"not null;index"`
	Art      *artinfra.ArtModel `gorm:"foreignKey:ArtID"`
	Quantity int                `gorm:"not null"`
	Price    decimal.Decimal    `gorm:"type:decimal(10,2);not null"`
}

func (OrderItemModel) TableName() string {
	return "order_items"
}
