package infrastructure

import (
	"time"

	"github.com/shopspring/decimal"
)

// ArtModel 对应数据库中的 arts 表
type ArtModel struct {
	ID          uint            `gorm:"primaryKey"`
	Title       string          `gorm:"size:255;not null"`
	Description string          `gorm:"type:text;not null"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Quantity    int             `gorm:"not null"`
	Category    string          `gorm:"size:32;not null;index"`
	ImageURL    string          `gorm:"size:512"`
	InStock     bool            `gorm:"not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName 指定 GORM 应该使用的表名
func (ArtModel) TableName() string {
	return "arts"
}
