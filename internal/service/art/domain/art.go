// internal/service/art/domain/art.go
package domain

import (
	"time"

	"artshop/internal/pkg/validation"

	"github.com/shopspring/decimal"
)

// Category 是艺术品的固定分类
type Category string

const (
	CategorySculpture Category = "sculpture"
	CategoryPainting  Category = "painting"
	CategoryNature    Category = "nature"
)

// Valid 判断分类是否属于枚举
func (c Category) Valid() bool {
	switch c {
	case CategorySculpture, CategoryPainting, CategoryNature:
		return true
	}
	return false
}

// Art 是商品目录中的一件艺术品。
// 不变式：InStock == (Quantity > 0)，任何修改数量的操作都必须调用 RefreshStock。
type Art struct {
	ID          uint
	Title       string
	Description string
	Price       decimal.Decimal
	Quantity    int
	Category    Category
	ImageURL    string
	InStock     bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewArt 校验输入并创建艺术品
func NewArt(title, description string, price decimal.Decimal, quantity int, category Category, imageURL string) (*Art, error) {
	a := &Art{
		Title:       title,
		Description: description,
		Price:       price,
		Quantity:    quantity,
		Category:    category,
		ImageURL:    imageURL,
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	a.RefreshStock()
	return a, nil
}

// Validate 检查全部字段约束
func (a *Art) Validate() error {
	v := validation.New()
	v.NotBlank(a.Title, "title")
	v.NotBlank(a.Description, "description")
	v.Check(!a.Price.IsNegative(), "price", "must not be less than 0")
	v.Check(a.Quantity >= 0, "quantity", "must not be less than 0")
	v.Check(a.Category.Valid(), "category", "must be one of: sculpture, painting, nature")
	return v.Err()
}

// RefreshStock 根据当前数量重算库存标记
func (a *Art) RefreshStock() {
	a.InStock = a.Quantity > 0
}
