// internal/service/art/application/dto.go
package application

import (
	"io"

	"github.com/shopspring/decimal"
)

// CreateArtRequest 是创建艺术品用例的输入数据
type CreateArtRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	Category    string          `json:"category"`
}

// UpdateArtRequest 只覆盖非 nil 的字段
type UpdateArtRequest struct {
	Title       *string          `json:"title,omitempty"`
	Description *string          `json:"description,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Quantity    *int             `json:"quantity,omitempty"`
	Category    *string          `json:"category,omitempty"`
}

// Upload 是随请求上传的图片
type Upload struct {
	Filename string
	Content  io.Reader
}
