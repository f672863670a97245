// internal/service/order/application/dto.go
package application

import (
	"fmt"

	"artshop/internal/pkg/validation"
)

// OrderLine 是请求中的一行：艺术品 ID 与数量
type OrderLine struct {
	ArtID    uint `json:"artId"`
	Quantity int  `json:"quantity"`
}

// CreateOrderRequest 是下单用例的输入数据
type CreateOrderRequest struct {
	FullName string      `json:"fullname"`
	Phone    string      `json:"phone"`
	Address  string      `json:"address"`
	Items    []OrderLine `json:"items"`
}

// Validate 一次性返回全部违规项
func (r *CreateOrderRequest) Validate() error {
	v := validation.New()
	v.NotBlank(r.FullName, "fullname")
	v.NotBlank(r.Phone, "phone")
	v.NotBlank(r.Address, "address")
	v.Check(len(r.Items) > 0, "items", "should contain at least one item")
	validateLines(v, r.Items)
	return v.Err()
}

// UpdateOrderRequest 是改单用例的输入，所有字段可选
type UpdateOrderRequest struct {
	FullName *string     `json:"fullname,omitempty"`
	Phone    *string     `json:"phone,omitempty"`
	Address  *string     `json:"address,omitempty"`
	Items    []OrderLine `json:"items,omitempty"`
}

func (r *UpdateOrderRequest) Validate() error {
	v := validation.New()
	validateLines(v, r.Items)
	return v.Err()
}

func validateLines(v *validation.Validator, lines []OrderLine) {
	for i, line := range lines {
		v.Check(line.ArtID > 0, fmt.Sprintf("items[%d].artId", i), "must be a positive integer")
		v.Check(line.Quantity >= 1, fmt.Sprintf("items[%d].quantity", i), "must not be less than 1")
	}
}

func artIDs(lines []OrderLine) []uint {
	ids := make([]uint, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ArtID)
	}
	return ids
}

// UpdateStatusRequest 是管理员修改订单状态的输入，状态值不做校验
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// DeleteOrderResponse 是删除订单的确认信息
type DeleteOrderResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}
