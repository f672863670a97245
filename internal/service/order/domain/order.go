// internal/service/order/domain/order.go
package domain

import (
	"strings"
	"time"

	artdomain "artshop/internal/service/art/domain"

	"github.com/shopspring/decimal"
)

// StatusPending 是新订单的初始状态，只有该状态下的订单允许用户修改或删除
const StatusPending = "pending"

// OrderItem 是订单中的一行，Price 是设置数量时的单价快照
type OrderItem struct {
	ID       uint
	OrderID  uint
	ArtID    uint
	Art      *artdomain.Art // 查询时附带
	Quantity int
	Price    decimal.Decimal
}

// Subtotal 返回该行的金额
func (i *OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Order 是订单聚合的根实体，独占它的订单行
type Order struct {
	ID        uint
	UserID    uint
	FullName  string
	Phone     string
	Address   string
	Status    string // 自由字符串，管理员可以设置任意值
	CreatedAt time.Time
	UpdatedAt time.Time
	Items     []*OrderItem
}

// NewOrder 创建一个 pending 状态的订单
func NewOrder(userID uint, fullName, phone, address string, items []*OrderItem) *Order {
	return &Order{
		UserID:   userID,
		FullName: fullName,
		Phone:    phone,
		Address:  address,
		Status:   StatusPending,
		Items:    items,
	}
}

// IsPending 不区分大小写，但不去除空白
func (o *Order) IsPending() bool {
	return strings.EqualFold(o.Status, StatusPending)
}

// EnsurePending 订单不是 pending 时返回 ErrOrderNotPending，action 用于错误消息，如 "updated"
func (o *Order) EnsurePending(action string) error {
	if !o.IsPending() {
		return Errorf(ErrOrderNotPending, "Order cannot be %s because its status is not 'pending'", action)
	}
	return nil
}

// ItemFor 找到引用该艺术品的订单行
func (o *Order) ItemFor(artID uint) (*OrderItem, error) {
	for _, item := range o.Items {
		if item.ArtID == artID {
			return item, nil
		}
	}
	return nil, Errorf(ErrItemNotInOrder, "Item with ID %d is not in the order", artID)
}

// UpdateContact 只覆盖非空的字段
func (o *Order) UpdateContact(fullName, phone, address *string) {
	if fullName != nil && *fullName != "" {
		o.FullName = *fullName
	}
	if phone != nil && *phone != "" {
		o.Phone = *phone
	}
	if address != nil && *address != "" {
		o.Address = *address
	}
}

// Total 返回订单总金额
func (o *Order) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// ArtIDs 返回订单引用的全部艺术品 ID
func (o *Order) ArtIDs() []uint {
	ids := make([]uint, 0, len(o.Items))
	for _, item := range o.Items {
		ids = append(ids, item.ArtID)
	}
	return ids
}
