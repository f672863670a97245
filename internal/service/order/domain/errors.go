package domain

import (
	"errors"
	"fmt"

	artdomain "artshop/internal/service/art/domain"
)

var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrOrderNotPending = errors.New("order is not pending")
	ErrItemNotInOrder  = errors.New("item is not part of the order")

	// 与商品目录共用同一个哨兵，仓储的原子扣减也返回它
	ErrInsufficientStock = artdomain.ErrInsufficientStock
)

// DetailedError 携带面向调用方的消息，同时保留哨兵错误供 errors.Is 判断
type DetailedError struct {
	Kind    error
	Message string
}

func (e *DetailedError) Error() string {
	return e.Message
}

func (e *DetailedError) Unwrap() error {
	return e.Kind
}

// Errorf 用给定的哨兵错误构造 DetailedError
func Errorf(kind error, format string, args ...any) error {
	return &DetailedError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// OrderNotFound 是管理员按 ID 查询时的错误
func OrderNotFound(id uint) error {
	return Errorf(ErrOrderNotFound, "Order with ID %d not found", id)
}

// OrderNotFoundForUser 是按归属用户查询时的错误
func OrderNotFoundForUser(id uint) error {
	return Errorf(ErrOrderNotFound, "Order with ID %d not found for this user", id)
}
