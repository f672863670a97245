package domain

import "errors"

var (
	ErrArtNotFound   = errors.New("art not found")
	ErrArtInUse      = errors.New("art is referenced by existing orders")
	ErrInvalidFilter = errors.New("invalid art filter expression")

	// ErrInsufficientStock 由 AdjustStock 返回，订单流程也直接使用它
	ErrInsufficientStock = errors.New("insufficient stock")
)
