package port

import (
	"context"
	"errors"

	"artshop/internal/service/art/domain"
)

// ErrCacheMiss 表示缓存中没有该艺术品
var ErrCacheMiss = errors.New("art cache miss")

// ArtCache 是艺术品读缓存的出站端口
type ArtCache interface {
	Get(ctx context.Context, id uint) (*domain.Art, error)
	Set(ctx context.Context, art *domain.Art) error
	// Invalidate 在写操作提交后调用，删除对应的缓存项
	Invalidate(ctx context.Context, ids ...uint) error
}
