package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"artshop/internal/service/art/domain"
	"artshop/internal/service/art/domain/port"

	"github.com/pkg/errors"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// artCacheEntry 是缓存中的序列化格式，与领域模型解耦
type artCacheEntry struct {
	ID          uint            `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	Category    string          `json:"category"`
	ImageURL    string          `json:"imageUrl"`
	InStock     bool            `json:"inStock"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// RedisArtCache 是 port.ArtCache 的 Redis 实现
type RedisArtCache struct {
	rdb goredis.UniversalClient
	ttl time.Duration
}

func NewRedisArtCache(rdb goredis.UniversalClient, ttl time.Duration) *RedisArtCache {
	return &RedisArtCache{rdb: rdb, ttl: ttl}
}

func artKey(id uint) string {
	return fmt.Sprintf("art:{%d}", id)
}

func (c *RedisArtCache) Get(ctx context.Context, id uint) (*domain.Art, error) {
	data, err := c.rdb.Get(ctx, artKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, port.ErrCacheMiss
		}
		return nil, errors.Wrap(err, "read art cache")
	}
	var e artCacheEntry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, errors.Wrap(err, "decode art cache entry")
	}
	return &domain.Art{
		ID:          e.ID,
		Title:       e.Title,
		Description: e.Description,
		Price:       e.Price,
		Quantity:    e.Quantity,
		Category:    domain.Category(e.Category),
		ImageURL:    e.ImageURL,
		InStock:     e.InStock,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}, nil
}

func (c *RedisArtCache) Set(ctx context.Context, a *domain.Art) error {
	data, err := json.Marshal(artCacheEntry{
		ID:          a.ID,
		Title:       a.Title,
		Description: a.Description,
		Price:       a.Price,
		Quantity:    a.Quantity,
		Category:    string(a.Category),
		ImageURL:    a.ImageURL,
		InStock:     a.InStock,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	})
	if err != nil {
		return errors.Wrap(err, "encode art cache entry")
	}
	return errors.Wrap(c.rdb.Set(ctx, artKey(a.ID), data, c.ttl).Err(), "write art cache")
}

func (c *RedisArtCache) Invalidate(ctx context.Context, ids ...uint) error {
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = artKey(id)
	}
	// 集群模式下多 key DEL 可能跨槽，逐个删除
	for _, k := range keys {
		if err := c.rdb.Del(ctx, k).Err(); err != nil {
			return errors.Wrap(err, "invalidate art cache")
		}
	}
	return nil
}

// NoopArtCache 在未启用 Redis 时使用，总是未命中
type NoopArtCache struct{}

func (NoopArtCache) Get(context.Context, uint) (*domain.Art, error) { return nil, port.ErrCacheMiss }
func (NoopArtCache) Set(context.Context, *domain.Art) error         { return nil }
func (NoopArtCache) Invalidate(context.Context, ...uint) error      { return nil }
