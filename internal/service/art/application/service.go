// internal/service/art/application/service.go
package application

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"artshop/internal/pkg/auth"
	"artshop/internal/pkg/logger"
	"artshop/internal/pkg/metrics"
	"artshop/internal/service/art/domain"
	"artshop/internal/service/art/domain/port"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

// ArtApplicationService 编排商品目录的管理用例
type ArtApplicationService struct {
	repo    domain.ArtRepository
	tx      domain.Transactor
	cache   port.ArtCache
	images  port.ImageStorage
	locker  port.StockLocker
	usage   port.UsageChecker
	tracer  trace.Tracer
	loading singleflight.Group
}

// NewArtApplicationService 创建服务实例。usage 为 nil 时删除不做引用检查。
func NewArtApplicationService(
	repo domain.ArtRepository,
	tx domain.Transactor,
	cache port.ArtCache,
	images port.ImageStorage,
	locker port.StockLocker,
	usage port.UsageChecker,
	tracer trace.Tracer,
) *ArtApplicationService {
	return &ArtApplicationService{
		repo:   repo,
		tx:     tx,
		cache:  cache,
		images: images,
		locker: locker,
		usage:  usage,
		tracer: tracer,
	}
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// Create 校验输入、保存图片并创建艺术品
func (s *ArtApplicationService) Create(ctx context.Context, caller auth.Caller, req *CreateArtRequest, upload *Upload) (art *domain.Art, err error) {
	ctx, span := s.tracer.Start(ctx, "service.CreateArt")
	defer span.End()
	defer func() { metrics.ObserveOperation("art.create", err) }()

	if err := caller.RequireAdmin(); err != nil {
		return nil, fail(span, err)
	}

	art, err = domain.NewArt(req.Title, req.Description, req.Price, req.Quantity, domain.Category(req.Category), "")
	if err != nil {
		return nil, fail(span, err)
	}

	if upload != nil {
		ref, err := s.images.Save(ctx, upload.Filename, upload.Content)
		if err != nil {
			return nil, fail(span, fmt.Errorf("failed to store image: %w", err))
		}
		art.ImageURL = ref
	}

	if err := s.repo.Create(ctx, art); err != nil {
		s.releaseImage(ctx, art.ImageURL)
		return nil, fail(span, fmt.Errorf("failed to create art: %w", err))
	}

	span.SetAttributes(attribute.Int("art.id", int(art.ID)))
	logger.Ctx(ctx).Info().Uint("artId", art.ID).Str("title", art.Title).Msg("Art created")
	return art, nil
}

// List 返回全部艺术品，filter 非空时按 CEL 表达式过滤
func (s *ArtApplicationService) List(ctx context.Context, filter string) ([]*domain.Art, error) {
	ctx, span := s.tracer.Start(ctx, "service.ListArts")
	defer span.End()

	var f *ArtFilter
	if filter != "" {
		span.SetAttributes(attribute.String("art.filter", filter))
		compiled, err := CompileFilter(filter)
		if err != nil {
			return nil, fail(span, err)
		}
		f = compiled
	}

	arts, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fail(span, err)
	}
	if f == nil {
		return arts, nil
	}

	matched := make([]*domain.Art, 0, len(arts))
	for _, a := range arts {
		ok, err := f.Match(a)
		if err != nil {
			return nil, fail(span, err)
		}
		if ok {
			matched = append(matched, a)
		}
	}
	return matched, nil
}

// Get 先读缓存，未命中时回源数据库。并发的回源请求会被合并为一次。
func (s *ArtApplicationService) Get(ctx context.Context, id uint) (*domain.Art, error) {
	ctx, span := s.tracer.Start(ctx, "service.GetArt")
	defer span.End()
	span.SetAttributes(attribute.Int("art.id", int(id)))

	cached, err := s.cache.Get(ctx, id)
	if err == nil {
		span.AddEvent("cache hit")
		return cached, nil
	}
	if !errors.Is(err, port.ErrCacheMiss) {
		logger.Ctx(ctx).Warn().Err(err).Uint("artId", id).Msg("Art cache read failed, falling back to database")
	}

	v, err, _ := s.loading.Do(strconv.FormatUint(uint64(id), 10), func() (any, error) {
		// 结果由所有等待者共享，不能因为发起者取消而失败
		loadCtx := context.WithoutCancel(ctx)
		art, err := s.repo.FindByID(loadCtx, id)
		if err != nil {
			return nil, err
		}
		if err := s.cache.Set(loadCtx, art); err != nil {
			logger.Ctx(loadCtx).Warn().Err(err).Uint("artId", id).Msg("Failed to populate art cache")
		}
		return art, nil
	})
	if err != nil {
		return nil, fail(span, err)
	}
	// 共享结果需要拷贝，避免调用方之间互相修改
	art := *v.(*domain.Art)
	return &art, nil
}

// Update 合并部分更新。描述字段与库存分开写入：只有请求携带 quantity 时
// 才覆盖库存，读取与写入在同一事务中完成并锁定该行。
func (s *ArtApplicationService) Update(ctx context.Context, caller auth.Caller, id uint, req *UpdateArtRequest, upload *Upload) (art *domain.Art, err error) {
	ctx, span := s.tracer.Start(ctx, "service.UpdateArt")
	defer span.End()
	defer func() { metrics.ObserveOperation("art.update", err) }()
	span.SetAttributes(attribute.Int("art.id", int(id)))

	if err := caller.RequireAdmin(); err != nil {
		return nil, fail(span, err)
	}

	unlock, err := s.locker.Lock(ctx, id)
	if err != nil {
		return nil, fail(span, fmt.Errorf("failed to lock art %d: %w", id, err))
	}
	defer unlock()

	var newImage string
	if upload != nil {
		newImage, err = s.images.Save(ctx, upload.Filename, upload.Content)
		if err != nil {
			return nil, fail(span, fmt.Errorf("failed to store image: %w", err))
		}
	}

	var oldImage string
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.repo.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		oldImage = current.ImageURL

		if req.Title != nil {
			current.Title = *req.Title
		}
		if req.Description != nil {
			current.Description = *req.Description
		}
		if req.Price != nil {
			current.Price = *req.Price
		}
		if req.Quantity != nil {
			current.Quantity = *req.Quantity
		}
		if req.Category != nil {
			current.Category = domain.Category(*req.Category)
		}
		if newImage != "" {
			current.ImageURL = newImage
		}
		if err := current.Validate(); err != nil {
			return err
		}

		if err := s.repo.Save(ctx, current); err != nil {
			return fmt.Errorf("failed to update art %d: %w", id, err)
		}
		if req.Quantity == nil {
			art = current
			return nil
		}
		art, err = s.repo.SetQuantity(ctx, id, *req.Quantity)
		if err != nil {
			return fmt.Errorf("failed to set stock of art %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		s.releaseImage(ctx, newImage)
		return nil, fail(span, err)
	}
	if newImage != "" {
		s.releaseImage(ctx, oldImage)
	}
	s.invalidate(ctx, id)

	logger.Ctx(ctx).Info().Uint("artId", id).Int("quantity", art.Quantity).Bool("inStock", art.InStock).Msg("Art updated")
	return art, nil
}

// Delete 删除艺术品并尽力删除其图片。仍被订单行引用时拒绝删除。
func (s *ArtApplicationService) Delete(ctx context.Context, caller auth.Caller, id uint) (err error) {
	ctx, span := s.tracer.Start(ctx, "service.DeleteArt")
	defer span.End()
	defer func() { metrics.ObserveOperation("art.delete", err) }()
	span.SetAttributes(attribute.Int("art.id", int(id)))

	if err := caller.RequireAdmin(); err != nil {
		return fail(span, err)
	}

	unlock, err := s.locker.Lock(ctx, id)
	if err != nil {
		return fail(span, fmt.Errorf("failed to lock art %d: %w", id, err))
	}
	defer unlock()

	art, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return fail(span, err)
	}

	if s.usage != nil {
		n, err := s.usage.CountLinesForArt(ctx, id)
		if err != nil {
			return fail(span, fmt.Errorf("failed to check art usage: %w", err))
		}
		if n > 0 {
			return fail(span, fmt.Errorf("%w: %d order lines", domain.ErrArtInUse, n))
		}
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fail(span, err)
	}
	s.releaseImage(ctx, art.ImageURL)
	s.invalidate(ctx, id)

	logger.Ctx(ctx).Info().Uint("artId", id).Msg("Art deleted")
	return nil
}

// releaseImage 删除图片失败只记录日志
func (s *ArtApplicationService) releaseImage(ctx context.Context, ref string) {
	if ref == "" {
		return
	}
	if err := s.images.Delete(ctx, ref); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("image", ref).Msg("Failed to delete image")
	}
}

func (s *ArtApplicationService) invalidate(ctx context.Context, ids ...uint) {
	if err := s.cache.Invalidate(ctx, ids...); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Msg("Failed to invalidate art cache")
	}
}
