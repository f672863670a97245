package port

import "context"

// UsageChecker 查询艺术品是否仍被订单行引用，由订单服务的仓储实现
type UsageChecker interface {
	CountLinesForArt(ctx context.Context, artID uint) (int64, error)
}
