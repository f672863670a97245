package port

import (
	"context"
	"slices"
)

// StockLocker 按艺术品串行化库存修改。
// 实现必须按 id 升序加锁，以避免多件商品之间的死锁。
type StockLocker interface {
	Lock(ctx context.Context, artIDs ...uint) (unlock func(), err error)
}

// NormalizeIDs 去重并按升序排列，所有实现都应通过它确定加锁顺序
func NormalizeIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}
