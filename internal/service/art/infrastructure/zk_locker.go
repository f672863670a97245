package infrastructure

import (
	"context"
	"fmt"
	"time"

	"artshop/internal/pkg/logger"
	"artshop/internal/service/art/domain/port"
	"artshop/internal/zookeeper"
)

// ZookeeperStockLocker 使用 ZooKeeper 顺序临时节点实现跨实例的按商品加锁
type ZookeeperStockLocker struct {
	conn    *zookeeper.Conn
	timeout time.Duration
}

func NewZookeeperStockLocker(conn *zookeeper.Conn, timeout time.Duration) *ZookeeperStockLocker {
	return &ZookeeperStockLocker{conn: conn, timeout: timeout}
}

func (l *ZookeeperStockLocker) Lock(ctx context.Context, artIDs ...uint) (func(), error) {
	ids := port.NormalizeIDs(artIDs)
	held := make([]*zookeeper.DistributedLock, 0, len(ids))

	unlockAll := func() {
		for i := len(held) - 1; i >= 0; i-- {
			if err := held[i].Unlock(); err != nil {
				logger.Ctx(ctx).Error().Err(err).Msg("failed to release art lock")
			}
		}
	}

	for _, id := range ids {
		lock, err := zookeeper.NewDistributedLock(l.conn, fmt.Sprintf("art-%d", id), l.timeout)
		if err == nil {
			err = lock.Lock(ctx)
		}
		if err != nil {
			unlockAll()
			return nil, fmt.Errorf("lock art %d: %w", id, err)
		}
		held = append(held, lock)
	}
	return unlockAll, nil
}
