package infrastructure

import (
	"context"
	"sync"

	"artshop/internal/service/art/domain/port"
)

type lockEntry struct {
	ch   chan struct{}
	refs int
}

// LocalStockLocker 是进程内的按商品加锁实现，单实例部署和测试使用
type LocalStockLocker struct {
	mu    sync.Mutex
	locks map[uint]*lockEntry
}

func NewLocalStockLocker() *LocalStockLocker {
	return &LocalStockLocker{locks: make(map[uint]*lockEntry)}
}

// Lock 按升序依次获取每个商品的锁，ctx 取消时释放已获取的锁并返回错误
func (l *LocalStockLocker) Lock(ctx context.Context, artIDs ...uint) (func(), error) {
	ids := port.NormalizeIDs(artIDs)
	acquired := make([]uint, 0, len(ids))

	for _, id := range ids {
		e := l.ref(id)
		select {
		case e.ch <- struct{}{}:
			acquired = append(acquired, id)
		case <-ctx.Done():
			l.unref(id)
			l.release(acquired)
			return nil, ctx.Err()
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() { l.release(acquired) })
	}, nil
}

func (l *LocalStockLocker) ref(id uint) *lockEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.locks[id]
	if !ok {
		e = &lockEntry{ch: make(chan struct{}, 1)}
		l.locks[id] = e
	}
	e.refs++
	return e
}

func (l *LocalStockLocker) unref(id uint) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e := l.locks[id]
	e.refs--
	if e.refs == 0 {
		delete(l.locks, id)
	}
}

func (l *LocalStockLocker) release(ids []uint) {
	for i := len(ids) - 1; i >= 0; i-- {
		l.mu.Lock()
		e := l.locks[ids[i]]
		l.mu.Unlock()
		<-e.ch
		l.unref(ids[i])
	}
}
