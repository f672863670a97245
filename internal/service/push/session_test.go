package push

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupSessions(t *testing.T) (*RedisSessionStore, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisSessionStore(rdb, time.Hour), mr
}

func TestRedisSessionStore(t *testing.T) {
	store, mr := setupSessions(t)
	ctx := context.Background()

	node, err := store.GetUserGateway(ctx, "7")
	require.NoError(t, err)
	assert.Empty(t, node)

	require.NoError(t, store.SetUserGateway(ctx, "7", "node-a"))
	node, err = store.GetUserGateway(ctx, "7")
	require.NoError(t, err)
	assert.Equal(t, "node-a", node)
	assert.Equal(t, time.Hour, mr.TTL("push:session:{7}"))

	// 其他节点的注销不影响本节点登记的会话
	require.NoError(t, store.ClearUserGateway(ctx, "7", "node-b"))
	node, err = store.GetUserGateway(ctx, "7")
	require.NoError(t, err)
	assert.Equal(t, "node-a", node)

	require.NoError(t, store.ClearUserGateway(ctx, "7", "node-a"))
	assert.False(t, mr.Exists("push:session:{7}"))
}

func TestRedisSessionStoreUnavailable(t *testing.T) {
	store, mr := setupSessions(t)
	mr.Close()

	assert.Error(t, store.SetUserGateway(context.Background(), "7", "node-a"))
	_, err := store.GetUserGateway(context.Background(), "7")
	assert.Error(t, err)
}
