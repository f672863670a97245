// internal/service/push/session.go
package push

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	goredis "github.com/redis/go-redis/v9"
)

// SessionStore 记录用户当前连接在哪个网关节点上，多节点部署时用于定位推送目标
type SessionStore interface {
	SetUserGateway(ctx context.Context, userID, nodeID string) error
	ClearUserGateway(ctx context.Context, userID, nodeID string) error
	GetUserGateway(ctx context.Context, userID string) (string, error)
}

// clearIfOwner 只在会话仍属于本节点时删除，避免误删用户在其他节点上的新会话
var clearIfOwner = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisSessionStore struct {
	rdb goredis.UniversalClient
	ttl time.Duration
}

func NewRedisSessionStore(rdb goredis.UniversalClient, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{rdb: rdb, ttl: ttl}
}

func sessionKey(userID string) string {
	return fmt.Sprintf("push:session:{%s}", userID)
}

func (s *RedisSessionStore) SetUserGateway(ctx context.Context, userID, nodeID string) error {
	if err := s.rdb.Set(ctx, sessionKey(userID), nodeID, s.ttl).Err(); err != nil {
		return errors.Wrapf(err, "set gateway session for user %s", userID)
	}
	return nil
}

func (s *RedisSessionStore) ClearUserGateway(ctx context.Context, userID, nodeID string) error {
	if err := clearIfOwner.Run(ctx, s.rdb, []string{sessionKey(userID)}, nodeID).Err(); err != nil && !errors.Is(err, goredis.Nil) {
		return errors.Wrapf(err, "clear gateway session for user %s", userID)
	}
	return nil
}

// GetUserGateway 在用户不在线时返回空字符串
func (s *RedisSessionStore) GetUserGateway(ctx context.Context, userID string) (string, error) {
	node, err := s.rdb.Get(ctx, sessionKey(userID)).Result()
	if errors.Is(err, goredis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrapf(err, "get gateway session for user %s", userID)
	}
	return node, nil
}

// NoopSessionStore 在单节点或未启用 Redis 时使用
type NoopSessionStore struct{}

func (NoopSessionStore) SetUserGateway(context.Context, string, string) error   { return nil }
func (NoopSessionStore) ClearUserGateway(context.Context, string, string) error { return nil }
func (NoopSessionStore) GetUserGateway(context.Context, string) (string, error) { return "", nil }
