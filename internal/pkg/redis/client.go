// internal/pkg/redis/client.go
package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Client 封装了 go-redis 的通用客户端，单机和集群地址都可以使用
type Client struct {
	client goredis.UniversalClient
}

// NewClient 创建客户端并做一次连通性检查。addrs 以逗号分隔。
func NewClient(addrs, password string, db int) (*Client, error) {
	rdb := goredis.NewUniversalClient(&goredis.UniversalOptions{
		Addrs:    strings.Split(addrs, ","),
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis %s: %w", addrs, err)
	}
	return &Client{client: rdb}, nil
}

// Wrap 用已有的客户端构造 Client，测试中配合 miniredis 使用
func Wrap(rdb goredis.UniversalClient) *Client {
	return &Client{client: rdb}
}

func (c *Client) GetClient() goredis.UniversalClient {
	return c.client
}

func (c *Client) Close() error {
	return c.client.Close()
}
