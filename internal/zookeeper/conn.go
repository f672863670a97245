// internal/zookeeper/conn.go
package zookeeper

import (
	"time"

	"artshop/internal/pkg/logger"

	"github.com/go-zookeeper/zk"
)

// Conn 是 ZooKeeper 连接的薄封装
type Conn struct {
	*zk.Conn
}

// Connect 建立到 ZooKeeper 集群的会话
func Connect(servers []string, sessionTimeout time.Duration) (*Conn, error) {
	c, _, err := zk.Connect(servers, sessionTimeout, zk.WithLogInfo(false))
	if err != nil {
		return nil, err
	}
	logger.L().Info().Strs("servers", servers).Msg("Connected to ZooKeeper.")
	return &Conn{Conn: c}, nil
}

// Close 关闭会话，会话上的临时节点（包括未释放的锁）随之删除
func (c *Conn) Close() error {
	c.Conn.Close()
	return nil
}
