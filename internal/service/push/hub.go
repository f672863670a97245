// internal/service/push/hub.go
package push

import (
	"context"
	"net/http"
	"strconv"
	"sync"

	"artshop/internal/pkg/auth"
	"artshop/internal/pkg/logger"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// 来源校验由前置网关负责
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub 维护本节点上所有活跃的连接，同一用户可以同时持有多个连接
type Hub struct {
	nodeID   string
	sessions SessionStore

	clients    map[string]map[*Client]struct{} // 使用 UserID 作为 Key
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	lock       sync.RWMutex
}

func NewHub(nodeID string, sessions SessionStore) *Hub {
	if sessions == nil {
		sessions = NoopSessionStore{}
	}
	return &Hub{
		nodeID:     nodeID,
		sessions:   sessions,
		clients:    make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run 处理连接的注册和注销，直到 ctx 结束。退出时关闭所有连接。
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.lock.Lock()
			conns, ok := h.clients[client.userID]
			if !ok {
				conns = make(map[*Client]struct{})
				h.clients[client.userID] = conns
			}
			conns[client] = struct{}{}
			h.lock.Unlock()

			if err := h.sessions.SetUserGateway(ctx, client.userID, h.nodeID); err != nil {
				logger.L().Warn().Err(err).Str("userId", client.userID).Msg("Failed to record gateway session")
			}
			logger.L().Debug().Str("userId", client.userID).Str("node", h.nodeID).Msg("Client registered")

		case client := <-h.unregister:
			if h.remove(client) {
				if err := h.sessions.ClearUserGateway(ctx, client.userID, h.nodeID); err != nil {
					logger.L().Warn().Err(err).Str("userId", client.userID).Msg("Failed to clear gateway session")
				}
			}
			logger.L().Debug().Str("userId", client.userID).Msg("Client unregistered")

		case <-ctx.Done():
			h.lock.Lock()
			for _, conns := range h.clients {
				for c := range conns {
					close(c.send)
				}
			}
			h.clients = make(map[string]map[*Client]struct{})
			h.lock.Unlock()
			return
		}
	}
}

// Start 在后台运行 Hub，使其可以作为 bootstrap.Worker 随服务启停
func (h *Hub) Start(ctx context.Context) error {
	go h.Run(ctx)
	return nil
}

// Stop 等待 Run 退出。Run 在 ctx 取消后关闭所有连接。
func (h *Hub) Stop(ctx context.Context) {
	select {
	case <-h.done:
	case <-ctx.Done():
	}
}

// remove 注销一个连接，返回该用户是否已没有任何连接
func (h *Hub) remove(client *Client) bool {
	h.lock.Lock()
	defer h.lock.Unlock()
	conns, ok := h.clients[client.userID]
	if !ok {
		return false
	}
	if _, ok := conns[client]; !ok {
		return false
	}
	delete(conns, client)
	close(client.send)
	if len(conns) == 0 {
		delete(h.clients, client.userID)
		return true
	}
	return false
}

// Send 把消息投递给用户在本节点上的所有连接，返回成功投递的连接数。
// 发送缓冲已满的连接被视为失效并注销。
func (h *Hub) Send(userID string, msg []byte) int {
	h.lock.RLock()
	defer h.lock.RUnlock()

	delivered := 0
	for c := range h.clients[userID] {
		select {
		case c.send <- msg:
			delivered++
		default:
			go h.drop(c)
		}
	}
	return delivered
}

func (h *Hub) drop(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Online 返回用户在本节点上的连接数
func (h *Hub) Online(userID string) int {
	h.lock.RLock()
	defer h.lock.RUnlock()
	return len(h.clients[userID])
}

// ServeWs 把 HTTP 请求升级为 WebSocket。用户身份优先取网关注入的请求头，
// 浏览器无法设置请求头时退回到 userId 查询参数。
func (h *Hub) ServeWs(w http.ResponseWriter, r *http.Request) {
	userID := ""
	if caller := auth.FromRequest(r); caller.UserID != 0 {
		userID = strconv.FormatUint(uint64(caller.UserID), 10)
	} else if raw := r.URL.Query().Get("userId"); raw != "" {
		if id, err := strconv.ParseUint(raw, 10, 64); err == nil && id != 0 {
			userID = strconv.FormatUint(id, 10)
		}
	}
	if userID == "" {
		http.Error(w, "userId is required", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade 已经写回了错误响应
		logger.Ctx(r.Context()).Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client := &Client{hub: h, conn: conn, send: make(chan []byte, sendBufferSize), userID: userID}
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}
