package push

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"artshop/internal/pkg/auth"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T, sessions SessionStore) (*Hub, *httptest.Server) {
	hub := NewHub("node-test", sessions)
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, hub.Start(ctx))

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWs))
	t.Cleanup(func() {
		srv.Close()
		cancel()
		stopCtx, done := context.WithTimeout(context.Background(), time.Second)
		defer done()
		hub.Stop(stopCtx)
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, query string, header http.Header) *websocket.Conn {
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + query
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readText(t *testing.T, conn *websocket.Conn) string {
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	typ, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.TextMessage, typ)
	return string(data)
}

func TestHubDeliversToAllUserConnections(t *testing.T) {
	hub, srv := startHub(t, nil)

	header := http.Header{}
	header.Set(auth.HeaderUserID, "7")
	first := dial(t, srv, "", header)
	second := dial(t, srv, "?userId=7", nil)
	other := dial(t, srv, "?userId=8", nil)

	require.Eventually(t, func() bool { return hub.Online("7") == 2 && hub.Online("8") == 1 }, time.Second, 10*time.Millisecond)

	assert.Equal(t, 2, hub.Send("7", []byte(`{"type":"order.placed"}`)))
	assert.Equal(t, `{"type":"order.placed"}`, readText(t, first))
	assert.Equal(t, `{"type":"order.placed"}`, readText(t, second))

	assert.Equal(t, 0, hub.Send("9", []byte("nobody")))

	// other 没有收到 7 号用户的消息
	require.NoError(t, other.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	_, _, err := other.ReadMessage()
	assert.Error(t, err)
}

func TestHubUnregistersOnDisconnect(t *testing.T) {
	store, _ := setupSessions(t)
	hub, srv := startHub(t, store)

	conn := dial(t, srv, "?userId=7", nil)
	require.Eventually(t, func() bool { return hub.Online("7") == 1 }, time.Second, 10*time.Millisecond)

	node, err := store.GetUserGateway(context.Background(), "7")
	require.NoError(t, err)
	assert.Equal(t, "node-test", node)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.Online("7") == 0 }, 2*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool {
		node, err := store.GetUserGateway(context.Background(), "7")
		return err == nil && node == ""
	}, time.Second, 10*time.Millisecond)
}

func TestServeWsRequiresUser(t *testing.T) {
	_, srv := startHub(t, nil)

	for _, query := range []string{"", "?userId=abc", "?userId=0"} {
		resp, err := http.Get(srv.URL + query)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, query)
	}
}

func TestHubStopClosesConnections(t *testing.T) {
	hub := NewHub("node-test", nil)
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, hub.Start(ctx))
	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWs))
	defer srv.Close()

	conn := dial(t, srv, "?userId=7", nil)
	require.Eventually(t, func() bool { return hub.Online("7") == 1 }, time.Second, 10*time.Millisecond)

	cancel()
	stopCtx, done := context.WithTimeout(context.Background(), time.Second)
	defer done()
	hub.Stop(stopCtx)
	assert.Equal(t, 0, hub.Online("7"))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}
