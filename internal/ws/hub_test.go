package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/BloggingApp/community-service/internal/dto"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func httpHandler(h *Hub) http.Handler {
	return http.HandlerFunc(h.ServeWs)
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return conn
}

func waitClients(t *testing.T, hub *Hub, n int) {
	t.Helper()

	require.Eventually(t, func() bool {
		count, err := hub.Clients(context.Background())
		return err == nil && count == n
	}, 2*time.Second, 10*time.Millisecond)
}

func TestBroadcastReachesEveryClient(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(zap.NewNop())
	go hub.Run(ctx)

	srv := httptest.NewServer(httpHandler(hub))
	defer srv.Close()

	first := dial(t, srv)
	second := dial(t, srv)
	waitClients(t, hub, 2)

	hub.Broadcast(dto.NewFeedEvent(dto.EventPostUpdated, 42))

	for _, conn := range []*websocket.Conn{first, second} {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))

		var ev dto.FeedEvent
		require.NoError(t, conn.ReadJSON(&ev))
		assert.Equal(t, dto.EventPostUpdated, ev.Type)
		assert.Equal(t, int64(42), ev.PostID)
	}
}

func TestDisconnectUnregisters(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(zap.NewNop())
	go hub.Run(ctx)

	srv := httptest.NewServer(httpHandler(hub))
	defer srv.Close()

	conn := dial(t, srv)
	waitClients(t, hub, 1)

	conn.Close()
	waitClients(t, hub, 0)
}

func TestBroadcastWithoutClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(zap.NewNop())
	go hub.Run(ctx)

	for i := 0; i < sendBuffer*2; i++ {
		hub.Broadcast(dto.NewFeedEvent(dto.EventPostCreated, int64(i)))
	}

	count, err := hub.Clients(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}
