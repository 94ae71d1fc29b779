package remote

import (
	"context"
	"net/http"
	"strings"

	"github.com/BloggingApp/community-service/internal/dto"
	"github.com/gorilla/websocket"
)

// Subscribe streams feed events from the service until ctx is done or the connection drops.
func (c *Client) Subscribe(ctx context.Context, fn func(dto.FeedEvent)) error {
	wsURL := "ws" + strings.TrimPrefix(c.baseURL, "http") + "/ws"

	header := http.Header{}
	if c.accessToken != "" {
		header.Add("Authorization", "Bearer "+c.accessToken)
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, header)
	if err != nil {
		return err
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		var ev dto.FeedEvent
		if err := conn.ReadJSON(&ev); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		fn(ev)
	}
}
