package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub pushes bus changes to connected websocket clients, who then refetch the
// collections they display.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]chan []byte
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]chan []byte)}
}

func (h *Hub) Attach(ctx context.Context, bus Bus) (func(), error) {
	return bus.Subscribe(ctx, h.Broadcast)
}

func (h *Hub) Broadcast(c Change) {
	msg, err := json.Marshal(c)
	if err != nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, out := range h.clients {
		select {
		case out <- msg:
		default:
			log.Warn().Str("remote", conn.RemoteAddr().String()).Msg("[ws] client too slow, dropping change")
		}
	}
}

func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Handler upgrades the request and streams changes until the client goes away.
func (h *Hub) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Error().Err(err).Msg("[ws] upgrade failed")
			return
		}
		out := make(chan []byte, 32)

		h.mu.Lock()
		h.clients[conn] = out
		h.mu.Unlock()
		log.Debug().Str("remote", conn.RemoteAddr().String()).Msg("[ws] client connected")

		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		defer func() {
			h.mu.Lock()
			delete(h.clients, conn)
			h.mu.Unlock()
			_ = conn.Close()
			log.Debug().Msg("[ws] client disconnected")
		}()

		for {
			select {
			case <-done:
				return
			case msg := <-out:
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
					return
				}
			}
		}
	}
}
