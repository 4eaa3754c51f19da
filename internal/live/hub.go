// Package live implements the live assessment feed GET /ws/tracking
// serves over WebSocket: local fan-out plus a Redis pub/sub backbone so
// a broadcast reaches every server instance, not just the one that
// produced the Assessment, with the usual upgrader/ping-pong connection
// handling underneath.
package live

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/gorilla/websocket"

	"github.com/raahat-suraksha/safety-backend/internal/common/logging"
	"github.com/raahat-suraksha/safety-backend/pkg/models"
)

const channel = "safety:assessments"

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Message is what a connected client receives for every new Assessment.
type Message struct {
	TouristID uint             `json:"tourist_id"`
	Assessment *models.Assessment `json:"assessment"`
}

// Hub fans Assessments out to every connected /ws/tracking client.
// Safe for concurrent use; one Hub serves the whole process.
type Hub struct {
	redis  *redis.Client
	logger *logging.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]chan []byte
}

// NewHub builds a Hub. redis may be nil, in which case Broadcast only
// fans out to this process's own clients instead of publishing for
// other instances to pick up — acceptable for a single-instance
// deployment and exercised that way in tests.
func NewHub(redisClient *redis.Client, logger *logging.Logger) *Hub {
	return &Hub{
		redis:   redisClient,
		logger:  logger,
		clients: make(map[*websocket.Conn]chan []byte),
	}
}

// Run subscribes to the Redis channel and fans every message out to
// local clients until ctx is cancelled. No-op if redis is nil.
func (h *Hub) Run(ctx context.Context) {
	if h.redis == nil {
		return
	}
	pubsub := h.redis.Subscribe(ctx, channel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.fanOut([]byte(msg.Payload))
		}
	}
}

// Broadcast publishes a new Assessment to every connected client,
// across every server instance when Redis is configured.
func (h *Hub) Broadcast(ctx context.Context, assessment *models.Assessment) error {
	payload, err := json.Marshal(Message{TouristID: assessment.TouristID, Assessment: assessment})
	if err != nil {
		return err
	}
	if h.redis != nil {
		if err := h.redis.Publish(ctx, channel, payload).Err(); err != nil {
			if h.logger != nil {
				h.logger.LogError(err, "failed to publish live assessment", map[string]interface{}{"tourist_id": assessment.TouristID})
			}
			return err
		}
		return nil
	}
	h.fanOut(payload)
	return nil
}

func (h *Hub) fanOut(payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, send := range h.clients {
		select {
		case send <- payload:
		default:
		}
	}
}

// HandleWebSocket upgrades the request and streams every subsequent
// Broadcast to the caller until it disconnects.
func (h *Hub) HandleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	send := make(chan []byte, 16)
	h.mu.Lock()
	h.clients[conn] = send
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
	}()

	go h.readPump(conn)

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case payload, ok := <-send:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump drains and discards client messages purely to notice a
// closed connection; this feed is one-directional.
func (h *Hub) readPump(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			conn.Close()
			return
		}
	}
}
