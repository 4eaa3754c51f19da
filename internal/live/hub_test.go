package live

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/raahat-suraksha/safety-backend/pkg/models"
)

func TestHub_BroadcastWithoutRedisFansOutToLocalClients(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewHub(nil, nil)

	r := gin.New()
	r.GET("/ws/tracking", hub.HandleWebSocket)
	mux := httptest.NewServer(r)
	defer mux.Close()

	url := "ws" + strings.TrimPrefix(mux.URL, "http") + "/ws/tracking"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	time.Sleep(20 * time.Millisecond)

	require.NoError(t, hub.Broadcast(context.Background(), &models.Assessment{TouristID: 7, SafetyScore: 80}))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)
	require.Contains(t, string(payload), `"tourist_id":7`)
}
