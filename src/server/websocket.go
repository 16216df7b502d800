package server

import (
	"net/http"
	"time"

	"sales-observer/src/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// -----------------------------------------------------------------------------
// WebSocket Handler
// -----------------------------------------------------------------------------

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// -----------------------------------------------------------------------------

func (s *DashboardServer) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.Logger.Info("Failed to upgrade websocket: %v", err)
		return
	}

	client := &Client{
		ID:          uuid.NewString(),
		ConnectedAt: time.Now(),
		hub:         s.hub,
		conn:        conn,
		// Buffered channel so a slow client never blocks the hub loop
		send: make(chan models.MEvent, sendBufferSize),
	}

	s.hub.register <- client

	// Start goroutines for reading/writing
	go client.writePump()
	go client.readPump()
}
