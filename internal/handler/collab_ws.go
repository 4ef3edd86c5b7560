package handler

import (
	"context"
	"log"

	"github.com/gofiber/contrib/websocket"

	"collab-board-backend/internal/hub"
)

// CollabWSHandler bridges the websocket endpoint to the hub.
type CollabWSHandler struct {
	hub *hub.Hub
}

// NewCollabWSHandler creates a CollabWSHandler.
func NewCollabWSHandler(h *hub.Hub) *CollabWSHandler {
	return &CollabWSHandler{hub: h}
}

// HandleWebSocket runs one client's session: register, pump frames into
// the hub until the transport dies, then clean up. This goroutine is the
// connection's only reader, so a sender's events reach the hub in the
// order they were sent.
func (h *CollabWSHandler) HandleWebSocket(c *websocket.Conn) {
	conn := h.hub.Connect(c)
	defer func() {
		h.hub.Disconnect(conn)
		c.Close()
	}()

	for {
		messageType, msg, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[CollabWS] Read error for %s: %v", conn.UserID, err)
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		h.hub.Dispatch(context.Background(), conn, msg)
	}
}
