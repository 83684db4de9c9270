package websocket

import (
	"github.com/Ahmed-S-Salim/greenofig-sub002/internal/pkg/logger"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// ServeWs attaches a connection to the hub and runs its pumps. Blocks until
// the read side ends, which is what keeps the fiber handler alive.
func ServeWs(hub *Hub, c *websocket.Conn, userID uuid.UUID, log logger.ILogger) {
	client := &Client{Hub: hub, Conn: c, UserID: userID, Send: make(chan []byte, 256)}
	client.Hub.register <- client

	go client.writePump()
	client.readPump(log)
}
