package websocket

import (
	"context"

	"github.com/gofiber/websocket/v2"
)

// ServeWs registers the connection and blocks until it closes.
// The context given to handle is cancelled when the connection goes away.
func ServeWs(hub *Hub, conn *websocket.Conn, sessionID string, handle MessageHandler) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := NewClient(hub, conn, sessionID)
	hub.Register(client)

	go client.writePump()
	client.readPump(ctx, handle) // Run readPump in current goroutine (handler)
}
