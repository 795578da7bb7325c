package bus

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/swarmware/swarmware/pkg/xlog"
)

// UpgradeRequired gates the websocket route: non-upgrade requests get 426.
func UpgradeRequired(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// Handler wires a websocket connection into the manager. Events queued on the
// listener channel are written to the socket in order; inbound frames are
// accepted but only logged.
func Handler(manager Manager) fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		cl := NewClient(uuid.NewString())
		manager.Subscribe(cl)
		defer manager.Unsubscribe(cl.ID())

		xlog.Info("Client connected to WebSocket", "client", cl.ID())

		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				_, message, err := conn.ReadMessage()
				if err != nil {
					return
				}
				xlog.Debug("Received", "client", cl.ID(), "message", string(message))
			}
		}()

		for {
			select {
			case event := <-cl.Chan():
				if err := conn.WriteJSON(event); err != nil {
					xlog.Warn("WebSocket write failed", "client", cl.ID(), "error", err)
					return
				}
			case <-done:
				xlog.Info("Client disconnected from WebSocket", "client", cl.ID())
				return
			}
		}
	})
}
