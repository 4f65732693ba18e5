package handlers

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/hanish78780/skillbridge-chat/internal/auth"
)

// RequireUpgrade lets only websocket upgrade requests through.
func RequireUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// SocketHandler GET /ws?token=... serves one realtime connection.
func (h *Handlers) SocketHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		userID, _ := conn.Locals(auth.LocalsUserID).(string)
		h.gateway.Serve(h.baseCtx, conn, userID)
	})
}

// UpgradeChain returns the handlers mounted on the websocket route.
func (h *Handlers) UpgradeChain(v *auth.Verifier) []fiber.Handler {
	return []fiber.Handler{RequireUpgrade, v.Middleware(), h.SyncUser, h.SocketHandler()}
}
