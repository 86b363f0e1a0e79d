package router

import (
	"context"

	"vach_chat_service/internal/chat/app"
	"vach_chat_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// RegisterRoutes websocket 入口, token 由 ?auth= 帶入
func RegisterRoutes(r *fiber.App, chatWebsocket *app.ChatWebsocketHandler, session fiber.Handler) {
	r.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	r.Get("/ws", middlewares.JWTMiddleware(), session, websocket.New(func(c *websocket.Conn) {
		chatWebsocket.HandleConnection(context.Background(), c)
	}))
}
