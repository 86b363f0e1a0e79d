package main

import (
	"vach_chat_service/internal/api/handlers"
	"vach_chat_service/internal/api/router"

	"github.com/gofiber/fiber/v2"
)

// 此程式只用於 swag init, 服務入口在 cmd/chat_service
// swag init --output ./docs
//
// @title Vach Chat Service API
// @version 1.0
// @description Real-time 1:1 chat with presence, delivery status and an AI assistant
// @host localhost:3000
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	app := fiber.New()

	router.RegisterRoutes(app, router.Handlers{
		Auth:    &handlers.AuthHandler{},
		User:    &handlers.UserHandler{},
		Message: &handlers.MessageHandler{},
	}, router.Options{
		Session: func(c *fiber.Ctx) error { return c.Next() },
	})
}
