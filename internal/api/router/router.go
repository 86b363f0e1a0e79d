package router

import (
	"time"

	"vach_chat_service/internal/api/handlers"
	"vach_chat_service/pkg/metrics"
	"vach_chat_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
)

// Handlers REST handlers
type Handlers struct {
	Auth    *handlers.AuthHandler
	User    *handlers.UserHandler
	Message *handlers.MessageHandler
}

// Options middleware 設定
type Options struct {
	Session       fiber.Handler
	Limiter       middlewares.Limiter
	SendPerMinute int
	AuthLimiter   middlewares.FailureLimiter
	AuthAttempts  int
	AuthWindow    time.Duration
}

// RegisterRoutes 註冊 REST 路由
func RegisterRoutes(app *fiber.App, h Handlers, opts Options) {
	app.Get("/swagger/*", swagger.HandlerDefault)
	app.Get("/", handlers.ConnectCheck)
	app.Post("/debug", handlers.DebugLogFlag)
	app.Get("/metrics", metrics.Handler())

	authed := []fiber.Handler{middlewares.JWTMiddleware(), opts.Session}

	auth := app.Group("/api/auth")
	authLimit := middlewares.AuthRateLimit(opts.AuthLimiter, opts.AuthAttempts, opts.AuthWindow)
	auth.Post("/signup", authLimit, h.Auth.Signup)
	auth.Post("/signin", authLimit, h.Auth.Signin)
	auth.Post("/logout", append(authed, h.Auth.Logout)...)
	auth.Put("/change-password", append(authed, h.Auth.ChangePassword)...)
	auth.Delete("/delete-account", append(authed, h.Auth.DeleteAccount)...)
	auth.Put("/update-about", append(authed, h.Auth.UpdateAbout)...)
	auth.Put("/update-profile-picture", append(authed, h.Auth.UpdateProfilePicture)...)

	users := app.Group("/api/users", authed...)
	users.Get("/", h.User.List)
	users.Get("/search", h.User.Search)
	users.Get("/online", h.User.Online)

	messages := app.Group("/api/messages", authed...)
	sendLimit := middlewares.SendRateLimit(opts.Limiter, opts.SendPerMinute, time.Minute)
	messages.Post("/send/:id", sendLimit, h.Message.Send)
	messages.Post("/send-file/:id", sendLimit, h.Message.SendFile)
	messages.Put("/read/:id", h.Message.MarkRead)
	messages.Get("/:id", h.Message.GetMessages)
}
