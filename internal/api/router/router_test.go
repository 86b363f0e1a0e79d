package router

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"vach_chat_service/internal/api/handlers"
	"vach_chat_service/pkg/logger"
	"vach_chat_service/pkg/middlewares"
	token "vach_chat_service/pkg/token"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type denyLimiter struct{}

func (denyLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (*middlewares.RateLimitResult, error) {
	return &middlewares.RateLimitResult{Allowed: false, Limit: limit, ResetAt: time.Now().Add(window)}, nil
}

type blockedAuthLimiter struct{}

func (blockedAuthLimiter) Check(ctx context.Context, key string, limit int, window time.Duration) (*middlewares.RateLimitResult, error) {
	return &middlewares.RateLimitResult{Allowed: false, Limit: limit, ResetAt: time.Now().Add(window)}, nil
}

func (blockedAuthLimiter) RecordFailure(ctx context.Context, key string, window time.Duration) error {
	return nil
}

func newTestApp(sessionOK bool) *fiber.App {
	app := fiber.New()
	RegisterRoutes(app, Handlers{
		Auth:    handlers.NewAuthHandler(nil, nil, false),
		User:    handlers.NewUserHandler(nil),
		Message: handlers.NewMessageHandler(nil, nil),
	}, Options{
		Session: func(c *fiber.Ctx) error {
			if !sessionOK {
				return c.SendStatus(fiber.StatusUnauthorized)
			}
			return c.Next()
		},
		Limiter:       denyLimiter{},
		SendPerMinute: 1,
		AuthLimiter:   blockedAuthLimiter{},
		AuthAttempts:  5,
		AuthWindow:    15 * time.Minute,
	})
	return app
}

func TestRegisterRoutes(t *testing.T) {
	logger.SetNewNop()
	app := newTestApp(true)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "chat service start!", string(body))

	for _, path := range []string{"/api/users", "/api/messages/bob"} {
		resp, err = app.Test(httptest.NewRequest(http.MethodGet, path, nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode, path)
	}

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRegisterRoutes_SendRateLimited(t *testing.T) {
	logger.SetNewNop()
	app := newTestApp(true)

	tk, err := token.GenerateJWTWrapper("member-alice", string(token.RoleUser))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/messages/send/bob", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+tk)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderRetryAfter))
}

func TestRegisterRoutes_SessionRequired(t *testing.T) {
	logger.SetNewNop()
	app := newTestApp(false)

	tk, err := token.GenerateJWTWrapper("member-alice", string(token.RoleUser))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/users/online", nil)
	req.AddCookie(&http.Cookie{Name: middlewares.CookieToken, Value: tk})
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestRegisterRoutes_AuthRateLimited(t *testing.T) {
	logger.SetNewNop()
	app := newTestApp(true)

	for _, path := range []string{"/api/auth/signup", "/api/auth/signin"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodPost, path, nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode, path)
	}
}
