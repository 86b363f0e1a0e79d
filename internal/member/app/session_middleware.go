package app

import (
	"vach_chat_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
)

// SessionMiddleware 在 JWTMiddleware 之後, 確認 token 仍是有效 session (登出後失效)
func SessionMiddleware(uc MemberUseCase) fiber.Handler {
	return func(c *fiber.Ctx) error {
		memberID := middlewares.MemberID(c)
		if memberID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
		}

		if err := uc.ValidateSession(c.UserContext(), memberID, middlewares.TokenFromRequest(c)); err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Session expired, please sign in again"})
		}
		return c.Next()
	}
}
