package handlers

import (
	"errors"

	attachdomain "vach_chat_service/internal/attachment/domain"
	chatdomain "vach_chat_service/internal/chat/domain"
	memberapp "vach_chat_service/internal/member/app"
	memberdomain "vach_chat_service/internal/member/domain"
	"vach_chat_service/pkg/encrypt"
	"vach_chat_service/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ErrorResponse error body
type ErrorResponse struct {
	Error string `json:"error"`
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, chatdomain.ErrEmptyMessage),
		errors.Is(err, chatdomain.ErrInvalidIdentity),
		errors.Is(err, chatdomain.ErrInvalidPayload),
		errors.Is(err, chatdomain.ErrAttachmentTooLarge),
		errors.Is(err, chatdomain.ErrUnsupportedFileType),
		errors.Is(err, attachdomain.ErrTooLarge),
		errors.Is(err, attachdomain.ErrUnsupportedType),
		errors.Is(err, attachdomain.ErrEmptyFile),
		errors.Is(err, memberdomain.ErrEmailExists),
		errors.Is(err, memberdomain.ErrNameExists),
		errors.Is(err, memberdomain.ErrInvalidName),
		errors.Is(err, memberdomain.ErrInvalidEmail),
		errors.Is(err, memberdomain.ErrAboutTooLong),
		errors.Is(err, encrypt.ErrWeakPassword):
		return fiber.StatusBadRequest
	case errors.Is(err, encrypt.ErrPasswordMismatch),
		errors.Is(err, memberapp.ErrSessionExpired):
		return fiber.StatusUnauthorized
	case errors.Is(err, memberdomain.ErrAssistantAccount):
		return fiber.StatusForbidden
	case errors.Is(err, chatdomain.ErrReceiverNotFound),
		errors.Is(err, memberdomain.ErrMemberNotFound):
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError 4xx 回傳原因, 5xx 只回通用訊息
func respondError(c *fiber.Ctx, err error) error {
	status := errorStatus(err)
	if status >= fiber.StatusInternalServerError {
		logger.Log.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
		return c.Status(status).JSON(ErrorResponse{Error: "Internal server error"})
	}
	return c.Status(status).JSON(ErrorResponse{Error: err.Error()})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: msg})
}
