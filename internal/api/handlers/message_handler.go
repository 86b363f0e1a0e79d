package handlers

import (
	"context"
	"errors"

	attachapp "vach_chat_service/internal/attachment/app"
	attachdomain "vach_chat_service/internal/attachment/domain"
	chatdomain "vach_chat_service/internal/chat/domain"
	"vach_chat_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
)

// MessageService 訊息相關的 usecase
type MessageService interface {
	SendMessage(ctx context.Context, senderID, receiverID string, payload chatdomain.Payload) (*chatdomain.Message, error)
	FetchConversation(ctx context.Context, viewerID, peerID string) ([]chatdomain.Message, error)
	MarkRead(ctx context.Context, viewerID, peerID string) (int64, error)
}

// MessageHandler 訊息 API
type MessageHandler struct {
	messages     MessageService
	attachmentUC attachapp.AttachmentUseCase
}

// NewMessageHandler create MessageHandler
func NewMessageHandler(messages MessageService, attachmentUC attachapp.AttachmentUseCase) *MessageHandler {
	return &MessageHandler{
		messages:     messages,
		attachmentUC: attachmentUC,
	}
}

// SendReq text message body
type SendReq struct {
	Message string `json:"message"`
}

// MarkReadResp read receipt result
type MarkReadResp struct {
	Success       bool  `json:"success"`
	ModifiedCount int64 `json:"modifiedCount"`
}

// GetMessages 取得與某人的對話
// @Summary Get conversation messages
// @Tags Messages
// @Security BearerAuth
// @Produce json
// @Param id path string true "peer member id"
// @Success 200 {array} domain.Message
// @Router /api/messages/{id} [get]
func (h *MessageHandler) GetMessages(c *fiber.Ctx) error {
	msgs, err := h.messages.FetchConversation(c.UserContext(), middlewares.MemberID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(msgs)
}

// Send 傳送文字訊息
// @Summary Send text message
// @Tags Messages
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "receiver member id"
// @Param request body SendReq true "message"
// @Success 201 {object} domain.Message
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/messages/send/{id} [post]
func (h *MessageHandler) Send(c *fiber.Ctx) error {
	var req SendReq
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request")
	}

	msg, err := h.messages.SendMessage(c.UserContext(), middlewares.MemberID(c), c.Params("id"), chatdomain.NewTextPayload(req.Message))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}

// SendFile 傳送圖片或檔案, message 欄位為選填的說明文字
// @Summary Send attachment
// @Tags Messages
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "receiver member id"
// @Param file formData file true "attachment"
// @Param message formData string false "caption"
// @Success 201 {object} domain.Message
// @Failure 400 {object} ErrorResponse
// @Router /api/messages/send-file/{id} [post]
func (h *MessageHandler) SendFile(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "No file uploaded")
	}
	f, err := fh.Open()
	if err != nil {
		return respondError(c, err)
	}
	defer f.Close()

	senderID := middlewares.MemberID(c)
	upload, err := h.attachmentUC.Upload(c.UserContext(), attachdomain.UploadReq{
		OwnerID:  senderID,
		Purpose:  attachdomain.PurposeMessage,
		FileName: fh.Filename,
		MimeType: fh.Header.Get(fiber.HeaderContentType),
		Size:     fh.Size,
		File:     f,
	})
	if err != nil {
		return respondError(c, uploadError(err))
	}

	payload := chatdomain.NewAttachmentPayload(chatdomain.Attachment{
		Kind:      chatdomain.Kind(upload.Kind),
		URL:       upload.URL,
		ObjectKey: upload.ObjectKey,
		FileName:  upload.FileName,
		Size:      upload.Size,
		MimeType:  upload.MimeType,
	}, c.FormValue("message"))

	msg, err := h.messages.SendMessage(c.UserContext(), senderID, c.Params("id"), payload)
	if err != nil {
		// 部分寫入時訊息已引用該物件, 不可刪除
		if !errors.Is(err, chatdomain.ErrPartialPersistence) {
			h.attachmentUC.Discard(c.UserContext(), upload)
		}
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}

// MarkRead 將對方傳來的訊息標為已讀
// @Summary Mark conversation as read
// @Tags Messages
// @Security BearerAuth
// @Produce json
// @Param id path string true "peer member id"
// @Success 200 {object} MarkReadResp
// @Router /api/messages/read/{id} [put]
func (h *MessageHandler) MarkRead(c *fiber.Ctx) error {
	n, err := h.messages.MarkRead(c.UserContext(), middlewares.MemberID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(MarkReadResp{Success: true, ModifiedCount: n})
}

func uploadError(err error) error {
	switch {
	case errors.Is(err, attachdomain.ErrTooLarge):
		return chatdomain.ErrAttachmentTooLarge
	case errors.Is(err, attachdomain.ErrUnsupportedType):
		return chatdomain.ErrUnsupportedFileType
	}
	return err
}
