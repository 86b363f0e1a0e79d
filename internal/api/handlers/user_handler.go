package handlers

import (
	"context"

	chatdomain "vach_chat_service/internal/chat/domain"
	"vach_chat_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
)

// PeerLister sidebar 資料來源
type PeerLister interface {
	ListPeers(ctx context.Context, viewerID, keyword string) ([]chatdomain.PeerSummary, error)
	OnlineMembers() []string
}

// UserHandler sidebar / 搜尋
type UserHandler struct {
	peers PeerLister
}

// NewUserHandler create UserHandler
func NewUserHandler(peers PeerLister) *UserHandler {
	return &UserHandler{peers: peers}
}

// List sidebar 使用者列表
// @Summary List chat peers
// @Tags Users
// @Security BearerAuth
// @Produce json
// @Success 200 {array} domain.PeerSummary
// @Router /api/users [get]
func (h *UserHandler) List(c *fiber.Ctx) error {
	peers, err := h.peers.ListPeers(c.UserContext(), middlewares.MemberID(c), "")
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(peers)
}

// Search 以名稱或 email 搜尋
// @Summary Search chat peers
// @Tags Users
// @Security BearerAuth
// @Produce json
// @Param q query string true "keyword"
// @Success 200 {array} domain.PeerSummary
// @Router /api/users/search [get]
func (h *UserHandler) Search(c *fiber.Ctx) error {
	q := c.Query("q")
	if q == "" {
		return badRequest(c, "Search query is required")
	}
	peers, err := h.peers.ListPeers(c.UserContext(), middlewares.MemberID(c), q)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(peers)
}

// Online 目前在線的 member id
// @Summary Online member ids
// @Tags Users
// @Security BearerAuth
// @Produce json
// @Success 200 {array} string
// @Router /api/users/online [get]
func (h *UserHandler) Online(c *fiber.Ctx) error {
	return c.JSON(h.peers.OnlineMembers())
}
