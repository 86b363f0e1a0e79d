package handlers

import (
	"time"

	attachapp "vach_chat_service/internal/attachment/app"
	attachdomain "vach_chat_service/internal/attachment/domain"
	memberapp "vach_chat_service/internal/member/app"
	"vach_chat_service/pkg/logger"
	"vach_chat_service/pkg/middlewares"
	token "vach_chat_service/pkg/token"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// AuthHandler account 相關的 HTTP 請求
type AuthHandler struct {
	memberUC     memberapp.MemberUseCase
	attachmentUC attachapp.AttachmentUseCase
	secureCookie bool
}

// NewAuthHandler create AuthHandler
func NewAuthHandler(memberUC memberapp.MemberUseCase, attachmentUC attachapp.AttachmentUseCase, secureCookie bool) *AuthHandler {
	return &AuthHandler{
		memberUC:     memberUC,
		attachmentUC: attachmentUC,
		secureCookie: secureCookie,
	}
}

// SignupReq signup body
type SignupReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SigninReq signin body
type SigninReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ChangePasswordReq change password body
type ChangePasswordReq struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// DeleteAccountReq delete account body
type DeleteAccountReq struct {
	Password string `json:"password"`
}

// UpdateAboutReq about body
type UpdateAboutReq struct {
	About string `json:"about"`
}

// Signup 註冊
// @Summary Sign up
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body SignupReq true "signup"
// @Success 201 {object} domain.Member
// @Failure 400 {object} ErrorResponse
// @Router /api/auth/signup [post]
func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var req SignupReq
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request")
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return badRequest(c, "All fields are required")
	}

	member, err := h.memberUC.Register(c.UserContext(), req.Name, req.Email, req.Password)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(member)
}

// Signin 登入, token 同時寫入 cookie
// @Summary Sign in
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body SigninReq true "signin"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} ErrorResponse
// @Router /api/auth/signin [post]
func (h *AuthHandler) Signin(c *fiber.Ctx) error {
	var req SigninReq
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request")
	}

	t, member, err := h.memberUC.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		logger.Log.Debug("signin failed", zap.String("email", req.Email), zap.Error(err))
		if errorStatus(err) == fiber.StatusInternalServerError {
			return respondError(c, err)
		}
		// 不透露是帳號或密碼錯誤
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{Error: "Invalid email or password"})
	}

	c.Cookie(&fiber.Cookie{
		Name:     middlewares.CookieToken,
		Value:    t,
		Expires:  time.Now().Add(token.Expiration()),
		HTTPOnly: true,
		Secure:   h.secureCookie,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
	return c.JSON(fiber.Map{"token": t, "user": member})
}

// Logout 登出
// @Summary Log out
// @Tags Auth
// @Security BearerAuth
// @Success 200 {object} map[string]string
// @Router /api/auth/logout [post]
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := h.memberUC.Logout(c.UserContext(), middlewares.MemberID(c)); err != nil {
		return respondError(c, err)
	}
	c.ClearCookie(middlewares.CookieToken)
	return c.JSON(fiber.Map{"message": "Logged out successfully"})
}

// ChangePassword 修改密碼
// @Summary Change password
// @Tags Auth
// @Security BearerAuth
// @Accept json
// @Param request body ChangePasswordReq true "passwords"
// @Success 200 {object} map[string]string
// @Failure 400 {object} ErrorResponse
// @Router /api/auth/change-password [put]
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	var req ChangePasswordReq
	if err := c.BodyParser(&req); err != nil || req.CurrentPassword == "" || req.NewPassword == "" {
		return badRequest(c, "Current and new password are required")
	}

	if err := h.memberUC.ChangePassword(c.UserContext(), middlewares.MemberID(c), req.CurrentPassword, req.NewPassword); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Password changed successfully"})
}

// DeleteAccount 刪除帳號
// @Summary Delete account
// @Tags Auth
// @Security BearerAuth
// @Accept json
// @Param request body DeleteAccountReq true "password"
// @Success 200 {object} map[string]string
// @Failure 401 {object} ErrorResponse
// @Router /api/auth/delete-account [delete]
func (h *AuthHandler) DeleteAccount(c *fiber.Ctx) error {
	var req DeleteAccountReq
	if err := c.BodyParser(&req); err != nil || req.Password == "" {
		return badRequest(c, "Password is required")
	}

	if err := h.memberUC.DeleteAccount(c.UserContext(), middlewares.MemberID(c), req.Password); err != nil {
		return respondError(c, err)
	}
	c.ClearCookie(middlewares.CookieToken)
	return c.JSON(fiber.Map{"message": "Account deleted successfully"})
}

// UpdateAbout 更新狀態文字
// @Summary Update about
// @Tags Auth
// @Security BearerAuth
// @Accept json
// @Param request body UpdateAboutReq true "about"
// @Success 200 {object} domain.Member
// @Router /api/auth/update-about [put]
func (h *AuthHandler) UpdateAbout(c *fiber.Ctx) error {
	var req UpdateAboutReq
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request")
	}

	member, err := h.memberUC.UpdateAbout(c.UserContext(), middlewares.MemberID(c), req.About)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(member)
}

// UpdateProfilePicture 上傳頭像
// @Summary Update profile picture
// @Tags Auth
// @Security BearerAuth
// @Accept multipart/form-data
// @Param profilePicture formData file true "image"
// @Success 200 {object} domain.Member
// @Failure 400 {object} ErrorResponse
// @Router /api/auth/update-profile-picture [put]
func (h *AuthHandler) UpdateProfilePicture(c *fiber.Ctx) error {
	fh, err := c.FormFile("profilePicture")
	if err != nil {
		return badRequest(c, "No image uploaded")
	}
	f, err := fh.Open()
	if err != nil {
		return respondError(c, err)
	}
	defer f.Close()

	memberID := middlewares.MemberID(c)
	upload, err := h.attachmentUC.Upload(c.UserContext(), attachdomain.UploadReq{
		OwnerID:  memberID,
		Purpose:  attachdomain.PurposeAvatar,
		FileName: fh.Filename,
		MimeType: fh.Header.Get(fiber.HeaderContentType),
		Size:     fh.Size,
		File:     f,
	})
	if err != nil {
		return respondError(c, err)
	}
	if upload.Kind != attachdomain.KindImage {
		h.attachmentUC.Discard(c.UserContext(), upload)
		return badRequest(c, "Profile picture must be an image")
	}

	member, err := h.memberUC.UpdateProfilePicture(c.UserContext(), memberID, upload.URL)
	if err != nil {
		h.attachmentUC.Discard(c.UserContext(), upload)
		return respondError(c, err)
	}
	return c.JSON(member)
}
