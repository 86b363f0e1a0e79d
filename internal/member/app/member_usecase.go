package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"vach_chat_service/internal/member/domain"
	"vach_chat_service/internal/member/repository"
	"vach_chat_service/pkg/database"
	"vach_chat_service/pkg/encrypt"
	"vach_chat_service/pkg/logger"
	token "vach_chat_service/pkg/token"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrSessionExpired redis session missing or replaced
var ErrSessionExpired = errors.New("session expired")

// MemberUseCase 這裡封裝了對外提供的應用服務
type MemberUseCase interface {
	Register(ctx context.Context, name, email, password string) (*domain.Member, error)
	Login(ctx context.Context, email, password string) (string, *domain.Member, error)
	Logout(ctx context.Context, memberID string) error
	ValidateSession(ctx context.Context, memberID, t string) error
	ChangePassword(ctx context.Context, memberID, oldPassword, newPassword string) error
	DeleteAccount(ctx context.Context, memberID, password string) error
	UpdateAbout(ctx context.Context, memberID, about string) (*domain.Member, error)
	UpdateProfilePicture(ctx context.Context, memberID, url string) (*domain.Member, error)
	FindMember(ctx context.Context, param *domain.MemberQuery) (*domain.Member, error)
	ListMembers(ctx context.Context, q domain.MemberListQuery) ([]domain.Member, error)
	EnsureAssistant(ctx context.Context, memberID, name, email string) (*domain.Member, error)
}

type memberUseCase struct {
	memberRepo  repository.MemberRepository
	sessionTTL  time.Duration
	redisRepo   database.RedisRepository[domain.MemberSession]
	assistantID string
}

// NewMemberUseCase 建立一個新的 MemberUseCase
func NewMemberUseCase(memberRepo repository.MemberRepository,
	sessionTTL time.Duration,
	redisRepo database.RedisRepository[domain.MemberSession],
	assistantID string,
) MemberUseCase {
	return &memberUseCase{
		memberRepo:  memberRepo,
		sessionTTL:  sessionTTL,
		redisRepo:   redisRepo,
		assistantID: assistantID,
	}
}

func sessionKey(memberID string) string {
	return "session:" + memberID
}

// Register 註冊, email 與 name 不可重複
func (m *memberUseCase) Register(ctx context.Context, name, email, password string) (*domain.Member, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if err := domain.ValidateSignup(name, email); err != nil {
		return nil, err
	}

	if _, err := m.memberRepo.FindByMember(ctx, &domain.MemberQuery{Email: &email}); err == nil {
		return nil, domain.ErrEmailExists
	} else if !errors.Is(err, domain.ErrMemberNotFound) {
		return nil, err
	}
	if _, err := m.memberRepo.FindByMember(ctx, &domain.MemberQuery{Name: &name}); err == nil {
		return nil, domain.ErrNameExists
	} else if !errors.Is(err, domain.ErrMemberNotFound) {
		return nil, err
	}

	pw, err := encrypt.HashPassword(password)
	if err != nil {
		return nil, err
	}

	member := domain.Member{
		MemberID: uuid.New().String(),
		Name:     name,
		Email:    email,
		Password: pw,
		About:    domain.DefaultAbout,
	}
	if err := m.memberRepo.CreateUser(ctx, &member); err != nil {
		logger.Log.Error("create member failed", zap.String("email", email), zap.Error(err))
		return nil, err
	}

	logger.Log.Info("member registered", zap.String("member_id", member.MemberID))
	return &member, nil
}

// Login 驗證密碼, 簽發 JWT 並寫入 redis session
func (m *memberUseCase) Login(ctx context.Context, email, password string) (string, *domain.Member, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	member, err := m.memberRepo.FindByMember(ctx, &domain.MemberQuery{Email: &email})
	if err != nil {
		logger.Log.Debug("login email not found", zap.String("email", email))
		return "", nil, domain.ErrMemberNotFound
	}
	if member.MemberID == m.assistantID {
		return "", nil, domain.ErrAssistantAccount
	}

	if err = member.IsPasswordMatch(password); err != nil {
		return "", nil, err
	}

	t, err := token.GenerateJWTWrapper(member.MemberID, string(token.RoleUser))
	if err != nil {
		return "", nil, err
	}

	now := time.Now()
	session := domain.MemberSession{
		Token:        t,
		MemberID:     member.MemberID,
		CreatedAt:    now,
		LastActivity: now,
		ExpiredAt:    now.Add(m.sessionTTL),
	}
	if err := m.redisRepo.Set(ctx, sessionKey(member.MemberID), session, m.sessionTTL); err != nil {
		logger.Log.Error("store session failed", zap.String("member_id", member.MemberID), zap.Error(err))
		return "", nil, err
	}

	member.Status = domain.MemberStatusOnLine
	if err := m.memberRepo.UpdateMemberStatus(ctx, member); err != nil {
		logger.Log.Warn("update member status failed", zap.String("member_id", member.MemberID), zap.Error(err))
	}

	return t, member, nil
}

// Logout 清除 session
func (m *memberUseCase) Logout(ctx context.Context, memberID string) error {
	if err := m.redisRepo.Del(ctx, sessionKey(memberID)); err != nil {
		return err
	}

	return m.memberRepo.UpdateMemberStatus(ctx, &domain.Member{
		MemberID: memberID,
		Status:   domain.MemberStatusOffLine,
	})
}

// ValidateSession token 必須是 redis 內最新的 session, 並延長 TTL
func (m *memberUseCase) ValidateSession(ctx context.Context, memberID, t string) error {
	session, err := m.redisRepo.Get(ctx, sessionKey(memberID))
	if err != nil {
		if errors.Is(err, database.ErrRedisNil) {
			return ErrSessionExpired
		}
		return err
	}
	if session.Token != t || session.IsExpired() {
		return ErrSessionExpired
	}

	if err := m.redisRepo.ExtendTTL(ctx, sessionKey(memberID), m.sessionTTL); err != nil {
		logger.Log.Warn("extend session ttl failed", zap.String("member_id", memberID), zap.Error(err))
	}
	return nil
}

// ChangePassword 驗證舊密碼後更新
func (m *memberUseCase) ChangePassword(ctx context.Context, memberID, oldPassword, newPassword string) error {
	member, err := m.memberRepo.FindByMember(ctx, &domain.MemberQuery{MemberID: &memberID})
	if err != nil {
		return err
	}
	if err := member.IsPasswordMatch(oldPassword); err != nil {
		return err
	}

	hashed, err := encrypt.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return m.memberRepo.UpdatePassword(ctx, memberID, hashed)
}

// DeleteAccount 刪除帳號, 聊天紀錄不會一併刪除
func (m *memberUseCase) DeleteAccount(ctx context.Context, memberID, password string) error {
	member, err := m.memberRepo.FindByMember(ctx, &domain.MemberQuery{MemberID: &memberID})
	if err != nil {
		return err
	}
	if err := member.IsPasswordMatch(password); err != nil {
		return err
	}

	if err := m.memberRepo.DeleteMember(ctx, memberID); err != nil {
		return err
	}
	if err := m.redisRepo.Del(ctx, sessionKey(memberID)); err != nil {
		logger.Log.Warn("delete session failed", zap.String("member_id", memberID), zap.Error(err))
	}
	logger.Log.Info("member deleted", zap.String("member_id", memberID))
	return nil
}

// UpdateAbout 更新狀態文字
func (m *memberUseCase) UpdateAbout(ctx context.Context, memberID, about string) (*domain.Member, error) {
	about = strings.TrimSpace(about)
	if err := domain.ValidateAbout(about); err != nil {
		return nil, err
	}
	return m.memberRepo.UpdateProfile(ctx, memberID, domain.ProfileUpdate{About: &about})
}

// UpdateProfilePicture url 由 attachment storage 產生
func (m *memberUseCase) UpdateProfilePicture(ctx context.Context, memberID, url string) (*domain.Member, error) {
	return m.memberRepo.UpdateProfile(ctx, memberID, domain.ProfileUpdate{ProfilePic: &url})
}

// FindMember 尋找使用者
func (m *memberUseCase) FindMember(ctx context.Context, param *domain.MemberQuery) (*domain.Member, error) {
	return m.memberRepo.FindByMember(ctx, param)
}

// ListMembers sidebar / search
func (m *memberUseCase) ListMembers(ctx context.Context, q domain.MemberListQuery) ([]domain.Member, error) {
	q.Keyword = strings.TrimSpace(q.Keyword)
	return m.memberRepo.ListMembers(ctx, q)
}

// EnsureAssistant 建立 AI 助理帳號 (已存在則直接回傳)
func (m *memberUseCase) EnsureAssistant(ctx context.Context, memberID, name, email string) (*domain.Member, error) {
	if existing, err := m.memberRepo.FindByMember(ctx, &domain.MemberQuery{MemberID: &memberID}); err == nil {
		return existing, nil
	} else if !errors.Is(err, domain.ErrMemberNotFound) {
		return nil, err
	}

	// 無法登入, 密碼只是佔位
	pw, err := encrypt.HashPassword("Aa1" + uuid.New().String()[:8])
	if err != nil {
		return nil, err
	}
	member := domain.Member{
		MemberID: memberID,
		Name:     name,
		Email:    email,
		Password: pw,
		About:    "Your friendly AI assistant 🤖",
	}
	if err := m.memberRepo.CreateUser(ctx, &member); err != nil {
		return nil, err
	}
	logger.Log.Info("assistant member created", zap.String("member_id", memberID))
	return &member, nil
}
