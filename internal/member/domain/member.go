package domain

import (
	"errors"
	"strings"
	"time"

	"vach_chat_service/pkg/encrypt"
)

// MemberStatus 用來表示使用者狀態
type MemberStatus int

// 状态: 0=offline, 1=online, 2=ban ,3=delete
const (
	// MemberStatusOffLine 離線
	MemberStatusOffLine MemberStatus = iota
	// MemberStatusOnLine 已登入
	MemberStatusOnLine
	// MemberStatusBan 封鎖
	MemberStatusBan
	// MemberStatusDelete 刪除
	MemberStatusDelete
)

// DefaultAbout status line of a new member
const DefaultAbout = "Hey there! I am using VachChat 💬"

const (
	nameMinLen = 3
	nameMaxLen = 100
)

var (
	// ErrMemberNotFound no member matches the query
	ErrMemberNotFound = errors.New("member not found")
	// ErrEmailExists email already registered
	ErrEmailExists = errors.New("email already exists")
	// ErrNameExists name already registered
	ErrNameExists = errors.New("name already exists")
	// ErrInvalidName name length out of range
	ErrInvalidName = errors.New("name must be 3-100 characters")
	// ErrInvalidEmail malformed email
	ErrInvalidEmail = errors.New("invalid email")
	// ErrAboutTooLong about line too long
	ErrAboutTooLong = errors.New("about must be at most 140 characters")
	// ErrAssistantAccount the assistant identity cannot be used to sign in
	ErrAssistantAccount = errors.New("assistant account cannot sign in")
)

// Member 用來表示使用者
type Member struct {
	ID         int64        `json:"-"`
	MemberID   string       `json:"_id"`
	Name       string       `json:"name"`
	Email      string       `json:"email"`
	Password   string       `json:"-"`
	ProfilePic string       `json:"profilePic"`
	About      string       `json:"about"`
	Status     MemberStatus `json:"-"`
	CreatedAt  time.Time    `json:"createdAt"`
}

// MemberSession 用來表示使用者的 Session
type MemberSession struct {
	Token        string    `json:"Token"`
	MemberID     string    `json:"MemberID"`
	CreatedAt    time.Time `json:"CreatedAt"`
	LastActivity time.Time `json:"LastActivity"`
	ExpiredAt    time.Time `json:"ExpiredAt"`
}

// IsPasswordMatch 密碼驗證
func (m *Member) IsPasswordMatch(inputPwd string) error {
	return encrypt.CheckPassword(m.Password, inputPwd)
}

// IsExpired 檢查 Session 是否已過期
func (s *MemberSession) IsExpired() bool {
	return time.Now().After(s.ExpiredAt)
}

// MemberQuery join conditions are used to query members
type MemberQuery struct {
	ID       *int64  `db:"id"`
	MemberID *string `db:"member_id"`
	Email    *string `db:"email"`
	Name     *string `db:"name"`
}

// MemberListQuery list members for the sidebar or search
type MemberListQuery struct {
	ExcludeMemberID string
	Keyword         string
	Limit           int
}

// ProfileUpdate partial profile update, nil fields stay unchanged
type ProfileUpdate struct {
	About      *string
	ProfilePic *string
}

// ValidateSignup 驗證註冊資料
func ValidateSignup(name, email string) error {
	n := len([]rune(strings.TrimSpace(name)))
	if n < nameMinLen || n > nameMaxLen {
		return ErrInvalidName
	}
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 || strings.ContainsAny(email, " \t") || !strings.Contains(email[at:], ".") {
		return ErrInvalidEmail
	}
	return nil
}

// ValidateAbout about line is at most 140 characters
func ValidateAbout(about string) error {
	if len([]rune(about)) > 140 {
		return ErrAboutTooLong
	}
	return nil
}
