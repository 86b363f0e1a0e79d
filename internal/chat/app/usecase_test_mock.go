package app

import (
	"context"
	"sync"

	"vach_chat_service/internal/assistant"
	"vach_chat_service/internal/chat/domain"
	memberdomain "vach_chat_service/internal/member/domain"

	"github.com/stretchr/testify/mock"
)

// MockConversationRepository Mock ConversationRepository
type MockConversationRepository struct {
	mock.Mock
}

// EnsureIndexes mock ensure indexes
func (m *MockConversationRepository) EnsureIndexes(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// FindOrCreate mock find or create conversation
func (m *MockConversationRepository) FindOrCreate(ctx context.Context, a, b string) (*domain.Conversation, error) {
	args := m.Called(ctx, a, b)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Conversation), args.Error(1)
	}
	return nil, args.Error(1)
}

// AppendMessage mock append message id
func (m *MockConversationRepository) AppendMessage(ctx context.Context, conversationID string, msg *domain.Message) (int, error) {
	args := m.Called(ctx, conversationID, msg)
	return args.Int(0), args.Error(1)
}

// ResetUnread mock reset unread
func (m *MockConversationRepository) ResetUnread(ctx context.Context, a, b, memberID string) error {
	return m.Called(ctx, a, b, memberID).Error(0)
}

// FindByPair mock find conversation by pair
func (m *MockConversationRepository) FindByPair(ctx context.Context, a, b string) (*domain.Conversation, error) {
	args := m.Called(ctx, a, b)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Conversation), args.Error(1)
	}
	return nil, args.Error(1)
}

// ListByMember mock list conversations of member
func (m *MockConversationRepository) ListByMember(ctx context.Context, memberID string, limit int64) ([]domain.Conversation, error) {
	args := m.Called(ctx, memberID, limit)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.Conversation), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockMessageRepository Mock MessageRepository
type MockMessageRepository struct {
	mock.Mock
}

// EnsureIndexes mock ensure indexes
func (m *MockMessageRepository) EnsureIndexes(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// Insert mock insert message
func (m *MockMessageRepository) Insert(ctx context.Context, msg *domain.Message) error {
	return m.Called(ctx, msg).Error(0)
}

// AdvanceStatus mock advance status
func (m *MockMessageRepository) AdvanceStatus(ctx context.Context, messageID string, next domain.Status) (bool, error) {
	args := m.Called(ctx, messageID, next)
	return args.Bool(0), args.Error(1)
}

// MarkRead mock bulk mark read
func (m *MockMessageRepository) MarkRead(ctx context.Context, senderID, receiverID string) (int64, error) {
	args := m.Called(ctx, senderID, receiverID)
	return args.Get(0).(int64), args.Error(1)
}

// FindByIDs mock find messages
func (m *MockMessageRepository) FindByIDs(ctx context.Context, ids []string) ([]domain.Message, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockReconcilePublisher Mock ReconcilePublisher
type MockReconcilePublisher struct {
	mock.Mock
}

// Publish mock publish reconcile event
func (m *MockReconcilePublisher) Publish(ctx context.Context, ev domain.ReconcileEvent) error {
	return m.Called(ctx, ev).Error(0)
}

// MockMemberDirectory Mock MemberDirectory
type MockMemberDirectory struct {
	mock.Mock
}

// Exists mock member exists
func (m *MockMemberDirectory) Exists(ctx context.Context, memberID string) (bool, error) {
	args := m.Called(ctx, memberID)
	return args.Bool(0), args.Error(1)
}

// Find mock find member
func (m *MockMemberDirectory) Find(ctx context.Context, memberID string) (*memberdomain.Member, error) {
	args := m.Called(ctx, memberID)
	if args.Get(0) != nil {
		return args.Get(0).(*memberdomain.Member), args.Error(1)
	}
	return nil, args.Error(1)
}

// List mock list members
func (m *MockMemberDirectory) List(ctx context.Context, q memberdomain.MemberListQuery) ([]memberdomain.Member, error) {
	args := m.Called(ctx, q)
	if args.Get(0) != nil {
		return args.Get(0).([]memberdomain.Member), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockResponder Mock assistant.Responder
type MockResponder struct {
	mock.Mock
}

// Complete mock model completion
func (m *MockResponder) Complete(ctx context.Context, prompt string, history []assistant.Turn) (string, error) {
	args := m.Called(ctx, prompt, history)
	return args.String(0), args.Error(1)
}

// fakeConn records pushed frames
type fakeConn struct {
	id     string
	mu     sync.Mutex
	frames []domain.WSResponse
	err    error
}

func newFakeConn(id string) *fakeConn {
	return &fakeConn{id: id}
}

func (f *fakeConn) ID() string {
	return f.id
}

func (f *fakeConn) Send(resp domain.WSResponse) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.frames = append(f.frames, resp)
	return nil
}

func (f *fakeConn) actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.frames))
	for _, fr := range f.frames {
		out = append(out, fr.Action)
	}
	return out
}

// find frames of one action, roster frames excluded unless asked for
func (f *fakeConn) find(action domain.Action) []domain.WSResponse {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.WSResponse
	for _, fr := range f.frames {
		if fr.Action == string(action) {
			out = append(out, fr)
		}
	}
	return out
}

func (f *fakeConn) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = nil
}
