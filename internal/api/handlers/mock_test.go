package handlers

import (
	"context"

	attachdomain "vach_chat_service/internal/attachment/domain"
	chatdomain "vach_chat_service/internal/chat/domain"
	memberdomain "vach_chat_service/internal/member/domain"

	"github.com/stretchr/testify/mock"
)

type mockMemberUseCase struct {
	mock.Mock
}

func (m *mockMemberUseCase) member(args mock.Arguments) (*memberdomain.Member, error) {
	if args.Get(0) != nil {
		return args.Get(0).(*memberdomain.Member), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockMemberUseCase) Register(ctx context.Context, name, email, password string) (*memberdomain.Member, error) {
	return m.member(m.Called(ctx, name, email, password))
}

func (m *mockMemberUseCase) Login(ctx context.Context, email, password string) (string, *memberdomain.Member, error) {
	args := m.Called(ctx, email, password)
	if args.Get(1) != nil {
		return args.String(0), args.Get(1).(*memberdomain.Member), args.Error(2)
	}
	return args.String(0), nil, args.Error(2)
}

func (m *mockMemberUseCase) Logout(ctx context.Context, memberID string) error {
	return m.Called(ctx, memberID).Error(0)
}

func (m *mockMemberUseCase) ValidateSession(ctx context.Context, memberID, t string) error {
	return m.Called(ctx, memberID, t).Error(0)
}

func (m *mockMemberUseCase) ChangePassword(ctx context.Context, memberID, oldPassword, newPassword string) error {
	return m.Called(ctx, memberID, oldPassword, newPassword).Error(0)
}

func (m *mockMemberUseCase) DeleteAccount(ctx context.Context, memberID, password string) error {
	return m.Called(ctx, memberID, password).Error(0)
}

func (m *mockMemberUseCase) UpdateAbout(ctx context.Context, memberID, about string) (*memberdomain.Member, error) {
	return m.member(m.Called(ctx, memberID, about))
}

func (m *mockMemberUseCase) UpdateProfilePicture(ctx context.Context, memberID, url string) (*memberdomain.Member, error) {
	return m.member(m.Called(ctx, memberID, url))
}

func (m *mockMemberUseCase) FindMember(ctx context.Context, param *memberdomain.MemberQuery) (*memberdomain.Member, error) {
	return m.member(m.Called(ctx, param))
}

func (m *mockMemberUseCase) ListMembers(ctx context.Context, q memberdomain.MemberListQuery) ([]memberdomain.Member, error) {
	args := m.Called(ctx, q)
	if args.Get(0) != nil {
		return args.Get(0).([]memberdomain.Member), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockMemberUseCase) EnsureAssistant(ctx context.Context, memberID, name, email string) (*memberdomain.Member, error) {
	return m.member(m.Called(ctx, memberID, name, email))
}

type mockAttachmentUseCase struct {
	mock.Mock
}

func (m *mockAttachmentUseCase) Upload(ctx context.Context, req attachdomain.UploadReq) (*attachdomain.Upload, error) {
	args := m.Called(ctx, req)
	if args.Get(0) != nil {
		return args.Get(0).(*attachdomain.Upload), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAttachmentUseCase) Discard(ctx context.Context, upload *attachdomain.Upload) {
	m.Called(ctx, upload)
}

type mockMessageService struct {
	mock.Mock
}

func (m *mockMessageService) SendMessage(ctx context.Context, senderID, receiverID string, payload chatdomain.Payload) (*chatdomain.Message, error) {
	args := m.Called(ctx, senderID, receiverID, payload)
	if args.Get(0) != nil {
		return args.Get(0).(*chatdomain.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockMessageService) FetchConversation(ctx context.Context, viewerID, peerID string) ([]chatdomain.Message, error) {
	args := m.Called(ctx, viewerID, peerID)
	if args.Get(0) != nil {
		return args.Get(0).([]chatdomain.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockMessageService) MarkRead(ctx context.Context, viewerID, peerID string) (int64, error) {
	args := m.Called(ctx, viewerID, peerID)
	return args.Get(0).(int64), args.Error(1)
}

type mockPeerLister struct {
	mock.Mock
}

func (m *mockPeerLister) ListPeers(ctx context.Context, viewerID, keyword string) ([]chatdomain.PeerSummary, error) {
	args := m.Called(ctx, viewerID, keyword)
	if args.Get(0) != nil {
		return args.Get(0).([]chatdomain.PeerSummary), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPeerLister) OnlineMembers() []string {
	return m.Called().Get(0).([]string)
}
