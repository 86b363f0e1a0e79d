package app

import (
	"context"
	"errors"
	"testing"

	"vach_chat_service/internal/chat/domain"
	"vach_chat_service/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	aliceID = "alice"
	bobID   = "bob"
	botID   = "assistant"
)

type deliveryFixture struct {
	convRepo  *MockConversationRepository
	msgRepo   *MockMessageRepository
	directory *MockMemberDirectory
	reconcile *MockReconcilePublisher
	presence  *PresenceRegistry
	uc        *DeliveryCoordinator
}

func newDeliveryFixture() *deliveryFixture {
	logger.SetNewNop()
	f := &deliveryFixture{
		convRepo:  new(MockConversationRepository),
		msgRepo:   new(MockMessageRepository),
		directory: new(MockMemberDirectory),
		reconcile: new(MockReconcilePublisher),
		presence:  NewPresenceRegistry(),
	}
	f.uc = NewDeliveryCoordinator(f.convRepo, f.msgRepo, f.directory, f.presence, f.reconcile, botID)
	return f
}

func (f *deliveryFixture) assertExpectations(t *testing.T) {
	f.convRepo.AssertExpectations(t)
	f.msgRepo.AssertExpectations(t)
	f.directory.AssertExpectations(t)
	f.reconcile.AssertExpectations(t)
}

func TestDeliveryCoordinator_SendMessage_Validation(t *testing.T) {
	ctx := context.Background()
	f := newDeliveryFixture()

	_, err := f.uc.SendMessage(ctx, aliceID, bobID, domain.NewTextPayload("   "))
	assert.ErrorIs(t, err, domain.ErrEmptyMessage)

	_, err = f.uc.SendMessage(ctx, aliceID, aliceID, domain.NewTextPayload("hi"))
	assert.ErrorIs(t, err, domain.ErrInvalidIdentity)

	_, err = f.uc.SendMessage(ctx, "", bobID, domain.NewTextPayload("hi"))
	assert.ErrorIs(t, err, domain.ErrInvalidIdentity)

	_, err = f.uc.SendMessage(ctx, aliceID, bobID, domain.Payload{Kind: domain.KindImage})
	assert.ErrorIs(t, err, domain.ErrInvalidPayload)

	// 沒有任何儲存呼叫
	f.assertExpectations(t)
}

func TestDeliveryCoordinator_SendMessage_ReceiverNotFound(t *testing.T) {
	ctx := context.Background()
	f := newDeliveryFixture()
	f.directory.On("Exists", ctx, "ghost").Return(false, nil)

	_, err := f.uc.SendMessage(ctx, aliceID, "ghost", domain.NewTextPayload("hi"))
	assert.ErrorIs(t, err, domain.ErrReceiverNotFound)
	f.convRepo.AssertNotCalled(t, "FindOrCreate", mock.Anything, mock.Anything, mock.Anything)
	f.assertExpectations(t)
}

func TestDeliveryCoordinator_SendMessage_ReceiverOnline(t *testing.T) {
	ctx := context.Background()
	f := newDeliveryFixture()

	alice := newFakeConn("a")
	bob := newFakeConn("b")
	f.presence.Register(aliceID, alice)
	f.presence.Register(bobID, bob)

	f.directory.On("Exists", ctx, bobID).Return(true, nil)
	f.convRepo.On("FindOrCreate", ctx, aliceID, bobID).Return(&domain.Conversation{ID: "conv-1"}, nil)
	f.msgRepo.On("Insert", ctx, mock.Anything).Return(nil)
	f.convRepo.On("AppendMessage", ctx, "conv-1", mock.Anything).Return(3, nil)
	f.msgRepo.On("AdvanceStatus", mock.Anything, mock.Anything, domain.StatusDelivered).Return(true, nil)

	msg, err := f.uc.SendMessage(ctx, aliceID, bobID, domain.NewTextPayload(" hello "))
	require.NoError(t, err)
	assert.Equal(t, "hello", msg.Text)
	assert.Equal(t, domain.StatusDelivered, msg.Status)

	newMsgs := bob.find(domain.ActionNewMessage)
	require.Len(t, newMsgs, 1)
	unread := bob.find(domain.ActionUnreadCountChanged)
	require.Len(t, unread, 1)
	assert.Equal(t, aliceID, unread[0].Payload["peerId"])
	assert.Equal(t, 3, unread[0].Payload["count"])

	status := alice.find(domain.ActionMessageStatusChanged)
	require.Len(t, status, 1)
	assert.Equal(t, msg.ID, status[0].Payload["messageId"])
	assert.Len(t, alice.find(domain.ActionNewMessage), 1)

	f.reconcile.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	f.assertExpectations(t)
}

func TestDeliveryCoordinator_SendMessage_ReceiverOffline(t *testing.T) {
	ctx := context.Background()
	f := newDeliveryFixture()

	alice := newFakeConn("a")
	f.presence.Register(aliceID, alice)

	f.directory.On("Exists", ctx, bobID).Return(true, nil)
	f.convRepo.On("FindOrCreate", ctx, aliceID, bobID).Return(&domain.Conversation{ID: "conv-1"}, nil)
	f.msgRepo.On("Insert", ctx, mock.Anything).Return(nil)
	f.convRepo.On("AppendMessage", ctx, "conv-1", mock.Anything).Return(1, nil)

	msg, err := f.uc.SendMessage(ctx, aliceID, bobID, domain.NewTextPayload("hello"))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSent, msg.Status)
	assert.Len(t, alice.find(domain.ActionNewMessage), 1)
	assert.Empty(t, alice.find(domain.ActionMessageStatusChanged))

	f.msgRepo.AssertNotCalled(t, "AdvanceStatus", mock.Anything, mock.Anything, mock.Anything)
	f.assertExpectations(t)
}

func TestDeliveryCoordinator_SendMessage_AdvanceFails(t *testing.T) {
	ctx := context.Background()
	f := newDeliveryFixture()

	alice := newFakeConn("a")
	bob := newFakeConn("b")
	f.presence.Register(aliceID, alice)
	f.presence.Register(bobID, bob)

	f.directory.On("Exists", ctx, bobID).Return(true, nil)
	f.convRepo.On("FindOrCreate", ctx, aliceID, bobID).Return(&domain.Conversation{ID: "conv-1"}, nil)
	f.msgRepo.On("Insert", ctx, mock.Anything).Return(nil)
	f.convRepo.On("AppendMessage", ctx, "conv-1", mock.Anything).Return(1, nil)
	f.msgRepo.On("AdvanceStatus", mock.Anything, mock.Anything, domain.StatusDelivered).Return(false, errors.New("mongo timeout"))

	msg, err := f.uc.SendMessage(ctx, aliceID, bobID, domain.NewTextPayload("hello"))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSent, msg.Status)
	assert.Len(t, bob.find(domain.ActionNewMessage), 1)
	assert.Empty(t, alice.find(domain.ActionMessageStatusChanged))
}

func TestDeliveryCoordinator_SendMessage_PartialPersistence(t *testing.T) {
	ctx := context.Background()
	f := newDeliveryFixture()

	f.directory.On("Exists", ctx, bobID).Return(true, nil)
	f.convRepo.On("FindOrCreate", ctx, aliceID, bobID).Return(&domain.Conversation{ID: "conv-1"}, nil)
	f.msgRepo.On("Insert", ctx, mock.Anything).Return(nil)
	f.convRepo.On("AppendMessage", ctx, "conv-1", mock.Anything).Return(0, errors.New("write conflict"))
	f.reconcile.On("Publish", ctx, mock.MatchedBy(func(ev domain.ReconcileEvent) bool {
		return ev.ConversationID == "conv-1" && ev.MessageStored && !ev.AppendStored
	})).Return(nil)

	_, err := f.uc.SendMessage(ctx, aliceID, bobID, domain.NewTextPayload("hello"))
	assert.ErrorIs(t, err, domain.ErrPartialPersistence)
	f.assertExpectations(t)
}

func TestDeliveryCoordinator_SendMessage_BothWritesFail(t *testing.T) {
	ctx := context.Background()
	f := newDeliveryFixture()

	f.directory.On("Exists", ctx, bobID).Return(true, nil)
	f.convRepo.On("FindOrCreate", ctx, aliceID, bobID).Return(&domain.Conversation{ID: "conv-1"}, nil)
	f.msgRepo.On("Insert", ctx, mock.Anything).Return(errors.New("down"))
	f.convRepo.On("AppendMessage", ctx, "conv-1", mock.Anything).Return(0, errors.New("down"))

	_, err := f.uc.SendMessage(ctx, aliceID, bobID, domain.NewTextPayload("hello"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrPartialPersistence)
	f.reconcile.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestDeliveryCoordinator_MarkRead(t *testing.T) {
	ctx := context.Background()
	f := newDeliveryFixture()

	alice := newFakeConn("a")
	f.presence.Register(aliceID, alice)

	// bob 讀取 alice 的訊息
	f.msgRepo.On("MarkRead", ctx, aliceID, bobID).Return(int64(2), nil).Once()
	f.msgRepo.On("MarkRead", ctx, aliceID, bobID).Return(int64(0), nil).Once()
	f.convRepo.On("ResetUnread", ctx, bobID, aliceID, bobID).Return(nil).Twice()

	n, err := f.uc.MarkRead(ctx, bobID, aliceID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = f.uc.MarkRead(ctx, bobID, aliceID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	reads := alice.find(domain.ActionMessagesReadBy)
	require.Len(t, reads, 1)
	assert.Equal(t, bobID, reads[0].Payload["readerId"])
	f.assertExpectations(t)

	_, err = f.uc.MarkRead(ctx, bobID, bobID)
	assert.ErrorIs(t, err, domain.ErrInvalidIdentity)
}

func TestDeliveryCoordinator_FetchConversation(t *testing.T) {
	ctx := context.Background()
	f := newDeliveryFixture()

	f.convRepo.On("FindByPair", ctx, aliceID, "stranger").Return(nil, domain.ErrConversationNotFound)
	msgs, err := f.uc.FetchConversation(ctx, aliceID, "stranger")
	require.NoError(t, err)
	assert.NotNil(t, msgs)
	assert.Empty(t, msgs)

	ids := []string{"m1", "m2"}
	f.convRepo.On("FindByPair", ctx, aliceID, bobID).Return(&domain.Conversation{ID: "conv-1", Messages: ids}, nil)
	f.msgRepo.On("FindByIDs", ctx, ids).Return([]domain.Message{{ID: "m1"}, {ID: "m2"}}, nil)
	msgs, err = f.uc.FetchConversation(ctx, aliceID, bobID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "m1", msgs[0].ID)
	f.assertExpectations(t)
}

type recordingTrigger struct {
	users []string
	msgs  []*domain.Message
}

func (r *recordingTrigger) Trigger(userID string, msg *domain.Message) {
	r.users = append(r.users, userID)
	r.msgs = append(r.msgs, msg)
}

func TestDeliveryCoordinator_SlashCommandRedirect(t *testing.T) {
	ctx := context.Background()
	f := newDeliveryFixture()
	trigger := &recordingTrigger{}
	f.uc.SetAssistant(trigger)

	f.directory.On("Exists", ctx, botID).Return(true, nil)
	f.convRepo.On("FindOrCreate", ctx, aliceID, botID).Return(&domain.Conversation{ID: "conv-ai"}, nil)
	f.msgRepo.On("Insert", ctx, mock.Anything).Return(nil)
	f.convRepo.On("AppendMessage", ctx, "conv-ai", mock.Anything).Return(1, nil)

	msg, err := f.uc.SendMessage(ctx, aliceID, bobID, domain.NewTextPayload("/explain channels"))
	require.NoError(t, err)
	assert.Equal(t, botID, msg.ReceiverID)
	assert.Equal(t, []string{aliceID}, trigger.users)

	// 一般訊息不轉送
	f.directory.On("Exists", ctx, bobID).Return(true, nil)
	f.convRepo.On("FindOrCreate", ctx, aliceID, bobID).Return(&domain.Conversation{ID: "conv-1"}, nil)
	f.convRepo.On("AppendMessage", ctx, "conv-1", mock.Anything).Return(1, nil)
	msg, err = f.uc.SendMessage(ctx, aliceID, bobID, domain.NewTextPayload("explain channels"))
	require.NoError(t, err)
	assert.Equal(t, bobID, msg.ReceiverID)
	assert.Len(t, trigger.users, 1)
}
