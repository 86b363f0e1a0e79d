package app

import (
	"context"
	"strings"
	"testing"
	"time"

	"vach_chat_service/internal/assistant"
	"vach_chat_service/internal/chat/domain"
	"vach_chat_service/internal/chat/repository"
	memberdomain "vach_chat_service/internal/member/domain"
	"vach_chat_service/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type assistantFixture struct {
	store     *memStore
	msgs      memMessages
	presence  *PresenceRegistry
	delivery  *DeliveryCoordinator
	responder *MockResponder
	bot       *AssistantResponder
	alice     *fakeConn
}

func newAssistantFixture(timeout time.Duration) *assistantFixture {
	logger.SetNewNop()
	f := &assistantFixture{
		store:     newMemStore(),
		presence:  NewPresenceRegistry(),
		responder: new(MockResponder),
		alice:     newFakeConn("alice-conn"),
	}
	f.msgs = memMessages{s: f.store}
	dir := newMemDirectory(
		memberdomain.Member{MemberID: aliceID, Name: "Alice"},
		memberdomain.Member{MemberID: bobID, Name: "Bob"},
		memberdomain.Member{MemberID: botID, Name: "AI Assistant"},
	)
	f.delivery = NewDeliveryCoordinator(f.store, f.msgs, dir, f.presence, repository.NewLogReconcilePublisher(), botID)
	f.bot = NewAssistantResponder(f.delivery, f.presence, dir, f.responder, AssistantOptions{ContextLimit: 20, Timeout: timeout})
	f.presence.Register(aliceID, f.alice)
	return f
}

func (f *assistantFixture) send(t *testing.T, from, to, text string) *domain.Message {
	msg, err := f.delivery.SendMessage(context.Background(), from, to, domain.NewTextPayload(text))
	require.NoError(t, err)
	f.bot.Wait()
	return msg
}

func replyText(t *testing.T, c *fakeConn) string {
	for _, fr := range c.find(domain.ActionNewMessage) {
		m := fr.Payload["message"].(*domain.Message)
		if m.SenderID == botID {
			return m.Text
		}
	}
	t.Fatal("no assistant reply pushed")
	return ""
}

func TestAssistantResponder_Reply(t *testing.T) {
	f := newAssistantFixture(time.Second)
	f.responder.On("Complete", mock.Anything, "hello", []assistant.Turn{}).Return("Hi Alice! 👋", nil).Once()

	sent := f.send(t, aliceID, botID, "hello")

	assert.Equal(t, "Hi Alice! 👋", replyText(t, f.alice))

	composing := f.alice.find(domain.ActionAssistantComposing)
	require.Len(t, composing, 2)
	assert.Equal(t, true, composing[0].Payload["isComposing"])
	assert.Equal(t, false, composing[1].Payload["isComposing"])

	// assistant 已讀使用者的訊息, 使用者對 assistant 沒有未讀
	assert.Equal(t, domain.StatusRead, f.msgs.status(sent.ID))
	reads := f.alice.find(domain.ActionMessagesReadBy)
	require.Len(t, reads, 1)
	assert.Equal(t, botID, reads[0].Payload["readerId"])
	assert.Equal(t, 0, f.store.unread(aliceID, botID, aliceID))

	msgs, err := f.delivery.FetchConversation(context.Background(), aliceID, botID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, domain.StatusDelivered, msgs[1].Status)
	f.responder.AssertExpectations(t)
}

func TestAssistantResponder_History(t *testing.T) {
	f := newAssistantFixture(time.Second)
	f.responder.On("Complete", mock.Anything, "first", mock.Anything).Return("reply one", nil).Once()
	f.responder.On("Complete", mock.Anything, "second", []assistant.Turn{
		{Role: assistant.RoleUser, Text: "first"},
		{Role: assistant.RoleModel, Text: "reply one"},
	}).Return("reply two", nil).Once()

	f.send(t, aliceID, botID, "first")
	f.send(t, aliceID, botID, "second")
	f.responder.AssertExpectations(t)
}

func TestAssistantResponder_Fallbacks(t *testing.T) {
	t.Run("quota", func(t *testing.T) {
		f := newAssistantFixture(time.Second)
		f.responder.On("Complete", mock.Anything, "hello", mock.Anything).Return("", assistant.ErrQuota)

		f.send(t, aliceID, botID, "hello")
		assert.Equal(t, assistant.FallbackText(assistant.ErrQuota), replyText(t, f.alice))
		assert.Len(t, f.alice.find(domain.ActionAssistantComposing), 2)
	})

	t.Run("timeout", func(t *testing.T) {
		f := newAssistantFixture(50 * time.Millisecond)
		f.responder.On("Complete", mock.Anything, "slow", mock.Anything).
			Run(func(args mock.Arguments) {
				<-args.Get(0).(context.Context).Done()
			}).
			Return("", context.DeadlineExceeded)

		f.send(t, aliceID, botID, "slow")
		assert.Equal(t, assistant.FallbackText(context.DeadlineExceeded), replyText(t, f.alice))
	})
}

func TestAssistantResponder_Commands(t *testing.T) {
	t.Run("help 不呼叫模型", func(t *testing.T) {
		f := newAssistantFixture(time.Second)
		f.send(t, aliceID, botID, "/help")
		assert.Equal(t, assistant.HelpText, replyText(t, f.alice))
		f.responder.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("從一般對話送出的指令轉給 assistant", func(t *testing.T) {
		f := newAssistantFixture(time.Second)
		f.responder.On("Complete", mock.Anything, "Explain this clearly and concisely: goroutines", mock.Anything).
			Return("Goroutines are lightweight threads.", nil)

		msg := f.send(t, aliceID, bobID, "/explain goroutines")
		assert.Equal(t, botID, msg.ReceiverID)
		assert.Equal(t, "Goroutines are lightweight threads.", replyText(t, f.alice))

		bobConv, err := f.delivery.FetchConversation(context.Background(), aliceID, bobID)
		require.NoError(t, err)
		assert.Empty(t, bobConv)
	})

	t.Run("summarize 沒有對話", func(t *testing.T) {
		f := newAssistantFixture(time.Second)
		f.send(t, aliceID, botID, "/summarize")
		assert.Equal(t, assistant.NoChatsReply, replyText(t, f.alice))
	})

	t.Run("summarize", func(t *testing.T) {
		f := newAssistantFixture(time.Second)
		f.send(t, aliceID, bobID, "lunch at noon?")
		f.send(t, bobID, aliceID, "sure")

		f.responder.On("Complete", mock.Anything, mock.MatchedBy(func(p string) bool {
			return strings.Contains(p, "Conversation 1 - with Bob:") &&
				strings.Contains(p, "You: lunch at noon?") &&
				strings.Contains(p, "Bob: sure")
		}), mock.Anything).Return("You planned lunch with Bob.", nil)

		f.send(t, aliceID, botID, "/summarize")
		assert.Equal(t, "You planned lunch with Bob.", replyText(t, f.alice))
		f.responder.AssertExpectations(t)
	})
}
