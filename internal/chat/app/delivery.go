package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"vach_chat_service/internal/assistant"
	"vach_chat_service/internal/chat/domain"
	"vach_chat_service/internal/chat/repository"
	errprocess "vach_chat_service/pkg/err"
	"vach_chat_service/pkg/logger"
	"vach_chat_service/pkg/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// AssistantTrigger starts an assistant reply for a message sent to the assistant
type AssistantTrigger interface {
	Trigger(userID string, msg *domain.Message)
}

// DeliveryCoordinator 送出 / 已讀 / 讀取對話
type DeliveryCoordinator struct {
	convRepo    repository.ConversationRepository
	msgRepo     repository.MessageRepository
	directory   MemberDirectory
	presence    *PresenceRegistry
	reconcile   repository.ReconcilePublisher
	assistantID string
	assistant   AssistantTrigger
	now         func() time.Time
}

// NewDeliveryCoordinator init coordinator
func NewDeliveryCoordinator(
	convRepo repository.ConversationRepository,
	msgRepo repository.MessageRepository,
	directory MemberDirectory,
	presence *PresenceRegistry,
	reconcile repository.ReconcilePublisher,
	assistantID string,
) *DeliveryCoordinator {
	return &DeliveryCoordinator{
		convRepo:    convRepo,
		msgRepo:     msgRepo,
		directory:   directory,
		presence:    presence,
		reconcile:   reconcile,
		assistantID: assistantID,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// SetAssistant 設定後傳給 assistant 的訊息才會觸發回覆
func (d *DeliveryCoordinator) SetAssistant(a AssistantTrigger) {
	d.assistant = a
}

// AssistantID identity of the assistant
func (d *DeliveryCoordinator) AssistantID() string {
	return d.assistantID
}

// IsAssistant member is the assistant identity
func (d *DeliveryCoordinator) IsAssistant(memberID string) bool {
	return d.assistantID != "" && memberID == d.assistantID
}

// SendMessage 驗證 -> 寫入 -> 推播; 推播失敗不影響結果
func (d *DeliveryCoordinator) SendMessage(ctx context.Context, senderID, receiverID string, payload domain.Payload) (*domain.Message, error) {
	if err := payload.Validate(); err != nil {
		return nil, err
	}
	if senderID == "" || receiverID == "" || senderID == receiverID {
		return nil, domain.ErrInvalidIdentity
	}

	// slash command 一律轉到與 assistant 的對話
	if d.assistant != nil && !d.IsAssistant(senderID) && payload.Kind == domain.KindText {
		if _, ok := assistant.ParseCommand(payload.Text); ok && receiverID != d.assistantID {
			logger.Log.Debug("slash command redirected", zap.String("sender_id", senderID), zap.String("peer_id", receiverID))
			receiverID = d.assistantID
		}
	}

	exists, err := d.directory.Exists(ctx, receiverID)
	if err != nil {
		return nil, fmt.Errorf("lookup receiver: %w", err)
	}
	if !exists {
		return nil, domain.ErrReceiverNotFound
	}

	msg, unread, err := d.persist(ctx, senderID, receiverID, payload, domain.StatusSent)
	if err != nil {
		return nil, err
	}
	d.deliver(msg, unread)

	if d.assistant != nil && d.IsAssistant(receiverID) {
		d.assistant.Trigger(senderID, msg)
	}
	return msg, nil
}

// DeliverAssistantReply assistant -> user, 固定為 delivered 且自動清除 user 對 assistant 的未讀
func (d *DeliveryCoordinator) DeliverAssistantReply(ctx context.Context, userID, text string) (*domain.Message, error) {
	payload := domain.NewTextPayload(text)
	if err := payload.Validate(); err != nil {
		return nil, err
	}

	msg, unread, err := d.persist(ctx, d.assistantID, userID, payload, domain.StatusDelivered)
	if err != nil {
		return nil, err
	}
	d.deliver(msg, unread)

	if err := d.convRepo.ResetUnread(ctx, d.assistantID, userID, userID); err != nil {
		logger.Log.Warn("reset assistant unread failed", zap.String("member_id", userID), zap.Error(err))
	} else {
		d.presence.Push(userID, domain.UnreadCountEvent(d.assistantID, 0))
	}

	if _, err := d.MarkRead(ctx, d.assistantID, userID); err != nil {
		logger.Log.Warn("assistant mark read failed", zap.String("member_id", userID), zap.Error(err))
	}
	return msg, nil
}

func (d *DeliveryCoordinator) persist(ctx context.Context, senderID, receiverID string, payload domain.Payload, status domain.Status) (*domain.Message, int, error) {
	conv, err := d.convRepo.FindOrCreate(ctx, senderID, receiverID)
	if err != nil {
		return nil, 0, fmt.Errorf("find or create conversation: %w", err)
	}

	msg := &domain.Message{
		ID:         uuid.New().String(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Kind:       payload.Kind,
		Text:       strings.TrimSpace(payload.Text),
		Attachment: payload.Attachment,
		Status:     status,
		CreatedAt:  d.now(),
	}

	// 兩個寫入互不相依, 同時進行; 不用 WithContext 以免一邊失敗取消另一邊
	var (
		g                    errgroup.Group
		insertErr, appendErr error
		unread               int
	)
	g.Go(func() error {
		insertErr = d.msgRepo.Insert(ctx, msg)
		return insertErr
	})
	g.Go(func() error {
		unread, appendErr = d.convRepo.AppendMessage(ctx, conv.ID, msg)
		return appendErr
	})
	if err := g.Wait(); err != nil {
		if insertErr != nil && appendErr != nil {
			return nil, 0, fmt.Errorf("persist message: %w", errors.Join(insertErr, appendErr))
		}
		return nil, 0, d.partialPersistence(ctx, conv.ID, msg, insertErr, appendErr)
	}

	metrics.MessagesSent.WithLabelValues(string(msg.Kind)).Inc()
	return msg, unread, nil
}

func (d *DeliveryCoordinator) partialPersistence(ctx context.Context, convID string, msg *domain.Message, insertErr, appendErr error) error {
	cause := insertErr
	if cause == nil {
		cause = appendErr
	}
	metrics.PartialPersistence.Inc()

	ev := domain.ReconcileEvent{
		MessageID:      msg.ID,
		ConversationID: convID,
		SenderID:       msg.SenderID,
		ReceiverID:     msg.ReceiverID,
		MessageStored:  insertErr == nil,
		AppendStored:   appendErr == nil,
		Reason:         cause.Error(),
		OccurredAt:     d.now(),
	}
	if d.reconcile != nil {
		if err := d.reconcile.Publish(ctx, ev); err != nil {
			logger.Log.Error("publish reconcile event failed", zap.String("message_id", msg.ID), zap.Error(err))
		}
	}

	return errprocess.Wrap(domain.ErrPartialPersistence, cause,
		zap.String("message_id", msg.ID),
		zap.String("conversation_id", convID),
		zap.Bool("message_stored", ev.MessageStored),
		zap.Bool("append_stored", ev.AppendStored),
	)
}

func (d *DeliveryCoordinator) deliver(msg *domain.Message, unread int) {
	ctx := context.Background()

	if _, online := d.presence.Lookup(msg.ReceiverID); online {
		advanced := false
		if msg.Status == domain.StatusSent {
			ok, err := d.msgRepo.AdvanceStatus(ctx, msg.ID, domain.StatusDelivered)
			if err != nil {
				// 留在 sent, 不回報給送出者
				logger.Log.Warn("advance to delivered failed", zap.String("message_id", msg.ID), zap.Error(err))
			} else if ok {
				msg.Status = domain.StatusDelivered
				advanced = true
			}
		}

		d.presence.Push(msg.ReceiverID, domain.NewMessageEvent(msg))
		if !d.IsAssistant(msg.SenderID) {
			d.presence.Push(msg.ReceiverID, domain.UnreadCountEvent(msg.SenderID, unread))
		}
		if advanced {
			d.presence.Push(msg.SenderID, domain.StatusChangedEvent(msg.ID, domain.StatusDelivered))
		}
	}

	d.presence.Push(msg.SenderID, domain.NewMessageEvent(msg))
}

// MarkRead viewer 讀取 peer 送來的所有訊息, 回傳更新筆數
func (d *DeliveryCoordinator) MarkRead(ctx context.Context, viewerID, peerID string) (int64, error) {
	if viewerID == "" || peerID == "" || viewerID == peerID {
		return 0, domain.ErrInvalidIdentity
	}

	n, err := d.msgRepo.MarkRead(ctx, peerID, viewerID)
	if err != nil {
		return 0, fmt.Errorf("mark read: %w", err)
	}
	if err := d.convRepo.ResetUnread(ctx, viewerID, peerID, viewerID); err != nil {
		return n, fmt.Errorf("reset unread: %w", err)
	}

	if n > 0 {
		metrics.MessagesRead.Add(float64(n))
		d.presence.Push(peerID, domain.MessagesReadByEvent(viewerID))
	}
	return n, nil
}

// FetchConversation 依寫入順序回傳; 沒有對話時回傳空 slice
func (d *DeliveryCoordinator) FetchConversation(ctx context.Context, viewerID, peerID string) ([]domain.Message, error) {
	if viewerID == "" || peerID == "" {
		return nil, domain.ErrInvalidIdentity
	}
	return d.recentMessages(ctx, viewerID, peerID, 0)
}

// RecentMessages last limit messages between a and b, oldest first
func (d *DeliveryCoordinator) RecentMessages(ctx context.Context, a, b string, limit int) ([]domain.Message, error) {
	return d.recentMessages(ctx, a, b, limit)
}

func (d *DeliveryCoordinator) recentMessages(ctx context.Context, a, b string, limit int) ([]domain.Message, error) {
	conv, err := d.convRepo.FindByPair(ctx, a, b)
	if err != nil {
		if errors.Is(err, domain.ErrConversationNotFound) {
			return []domain.Message{}, nil
		}
		return nil, err
	}

	ids := conv.Messages
	if limit > 0 && len(ids) > limit {
		ids = ids[len(ids)-limit:]
	}
	return d.msgRepo.FindByIDs(ctx, ids)
}

// RecentConversations member 最近的真人對話 (不含 assistant)
func (d *DeliveryCoordinator) RecentConversations(ctx context.Context, memberID string, limit int) ([]domain.Conversation, error) {
	convs, err := d.convRepo.ListByMember(ctx, memberID, 0)
	if err != nil {
		return nil, err
	}

	out := []domain.Conversation{}
	for _, c := range convs {
		if d.IsAssistant(c.Peer(memberID)) {
			continue
		}
		out = append(out, c)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}
