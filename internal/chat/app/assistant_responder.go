package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"vach_chat_service/internal/assistant"
	"vach_chat_service/internal/chat/domain"
	"vach_chat_service/pkg/logger"
	"vach_chat_service/pkg/metrics"

	"go.uber.org/zap"
)

const (
	summarizeConversations = 5
	summarizeMessages      = 15
	attachmentReply        = "I can only read text messages for now. Send me your question as text! 📎"
)

// AssistantOptions assistant reply settings
type AssistantOptions struct {
	ContextLimit   int
	Timeout        time.Duration
	SimulateTyping bool
}

// AssistantResponder 使用者傳給 assistant 的訊息, 背景產生回覆
type AssistantResponder struct {
	delivery  *DeliveryCoordinator
	presence  *PresenceRegistry
	directory MemberDirectory
	responder assistant.Responder
	opts      AssistantOptions
	wg        sync.WaitGroup
}

// NewAssistantResponder init responder and hook it into the delivery coordinator
func NewAssistantResponder(
	delivery *DeliveryCoordinator,
	presence *PresenceRegistry,
	directory MemberDirectory,
	responder assistant.Responder,
	opts AssistantOptions,
) *AssistantResponder {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.ContextLimit <= 0 {
		opts.ContextLimit = 20
	}
	a := &AssistantResponder{
		delivery:  delivery,
		presence:  presence,
		directory: directory,
		responder: responder,
		opts:      opts,
	}
	delivery.SetAssistant(a)
	return a
}

// Trigger 不阻塞送出者, 回覆在背景完成
func (a *AssistantResponder) Trigger(userID string, msg *domain.Message) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.Reply(context.Background(), userID, msg)
	}()
}

// Wait 等待進行中的回覆 (shutdown)
func (a *AssistantResponder) Wait() {
	a.wg.Wait()
}

// Reply compose, persist and push the assistant reply to msg
func (a *AssistantResponder) Reply(ctx context.Context, userID string, msg *domain.Message) {
	assistantID := a.delivery.AssistantID()
	a.presence.Push(userID, domain.AssistantComposingEvent(assistantID, true))

	composing := true
	stopComposing := func() {
		if composing {
			composing = false
			a.presence.Push(userID, domain.AssistantComposingEvent(assistantID, false))
		}
	}
	defer stopComposing()

	text, result := a.compose(ctx, userID, msg)

	if a.opts.SimulateTyping {
		select {
		case <-time.After(assistant.TypingDelay(text)):
		case <-ctx.Done():
		}
	}

	reply, err := a.delivery.DeliverAssistantReply(ctx, userID, text)
	stopComposing()
	if err != nil {
		metrics.AssistantReplies.WithLabelValues("error").Inc()
		logger.Log.Error("assistant reply not persisted", zap.String("member_id", userID), zap.Error(err))
		return
	}

	metrics.AssistantReplies.WithLabelValues(result).Inc()
	logger.Log.Debug("assistant replied",
		zap.String("member_id", userID),
		zap.String("message_id", reply.ID),
		zap.String("result", result))
}

// compose 回傳文字與結果分類 (ok, command, fallback, timeout)
func (a *AssistantResponder) compose(ctx context.Context, userID string, msg *domain.Message) (string, string) {
	if msg.Kind != domain.KindText {
		return attachmentReply, "command"
	}

	prompt := msg.Text
	var history []assistant.Turn

	if cmd, ok := assistant.ParseCommand(msg.Text); ok {
		plan := assistant.PlanCommand(cmd)
		if plan.WithoutModel {
			return plan.Reply, "command"
		}
		prompt = plan.Prompt
		if plan.NeedsChats {
			digests, err := a.digests(ctx, userID)
			if err != nil {
				logger.Log.Warn("load conversations for summary failed", zap.String("member_id", userID), zap.Error(err))
			}
			prompt = assistant.SummarizePrompt(digests)
			if prompt == "" {
				return assistant.NoChatsReply, "command"
			}
		}
	} else {
		history = a.history(ctx, userID, msg.ID)
	}

	cctx, cancel := context.WithTimeout(ctx, a.opts.Timeout)
	defer cancel()

	text, err := a.responder.Complete(cctx, prompt, history)
	if err != nil {
		result := "fallback"
		if errors.Is(err, context.DeadlineExceeded) {
			result = "timeout"
		}
		logger.Log.Warn("assistant responder failed", zap.String("member_id", userID), zap.String("result", result), zap.Error(err))
		return assistant.FallbackText(err), result
	}
	return text, "ok"
}

// history 對話最後 N 則, 不含目前這則
func (a *AssistantResponder) history(ctx context.Context, userID, currentID string) []assistant.Turn {
	assistantID := a.delivery.AssistantID()
	msgs, err := a.delivery.RecentMessages(ctx, userID, assistantID, a.opts.ContextLimit+1)
	if err != nil {
		logger.Log.Warn("load assistant history failed", zap.String("member_id", userID), zap.Error(err))
		return nil
	}

	turns := make([]assistant.Turn, 0, len(msgs))
	for _, m := range msgs {
		if m.ID == currentID || m.Kind != domain.KindText || m.Text == "" {
			continue
		}
		role := assistant.RoleUser
		if m.SenderID == assistantID {
			role = assistant.RoleModel
		}
		turns = append(turns, assistant.Turn{Role: role, Text: m.Text})
	}
	return assistant.TrimHistory(turns, a.opts.ContextLimit)
}

func (a *AssistantResponder) digests(ctx context.Context, userID string) ([]assistant.ChatDigest, error) {
	convs, err := a.delivery.RecentConversations(ctx, userID, summarizeConversations)
	if err != nil {
		return nil, err
	}

	digests := make([]assistant.ChatDigest, 0, len(convs))
	for _, c := range convs {
		peerID := c.Peer(userID)
		peerName := "Unknown"
		if m, err := a.directory.Find(ctx, peerID); err == nil {
			peerName = m.Name
		}

		msgs, err := a.delivery.RecentMessages(ctx, userID, peerID, summarizeMessages)
		if err != nil {
			return nil, err
		}
		d := assistant.ChatDigest{PeerName: peerName}
		for _, m := range msgs {
			if m.Text == "" {
				continue
			}
			sender := peerName
			if m.SenderID == userID {
				sender = "You"
			}
			d.Lines = append(d.Lines, assistant.ChatLine{Sender: sender, Text: m.Text})
		}
		digests = append(digests, d)
	}
	return digests, nil
}
