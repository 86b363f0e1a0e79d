package app

import "vach_chat_service/internal/chat/domain"

// TypingRelay 不落地, 對方不在線就丟掉
type TypingRelay struct {
	presence *PresenceRegistry
}

// NewTypingRelay init relay
func NewTypingRelay(presence *PresenceRegistry) *TypingRelay {
	return &TypingRelay{presence: presence}
}

// Relay forward typing state of from to to
func (t *TypingRelay) Relay(fromID, toID string, isTyping bool) bool {
	if fromID == "" || toID == "" || fromID == toID {
		return false
	}
	return t.presence.Push(toID, domain.TypingFromEvent(fromID, isTyping))
}
