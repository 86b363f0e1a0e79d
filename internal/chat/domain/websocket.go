package domain

// Action websocket frame action
type Action string

const (
	// ActionNewMessage server push, a message was persisted
	ActionNewMessage Action = "newMessage"
	// ActionMessageStatusChanged server push, status advanced
	ActionMessageStatusChanged Action = "messageStatusChanged"
	// ActionUnreadCountChanged server push, unread count towards a peer
	ActionUnreadCountChanged Action = "unreadCountChanged"
	// ActionMessagesReadBy server push, the peer read our messages
	ActionMessagesReadBy Action = "messagesReadBy"
	// ActionOnlineRoster server push, online identities
	ActionOnlineRoster Action = "onlineRoster"
	// ActionTypingFrom server push, peer typing state
	ActionTypingFrom Action = "typingFrom"
	// ActionAssistantComposing server push, assistant reply in progress
	ActionAssistantComposing Action = "assistantComposing"
	// ActionError server push, bad client frame
	ActionError Action = "error"

	// ActionTyping client frame
	ActionTyping Action = "typing"
)

// WSRequest websocket Request
type WSRequest struct {
	Action   string `json:"action"`
	PeerID   string `json:"peer_id"`
	IsTyping bool   `json:"is_typing"`
}

// WSResponse websocket Response
type WSResponse struct {
	Action  string                 `json:"action"`
	Success bool                   `json:"success"`
	Payload map[string]interface{} `json:"payload,omitempty"`
	Error   string                 `json:"error,omitempty"`
}

func event(action Action, payload map[string]interface{}) WSResponse {
	return WSResponse{Action: string(action), Success: true, Payload: payload}
}

// NewMessageEvent newMessage
func NewMessageEvent(m *Message) WSResponse {
	return event(ActionNewMessage, map[string]interface{}{"message": m})
}

// StatusChangedEvent messageStatusChanged
func StatusChangedEvent(messageID string, status Status) WSResponse {
	return event(ActionMessageStatusChanged, map[string]interface{}{"messageId": messageID, "status": status})
}

// UnreadCountEvent unreadCountChanged, peerID is the other side of the conversation
func UnreadCountEvent(peerID string, count int) WSResponse {
	return event(ActionUnreadCountChanged, map[string]interface{}{"peerId": peerID, "count": count})
}

// MessagesReadByEvent messagesReadBy
func MessagesReadByEvent(readerID string) WSResponse {
	return event(ActionMessagesReadBy, map[string]interface{}{"readerId": readerID})
}

// OnlineRosterEvent onlineRoster
func OnlineRosterEvent(ids []string) WSResponse {
	return event(ActionOnlineRoster, map[string]interface{}{"online": ids})
}

// TypingFromEvent typingFrom
func TypingFromEvent(peerID string, isTyping bool) WSResponse {
	return event(ActionTypingFrom, map[string]interface{}{"peerId": peerID, "isTyping": isTyping})
}

// AssistantComposingEvent assistantComposing
func AssistantComposingEvent(assistantID string, composing bool) WSResponse {
	return event(ActionAssistantComposing, map[string]interface{}{"peerId": assistantID, "isComposing": composing})
}

// ErrorEvent error frame
func ErrorEvent(msg string) WSResponse {
	return WSResponse{Action: string(ActionError), Payload: map[string]interface{}{"error": msg}, Error: msg}
}
