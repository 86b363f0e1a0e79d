package domain

import (
	"strings"
	"time"
)

// Status delivery status of a message
type Status string

const (
	// StatusSent persisted, receiver offline at send time
	StatusSent Status = "sent"
	// StatusDelivered pushed to a live receiver connection
	StatusDelivered Status = "delivered"
	// StatusRead receiver opened the conversation
	StatusRead Status = "read"
)

var statusRank = map[Status]int{StatusSent: 1, StatusDelivered: 2, StatusRead: 3}

// Valid known status
func (s Status) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// CanAdvanceTo status only moves forward
func (s Status) CanAdvanceTo(next Status) bool {
	return next.Valid() && statusRank[next] > statusRank[s]
}

// PreviousStatuses statuses that may still advance to s
func PreviousStatuses(s Status) []Status {
	prev := []Status{}
	for _, st := range []Status{StatusSent, StatusDelivered, StatusRead} {
		if statusRank[st] < statusRank[s] {
			prev = append(prev, st)
		}
	}
	return prev
}

// Kind message kind
type Kind string

const (
	// KindText plain text
	KindText Kind = "text"
	// KindImage image attachment with optional caption
	KindImage Kind = "image"
	// KindFile document attachment with optional caption
	KindFile Kind = "file"
)

// Attachment stored object of an image / file message
type Attachment struct {
	Kind      Kind   `bson:"kind" json:"kind"`
	URL       string `bson:"url" json:"url"`
	ObjectKey string `bson:"object_key" json:"-"`
	FileName  string `bson:"file_name" json:"fileName"`
	Size      int64  `bson:"size" json:"size"`
	MimeType  string `bson:"mime_type" json:"mimeType"`
}

// Payload content of a message, build with NewTextPayload / NewAttachmentPayload
type Payload struct {
	Kind       Kind
	Text       string
	Attachment *Attachment
}

// NewTextPayload text message
func NewTextPayload(text string) Payload {
	return Payload{Kind: KindText, Text: text}
}

// NewAttachmentPayload image / file message, caption may be empty
func NewAttachmentPayload(att Attachment, caption string) Payload {
	return Payload{Kind: att.Kind, Text: caption, Attachment: &att}
}

// Validate reject empty text and illegal kind / attachment combinations
func (p Payload) Validate() error {
	switch p.Kind {
	case KindText:
		if p.Attachment != nil {
			return ErrInvalidPayload
		}
		if strings.TrimSpace(p.Text) == "" {
			return ErrEmptyMessage
		}
	case KindImage, KindFile:
		if p.Attachment == nil || p.Attachment.URL == "" || p.Attachment.Kind != p.Kind {
			return ErrInvalidPayload
		}
	default:
		return ErrInvalidPayload
	}
	return nil
}

// Message 一則 1:1 訊息
type Message struct {
	ID         string      `bson:"_id" json:"_id"`
	SenderID   string      `bson:"sender_id" json:"senderId"`
	ReceiverID string      `bson:"receiver_id" json:"receiverId"`
	Kind       Kind        `bson:"kind" json:"kind"`
	Text       string      `bson:"text,omitempty" json:"message,omitempty"`
	Attachment *Attachment `bson:"attachment,omitempty" json:"attachment,omitempty"`
	Status     Status      `bson:"status" json:"status"`
	CreatedAt  time.Time   `bson:"created_at" json:"createdAt"`
}

// ReconcileEvent emitted when only one of the two send-path writes succeeded
type ReconcileEvent struct {
	MessageID      string    `json:"message_id"`
	ConversationID string    `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	ReceiverID     string    `json:"receiver_id"`
	MessageStored  bool      `json:"message_stored"`
	AppendStored   bool      `json:"append_stored"`
	Reason         string    `json:"reason"`
	OccurredAt     time.Time `json:"occurred_at"`
}
