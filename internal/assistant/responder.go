package assistant

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Role of a history turn
type Role string

const (
	// RoleUser message written by the human
	RoleUser Role = "user"
	// RoleModel message written by the assistant
	RoleModel Role = "model"
)

// Turn one message of the conversation history
type Turn struct {
	Role Role
	Text string
}

// Responder produces the assistant reply for a prompt and its prior history
type Responder interface {
	Complete(ctx context.Context, prompt string, history []Turn) (string, error)
}

var (
	// ErrNotConfigured no api key
	ErrNotConfigured = errors.New("assistant: api key not configured")
	// ErrAPIKey key rejected by the provider
	ErrAPIKey = errors.New("assistant: api key invalid")
	// ErrQuota provider rate limit or quota
	ErrQuota = errors.New("assistant: quota exceeded")
	// ErrSafety blocked by provider safety filters
	ErrSafety = errors.New("assistant: blocked by safety filters")
	// ErrEmptyReply provider returned no text
	ErrEmptyReply = errors.New("assistant: empty reply")
)

const (
	apologyGeneric = "Sorry, I encountered an error processing your message. Please try again! 🤔"
	apologyQuota   = "I'm getting too many requests right now. Please wait a moment and try again. ⏳"
	apologySafety  = "I can't respond to that message due to safety guidelines. Let's talk about something else! 😊"
	apologyAPIKey  = "Sorry, I'm having trouble connecting to my AI service. Please contact support. 🔧"
)

// FallbackText apology shown to the user when the responder fails or times out
func FallbackText(err error) string {
	switch {
	case errors.Is(err, ErrQuota):
		return apologyQuota
	case errors.Is(err, ErrSafety):
		return apologySafety
	case errors.Is(err, ErrAPIKey), errors.Is(err, ErrNotConfigured):
		return apologyAPIKey
	default:
		return apologyGeneric
	}
}

// TrimHistory keep the last limit turns, the history must start with a user turn
func TrimHistory(history []Turn, limit int) []Turn {
	if limit > 0 && len(history) > limit {
		history = history[len(history)-limit:]
	}
	for len(history) > 0 && history[0].Role == RoleModel {
		history = history[1:]
	}
	return history
}

// TypingDelay ~50 words per minute, clamped to 500ms..3s
func TypingDelay(text string) time.Duration {
	words := len(strings.Split(text, " "))
	d := time.Duration(float64(words) / 50 * float64(time.Minute))
	if d < 500*time.Millisecond {
		return 500 * time.Millisecond
	}
	if d > 3*time.Second {
		return 3 * time.Second
	}
	return d
}
