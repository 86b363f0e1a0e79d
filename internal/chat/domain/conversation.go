package domain

import (
	"sort"
	"time"
)

// Conversation 兩人之間唯一的對話
type Conversation struct {
	ID           string         `bson:"_id" json:"_id"`
	Participants []string       `bson:"participants" json:"participants"`
	PairKey      string         `bson:"pair_key" json:"-"`
	Messages     []string       `bson:"messages" json:"messages"`
	UnreadCount  map[string]int `bson:"unread_count" json:"unreadCount"`
	LastMessage  string         `bson:"last_message,omitempty" json:"lastMessage,omitempty"`
	CreatedAt    time.Time      `bson:"created_at" json:"createdAt"`
	UpdatedAt    time.Time      `bson:"updated_at" json:"updatedAt"`
}

// PairKey order independent key of two participants
func PairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "|" + b
}

// SortedPair participants in key order
func SortedPair(a, b string) []string {
	p := []string{a, b}
	sort.Strings(p)
	return p
}

// Unread count of member, never negative
func (c *Conversation) Unread(memberID string) int {
	if c == nil || c.UnreadCount[memberID] < 0 {
		return 0
	}
	return c.UnreadCount[memberID]
}

// Peer the other participant
func (c *Conversation) Peer(memberID string) string {
	for _, p := range c.Participants {
		if p != memberID {
			return p
		}
	}
	return ""
}

// PeerSummary sidebar row
type PeerSummary struct {
	MemberID    string    `json:"_id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	ProfilePic  string    `json:"profilePic"`
	About       string    `json:"about"`
	IsAssistant bool      `json:"isAI"`
	IsOnline    bool      `json:"isOnline"`
	UnreadCount int       `json:"unreadCount"`
	LastMessage *Message  `json:"lastMessage,omitempty"`
	LastActive  time.Time `json:"-"`
}
