package app

import (
	"context"
	"sort"
	"strings"
	"sync"

	"vach_chat_service/internal/chat/domain"
	memberdomain "vach_chat_service/internal/member/domain"

	"github.com/google/uuid"
)

// memStore in-memory conversation + message store for scenario tests
type memStore struct {
	mu    sync.Mutex
	convs map[string]*domain.Conversation
	msgs  map[string]*domain.Message
}

func newMemStore() *memStore {
	return &memStore{
		convs: map[string]*domain.Conversation{},
		msgs:  map[string]*domain.Message{},
	}
}

func (s *memStore) EnsureIndexes(context.Context) error { return nil }

func (s *memStore) FindOrCreate(_ context.Context, a, b string) (*domain.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := domain.PairKey(a, b)
	c, ok := s.convs[key]
	if !ok {
		c = &domain.Conversation{
			ID:           uuid.New().String(),
			Participants: domain.SortedPair(a, b),
			PairKey:      key,
			Messages:     []string{},
			UnreadCount:  map[string]int{},
		}
		s.convs[key] = c
	}
	cp := *c
	return &cp, nil
}

func (s *memStore) AppendMessage(_ context.Context, conversationID string, msg *domain.Message) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.convs {
		if c.ID == conversationID {
			c.Messages = append(c.Messages, msg.ID)
			c.LastMessage = msg.ID
			c.UpdatedAt = msg.CreatedAt
			c.UnreadCount[msg.ReceiverID]++
			return c.UnreadCount[msg.ReceiverID], nil
		}
	}
	return 0, domain.ErrConversationNotFound
}

func (s *memStore) ResetUnread(_ context.Context, a, b, memberID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.convs[domain.PairKey(a, b)]; ok {
		c.UnreadCount[memberID] = 0
	}
	return nil
}

func (s *memStore) FindByPair(_ context.Context, a, b string) (*domain.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.convs[domain.PairKey(a, b)]
	if !ok {
		return nil, domain.ErrConversationNotFound
	}
	cp := *c
	cp.Messages = append([]string{}, c.Messages...)
	return &cp, nil
}

func (s *memStore) ListByMember(_ context.Context, memberID string, _ int64) ([]domain.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.Conversation{}
	for _, c := range s.convs {
		if c.Participants[0] == memberID || c.Participants[1] == memberID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (s *memStore) unread(a, b, memberID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.convs[domain.PairKey(a, b)]; ok {
		return c.UnreadCount[memberID]
	}
	return 0
}

// messages side

type memMessages struct {
	s *memStore
}

func (m memMessages) EnsureIndexes(context.Context) error { return nil }

func (m memMessages) Insert(_ context.Context, msg *domain.Message) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	cp := *msg
	m.s.msgs[msg.ID] = &cp
	return nil
}

func (m memMessages) AdvanceStatus(_ context.Context, id string, next domain.Status) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	msg, ok := m.s.msgs[id]
	if !ok || !msg.Status.CanAdvanceTo(next) {
		return false, nil
	}
	msg.Status = next
	return true, nil
}

func (m memMessages) MarkRead(_ context.Context, senderID, receiverID string) (int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var n int64
	for _, msg := range m.s.msgs {
		if msg.SenderID == senderID && msg.ReceiverID == receiverID && msg.Status != domain.StatusRead {
			msg.Status = domain.StatusRead
			n++
		}
	}
	return n, nil
}

func (m memMessages) FindByIDs(_ context.Context, ids []string) ([]domain.Message, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	out := []domain.Message{}
	for _, id := range ids {
		if msg, ok := m.s.msgs[id]; ok {
			out = append(out, *msg)
		}
	}
	return out, nil
}

func (m memMessages) status(id string) domain.Status {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if msg, ok := m.s.msgs[id]; ok {
		return msg.Status
	}
	return ""
}

// memDirectory fixed member list
type memDirectory struct {
	members map[string]memberdomain.Member
}

func newMemDirectory(members ...memberdomain.Member) *memDirectory {
	d := &memDirectory{members: map[string]memberdomain.Member{}}
	for _, m := range members {
		d.members[m.MemberID] = m
	}
	return d
}

func (d *memDirectory) Exists(_ context.Context, id string) (bool, error) {
	_, ok := d.members[id]
	return ok, nil
}

func (d *memDirectory) Find(_ context.Context, id string) (*memberdomain.Member, error) {
	m, ok := d.members[id]
	if !ok {
		return nil, memberdomain.ErrMemberNotFound
	}
	return &m, nil
}

func (d *memDirectory) List(_ context.Context, q memberdomain.MemberListQuery) ([]memberdomain.Member, error) {
	out := []memberdomain.Member{}
	for _, m := range d.members {
		if m.MemberID == q.ExcludeMemberID {
			continue
		}
		if q.Keyword != "" && !strings.Contains(strings.ToLower(m.Name), strings.ToLower(q.Keyword)) {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
