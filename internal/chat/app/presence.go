package app

import (
	"sort"
	"sync"

	"vach_chat_service/internal/chat/domain"
	"vach_chat_service/pkg/logger"
	"vach_chat_service/pkg/metrics"

	"go.uber.org/zap"
)

// Connection 一條即時連線
type Connection interface {
	ID() string
	Send(resp domain.WSResponse) error
}

// PresenceRegistry identity -> live connection, 一個 identity 只保留最新的連線
type PresenceRegistry struct {
	mu    sync.RWMutex
	conns map[string]Connection
	// 從修改 map 到 roster 送完都持有, 不同 roster 不會交錯送達
	rosterMu sync.Mutex
}

// NewPresenceRegistry init registry
func NewPresenceRegistry() *PresenceRegistry {
	return &PresenceRegistry{conns: make(map[string]Connection)}
}

// Register 取代舊連線並廣播 roster
func (p *PresenceRegistry) Register(memberID string, conn Connection) {
	p.rosterMu.Lock()
	defer p.rosterMu.Unlock()

	p.mu.Lock()
	p.conns[memberID] = conn
	n := len(p.conns)
	p.mu.Unlock()

	metrics.OnlineConnections.Set(float64(n))
	logger.Log.Info("presence register", zap.String("member_id", memberID), zap.String("conn_id", conn.ID()))
	p.broadcastRoster()
}

// Unregister 只有目前登記的是同一條連線才移除, 舊連線晚到的 close 不會踢掉新連線
func (p *PresenceRegistry) Unregister(memberID string, conn Connection) bool {
	p.rosterMu.Lock()
	defer p.rosterMu.Unlock()

	p.mu.Lock()
	cur, ok := p.conns[memberID]
	if !ok || cur.ID() != conn.ID() {
		p.mu.Unlock()
		return false
	}
	delete(p.conns, memberID)
	n := len(p.conns)
	p.mu.Unlock()

	metrics.OnlineConnections.Set(float64(n))
	logger.Log.Info("presence unregister", zap.String("member_id", memberID), zap.String("conn_id", conn.ID()))
	p.broadcastRoster()
	return true
}

// Lookup live connection of member
func (p *PresenceRegistry) Lookup(memberID string) (Connection, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	conn, ok := p.conns[memberID]
	return conn, ok
}

// IsOnline member has a live connection
func (p *PresenceRegistry) IsOnline(memberID string) bool {
	_, ok := p.Lookup(memberID)
	return ok
}

// Online sorted snapshot of online identities
func (p *PresenceRegistry) Online() []string {
	p.mu.RLock()
	ids := make([]string, 0, len(p.conns))
	for id := range p.conns {
		ids = append(ids, id)
	}
	p.mu.RUnlock()

	sort.Strings(ids)
	return ids
}

// Push 送給 member, 不在線直接略過; 寫入失敗只記錄不回傳
func (p *PresenceRegistry) Push(memberID string, resp domain.WSResponse) bool {
	conn, ok := p.Lookup(memberID)
	if !ok {
		return false
	}
	if err := conn.Send(resp); err != nil {
		metrics.PushFailures.WithLabelValues(resp.Action).Inc()
		logger.Log.Warn("push failed",
			zap.String("member_id", memberID),
			zap.String("action", resp.Action),
			zap.Error(err))
		return false
	}
	return true
}

// broadcastRoster caller must hold rosterMu
func (p *PresenceRegistry) broadcastRoster() {
	p.mu.RLock()
	ids := make([]string, 0, len(p.conns))
	targets := make(map[string]Connection, len(p.conns))
	for id, conn := range p.conns {
		ids = append(ids, id)
		targets[id] = conn
	}
	p.mu.RUnlock()

	sort.Strings(ids)
	resp := domain.OnlineRosterEvent(ids)
	for id, conn := range targets {
		if err := conn.Send(resp); err != nil {
			metrics.PushFailures.WithLabelValues(resp.Action).Inc()
			logger.Log.Debug("roster push failed", zap.String("member_id", id), zap.Error(err))
		}
	}
}
