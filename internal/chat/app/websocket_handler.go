package app

import (
	"context"
	"encoding/json"
	"time"

	"vach_chat_service/internal/chat/domain"
	"vach_chat_service/pkg/logger"
	"vach_chat_service/pkg/middlewares"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// WebsocketOptions keepalive and typing limits
type WebsocketOptions struct {
	PingInterval time.Duration
	PongWait     time.Duration
	WriteWait    time.Duration
	TypingPerSec float64
	TypingBurst  int
}

// ChatWebsocketHandler 每個連線: 登記 presence, keepalive, 轉發 typing
type ChatWebsocketHandler struct {
	presence *PresenceRegistry
	typing   *TypingRelay
	opts     WebsocketOptions
}

// NewChatWebsocketHandler create ChatWebsocketHandler
func NewChatWebsocketHandler(presence *PresenceRegistry, typing *TypingRelay, opts WebsocketOptions) *ChatWebsocketHandler {
	if opts.PingInterval <= 0 {
		opts.PingInterval = 30 * time.Second
	}
	if opts.PongWait <= opts.PingInterval {
		opts.PongWait = opts.PingInterval * 2
	}
	if opts.WriteWait <= 0 {
		opts.WriteWait = 10 * time.Second
	}
	if opts.TypingPerSec <= 0 {
		opts.TypingPerSec = 5
	}
	if opts.TypingBurst <= 0 {
		opts.TypingBurst = 10
	}
	return &ChatWebsocketHandler{presence: presence, typing: typing, opts: opts}
}

// HandleConnection 是 WebSocket 連線的進入點
func (h *ChatWebsocketHandler) HandleConnection(ctx context.Context, conn *websocket.Conn) {
	memberID, _ := conn.Locals(middlewares.TokenMemberID).(string)
	wsc := newWSConnection(conn, h.opts.WriteWait)
	if memberID == "" {
		_ = wsc.Send(domain.ErrorEvent("unauthorized"))
		conn.Close()
		return
	}

	ctxClose, cancel := context.WithCancel(ctx)
	ticker := time.NewTicker(h.opts.PingInterval)
	// 最後一次回報 typing=true 的對象, 斷線時補送 false
	typingTo := map[string]bool{}

	h.presence.Register(memberID, wsc)
	logger.Log.Info("websocket open", zap.String("member_id", memberID), zap.String("conn_id", wsc.ID()))

	defer func() {
		ticker.Stop()
		cancel()
		for peerID := range typingTo {
			h.typing.Relay(memberID, peerID, false)
		}
		h.presence.Unregister(memberID, wsc)
		conn.Close()
		logger.Log.Info("websocket close", zap.String("member_id", memberID), zap.String("conn_id", wsc.ID()))
	}()

	_ = conn.SetReadDeadline(time.Now().Add(h.opts.PongWait))
	//server發出ping之後client連線正常會回pong
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.opts.PongWait))
	})

	// 定期發送 Ping
	go func() {
		for {
			select {
			case <-ticker.C:
				if err := wsc.ping(); err != nil {
					logger.Log.Debug("ping failed", zap.String("member_id", memberID), zap.Error(err))
					return
				}
			case <-ctxClose.Done():
				return
			}
		}
	}()

	limiter := rate.NewLimiter(rate.Limit(h.opts.TypingPerSec), h.opts.TypingBurst)
	for {
		mt, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				logger.Log.Debug("connection closed", zap.String("member_id", memberID))
			} else {
				//直接斷線 1006 或 pong 逾時
				logger.Log.Warn("websocket read error", zap.String("member_id", memberID), zap.Error(err))
			}
			return
		}
		if mt != websocket.TextMessage {
			_ = wsc.Send(domain.ErrorEvent("unsupported message type"))
			continue
		}
		h.textMessageAction(wsc, memberID, message, limiter, typingTo)
	}
}

func (h *ChatWebsocketHandler) textMessageAction(wsc *wsConnection, memberID string, msg []byte, limiter *rate.Limiter, typingTo map[string]bool) {
	var req domain.WSRequest
	if err := json.Unmarshal(msg, &req); err != nil {
		_ = wsc.Send(domain.ErrorEvent("invalid frame"))
		return
	}

	switch domain.Action(req.Action) {
	case domain.ActionTyping:
		if req.PeerID == "" || req.PeerID == memberID {
			_ = wsc.Send(domain.ErrorEvent("peer_id required"))
			return
		}
		// 超過頻率直接丟棄, 停止訊號一律放行
		if req.IsTyping && !limiter.Allow() {
			logger.Log.Debug("typing dropped by limiter", zap.String("member_id", memberID))
			return
		}
		if req.IsTyping {
			typingTo[req.PeerID] = true
		} else {
			delete(typingTo, req.PeerID)
		}
		h.typing.Relay(memberID, req.PeerID, req.IsTyping)

	default:
		_ = wsc.Send(domain.ErrorEvent("unknown action"))
	}
}
