package app

import (
	"encoding/json"
	"sync"
	"time"

	"vach_chat_service/internal/chat/domain"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// wsConnection websocket 寫入不可併發, 以 mutex 保護
type wsConnection struct {
	id        string
	conn      *websocket.Conn
	mu        sync.Mutex
	writeWait time.Duration
}

func newWSConnection(conn *websocket.Conn, writeWait time.Duration) *wsConnection {
	return &wsConnection{
		id:        uuid.New().String(),
		conn:      conn,
		writeWait: writeWait,
	}
}

func (c *wsConnection) ID() string {
	return c.id
}

// Send - 發送 JSON 給前端
func (c *wsConnection) Send(resp domain.WSResponse) error {
	b, err := json.Marshal(resp)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, b)
}

func (c *wsConnection) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(c.writeWait))
}
