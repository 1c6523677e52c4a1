package hub

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"pixel-editor/internal/editor"
)

// Client 代表一个 WebSocket 连接及其私有的编辑会话。
// 会话只在 ReadPump 所在的 goroutine 中被访问。
type Client struct {
	id         string
	hub        *Hub
	conn       *websocket.Conn
	userID     uint
	session    *editor.Session
	send       chan []byte
	lastActive atomic.Int64 // UnixNano
	closed     atomic.Bool
	closeOnce  sync.Once
}

// NewClient 创建一个新的 Client 实例
func NewClient(hub *Hub, conn *websocket.Conn, userID uint, session *editor.Session) *Client {
	c := &Client{
		id:      hub.nextClientID(),
		hub:     hub,
		conn:    conn,
		userID:  userID,
		session: session,
		send:    make(chan []byte, 256),
	}
	c.touch(time.Now())
	return c
}

// Run 启动客户端的读写 goroutine
func (c *Client) Run() {
	go c.WritePump()
	go c.ReadPump()
}

func (c *Client) logCtx() *logrus.Entry {
	return logrus.WithFields(logrus.Fields{"session_id": c.id, "user_id": c.userID})
}

// ReadPump 读取命令并在本 goroutine 中串行执行，回复写入 send 通道。
func (c *Client) ReadPump() {
	defer c.leave()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	// 新连接先收到选中图层的缓存和工具状态
	if replies, err := cacheAndState(c.session); err == nil {
		for _, reply := range replies {
			c.Send(reply)
		}
	}

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logCtx().WithError(err).Warn("WebSocket read error (unexpected close)")
			} else {
				c.logCtx().Debug("WebSocket connection closed normally or read error")
			}
			return
		}
		if messageType != websocket.TextMessage {
			c.logCtx().Debugf("Received non-text message type: %d", messageType)
			continue
		}
		c.touch(time.Now())

		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		replies := c.hub.dispatcher.Handle(ctx, c.userID, c.session, message)
		cancel()
		for _, reply := range replies {
			c.Send(reply)
		}
	}
}

// leave 关闭连接并注销客户端。Hub 队列不可用时直接注销，避免客户端残留在 Hub 中。
func (c *Client) leave() {
	c.CloseConn()
	if !c.hub.QueueMessage(HubMessage{Type: "unregister", Client: c}) {
		c.logCtx().Warn("Failed to queue unregister message to Hub, unregistering directly")
		c.hub.unregisterClient(c)
	}
	c.logCtx().Info("readPump exited, unregistered client")
}

// Send 序列化回复并放入发送队列，队列满时丢弃
func (c *Client) Send(reply interface{}) {
	data, err := json.Marshal(reply)
	if err != nil {
		c.logCtx().WithError(err).Error("Failed to marshal reply")
		return
	}
	select {
	case c.send <- data:
	default:
		c.logCtx().Warn("Client send channel full, dropping reply")
	}
}

// WritePump 将 send 通道中的消息写入连接，并定期发送 Ping。
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.CloseConn()
		c.logCtx().Info("writePump exited")
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub 已注销该客户端
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logCtx().WithError(err).Warn("Failed to write message to websocket")
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logCtx().WithError(err).Warn("Failed to send ping message")
				return
			}
		}
	}
}

func (c *Client) touch(t time.Time) { c.lastActive.Store(t.UnixNano()) }

// LastActive 返回最后一次收到命令的时间
func (c *Client) LastActive() time.Time { return time.Unix(0, c.lastActive.Load()) }

func (c *Client) ID() string { return c.id }
func (c *Client) UserID() uint { return c.userID }

// CloseConn 关闭底层连接，可重复调用
func (c *Client) CloseConn() {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		if c.conn != nil {
			_ = c.conn.Close()
		}
	})
}
