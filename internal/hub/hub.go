package hub

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"pixel-editor/internal/editor"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096

	// 单条命令 (包括读取图像) 的处理时限
	commandTimeout = 5 * time.Second

	// DefaultIdleTimeout 是会话无命令多久后被清理
	DefaultIdleTimeout = 30 * time.Minute
)

// HubMessage 定义了在 Hub 内部通道传递的消息
type HubMessage struct {
	Type   string // "register", "unregister"
	Client *Client
}

// Hub 维护所有在线的编辑客户端。每个客户端拥有独立的会话，客户端之间不共享状态。
type Hub struct {
	messageChan chan HubMessage
	done        chan struct{}
	stopOnce    sync.Once

	clients   map[*Client]bool
	clientsMu sync.RWMutex
	lastID    atomic.Uint64

	dispatcher  *Dispatcher
	sessionOpts editor.Options
	idleTimeout time.Duration
}

// NewHub 创建并返回一个新的 Hub 实例
func NewHub(dispatcher *Dispatcher, sessionOpts editor.Options, idleTimeout time.Duration) *Hub {
	if dispatcher == nil {
		panic("Dispatcher cannot be nil for Hub")
	}
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}
	return &Hub{
		messageChan: make(chan HubMessage, 512),
		done:        make(chan struct{}),
		clients:     make(map[*Client]bool),
		dispatcher:  dispatcher,
		sessionOpts: sessionOpts,
		idleTimeout: idleTimeout,
	}
}

// NewSession 按 Hub 的配置为新连接创建编辑会话
func (h *Hub) NewSession() (*editor.Session, error) {
	return editor.NewSession(h.sessionOpts)
}

// Run 启动 Hub 的主事件循环，应在单独的 goroutine 中运行。
func (h *Hub) Run() {
	log := logrus.WithField("component", "hub")
	log.Info("Hub is running...")
	for {
		select {
		case msg := <-h.messageChan:
			switch msg.Type {
			case "register":
				h.registerClient(msg.Client)
			case "unregister":
				h.unregisterClient(msg.Client)
			default:
				log.Warnf("Hub: Received unknown message type: %s", msg.Type)
			}
		case <-h.done:
			log.Info("Hub is shutting down...")
			return
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	if client == nil {
		logrus.Error("Hub: Attempted to register a nil client")
		return
	}
	h.clientsMu.Lock()
	if client.closed.Load() {
		// 连接在注册消息处理前已经断开，注销可能已经被跳过
		h.clientsMu.Unlock()
		close(client.send)
		client.logCtx().Info("Client closed before registration, skipped")
		return
	}
	h.clients[client] = true
	total := len(h.clients)
	h.clientsMu.Unlock()

	client.logCtx().WithField("clients", total).Info("Client registered to Hub")
}

func (h *Hub) unregisterClient(client *Client) {
	if client == nil {
		logrus.Error("Hub: Attempted to unregister a nil client")
		return
	}
	h.clientsMu.Lock()
	_, ok := h.clients[client]
	if ok {
		delete(h.clients, client)
		// WritePump 会在通道关闭后退出
		close(client.send)
	}
	h.clientsMu.Unlock()

	if ok {
		client.logCtx().Info("Client unregistered from Hub")
	} else {
		client.logCtx().Warn("Client not found during unregister")
	}
}

// QueueMessage 将消息放入 Hub 的处理队列 (非阻塞)，队列已满或 Hub 已停止时返回 false。
func (h *Hub) QueueMessage(msg HubMessage) bool {
	select {
	case <-h.done:
		return false
	default:
	}
	select {
	case h.messageChan <- msg:
		return true
	default:
		logrus.WithField("message_type", msg.Type).Warn("Hub message channel full, dropping message")
		return false
	}
}

// ClientCount 返回在线客户端数
func (h *Hub) ClientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

// idleClients 返回在 now 之前 idleTimeout 内没有任何命令的客户端
func (h *Hub) idleClients(now time.Time) []*Client {
	cutoff := now.Add(-h.idleTimeout)
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	var idle []*Client
	for c := range h.clients {
		if c.LastActive().Before(cutoff) {
			idle = append(idle, c)
		}
	}
	return idle
}

// SweepIdle 关闭空闲客户端的连接并返回关闭数量。
// 连接关闭后 ReadPump 退出并自行注销。
func (h *Hub) SweepIdle(now time.Time) int {
	idle := h.idleClients(now)
	for _, c := range idle {
		c.logCtx().WithField("last_active", c.LastActive().Format(time.RFC3339)).Info("Closing idle editor session")
		c.CloseConn()
	}
	return len(idle)
}

// Stop 关闭所有连接并停止事件循环
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		h.clientsMu.RLock()
		for c := range h.clients {
			c.CloseConn()
		}
		h.clientsMu.RUnlock()
		close(h.done)
	})
}

func (h *Hub) nextClientID() string {
	return fmt.Sprintf("s-%d", h.lastID.Add(1))
}
