package websocket

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"pixel-editor/internal/hub"
	"pixel-editor/internal/middleware"
)

// WebSocketHandler 负责升级连接并为每个连接创建独立的编辑会话
type WebSocketHandler struct {
	upgrader websocket.Upgrader
	hub      *hub.Hub
}

// NewWebSocketHandler 创建 WebSocketHandler 实例。
// allowedOrigin 为空时接受任意来源。
func NewWebSocketHandler(h *hub.Hub, allowedOrigin string) *WebSocketHandler {
	if h == nil {
		panic("Hub cannot be nil for WebSocketHandler")
	}
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if allowedOrigin == "" {
				return true
			}
			origin := r.Header.Get("Origin")
			return origin == "" || origin == allowedOrigin
		},
	}
	return &WebSocketHandler{upgrader: upgrader, hub: h}
}

// HandleConnection 处理 GET /ws/editor
func (h *WebSocketHandler) HandleConnection(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		logrus.Warn("WS Handler: User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	logCtx := logrus.WithField("user_id", userID)

	// 升级前创建会话，配置错误时仍能返回 HTTP 错误
	session, err := h.hub.NewSession()
	if err != nil {
		logCtx.WithError(err).Error("WS Handler: Failed to create editor session")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create editor session"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade 已写出 HTTP 错误响应
		logCtx.WithError(err).Error("WS Handler: Failed to upgrade connection")
		return
	}

	client := hub.NewClient(h.hub, conn, userID, session)
	logCtx = logCtx.WithField("session_id", client.ID())
	if !h.hub.QueueMessage(hub.HubMessage{Type: "register", Client: client}) {
		logCtx.Error("WS Handler: Hub message channel full, failed to register client")
		client.CloseConn()
		return
	}
	client.Run()
	logCtx.Info("WS Handler: Editor session started")
}
