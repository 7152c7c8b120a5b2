// Package ws serves the streaming chat relay over WebSocket.
package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/liliang-cn/chatrelay/internal/config"
	"github.com/liliang-cn/chatrelay/internal/metrics"
	"github.com/liliang-cn/chatrelay/internal/service"
)

// Handler upgrades requests to WebSocket and feeds inbound frames to the
// chat service
type Handler struct {
	chatService *service.ChatService
	cfg         config.WSConfig
	upgrader    websocket.Upgrader
	logger      *zap.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(chatService *service.ChatService, cfg config.WSConfig, allowOrigins []string, logger *zap.Logger) *Handler {
	return &Handler{
		chatService: chatService,
		cfg:         cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin(allowOrigins),
		},
		logger: logger,
	}
}

// RegisterRoutes registers the WebSocket route
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/ws", h.Serve)
}

// Serve runs one connection. Frames are read and answered strictly one after
// another, so a connection never has two model calls in flight.
func (h *Handler) Serve(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("Failed to upgrade WebSocket", zap.Error(err))
		return
	}
	defer conn.Close()

	log := h.logger.With(zap.String("conn_id", uuid.New().String()))
	log.Info("WebSocket connected", zap.String("remote_addr", c.ClientIP()))

	metrics.ActiveConnections.Inc()
	defer metrics.ActiveConnections.Dec()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	if h.cfg.ReadLimit > 0 {
		conn.SetReadLimit(h.cfg.ReadLimit)
	}
	if h.cfg.PingInterval > 0 {
		go h.keepAlive(ctx, conn, log)
	}

	conv := h.chatService.NewConversation(&frameConn{conn: conn, writeTimeout: h.cfg.WriteTimeout}, log)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				log.Warn("WebSocket error", zap.Error(err))
			} else {
				log.Info("WebSocket disconnected")
			}
			return
		}

		if err := conv.HandleFrame(ctx, data); err != nil {
			// the client is gone; nothing more can be sent
			return
		}
	}
}

// keepAlive pings the peer until ctx ends. WriteControl may run concurrently
// with the reader's data writes.
func (h *Handler) keepAlive(ctx context.Context, conn *websocket.Conn, log *zap.Logger) {
	ticker := time.NewTicker(h.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// a zero deadline means no deadline
			var deadline time.Time
			if h.cfg.WriteTimeout > 0 {
				deadline = time.Now().Add(h.cfg.WriteTimeout)
			}
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				log.Debug("Ping failed", zap.Error(err))
				conn.Close()
				return
			}
		}
	}
}

// frameConn writes JSON text frames with a per-frame deadline
type frameConn struct {
	conn         *websocket.Conn
	writeTimeout time.Duration
}

func (f *frameConn) WriteJSON(v any) error {
	if f.writeTimeout > 0 {
		if err := f.conn.SetWriteDeadline(time.Now().Add(f.writeTimeout)); err != nil {
			return err
		}
	}
	return f.conn.WriteJSON(v)
}

func checkOrigin(allowOrigins []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowOrigins {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}
