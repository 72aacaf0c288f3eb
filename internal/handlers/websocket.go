package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/thereayou/streamhub/internal/middleware"
	ws "github.com/thereayou/streamhub/internal/websocket"
)

// WebSocketHandler upgrades authenticated requests and starts the client pumps.
type WebSocketHandler struct {
	baseCtx  context.Context
	hub      *ws.Hub
	handler  ws.ClientMessageHandler
	upgrader websocket.Upgrader
	log      *zap.Logger
}

// NewWebSocketHandler ties connection lifetimes to baseCtx rather than to the
// upgrade request, which ends as soon as the handshake completes.
func NewWebSocketHandler(baseCtx context.Context, hub *ws.Hub, handler ws.ClientMessageHandler, allowedOrigins []string, log *zap.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		baseCtx: baseCtx,
		hub:     hub,
		handler: handler,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		log: log,
	}
}

func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	userID := middleware.UserID(c)

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	client := ws.NewClient(h.hub, conn, userID)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump(h.baseCtx, h.handler)
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 || lo.Contains(allowed, "*") {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || lo.Contains(allowed, origin)
	}
}
