package ws

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"dronemarket_backend/internal/logger"
	"dronemarket_backend/pkg/apperrors"
	"dronemarket_backend/pkg/contextkeys"
)

func (h *Hub) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || h.allowedOrigins[origin]
		},
	}
}

// ServeWS - GET /ws; userID кладет AuthMiddleware
func (h *Hub) ServeWS(c *gin.Context) {
	userID := c.GetString(contextkeys.UserIDKey)
	if userID == "" {
		apperrors.HandleError(c, apperrors.NewUnauthorizedError("User not authenticated"))
		return
	}

	conn, err := h.upgrader().Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade уже ответил клиенту
		logger.CtxWarn(c.Request.Context(), "ws upgrade failed", "error", err)
		return
	}

	client := newClient(h, userID, conn)
	if !h.join(client) {
		_ = conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}
