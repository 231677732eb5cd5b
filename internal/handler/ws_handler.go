package handler

import (
	"net/http"

	"pmdesk/internal/middleware"
	"pmdesk/internal/realtime"
	"pmdesk/pkg/response"
)

// WebSocketHandler attaches authenticated clients to the change feed.
type WebSocketHandler struct {
	hub *realtime.Hub
}

func NewWebSocketHandler(hub *realtime.Hub) *WebSocketHandler {
	return &WebSocketHandler{hub: hub}
}

func (h *WebSocketHandler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	if userID == "" {
		response.Unauthorized(w, "Missing authentication token")
		return
	}
	h.hub.ServeWS(w, r, userID)
}
