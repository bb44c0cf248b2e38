package handler

import (
	"log"
	"net/http"

	"core/internal/activity"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// ActivityHandler upgrades clients onto the live activity feed
type ActivityHandler struct {
	hub      *activity.Hub
	upgrader websocket.Upgrader
}

// NewActivityHandler creates a new activity feed handler. allowedOrigin "*"
// accepts any origin; anything else must match the request's Origin header.
func NewActivityHandler(hub *activity.Hub, allowedOrigin string) *ActivityHandler {
	return &ActivityHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if allowedOrigin == "*" {
					return true
				}
				return r.Header.Get("Origin") == allowedOrigin
			},
		},
	}
}

// Feed handles GET /ws/activity
func (h *ActivityHandler) Feed(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Activity feed upgrade failed: %v", err)
		return
	}
	h.hub.Serve(conn)
}
