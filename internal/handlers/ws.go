package handlers

import (
	"log"
	"net/http"

	"github.com/HiroshigeAoki/slack-game-master/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type WSHandler struct {
	hub *ws.Hub
}

func NewWSHandler(hub *ws.Hub) *WSHandler {
	return &WSHandler{hub: hub}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HandleWebSocket godoc
// @Summary      WebSocket connection for game updates
// @Description  Connect via WebSocket to receive real-time game lifecycle events for a channel
// @Tags         websocket
// @Param        channel_id path string true "Slack channel ID"
// @Router       /ws/monitor/{channel_id} [get]
func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	channelID := c.Param("channel_id")
	if channelID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid channel id"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}

	h.hub.AddConnection(channelID, conn)
	defer h.hub.RemoveConnection(channelID, conn)

	for {
		_, _, err := conn.ReadMessage()
		if err != nil {
			break
		}
	}
}
