package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"wyn/config"
	"wyn/internal/auth"
	"wyn/internal/service"
	"wyn/internal/ws"
)

const (
	chatWriteWait  = 10 * time.Second
	chatPongWait   = 60 * time.Second
	chatPingPeriod = (chatPongWait * 9) / 10
)

var chatUpgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// UpgradeChatWS upgrades a request conversation to WebSocket. Query params:
// token, request_id. Only the two participants may join; messages received
// over the socket go through the same chat service as the HTTP path.
func UpgradeChatWS(cfg *config.JWTConfig, hub *ws.Hub, chat *service.ChatService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		requestIDStr := c.Query("request_id")
		if token == "" || requestIDStr == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "token and request_id required"})
			return
		}
		claims, err := auth.ParseAccessToken(cfg, token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		id64, err := strconv.ParseUint(requestIDStr, 10, 64)
		if err != nil || id64 == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request_id"})
			return
		}
		requestID := uint(id64)
		principal := service.Principal{
			ID:         claims.PrincipalID,
			Type:       claims.PrincipalType,
			Email:      claims.Email,
			AdminClaim: claims.IsAdmin,
		}
		// Participant gate before the upgrade; ListMessages also marks the
		// backlog read for this principal.
		if _, err := chat.ListMessages(c.Request.Context(), principal, requestID); err != nil {
			fail(c, err)
			return
		}

		conn, err := chatUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		client := &ws.Client{
			PrincipalID:   principal.ID,
			PrincipalType: principal.Type,
			Send:          make(chan []byte, 256),
		}
		room := hub.GetOrCreateRoom(requestID)
		room.Join(client)
		defer func() {
			room.Leave(client)
			client.Close()
		}()

		conn.SetReadDeadline(time.Now().Add(chatPongWait))
		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(chatPongWait))
			return nil
		})
		go func() {
			ticker := time.NewTicker(chatPingPeriod)
			defer ticker.Stop()
			for {
				select {
				case msg, ok := <-client.Send:
					if !ok {
						return
					}
					conn.SetWriteDeadline(time.Now().Add(chatWriteWait))
					if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
						return
					}
				case <-ticker.C:
					conn.SetWriteDeadline(time.Now().Add(chatWriteWait))
					if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
						return
					}
				}
			}
		}()
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				break
			}
			var msg struct {
				Type    string `json:"type"`
				Content string `json:"content"`
			}
			if json.Unmarshal(raw, &msg) != nil || msg.Type != "message" {
				continue
			}
			// SendMessage persists, notifies and publishes to the room
			// (including back to this connection's peers).
			if _, err := chat.SendMessage(c.Request.Context(), principal, requestID, msg.Content); err != nil {
				continue
			}
		}
	}
}
