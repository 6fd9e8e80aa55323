package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"doc-chat-go/internal/service"
	"doc-chat-go/pkg/log"
	"doc-chat-go/pkg/token"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ChatHandler owns the WebSocket chat endpoint.
type ChatHandler struct {
	chatService service.ChatService
	jwtManager  *token.JWTManager
}

func NewChatHandler(chatService service.ChatService, jwtManager *token.JWTManager) *ChatHandler {
	return &ChatHandler{chatService: chatService, jwtManager: jwtManager}
}

// Handle upgrades GET /api/ws/chat/:id and serves turns until the client
// hangs up. Authentication rides in the "token" query parameter because
// browser WebSocket clients cannot set headers; it is optional, anonymous
// conversations work without it.
func (h *ChatHandler) Handle(c *gin.Context) {
	conversationID, ok := conversationParam(c)
	if !ok {
		return
	}

	var principalID *uint
	if tokenString := c.Query("token"); tokenString != "" {
		claims, err := h.jwtManager.VerifyToken(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "message": "invalid token"})
			return
		}
		principalID = &claims.UserID
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Errorf("websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	log.Infof("websocket connected, conversation: %d", conversationID)

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			log.Warnf("websocket read failed: %v", err)
			break
		}

		err = h.chatService.StreamTurn(c.Request.Context(), principalID, conversationID, string(message), conn)
		if err != nil {
			log.Errorf("chat turn failed for conversation %d: %v", conversationID, err)
			status := statusFor(err)
			message := err.Error()
			if status == http.StatusInternalServerError {
				message = "internal server error"
			}
			h.writeEvent(conn, gin.H{
				"type":    "error",
				"code":    status,
				"message": message,
			})
			continue
		}

		h.writeEvent(conn, gin.H{
			"type":      "completion",
			"status":    "finished",
			"timestamp": time.Now().UnixMilli(),
		})
	}
}

func (h *ChatHandler) writeEvent(conn *websocket.Conn, event gin.H) {
	b, err := json.Marshal(event)
	if err != nil {
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
		log.Warnf("websocket write failed: %v", err)
	}
}
