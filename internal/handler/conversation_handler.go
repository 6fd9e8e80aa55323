package handler

import (
	"doc-chat-go/internal/middleware"
	"doc-chat-go/internal/service"

	"github.com/gin-gonic/gin"
)

// ConversationHandler serves conversation listing and transcript readback.
type ConversationHandler struct {
	conversationService service.ConversationService
}

func NewConversationHandler(conversationService service.ConversationService) *ConversationHandler {
	return &ConversationHandler{conversationService: conversationService}
}

// List handles GET /api/conversations.
func (h *ConversationHandler) List(c *gin.Context) {
	summaries, err := h.conversationService.ListConversations(middleware.Principal(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, summaries)
}

// ListMessages handles GET /api/conversations/:id/messages.
func (h *ConversationHandler) ListMessages(c *gin.Context) {
	conversationID, ok := conversationParam(c)
	if !ok {
		return
	}

	messages, err := h.conversationService.ListMessages(middleware.Principal(c), conversationID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, messages)
}
