package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"wyn/internal/middleware"
	"wyn/internal/service"
)

type ChatHandler struct {
	chat    *service.ChatService
	queries *service.QueryService
}

func NewChatHandler(chat *service.ChatService, queries *service.QueryService) *ChatHandler {
	return &ChatHandler{chat: chat, queries: queries}
}

func (h *ChatHandler) Send(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	msg, err := h.chat.SendMessage(c.Request.Context(), middleware.GetPrincipal(c), id, req.Content)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

func (h *ChatHandler) List(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	msgs, err := h.chat.ListMessages(c.Request.Context(), middleware.GetPrincipal(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

func (h *ChatHandler) UnreadCount(c *gin.Context) {
	n, err := h.queries.UnreadMessages(c.Request.Context(), middleware.GetPrincipal(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": n})
}
