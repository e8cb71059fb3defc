package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"wyn/internal/middleware"
	"wyn/internal/service"
)

type NotificationHandler struct {
	notif *service.NotificationService
}

func NewNotificationHandler(notif *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notif: notif}
}

func (h *NotificationHandler) List(c *gin.Context) {
	limit, offset := boundedPageParams(c, 20, 100)
	list, err := h.notif.List(middleware.GetPrincipal(c), limit, offset)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": list})
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.notif.MarkRead(middleware.GetPrincipal(c), id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"read": true})
}

func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	n, err := h.notif.CountUnread(middleware.GetPrincipal(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": n})
}
