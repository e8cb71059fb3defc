package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"wyn/internal/middleware"
	"wyn/internal/service"
)

type AdminHandler struct {
	admin    *service.AdminService
	workflow *service.WorkflowService
	queries  *service.QueryService
}

func NewAdminHandler(admin *service.AdminService, workflow *service.WorkflowService, queries *service.QueryService) *AdminHandler {
	return &AdminHandler{admin: admin, workflow: workflow, queries: queries}
}

func (h *AdminHandler) Stats(c *gin.Context) {
	out, err := h.admin.Stats(c.Request.Context(), middleware.GetPrincipal(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *AdminHandler) ListRequests(c *gin.Context) {
	limit, offset := pageParams(c)
	list, total, err := h.queries.ListAll(c.Request.Context(), middleware.GetPrincipal(c), limit, offset)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": list, "total": total})
}

// OverrideRequest patches any request field directly. Only explicitly
// provided fields change.
func (h *AdminHandler) OverrideRequest(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		ProviderID    *uint            `json:"provider_id"`
		Status        *string          `json:"status"`
		AgreedValue   *decimal.Decimal `json:"agreed_value"`
		PreferredDate *string          `json:"preferred_date"` // YYYY-MM-DD
		PreferredTime *string          `json:"preferred_time"` // HH:MM
		Address       *string          `json:"address"`
		Notes         *string          `json:"notes"`
		Urgent        *bool            `json:"urgent"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	in := service.OverrideInput{
		ProviderID:    req.ProviderID,
		Status:        req.Status,
		AgreedValue:   req.AgreedValue,
		PreferredTime: req.PreferredTime,
		Address:       req.Address,
		Notes:         req.Notes,
		Urgent:        req.Urgent,
	}
	if req.PreferredDate != nil {
		d, err := time.Parse("2006-01-02", *req.PreferredDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "preferred_date must be YYYY-MM-DD"})
			return
		}
		in.PreferredDate = &d
	}
	out, err := h.workflow.AdminOverride(c.Request.Context(), middleware.GetPrincipal(c), id, in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	limit, offset := pageParams(c)
	list, total, err := h.admin.ListUsers(c.Request.Context(), middleware.GetPrincipal(c), limit, offset)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": list, "total": total})
}

func (h *AdminHandler) ListProviders(c *gin.Context) {
	limit, offset := pageParams(c)
	list, total, err := h.admin.ListProviders(c.Request.Context(), middleware.GetPrincipal(c), limit, offset)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"providers": list, "total": total})
}

func (h *AdminHandler) DeleteUser(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.admin.DeleteUser(c.Request.Context(), middleware.GetPrincipal(c), id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (h *AdminHandler) DeleteProvider(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.admin.DeleteProvider(c.Request.Context(), middleware.GetPrincipal(c), id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (h *AdminHandler) DeleteService(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.admin.DeleteService(c.Request.Context(), middleware.GetPrincipal(c), id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (h *AdminHandler) ListReviews(c *gin.Context) {
	limit, offset := pageParams(c)
	list, total, err := h.admin.ListReviews(c.Request.Context(), middleware.GetPrincipal(c), limit, offset)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reviews": list, "total": total})
}

func (h *AdminHandler) ModerateReview(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Rating  *int    `json:"rating"`
		Comment *string `json:"comment"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.admin.ModerateReview(c.Request.Context(), middleware.GetPrincipal(c), id, req.Rating, req.Comment); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": true})
}

func (h *AdminHandler) DeleteReview(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.admin.DeleteReview(c.Request.Context(), middleware.GetPrincipal(c), id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
