package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"wyn/internal/middleware"
	"wyn/internal/models"
	"wyn/internal/service"
)

type AvailabilityHandler struct {
	avail *service.AvailabilityService
}

func NewAvailabilityHandler(avail *service.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{avail: avail}
}

// Get is public so clients can see a provider's schedule before requesting.
func (h *AvailabilityHandler) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	out, err := h.avail.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *AvailabilityHandler) Save(c *gin.Context) {
	var req struct {
		StandardStart          string `json:"standard_start"`
		StandardEnd            string `json:"standard_end"`
		AvailableDays          string `json:"available_days"`
		TemporarilyUnavailable bool   `json:"temporarily_unavailable"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	out, err := h.avail.Save(c.Request.Context(), middleware.GetPrincipal(c), &models.ProviderAvailability{
		StandardStart:          req.StandardStart,
		StandardEnd:            req.StandardEnd,
		AvailableDays:          req.AvailableDays,
		TemporarilyUnavailable: req.TemporarilyUnavailable,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *AvailabilityHandler) AddPeriod(c *gin.Context) {
	var req struct {
		StartDate string `json:"start_date" binding:"required"` // YYYY-MM-DD
		EndDate   string `json:"end_date" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start_date must be YYYY-MM-DD"})
		return
	}
	end, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end_date must be YYYY-MM-DD"})
		return
	}
	out, err := h.avail.AddPeriod(c.Request.Context(), middleware.GetPrincipal(c), &models.UnavailablePeriod{
		StartDate: start,
		EndDate:   end,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

func (h *AvailabilityHandler) RemovePeriod(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.avail.RemovePeriod(c.Request.Context(), middleware.GetPrincipal(c), id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
