package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"wyn/internal/middleware"
	"wyn/internal/models"
	"wyn/internal/service"
)

type CatalogHandler struct {
	catalog *service.CatalogService
}

func NewCatalogHandler(catalog *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

type listingRequest struct {
	Name        string           `json:"name" binding:"required"`
	Description string           `json:"description"`
	PriceMin    *decimal.Decimal `json:"price_min"`
	PriceMax    *decimal.Decimal `json:"price_max"`
	Categories  string           `json:"categories"`
}

func (r listingRequest) model() *models.OfferedService {
	return &models.OfferedService{
		Name:        r.Name,
		Description: r.Description,
		PriceMin:    r.PriceMin,
		PriceMax:    r.PriceMax,
		Categories:  r.Categories,
	}
}

func (h *CatalogHandler) Create(c *gin.Context) {
	var req listingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	out, err := h.catalog.Create(c.Request.Context(), middleware.GetPrincipal(c), req.model())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

func (h *CatalogHandler) Update(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req listingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	out, err := h.catalog.Update(c.Request.Context(), middleware.GetPrincipal(c), id, req.model())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *CatalogHandler) Delete(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.catalog.Delete(c.Request.Context(), middleware.GetPrincipal(c), id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (h *CatalogHandler) ListMine(c *gin.Context) {
	out, err := h.catalog.ListMine(c.Request.Context(), middleware.GetPrincipal(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"services": out})
}

func (h *CatalogHandler) ListByProvider(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	out, err := h.catalog.ListByProvider(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"services": out})
}

func (h *CatalogHandler) Browse(c *gin.Context) {
	limit, offset := pageParams(c)
	out, err := h.catalog.Browse(c.Request.Context(), c.Query("name"), c.Query("category"), limit, offset)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"services": out})
}
