package handler

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"wyn/config"
	"wyn/internal/middleware"
	"wyn/internal/service"
	"wyn/pkg/cloudinary"
)

type RequestHandler struct {
	workflow *service.WorkflowService
	queries  *service.QueryService
	uploads  cloudinary.Client
	cfg      *config.UploadConfig
}

func NewRequestHandler(workflow *service.WorkflowService, queries *service.QueryService, uploads cloudinary.Client, cfg *config.UploadConfig) *RequestHandler {
	return &RequestHandler{workflow: workflow, queries: queries, uploads: uploads, cfg: cfg}
}

func (h *RequestHandler) Create(c *gin.Context) {
	var req struct {
		OfferedServiceID uint   `json:"offered_service_id" binding:"required"`
		ProviderID       uint   `json:"provider_id" binding:"required"`
		Address          string `json:"address" binding:"required"`
		Notes            string `json:"notes"`
		Urgent           *bool  `json:"urgent" binding:"required"`
		PreferredDate    string `json:"preferred_date"` // YYYY-MM-DD
		PreferredTime    string `json:"preferred_time"` // HH:MM
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	in := service.CreateRequestInput{
		OfferedServiceID: req.OfferedServiceID,
		ProviderID:       req.ProviderID,
		Address:          req.Address,
		Notes:            req.Notes,
		Urgent:           req.Urgent,
	}
	if req.PreferredDate != "" {
		d, err := time.Parse("2006-01-02", req.PreferredDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "preferred_date must be YYYY-MM-DD"})
			return
		}
		in.PreferredDate = &d
	}
	if req.PreferredTime != "" {
		in.PreferredTime = &req.PreferredTime
	}
	out, err := h.workflow.CreateRequest(c.Request.Context(), middleware.GetPrincipal(c), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

func (h *RequestHandler) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	out, err := h.queries.Get(c.Request.Context(), middleware.GetPrincipal(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *RequestHandler) ListMine(c *gin.Context) {
	limit, offset := pageParams(c)
	p := middleware.GetPrincipal(c)
	if p.IsProvider() {
		out, err := h.queries.ListForProvider(c.Request.Context(), p, c.Query("view"), limit, offset)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"requests": out})
		return
	}
	out, err := h.queries.ListForClient(c.Request.Context(), p, c.Query("status"), limit, offset)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": out})
}

func (h *RequestHandler) PendingReview(c *gin.Context) {
	limit, offset := pageParams(c)
	out, err := h.queries.PendingReview(c.Request.Context(), middleware.GetPrincipal(c), limit, offset)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": out})
}

func (h *RequestHandler) Accept(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		AgreedValue decimal.Decimal `json:"agreed_value" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	out, err := h.workflow.Accept(c.Request.Context(), middleware.GetPrincipal(c), id, req.AgreedValue)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *RequestHandler) Reject(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	out, err := h.workflow.Reject(c.Request.Context(), middleware.GetPrincipal(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

var proofExtensions = map[string]string{
	".jpg": "image", ".jpeg": "image", ".png": "image", ".webp": "image",
	".pdf": "raw",
}

// Complete accepts multipart proof files, stores them, then runs the
// transition. Stored files are removed again if the transition fails.
func (h *RequestHandler) Complete(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart form required"})
		return
	}
	files := form.File["proofs"]
	if len(files) > h.cfg.MaxProofFiles {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("at most %d proof files", h.cfg.MaxProofFiles)})
		return
	}

	var uploaded []service.ProofUpload
	cleanup := func() {
		for _, u := range uploaded {
			if err := h.uploads.DeleteByURL(c.Request.Context(), u.FileURL); err != nil {
				logrus.WithError(err).WithField("url", u.FileURL).Warn("orphaned proof file")
			}
		}
	}
	for _, fh := range files {
		ext := strings.ToLower(filepath.Ext(fh.Filename))
		kind, ok := proofExtensions[ext]
		if !ok {
			cleanup()
			c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported proof file type " + ext})
			return
		}
		if fh.Size > h.cfg.MaxProofBytes {
			cleanup()
			c.JSON(http.StatusBadRequest, gin.H{"error": "proof file too large"})
			return
		}
		f, err := fh.Open()
		if err != nil {
			cleanup()
			c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable proof file"})
			return
		}
		publicID := fmt.Sprintf("request_%d_%s", id, uuid.NewString())
		var url string
		if kind == "raw" {
			url, err = h.uploads.UploadRaw(c.Request.Context(), f, "proofs", publicID)
		} else {
			url, err = h.uploads.UploadImage(c.Request.Context(), f, "proofs", publicID)
		}
		f.Close()
		if err != nil {
			cleanup()
			logrus.WithError(err).Error("proof upload failed")
			c.JSON(http.StatusBadGateway, gin.H{"error": "file storage unavailable"})
			return
		}
		uploaded = append(uploaded, service.ProofUpload{FileURL: url, OriginalName: fh.Filename})
	}

	out, err := h.workflow.Complete(c.Request.Context(), middleware.GetPrincipal(c), id, uploaded)
	if err != nil {
		cleanup()
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *RequestHandler) Proofs(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	out, err := h.workflow.Proofs(c.Request.Context(), middleware.GetPrincipal(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"proofs": out})
}

func (h *RequestHandler) Review(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Rating  int    `json:"rating" binding:"required,min=1,max=5"`
		Comment string `json:"comment"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	out, err := h.workflow.SubmitReview(c.Request.Context(), middleware.GetPrincipal(c), id, req.Rating, req.Comment)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

func (h *RequestHandler) Cancel(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	out, err := h.workflow.Cancel(c.Request.Context(), middleware.GetPrincipal(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// Delete removes the request row and its dependents, then the proof files
// best-effort.
func (h *RequestHandler) Delete(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	urls, err := h.workflow.Delete(c.Request.Context(), middleware.GetPrincipal(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	for _, u := range urls {
		if err := h.uploads.DeleteByURL(c.Request.Context(), u); err != nil {
			logrus.WithError(err).WithField("url", u).Warn("orphaned proof file")
		}
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (h *RequestHandler) Dashboard(c *gin.Context) {
	out, err := h.queries.ProviderDashboard(c.Request.Context(), middleware.GetPrincipal(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *RequestHandler) MyReviews(c *gin.Context) {
	limit, offset := pageParams(c)
	out, err := h.queries.MyReviews(c.Request.Context(), middleware.GetPrincipal(c), limit, offset)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reviews": out})
}
