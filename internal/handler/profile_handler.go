package handler

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"wyn/config"
	"wyn/internal/middleware"
	"wyn/internal/service"
	"wyn/pkg/cloudinary"
)

type ProfileHandler struct {
	profiles *service.ProfileService
	uploads  cloudinary.Client
	cfg      *config.UploadConfig
}

func NewProfileHandler(profiles *service.ProfileService, uploads cloudinary.Client, cfg *config.UploadConfig) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, uploads: uploads, cfg: cfg}
}

func (h *ProfileHandler) Me(c *gin.Context) {
	p := middleware.GetPrincipal(c)
	if p.IsProvider() {
		pr, avg, count, err := h.profiles.GetProvider(c.Request.Context(), p.ID)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"provider": pr, "average_rating": avg, "review_count": count})
		return
	}
	u, requestCount, err := h.profiles.GetClient(c.Request.Context(), p)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u, "request_count": requestCount})
}

// GetProvider is the public provider profile.
func (h *ProfileHandler) GetProvider(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	pr, avg, count, err := h.profiles.GetProvider(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"provider": pr, "average_rating": avg, "review_count": count})
}

func (h *ProfileHandler) Update(c *gin.Context) {
	var req struct {
		Name        *string `json:"name"`
		Phone       *string `json:"phone"`
		Password    *string `json:"password"`
		Specialties *string `json:"specialties"`
		ServiceArea *string `json:"service_area"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	err := h.profiles.Update(c.Request.Context(), middleware.GetPrincipal(c), service.ProfileUpdate{
		Name:        req.Name,
		Phone:       req.Phone,
		Password:    req.Password,
		Specialties: req.Specialties,
		ServiceArea: req.ServiceArea,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": true})
}

var photoExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true}

func (h *ProfileHandler) UploadPhoto(c *gin.Context) {
	fh, err := c.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "photo file required"})
		return
	}
	if fh.Size > h.cfg.MaxProfileBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "photo too large"})
		return
	}
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !photoExtensions[ext] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported photo type " + ext})
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable photo"})
		return
	}
	defer f.Close()

	p := middleware.GetPrincipal(c)
	publicID := p.Type + "_" + uuid.NewString()
	url, err := h.uploads.UploadImage(c.Request.Context(), f, "profiles", publicID)
	if err != nil {
		logrus.WithError(err).Error("profile photo upload failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "file storage unavailable"})
		return
	}
	if err := h.profiles.SetPhoto(c.Request.Context(), p, url); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"photo_url": url})
}
