package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"agencysite.io/cms/services/img-service/internal/domain"
)

// multipart framing on top of the image itself
const formOverhead = 1 << 20

type imageHandler struct {
	service  domain.ImgService
	maxBytes int64
}

type deleteImageRequest struct {
	Path string `json:"path" binding:"required"`
}

func NewImageHandler(service domain.ImgService, maxBytes int64) *imageHandler {
	return &imageHandler{service: service, maxBytes: maxBytes}
}

// UploadImageHandler handles POST /images and POST /upload with a multipart
// "image" field.
func (h *imageHandler) UploadImageHandler(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes+formOverhead)
	fh, err := c.FormFile("image")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"success": false, "message": domain.ErrTooLarge.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "no image file provided"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "unreadable upload"})
		return
	}
	defer f.Close()

	img, err := h.service.UploadImage(c.Request.Context(), f)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "imageUrl": img.URL, "filename": img.Name})
}

// DeleteImageHandler handles DELETE /images. Missing images count as deleted.
func (h *imageHandler) DeleteImageHandler(c *gin.Context) {
	var req deleteImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request"})
		return
	}
	if err := h.service.DeleteImage(c.Request.Context(), req.Path); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "image deleted"})
}

// ServeImageHandler handles GET /uploads/*name.
func (h *imageHandler) ServeImageHandler(c *gin.Context) {
	name := strings.TrimPrefix(c.Param("name"), "/")
	obj, err := h.service.OpenImage(c.Request.Context(), name)
	if err != nil {
		h.fail(c, err)
		return
	}
	defer obj.Body.Close()

	headers := map[string]string{
		// names are random and never reused
		"Cache-Control":          "public, max-age=31536000, immutable",
		"X-Content-Type-Options": "nosniff",
	}
	if obj.ContentType == "image/svg+xml" {
		headers["Content-Security-Policy"] = "default-src 'none'; style-src 'unsafe-inline'; sandbox"
	}
	c.DataFromReader(http.StatusOK, obj.Size, obj.ContentType, obj.Body, headers)
}

func (h *imageHandler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotImage), errors.Is(err, domain.ErrInvalidName):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
	case errors.Is(err, domain.ErrTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"success": false, "message": err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": err.Error()})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "image storage failed"})
	}
}
