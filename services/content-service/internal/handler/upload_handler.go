package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"agencysite.io/cms/services/content-service/internal/adapter"
	"agencysite.io/cms/services/content-service/internal/model"
)

const maxUploadBytes = 10 << 20

// UploadHandler forwards editor image uploads to img-service.
type UploadHandler struct {
	Images adapter.ImageAdapter
}

func NewUploadHandler(images adapter.ImageAdapter) *UploadHandler {
	return &UploadHandler{Images: images}
}

// Upload handles POST /blog/upload and POST /services/upload.
func (h *UploadHandler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)
	fh, err := c.FormFile("image")
	if err != nil {
		badRequest(c, "no image file provided", err)
		return
	}
	f, err := fh.Open()
	if err != nil {
		badRequest(c, "unreadable upload", err)
		return
	}
	defer f.Close()

	resp, err := h.Images.UploadFile(c.Request.Context(), fh.Filename, f)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusBadGateway, model.ErrorResponse{Success: false, Message: "failed to store image"})
		return
	}
	resp.Success = true
	c.JSON(http.StatusOK, resp)
}
