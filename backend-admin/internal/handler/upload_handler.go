package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/imobsites/imobsites-panel/backend-admin/internal/service"
	"github.com/imobsites/imobsites-panel/pkg/middleware"
	"github.com/imobsites/imobsites-panel/pkg/response"
)

// multipartOverhead is allowed on top of the image size for form fields
// and boundaries
const multipartOverhead = 64 << 10

// UploadHandler handles property images
type UploadHandler struct {
	uploadService service.UploadService
	maxBytes      int64
}

// NewUploadHandler creates a new UploadHandler
func NewUploadHandler(uploadService service.UploadService, maxBytes int64) *UploadHandler {
	return &UploadHandler{uploadService: uploadService, maxBytes: maxBytes}
}

// Upload handles POST /api/v1/admin/properties/:id/images (multipart field "image")
func (h *UploadHandler) Upload(c *gin.Context) {
	if h.maxBytes > 0 {
		limit := h.maxBytes + multipartOverhead
		if c.Request.ContentLength > limit {
			writeError(c, service.ErrImageTooLarge)
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
	}
	fh, err := c.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(c, service.ErrImageTooLarge)
			return
		}
		c.JSON(http.StatusBadRequest, response.BadRequest("image file is required"))
		return
	}
	f, err := fh.Open()
	if err != nil {
		writeError(c, err)
		return
	}
	defer f.Close()

	img, err := h.uploadService.Upload(c.Request.Context(), tenantID(c), c.Param("id"), service.Upload{
		Filename: fh.Filename,
		Size:     fh.Size,
		Body:     f,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	middleware.SetAuditResourceID(c, img.ID)
	c.JSON(http.StatusCreated, response.Success(img))
}

// List handles GET /api/v1/admin/properties/:id/images
func (h *UploadHandler) List(c *gin.Context) {
	images, err := h.uploadService.List(c.Request.Context(), tenantID(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(images))
}

// SetCover handles POST /api/v1/admin/properties/:id/images/:imageId/cover
func (h *UploadHandler) SetCover(c *gin.Context) {
	if err := h.uploadService.SetCover(c.Request.Context(), tenantID(c), c.Param("id"), c.Param("imageId")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(gin.H{"cover": c.Param("imageId")}))
}

// Delete handles DELETE /api/v1/admin/properties/:id/images/:imageId
func (h *UploadHandler) Delete(c *gin.Context) {
	if err := h.uploadService.Delete(c.Request.Context(), tenantID(c), c.Param("id"), c.Param("imageId")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(gin.H{"deleted": true}))
}
