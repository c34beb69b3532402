package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"mashalpipes.in/Website/pkg/logger"
	"mashalpipes.in/Website/pkg/util"
	"mashalpipes.in/Website/services/img-service/internal/domain"
	"mashalpipes.in/Website/services/img-service/internal/model"
)

// multipart headers and the title field on top of the file itself
const multipartOverhead = 1 << 20

// ImgHandler handles HTTP requests for image records and uploads.
type ImgHandler struct {
	Service        domain.ImgService
	MaxUploadBytes int64
	log            *logger.Logger
}

// NewImgHandler creates a new ImgHandler.
func NewImgHandler(service domain.ImgService, maxUploadBytes int64, log *logger.Logger) *ImgHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &ImgHandler{Service: service, MaxUploadBytes: maxUploadBytes, log: log}
}

// ListImages handles GET /images.
func (h *ImgHandler) ListImages(c *gin.Context) {
	images, err := h.Service.ListImages(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	if images == nil {
		images = []*domain.Image{}
	}
	c.JSON(http.StatusOK, images)
}

// GetImage handles GET /images/:id.
func (h *ImgHandler) GetImage(c *gin.Context) {
	img, err := h.Service.GetImage(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, img)
}

// CreateImage handles POST /images.
func (h *ImgHandler) CreateImage(c *gin.Context) {
	var req domain.CreateImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "invalid request body"})
		return
	}
	img, err := h.Service.CreateImage(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, img)
}

// UpdateImage handles PUT /images/:id. Absent fields are left as they are.
func (h *ImgHandler) UpdateImage(c *gin.Context) {
	var req domain.UpdateImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "invalid request body"})
		return
	}
	img, err := h.Service.UpdateImage(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, img)
}

// DeleteImage handles DELETE /images/:id.
func (h *ImgHandler) DeleteImage(c *gin.Context) {
	if err := h.Service.DeleteImage(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.MessageResponse{Message: "Image deleted successfully"})
}

// UploadImage handles POST /upload: multipart field "image" plus a "title".
func (h *ImgHandler) UploadImage(c *gin.Context) {
	if h.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes+multipartOverhead)
	}
	fh, err := c.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.respondError(c, domain.ErrFileTooLarge)
			return
		}
		h.respondError(c, domain.ErrNoFile)
		return
	}
	file, err := fh.Open()
	if err != nil {
		h.respondError(c, err)
		return
	}
	defer file.Close()

	res, err := h.Service.UploadImage(c.Request.Context(), domain.UploadImageRequest{
		Title:        c.PostForm("title"),
		OriginalName: fh.Filename,
		Size:         fh.Size,
		ContentType:  fh.Header.Get("Content-Type"),
		Body:         file,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, model.UploadImageResponse{Message: res.Message, FilePath: res.FilePath})
}

// ServeUpload handles GET <upload prefix>/:name and streams the file from the sink.
func (h *ImgHandler) ServeUpload(c *gin.Context) {
	f, err := h.Service.OpenUpload(c.Request.Context(), c.Param("name"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	defer f.Body.Close()

	c.Header("Content-Type", f.ContentType)
	if rs, ok := f.Body.(io.ReadSeeker); ok {
		http.ServeContent(c.Writer, c.Request, f.Name, f.ModTime, rs)
		return
	}
	c.DataFromReader(http.StatusOK, f.Size, f.ContentType, f.Body, nil)
}

func (h *ImgHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, model.HealthResponse{Status: "ok"})
}

func (h *ImgHandler) respondError(c *gin.Context, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: verr.Error()})
	case errors.Is(err, domain.ErrNoFile):
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "No file uploaded"})
	case errors.Is(err, domain.ErrInvalidImage):
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrImageNotFound):
		c.JSON(http.StatusNotFound, model.ErrorResponse{Error: "Image not found"})
	case errors.Is(err, domain.ErrFileNotFound):
		c.JSON(http.StatusNotFound, model.ErrorResponse{Error: "File not found"})
	case errors.Is(err, domain.ErrFileTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, model.ErrorResponse{Error: "File too large"})
	default:
		entry := h.log.WithError(err).WithField("path", c.Request.URL.Path)
		if id, ok := util.GetRequestID(c); ok {
			entry = entry.WithField("request_id", id)
		}
		entry.Error("request failed")
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "internal server error"})
	}
}
