package handler

import (
	"github.com/gin-gonic/gin"
	"mashalpipes.in/Website/pkg/logger"
	"mashalpipes.in/Website/pkg/middleware"
)

type RouterConfig struct {
	APIPrefix       string
	UploadURLPrefix string
	AllowedOrigins  []string
}

// NewRouter wires the image API, the upload file server, health and metrics.
func NewRouter(h *ImgHandler, conf RouterConfig, log *logger.Logger, metrics *middleware.Metrics) *gin.Engine {
	r := gin.New()
	r.Use(
		gin.CustomRecovery(middleware.HandlePanics(log)),
		middleware.RequestID(),
		middleware.RequestLogger(log),
		metrics.Middleware(),
		middleware.SecureHeaders(),
		middleware.CORS(conf.AllowedOrigins),
	)
	// multipart parts above this spill to temp files
	r.MaxMultipartMemory = 8 << 20

	api := r.Group(conf.APIPrefix)
	{
		api.GET("/images", h.ListImages)
		api.GET("/images/:id", h.GetImage)
		api.POST("/images", h.CreateImage)
		api.PUT("/images/:id", h.UpdateImage)
		api.DELETE("/images/:id", h.DeleteImage)
		api.POST("/upload", h.UploadImage)
	}
	r.GET(conf.UploadURLPrefix+"/:name", h.ServeUpload)

	r.GET("/health", h.Health)
	r.GET("/metrics", metrics.Handler())
	return r
}
