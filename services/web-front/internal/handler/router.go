package handler

import (
	"github.com/gin-gonic/gin"
	"mashalpipes.in/Website/pkg/logger"
	"mashalpipes.in/Website/pkg/middleware"
	"mashalpipes.in/Website/services/web-front/internal/handler/page"
)

// NewRouter serves the marketing page, health and metrics.
func NewRouter(pageH page.PageHandler, log *logger.Logger, metrics *middleware.Metrics) *gin.Engine {
	r := gin.New()
	r.Use(
		gin.CustomRecovery(middleware.HandlePanics(log)),
		middleware.RequestID(),
		middleware.RequestLogger(log),
		metrics.Middleware(),
		middleware.SecureHeaders(),
	)
	r.SetHTMLTemplate(page.Templates())

	r.GET("/", pageH.Index)
	r.GET("/health", pageH.Health)
	r.GET("/metrics", metrics.Handler())
	return r
}
