package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"mashalpipes.in/Website/pkg/logger"
)

// HandlePanics is meant for gin.CustomRecovery. The panic value is logged, never sent to the client.
func HandlePanics(log *logger.Logger) gin.RecoveryFunc {
	return func(c *gin.Context, recovered any) {
		log.WithField("path", c.Request.URL.Path).Error(fmt.Sprintf("recovered from panic: %v", recovered))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
