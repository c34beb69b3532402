package util

import (
	"github.com/gin-gonic/gin"
)

const (
	RequestIDHeader = "X-Request-Id"
	requestIDKey    = "request_id"
)

// SetRequestID stores the id on the gin context and echoes it on the response.
func SetRequestID(c *gin.Context, id string) {
	c.Set(requestIDKey, id)
	c.Writer.Header().Set(RequestIDHeader, id)
}

// GetRequestID returns the id assigned by the request id middleware.
func GetRequestID(c *gin.Context) (string, bool) {
	v, ok := c.Get(requestIDKey)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}
