package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/secure"
	"github.com/gin-gonic/gin"
	"mashalpipes.in/Website/pkg/util"
)

// SecureHeaders sets the usual hardening headers. TLS is terminated in front of the services.
func SecureHeaders() gin.HandlerFunc {
	return secure.New(secure.Config{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
	})
}

// CORS lets the marketing page read the image API from another origin.
// A "*" entry allows every origin.
func CORS(origins []string) gin.HandlerFunc {
	conf := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", util.RequestIDHeader},
		ExposeHeaders: []string{util.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			conf.AllowAllOrigins = true
			break
		}
	}
	if !conf.AllowAllOrigins {
		conf.AllowOrigins = origins
	}
	return cors.New(conf)
}
