package middleware

import (
	"time"

	"doc-chat-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// RequestLogger logs one line per HTTP request. Bodies are not logged;
// uploads are large and chat content is user data.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		c.Next()

		log.Infow("HTTP Request Log",
			"statusCode", c.Writer.Status(),
			"latency", time.Since(startTime).String(),
			"clientIP", c.ClientIP(),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
		)
	}
}
