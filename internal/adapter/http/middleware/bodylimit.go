package middleware

import (
"net/http"

"github.com/gin-gonic/gin"
)

// MaxBodySize returns middleware that caps the request body size. Reading
// past the cap fails, and handlers reject the request with 413.
func MaxBodySize(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}
