package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// MaxBody enforces a hard cap on request bodies; protects against oversized or
// drip-fed bodies.
func MaxBody(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		c.Next()
	}
}
