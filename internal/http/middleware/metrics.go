package middleware

import (
	"github.com/edirooss/gasket-console/internal/metrics"
	"github.com/gin-gonic/gin"
)

// Metrics counts served requests by method and status class.
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		m.IncRequest(c.Request.Method, c.Writer.Status())
	}
}
