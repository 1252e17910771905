package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireValidID ensures the path param ":id" looks like a load balancer id:
// 1-64 characters of [A-Za-z0-9_-].
func RequireValidID() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !validID(c.Param("id")) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid id"})
			return
		}
		c.Next()
	}
}

func validID(id string) bool {
	if len(id) < 1 || len(id) > 64 {
		return false
	}
	for i := 0; i < len(id); i++ {
		ch := id[i]
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9', ch == '-', ch == '_':
		default:
			return false
		}
	}
	return true
}
