package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Ping handles GET /api/ping.
func (h *ConsoleHandler) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}

// Health handles GET /api/health and relays the load balancer's root document.
//
//	200 OK          → backend reachable
//	502 Bad Gateway → backend unreachable
func (h *ConsoleHandler) Health(c *gin.Context) {
	hl, err := h.svc.Health(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, hl)
}

// Snapshot handles GET /api/snapshot.
func (h *ConsoleHandler) Snapshot(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Store().Current())
}

// Summary handles GET /api/summary.
func (h *ConsoleHandler) Summary(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Store().Summary())
}
