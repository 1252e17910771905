package handler

import (
	"github.com/edirooss/gasket-console/internal/http/middleware"
	"github.com/gin-gonic/gin"
)

// maxEventStreams caps concurrent /api/events subscribers.
const maxEventStreams = 64

// Register mounts the console API under /api.
func (h *ConsoleHandler) Register(r gin.IRouter) {
	api := r.Group("/api")
	api.GET("/ping", h.Ping)
	api.GET("/health", h.Health)
	api.GET("/snapshot", h.Snapshot)
	api.GET("/summary", h.Summary)
	api.POST("/url/parse", h.ParseURL)

	api.GET("/notices", h.ListNotices)
	api.GET("/events", middleware.LimitConcurrentRequests(maxEventStreams), h.Events)

	api.GET("/streams", h.ListStreams)
	api.POST("/streams", h.CreateStream)
	streams := api.Group("/streams/:id", middleware.RequireValidID())
	{
		streams.GET("", h.GetStream)
		streams.DELETE("", h.DeleteStream)
		streams.GET("/topology", h.GetTopology)

		streams.POST("/session", h.BeginSession)
		streams.GET("/session", h.GetSession)
		streams.DELETE("/session", h.DiscardSession)
		streams.POST("/session/actions", h.StageActions)
		streams.POST("/session/commit", h.CommitSession)
	}

	api.GET("/workers", h.ListWorkers)
	api.POST("/workers", h.CreateWorker)
	workers := api.Group("/workers/:id", middleware.RequireValidID())
	{
		workers.PATCH("", h.PatchWorker)
		workers.DELETE("", h.DeleteWorker)
	}
}
