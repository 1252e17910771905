package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/edirooss/gasket-console/internal/domain/resource"
	"github.com/edirooss/gasket-console/internal/service"
	"github.com/edirooss/gasket-console/pkg/jsonx"
	"github.com/gin-gonic/gin"
)

// ListStreams handles GET /api/streams from the current snapshot.
func (h *ConsoleHandler) ListStreams(c *gin.Context) {
	streams := h.svc.Store().Current().Streams
	c.Header("X-Total-Count", strconv.Itoa(len(streams)))
	c.JSON(http.StatusOK, streams)
}

// GetStream handles GET /api/streams/:id.
//
//	200 OK        → stream from the current snapshot
//	404 Not Found → not in the snapshot
func (h *ConsoleHandler) GetStream(c *gin.Context) {
	id := c.Param("id")
	st, ok := h.svc.Store().Stream(id)
	if !ok {
		abortWithError(c, fmt.Errorf("stream %s: %w", id, service.ErrStreamNotFound))
		return
	}
	c.JSON(http.StatusOK, st)
}

// CreateStream handles POST /api/streams.
//
//	201 Created              → stream created; Location set
//	400 Bad Request          → malformed or invalid body
//	422 Unprocessable Entity → rejected by the load balancer
//	502 Bad Gateway          → load balancer unreachable
func (h *ConsoleHandler) CreateStream(c *gin.Context) {
	var req resource.StreamSpec
	if err := jsonx.ParseStrictJSONBody(c.Request, &req); err != nil {
		badRequest(c, err)
		return
	}

	st, err := h.svc.AddStream(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.Header("Location", "/api/streams/"+st.ID)
	c.JSON(http.StatusCreated, st)
}

// DeleteStream handles DELETE /api/streams/:id.
//
//	200 OK        → {"id"}
//	404 Not Found → unknown to the load balancer
//	409 Conflict  → a commit on the stream is in flight
func (h *ConsoleHandler) DeleteStream(c *gin.Context) {
	id := c.Param("id")
	if err := h.svc.RemoveStream(c.Request.Context(), id); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id})
}

// GetTopology handles GET /api/streams/:id/topology. With ?preview=true the
// open session's pending edits are drawn.
func (h *ConsoleHandler) GetTopology(c *gin.Context) {
	id := c.Param("id")
	preview, _ := strconv.ParseBool(c.DefaultQuery("preview", "false"))

	build := h.svc.Topology
	if preview {
		build = h.svc.PreviewTopology
	}
	g, err := build(id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}
