package handler

import (
	"net/http"
	"strconv"

	"github.com/edirooss/gasket-console/internal/domain/resource"
	"github.com/edirooss/gasket-console/internal/lbclient"
	"github.com/edirooss/gasket-console/pkg/jsonx"
	"github.com/gin-gonic/gin"
)

// ListWorkers handles GET /api/workers from the current snapshot.
func (h *ConsoleHandler) ListWorkers(c *gin.Context) {
	workers := h.svc.Store().Current().Workers
	c.Header("X-Total-Count", strconv.Itoa(len(workers)))
	c.JSON(http.StatusOK, workers)
}

// CreateWorker handles POST /api/workers.
//
//	201 Created              → worker registered
//	400 Bad Request          → malformed body or invalid host
//	422 Unprocessable Entity → rejected (e.g. duplicate host)
//	502 Bad Gateway          → load balancer unreachable
func (h *ConsoleHandler) CreateWorker(c *gin.Context) {
	var req resource.WorkerSpec
	if err := jsonx.ParseStrictJSONBody(c.Request, &req); err != nil {
		badRequest(c, err)
		return
	}

	w, err := h.svc.AddWorker(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.Header("Location", "/api/workers/"+w.ID)
	c.JSON(http.StatusCreated, w)
}

// PatchWorker handles PATCH /api/workers/:id with a merge-patch body of
// protocol, host and public_ip.
func (h *ConsoleHandler) PatchWorker(c *gin.Context) {
	var req lbclient.WorkerPatch
	if err := jsonx.ParseStrictJSONBody(c.Request, &req); err != nil {
		badRequest(c, err)
		return
	}

	w, err := h.svc.UpdateWorker(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

// DeleteWorker handles DELETE /api/workers/:id.
func (h *ConsoleHandler) DeleteWorker(c *gin.Context) {
	id := c.Param("id")
	if err := h.svc.RemoveWorker(c.Request.Context(), id); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id})
}
