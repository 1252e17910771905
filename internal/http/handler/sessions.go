package handler

import (
	"io"
	"net/http"

	"github.com/edirooss/gasket-console/internal/http/dto"
	"github.com/gin-gonic/gin"
)

// BeginSession handles POST /api/streams/:id/session. Beginning twice returns
// the session already open.
//
//	200 OK        → session view
//	404 Not Found → stream not in the snapshot
//	409 Conflict  → a commit on the stream is in flight
func (h *ConsoleHandler) BeginSession(c *gin.Context) {
	sess, err := h.svc.BeginSession(c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSessionView(sess))
}

// GetSession handles GET /api/streams/:id/session.
func (h *ConsoleHandler) GetSession(c *gin.Context) {
	sess, err := h.svc.Session(c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSessionView(sess))
}

// StageActions handles POST /api/streams/:id/session/actions. The body is one
// tagged action or an array of them, applied all-or-nothing.
//
//	200 OK          → updated session view
//	400 Bad Request → malformed body, unknown type or invalid value
//	404 Not Found   → no open session
//	409 Conflict    → a commit on the stream is in flight
func (h *ConsoleHandler) StageActions(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		badRequest(c, err)
		return
	}
	actions, err := dto.DecodeActions(body)
	if err != nil {
		badRequest(c, err)
		return
	}

	sess, err := h.svc.Stage(c.Param("id"), actions...)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSessionView(sess))
}

// CommitSession handles POST /api/streams/:id/session/commit. A failed commit
// leaves the session open with its edits.
//
//	200 OK                   → merged stream returned by the load balancer
//	404 Not Found            → no open session, or stream gone on the backend
//	409 Conflict             → another commit on the stream is in flight
//	422 Unprocessable Entity → rejected by the load balancer
//	502 Bad Gateway          → load balancer unreachable
func (h *ConsoleHandler) CommitSession(c *gin.Context) {
	st, err := h.svc.Commit(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// DiscardSession handles DELETE /api/streams/:id/session.
func (h *ConsoleHandler) DiscardSession(c *gin.Context) {
	if err := h.svc.Discard(c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
