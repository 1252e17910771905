package handler

import (
	"errors"
	"net/http"

	"github.com/edirooss/gasket-console/internal/lbclient"
	"github.com/edirooss/gasket-console/internal/patch"
	"github.com/edirooss/gasket-console/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ConsoleHandler serves the console API on top of ConsoleService.
type ConsoleHandler struct {
	log *zap.Logger
	svc *service.ConsoleService
}

func NewConsoleHandler(log *zap.Logger, svc *service.ConsoleService) *ConsoleHandler {
	return &ConsoleHandler{
		log: log.Named("console_handler"),
		svc: svc,
	}
}

// statusOf maps service and backend errors onto HTTP status codes.
//
//	locked                      → 409
//	unknown stream / session    → 404 (backend 404 included)
//	invalid input / action      → 400
//	backend rejection           → 422
//	backend unreachable         → 502
func statusOf(err error) int {
	switch {
	case errors.Is(err, service.ErrLocked):
		return http.StatusConflict
	case errors.Is(err, service.ErrStreamNotFound),
		errors.Is(err, service.ErrSessionNotFound),
		lbclient.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalid),
		errors.Is(err, patch.ErrUnknownAction),
		errors.Is(err, patch.ErrSessionClosed):
		return http.StatusBadRequest
	case lbclient.IsRejection(err):
		return http.StatusUnprocessableEntity
	case lbclient.IsTransport(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// abortWithError records err on the context and writes {"message"}. Backend
// rejections surface the server's own message.
func abortWithError(c *gin.Context, err error) {
	c.Error(err)
	msg := err.Error()
	if lbclient.IsRejection(err) {
		msg = lbclient.Message(err)
	}
	c.AbortWithStatusJSON(statusOf(err), gin.H{"message": msg})
}

func badRequest(c *gin.Context, err error) {
	c.Error(err)
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": err.Error()})
}
