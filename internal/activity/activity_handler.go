package activity

import (
	"net/http"

	"go-opsportal/internal/rbac"
	"go-opsportal/internal/shared/apperror"
	"go-opsportal/internal/shared/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("activity.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("activity.handler")
	}
	return &Handler{service: service, logger: l}
}

func (h *Handler) List(c *gin.Context) {
	actor, ok := rbac.ActorFromContext(c)
	if !ok {
		response.FromError(c, apperror.ErrUnauthenticated)
		return
	}

	resp, err := h.service.ListByAggregate(c.Request.Context(), actor, c.Param("aggregate_type"), c.Param("aggregate_id"))
	if err != nil {
		httpErr := response.FromError(c, err)
		h.logger.Warn("list activity failed", zap.Int("status", httpErr.Status), zap.String("code", httpErr.Code))
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}
