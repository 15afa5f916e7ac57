package actor

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
	l := zap.L().Named("actor.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("actor.handler")
	}
	return &Handler{service: service, logger: l}
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	httpErr := response.FromError(c, err)
	h.logger.Warn("actor request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Int("status", httpErr.Status),
		zap.String("code", httpErr.Code),
		zap.Error(err),
	)
}

func (h *Handler) GetByID(c *gin.Context) {
	caller, ok := rbac.ActorFromContext(c)
	if !ok {
		h.writeServiceError(c, apperror.ErrForbidden)
		return
	}

	resp, err := h.service.GetByID(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) UpdateOverrides(c *gin.Context) {
	caller, ok := rbac.ActorFromContext(c)
	if !ok {
		h.writeServiceError(c, apperror.ErrForbidden)
		return
	}

	var req UpdateOverridesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("http update overrides validation failed", zap.Error(err))
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	resp, err := h.service.UpdateOverrides(c.Request.Context(), caller, c.Param("id"), req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	caller, ok := rbac.ActorFromContext(c)
	if !ok {
		h.writeServiceError(c, apperror.ErrForbidden)
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("http update status validation failed", zap.Error(err))
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	resp, err := h.service.UpdateStatus(c.Request.Context(), caller, c.Param("id"), req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}
