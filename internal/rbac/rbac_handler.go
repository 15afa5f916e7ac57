package rbac

import (
	"net/http"

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
	l := zap.L().Named("rbac.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("rbac.handler")
	}
	return &Handler{service: service, logger: l}
}

// Me returns the caller's effective permission set.
func (h *Handler) Me(c *gin.Context) {
	actor, ok := ActorFromContext(c)
	if !ok {
		response.FromError(c, apperror.ErrForbidden)
		return
	}
	response.Success(c, http.StatusOK, h.service.Describe(actor), nil)
}

func (h *Handler) Enforce(c *gin.Context) {
	actor, ok := ActorFromContext(c)
	if !ok {
		response.FromError(c, apperror.ErrForbidden)
		return
	}

	var req EnforceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("http enforce validation failed", zap.Error(err))
		response.FromError(c, apperror.MapValidationError(err))
		return
	}

	perm, err := ParsePermission(req.Permission)
	if err != nil {
		response.FromError(c, apperror.InvalidField("Permission"))
		return
	}

	allowed, err := h.service.Enforce(actor, perm)
	if err != nil {
		h.logger.Error("http enforce failed", zap.String("actor_id", actor.ID), zap.Error(err))
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, EnforceResponse{Permission: string(perm), Allowed: allowed}, nil)
}
