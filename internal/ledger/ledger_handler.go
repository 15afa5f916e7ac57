package ledger

import (
	"context"
	"net/http"
	"strconv"
	"time"

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
	l := zap.L().Named("ledger.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("ledger.handler")
	}
	return &Handler{service: service, logger: l}
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	httpErr := response.FromError(c, err)
	h.logger.Warn("ledger request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Int("status", httpErr.Status),
		zap.String("code", httpErr.Code),
		zap.Error(err),
	)
}

func (h *Handler) actor(c *gin.Context) (rbac.Actor, bool) {
	actor, ok := rbac.ActorFromContext(c)
	if !ok {
		h.writeServiceError(c, apperror.ErrForbidden)
	}
	return actor, ok
}

func (h *Handler) Allocate(c *gin.Context) {
	h.post(c, h.service.Allocate)
}

func (h *Handler) CarryForward(c *gin.Context) {
	h.post(c, h.service.CarryForward)
}

func (h *Handler) post(c *gin.Context, op func(context.Context, rbac.Actor, PostRequest) (BalanceResponse, error)) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var req PostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("http ledger post validation failed", zap.Error(err))
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	resp, err := op(c.Request.Context(), actor, req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, resp, nil)
}

func (h *Handler) Adjust(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var req AdjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("http ledger adjust validation failed", zap.Error(err))
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	resp, err := h.service.Adjust(c.Request.Context(), actor, req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, resp, nil)
}

func queryYear(c *gin.Context) int {
	year, err := strconv.Atoi(c.Query("year"))
	if err != nil {
		return time.Now().UTC().Year()
	}
	return year
}

func (h *Handler) List(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	resp, err := h.service.ListBalances(c.Request.Context(), actor, c.Param("employee_id"), queryYear(c))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Get(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	resp, err := h.service.GetBalance(c.Request.Context(), actor, c.Param("employee_id"), c.Param("leave_type"), queryYear(c))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}
