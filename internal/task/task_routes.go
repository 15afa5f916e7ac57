package task

import (
	"go-opsportal/internal/middleware"
	"go-opsportal/internal/rbac"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	rbacService middleware.RBACService,
	idempotency gin.HandlerFunc,
	authn ...gin.HandlerFunc,
) {
	tasks := r.Group("/tasks")
	tasks.Use(authn...)
	{
		tasks.GET("/assigned", middleware.RBACAuthorize(rbacService, rbac.TaskView), handler.ListAssigned)
		tasks.GET("/:id", middleware.RBACAuthorize(rbacService, rbac.TaskView), handler.GetByID)
		tasks.POST("", middleware.RBACAuthorize(rbacService, rbac.TaskCreate), idempotency, handler.Create)
		tasks.POST("/:id/resolve", idempotency, handler.Resolve)
		tasks.POST("/:id/delegate", middleware.RBACAuthorize(rbacService, rbac.TaskAssign), idempotency, handler.Delegate)
	}
}
