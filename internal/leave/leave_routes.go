package leave

import (
	"go-opsportal/internal/middleware"
	"go-opsportal/internal/rbac"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the leave endpoints. authn resolves the actor;
// idempotency guards the state-changing POSTs.
func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	rbacService middleware.RBACService,
	idempotency gin.HandlerFunc,
	authn ...gin.HandlerFunc,
) {
	leaves := r.Group("/leaves")
	leaves.Use(authn...)
	{
		leaves.GET("", middleware.RBACAuthorize(rbacService, rbac.LeaveView), handler.List)
		leaves.GET("/:id", middleware.RBACAuthorize(rbacService, rbac.LeaveView), handler.GetByID)
		leaves.POST("", middleware.RBACAuthorize(rbacService, rbac.LeaveCreate), idempotency, handler.Submit)
		leaves.POST("/:id/approve", middleware.AuthorizeDecision(approverRoles, rbac.LeaveApprove), idempotency, handler.Approve)
		leaves.POST("/:id/reject", middleware.AuthorizeDecision(approverRoles, rbac.LeaveApprove), idempotency, handler.Reject)
		leaves.POST("/:id/cancel", idempotency, handler.Cancel)
		leaves.DELETE("/:id", middleware.RBACAuthorize(rbacService, rbac.LeaveManage), handler.Deactivate)
	}
}
