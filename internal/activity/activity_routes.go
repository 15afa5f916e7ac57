package activity

import (
	"go-opsportal/internal/middleware"
	"go-opsportal/internal/rbac"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, rbacService middleware.RBACService, authn ...gin.HandlerFunc) {
	group := r.Group("/activity")
	group.Use(authn...)
	{
		group.GET("/:aggregate_type/:aggregate_id", middleware.RBACAuthorize(rbacService, rbac.ReportView), handler.List)
	}
}
