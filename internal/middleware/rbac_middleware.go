package middleware

import (
	"go-opsportal/internal/rbac"
	"go-opsportal/internal/shared/apperror"

	"github.com/gin-gonic/gin"
)

// RBACService is the part of rbac.Service the route gate needs.
type RBACService interface {
	Enforce(actor rbac.Actor, perm rbac.Permission) (bool, error)
}

// RBACAuthorize is the coarse route gate. Services still run their own
// checks against the loaded entity.
func RBACAuthorize(service RBACService, perm rbac.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := rbac.ActorFromContext(c)
		if !ok {
			abortWithError(c, apperror.ErrUnauthenticated)
			return
		}

		allowed, err := service.Enforce(actor, perm)
		if err != nil {
			abortWithError(c, err)
			return
		}
		if !allowed {
			abortWithError(c, apperror.ErrUnauthorized)
			return
		}
		c.Next()
	}
}

// AuthorizeDecision gates approval routes with rbac.CanAuthorize, so admins
// and managers pass regardless of their overrides.
func AuthorizeDecision(allowedRoles []rbac.Role, perm rbac.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := rbac.ActorFromContext(c)
		if !ok {
			abortWithError(c, apperror.ErrUnauthenticated)
			return
		}
		if !rbac.CanAuthorize(actor, allowedRoles, perm) {
			abortWithError(c, apperror.ErrUnauthorized)
			return
		}
		c.Next()
	}
}
