package middleware

import (
	"context"

	"go-opsportal/internal/rbac"
	"go-opsportal/internal/shared/apperror"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ActorResolver loads the permission-model view of an authenticated actor.
type ActorResolver interface {
	Resolve(ctx context.Context, id string) (rbac.Actor, error)
}

// ResolveActor turns the actor_id set by AuthMiddleware into an rbac.Actor
// stored on the gin context.
func ResolveActor(resolver ActorResolver, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.L()
	}
	logger = logger.Named("middleware.actor")

	return func(c *gin.Context) {
		actorID := c.GetString(ContextActorID)
		if actorID == "" {
			abortWithError(c, apperror.ErrUnauthenticated)
			return
		}

		actor, err := resolver.Resolve(c.Request.Context(), actorID)
		if err != nil {
			logger.Warn("resolve actor failed", zap.String("actor_id", actorID), zap.Error(err))
			abortWithError(c, err)
			return
		}

		rbac.SetActor(c, actor)
		c.Next()
	}
}
