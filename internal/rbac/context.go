package rbac

import "github.com/gin-gonic/gin"

// ContextActorKey is where the resolved Actor lives on the gin context.
const ContextActorKey = "actor"

func SetActor(c *gin.Context, actor Actor) {
	c.Set(ContextActorKey, actor)
}

func ActorFromContext(c *gin.Context) (Actor, bool) {
	v, ok := c.Get(ContextActorKey)
	if !ok {
		return Actor{}, false
	}
	actor, ok := v.(Actor)
	return actor, ok
}
