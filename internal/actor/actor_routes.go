package actor

import "github.com/gin-gonic/gin"

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, authn ...gin.HandlerFunc) {
	actors := r.Group("/actors")
	actors.Use(authn...)
	{
		actors.GET("/:id", handler.GetByID)
		actors.PUT("/:id/permission-overrides", handler.UpdateOverrides)
		actors.PUT("/:id/status", handler.UpdateStatus)
	}
}
