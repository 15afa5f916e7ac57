package ledger

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the balance endpoints. idempotency guards the
// postings so a retried request does not post twice.
func RegisterRoutes(r *gin.RouterGroup, handler *Handler, idempotency gin.HandlerFunc, authn ...gin.HandlerFunc) {
	balances := r.Group("/leave-balances")
	balances.Use(authn...)
	{
		balances.GET("/:employee_id", handler.List)
		balances.GET("/:employee_id/:leave_type", handler.Get)
		balances.POST("/allocations", idempotency, handler.Allocate)
		balances.POST("/carry-forwards", idempotency, handler.CarryForward)
		balances.POST("/adjustments", idempotency, handler.Adjust)
	}
}
