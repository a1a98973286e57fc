package v1

import (
	"github.com/gin-gonic/gin"

	"replygate/internal/interfaces/httpserver/handlers"
)

func registerPolicyRoutes(router gin.IRoutes, handler *handlers.PolicyHandler) {
	router.GET("/tenants/:tenant_id/policies/decision", handler.GetDecisionPolicy)
	router.PATCH("/tenants/:tenant_id/policies/decision", handler.PatchDecisionPolicy)
	router.GET("/tenants/:tenant_id/policies/delay", handler.GetDelayPolicy)
	router.PATCH("/tenants/:tenant_id/policies/delay", handler.PatchDelayPolicy)
	router.GET("/tenants/:tenant_id/policies/working-hours", handler.GetWorkingHours)
}
