package v1

import (
	"github.com/gin-gonic/gin"

	"replygate/internal/interfaces/httpserver/handlers"
)

func registerSuggestionRoutes(router gin.IRoutes, handler *handlers.SuggestionHandler) {
	router.POST("/suggestions", handler.Ingest)
	router.GET("/suggestions/:suggestion_id", handler.Get)
	router.GET("/suggestions/:suggestion_id/actions", handler.ListActions)
	router.POST("/suggestions/:suggestion_id/approve", handler.Approve)
	router.POST("/suggestions/:suggestion_id/edit", handler.Edit)
	router.POST("/suggestions/:suggestion_id/reject", handler.Reject)
	router.POST("/suggestions/:suggestion_id/escalate", handler.Escalate)
	router.GET("/conversations/:conversation_id/suggestions", handler.ListByConversation)
}
