package v1

import (
	"github.com/gin-gonic/gin"

	"replygate/internal/interfaces/httpserver/handlers"
)

func registerDispatchRoutes(router gin.IRoutes, handler *handlers.DispatchHandler) {
	router.GET("/dispatch/jobs", handler.ListPending)
	router.POST("/dispatch/jobs/:message_id/cancel", handler.Cancel)
	router.GET("/dispatch/metrics", handler.Metrics)
}
