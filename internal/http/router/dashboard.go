package router

import (
	"github.com/gin-gonic/gin"

	"github.com/rohankatakam/devai/internal/http/handler"
)

func DashboardRouter(router *gin.RouterGroup, handler *handler.DashboardHandler) {
	router.POST("/sync-issues", handler.SyncIssues)
	router.GET("/issues", handler.Issues)
	router.GET("/ws", handler.WebSocket)
}
