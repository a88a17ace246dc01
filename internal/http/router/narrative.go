package router

import (
	"github.com/gin-gonic/gin"

	"github.com/rohankatakam/devai/internal/http/handler"
)

func NarrativeRouter(router *gin.RouterGroup, handler *handler.NarrativeHandler) {
	router.POST("/generate", handler.Generate)
	router.GET("/list", handler.List)
	router.GET("/:ticketId", handler.Get)
}
