package router

import (
	"github.com/gin-gonic/gin"

	"github.com/rohankatakam/devai/internal/http/handler"
)

func AnomalyRouter(router *gin.RouterGroup, handler *handler.AnomalyHandler) {
	router.POST("/detect", handler.Detect)
	router.GET("/list", handler.List)
	router.GET("/:id", handler.Get)
}
