package router

import (
	"github.com/gin-gonic/gin"

	"github.com/rohankatakam/devai/internal/http/handler"
)

func ChatRouter(router *gin.RouterGroup, handler *handler.ChatHandler) {
	router.POST("/chat", handler.Chat)
}
