package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/rohankatakam/devai/internal/anomaly"
	"github.com/rohankatakam/devai/internal/dashboard"
	"github.com/rohankatakam/devai/internal/http/handler"
	"github.com/rohankatakam/devai/internal/http/middleware"
	"github.com/rohankatakam/devai/internal/narrative"
	"github.com/rohankatakam/devai/internal/store"
)

// Version is reported by the root route
const Version = "0.1.0"

// Dependencies are the services the routes delegate to. Chat may be nil.
type Dependencies struct {
	Engine      *anomaly.Engine
	Synthesizer *narrative.Synthesizer
	Anomalies   *store.AnomalyStore
	Narratives  *store.NarrativeStore
	Hub         *dashboard.Hub
	Chat        handler.Completer
	Logger      logrus.FieldLogger
}

type RouterConfig struct {
	CORSOrigins []string
}

// New builds the engine with the standard middleware chain
func New(deps Dependencies, cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery(deps.Logger))
	router.Use(middleware.Logger(deps.Logger))
	router.Use(middleware.CORS(cfg.CORSOrigins))

	SetupRoutes(router, deps)
	return router
}

func SetupRoutes(router *gin.Engine, deps Dependencies) {
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "DevAI Manager API", "version": Version, "docs": "/docs"})
	})
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	api := router.Group("/api")
	{
		anomalyHandler := handler.NewAnomalyHandler(deps.Engine, deps.Anomalies, deps.Logger)
		AnomalyRouter(api.Group("/anomalies"), anomalyHandler)

		narrativeHandler := handler.NewNarrativeHandler(deps.Synthesizer, deps.Narratives, deps.Logger)
		NarrativeRouter(api.Group("/narratives"), narrativeHandler)

		chatHandler := handler.NewChatHandler(deps.Chat, deps.Logger)
		ChatRouter(api, chatHandler)

		dashboardHandler := handler.NewDashboardHandler(deps.Hub)
		DashboardRouter(api.Group("/dashboard"), dashboardHandler)
		api.GET("/stats", dashboardHandler.Stats)
	}
}
