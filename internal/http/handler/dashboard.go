package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rohankatakam/devai/internal/dashboard"
	"github.com/rohankatakam/devai/internal/http/dto"
)

// emptyDashboardMessage tells operators how to populate the dashboard
const emptyDashboardMessage = "No issues loaded yet. Use MCP tool 'github_send_issues_to_dashboard' to load issues."

type DashboardHandler struct {
	hub *dashboard.Hub
}

func NewDashboardHandler(hub *dashboard.Hub) *DashboardHandler {
	return &DashboardHandler{hub: hub}
}

func (h *DashboardHandler) SyncIssues(c *gin.Context) {
	var req dashboard.SyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}

	snap := h.hub.Sync(req.Repository, req.Issues)
	c.JSON(http.StatusOK, dto.SyncIssuesResponse{
		Status:    "success",
		Message:   fmt.Sprintf("Received %d issues from %s", len(req.Issues), req.Repository),
		Count:     len(req.Issues),
		Timestamp: snap.LastUpdated,
	})
}

func (h *DashboardHandler) Issues(c *gin.Context) {
	snap := h.hub.Snapshot()
	if len(snap.Issues) == 0 {
		c.JSON(http.StatusOK, dto.DashboardIssuesResponse{
			Issues:  snap.Issues,
			Message: emptyDashboardMessage,
		})
		return
	}
	c.JSON(http.StatusOK, dto.DashboardIssuesResponse{
		Issues:      snap.Issues,
		Repository:  snap.Repository,
		LastUpdated: snap.LastUpdated,
		Count:       len(snap.Issues),
	})
}

func (h *DashboardHandler) WebSocket(c *gin.Context) {
	h.hub.ServeWS(c.Writer, c.Request)
}

func (h *DashboardHandler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.hub.Stats())
}
