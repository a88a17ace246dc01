package dashboard

import (
	"strings"

	"github.com/rohankatakam/devai/internal/models"
)

var (
	openStates       = []string{"open", "to do", "todo", "backlog", "reopened"}
	closedStates     = []string{"closed", "done", "resolved"}
	inProgressStates = []string{"in progress", "in development", "in review", "review", "code review"}
)

// ComputeStats counts issues by normalized status. Statuses outside the known
// groups only count toward the total.
func ComputeStats(issues []models.DashboardIssue) models.ProjectStats {
	stats := models.ProjectStats{TotalIssues: len(issues)}
	for _, is := range issues {
		status := strings.ToLower(strings.TrimSpace(is.Status))
		switch {
		case contains(openStates, status):
			stats.OpenIssues++
		case contains(closedStates, status):
			stats.ClosedIssues++
		case contains(inProgressStates, status):
			stats.InProgress++
		}
	}
	return stats
}

// Stats computes statistics over the current snapshot
func (h *Hub) Stats() models.ProjectStats {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return ComputeStats(h.snapshot.Issues)
}

func contains(set []string, s string) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}
