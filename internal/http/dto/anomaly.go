package dto

import "github.com/rohankatakam/devai/internal/models"

type JiraData struct {
	Issues     []map[string]any `json:"issues"`
	ProjectKey string           `json:"project_key"`
}

type GitHubData struct {
	PullRequests []map[string]any `json:"pull_requests"`
}

// DetectAnomaliesRequest is the body of POST /api/anomalies/detect.
// MaxAnomalies is a pointer so an explicit 0 can be told apart from absent.
type DetectAnomaliesRequest struct {
	JiraData     JiraData    `json:"jira_data" binding:"required"`
	GitHubData   *GitHubData `json:"github_data,omitempty"`
	MaxAnomalies *int        `json:"max_anomalies" binding:"omitempty,min=0"`
}

type DetectAnomaliesResponse struct {
	Status      string              `json:"status"`
	Message     string              `json:"message"`
	Anomalies   []models.Anomaly    `json:"anomalies"`
	Diagnostics []models.Diagnostic `json:"diagnostics"`
}

type ListAnomaliesResponse struct {
	Status    string           `json:"status"`
	Anomalies []models.Anomaly `json:"anomalies"`
	Count     int              `json:"count"`
}

type GetAnomalyResponse struct {
	Status  string         `json:"status"`
	Anomaly models.Anomaly `json:"anomaly"`
}
