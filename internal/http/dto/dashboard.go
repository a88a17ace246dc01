package dto

import (
	"time"

	"github.com/rohankatakam/devai/internal/models"
)

type SyncIssuesResponse struct {
	Status    string     `json:"status"`
	Message   string     `json:"message"`
	Count     int        `json:"count"`
	Timestamp *time.Time `json:"timestamp"`
}

type DashboardIssuesResponse struct {
	Issues      []models.DashboardIssue `json:"issues"`
	Repository  string                  `json:"repository,omitempty"`
	LastUpdated *time.Time              `json:"last_updated"`
	Count       int                     `json:"count,omitempty"`
	Message     string                  `json:"message,omitempty"`
}
