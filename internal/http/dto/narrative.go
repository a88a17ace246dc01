package dto

import "github.com/rohankatakam/devai/internal/models"

// GenerateNarrativesRequest carries one activity record per ticket in the
// shape produced by the GitHub tools ({ticketId, commits, prs, reviews,
// comments}).
type GenerateNarrativesRequest struct {
	Repository string           `json:"repository" binding:"required"`
	Tickets    []map[string]any `json:"tickets" binding:"required"`
}

type GenerateNarrativesResponse struct {
	Status      string                   `json:"status"`
	Message     string                   `json:"message"`
	Narratives  []models.TicketNarrative `json:"narratives"`
	Diagnostics []models.Diagnostic      `json:"diagnostics"`
}

type ListNarrativesResponse struct {
	Status     string                   `json:"status"`
	Narratives []models.TicketNarrative `json:"narratives"`
	Count      int                      `json:"count"`
}

type GetNarrativeResponse struct {
	Status    string                 `json:"status"`
	Narrative models.TicketNarrative `json:"narrative"`
}
