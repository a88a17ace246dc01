package models

import (
	"encoding/json"
	"time"
)

// EventType classifies a timeline event
type EventType string

const (
	EventCommit  EventType = "commit"
	EventPR      EventType = "pr"
	EventReview  EventType = "review"
	EventComment EventType = "comment"
)

// Valid reports whether t is a known event type
func (t EventType) Valid() bool {
	switch t {
	case EventCommit, EventPR, EventReview, EventComment:
		return true
	default:
		return false
	}
}

// TimelineEvent is one normalized, timestamped activity record
type TimelineEvent struct {
	Timestamp   time.Time `json:"timestamp"`
	Type        EventType `json:"type"`
	Author      string    `json:"author"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Details     string    `json:"details"`
}

// NarrativeInsights holds the delays, blockers and resolutions found for a ticket
type NarrativeInsights struct {
	Delays      []string `json:"delays"`
	Blockers    []string `json:"blockers"`
	Resolutions []string `json:"resolutions"`
}

// MarshalJSON encodes nil lists as empty arrays
func (n NarrativeInsights) MarshalJSON() ([]byte, error) {
	type plain NarrativeInsights
	return json.Marshal(plain{
		Delays:      nonNil(n.Delays),
		Blockers:    nonNil(n.Blockers),
		Resolutions: nonNil(n.Resolutions),
	})
}

// TicketNarrative is the synthesized development story of one ticket.
// EstimatedDays stays nil until an estimate source supplies it.
type TicketNarrative struct {
	TicketID      string            `json:"ticketId"`
	TicketTitle   string            `json:"ticketTitle"`
	EstimatedDays *int              `json:"estimatedDays"`
	ActualDays    int               `json:"actualDays"`
	Status        Status            `json:"status"`
	Narrative     string            `json:"narrative"`
	Timeline      []TimelineEvent   `json:"timeline"`
	Insights      NarrativeInsights `json:"insights"`
}

// Key returns the ticket id
func (n TicketNarrative) Key() string { return n.TicketID }

// DashboardIssue is the issue card shape rendered by the dashboard
type DashboardIssue struct {
	ID        string   `json:"id" binding:"required"`
	Title     string   `json:"title" binding:"required"`
	Status    string   `json:"status" binding:"required"`
	Assignee  *string  `json:"assignee"`
	Priority  string   `json:"priority"`
	CreatedAt string   `json:"createdAt"`
	Labels    []string `json:"labels"`
	URL       *string  `json:"url"`
}

// DashboardSnapshot is the last issue set pushed to the dashboard
type DashboardSnapshot struct {
	Issues      []DashboardIssue `json:"issues"`
	Repository  string           `json:"repository,omitempty"`
	LastUpdated *time.Time       `json:"last_updated"`
}

// ProjectStats summarizes dashboard issues by lifecycle bucket
type ProjectStats struct {
	TotalIssues  int `json:"totalIssues"`
	OpenIssues   int `json:"openIssues"`
	ClosedIssues int `json:"closedIssues"`
	InProgress   int `json:"inProgress"`
}
