package models

import (
	"encoding/json"
	"time"
)

// AnomalyType identifies the rule that flagged an anomaly
type AnomalyType string

const (
	AnomalyStaleTicket    AnomalyType = "stale_ticket"
	AnomalyScopeCreep     AnomalyType = "scope_creep"
	AnomalyMissingLink    AnomalyType = "missing_link"
	AnomalyStatusMismatch AnomalyType = "status_mismatch"
	AnomalyTaskSwitching  AnomalyType = "task_switching"
)

// Valid reports whether t is a known anomaly type
func (t AnomalyType) Valid() bool {
	switch t {
	case AnomalyStaleTicket, AnomalyScopeCreep, AnomalyMissingLink, AnomalyStatusMismatch, AnomalyTaskSwitching:
		return true
	default:
		return false
	}
}

// Severity represents how urgently an anomaly needs attention
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// Valid reports whether s is a known severity
func (s Severity) Valid() bool {
	switch s {
	case SeverityHigh, SeverityMedium, SeverityLow:
		return true
	default:
		return false
	}
}

// Trend is the direction a metric is moving in; the zero value means absent
type Trend string

const (
	TrendNone   Trend = ""
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// Valid reports whether t is a known trend (absent included)
func (t Trend) Valid() bool {
	switch t {
	case TrendNone, TrendUp, TrendDown, TrendStable:
		return true
	default:
		return false
	}
}

// Metric is one labelled measurement attached to an anomaly
type Metric struct {
	Label string `json:"label"`
	Value string `json:"value"`
	Trend Trend  `json:"trend,omitempty"`
}

// AffectedItems lists the entities implicated by an anomaly
type AffectedItems struct {
	Tickets    []string `json:"tickets"`
	Developers []string `json:"developers"`
	PRs        []string `json:"prs"`
	Commits    []string `json:"commits"`
}

// MarshalJSON encodes nil lists as empty arrays
func (a AffectedItems) MarshalJSON() ([]byte, error) {
	type plain AffectedItems
	out := plain{
		Tickets:    nonNil(a.Tickets),
		Developers: nonNil(a.Developers),
		PRs:        nonNil(a.PRs),
		Commits:    nonNil(a.Commits),
	}
	return json.Marshal(out)
}

// Anomaly is a flagged workflow deviation
type Anomaly struct {
	ID               string        `json:"id"`
	Type             AnomalyType   `json:"type"`
	Severity         Severity      `json:"severity"`
	Title            string        `json:"title"`
	Description      string        `json:"description"`
	AffectedItems    AffectedItems `json:"affectedItems"`
	DetectedAt       time.Time     `json:"detectedAt"`
	AIAnalysis       string        `json:"aiAnalysis"`
	SuggestedActions []string      `json:"suggestedActions"`
	Metrics          []Metric      `json:"metrics"`
}

// Key returns the anomaly id
func (a Anomaly) Key() string { return a.ID }

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
