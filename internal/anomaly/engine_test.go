package anomaly

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohankatakam/devai/internal/models"
)

func TestEngine_ScenarioStaleTicket(t *testing.T) {
	res := newTestEngine().Detect(Input{
		Tickets:      []models.TicketSnapshot{ticket("PROJ-1", models.StatusInProgress, daysAgo(8))},
		MaxAnomalies: DefaultMaxAnomalies,
	})

	require.Len(t, res.Anomalies, 1)
	a := res.Anomalies[0]
	assert.Equal(t, "ANOM-STALE-PROJ-1", a.ID)
	assert.Equal(t, models.AnomalyStaleTicket, a.Type)
	assert.Equal(t, models.SeverityHigh, a.Severity)
	assert.Equal(t, "Days Inactive", a.Metrics[0].Label)
	assert.Equal(t, "8", a.Metrics[0].Value)
	assert.Equal(t, fixedNow, a.DetectedAt)
}

func TestEngine_ScenarioScopeCreep(t *testing.T) {
	t0 := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	tk := ticket("PROJ-2", models.StatusDone, nil)
	tk.StatusHistory = []models.StatusTransition{
		{To: models.StatusInProgress, Date: t0},
		{To: models.StatusDone, Date: t0.Add(24 * time.Hour)},
		{To: models.StatusInProgress, Date: t0.Add(48 * time.Hour)},
		{To: models.StatusDone, Date: t0.Add(72 * time.Hour)},
	}
	res := newTestEngine().Detect(Input{Tickets: []models.TicketSnapshot{tk}, MaxAnomalies: 20})
	require.Len(t, res.Anomalies, 1)
	assert.Equal(t, models.AnomalyScopeCreep, res.Anomalies[0].Type)
	assert.Equal(t, "Changes After Done", res.Anomalies[0].Metrics[0].Label)
	assert.Equal(t, "2", res.Anomalies[0].Metrics[0].Value)
}

func TestEngine_ScenarioTaskSwitching(t *testing.T) {
	tickets := activeTickets("alice", 6)
	tickets[1].Status = models.StatusInReview
	tickets[4].Status = models.StatusInReview

	res := newTestEngine().Detect(Input{Tickets: tickets, MaxAnomalies: 20})

	require.Len(t, res.Anomalies, 1)
	a := res.Anomalies[0]
	assert.Equal(t, models.AnomalyTaskSwitching, a.Type)
	assert.Len(t, a.AffectedItems.Tickets, 5)
	assert.Equal(t, "Active Tickets", a.Metrics[0].Label)
	assert.Equal(t, "6", a.Metrics[0].Value)
}

func TestEngine_OrderAndTruncation(t *testing.T) {
	stale := ticket("PROJ-1", models.StatusInProgress, daysAgo(6))
	stale.Assignee = "alice"
	review := ticket("PROJ-3", models.StatusInReview, daysAgo(3))
	review.Assignee = "alice"
	tickets := append([]models.TicketSnapshot{stale, review}, activeTickets("alice", 3)...)
	prs := []models.PullRequest{{Number: 7, Title: "untracked"}}

	res := newTestEngine().Detect(Input{Tickets: tickets, PullRequests: prs, MaxAnomalies: 20})
	var types []models.AnomalyType
	for _, a := range res.Anomalies {
		types = append(types, a.Type)
	}
	assert.Equal(t, []models.AnomalyType{
		models.AnomalyStaleTicket,
		models.AnomalyStatusMismatch,
		models.AnomalyTaskSwitching,
		models.AnomalyMissingLink,
	}, types)

	res = newTestEngine().Detect(Input{Tickets: tickets, PullRequests: prs, MaxAnomalies: 2})
	require.Len(t, res.Anomalies, 2)
	assert.Equal(t, models.AnomalyStatusMismatch, res.Anomalies[1].Type)

	res = newTestEngine().Detect(Input{Tickets: tickets, MaxAnomalies: 0})
	assert.Empty(t, res.Anomalies)
	assert.NotNil(t, res.Anomalies)
}

type panicky struct{}

func (panicky) Name() string { return "panicky" }

func (panicky) Detect(now time.Time, in Input) ([]models.Anomaly, []models.Diagnostic) {
	var out []models.Anomaly
	diags := eachTicket("panicky", in.Tickets, func(t models.TicketSnapshot) {
		if t.Key == "BAD-1" {
			panic("boom")
		}
		out = append(out, models.Anomaly{ID: t.Key})
	})
	return out, diags
}

func TestEngine_RecoversPerTicket(t *testing.T) {
	e := NewEngine(WithClock(func() time.Time { return fixedNow }), WithDetectors(panicky{}))
	res := e.Detect(Input{
		Tickets: []models.TicketSnapshot{
			{Key: "OK-1"}, {Key: "BAD-1"}, {Key: "OK-2"},
		},
		MaxAnomalies: 20,
	})

	require.Len(t, res.Anomalies, 2)
	assert.Equal(t, "OK-2", res.Anomalies[1].ID)
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, "BAD-1", res.Diagnostics[0].Record)
	assert.Contains(t, res.Diagnostics[0].Reason, "boom")
}
