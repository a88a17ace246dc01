package output

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/rohankatakam/devai/internal/models"
)

func anomaly(id string, sev models.Severity) models.Anomaly {
	return models.Anomaly{
		ID:               id,
		Type:             models.AnomalyStaleTicket,
		Severity:         sev,
		Title:            "Ticket " + id + " stalled",
		Description:      "No updates for 9 days",
		AffectedItems:    models.AffectedItems{Tickets: []string{"PROJ-1"}, Developers: []string{"Alice"}},
		DetectedAt:       time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		SuggestedActions: []string{"Check in with Alice"},
	}
}

func TestQuietFormatter(t *testing.T) {
	est := 2
	tests := []struct {
		name     string
		report   *Report
		expected string
	}{
		{
			name:     "no anomalies",
			report:   &Report{},
			expected: "✅ No anomalies detected\n",
		},
		{
			name: "mixed severities",
			report: &Report{Anomalies: []models.Anomaly{
				anomaly("A", models.SeverityHigh), anomaly("B", models.SeverityLow), anomaly("C", models.SeverityHigh),
			}},
			expected: "⚠️  3 anomalies (2 high, 0 medium, 1 low)\nRun 'devai detect --format standard' for details\n",
		},
		{
			name: "narratives",
			report: &Report{Narratives: []models.TicketNarrative{
				{TicketID: "PROJ-1", EstimatedDays: &est, ActualDays: 5},
				{TicketID: "PROJ-2", ActualDays: 5},
			}},
			expected: "📖 2 narratives generated, 1 over estimate\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, (&QuietFormatter{}).Format(tt.report, &buf))
			assert.Equal(t, tt.expected, buf.String())
		})
	}
}

func TestStandardFormatter(t *testing.T) {
	var buf bytes.Buffer
	report := &Report{
		Subject:     "PROJ",
		Anomalies:   []models.Anomaly{anomaly("ANOM-STALE-PROJ-1", models.SeverityHigh)},
		Diagnostics: []models.Diagnostic{{Record: "jira_data.issues[3]", Reason: "missing issue key"}},
	}
	require.NoError(t, (&StandardFormatter{}).Format(report, &buf))

	out := buf.String()
	assert.Contains(t, out, "DevAI Analysis: PROJ")
	assert.Contains(t, out, "1. 🔴 [ANOM-STALE-PROJ-1] Ticket ANOM-STALE-PROJ-1 stalled")
	assert.Contains(t, out, "Affected: PROJ-1, Alice")
	assert.Contains(t, out, "- Check in with Alice")
	assert.Contains(t, out, "- jira_data.issues[3]: missing issue key")
}

func TestStructuredFormatters(t *testing.T) {
	report := &Report{Subject: "PROJ", Anomalies: []models.Anomaly{anomaly("A", models.SeverityMedium)}}

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, NewFormatter(FormatJSON).Format(report, &buf))

		var got map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
		first := got["anomalies"].([]any)[0].(map[string]any)
		assert.Equal(t, "medium", first["severity"])
		assert.NotContains(t, got, "narratives")
	})

	t.Run("yaml keeps json keys", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, NewFormatter(FormatYAML).Format(report, &buf))

		var got map[string]any
		require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
		first := got["anomalies"].([]any)[0].(map[string]any)
		assert.Equal(t, "A", first["id"])
		assert.Contains(t, first, "affectedItems")
	})
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("Table")
	require.NoError(t, err)
	assert.Equal(t, FormatStandard, f)

	f, err = ParseFormat("yaml")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)

	_, err = ParseFormat("xml")
	assert.Error(t, err)
}

func TestDefaultFormat(t *testing.T) {
	t.Setenv("CI", "")
	t.Setenv("DEVAI_AI_MODE", "1")
	assert.Equal(t, FormatJSON, DefaultFormat(nil))

	t.Setenv("DEVAI_AI_MODE", "")
	t.Setenv("CI", "true")
	assert.Equal(t, FormatStandard, DefaultFormat(nil))

	t.Setenv("CI", "")
	assert.Equal(t, FormatJSON, DefaultFormat(nil), "no terminal")
}
