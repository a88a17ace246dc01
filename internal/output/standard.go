package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rohankatakam/devai/internal/models"
)

// StandardFormatter lists anomalies or narratives with their details
type StandardFormatter struct{}

func (f *StandardFormatter) Format(r *Report, w io.Writer) error {
	if r.Subject != "" {
		fmt.Fprintf(w, "🔍 DevAI Analysis: %s\n\n", r.Subject)
	}

	if len(r.Narratives) > 0 {
		writeNarratives(w, r.Narratives)
	} else if len(r.Anomalies) == 0 {
		fmt.Fprintf(w, "✅ No anomalies detected\n\n")
	} else {
		writeAnomalies(w, r.Anomalies)
	}

	if len(r.Diagnostics) > 0 {
		fmt.Fprintf(w, "Skipped records:\n")
		for _, d := range r.Diagnostics {
			fmt.Fprintf(w, "- %s: %s\n", d.Record, d.Reason)
		}
	}
	return nil
}

func writeAnomalies(w io.Writer, anomalies []models.Anomaly) {
	fmt.Fprintf(w, "Anomalies (%d):\n", len(anomalies))
	for i, a := range anomalies {
		fmt.Fprintf(w, "%d. %s [%s] %s\n", i+1, severityEmoji(a.Severity), a.ID, a.Title)
		fmt.Fprintf(w, "   %s\n", a.Description)
		if items := affected(a.AffectedItems); items != "" {
			fmt.Fprintf(w, "   Affected: %s\n", items)
		}
		for _, action := range a.SuggestedActions {
			fmt.Fprintf(w, "   - %s\n", action)
		}
	}
	fmt.Fprintf(w, "\n")
}

func writeNarratives(w io.Writer, narratives []models.TicketNarrative) {
	for _, n := range narratives {
		estimate := "no estimate"
		if n.EstimatedDays != nil {
			estimate = fmt.Sprintf("estimated %d days", *n.EstimatedDays)
		}
		fmt.Fprintf(w, "%s %s (%s)\n", n.TicketID, n.TicketTitle, n.Status)
		fmt.Fprintf(w, "   %d days actual, %s, %d timeline events\n", n.ActualDays, estimate, len(n.Timeline))
		fmt.Fprintf(w, "   %s\n", n.Narrative)
		for _, d := range n.Insights.Delays {
			fmt.Fprintf(w, "   ⏱  %s\n", d)
		}
		for _, b := range n.Insights.Blockers {
			fmt.Fprintf(w, "   🚧 %s\n", b)
		}
		fmt.Fprintf(w, "\n")
	}
}

func affected(items models.AffectedItems) string {
	var parts []string
	for _, group := range [][]string{items.Tickets, items.PRs, items.Developers} {
		parts = append(parts, group...)
	}
	return strings.Join(parts, ", ")
}

func severityEmoji(s models.Severity) string {
	switch s {
	case models.SeverityHigh:
		return "🔴"
	case models.SeverityMedium:
		return "⚠️ "
	case models.SeverityLow:
		return "ℹ️ "
	default:
		return "•"
	}
}

// JSONFormatter writes the report as indented JSON
type JSONFormatter struct{}

func (f *JSONFormatter) Format(r *Report, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// YAMLFormatter writes the report as YAML with the same keys as the JSON
// output. Models only carry json tags, so the report goes through a generic
// JSON round trip first.
type YAMLFormatter struct{}

func (f *YAMLFormatter) Format(r *Report, w io.Writer) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return fmt.Errorf("decode report: %w", err)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(generic); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}
