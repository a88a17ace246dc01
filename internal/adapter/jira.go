package adapter

import (
	"fmt"

	"github.com/rohankatakam/devai/internal/models"
)

// ParseIssues converts Jira issue records into ticket snapshots. Both the
// flattened shape produced by the MCP tools (key, status, assignee, updated,
// status_history, comments_count) and the raw REST shape (fields.*,
// changelog.histories) are accepted.
func ParseIssues(raw []map[string]any) ([]models.TicketSnapshot, []models.Diagnostic) {
	tickets := make([]models.TicketSnapshot, 0, len(raw))
	var diags []models.Diagnostic

	for i, issue := range raw {
		record := fmt.Sprintf("issues[%d]", i)
		ticket, issueDiags, ok := ParseIssue(record, issue)
		diags = append(diags, issueDiags...)
		if ok {
			tickets = append(tickets, ticket)
		}
	}
	return tickets, diags
}

// ParseIssue converts one issue record. ok is false when the record has no
// key and cannot be identified.
func ParseIssue(record string, issue map[string]any) (models.TicketSnapshot, []models.Diagnostic, bool) {
	var diags []models.Diagnostic

	key := str(issue, "key")
	if key == "" {
		return models.TicketSnapshot{}, []models.Diagnostic{diag(record, "missing issue key")}, false
	}
	record = fmt.Sprintf("%s (%s)", record, key)

	ticket := models.TicketSnapshot{Key: key}
	if fields, ok := issue["fields"].(map[string]any); ok {
		ticket.Summary = str(fields, "summary")
		ticket.Status = models.Status(named(fields, "status"))
		ticket.Assignee = named(fields, "assignee")
		ticket.CommentsCount = commentCount(fields)
	} else {
		ticket.Summary = str(issue, "summary")
		ticket.Status = models.Status(named(issue, "status"))
		ticket.Assignee = named(issue, "assignee")
		ticket.CommentsCount, _ = integer(issue, "comments_count")
	}

	updated := firstStr(issue, []string{"updated"}, []string{"fields", "updated"})
	if updated != "" {
		t, err := ParseTime(updated)
		if err != nil {
			diags = append(diags, diag(record, "updated: %v", err))
		} else {
			ticket.Updated = &t
		}
	}

	if history := objects(issue, "status_history"); history != nil {
		ticket.StatusHistory, diags = appendFlatHistory(ticket.StatusHistory, diags, record, history)
	} else {
		ticket.StatusHistory, diags = appendChangelog(ticket.StatusHistory, diags, record, objects(issue, "changelog", "histories"))
	}
	if ticket.StatusHistory == nil {
		ticket.StatusHistory = []models.StatusTransition{}
	}

	return ticket, diags, true
}

func appendFlatHistory(out []models.StatusTransition, diags []models.Diagnostic, record string, history []map[string]any) ([]models.StatusTransition, []models.Diagnostic) {
	for j, entry := range history {
		date, _, err := timeAt(entry, "date")
		if err != nil || date.IsZero() {
			diags = append(diags, diag(fmt.Sprintf("%s status_history[%d]", record, j), "invalid transition date %q", str(entry, "date")))
			continue
		}
		out = append(out, models.StatusTransition{
			From:   str(entry, "from"),
			To:     models.Status(str(entry, "to")),
			Date:   date,
			Author: named(entry, "author"),
		})
	}
	return out, diags
}

// appendChangelog keeps only changelog items that changed the status field
func appendChangelog(out []models.StatusTransition, diags []models.Diagnostic, record string, histories []map[string]any) ([]models.StatusTransition, []models.Diagnostic) {
	for j, h := range histories {
		items := objects(h, "items")
		var statusItems []map[string]any
		for _, item := range items {
			if str(item, "field") == "status" {
				statusItems = append(statusItems, item)
			}
		}
		if len(statusItems) == 0 {
			continue
		}

		date, _, err := timeAt(h, "created")
		if err != nil || date.IsZero() {
			diags = append(diags, diag(fmt.Sprintf("%s changelog[%d]", record, j), "invalid history date %q", str(h, "created")))
			continue
		}
		author := named(h, "author")
		for _, item := range statusItems {
			out = append(out, models.StatusTransition{
				From:   str(item, "fromString"),
				To:     models.Status(str(item, "toString")),
				Date:   date,
				Author: author,
			})
		}
	}
	return out, diags
}

func commentCount(fields map[string]any) int {
	if n, ok := integer(fields, "comment", "total"); ok {
		return n
	}
	return len(objects(fields, "comment", "comments"))
}
