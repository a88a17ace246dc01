package anomaly

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rohankatakam/devai/internal/models"
)

// StaleDetector flags in-progress tickets with no recent update
type StaleDetector struct{}

func (StaleDetector) Name() string { return "stale_ticket" }

func (d StaleDetector) Detect(now time.Time, in Input) ([]models.Anomaly, []models.Diagnostic) {
	var out []models.Anomaly
	diags := eachTicket(d.Name(), in.Tickets, func(t models.TicketSnapshot) {
		if !models.StaleStatuses.Contains(t.Status) || t.Updated == nil {
			return
		}
		days := wholeDays(now, *t.Updated)
		if days < StaleMediumDays {
			return
		}
		severity := models.SeverityMedium
		if days >= StaleHighDays {
			severity = models.SeverityHigh
		}

		assignee := t.Assignee
		if assignee == "" {
			assignee = "assignee"
		}
		out = append(out, models.Anomaly{
			ID:       "ANOM-STALE-" + t.Key,
			Type:     models.AnomalyStaleTicket,
			Severity: severity,
			Title:    fmt.Sprintf("Ticket %s in Progress with No Recent Activity", t.Key),
			Description: fmt.Sprintf("%s has been %q for %d days with no updates",
				t.Key, string(t.Status), days),
			AffectedItems: models.AffectedItems{
				Tickets:    []string{t.Key},
				Developers: developers(t.Assignee),
			},
			DetectedAt: now,
			AIAnalysis: fmt.Sprintf("This ticket shows signs of being blocked or abandoned. "+
				"The assignee has not made any updates in %d days despite it being marked as %q. "+
				"This pattern often indicates blocked work, underestimated complexity, or shifted priorities.",
				days, string(t.Status)),
			SuggestedActions: []string{
				fmt.Sprintf("Reach out to %s to understand current status", assignee),
				"Check if there are blocking dependencies",
				"Consider moving ticket back to backlog if work hasn't started",
				"Update ticket with current blockers or progress notes",
			},
			Metrics: []models.Metric{
				{Label: "Days Inactive", Value: strconv.Itoa(days), Trend: models.TrendUp},
			},
		})
	})
	return out, diags
}

// ScopeCreepDetector flags completed tickets that keep changing status
type ScopeCreepDetector struct{}

func (ScopeCreepDetector) Name() string { return "scope_creep" }

func (d ScopeCreepDetector) Detect(now time.Time, in Input) ([]models.Anomaly, []models.Diagnostic) {
	var out []models.Anomaly
	diags := eachTicket(d.Name(), in.Tickets, func(t models.TicketSnapshot) {
		if !models.DoneStatuses.Contains(t.Status) || len(t.StatusHistory) == 0 {
			return
		}
		count, ok := transitionsAfterDone(t.StatusHistory)
		if !ok || count < ScopeCreepMinTransitions {
			return
		}

		out = append(out, models.Anomaly{
			ID:          "ANOM-SCOPE-" + t.Key,
			Type:        models.AnomalyScopeCreep,
			Severity:    models.SeverityHigh,
			Title:       fmt.Sprintf("Ticket %s Marked Done but Receiving Updates", t.Key),
			Description: fmt.Sprintf("%s was marked \"Done\" but has %d status changes since then", t.Key, count),
			AffectedItems: models.AffectedItems{
				Tickets:    []string{t.Key},
				Developers: developers(t.Assignee),
			},
			DetectedAt: now,
			AIAnalysis: "This completed ticket is showing unexpected continued activity. " +
				"This pattern indicates either significant bugs discovered post-completion, " +
				"incomplete scope in the original ticket, or new requirements being added without creating a new ticket. " +
				"This makes it difficult to track true completion metrics and can hide scope creep.",
			SuggestedActions: []string{
				"Review changes to determine if they are bug fixes or new features",
				"Create new tickets for any new feature work",
				"Consider reopening the ticket if work is substantial",
				"Update ticket documentation to reflect actual work completed",
			},
			Metrics: []models.Metric{
				{Label: "Changes After Done", Value: strconv.Itoa(count), Trend: models.TrendUp},
			},
		})
	})
	return out, diags
}

// transitionsAfterDone finds the first transition into a done status and
// counts the transitions strictly later than it, so a ticket that is reopened
// and closed again reports every change since it was first marked done. ok is
// false when the ticket never reached a done status.
func transitionsAfterDone(history []models.StatusTransition) (count int, ok bool) {
	sorted := make([]models.StatusTransition, len(history))
	copy(sorted, history)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	var doneAt time.Time
	for i := range sorted {
		if models.DoneStatuses.Contains(sorted[i].To) {
			doneAt = sorted[i].Date
			ok = true
			break
		}
	}
	if !ok {
		return 0, false
	}
	for _, tr := range sorted {
		if tr.Date.After(doneAt) {
			count++
		}
	}
	return count, true
}

// StatusMismatchDetector flags tickets sitting in review without activity
type StatusMismatchDetector struct{}

func (StatusMismatchDetector) Name() string { return "status_mismatch" }

func (d StatusMismatchDetector) Detect(now time.Time, in Input) ([]models.Anomaly, []models.Diagnostic) {
	var out []models.Anomaly
	diags := eachTicket(d.Name(), in.Tickets, func(t models.TicketSnapshot) {
		if !models.ReviewStatuses.Contains(t.Status) || t.Updated == nil {
			return
		}
		days := wholeDays(now, *t.Updated)
		if days < ReviewStaleDays {
			return
		}

		out = append(out, models.Anomaly{
			ID:          "ANOM-STATUS-" + t.Key,
			Type:        models.AnomalyStatusMismatch,
			Severity:    models.SeverityHigh,
			Title:       fmt.Sprintf("Ticket %s in Review with No Recent Activity", t.Key),
			Description: fmt.Sprintf("%s status is %q but no activity for %d days", t.Key, string(t.Status), days),
			AffectedItems: models.AffectedItems{
				Tickets:    []string{t.Key},
				Developers: developers(t.Assignee),
			},
			DetectedAt: now,
			AIAnalysis: fmt.Sprintf("Ticket has been in %q status for %d days with no recent activity. "+
				"This suggests the PR may not have been created yet, the review process has stalled, "+
				"or the status was changed prematurely. This prevents automated workflows from functioning properly.",
				string(t.Status), days),
			SuggestedActions: []string{
				"Verify if a PR exists for this ticket",
				"Check if review is happening through another channel",
				"Move ticket back to \"In Progress\" if PR not yet created",
				"Establish clear criteria for moving tickets to review status",
			},
			Metrics: []models.Metric{
				{Label: "Days in Review", Value: strconv.Itoa(days), Trend: models.TrendUp},
			},
		})
	})
	return out, diags
}

// TaskSwitchingDetector flags assignees juggling too many active tickets
type TaskSwitchingDetector struct{}

func (TaskSwitchingDetector) Name() string { return "task_switching" }

func (d TaskSwitchingDetector) Detect(now time.Time, in Input) ([]models.Anomaly, []models.Diagnostic) {
	var order []string
	byAssignee := make(map[string][]string)
	for _, t := range in.Tickets {
		if t.Assignee == "" || !models.ActiveStatuses.Contains(t.Status) {
			continue
		}
		if _, seen := byAssignee[t.Assignee]; !seen {
			order = append(order, t.Assignee)
		}
		byAssignee[t.Assignee] = append(byAssignee[t.Assignee], t.Key)
	}

	var out []models.Anomaly
	for _, dev := range order {
		tickets := byAssignee[dev]
		if len(tickets) < TaskSwitchingMinTickets {
			continue
		}
		affected := tickets
		if len(affected) > TaskSwitchingAffectedLimit {
			affected = affected[:TaskSwitchingAffectedLimit]
		}

		out = append(out, models.Anomaly{
			ID:          "ANOM-SWITCH-" + strings.ReplaceAll(dev, " ", "-"),
			Type:        models.AnomalyTaskSwitching,
			Severity:    models.SeverityMedium,
			Title:       fmt.Sprintf("High Task Switching Detected for %s", dev),
			Description: fmt.Sprintf("%s is working on %d tickets simultaneously", dev, len(tickets)),
			AffectedItems: models.AffectedItems{
				Tickets:    append([]string(nil), affected...),
				Developers: []string{dev},
			},
			DetectedAt: now,
			AIAnalysis: fmt.Sprintf("%s is showing a high degree of task switching, with %d tickets in progress. "+
				"While activity seems healthy, the lack of ticket completion suggests fragmented focus. "+
				"This pattern typically indicates frequent context switching reducing productivity, "+
				"being pulled into multiple urgent issues, or helping others across multiple features.",
				dev, len(tickets)),
			SuggestedActions: []string{
				fmt.Sprintf("Review %s's workload and help prioritize tasks", dev),
				"Identify if task switching is due to blockers or interruptions",
				"Consider assigning fewer concurrent tickets",
				fmt.Sprintf("Check if %s is being pulled into too many support requests", dev),
				"Schedule 1-on-1 to understand context switching drivers",
			},
			Metrics: []models.Metric{
				{Label: "Active Tickets", Value: strconv.Itoa(len(tickets)), Trend: models.TrendUp},
			},
		})
	}
	return out, nil
}
