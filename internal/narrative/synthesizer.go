// Package narrative turns a ticket's GitHub activity into a timeline, a
// templated development story and a short list of insights. Output is a pure
// function of the input activity.
package narrative

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/rohankatakam/devai/internal/models"
)

const maxNamedAuthors = 3

var blockerKeywords = []string{"blocked", "blocker", "waiting", "dependency"}

// Synthesizer generates narratives for batches of tickets
type Synthesizer struct {
	logger logrus.FieldLogger
}

// NewSynthesizer creates a synthesizer; a nil logger uses the standard logger
func NewSynthesizer(logger logrus.FieldLogger) *Synthesizer {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Synthesizer{logger: logger}
}

// Generate builds one narrative per ticket, in input order
func (s *Synthesizer) Generate(activities []models.TicketActivity) []models.TicketNarrative {
	out := make([]models.TicketNarrative, 0, len(activities))
	for _, a := range activities {
		n := Synthesize(a)
		s.logger.WithFields(logrus.Fields{
			"ticket":   a.TicketID,
			"events":   len(n.Timeline),
			"status":   n.Status,
			"commits":  len(a.Commits),
			"pull_req": len(a.PRs),
		}).Debug("narrative generated")
		out = append(out, n)
	}
	return out
}

// Synthesize builds the narrative for one ticket
func Synthesize(a models.TicketActivity) models.TicketNarrative {
	timeline := BuildTimeline(a)

	title := fmt.Sprintf("Development for %s", a.TicketID)
	if len(a.PRs) > 0 {
		title = a.PRs[0].Title
	}
	status := models.StatusInProgress
	if countMerged(a.PRs) > 0 {
		status = models.StatusDone
	}

	var estimate *int
	if a.EstimatedDays != nil {
		v := *a.EstimatedDays
		estimate = &v
	}

	return models.TicketNarrative{
		TicketID:      a.TicketID,
		TicketTitle:   title,
		EstimatedDays: estimate,
		ActualDays:    len(a.Commits),
		Status:        status,
		Narrative:     Text(a, timeline),
		Timeline:      timeline,
		Insights:      ExtractInsights(a),
	}
}

// Text renders the narrative sentences for a ticket and its timeline
func Text(a models.TicketActivity, timeline []models.TimelineEvent) string {
	if len(timeline) == 0 && len(a.Commits) == 0 {
		return fmt.Sprintf("No activity found for %s.", a.TicketID)
	}

	var parts []string
	merged := countMerged(a.PRs)

	if merged > 0 {
		parts = append(parts, fmt.Sprintf("This ticket was completed with %d commits across %d pull request(s).", len(a.Commits), len(a.PRs)))
	} else {
		parts = append(parts, fmt.Sprintf("This ticket is in progress with %d commits so far.", len(a.Commits)))
	}

	if len(a.Commits) > 0 {
		authors := commitAuthors(a.Commits)
		switch {
		case len(authors) == 1:
			parts = append(parts, fmt.Sprintf("Development was handled by %s.", authors[0]))
		case len(authors) > 1:
			named := authors
			if len(named) > maxNamedAuthors {
				named = named[:maxNamedAuthors]
			}
			parts = append(parts, fmt.Sprintf("Development involved %d contributors: %s.", len(authors), strings.Join(named, ", ")))
		}
	}

	if len(a.Reviews) > 0 {
		changes := countReviews(a.Reviews, models.ReviewChangesRequested)
		approvals := countReviews(a.Reviews, models.ReviewApproved)
		if changes > 0 {
			parts = append(parts, fmt.Sprintf("Code review requested %d round(s) of changes before approval.", changes))
		} else if approvals > 0 {
			parts = append(parts, fmt.Sprintf("Code review approved with %d approval(s).", approvals))
		}
	}

	for _, pr := range a.PRs {
		if pr.Merged() {
			parts = append(parts, fmt.Sprintf("Work was merged and completed on %s.", pr.MergedAt.UTC().Format("2006-01-02")))
			break
		}
	}

	return strings.Join(parts, " ")
}

// ExtractInsights derives delays, blockers and resolutions from the activity
func ExtractInsights(a models.TicketActivity) models.NarrativeInsights {
	insights := models.NarrativeInsights{
		Delays:      []string{},
		Blockers:    []string{},
		Resolutions: []string{},
	}

	if changes := countReviews(a.Reviews, models.ReviewChangesRequested); changes > 1 {
		insights.Delays = append(insights.Delays, fmt.Sprintf("Multiple review cycles (%d) required changes", changes))
	}

	for _, c := range a.Comments {
		if mentionsBlocker(c.Body) {
			insights.Blockers = append(insights.Blockers, "Potential blocker mentioned in PR comments")
			break
		}
	}

	if merged := countMerged(a.PRs); merged > 0 {
		insights.Resolutions = append(insights.Resolutions, fmt.Sprintf("Successfully merged %d pull request(s)", merged))
	}
	return insights
}

func mentionsBlocker(body string) bool {
	lower := strings.ToLower(body)
	for _, kw := range blockerKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// commitAuthors returns distinct commit identities in first-seen order
func commitAuthors(commits []models.Commit) []string {
	seen := make(map[string]bool)
	var authors []string
	for _, c := range commits {
		id := c.Identity()
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		authors = append(authors, id)
	}
	return authors
}

func countMerged(prs []models.PullRequest) int {
	n := 0
	for _, pr := range prs {
		if pr.Merged() {
			n++
		}
	}
	return n
}

func countReviews(reviews []models.Review, state models.ReviewState) int {
	n := 0
	for _, r := range reviews {
		if r.State == state {
			n++
		}
	}
	return n
}
