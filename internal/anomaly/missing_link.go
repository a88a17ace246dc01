package anomaly

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rohankatakam/devai/internal/models"
)

var issueKeyPattern = regexp.MustCompile(`\b([A-Z][A-Z0-9]+)-[0-9]+\b`)

// MissingLinkDetector flags pull requests that reference no Jira ticket in
// their title, body or head branch. It is a no-op when the input carries no
// GitHub data.
type MissingLinkDetector struct{}

func (MissingLinkDetector) Name() string { return "missing_link" }

func (d MissingLinkDetector) Detect(now time.Time, in Input) ([]models.Anomaly, []models.Diagnostic) {
	if in.PullRequests == nil {
		return nil, nil
	}

	var out []models.Anomaly
	for _, pr := range in.PullRequests {
		if ReferencesTicket(in.ProjectKey, pr.Title, pr.Body, pr.HeadBranch) {
			continue
		}
		ref := "#" + strconv.Itoa(pr.Number)
		out = append(out, models.Anomaly{
			ID:          fmt.Sprintf("ANOM-LINK-PR-%d", pr.Number),
			Type:        models.AnomalyMissingLink,
			Severity:    models.SeverityLow,
			Title:       fmt.Sprintf("Pull Request %s Has No Ticket Reference", ref),
			Description: fmt.Sprintf("PR %s %q does not mention any Jira ticket key", ref, pr.Title),
			AffectedItems: models.AffectedItems{
				PRs:        []string{ref},
				Developers: developers(pr.Author),
			},
			DetectedAt: now,
			AIAnalysis: "This pull request cannot be traced back to a ticket. " +
				"Untracked changes make it hard to connect code to planned work and skew delivery metrics.",
			SuggestedActions: []string{
				"Add the ticket key to the PR title or branch name",
				"Create a ticket if this work was unplanned",
			},
			Metrics: []models.Metric{
				{Label: "Lines Changed", Value: strconv.Itoa(pr.Additions + pr.Deletions)},
			},
		})
	}
	return out, nil
}

// ReferencesTicket reports whether any of the texts contains an issue key.
// With a non-empty project only keys of that project count.
func ReferencesTicket(project string, texts ...string) bool {
	for _, text := range texts {
		for _, m := range issueKeyPattern.FindAllStringSubmatch(text, -1) {
			if project == "" || strings.EqualFold(m[1], project) {
				return true
			}
		}
	}
	return false
}

// MentionsKey reports whether text contains exactly the given issue key
func MentionsKey(key, text string) bool {
	for _, m := range issueKeyPattern.FindAllString(text, -1) {
		if m == key {
			return true
		}
	}
	return false
}
