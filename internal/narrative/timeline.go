package narrative

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rohankatakam/devai/internal/models"
)

const (
	commitTitleLimit = 100
	bodyLimit        = 200
	shortSHALength   = 7
	unknownAuthor    = "Unknown"
	defaultBase      = "main"
)

// BuildTimeline normalizes a ticket's commits, pull requests, reviews and
// comments into one event list ordered by timestamp. Events that share a
// timestamp keep their source order (commits, PRs, reviews, comments).
// Undated commits count toward the narrative but get no event.
func BuildTimeline(a models.TicketActivity) []models.TimelineEvent {
	events := make([]models.TimelineEvent, 0, len(a.Commits)+2*len(a.PRs)+len(a.Reviews)+len(a.Comments))

	for _, c := range a.Commits {
		if c.Date.IsZero() {
			continue
		}
		subject := firstLine(c.Message)
		events = append(events, models.TimelineEvent{
			Timestamp:   c.Date,
			Type:        models.EventCommit,
			Author:      orUnknown(c.Identity()),
			Title:       truncate(subject, commitTitleLimit),
			Description: subject,
			Details:     "Commit: " + truncate(c.SHA, shortSHALength),
		})
	}

	for _, pr := range a.PRs {
		verb := "opened"
		if pr.Merged() {
			verb = "merged"
		}
		events = append(events, models.TimelineEvent{
			Timestamp:   pr.CreatedAt,
			Type:        models.EventPR,
			Author:      orUnknown(pr.Author),
			Title:       fmt.Sprintf("PR #%d %s", pr.Number, verb),
			Description: pr.Title,
			Details:     fmt.Sprintf("%d additions, %d deletions", pr.Additions, pr.Deletions),
		})
		if pr.Merged() {
			base := pr.BaseBranch
			if base == "" {
				base = defaultBase
			}
			events = append(events, models.TimelineEvent{
				Timestamp:   *pr.MergedAt,
				Type:        models.EventPR,
				Author:      orUnknown(pr.Author),
				Title:       fmt.Sprintf("PR #%d merged", pr.Number),
				Description: "Merged to " + base,
			})
		}
	}

	for _, r := range a.Reviews {
		body := r.Body
		if body == "" {
			body = "Review submitted"
		}
		events = append(events, models.TimelineEvent{
			Timestamp:   r.SubmittedAt,
			Type:        models.EventReview,
			Author:      orUnknown(r.Author),
			Title:       fmt.Sprintf("PR #%d review: %s", r.PRNumber, r.State),
			Description: truncate(body, bodyLimit),
			Details:     fmt.Sprintf("State: %s", r.State),
		})
	}

	for _, c := range a.Comments {
		events = append(events, models.TimelineEvent{
			Timestamp:   c.CreatedAt,
			Type:        models.EventComment,
			Author:      orUnknown(c.Author),
			Title:       fmt.Sprintf("Comment on PR #%d", c.PRNumber),
			Description: truncate(c.Body, bodyLimit),
		})
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})
	return events
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// truncate cuts s to at most n runes
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func orUnknown(s string) string {
	if s == "" {
		return unknownAuthor
	}
	return s
}
