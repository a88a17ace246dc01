package adapter

import (
	"fmt"

	"github.com/rohankatakam/devai/internal/models"
)

// ParseActivity converts one ticket's GitHub activity record
// ({ticketId, estimatedDays?, commits, prs, reviews, comments}).
func ParseActivity(raw map[string]any) (models.TicketActivity, []models.Diagnostic) {
	activity := models.TicketActivity{
		TicketID: firstStr(raw, []string{"ticketId"}, []string{"ticket_id"}),
	}
	if days, ok := integer(raw, "estimatedDays"); ok {
		activity.EstimatedDays = &days
	} else if days, ok := integer(raw, "estimated_days"); ok {
		activity.EstimatedDays = &days
	}

	prefix := activity.TicketID
	if prefix == "" {
		prefix = "ticket"
	}

	var diags, d []models.Diagnostic
	activity.Commits, d = ParseCommits(prefix+" commits", objects(raw, "commits"))
	diags = append(diags, d...)
	activity.PRs, d = ParsePullRequests(prefix+" prs", objects(raw, "prs"))
	diags = append(diags, d...)
	activity.Reviews, d = ParseReviews(prefix+" reviews", objects(raw, "reviews"))
	diags = append(diags, d...)
	activity.Comments, d = ParseComments(prefix+" comments", objects(raw, "comments"))
	diags = append(diags, d...)

	return activity, diags
}

// ParseCommits accepts the flat tool shape (sha, message, author,
// author_login, date) and the raw GitHub commit shape (commit.message,
// commit.author.{name,date}, author.login). A commit without a usable
// date is kept with a zero Date and reported.
func ParseCommits(prefix string, raw []map[string]any) ([]models.Commit, []models.Diagnostic) {
	commits := make([]models.Commit, 0, len(raw))
	var diags []models.Diagnostic

	for i, c := range raw {
		record := fmt.Sprintf("%s[%d]", prefix, i)
		dateStr := firstStr(c, []string{"date"}, []string{"commit", "author", "date"}, []string{"commit", "committer", "date"})
		date, err := ParseTime(dateStr)
		if err != nil {
			diags = append(diags, diag(record, "date: %v", err))
		}

		author := str(c, "author")
		if author == "" {
			author = str(c, "commit", "author", "name")
		}
		commits = append(commits, models.Commit{
			SHA:         str(c, "sha"),
			Message:     firstStr(c, []string{"message"}, []string{"commit", "message"}),
			Author:      author,
			AuthorLogin: firstStr(c, []string{"author_login"}, []string{"author", "login"}),
			Date:        date,
			URL:         firstStr(c, []string{"url"}, []string{"html_url"}),
		})
	}
	return commits, diags
}

// ParsePullRequests accepts both the flat tool shape and the raw GitHub PR
// shape. A PR needs a number and a creation time; a present but malformed
// merged_at also excludes it.
func ParsePullRequests(prefix string, raw []map[string]any) ([]models.PullRequest, []models.Diagnostic) {
	prs := make([]models.PullRequest, 0, len(raw))
	var diags []models.Diagnostic

	for i, p := range raw {
		record := fmt.Sprintf("%s[%d]", prefix, i)
		number, ok := integer(p, "number")
		if !ok {
			diags = append(diags, diag(record, "missing pull request number"))
			continue
		}
		record = fmt.Sprintf("%s (#%d)", record, number)

		created, err := ParseTime(str(p, "created_at"))
		if err != nil {
			diags = append(diags, diag(record, "created_at: %v", err))
			continue
		}

		pr := models.PullRequest{
			Number:     number,
			Title:      str(p, "title"),
			Body:       str(p, "body"),
			State:      str(p, "state"),
			Author:     firstStr(p, []string{"author"}, []string{"user", "login"}),
			HeadBranch: firstStr(p, []string{"head_branch"}, []string{"head", "ref"}),
			BaseBranch: firstStr(p, []string{"base_branch"}, []string{"base", "ref"}),
			CreatedAt:  created,
			URL:        firstStr(p, []string{"url"}, []string{"html_url"}),
		}
		pr.Additions, _ = integer(p, "additions")
		pr.Deletions, _ = integer(p, "deletions")

		merged, present, err := timeAt(p, "merged_at")
		if err != nil {
			diags = append(diags, diag(record, "merged_at: %v", err))
			continue
		}
		if present {
			pr.MergedAt = &merged
		}
		prs = append(prs, pr)
	}
	return prs, diags
}

// ParseReviews requires a known review state and a submission time
func ParseReviews(prefix string, raw []map[string]any) ([]models.Review, []models.Diagnostic) {
	reviews := make([]models.Review, 0, len(raw))
	var diags []models.Diagnostic

	for i, r := range raw {
		record := fmt.Sprintf("%s[%d]", prefix, i)
		state := models.ReviewState(str(r, "state"))
		if !state.Valid() {
			diags = append(diags, diag(record, "unknown review state %q", state))
			continue
		}
		submitted, err := ParseTime(str(r, "submitted_at"))
		if err != nil {
			diags = append(diags, diag(record, "submitted_at: %v", err))
			continue
		}
		prNumber, _ := integer(r, "pr_number")
		reviews = append(reviews, models.Review{
			PRNumber:    prNumber,
			Author:      firstStr(r, []string{"author"}, []string{"user", "login"}),
			State:       state,
			Body:        str(r, "body"),
			SubmittedAt: submitted,
		})
	}
	return reviews, diags
}

// ParseComments requires a creation time
func ParseComments(prefix string, raw []map[string]any) ([]models.Comment, []models.Diagnostic) {
	comments := make([]models.Comment, 0, len(raw))
	var diags []models.Diagnostic

	for i, c := range raw {
		record := fmt.Sprintf("%s[%d]", prefix, i)
		created, err := ParseTime(str(c, "created_at"))
		if err != nil {
			diags = append(diags, diag(record, "created_at: %v", err))
			continue
		}
		prNumber, _ := integer(c, "pr_number")
		comments = append(comments, models.Comment{
			PRNumber:  prNumber,
			Author:    firstStr(c, []string{"author"}, []string{"user", "login"}),
			Body:      str(c, "body"),
			CreatedAt: created,
		})
	}
	return comments, diags
}
