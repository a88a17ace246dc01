// Package collector builds detector and synthesizer inputs from live Jira and
// GitHub data.
package collector

import (
	"context"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/rohankatakam/devai/internal/anomaly"
	"github.com/rohankatakam/devai/internal/github"
	"github.com/rohankatakam/devai/internal/jira"
	"github.com/rohankatakam/devai/internal/models"
)

// DefaultMaxTickets caps how many issues a project scan pulls
const DefaultMaxTickets = 200

// DefaultPRScan is how many recent pull requests are searched for a ticket key
const DefaultPRScan = 100

// snapshotFields are the Jira fields ToSnapshot reads
var snapshotFields = []string{"summary", "status", "assignee", "updated", "comment"}

// JiraSource is the subset of the Jira client used here
type JiraSource interface {
	SearchIssues(ctx context.Context, jql string, opts jira.SearchOptions) (*jira.SearchResult, error)
}

// Jira collects ticket snapshots
type Jira struct {
	source JiraSource
	logger logrus.FieldLogger
}

// NewJira creates a Jira collector
func NewJira(source JiraSource, logger logrus.FieldLogger) *Jira {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Jira{source: source, logger: logger}
}

// Snapshots returns up to max snapshots of the project's most recently
// updated issues, paging through search results
func (j *Jira) Snapshots(ctx context.Context, projectKey string, max int) ([]models.TicketSnapshot, []models.Diagnostic, error) {
	if max <= 0 {
		max = DefaultMaxTickets
	}
	jql := fmt.Sprintf("project = %q ORDER BY updated DESC", projectKey)

	var (
		snaps []models.TicketSnapshot
		diags []models.Diagnostic
	)
	for startAt := 0; len(snaps) < max; {
		page, err := j.source.SearchIssues(ctx, jql, jira.SearchOptions{
			StartAt:    startAt,
			MaxResults: min(max-len(snaps), jira.MaxSearchResults),
			Fields:     snapshotFields,
			Expand:     "changelog",
		})
		if err != nil {
			return nil, nil, err
		}
		if len(page.Issues) == 0 {
			break
		}

		s, d := jira.ToSnapshots(page.Issues)
		snaps = append(snaps, s...)
		diags = append(diags, d...)

		startAt += len(page.Issues)
		if startAt >= page.Total {
			break
		}
	}
	if len(snaps) > max {
		snaps = snaps[:max]
	}

	j.logger.WithFields(logrus.Fields{
		"project":     projectKey,
		"tickets":     len(snaps),
		"diagnostics": len(diags),
	}).Info("collected jira snapshots")
	return snaps, diags, nil
}

// GitHubSource is the subset of the GitHub client used here
type GitHubSource interface {
	ListPullRequests(ctx context.Context, owner, repo string, filter github.PullRequestFilter) ([]github.PullRequestDetail, error)
	ListPRCommits(ctx context.Context, owner, repo string, number int) ([]models.Commit, error)
	ListReviews(ctx context.Context, owner, repo string, number int) ([]models.Review, error)
	ListPRComments(ctx context.Context, owner, repo string, number int) ([]models.Comment, error)
}

// GitHub collects pull request activity
type GitHub struct {
	source     GitHubSource
	maxWorkers int
	scan       int
	logger     logrus.FieldLogger
}

// NewGitHub creates a GitHub collector
func NewGitHub(source GitHubSource, logger logrus.FieldLogger) *GitHub {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &GitHub{source: source, maxWorkers: 4, scan: DefaultPRScan, logger: logger}
}

// PullRequests returns the most recent pull requests in any state, for the
// missing-link detector
func (g *GitHub) PullRequests(ctx context.Context, owner, repo string, limit int) ([]models.PullRequest, error) {
	if limit <= 0 {
		limit = g.scan
	}
	details, err := g.source.ListPullRequests(ctx, owner, repo, github.PullRequestFilter{State: "all", Limit: limit})
	if err != nil {
		return nil, err
	}
	prs := make([]models.PullRequest, 0, len(details))
	for _, d := range details {
		prs = append(prs, d.PullRequest)
	}
	return prs, nil
}

type prActivity struct {
	commits  []models.Commit
	reviews  []models.Review
	comments []models.Comment
}

// Activity gathers the pull requests that mention ticketKey in their title,
// body or head branch, together with their commits, reviews and comments.
// Per-PR fetches run concurrently; results keep pull request order.
func (g *GitHub) Activity(ctx context.Context, owner, repo, ticketKey string, estimatedDays *int) (models.TicketActivity, error) {
	activity := models.TicketActivity{
		TicketID:      ticketKey,
		EstimatedDays: estimatedDays,
		Commits:       []models.Commit{},
		PRs:           []models.PullRequest{},
		Reviews:       []models.Review{},
		Comments:      []models.Comment{},
	}

	details, err := g.source.ListPullRequests(ctx, owner, repo, github.PullRequestFilter{State: "all", Limit: g.scan})
	if err != nil {
		return activity, err
	}
	for _, d := range details {
		pr := d.PullRequest
		if anomaly.MentionsKey(ticketKey, pr.Title) || anomaly.MentionsKey(ticketKey, pr.Body) || anomaly.MentionsKey(ticketKey, pr.HeadBranch) {
			activity.PRs = append(activity.PRs, pr)
		}
	}
	sort.SliceStable(activity.PRs, func(i, j int) bool {
		return activity.PRs[i].CreatedAt.Before(activity.PRs[j].CreatedAt)
	})

	results := make([]prActivity, len(activity.PRs))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.maxWorkers)
	for i, pr := range activity.PRs {
		eg.Go(func() error {
			commits, err := g.source.ListPRCommits(ctx, owner, repo, pr.Number)
			if err != nil {
				return err
			}
			reviews, err := g.source.ListReviews(ctx, owner, repo, pr.Number)
			if err != nil {
				return err
			}
			comments, err := g.source.ListPRComments(ctx, owner, repo, pr.Number)
			if err != nil {
				return err
			}
			results[i] = prActivity{commits: commits, reviews: reviews, comments: comments}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return activity, err
	}

	seen := make(map[string]bool)
	for _, r := range results {
		for _, c := range r.commits {
			if seen[c.SHA] {
				continue
			}
			seen[c.SHA] = true
			activity.Commits = append(activity.Commits, c)
		}
		activity.Reviews = append(activity.Reviews, r.reviews...)
		activity.Comments = append(activity.Comments, r.comments...)
	}

	g.logger.WithFields(logrus.Fields{
		"ticket":  ticketKey,
		"prs":     len(activity.PRs),
		"commits": len(activity.Commits),
	}).Info("collected github activity")
	return activity, nil
}
