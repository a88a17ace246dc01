package github

import (
	"context"
	"fmt"
	"time"

	"github.com/google/go-github/v57/github"

	"github.com/rohankatakam/devai/internal/errors"
	"github.com/rohankatakam/devai/internal/models"
)

// Issue is a GitHub issue that is not a pull request
type Issue struct {
	Number    int       `json:"number"`
	Title     string    `json:"title"`
	State     string    `json:"state"`
	Author    string    `json:"author"`
	Assignees []string  `json:"assignees"`
	Labels    []string  `json:"labels"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	URL       string    `json:"url"`
	Body      string    `json:"body,omitempty"`
	Comments  int       `json:"comments,omitempty"`
}

// IssueFilter narrows ListIssues
type IssueFilter struct {
	State  string   // open, closed or all
	Labels []string
	Limit  int
}

// ListIssues returns up to filter.Limit issues; pull requests are skipped
func (c *Client) ListIssues(ctx context.Context, owner, repo string, filter IssueFilter) ([]Issue, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultPerPage
	}
	state := filter.State
	if state == "" {
		state = "open"
	}
	opts := &github.IssueListByRepoOptions{
		State:       state,
		Labels:      filter.Labels,
		ListOptions: github.ListOptions{PerPage: min(limit, 100)},
	}

	var out []Issue
	for {
		if err := c.wait(ctx); err != nil {
			return nil, err
		}

		issues, resp, err := c.client.Issues.ListByRepo(ctx, owner, repo, opts)
		if err != nil {
			return nil, fmt.Errorf("list issues for %s/%s: %w", owner, repo, err)
		}
		for _, is := range issues {
			if is.IsPullRequest() {
				continue
			}
			out = append(out, toIssue(is))
			if len(out) == limit {
				return out, nil
			}
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return out, nil
}

// GetIssue returns one issue with its body. Asking for a pull request number
// is a validation error.
func (c *Client) GetIssue(ctx context.Context, owner, repo string, number int) (*Issue, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	is, _, err := c.client.Issues.Get(ctx, owner, repo, number)
	if err != nil {
		return nil, fmt.Errorf("get issue #%d: %w", number, err)
	}
	if is.IsPullRequest() {
		return nil, errors.ValidationErrorf("#%d is a pull request, not an issue", number)
	}

	issue := toIssue(is)
	issue.Body = is.GetBody()
	issue.Comments = is.GetComments()
	return &issue, nil
}

func toIssue(is *github.Issue) Issue {
	issue := Issue{
		Number:    is.GetNumber(),
		Title:     is.GetTitle(),
		State:     is.GetState(),
		Author:    is.GetUser().GetLogin(),
		Assignees: []string{},
		Labels:    []string{},
		CreatedAt: is.GetCreatedAt().UTC(),
		UpdatedAt: is.GetUpdatedAt().UTC(),
		URL:       is.GetHTMLURL(),
	}
	for _, a := range is.Assignees {
		issue.Assignees = append(issue.Assignees, a.GetLogin())
	}
	for _, l := range is.Labels {
		issue.Labels = append(issue.Labels, l.GetName())
	}
	return issue
}

// ToDashboardIssue converts an issue to the dashboard card shape. GitHub has
// no priority field, so every card is "medium".
func ToDashboardIssue(is Issue) models.DashboardIssue {
	card := models.DashboardIssue{
		ID:        fmt.Sprintf("%d", is.Number),
		Title:     is.Title,
		Status:    is.State,
		Priority:  "medium",
		CreatedAt: is.CreatedAt.Format(time.RFC3339),
		Labels:    append([]string{}, is.Labels...),
	}
	if len(is.Assignees) > 0 {
		assignee := is.Assignees[0]
		card.Assignee = &assignee
	}
	if is.URL != "" {
		url := is.URL
		card.URL = &url
	}
	return card
}
