package github

import (
	"context"
	"fmt"
	"time"

	"github.com/google/go-github/v57/github"

	"github.com/rohankatakam/devai/internal/models"
)

// PullRequestFilter narrows ListPullRequests
type PullRequestFilter struct {
	State string // open, closed or all
	Base  string
	Limit int
}

// ReviewSummary counts reviews by verdict
type ReviewSummary struct {
	Total            int `json:"total"`
	Approved         int `json:"approved"`
	ChangesRequested int `json:"changes_requested"`
	Commented        int `json:"commented"`
}

// PullRequestDetail carries the fields the list and get tools report
type PullRequestDetail struct {
	models.PullRequest
	UpdatedAt      time.Time      `json:"updated_at"`
	Draft          bool           `json:"draft"`
	Mergeable      *bool          `json:"mergeable"`
	MergeableState string         `json:"mergeable_state,omitempty"`
	ChangedFiles   int            `json:"changed_files"`
	Reviews        *ReviewSummary `json:"reviews,omitempty"`
}

// ListPullRequests returns up to filter.Limit pull requests
func (c *Client) ListPullRequests(ctx context.Context, owner, repo string, filter PullRequestFilter) ([]PullRequestDetail, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultPerPage
	}
	state := filter.State
	if state == "" {
		state = "open"
	}
	opts := &github.PullRequestListOptions{
		State:       state,
		Base:        filter.Base,
		ListOptions: github.ListOptions{PerPage: min(limit, 100)},
	}

	var out []PullRequestDetail
	for {
		if err := c.wait(ctx); err != nil {
			return nil, err
		}

		prs, resp, err := c.client.PullRequests.List(ctx, owner, repo, opts)
		if err != nil {
			return nil, fmt.Errorf("list pull requests for %s/%s: %w", owner, repo, err)
		}
		for _, pr := range prs {
			out = append(out, toPullRequestDetail(pr))
			if len(out) == limit {
				return out, nil
			}
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	c.logger.WithField("count", len(out)).Debugf("listed pull requests for %s/%s", owner, repo)
	return out, nil
}

// GetPullRequest returns one pull request with a summary of its reviews
func (c *Client) GetPullRequest(ctx context.Context, owner, repo string, number int) (*PullRequestDetail, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	pr, _, err := c.client.PullRequests.Get(ctx, owner, repo, number)
	if err != nil {
		return nil, fmt.Errorf("get pull request #%d: %w", number, err)
	}

	detail := toPullRequestDetail(pr)
	reviews, err := c.ListReviews(ctx, owner, repo, number)
	if err != nil {
		return nil, err
	}
	summary := SummarizeReviews(reviews)
	detail.Reviews = &summary
	return &detail, nil
}

// SummarizeReviews tallies reviews by state
func SummarizeReviews(reviews []models.Review) ReviewSummary {
	s := ReviewSummary{Total: len(reviews)}
	for _, r := range reviews {
		switch r.State {
		case models.ReviewApproved:
			s.Approved++
		case models.ReviewChangesRequested:
			s.ChangesRequested++
		case models.ReviewCommented:
			s.Commented++
		}
	}
	return s
}

// ListReviews returns the submitted reviews of a pull request. Pending
// reviews have no submission time and are skipped.
func (c *Client) ListReviews(ctx context.Context, owner, repo string, number int) ([]models.Review, error) {
	opts := &github.ListOptions{PerPage: 100}

	var out []models.Review
	for {
		if err := c.wait(ctx); err != nil {
			return nil, err
		}

		reviews, resp, err := c.client.PullRequests.ListReviews(ctx, owner, repo, number, opts)
		if err != nil {
			return nil, fmt.Errorf("list reviews for PR #%d: %w", number, err)
		}
		for _, r := range reviews {
			if r.SubmittedAt == nil {
				continue
			}
			out = append(out, models.Review{
				PRNumber:    number,
				Author:      r.GetUser().GetLogin(),
				State:       models.ReviewState(r.GetState()),
				Body:        r.GetBody(),
				SubmittedAt: r.GetSubmittedAt().UTC(),
			})
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return out, nil
}

// ListPRComments returns the conversation comments of a pull request
func (c *Client) ListPRComments(ctx context.Context, owner, repo string, number int) ([]models.Comment, error) {
	opts := &github.IssueListCommentsOptions{ListOptions: github.ListOptions{PerPage: 100}}

	var out []models.Comment
	for {
		if err := c.wait(ctx); err != nil {
			return nil, err
		}

		comments, resp, err := c.client.Issues.ListComments(ctx, owner, repo, number, opts)
		if err != nil {
			return nil, fmt.Errorf("list comments for #%d: %w", number, err)
		}
		for _, cm := range comments {
			out = append(out, models.Comment{
				PRNumber:  number,
				Author:    cm.GetUser().GetLogin(),
				Body:      cm.GetBody(),
				CreatedAt: cm.GetCreatedAt().UTC(),
			})
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return out, nil
}

func toPullRequestDetail(pr *github.PullRequest) PullRequestDetail {
	detail := PullRequestDetail{
		PullRequest: models.PullRequest{
			Number:     pr.GetNumber(),
			Title:      pr.GetTitle(),
			Body:       pr.GetBody(),
			State:      pr.GetState(),
			Author:     pr.GetUser().GetLogin(),
			HeadBranch: pr.GetHead().GetRef(),
			BaseBranch: pr.GetBase().GetRef(),
			Additions:  pr.GetAdditions(),
			Deletions:  pr.GetDeletions(),
			CreatedAt:  pr.GetCreatedAt().UTC(),
			URL:        pr.GetHTMLURL(),
		},
		UpdatedAt:      pr.GetUpdatedAt().UTC(),
		Draft:          pr.GetDraft(),
		Mergeable:      pr.Mergeable,
		MergeableState: pr.GetMergeableState(),
		ChangedFiles:   pr.GetChangedFiles(),
	}
	if pr.MergedAt != nil {
		merged := pr.MergedAt.UTC()
		detail.MergedAt = &merged
	}
	return detail
}
