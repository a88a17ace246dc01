// Package github wraps the GitHub REST API for the MCP tools and the collector.
// Every call waits on a client-side rate limiter before it is sent.
package github

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v57/github"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/rohankatakam/devai/internal/models"
)

// DefaultPerPage is the page size used when a caller passes no limit
const DefaultPerPage = 30

// Client wraps the GitHub API client with rate limiting
type Client struct {
	client      *github.Client
	rateLimiter *rate.Limiter
	logger      logrus.FieldLogger
}

// Option customizes a Client
type Option func(*Client) error

// WithBaseURL points the client at a GitHub Enterprise or test server
func WithBaseURL(raw string) Option {
	return func(c *Client) error {
		if !strings.HasSuffix(raw, "/") {
			raw += "/"
		}
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("invalid GitHub base URL %q: %w", raw, err)
		}
		c.client.BaseURL = u
		return nil
	}
}

// WithLogger sets the logger
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Client) error {
		c.logger = l
		return nil
	}
}

// NewClient creates a new GitHub client with rate limiting. An empty token
// yields an anonymous client.
func NewClient(token string, rateLimit int, opts ...Option) (*Client, error) {
	client := github.NewClient(nil)
	if token != "" {
		client = client.WithAuthToken(token)
	}
	if rateLimit <= 0 {
		rateLimit = 10
	}

	c := &Client{
		client:      client,
		rateLimiter: rate.NewLimiter(rate.Limit(rateLimit), 1),
		logger:      logrus.StandardLogger(),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Client) wait(ctx context.Context) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	return nil
}

// CommitFilter narrows ListCommits
type CommitFilter struct {
	SHA    string // branch name or commit SHA to start from
	Author string
	Since  time.Time
	Limit  int
}

// CommitFile is one file touched by a commit
type CommitFile struct {
	Filename  string `json:"filename"`
	Status    string `json:"status"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
	Changes   int    `json:"changes"`
}

// CommitStats summarizes the size of a commit
type CommitStats struct {
	Additions int `json:"additions"`
	Deletions int `json:"deletions"`
	Total     int `json:"total"`
}

// CommitDetail is a commit plus its stats and changed files
type CommitDetail struct {
	models.Commit
	Stats *CommitStats `json:"stats"`
	Files []CommitFile `json:"files,omitempty"`
}

// ListCommits returns up to filter.Limit commits, newest first
func (c *Client) ListCommits(ctx context.Context, owner, repo string, filter CommitFilter) ([]CommitDetail, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultPerPage
	}
	opts := &github.CommitsListOptions{
		SHA:         filter.SHA,
		Author:      filter.Author,
		Since:       filter.Since,
		ListOptions: github.ListOptions{PerPage: min(limit, 100)},
	}

	var out []CommitDetail
	for {
		if err := c.wait(ctx); err != nil {
			return nil, err
		}

		commits, resp, err := c.client.Repositories.ListCommits(ctx, owner, repo, opts)
		if err != nil {
			return nil, fmt.Errorf("list commits for %s/%s: %w", owner, repo, err)
		}
		for _, rc := range commits {
			out = append(out, toCommitDetail(rc))
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

// GetCommit returns one commit with its changed files
func (c *Client) GetCommit(ctx context.Context, owner, repo, sha string) (*CommitDetail, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	rc, _, err := c.client.Repositories.GetCommit(ctx, owner, repo, sha, nil)
	if err != nil {
		return nil, fmt.Errorf("get commit %s: %w", sha, err)
	}

	detail := toCommitDetail(rc)
	for _, f := range rc.Files {
		detail.Files = append(detail.Files, CommitFile{
			Filename:  f.GetFilename(),
			Status:    f.GetStatus(),
			Additions: f.GetAdditions(),
			Deletions: f.GetDeletions(),
			Changes:   f.GetChanges(),
		})
	}
	return &detail, nil
}

// ListPRCommits returns the commits of one pull request
func (c *Client) ListPRCommits(ctx context.Context, owner, repo string, number int) ([]models.Commit, error) {
	opts := &github.ListOptions{PerPage: 100}

	var out []models.Commit
	for {
		if err := c.wait(ctx); err != nil {
			return nil, err
		}

		commits, resp, err := c.client.PullRequests.ListCommits(ctx, owner, repo, number, opts)
		if err != nil {
			return nil, fmt.Errorf("list commits for PR #%d: %w", number, err)
		}
		for _, rc := range commits {
			out = append(out, toCommit(rc))
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return out, nil
}

func toCommit(rc *github.RepositoryCommit) models.Commit {
	return models.Commit{
		SHA:         rc.GetSHA(),
		Message:     rc.GetCommit().GetMessage(),
		Author:      rc.GetCommit().GetAuthor().GetName(),
		AuthorLogin: rc.GetAuthor().GetLogin(),
		Date:        rc.GetCommit().GetAuthor().GetDate().UTC(),
		URL:         rc.GetHTMLURL(),
	}
}

func toCommitDetail(rc *github.RepositoryCommit) CommitDetail {
	detail := CommitDetail{Commit: toCommit(rc)}
	if rc.Stats != nil {
		detail.Stats = &CommitStats{
			Additions: rc.Stats.GetAdditions(),
			Deletions: rc.Stats.GetDeletions(),
			Total:     rc.Stats.GetTotal(),
		}
	}
	return detail
}
