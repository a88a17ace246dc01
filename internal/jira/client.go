// Package jira wraps the Jira REST API for the MCP tools and the collector.
package jira

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	jira "github.com/andygrunwald/go-jira"
	"github.com/sirupsen/logrus"

	"github.com/rohankatakam/devai/internal/config"
	"github.com/rohankatakam/devai/internal/errors"
)

// RequestTimeout bounds every Jira call
const RequestTimeout = 30 * time.Second

// MaxSearchResults caps one search page
const MaxSearchResults = 100

// Client wraps the go-jira client
type Client struct {
	api     *jira.Client
	baseURL string
	logger  logrus.FieldLogger
}

// NewClient creates a Jira client. A personal token selects bearer auth
// (Server/Data Center); otherwise email and API token use basic auth (Cloud).
func NewClient(cfg config.JiraConfig, logger logrus.FieldLogger) (*Client, error) {
	if cfg.URL == "" {
		return nil, errors.ConfigError("JIRA_URL is required")
	}

	var httpClient *http.Client
	switch {
	case cfg.PersonalToken != "":
		tp := jira.BearerAuthTransport{Token: cfg.PersonalToken}
		httpClient = tp.Client()
	case cfg.Email != "" && cfg.APIToken != "":
		tp := jira.BasicAuthTransport{Username: cfg.Email, Password: cfg.APIToken}
		httpClient = tp.Client()
	default:
		return nil, errors.ConfigError("Jira authentication required: set JIRA_EMAIL and JIRA_API_TOKEN (Cloud) or JIRA_PERSONAL_TOKEN (Server/Data Center)")
	}
	httpClient.Timeout = RequestTimeout

	baseURL := strings.TrimRight(cfg.URL, "/")
	api, err := jira.NewClient(httpClient, baseURL+"/")
	if err != nil {
		return nil, errors.ConfigErrorf("invalid JIRA_URL %q: %v", cfg.URL, err)
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Client{api: api, baseURL: baseURL, logger: logger}, nil
}

// BrowseURL returns the web URL of an issue or project key
func (c *Client) BrowseURL(key string) string {
	return fmt.Sprintf("%s/browse/%s", c.baseURL, key)
}

// apiError classifies a failed call; 404 becomes NotFound, the rest External.
// go-jira has already folded the response body into err.
func apiError(op string, resp *jira.Response, err error) error {
	if resp != nil && resp.StatusCode == http.StatusNotFound {
		return errors.NotFoundErrorf("%s: resource not found", op)
	}
	if resp != nil && resp.StatusCode == http.StatusUnauthorized {
		return errors.ExternalErrorf(err, "%s: authentication failed, check JIRA_EMAIL, JIRA_API_TOKEN or JIRA_PERSONAL_TOKEN", op)
	}
	return errors.ExternalErrorf(err, "%s failed", op)
}

// Project is the subset of project fields the tools report
type Project struct {
	ID             string `json:"id"`
	Key            string `json:"key"`
	Name           string `json:"name"`
	ProjectTypeKey string `json:"projectTypeKey,omitempty"`
	Archived       bool   `json:"archived"`
	Description    string `json:"description,omitempty"`
	Lead           string `json:"lead,omitempty"`
	URL            string `json:"url"`
}

// ListProjects returns the projects visible to the user
func (c *Client) ListProjects(ctx context.Context, includeArchived bool) ([]Project, error) {
	endpoint := "rest/api/2/project"
	if includeArchived {
		endpoint += "?includeArchived=true"
	}
	req, err := c.api.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build project request: %w", err)
	}

	var raw []struct {
		ID             string `json:"id"`
		Key            string `json:"key"`
		Name           string `json:"name"`
		ProjectTypeKey string `json:"projectTypeKey"`
		Archived       bool   `json:"archived"`
	}
	resp, err := c.api.Do(req, &raw)
	if err != nil {
		return nil, apiError("list projects", resp, err)
	}

	projects := make([]Project, 0, len(raw))
	for _, p := range raw {
		projects = append(projects, Project{
			ID:             p.ID,
			Key:            p.Key,
			Name:           p.Name,
			ProjectTypeKey: p.ProjectTypeKey,
			Archived:       p.Archived,
			URL:            c.BrowseURL(p.Key),
		})
	}
	return projects, nil
}

// GetProject returns one project
func (c *Client) GetProject(ctx context.Context, key string) (*Project, error) {
	p, resp, err := c.api.Project.GetWithContext(ctx, key)
	if err != nil {
		return nil, apiError("get project "+key, resp, err)
	}
	return &Project{
		ID:          p.ID,
		Key:         p.Key,
		Name:        p.Name,
		Description: p.Description,
		Lead:        p.Lead.DisplayName,
		URL:         c.BrowseURL(p.Key),
	}, nil
}

// GetIssue returns an issue; expand defaults to the changelog
func (c *Client) GetIssue(ctx context.Context, key, expand string) (*jira.Issue, error) {
	if expand == "" {
		expand = "changelog,renderedFields"
	}
	issue, resp, err := c.api.Issue.GetWithContext(ctx, key, &jira.GetQueryOptions{Expand: expand})
	if err != nil {
		return nil, apiError("get issue "+key, resp, err)
	}
	return issue, nil
}

// GetChangelog returns the change histories of an issue, newest last,
// capped at maxResults entries
func (c *Client) GetChangelog(ctx context.Context, key string, maxResults int) ([]jira.ChangelogHistory, int, error) {
	issue, resp, err := c.api.Issue.GetWithContext(ctx, key, &jira.GetQueryOptions{Expand: "changelog", Fields: "status"})
	if err != nil {
		return nil, 0, apiError("get changelog "+key, resp, err)
	}
	if issue.Changelog == nil {
		return nil, 0, nil
	}
	histories := issue.Changelog.Histories
	total := len(histories)
	if maxResults > 0 && len(histories) > maxResults {
		histories = histories[:maxResults]
	}
	return histories, total, nil
}

// GetComments returns the comments of an issue, capped at maxResults
func (c *Client) GetComments(ctx context.Context, key string, maxResults int) ([]*jira.Comment, int, error) {
	issue, resp, err := c.api.Issue.GetWithContext(ctx, key, &jira.GetQueryOptions{Fields: "comment"})
	if err != nil {
		return nil, 0, apiError("get comments "+key, resp, err)
	}
	if issue.Fields == nil || issue.Fields.Comments == nil {
		return nil, 0, nil
	}
	comments := issue.Fields.Comments.Comments
	total := len(comments)
	if maxResults > 0 && len(comments) > maxResults {
		comments = comments[:maxResults]
	}
	return comments, total, nil
}

// SearchOptions narrows SearchIssues
type SearchOptions struct {
	StartAt    int
	MaxResults int
	Fields     []string
	Expand     string
}

// SearchResult is one page of a JQL search
type SearchResult struct {
	Issues     []jira.Issue
	Total      int
	StartAt    int
	MaxResults int
}

// SearchIssues runs a JQL query and returns one page
func (c *Client) SearchIssues(ctx context.Context, jql string, opts SearchOptions) (*SearchResult, error) {
	if strings.TrimSpace(jql) == "" {
		return nil, errors.ValidationError("jql must not be empty")
	}
	limit := opts.MaxResults
	if limit <= 0 {
		limit = 50
	}
	limit = min(limit, MaxSearchResults)

	issues, resp, err := c.api.Issue.SearchWithContext(ctx, jql, &jira.SearchOptions{
		StartAt:    opts.StartAt,
		MaxResults: limit,
		Fields:     opts.Fields,
		Expand:     opts.Expand,
	})
	if err != nil {
		return nil, apiError("search issues", resp, err)
	}

	result := &SearchResult{Issues: issues, StartAt: opts.StartAt, MaxResults: limit, Total: len(issues)}
	if resp != nil {
		result.Total = resp.Total
		result.StartAt = resp.StartAt
		result.MaxResults = resp.MaxResults
	}
	c.logger.WithFields(logrus.Fields{"jql": jql, "count": len(issues), "total": result.Total}).Debug("jira search")
	return result, nil
}

// NewIssue describes an issue to create
type NewIssue struct {
	ProjectKey  string
	Summary     string
	IssueType   string
	Description string
	Assignee    string // account ID
	Priority    string
	Labels      []string
}

// CreateIssue creates an issue and returns its key and ID
func (c *Client) CreateIssue(ctx context.Context, in NewIssue) (*jira.Issue, error) {
	if in.ProjectKey == "" || in.Summary == "" || in.IssueType == "" {
		return nil, errors.ValidationError("project key, summary and issue type are required")
	}

	fields := &jira.IssueFields{
		Project:     jira.Project{Key: in.ProjectKey},
		Summary:     in.Summary,
		Type:        jira.IssueType{Name: in.IssueType},
		Description: in.Description,
		Labels:      in.Labels,
	}
	if in.Assignee != "" {
		fields.Assignee = &jira.User{AccountID: in.Assignee}
	}
	if in.Priority != "" {
		fields.Priority = &jira.Priority{Name: in.Priority}
	}

	issue, resp, err := c.api.Issue.CreateWithContext(ctx, &jira.Issue{Fields: fields})
	if err != nil {
		return nil, apiError("create issue", resp, err)
	}
	c.logger.WithField("key", issue.Key).Info("created jira issue")
	return issue, nil
}

// AddComment adds a comment and returns its ID
func (c *Client) AddComment(ctx context.Context, key, body string) (string, error) {
	if strings.TrimSpace(body) == "" {
		return "", errors.ValidationError("comment must not be empty")
	}
	comment, resp, err := c.api.Issue.AddCommentWithContext(ctx, key, &jira.Comment{Body: body})
	if err != nil {
		return "", apiError("add comment to "+key, resp, err)
	}
	return comment.ID, nil
}

// TransitionIssue moves an issue through the transition whose name, or
// target status name, matches target case-insensitively. A comment is added
// afterwards when given.
func (c *Client) TransitionIssue(ctx context.Context, key, target, comment string) error {
	transitions, resp, err := c.api.Issue.GetTransitionsWithContext(ctx, key)
	if err != nil {
		return apiError("get transitions for "+key, resp, err)
	}

	id, ok := matchTransition(transitions, target)
	if !ok {
		available := make([]string, 0, len(transitions))
		for _, t := range transitions {
			name := t.Name
			if name == "" {
				name = t.To.Name
			}
			available = append(available, name)
		}
		return errors.ValidationErrorf("Transition '%s' not found. Available transitions: %s", target, strings.Join(available, ", "))
	}

	if resp, err := c.api.Issue.DoTransitionWithContext(ctx, key, id); err != nil {
		return apiError("transition "+key, resp, err)
	}
	if comment != "" {
		if _, err := c.AddComment(ctx, key, comment); err != nil {
			return err
		}
	}
	return nil
}

func matchTransition(transitions []jira.Transition, target string) (string, bool) {
	for _, t := range transitions {
		if strings.EqualFold(t.Name, target) || strings.EqualFold(t.To.Name, target) {
			return t.ID, true
		}
	}
	return "", false
}

// AssignIssue sets the assignee by account ID
func (c *Client) AssignIssue(ctx context.Context, key, accountID string) error {
	resp, err := c.api.Issue.UpdateAssigneeWithContext(ctx, key, &jira.User{AccountID: accountID})
	if err != nil {
		return apiError("assign "+key, resp, err)
	}
	return nil
}
