package mcp

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"

	"github.com/rohankatakam/devai/internal/adapter"
	"github.com/rohankatakam/devai/internal/dashboard"
	"github.com/rohankatakam/devai/internal/errors"
	"github.com/rohankatakam/devai/internal/github"
	"github.com/rohankatakam/devai/internal/models"
)

// GitHubTools serves the github_* tools
type GitHubTools struct {
	client *github.Client
	pusher *dashboard.Pusher
	logger logrus.FieldLogger
}

// NewGitHubTools creates the GitHub tool group. Without a pusher the
// dashboard tool is not registered.
func NewGitHubTools(client *github.Client, pusher *dashboard.Pusher, logger logrus.FieldLogger) *GitHubTools {
	return &GitHubTools{client: client, pusher: pusher, logger: logger}
}

func repoArgs() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("owner", mcp.Required(), mcp.Description("Repository owner (user or organization)")),
		mcp.WithString("repo", mcp.Required(), mcp.Description("Repository name")),
	}
}

func tool(name, description string, opts ...mcp.ToolOption) mcp.Tool {
	return mcp.NewTool(name, append([]mcp.ToolOption{mcp.WithDescription(description)}, opts...)...)
}

func (t *GitHubTools) Tools() []server.ServerTool {
	tools := []server.ServerTool{
		{
			Tool: tool("github_list_commits", "List commits from a GitHub repository, newest first",
				append(repoArgs(),
					mcp.WithString("sha", mcp.Description("Branch name or commit SHA to start from")),
					mcp.WithString("since", mcp.Description("Only commits after this ISO 8601 timestamp")),
					mcp.WithString("author", mcp.Description("GitHub login or email of the author")),
					mcp.WithNumber("limit", mcp.Description("Maximum commits to return (default 30)")),
				)...),
			Handler: t.listCommits,
		},
		{
			Tool: tool("github_get_commit", "Get one commit with its stats and changed files",
				append(repoArgs(), mcp.WithString("sha", mcp.Required(), mcp.Description("Commit SHA")))...),
			Handler: t.getCommit,
		},
		{
			Tool: tool("github_list_pull_requests", "List pull requests from a GitHub repository",
				append(repoArgs(),
					mcp.WithString("state", mcp.Enum("open", "closed", "all"), mcp.Description("Pull request state (default open)")),
					mcp.WithString("base", mcp.Description("Only pull requests targeting this branch")),
					mcp.WithNumber("limit", mcp.Description("Maximum pull requests to return (default 30)")),
				)...),
			Handler: t.listPullRequests,
		},
		{
			Tool: tool("github_get_pull_request", "Get one pull request with a summary of its reviews",
				append(repoArgs(), mcp.WithNumber("pr_number", mcp.Required(), mcp.Description("Pull request number")))...),
			Handler: t.getPullRequest,
		},
		{
			Tool: tool("github_list_issues", "List issues (not pull requests) from a GitHub repository",
				append(repoArgs(),
					mcp.WithString("state", mcp.Enum("open", "closed", "all"), mcp.Description("Issue state (default open)")),
					mcp.WithString("labels", mcp.Description("Comma separated label names")),
					mcp.WithNumber("limit", mcp.Description("Maximum issues to return (default 30)")),
				)...),
			Handler: t.listIssues,
		},
		{
			Tool: tool("github_get_issue", "Get one issue",
				append(repoArgs(), mcp.WithNumber("issue_number", mcp.Required(), mcp.Description("Issue number")))...),
			Handler: t.getIssue,
		},
	}
	if t.pusher != nil {
		tools = append(tools, server.ServerTool{
			Tool: tool("github_send_issues_to_dashboard", "Fetch issues from GitHub and push them to the dashboard backend",
				append(repoArgs(),
					mcp.WithString("state", mcp.Enum("open", "closed", "all"), mcp.Description("Issue state (default open)")),
				)...),
			Handler: t.sendIssuesToDashboard,
		})
	}
	return tools
}

func ownerRepo(req mcp.CallToolRequest) (string, string, error) {
	owner, err := required(req, "owner")
	if err != nil {
		return "", "", err
	}
	repo, err := required(req, "repo")
	if err != nil {
		return "", "", err
	}
	return owner, repo, nil
}

func (t *GitHubTools) listCommits(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	owner, repo, err := ownerRepo(req)
	if err != nil {
		return failure("list commits", err), nil
	}
	filter := github.CommitFilter{
		SHA:    req.GetString("sha", ""),
		Author: req.GetString("author", ""),
		Limit:  req.GetInt("limit", github.DefaultPerPage),
	}
	if since := req.GetString("since", ""); since != "" {
		ts, err := adapter.ParseTime(since)
		if err != nil {
			return failure("list commits", errors.ValidationErrorf("invalid 'since' timestamp %q", since)), nil
		}
		filter.Since = ts
	}

	commits, err := t.client.ListCommits(ctx, owner, repo, filter)
	if err != nil {
		t.logger.WithError(err).Error("list commits failed")
		return failure("list commits", err), nil
	}
	return success(fmt.Sprintf("Found %d commits", len(commits)), envelope{
		"commits":    commits,
		"count":      len(commits),
		"repository": owner + "/" + repo,
	}), nil
}

func (t *GitHubTools) getCommit(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	owner, repo, err := ownerRepo(req)
	if err != nil {
		return failure("get commit", err), nil
	}
	sha, err := required(req, "sha")
	if err != nil {
		return failure("get commit", err), nil
	}

	commit, err := t.client.GetCommit(ctx, owner, repo, sha)
	if err != nil {
		return failure("get commit", err), nil
	}
	return success("Successfully retrieved commit "+sha, envelope{
		"commit":     commit,
		"repository": owner + "/" + repo,
	}), nil
}

func (t *GitHubTools) listPullRequests(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	owner, repo, err := ownerRepo(req)
	if err != nil {
		return failure("list pull requests", err), nil
	}
	state := req.GetString("state", "open")

	prs, err := t.client.ListPullRequests(ctx, owner, repo, github.PullRequestFilter{
		State: state,
		Base:  req.GetString("base", ""),
		Limit: req.GetInt("limit", github.DefaultPerPage),
	})
	if err != nil {
		return failure("list pull requests", err), nil
	}
	return success(fmt.Sprintf("Found %d pull requests", len(prs)), envelope{
		"pull_requests": prs,
		"count":         len(prs),
		"repository":    owner + "/" + repo,
		"state":         state,
	}), nil
}

func (t *GitHubTools) getPullRequest(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	owner, repo, err := ownerRepo(req)
	if err != nil {
		return failure("get pull request", err), nil
	}
	number := req.GetInt("pr_number", 0)
	if number <= 0 {
		return failure("get pull request", errors.ValidationError("'pr_number' must be a positive integer")), nil
	}

	pr, err := t.client.GetPullRequest(ctx, owner, repo, number)
	if err != nil {
		return failure("get pull request", err), nil
	}
	return success(fmt.Sprintf("Successfully retrieved pull request #%d", number), envelope{
		"pull_request": pr,
		"repository":   owner + "/" + repo,
	}), nil
}

func (t *GitHubTools) listIssues(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	owner, repo, err := ownerRepo(req)
	if err != nil {
		return failure("list issues", err), nil
	}
	state := req.GetString("state", "open")

	issues, err := t.client.ListIssues(ctx, owner, repo, github.IssueFilter{
		State:  state,
		Labels: csv(req.GetString("labels", "")),
		Limit:  req.GetInt("limit", github.DefaultPerPage),
	})
	if err != nil {
		return failure("list issues", err), nil
	}
	return success(fmt.Sprintf("Found %d issues", len(issues)), envelope{
		"issues":     issues,
		"count":      len(issues),
		"repository": owner + "/" + repo,
		"state":      state,
	}), nil
}

func (t *GitHubTools) getIssue(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	owner, repo, err := ownerRepo(req)
	if err != nil {
		return failure("get issue", err), nil
	}
	number := req.GetInt("issue_number", 0)
	if number <= 0 {
		return failure("get issue", errors.ValidationError("'issue_number' must be a positive integer")), nil
	}

	issue, err := t.client.GetIssue(ctx, owner, repo, number)
	if err != nil {
		if errors.GetType(err) == errors.ErrorTypeValidation {
			return failure("get issue", errors.ValidationErrorf(
				"Issue #%d is a pull request. Use github_get_pull_request instead.", number)), nil
		}
		return failure("get issue", err), nil
	}
	return success(fmt.Sprintf("Successfully retrieved issue #%d", number), envelope{
		"issue":      issue,
		"repository": owner + "/" + repo,
	}), nil
}

func (t *GitHubTools) sendIssuesToDashboard(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	owner, repo, err := ownerRepo(req)
	if err != nil {
		return failure("fetch/send issues", err), nil
	}
	repository := owner + "/" + repo

	issues, err := t.client.ListIssues(ctx, owner, repo, github.IssueFilter{
		State: req.GetString("state", "open"),
		Limit: github.DefaultPerPage,
	})
	if err != nil {
		return failure("fetch/send issues", err), nil
	}
	cards := make([]models.DashboardIssue, 0, len(issues))
	for _, is := range issues {
		cards = append(cards, github.ToDashboardIssue(is))
	}

	pushCtx, cancel := context.WithTimeout(ctx, dashboard.PushTimeout+time.Second)
	defer cancel()
	resp, err := t.pusher.Push(pushCtx, repository, cards)
	if err != nil {
		t.logger.WithError(err).WithField("repository", repository).Warn("dashboard push failed")
		message := fmt.Sprintf("Fetched %d issues but failed to send to dashboard", len(cards))
		var pe *dashboard.PushError
		if stderrors.As(err, &pe) && pe.Unreachable() {
			message = fmt.Sprintf("Fetched %d issues but backend API is unreachable", len(cards))
		}
		return jsonResult(envelope{
			"status":  "partial_success",
			"message": message,
			"issues":  cards,
			"error":   err.Error(),
		}), nil
	}

	return success(fmt.Sprintf("Successfully sent %d issues to dashboard", len(cards)), envelope{
		"count":              len(cards),
		"repository":         repository,
		"dashboard_response": resp,
	}), nil
}
