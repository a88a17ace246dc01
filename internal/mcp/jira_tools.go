package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"

	"github.com/rohankatakam/devai/internal/errors"
	"github.com/rohankatakam/devai/internal/jira"
)

// JiraTools serves the jira_* tools
type JiraTools struct {
	client *jira.Client
	logger logrus.FieldLogger
}

func NewJiraTools(client *jira.Client, logger logrus.FieldLogger) *JiraTools {
	return &JiraTools{client: client, logger: logger}
}

func issueKeyArg() mcp.ToolOption {
	return mcp.WithString("issue_key", mcp.Required(), mcp.Description("Issue key, e.g. PROJ-123"))
}

func (t *JiraTools) Tools() []server.ServerTool {
	return []server.ServerTool{
		{
			Tool: tool("jira_list_projects", "List the Jira projects visible to the configured user",
				mcp.WithBoolean("include_archived", mcp.Description("Include archived projects (default false)")),
			),
			Handler: t.listProjects,
		},
		{
			Tool: tool("jira_get_project", "Get one Jira project",
				mcp.WithString("project_key", mcp.Required(), mcp.Description("Project key, e.g. PROJ")),
			),
			Handler: t.getProject,
		},
		{
			Tool: tool("jira_get_issue", "Get one Jira issue with its status transitions",
				issueKeyArg(),
				mcp.WithString("expand", mcp.Description("Fields to expand (default changelog,renderedFields)")),
			),
			Handler: t.getIssue,
		},
		{
			Tool: tool("jira_get_issue_changelog", "Get the change history of a Jira issue",
				issueKeyArg(),
				mcp.WithNumber("max_results", mcp.Description("Maximum history entries (default 100)")),
			),
			Handler: t.getChangelog,
		},
		{
			Tool: tool("jira_get_issue_comments", "Get the comments of a Jira issue",
				issueKeyArg(),
				mcp.WithNumber("max_results", mcp.Description("Maximum comments (default 100)")),
			),
			Handler: t.getComments,
		},
		{
			Tool: tool("jira_search_issues", "Search Jira issues with JQL",
				mcp.WithString("jql", mcp.Required(), mcp.Description("JQL query, e.g. project = PROJ AND status = \"In Progress\"")),
				mcp.WithNumber("max_results", mcp.Description("Page size (default 50, max 100)")),
				mcp.WithNumber("start_at", mcp.Description("Offset of the first result (default 0)")),
				mcp.WithString("fields", mcp.Description("Comma separated fields to return")),
				mcp.WithString("expand", mcp.Description("Fields to expand, e.g. changelog")),
			),
			Handler: t.searchIssues,
		},
		{
			Tool: tool("jira_create_issue", "Create a Jira issue",
				mcp.WithString("project_key", mcp.Required(), mcp.Description("Project key")),
				mcp.WithString("summary", mcp.Required(), mcp.Description("Issue summary")),
				mcp.WithString("issue_type", mcp.Required(), mcp.Description("Issue type, e.g. Task, Bug, Story")),
				mcp.WithString("description", mcp.Description("Issue description")),
				mcp.WithString("assignee", mcp.Description("Assignee account ID")),
				mcp.WithString("priority", mcp.Description("Priority name, e.g. High")),
				mcp.WithString("labels", mcp.Description("Comma separated labels")),
			),
			Handler: t.createIssue,
		},
		{
			Tool: tool("jira_batch_create_issues", "Create several Jira issues in one call",
				mcp.WithString("issues_json", mcp.Required(), mcp.Description(
					"JSON array of {project_key, summary, issue_type, description?, assignee?, priority?, labels?[]}")),
			),
			Handler: t.batchCreateIssues,
		},
		{
			Tool: tool("jira_add_comment", "Add a comment to a Jira issue",
				issueKeyArg(),
				mcp.WithString("comment", mcp.Required(), mcp.Description("Comment text")),
			),
			Handler: t.addComment,
		},
		{
			Tool: tool("jira_transition_issue", "Move a Jira issue through a workflow transition",
				issueKeyArg(),
				mcp.WithString("transition_name", mcp.Required(), mcp.Description("Transition or target status name, e.g. Done")),
				mcp.WithString("comment", mcp.Description("Comment added after the transition")),
			),
			Handler: t.transitionIssue,
		},
		{
			Tool: tool("jira_assign_issue", "Assign a Jira issue to a user",
				issueKeyArg(),
				mcp.WithString("account_id", mcp.Required(), mcp.Description("Assignee account ID")),
			),
			Handler: t.assignIssue,
		},
	}
}

func (t *JiraTools) listProjects(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projects, err := t.client.ListProjects(ctx, req.GetBool("include_archived", false))
	if err != nil {
		return failure("list projects", err), nil
	}
	return success(fmt.Sprintf("Found %d projects", len(projects)), envelope{
		"projects": projects,
		"count":    len(projects),
	}), nil
}

func (t *JiraTools) getProject(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := required(req, "project_key")
	if err != nil {
		return failure("get project", err), nil
	}
	project, err := t.client.GetProject(ctx, key)
	if err != nil {
		return failure("get project", err), nil
	}
	return success("Successfully retrieved project "+key, envelope{"project": project}), nil
}

func (t *JiraTools) getIssue(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := required(req, "issue_key")
	if err != nil {
		return failure("get issue", err), nil
	}
	issue, err := t.client.GetIssue(ctx, key, req.GetString("expand", ""))
	if err != nil {
		return failure("get issue", err), nil
	}
	return success("Successfully retrieved issue "+key, envelope{"issue": t.client.Detail(*issue)}), nil
}

func (t *JiraTools) getChangelog(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := required(req, "issue_key")
	if err != nil {
		return failure("get issue changelog", err), nil
	}
	histories, total, err := t.client.GetChangelog(ctx, key, req.GetInt("max_results", 100))
	if err != nil {
		return failure("get issue changelog", err), nil
	}
	entries := jira.Changelog(histories)
	return success("Successfully retrieved changelog for "+key, envelope{
		"issue_key":   key,
		"total":       total,
		"transitions": entries,
		"count":       len(entries),
	}), nil
}

func (t *JiraTools) getComments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := required(req, "issue_key")
	if err != nil {
		return failure("get issue comments", err), nil
	}
	comments, total, err := t.client.GetComments(ctx, key, req.GetInt("max_results", 100))
	if err != nil {
		return failure("get issue comments", err), nil
	}
	views := jira.Comments(comments)
	return success("Successfully retrieved comments for "+key, envelope{
		"issue_key": key,
		"total":     total,
		"comments":  views,
		"count":     len(views),
	}), nil
}

func (t *JiraTools) searchIssues(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	jql, err := required(req, "jql")
	if err != nil {
		return failure("search issues", err), nil
	}
	result, err := t.client.SearchIssues(ctx, jql, jira.SearchOptions{
		StartAt:    req.GetInt("start_at", 0),
		MaxResults: req.GetInt("max_results", 50),
		Fields:     csv(req.GetString("fields", "")),
		Expand:     req.GetString("expand", ""),
	})
	if err != nil {
		return failure("search issues", err), nil
	}

	issues := make([]jira.IssueSummary, 0, len(result.Issues))
	for _, is := range result.Issues {
		issues = append(issues, t.client.Summarize(is))
	}
	return success(fmt.Sprintf("Found %d issues", len(issues)), envelope{
		"jql":         jql,
		"total":       result.Total,
		"start_at":    result.StartAt,
		"max_results": result.MaxResults,
		"issues":      issues,
		"count":       len(issues),
	}), nil
}

func (t *JiraTools) createIssue(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	issue, err := t.client.CreateIssue(ctx, jira.NewIssue{
		ProjectKey:  req.GetString("project_key", ""),
		Summary:     req.GetString("summary", ""),
		IssueType:   req.GetString("issue_type", ""),
		Description: req.GetString("description", ""),
		Assignee:    req.GetString("assignee", ""),
		Priority:    req.GetString("priority", ""),
		Labels:      csv(req.GetString("labels", "")),
	})
	if err != nil {
		return failure("create issue", err), nil
	}
	return success("Successfully created issue "+issue.Key, envelope{
		"issue": map[string]string{
			"key": issue.Key,
			"id":  issue.ID,
			"url": t.client.BrowseURL(issue.Key),
		},
	}), nil
}

type batchIssue struct {
	ProjectKey  string   `json:"project_key"`
	Summary     string   `json:"summary"`
	IssueType   string   `json:"issue_type"`
	Description string   `json:"description"`
	Assignee    string   `json:"assignee"`
	Priority    string   `json:"priority"`
	Labels      []string `json:"labels"`
}

// batchCreateIssues creates issues one by one; failures are collected and
// do not stop the batch
func (t *JiraTools) batchCreateIssues(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := required(req, "issues_json")
	if err != nil {
		return failure("batch create issues", err), nil
	}
	var batch []batchIssue
	if err := json.Unmarshal([]byte(raw), &batch); err != nil {
		return failure("batch create issues", errors.ValidationErrorf("issues_json must be a JSON array: %v", err)), nil
	}

	created := []map[string]string{}
	failed := []map[string]string{}
	for i, b := range batch {
		issue, err := t.client.CreateIssue(ctx, jira.NewIssue(b))
		if err != nil {
			t.logger.WithError(err).WithField("index", i).Warn("batch issue create failed")
			failed = append(failed, map[string]string{"summary": b.Summary, "error": err.Error()})
			continue
		}
		created = append(created, map[string]string{
			"key": issue.Key,
			"id":  issue.ID,
			"url": t.client.BrowseURL(issue.Key),
		})
	}

	message := fmt.Sprintf("Created %d issues", len(created))
	if len(failed) > 0 {
		message += fmt.Sprintf(", %d failed", len(failed))
	}
	return success(message, envelope{
		"created": created,
		"errors":  failed,
	}), nil
}

func (t *JiraTools) addComment(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := required(req, "issue_key")
	if err != nil {
		return failure("add comment", err), nil
	}
	id, err := t.client.AddComment(ctx, key, req.GetString("comment", ""))
	if err != nil {
		return failure("add comment", err), nil
	}
	return success("Successfully added comment to issue "+key, envelope{
		"comment_id": id,
		"issue_key":  key,
	}), nil
}

func (t *JiraTools) transitionIssue(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := required(req, "issue_key")
	if err != nil {
		return failure("transition issue", err), nil
	}
	target, err := required(req, "transition_name")
	if err != nil {
		return failure("transition issue", err), nil
	}
	if err := t.client.TransitionIssue(ctx, key, target, req.GetString("comment", "")); err != nil {
		return failure("transition issue", err), nil
	}
	return success(fmt.Sprintf("Successfully transitioned issue %s to %s", key, target), envelope{
		"issue_key":  key,
		"transition": target,
	}), nil
}

func (t *JiraTools) assignIssue(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := required(req, "issue_key")
	if err != nil {
		return failure("assign issue", err), nil
	}
	account, err := required(req, "account_id")
	if err != nil {
		return failure("assign issue", err), nil
	}
	if err := t.client.AssignIssue(ctx, key, account); err != nil {
		return failure("assign issue", err), nil
	}
	return success(fmt.Sprintf("Successfully assigned issue %s", key), envelope{
		"issue_key":  key,
		"account_id": account,
	}), nil
}
