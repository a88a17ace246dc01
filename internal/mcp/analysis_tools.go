package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"

	"github.com/rohankatakam/devai/internal/anomaly"
	"github.com/rohankatakam/devai/internal/collector"
	"github.com/rohankatakam/devai/internal/errors"
	"github.com/rohankatakam/devai/internal/models"
	"github.com/rohankatakam/devai/internal/narrative"
)

// AnalysisTools runs the detectors and the synthesizer over live data
type AnalysisTools struct {
	jira        *collector.Jira
	github      *collector.GitHub
	engine      *anomaly.Engine
	synthesizer *narrative.Synthesizer
	logger      logrus.FieldLogger
}

func NewAnalysisTools(deps Dependencies) *AnalysisTools {
	t := &AnalysisTools{
		engine:      deps.Engine,
		synthesizer: deps.Synthesizer,
		logger:      deps.Logger,
	}
	if t.logger == nil {
		t.logger = logrus.StandardLogger()
	}
	if t.engine == nil {
		t.engine = anomaly.NewEngine(anomaly.WithLogger(t.logger))
	}
	if t.synthesizer == nil {
		t.synthesizer = narrative.NewSynthesizer(t.logger)
	}
	if deps.Jira != nil {
		t.jira = collector.NewJira(deps.Jira, t.logger)
	}
	if deps.GitHub != nil {
		t.github = collector.NewGitHub(deps.GitHub, t.logger)
	}
	return t
}

func (t *AnalysisTools) Tools() []server.ServerTool {
	var tools []server.ServerTool
	if t.jira != nil {
		tools = append(tools, server.ServerTool{
			Tool: tool("detect_anomalies",
				"Detect workflow anomalies (stale, reopened, stuck in review, overloaded assignees, "+
					"pull requests without a ticket) across the recently updated issues of a Jira project",
				mcp.WithString("project_key", mcp.Required(), mcp.Description("Jira project key")),
				mcp.WithNumber("max_tickets", mcp.Description("How many recently updated issues to scan (default 200)")),
				mcp.WithNumber("max_anomalies", mcp.Description("Maximum anomalies to report (default 20)")),
				mcp.WithString("owner", mcp.Description("GitHub owner; with repo, enables the missing-link check")),
				mcp.WithString("repo", mcp.Description("GitHub repository name")),
			),
			Handler: t.detectAnomalies,
		})
	}
	if t.github != nil {
		tools = append(tools, server.ServerTool{
			Tool: tool("generate_ticket_narrative",
				"Summarize the development history of one ticket from the pull requests that mention its key",
				mcp.WithString("owner", mcp.Required(), mcp.Description("Repository owner")),
				mcp.WithString("repo", mcp.Required(), mcp.Description("Repository name")),
				mcp.WithString("ticket_key", mcp.Required(), mcp.Description("Ticket key, e.g. PROJ-123")),
				mcp.WithNumber("estimated_days", mcp.Description("Estimate to compare against, in days")),
			),
			Handler: t.generateNarrative,
		})
	}
	return tools
}

func (t *AnalysisTools) detectAnomalies(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project, err := required(req, "project_key")
	if err != nil {
		return failure("detect anomalies", err), nil
	}
	maxAnomalies := req.GetInt("max_anomalies", anomaly.DefaultMaxAnomalies)
	if maxAnomalies < 0 {
		return failure("detect anomalies", errors.ValidationError("'max_anomalies' must not be negative")), nil
	}

	tickets, diags, err := t.jira.Snapshots(ctx, project, req.GetInt("max_tickets", collector.DefaultMaxTickets))
	if err != nil {
		return failure("detect anomalies", err), nil
	}
	in := anomaly.Input{Tickets: tickets, ProjectKey: project, MaxAnomalies: maxAnomalies}

	owner, repo := req.GetString("owner", ""), req.GetString("repo", "")
	if owner != "" && repo != "" {
		if t.github == nil {
			return failure("detect anomalies", errors.ConfigError("GitHub is not configured")), nil
		}
		prs, err := t.github.PullRequests(ctx, owner, repo, collector.DefaultPRScan)
		if err != nil {
			return failure("detect anomalies", err), nil
		}
		in.PullRequests = prs
	}

	result, err := t.detect(in)
	if err != nil {
		return failure("detect anomalies", err), nil
	}
	return success(fmt.Sprintf("Detected %d anomalies", len(result.Anomalies)), envelope{
		"project_key": project,
		"tickets":     len(tickets),
		"anomalies":   result.Anomalies,
		"count":       len(result.Anomalies),
		"diagnostics": append(append([]models.Diagnostic{}, diags...), result.Diagnostics...),
	}), nil
}

func (t *AnalysisTools) generateNarrative(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	owner, repo, err := ownerRepo(req)
	if err != nil {
		return failure("generate narrative", err), nil
	}
	key, err := required(req, "ticket_key")
	if err != nil {
		return failure("generate narrative", err), nil
	}
	var estimate *int
	if days := req.GetInt("estimated_days", 0); days > 0 {
		estimate = &days
	}

	activity, err := t.github.Activity(ctx, owner, repo, key, estimate)
	if err != nil {
		return failure("generate narrative", err), nil
	}
	narratives, err := t.narrate(activity)
	if err != nil {
		return failure("generate narrative", err), nil
	}
	return success("Generated narrative for "+key, envelope{
		"repository": owner + "/" + repo,
		"narrative":  narratives[0],
	}), nil
}

// detect and narrate report a panic as an internal error
func (t *AnalysisTools) detect(in anomaly.Input) (res anomaly.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			t.logger.WithField("panic", r).Error("anomaly detection panicked")
			err = errors.InternalErrorf("%v", r)
		}
	}()
	return t.engine.Detect(in), nil
}

func (t *AnalysisTools) narrate(a models.TicketActivity) (out []models.TicketNarrative, err error) {
	defer func() {
		if r := recover(); r != nil {
			t.logger.WithField("panic", r).Error("narrative generation panicked")
			err = errors.InternalErrorf("%v", r)
		}
	}()
	return t.synthesizer.Generate([]models.TicketActivity{a}), nil
}
