// Package mcp exposes the GitHub, Jira and analysis operations as MCP tools.
//
// Every tool answers with a JSON envelope {status, message, ...}. Failures are
// reported inside the envelope with status "error" rather than as protocol
// errors, so agents can read the message and retry with other arguments.
package mcp

import (
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"

	"github.com/rohankatakam/devai/internal/anomaly"
	"github.com/rohankatakam/devai/internal/dashboard"
	"github.com/rohankatakam/devai/internal/github"
	"github.com/rohankatakam/devai/internal/jira"
	"github.com/rohankatakam/devai/internal/narrative"
)

// Version is reported during the MCP handshake
var Version = "0.1.0"

// Toolset selects a group of tools
type Toolset string

const (
	ToolsetGitHub   Toolset = "github"
	ToolsetJira     Toolset = "jira"
	ToolsetAnalysis Toolset = "analysis"
	ToolsetAll      Toolset = "all"
)

// ParseToolsets parses a comma separated toolset list
func ParseToolsets(s string) ([]Toolset, error) {
	var out []Toolset
	for _, part := range strings.Split(s, ",") {
		ts := Toolset(strings.ToLower(strings.TrimSpace(part)))
		switch ts {
		case "":
			continue
		case ToolsetGitHub, ToolsetJira, ToolsetAnalysis, ToolsetAll:
			out = append(out, ts)
		default:
			return nil, fmt.Errorf("unknown toolset %q (want github, jira, analysis or all)", part)
		}
	}
	if len(out) == 0 {
		out = []Toolset{ToolsetAll}
	}
	return out, nil
}

// Dependencies are the clients tools call. A nil client disables the tools
// that need it.
type Dependencies struct {
	GitHub      *github.Client
	Jira        *jira.Client
	Pusher      *dashboard.Pusher
	Engine      *anomaly.Engine
	Synthesizer *narrative.Synthesizer
	Logger      logrus.FieldLogger
}

// Tools returns the tools of the selected toolsets whose clients are present
func Tools(deps Dependencies, toolsets ...Toolset) []server.ServerTool {
	if deps.Logger == nil {
		deps.Logger = logrus.StandardLogger()
	}
	enabled := make(map[Toolset]bool)
	for _, ts := range toolsets {
		if ts == ToolsetAll {
			enabled[ToolsetGitHub], enabled[ToolsetJira], enabled[ToolsetAnalysis] = true, true, true
			continue
		}
		enabled[ts] = true
	}

	var tools []server.ServerTool
	if enabled[ToolsetGitHub] && deps.GitHub != nil {
		tools = append(tools, NewGitHubTools(deps.GitHub, deps.Pusher, deps.Logger).Tools()...)
	}
	if enabled[ToolsetJira] && deps.Jira != nil {
		tools = append(tools, NewJiraTools(deps.Jira, deps.Logger).Tools()...)
	}
	if enabled[ToolsetAnalysis] {
		tools = append(tools, NewAnalysisTools(deps).Tools()...)
	}
	return tools
}

// New creates the MCP server with the selected toolsets registered
func New(deps Dependencies, toolsets ...Toolset) (*server.MCPServer, error) {
	tools := Tools(deps, toolsets...)
	if len(tools) == 0 {
		return nil, fmt.Errorf("no tools available for toolsets %v: configure GitHub or Jira credentials", toolsets)
	}

	s := server.NewMCPServer(
		"devai",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)
	s.AddTools(tools...)

	if deps.Logger != nil {
		deps.Logger.WithField("tools", len(tools)).Info("mcp server ready")
	}
	return s, nil
}

const instructions = "DevAI tools read GitHub and Jira activity. Use detect_anomalies to find " +
	"stalled, reopened, stuck or overloaded tickets in a Jira project, and " +
	"generate_ticket_narrative to summarize the pull request history of one ticket."
