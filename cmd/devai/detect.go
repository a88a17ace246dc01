package main

import (
	"github.com/spf13/cobra"

	"github.com/rohankatakam/devai/internal/adapter"
	"github.com/rohankatakam/devai/internal/anomaly"
	"github.com/rohankatakam/devai/internal/collector"
	"github.com/rohankatakam/devai/internal/errors"
	"github.com/rohankatakam/devai/internal/http/dto"
	"github.com/rohankatakam/devai/internal/models"
	"github.com/rohankatakam/devai/internal/output"
)

var (
	detectInput      string
	detectProject    string
	detectRepo       string
	detectMaxTickets int
	detectMax        int
	detectFormat     string
)

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Detect workflow anomalies",
	Long: `Detect anomalies from a JSON export or live from Jira.

Examples:
  # Same body as POST /api/anomalies/detect
  devai detect --input export.json

  # Scan a Jira project, checking pull requests for ticket references
  devai detect --project PROJ --repo acme/api --format yaml`,
	RunE: runDetect,
}

func init() {
	detectCmd.Flags().StringVar(&detectInput, "input", "", "JSON file with jira_data and optional github_data")
	detectCmd.Flags().StringVar(&detectProject, "project", "", "Jira project key to scan live")
	detectCmd.Flags().StringVar(&detectRepo, "repo", "", "GitHub owner/repo for the missing-link check (with --project)")
	detectCmd.Flags().IntVar(&detectMaxTickets, "max-tickets", collector.DefaultMaxTickets, "issues to scan with --project")
	detectCmd.Flags().IntVar(&detectMax, "max-anomalies", -1, "maximum anomalies to report (default from input or config)")
	detectCmd.Flags().StringVarP(&detectFormat, "format", "o", "", "output format: quiet, standard, json or yaml")
	detectCmd.MarkFlagsMutuallyExclusive("input", "project")
	detectCmd.MarkFlagsOneRequired("input", "project")
}

func runDetect(cmd *cobra.Command, args []string) error {
	var (
		in    anomaly.Input
		diags []models.Diagnostic
		err   error
	)
	if detectInput != "" {
		in, diags, err = detectFromFile(detectInput)
	} else {
		in, diags, err = detectFromJira(cmd, detectProject, detectRepo)
	}
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("max-anomalies") {
		in.MaxAnomalies = detectMax
	}
	if in.MaxAnomalies < 0 {
		return errors.ValidationErrorf("max anomalies must not be negative (got %d)", in.MaxAnomalies)
	}

	engine := anomaly.NewEngine(anomaly.WithLogger(logger.Component("anomaly")))
	result := engine.Detect(in)

	return printReport(&output.Report{
		Subject:     in.ProjectKey,
		Anomalies:   result.Anomalies,
		Diagnostics: append(diags, result.Diagnostics...),
	}, detectFormat)
}

// detectFromFile reads a request body as accepted by the HTTP API
func detectFromFile(path string) (anomaly.Input, []models.Diagnostic, error) {
	var req dto.DetectAnomaliesRequest
	if err := readJSONFile(path, &req); err != nil {
		return anomaly.Input{}, nil, err
	}
	tickets, diags := adapter.ParseIssues(req.JiraData.Issues)
	in := anomaly.Input{Tickets: tickets, ProjectKey: req.JiraData.ProjectKey, MaxAnomalies: cfg.Detection.MaxAnomalies}
	if req.MaxAnomalies != nil {
		in.MaxAnomalies = *req.MaxAnomalies
	}
	if req.GitHubData != nil && req.GitHubData.PullRequests != nil {
		prs, prDiags := adapter.ParsePullRequests("github_data.pull_requests", req.GitHubData.PullRequests)
		in.PullRequests = prs
		diags = append(diags, prDiags...)
	}
	return in, diags, nil
}

func detectFromJira(cmd *cobra.Command, project, repository string) (anomaly.Input, []models.Diagnostic, error) {
	jc, err := newJiraClient()
	if err != nil {
		return anomaly.Input{}, nil, err
	}
	tickets, diags, err := collector.NewJira(jc, logger.Component("collector")).Snapshots(cmd.Context(), project, detectMaxTickets)
	if err != nil {
		return anomaly.Input{}, nil, err
	}
	in := anomaly.Input{Tickets: tickets, ProjectKey: project, MaxAnomalies: cfg.Detection.MaxAnomalies}

	if repository != "" {
		owner, repo, err := splitRepo(repository)
		if err != nil {
			return anomaly.Input{}, nil, err
		}
		gc, err := newGitHubClient()
		if err != nil {
			return anomaly.Input{}, nil, err
		}
		prs, err := collector.NewGitHub(gc, logger.Component("collector")).PullRequests(cmd.Context(), owner, repo, collector.DefaultPRScan)
		if err != nil {
			return anomaly.Input{}, nil, err
		}
		in.PullRequests = prs
	}
	return in, diags, nil
}
