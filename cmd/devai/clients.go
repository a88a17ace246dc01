package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rohankatakam/devai/internal/errors"
	"github.com/rohankatakam/devai/internal/github"
	"github.com/rohankatakam/devai/internal/jira"
	"github.com/rohankatakam/devai/internal/output"
)

func newGitHubClient() (*github.Client, error) {
	if cfg.GitHub.Token == "" {
		logger.Warn("GITHUB_TOKEN not set; using anonymous GitHub access with a low rate limit")
	}
	return github.NewClient(cfg.GitHub.Token, cfg.GitHub.RateLimit, github.WithLogger(logger.Component("github")))
}

func newJiraClient() (*jira.Client, error) {
	if !cfg.Jira.Configured() {
		return nil, errors.ConfigError("Jira is not configured. Set JIRA_URL with JIRA_EMAIL and JIRA_API_TOKEN, or JIRA_PERSONAL_TOKEN.")
	}
	return jira.NewClient(cfg.Jira, logger.Component("jira"))
}

// splitRepo parses "owner/repo"
func splitRepo(s string) (owner, repo string, err error) {
	owner, repo, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return "", "", errors.ValidationErrorf("invalid repository %q (want owner/repo)", s)
	}
	return owner, repo, nil
}

func readJSONFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.ValidationErrorf("%s is not valid JSON: %v", path, err)
	}
	return nil
}

// printReport writes r to stdout in the requested format, or the
// environment's default when format is empty
func printReport(r *output.Report, format string) error {
	f := output.DefaultFormat(os.Stdout)
	if format != "" {
		var err error
		if f, err = output.ParseFormat(format); err != nil {
			return err
		}
	}
	return output.NewFormatter(f).Format(r, os.Stdout)
}
