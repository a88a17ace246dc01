package main

import (
	"github.com/spf13/cobra"

	"github.com/rohankatakam/devai/internal/adapter"
	"github.com/rohankatakam/devai/internal/collector"
	"github.com/rohankatakam/devai/internal/errors"
	"github.com/rohankatakam/devai/internal/models"
	"github.com/rohankatakam/devai/internal/narrative"
	"github.com/rohankatakam/devai/internal/output"
)

var (
	narrateInput    string
	narrateRepo     string
	narrateTicket   string
	narrateEstimate int
	narrateFormat   string
)

var narrateCmd = &cobra.Command{
	Use:   "narrate",
	Short: "Generate ticket narratives",
	Long: `Summarize how tickets progressed through their commits, pull requests and reviews.

Examples:
  # Same body as POST /api/narratives/generate
  devai narrate --input tickets.json

  # Collect one ticket's pull requests live from GitHub
  devai narrate --repo acme/api --ticket PROJ-42 --estimated-days 3`,
	RunE: runNarrate,
}

func init() {
	narrateCmd.Flags().StringVar(&narrateInput, "input", "", "JSON file with repository and tickets")
	narrateCmd.Flags().StringVar(&narrateRepo, "repo", "", "GitHub owner/repo to collect from")
	narrateCmd.Flags().StringVar(&narrateTicket, "ticket", "", "ticket key to collect (with --repo)")
	narrateCmd.Flags().IntVar(&narrateEstimate, "estimated-days", 0, "estimate to compare against (with --ticket)")
	narrateCmd.Flags().StringVarP(&narrateFormat, "format", "o", "", "output format: quiet, standard, json or yaml")
	narrateCmd.MarkFlagsMutuallyExclusive("input", "repo")
	narrateCmd.MarkFlagsOneRequired("input", "repo")
	narrateCmd.MarkFlagsRequiredTogether("repo", "ticket")
}

// narrateFile is the body POST /api/narratives/generate accepts
type narrateFile struct {
	Repository string           `json:"repository"`
	Tickets    []map[string]any `json:"tickets"`
}

func runNarrate(cmd *cobra.Command, args []string) error {
	var (
		activities []models.TicketActivity
		diags      []models.Diagnostic
		subject    string
	)

	if narrateInput != "" {
		var file narrateFile
		if err := readJSONFile(narrateInput, &file); err != nil {
			return err
		}
		if file.Tickets == nil {
			return errors.ValidationErrorf("%s: tickets is required", narrateInput)
		}
		for _, raw := range file.Tickets {
			activity, d := adapter.ParseActivity(raw)
			activities = append(activities, activity)
			diags = append(diags, d...)
		}
		subject = file.Repository
	} else {
		owner, repo, err := splitRepo(narrateRepo)
		if err != nil {
			return err
		}
		gc, err := newGitHubClient()
		if err != nil {
			return err
		}
		var estimate *int
		if narrateEstimate > 0 {
			estimate = &narrateEstimate
		}
		activity, err := collector.NewGitHub(gc, logger.Component("collector")).Activity(cmd.Context(), owner, repo, narrateTicket, estimate)
		if err != nil {
			return err
		}
		if len(activity.PRs) == 0 {
			logger.WithField("ticket", narrateTicket).Warn("no pull requests mention this ticket")
		}
		activities = append(activities, activity)
		subject = narrateRepo
	}

	narratives := narrative.NewSynthesizer(logger.Component("narrative")).Generate(activities)
	return printReport(&output.Report{
		Subject:     subject,
		Narratives:  narratives,
		Diagnostics: diags,
	}, narrateFormat)
}
