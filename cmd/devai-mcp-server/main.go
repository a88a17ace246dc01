package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/rohankatakam/devai/internal/config"
	"github.com/rohankatakam/devai/internal/dashboard"
	"github.com/rohankatakam/devai/internal/github"
	"github.com/rohankatakam/devai/internal/jira"
	"github.com/rohankatakam/devai/internal/logging"
	"github.com/rohankatakam/devai/internal/mcp"
)

var (
	Version = "dev"

	cfgFile  string
	toolsets string
	verbose  bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "devai-mcp-server",
	Short: "Serve DevAI GitHub, Jira and analysis tools over MCP stdio",
	Long: `Serve DevAI tools to an MCP client over stdin/stdout.

Stdout carries the protocol; logs go to stderr or the configured log file.

Examples:
  devai-mcp-server --toolset github,analysis
  JIRA_URL=https://acme.atlassian.net devai-mcp-server --toolset jira`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	rootCmd.Flags().StringVar(&cfgFile, "config", "", "config file (default: .devai/config.yaml)")
	rootCmd.Flags().StringVar(&toolsets, "toolset", "all", "comma separated toolsets: github, jira, analysis or all")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

func run(cmd *cobra.Command, args []string) error {
	selected, err := mcp.ParseToolsets(toolsets)
	if err != nil {
		return err
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	logger, err := logging.New(logging.Config{
		Level:      level,
		OutputFile: cfg.Log.File,
		JSONFormat: cfg.Log.JSON,
		Output:     os.Stderr,
	})
	if err != nil {
		return err
	}
	defer logger.Close()

	result := cfg.Validate(config.ValidationContextMCP)
	for _, w := range result.Warnings {
		logger.Warn(w)
	}
	if result.HasErrors() {
		return errors.New(result.Error())
	}

	mcp.Version = Version
	deps := mcp.Dependencies{
		Pusher: dashboard.NewPusher(cfg.Dashboard.BackendURL),
		Logger: logger.Component("mcp"),
	}
	if cfg.GitHub.Token != "" {
		deps.GitHub, err = github.NewClient(cfg.GitHub.Token, cfg.GitHub.RateLimit, github.WithLogger(logger.Component("github")))
		if err != nil {
			return err
		}
	} else {
		logger.Warn("GITHUB_TOKEN not set; GitHub tools disabled")
	}
	if cfg.Jira.Configured() {
		deps.Jira, err = jira.NewClient(cfg.Jira, logger.Component("jira"))
		if err != nil {
			return err
		}
	} else {
		logger.Warn("Jira credentials not set; Jira tools disabled")
	}

	s, err := mcp.New(deps, selected...)
	if err != nil {
		return err
	}

	logger.WithField("toolsets", toolsets).Info("mcp server started on stdio")
	if err := server.ServeStdio(s); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}
