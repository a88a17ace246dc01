package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/rohankatakam/devai/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage DevAI configuration",
	Long:  `View configuration, write a starter file, and store secrets in the OS keychain.`,
}

var configShowFormat string

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration with secrets masked",
	RunE:  runConfigShow,
}

var configInitForce bool

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a configuration file with default values",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConfigInit,
}

var configSetSecretCmd = &cobra.Command{
	Use:   "set-secret [item]",
	Short: "Store a secret in the OS keychain",
	Long: `Store a secret in the OS keychain. The value is read from the terminal
without echo, or from stdin when piped.

Items: ` + strings.Join(config.KeyringItems, ", ") + `

Examples:
  devai config set-secret github-token
  echo "$JIRA_API_TOKEN" | devai config set-secret jira-api-token`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigSetSecret,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration for the serve and mcp commands",
	RunE:  runConfigValidate,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configSetSecretCmd)
	configCmd.AddCommand(configValidateCmd)

	configShowCmd.Flags().StringVarP(&configShowFormat, "format", "o", "yaml", "output format: yaml or json")
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "overwrite an existing file")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	redacted := cfg.Redacted()
	out := cmd.OutOrStdout()

	switch strings.ToLower(configShowFormat) {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(redacted)
	case "yaml", "":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(redacted); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q (want yaml or json)", configShowFormat)
	}
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := filepath.Join(".devai", "config.yaml")
	if len(args) == 1 {
		path = args[0]
	}
	if _, err := os.Stat(path); err == nil && !configInitForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	if err := config.Default().Save(path); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s\n", path)
	fmt.Fprintln(cmd.OutOrStdout(), "  Store tokens with 'devai config set-secret' or set GITHUB_TOKEN, JIRA_API_TOKEN and ANTHROPIC_API_KEY.")
	return nil
}

func runConfigSetSecret(cmd *cobra.Command, args []string) error {
	item := args[0]
	if !slices.Contains(config.KeyringItems, item) {
		return fmt.Errorf("unknown secret %q (want one of %s)", item, strings.Join(config.KeyringItems, ", "))
	}

	km := config.NewKeyringManager()
	if !km.IsAvailable() {
		return fmt.Errorf("no OS keychain available; set the value through the environment instead")
	}

	if isInteractive() {
		fmt.Fprintf(cmd.OutOrStdout(), "Enter %s: ", item)
	}
	secret, err := readSecurely()
	if err != nil {
		return fmt.Errorf("failed to read secret: %w", err)
	}
	if err := km.Set(item, secret); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Saved %s (%s) to keychain\n", item, config.MaskSecret(secret))
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	failed := false
	for _, ctx := range []config.ValidationContext{config.ValidationContextServe, config.ValidationContextMCP} {
		result := cfg.Validate(ctx)
		if result.HasErrors() {
			failed = true
			fmt.Fprintf(cmd.OutOrStdout(), "✗ %s\n%s", ctx, result.Error())
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ %s\n", ctx)
		for _, w := range result.Warnings {
			fmt.Fprintf(cmd.OutOrStdout(), "  ⚠️  %s\n", w)
		}
	}
	if failed {
		return fmt.Errorf("configuration is incomplete")
	}
	return nil
}

// readSecurely reads a token from stdin without echoing it on a terminal
func readSecurely() (string, error) {
	if isInteractive() {
		bytes, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(bytes)), nil
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func isInteractive() bool {
	return term.IsTerminal(int(syscall.Stdin))
}
