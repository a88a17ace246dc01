package config

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidationContext specifies what configuration is required
type ValidationContext string

const (
	// ValidationContextServe - the HTTP API; Claude is optional (chat only)
	ValidationContextServe ValidationContext = "serve"
	// ValidationContextMCP - the MCP tool server needs GitHub and/or Jira
	ValidationContextMCP ValidationContext = "mcp"
	// ValidationContextChat - the chat proxy requires a Claude key
	ValidationContextChat ValidationContext = "chat"
	// ValidationContextAll - validate all configuration
	ValidationContextAll ValidationContext = "all"
)

// ValidationResult holds validation results
type ValidationResult struct {
	Valid    bool
	Errors   []string
	Warnings []string
}

// AddError adds an error to the validation result
func (vr *ValidationResult) AddError(format string, args ...interface{}) {
	vr.Valid = false
	vr.Errors = append(vr.Errors, fmt.Sprintf(format, args...))
}

// AddWarning adds a warning to the validation result
func (vr *ValidationResult) AddWarning(format string, args ...interface{}) {
	vr.Warnings = append(vr.Warnings, fmt.Sprintf(format, args...))
}

// HasErrors returns true if there are any errors
func (vr *ValidationResult) HasErrors() bool {
	return !vr.Valid || len(vr.Errors) > 0
}

// Error returns a formatted error message
func (vr *ValidationResult) Error() string {
	if !vr.HasErrors() {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("configuration validation failed:\n")
	for _, err := range vr.Errors {
		fmt.Fprintf(&sb, "  - %s\n", err)
	}
	if len(vr.Warnings) > 0 {
		sb.WriteString("warnings:\n")
		for _, warn := range vr.Warnings {
			fmt.Fprintf(&sb, "  - %s\n", warn)
		}
	}
	return sb.String()
}

// Validate validates configuration for the given context
func (c *Config) Validate(ctx ValidationContext) *ValidationResult {
	result := &ValidationResult{Valid: true}

	switch ctx {
	case ValidationContextServe:
		c.validateHTTP(result)
		c.validateClaude(result, false)
		c.validateLog(result)
	case ValidationContextMCP:
		c.validateGitHub(result, false)
		c.validateJira(result, false)
		if c.GitHub.Token == "" && !c.Jira.Configured() {
			result.AddError("neither GITHUB_TOKEN nor Jira credentials are set; no tools can be served")
		}
		c.validateDashboard(result)
	case ValidationContextChat:
		c.validateClaude(result, true)
	case ValidationContextAll:
		c.validateHTTP(result)
		c.validateGitHub(result, false)
		c.validateJira(result, false)
		c.validateClaude(result, false)
		c.validateDashboard(result)
		c.validateLog(result)
	}

	if c.Detection.MaxAnomalies < 0 {
		result.AddError("detection.max_anomalies must be >= 0 (got %d)", c.Detection.MaxAnomalies)
	}
	return result
}

// Configured reports whether enough Jira settings exist to build a client
func (j JiraConfig) Configured() bool {
	if j.URL == "" {
		return false
	}
	return j.PersonalToken != "" || (j.Email != "" && j.APIToken != "")
}

func (c *Config) validateHTTP(result *ValidationResult) {
	if c.HTTP.Addr == "" {
		result.AddError("HTTP_ADDR is empty")
	}
	if c.HTTP.ShutdownTimeout <= 0 {
		result.AddError("http.shutdown_timeout must be positive")
	}
	for _, origin := range c.HTTP.CORSOrigins {
		if origin == "*" {
			continue
		}
		if _, err := url.ParseRequestURI(origin); err != nil {
			result.AddError("invalid CORS origin %q: %v", origin, err)
		}
	}
}

func (c *Config) validateGitHub(result *ValidationResult, required bool) {
	if c.GitHub.Token == "" {
		if required {
			result.AddError("GITHUB_TOKEN is required but not set")
		} else {
			result.AddWarning("GITHUB_TOKEN not set; GitHub tools are disabled")
		}
	}
	if c.GitHub.RateLimit <= 0 {
		result.AddError("github.rate_limit must be positive (got %d)", c.GitHub.RateLimit)
	}
}

func (c *Config) validateJira(result *ValidationResult, required bool) {
	if !c.Jira.Configured() {
		if required {
			result.AddError("JIRA_URL with JIRA_EMAIL/JIRA_API_TOKEN or JIRA_PERSONAL_TOKEN is required")
		} else {
			result.AddWarning("Jira credentials not set; Jira tools are disabled")
		}
		return
	}
	if _, err := url.ParseRequestURI(c.Jira.URL); err != nil {
		result.AddError("invalid JIRA_URL %q: %v", c.Jira.URL, err)
	}
}

func (c *Config) validateClaude(result *ValidationResult, required bool) {
	if c.Claude.APIKey == "" {
		if required {
			result.AddError("ANTHROPIC_API_KEY is required but not set")
		} else {
			result.AddWarning("ANTHROPIC_API_KEY not set; /api/chat will return errors")
		}
	}
	if c.Claude.MaxTokens <= 0 {
		result.AddError("claude.max_tokens must be positive (got %d)", c.Claude.MaxTokens)
	}
}

func (c *Config) validateDashboard(result *ValidationResult) {
	if c.Dashboard.BackendURL == "" {
		result.AddWarning("BACKEND_API_URL not set; dashboard push is disabled")
		return
	}
	if _, err := url.ParseRequestURI(c.Dashboard.BackendURL); err != nil {
		result.AddError("invalid BACKEND_API_URL %q: %v", c.Dashboard.BackendURL, err)
	}
}

func (c *Config) validateLog(result *ValidationResult) {
	switch strings.ToLower(c.Log.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic":
	default:
		result.AddError("unknown log level %q", c.Log.Level)
	}
}
