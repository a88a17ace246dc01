// Package output renders anomaly and narrative reports for the CLI.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/rohankatakam/devai/internal/models"
)

// Report is what a CLI command prints. Either list may be empty.
type Report struct {
	Subject     string                   `json:"subject"`
	Anomalies   []models.Anomaly         `json:"anomalies,omitempty"`
	Narratives  []models.TicketNarrative `json:"narratives,omitempty"`
	Diagnostics []models.Diagnostic      `json:"diagnostics,omitempty"`
}

// Formatter writes a report
type Formatter interface {
	Format(r *Report, w io.Writer) error
}

// Format names an output style
type Format string

const (
	FormatQuiet    Format = "quiet"    // one-line summary
	FormatStandard Format = "standard" // human readable list
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
)

// ParseFormat accepts a format name; "table" is an alias for standard
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatQuiet, FormatStandard, FormatJSON, FormatYAML:
		return f, nil
	case "table", "text":
		return FormatStandard, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want quiet, standard, json or yaml)", s)
	}
}

// NewFormatter creates the formatter for f
func NewFormatter(f Format) Formatter {
	switch f {
	case FormatQuiet:
		return &QuietFormatter{}
	case FormatJSON:
		return &JSONFormatter{}
	case FormatYAML:
		return &YAMLFormatter{}
	default:
		return &StandardFormatter{}
	}
}

// DefaultFormat picks a format from the environment: JSON for agents and
// pipes, the standard list for terminals and CI logs.
func DefaultFormat(out *os.File) Format {
	if os.Getenv("DEVAI_AI_MODE") == "1" {
		return FormatJSON
	}
	if os.Getenv("CI") == "true" {
		return FormatStandard
	}
	if out != nil && term.IsTerminal(int(out.Fd())) {
		return FormatStandard
	}
	return FormatJSON
}
