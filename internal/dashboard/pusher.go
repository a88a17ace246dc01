package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rohankatakam/devai/internal/models"
)

// SyncPath is the backend route that accepts issue pushes
const SyncPath = "/api/dashboard/sync-issues"

// PushTimeout bounds one push
const PushTimeout = 10 * time.Second

// SyncRequest is the body of a push
type SyncRequest struct {
	Repository string                  `json:"repository" binding:"required"`
	Issues     []models.DashboardIssue `json:"issues" binding:"required,dive"`
	Timestamp  *string                 `json:"timestamp"`
}

// PushError reports a failed push. StatusCode is zero when the backend could
// not be reached at all.
type PushError struct {
	StatusCode int
	Cause      error
}

func (e *PushError) Error() string {
	if e.Unreachable() {
		return fmt.Sprintf("backend API is unreachable: %v", e.Cause)
	}
	return fmt.Sprintf("Backend responded with status %d", e.StatusCode)
}

func (e *PushError) Unwrap() error { return e.Cause }

// Unreachable reports whether no response was received
func (e *PushError) Unreachable() bool { return e.StatusCode == 0 }

// Pusher sends issue snapshots to a running backend
type Pusher struct {
	baseURL string
	client  *http.Client
}

// NewPusher creates a pusher for the backend at baseURL
func NewPusher(baseURL string) *Pusher {
	return &Pusher{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: PushTimeout},
	}
}

// Push posts the issues and returns the decoded backend response
func (p *Pusher) Push(ctx context.Context, repository string, issues []models.DashboardIssue) (map[string]any, error) {
	if issues == nil {
		issues = []models.DashboardIssue{}
	}
	body, err := json.Marshal(SyncRequest{Repository: repository, Issues: issues})
	if err != nil {
		return nil, fmt.Errorf("encode sync request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+SyncPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build sync request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, &PushError{Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &PushError{StatusCode: resp.StatusCode}
	}

	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode sync response: %w", err)
	}
	return out, nil
}
