package models

import (
	"time"
)

// Status is a tracker workflow label such as "In Progress". The vocabulary is
// open; comparisons are exact and case-sensitive.
type Status string

// Known status labels
const (
	StatusBacklog       Status = "Backlog"
	StatusOpen          Status = "Open"
	StatusToDo          Status = "To Do"
	StatusInProgress    Status = "In Progress"
	StatusInDevelopment Status = "In Development"
	StatusInReview      Status = "In Review"
	StatusReview        Status = "Review"
	StatusCodeReview    Status = "Code Review"
	StatusDone          Status = "Done"
	StatusClosed        Status = "Closed"
	StatusResolved      Status = "Resolved"
)

// StatusSet is a closed group of status labels
type StatusSet []Status

// Contains reports whether s is a member of the set
func (set StatusSet) Contains(s Status) bool {
	for _, candidate := range set {
		if candidate == s {
			return true
		}
	}
	return false
}

var (
	// StaleStatuses are statuses where inactivity means the work stalled
	StaleStatuses = StatusSet{StatusInProgress, StatusInDevelopment}

	// ReviewStatuses are statuses waiting on a code review
	ReviewStatuses = StatusSet{StatusInReview, StatusReview, StatusCodeReview}

	// DoneStatuses are terminal statuses
	DoneStatuses = StatusSet{StatusDone, StatusClosed, StatusResolved}

	// ActiveStatuses count toward an assignee's concurrent workload
	ActiveStatuses = StatusSet{StatusInProgress, StatusInDevelopment, StatusInReview}
)

// StatusTransition records one status change of a ticket
type StatusTransition struct {
	From   string    `json:"from"`
	To     Status    `json:"to"`
	Date   time.Time `json:"date"`
	Author string    `json:"author,omitempty"`
}

// TicketSnapshot is a point-in-time view of a tracked work item
type TicketSnapshot struct {
	Key           string             `json:"key"`
	Summary       string             `json:"summary,omitempty"`
	Status        Status             `json:"status"`
	Assignee      string             `json:"assignee,omitempty"`
	Updated       *time.Time         `json:"updated,omitempty"` // nil when missing or unparseable
	StatusHistory []StatusTransition `json:"status_history"`
	CommentsCount int                `json:"comments_count"`
}

// Commit represents a git commit attached to a ticket
type Commit struct {
	SHA         string    `json:"sha"`
	Message     string    `json:"message"`
	Author      string    `json:"author"`
	AuthorLogin string    `json:"author_login,omitempty"`
	Date        time.Time `json:"date"`
	URL         string    `json:"url,omitempty"`
}

// Identity returns the login when present, falling back to the author name
func (c Commit) Identity() string {
	if c.AuthorLogin != "" {
		return c.AuthorLogin
	}
	return c.Author
}

// PullRequest represents a GitHub pull request
type PullRequest struct {
	Number     int        `json:"number"`
	Title      string     `json:"title"`
	Body       string     `json:"body,omitempty"`
	State      string     `json:"state,omitempty"`
	Author     string     `json:"author"`
	HeadBranch string     `json:"head_branch,omitempty"`
	BaseBranch string     `json:"base_branch,omitempty"`
	Additions  int        `json:"additions"`
	Deletions  int        `json:"deletions"`
	CreatedAt  time.Time  `json:"created_at"`
	MergedAt   *time.Time `json:"merged_at,omitempty"`
	URL        string     `json:"url,omitempty"`
}

// Merged reports whether the pull request carries a merge timestamp
func (pr PullRequest) Merged() bool {
	return pr.MergedAt != nil
}

// ReviewState is the verdict of a pull request review
type ReviewState string

const (
	ReviewApproved         ReviewState = "APPROVED"
	ReviewChangesRequested ReviewState = "CHANGES_REQUESTED"
	ReviewCommented        ReviewState = "COMMENTED"
	ReviewDismissed        ReviewState = "DISMISSED"
	ReviewPending          ReviewState = "PENDING"
)

// Valid reports whether the state is one GitHub emits
func (s ReviewState) Valid() bool {
	switch s {
	case ReviewApproved, ReviewChangesRequested, ReviewCommented, ReviewDismissed, ReviewPending:
		return true
	default:
		return false
	}
}

// Review represents a pull request review
type Review struct {
	PRNumber    int         `json:"pr_number"`
	Author      string      `json:"author"`
	State       ReviewState `json:"state"`
	Body        string      `json:"body,omitempty"`
	SubmittedAt time.Time   `json:"submitted_at"`
}

// Comment represents a pull request conversation comment
type Comment struct {
	PRNumber  int       `json:"pr_number"`
	Author    string    `json:"author"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// TicketActivity groups the GitHub activity recorded against one ticket
type TicketActivity struct {
	TicketID      string        `json:"ticketId"`
	EstimatedDays *int          `json:"estimatedDays,omitempty"`
	Commits       []Commit      `json:"commits"`
	PRs           []PullRequest `json:"prs"`
	Reviews       []Review      `json:"reviews"`
	Comments      []Comment     `json:"comments"`
}

// Diagnostic describes one input record that was skipped
type Diagnostic struct {
	Record string `json:"record"`
	Reason string `json:"reason"`
}
