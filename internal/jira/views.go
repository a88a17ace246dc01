package jira

import (
	"time"

	jira "github.com/andygrunwald/go-jira"
)

// Transition is one status change as reported by the get-issue tool
type Transition struct {
	From      string `json:"from"`
	To        string `json:"to"`
	ChangedAt string `json:"changed_at"`
	ChangedBy string `json:"changed_by,omitempty"`
}

// IssueSummary is the row shape of search results
type IssueSummary struct {
	Key       string   `json:"key"`
	ID        string   `json:"id"`
	Summary   string   `json:"summary"`
	Status    string   `json:"status,omitempty"`
	IssueType string   `json:"issue_type,omitempty"`
	Assignee  string   `json:"assignee,omitempty"`
	Reporter  string   `json:"reporter,omitempty"`
	Created   string   `json:"created,omitempty"`
	Updated   string   `json:"updated,omitempty"`
	Priority  string   `json:"priority,omitempty"`
	Labels    []string `json:"labels"`
	URL       string   `json:"url"`
}

// IssueDetail is the full shape returned for a single issue
type IssueDetail struct {
	IssueSummary
	Description       string       `json:"description,omitempty"`
	StatusID          string       `json:"status_id,omitempty"`
	AssigneeEmail     string       `json:"assignee_email,omitempty"`
	Resolution        string       `json:"resolution,omitempty"`
	ResolutionDate    string       `json:"resolution_date,omitempty"`
	Components        []string     `json:"components"`
	FixVersions       []string     `json:"fix_versions"`
	StatusTransitions []Transition `json:"status_transitions"`
}

// Change is one field change inside a changelog entry
type Change struct {
	Field     string `json:"field"`
	FieldType string `json:"field_type,omitempty"`
	From      string `json:"from"`
	To        string `json:"to"`
}

// ChangelogEntry is one history record of an issue
type ChangelogEntry struct {
	ID      string   `json:"id"`
	Author  string   `json:"author,omitempty"`
	Created string   `json:"created"`
	Changes []Change `json:"changes"`
}

// CommentView is a comment as reported by the comments tool
type CommentView struct {
	ID          string `json:"id"`
	Author      string `json:"author,omitempty"`
	AuthorEmail string `json:"author_email,omitempty"`
	Body        string `json:"body"`
	Created     string `json:"created"`
	Updated     string `json:"updated,omitempty"`
	Visibility  string `json:"visibility,omitempty"`
}

func formatTime(t jira.Time) string {
	tt := time.Time(t)
	if tt.IsZero() {
		return ""
	}
	return tt.UTC().Format(time.RFC3339)
}

// Summarize converts an issue to a search row
func (c *Client) Summarize(issue jira.Issue) IssueSummary {
	s := IssueSummary{Key: issue.Key, ID: issue.ID, Labels: []string{}, URL: c.BrowseURL(issue.Key)}
	f := issue.Fields
	if f == nil {
		return s
	}
	s.Summary = f.Summary
	s.IssueType = f.Type.Name
	s.Created = formatTime(f.Created)
	s.Updated = formatTime(f.Updated)
	if f.Status != nil {
		s.Status = f.Status.Name
	}
	if f.Assignee != nil {
		s.Assignee = f.Assignee.DisplayName
	}
	if f.Reporter != nil {
		s.Reporter = f.Reporter.DisplayName
	}
	if f.Priority != nil {
		s.Priority = f.Priority.Name
	}
	if f.Labels != nil {
		s.Labels = f.Labels
	}
	return s
}

// Detail converts an issue to the single-issue shape
func (c *Client) Detail(issue jira.Issue) IssueDetail {
	d := IssueDetail{
		IssueSummary:      c.Summarize(issue),
		Components:        []string{},
		FixVersions:       []string{},
		StatusTransitions: []Transition{},
	}
	if f := issue.Fields; f != nil {
		d.Description = f.Description
		d.ResolutionDate = formatTime(f.Resolutiondate)
		if f.Status != nil {
			d.StatusID = f.Status.ID
		}
		if f.Assignee != nil {
			d.AssigneeEmail = f.Assignee.EmailAddress
		}
		if f.Resolution != nil {
			d.Resolution = f.Resolution.Name
		}
		for _, comp := range f.Components {
			d.Components = append(d.Components, comp.Name)
		}
		for _, v := range f.FixVersions {
			d.FixVersions = append(d.FixVersions, v.Name)
		}
	}
	if issue.Changelog != nil {
		for _, h := range issue.Changelog.Histories {
			for _, item := range h.Items {
				if item.Field != "status" {
					continue
				}
				d.StatusTransitions = append(d.StatusTransitions, Transition{
					From:      item.FromString,
					To:        item.ToString,
					ChangedAt: h.Created,
					ChangedBy: h.Author.DisplayName,
				})
			}
		}
	}
	return d
}

// Changelog converts change histories to entries
func Changelog(histories []jira.ChangelogHistory) []ChangelogEntry {
	out := make([]ChangelogEntry, 0, len(histories))
	for _, h := range histories {
		entry := ChangelogEntry{ID: h.Id, Author: h.Author.DisplayName, Created: h.Created, Changes: []Change{}}
		for _, item := range h.Items {
			entry.Changes = append(entry.Changes, Change{
				Field:     item.Field,
				FieldType: item.FieldType,
				From:      item.FromString,
				To:        item.ToString,
			})
		}
		out = append(out, entry)
	}
	return out
}

// Comments converts comments to views
func Comments(comments []*jira.Comment) []CommentView {
	out := make([]CommentView, 0, len(comments))
	for _, cm := range comments {
		out = append(out, CommentView{
			ID:          cm.ID,
			Author:      cm.Author.DisplayName,
			AuthorEmail: cm.Author.EmailAddress,
			Body:        cm.Body,
			Created:     cm.Created,
			Updated:     cm.Updated,
			Visibility:  cm.Visibility.Value,
		})
	}
	return out
}
