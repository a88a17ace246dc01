package jira

import (
	"fmt"
	"sort"
	"time"

	jira "github.com/andygrunwald/go-jira"

	"github.com/rohankatakam/devai/internal/adapter"
	"github.com/rohankatakam/devai/internal/models"
)

// ToSnapshot maps an issue fetched with an expanded changelog to a ticket
// snapshot. Status transitions are the changelog items on the status field;
// histories with an unreadable date are skipped with a diagnostic.
func ToSnapshot(issue jira.Issue) (models.TicketSnapshot, []models.Diagnostic) {
	snap := models.TicketSnapshot{
		Key:           issue.Key,
		StatusHistory: []models.StatusTransition{},
	}
	var diags []models.Diagnostic
	record := "jira:" + issue.Key

	if f := issue.Fields; f != nil {
		snap.Summary = f.Summary
		if f.Status != nil {
			snap.Status = models.Status(f.Status.Name)
		}
		if f.Assignee != nil {
			snap.Assignee = f.Assignee.DisplayName
		}
		if updated := time.Time(f.Updated); !updated.IsZero() {
			u := updated.UTC()
			snap.Updated = &u
		} else {
			diags = append(diags, models.Diagnostic{Record: record, Reason: "missing updated timestamp"})
		}
		if f.Comments != nil {
			snap.CommentsCount = len(f.Comments.Comments)
		}
	}

	if issue.Changelog != nil {
		for i, h := range issue.Changelog.Histories {
			for _, item := range h.Items {
				if item.Field != "status" {
					continue
				}
				date, err := adapter.ParseTime(h.Created)
				if err != nil {
					diags = append(diags, models.Diagnostic{
						Record: fmt.Sprintf("%s:changelog[%d]", record, i),
						Reason: fmt.Sprintf("invalid created %q: %v", h.Created, err),
					})
					continue
				}
				snap.StatusHistory = append(snap.StatusHistory, models.StatusTransition{
					From:   item.FromString,
					To:     models.Status(item.ToString),
					Date:   date,
					Author: h.Author.DisplayName,
				})
			}
		}
	}
	sort.SliceStable(snap.StatusHistory, func(i, j int) bool {
		return snap.StatusHistory[i].Date.Before(snap.StatusHistory[j].Date)
	})

	return snap, diags
}

// ToSnapshots maps a page of issues, collecting diagnostics
func ToSnapshots(issues []jira.Issue) ([]models.TicketSnapshot, []models.Diagnostic) {
	snaps := make([]models.TicketSnapshot, 0, len(issues))
	var diags []models.Diagnostic
	for _, issue := range issues {
		if issue.Key == "" {
			diags = append(diags, models.Diagnostic{Record: "jira:" + issue.ID, Reason: "missing key"})
			continue
		}
		snap, d := ToSnapshot(issue)
		snaps = append(snaps, snap)
		diags = append(diags, d...)
	}
	return snaps, diags
}
