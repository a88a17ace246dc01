package adapter

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohankatakam/devai/internal/models"
)

func decode(t *testing.T, s string) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(s), &m))
	return m
}

func TestParseTime(t *testing.T) {
	want := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)

	tests := []struct {
		name  string
		input string
	}{
		{"rfc3339 zulu", "2024-03-01T12:30:00Z"},
		{"rfc3339 fraction", "2024-03-01T12:30:00.000Z"},
		{"rfc3339 offset", "2024-03-01T14:30:00+02:00"},
		{"jira offset", "2024-03-01T12:30:00.000+0000"},
		{"jira negative offset", "2024-03-01T07:30:00.000-0500"},
		{"zoneless", "2024-03-01T12:30:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTime(tt.input)
			require.NoError(t, err)
			assert.True(t, want.Equal(got), "got %s", got)
			assert.Equal(t, time.UTC, got.Location())
		})
	}

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := ParseTime("last tuesday")
		assert.Error(t, err)
	})
	t.Run("rejects empty", func(t *testing.T) {
		_, err := ParseTime("")
		assert.Error(t, err)
	})
}

func TestParseIssues_FlatAndRawShapesAgree(t *testing.T) {
	flat := decode(t, `{
		"key": "PROJ-2",
		"summary": "Checkout flow",
		"status": "Done",
		"assignee": "alice",
		"updated": "2024-03-10T09:00:00Z",
		"comments_count": 3,
		"status_history": [
			{"from": "To Do", "to": "In Progress", "date": "2024-03-01T09:00:00Z", "author": "alice"},
			{"from": "In Progress", "to": "Done", "date": "2024-03-05T09:00:00Z", "author": "alice"}
		]
	}`)
	raw := decode(t, `{
		"key": "PROJ-2",
		"fields": {
			"summary": "Checkout flow",
			"status": {"name": "Done"},
			"assignee": {"displayName": "alice"},
			"updated": "2024-03-10T09:00:00.000+0000",
			"comment": {"total": 3, "comments": []}
		},
		"changelog": {"histories": [
			{"author": {"displayName": "alice"}, "created": "2024-03-01T09:00:00.000+0000",
			 "items": [{"field": "status", "fromString": "To Do", "toString": "In Progress"}]},
			{"author": {"displayName": "bob"}, "created": "2024-03-02T09:00:00.000+0000",
			 "items": [{"field": "labels", "fromString": "", "toString": "backend"}]},
			{"author": {"displayName": "alice"}, "created": "2024-03-05T09:00:00.000+0000",
			 "items": [{"field": "status", "fromString": "In Progress", "toString": "Done"}]}
		]}
	}`)

	tickets, diags := ParseIssues([]map[string]any{flat, raw})
	require.Empty(t, diags)
	require.Len(t, tickets, 2)

	assert.Equal(t, tickets[0], tickets[1])
	assert.Equal(t, models.StatusDone, tickets[0].Status)
	assert.Equal(t, 3, tickets[0].CommentsCount)
	require.Len(t, tickets[0].StatusHistory, 2)
	assert.Equal(t, models.StatusDone, tickets[0].StatusHistory[1].To)
}

func TestParseIssues_Diagnostics(t *testing.T) {
	issues := []map[string]any{
		decode(t, `{"status": "In Progress"}`),
		decode(t, `{"key": "PROJ-3", "status": "In Progress", "updated": "not a date"}`),
		decode(t, `{"key": "PROJ-4", "status": "Done", "status_history": [
			{"to": "Done", "date": "2024-03-05T09:00:00Z"},
			{"to": "In Progress", "date": "yesterday"}
		]}`),
	}

	tickets, diags := ParseIssues(issues)

	require.Len(t, tickets, 2, "keyless record is dropped, malformed dates are not")
	assert.Nil(t, tickets[0].Updated)
	assert.Len(t, tickets[1].StatusHistory, 1)

	require.Len(t, diags, 3)
	assert.Equal(t, "issues[0]", diags[0].Record)
	assert.Contains(t, diags[1].Record, "PROJ-3")
	assert.Contains(t, diags[2].Record, "status_history[1]")
}

func TestParseActivity(t *testing.T) {
	raw := decode(t, `{
		"ticketId": "PROJ-7",
		"estimatedDays": 4,
		"commits": [
			{"sha": "abc1234def", "message": "Add cart\n\nlong body", "author": "Alice", "author_login": "alice", "date": "2024-03-01T10:00:00Z"},
			{"sha": "f00", "commit": {"message": "Fix tax", "author": {"name": "Bob", "date": "2024-03-02T10:00:00Z"}}, "author": {"login": "bob"}},
			{"sha": "bad", "message": "no date"}
		],
		"prs": [
			{"number": 12, "title": "PROJ-7 cart", "author": "alice", "created_at": "2024-03-01T11:00:00Z",
			 "merged_at": "2024-03-03T11:00:00Z", "base": {"ref": "develop"}, "additions": 10, "deletions": 2},
			{"number": 13, "title": "broken", "created_at": "2024-03-01T11:00:00Z", "merged_at": "soon"},
			{"title": "no number", "created_at": "2024-03-01T11:00:00Z"}
		],
		"reviews": [
			{"pr_number": 12, "author": "carol", "state": "APPROVED", "submitted_at": "2024-03-02T12:00:00Z"},
			{"pr_number": 12, "author": "carol", "state": "LGTM", "submitted_at": "2024-03-02T12:00:00Z"}
		],
		"comments": [
			{"pr_number": 12, "user": {"login": "dave"}, "body": "waiting on infra", "created_at": "2024-03-02T13:00:00Z"}
		]
	}`)

	activity, diags := ParseActivity(raw)

	assert.Equal(t, "PROJ-7", activity.TicketID)
	require.NotNil(t, activity.EstimatedDays)
	assert.Equal(t, 4, *activity.EstimatedDays)

	require.Len(t, activity.Commits, 3, "undated commit is kept")
	assert.Equal(t, "alice", activity.Commits[0].Identity())
	assert.Equal(t, "bob", activity.Commits[1].Identity())
	assert.Equal(t, "Bob", activity.Commits[1].Author)
	assert.Equal(t, "Fix tax", activity.Commits[1].Message)
	assert.Equal(t, "bad", activity.Commits[2].SHA)
	assert.True(t, activity.Commits[2].Date.IsZero())

	require.Len(t, activity.PRs, 1)
	assert.True(t, activity.PRs[0].Merged())
	assert.Equal(t, "develop", activity.PRs[0].BaseBranch)
	assert.Equal(t, 10, activity.PRs[0].Additions)

	require.Len(t, activity.Reviews, 1)
	require.Len(t, activity.Comments, 1)
	assert.Equal(t, "dave", activity.Comments[0].Author)

	assert.Len(t, diags, 4)
}
