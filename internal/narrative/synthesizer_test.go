package narrative

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohankatakam/devai/internal/models"
)

var base = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func hoursLater(h int) time.Time { return base.Add(time.Duration(h) * time.Hour) }

func mergedAt(h int) *time.Time {
	t := hoursLater(h)
	return &t
}

func singleAuthorActivity() models.TicketActivity {
	return models.TicketActivity{
		TicketID: "PROJ-5",
		Commits: []models.Commit{
			{SHA: "aaaaaaa111", Message: "Add cart model", Author: "Alice", AuthorLogin: "alice", Date: hoursLater(1)},
			{SHA: "bbbbbbb222", Message: "Wire cart API\n\nDetails", Author: "Alice", AuthorLogin: "alice", Date: hoursLater(2)},
			{SHA: "ccccccc333", Message: "Tests", Author: "Alice", AuthorLogin: "alice", Date: hoursLater(3)},
		},
		PRs: []models.PullRequest{
			{Number: 42, Title: "PROJ-5 shopping cart", Author: "alice", CreatedAt: hoursLater(4), MergedAt: mergedAt(30), Additions: 120, Deletions: 8},
		},
	}
}

func TestSynthesize_ScenarioSingleAuthorMerged(t *testing.T) {
	n := Synthesize(singleAuthorActivity())

	assert.True(t, strings.HasPrefix(n.Narrative,
		"This ticket was completed with 3 commits across 1 pull request(s). "+
			"Development was handled by alice. "+
			"Work was merged and completed on 2024-05-02."), n.Narrative)
	assert.Equal(t, models.StatusDone, n.Status)
	assert.Equal(t, "PROJ-5 shopping cart", n.TicketTitle)
	assert.Equal(t, 3, n.ActualDays)
	assert.Nil(t, n.EstimatedDays)
	assert.Equal(t, []string{"Successfully merged 1 pull request(s)"}, n.Insights.Resolutions)
}

func TestBuildTimeline_MergedPRContributesTwoEvents(t *testing.T) {
	a := models.TicketActivity{
		TicketID: "PROJ-1",
		PRs: []models.PullRequest{
			{Number: 1, Title: "open only", CreatedAt: hoursLater(1)},
			{Number: 2, Title: "merged", CreatedAt: hoursLater(2), MergedAt: mergedAt(5), BaseBranch: "develop"},
		},
	}

	events := BuildTimeline(a)
	require.Len(t, events, 3)
	assert.Equal(t, "PR #1 opened", events[0].Title)
	assert.Equal(t, "PR #2 merged", events[1].Title)
	assert.Equal(t, "PR #2 merged", events[2].Title)
	assert.Equal(t, "Merged to develop", events[2].Description)
	assert.Equal(t, "0 additions, 0 deletions", events[1].Details)
}

func TestSynthesize_UndatedCommitCounts(t *testing.T) {
	a := models.TicketActivity{
		TicketID: "PROJ-9",
		Commits: []models.Commit{
			{SHA: "aaaaaaa111", Message: "Start", AuthorLogin: "alice", Date: hoursLater(1)},
			{SHA: "bbbbbbb222", Message: "Follow up", AuthorLogin: "bob"},
		},
	}

	n := Synthesize(a)
	assert.Equal(t, 2, n.ActualDays)
	assert.Contains(t, n.Narrative, "in progress with 2 commits so far")
	assert.Contains(t, n.Narrative, "2 contributors: alice, bob")
	require.Len(t, n.Timeline, 1)
	assert.Equal(t, "alice", n.Timeline[0].Author)

	a.Commits = a.Commits[1:]
	n = Synthesize(a)
	assert.Empty(t, n.Timeline)
	assert.Equal(t, "This ticket is in progress with 1 commits so far. Development was handled by bob.", n.Narrative)
}

func TestBuildTimeline_NormalizesEvents(t *testing.T) {
	long := strings.Repeat("é", 150)
	a := models.TicketActivity{
		TicketID: "PROJ-1",
		Commits: []models.Commit{
			{SHA: "0123456789", Message: long + "\nbody", Author: "Zoë", Date: hoursLater(5)},
		},
		Reviews: []models.Review{
			{PRNumber: 3, Author: "bob", State: models.ReviewChangesRequested, SubmittedAt: hoursLater(1)},
		},
		Comments: []models.Comment{
			{PRNumber: 3, Body: strings.Repeat("x", 250), CreatedAt: hoursLater(3)},
		},
	}

	events := BuildTimeline(a)
	require.Len(t, events, 3)

	review, comment, commit := events[0], events[1], events[2]
	assert.Equal(t, models.EventReview, review.Type)
	assert.Equal(t, "PR #3 review: CHANGES_REQUESTED", review.Title)
	assert.Equal(t, "Review submitted", review.Description)
	assert.Equal(t, "State: CHANGES_REQUESTED", review.Details)

	assert.Equal(t, "Comment on PR #3", comment.Title)
	assert.Equal(t, "Unknown", comment.Author)
	assert.Len(t, comment.Description, 200)

	assert.Equal(t, "Zoë", commit.Author)
	assert.Equal(t, 100, len([]rune(commit.Title)))
	assert.Equal(t, long, commit.Description)
	assert.Equal(t, "Commit: 0123456", commit.Details)
}

func TestText(t *testing.T) {
	t.Run("empty timeline", func(t *testing.T) {
		a := models.TicketActivity{TicketID: "PROJ-9"}
		assert.Equal(t, "No activity found for PROJ-9.", Synthesize(a).Narrative)
		assert.Equal(t, "Development for PROJ-9", Synthesize(a).TicketTitle)
		assert.Equal(t, models.StatusInProgress, Synthesize(a).Status)
	})

	t.Run("multiple authors in first-seen order", func(t *testing.T) {
		a := models.TicketActivity{
			TicketID: "PROJ-9",
			Commits: []models.Commit{
				{Author: "dan", Date: hoursLater(1)},
				{AuthorLogin: "amy", Date: hoursLater(2)},
				{Author: "dan", Date: hoursLater(3)},
				{Author: "cat", Date: hoursLater(4)},
				{Author: "bo", Date: hoursLater(5)},
			},
		}
		assert.Equal(t,
			"This ticket is in progress with 5 commits so far. Development involved 4 contributors: dan, amy, cat.",
			Synthesize(a).Narrative)
	})

	t.Run("changes requested wins over approval", func(t *testing.T) {
		a := models.TicketActivity{
			TicketID: "PROJ-9",
			Reviews: []models.Review{
				{State: models.ReviewApproved, SubmittedAt: hoursLater(1)},
				{State: models.ReviewChangesRequested, SubmittedAt: hoursLater(2)},
			},
		}
		assert.Contains(t, Synthesize(a).Narrative, "Code review requested 1 round(s) of changes before approval.")
		assert.NotContains(t, Synthesize(a).Narrative, "approved with")
	})

	t.Run("approvals only", func(t *testing.T) {
		a := models.TicketActivity{
			TicketID: "PROJ-9",
			Reviews: []models.Review{
				{State: models.ReviewApproved, SubmittedAt: hoursLater(1)},
				{State: models.ReviewApproved, SubmittedAt: hoursLater(2)},
				{State: models.ReviewCommented, SubmittedAt: hoursLater(3)},
			},
		}
		assert.Contains(t, Synthesize(a).Narrative, "Code review approved with 2 approval(s).")
	})
}

func TestExtractInsights(t *testing.T) {
	t.Run("single changes-requested is not a delay", func(t *testing.T) {
		in := ExtractInsights(models.TicketActivity{Reviews: []models.Review{{State: models.ReviewChangesRequested}}})
		assert.Empty(t, in.Delays)
	})

	t.Run("two changes-requested is a delay", func(t *testing.T) {
		in := ExtractInsights(models.TicketActivity{Reviews: []models.Review{
			{State: models.ReviewChangesRequested}, {State: models.ReviewChangesRequested},
		}})
		assert.Equal(t, []string{"Multiple review cycles (2) required changes"}, in.Delays)
	})

	t.Run("at most one blocker", func(t *testing.T) {
		in := ExtractInsights(models.TicketActivity{Comments: []models.Comment{
			{Body: "All good"},
			{Body: "We are BLOCKED on the payments team"},
			{Body: "still waiting on dependency"},
		}})
		assert.Equal(t, []string{"Potential blocker mentioned in PR comments"}, in.Blockers)
	})

	t.Run("empty lists encode as arrays", func(t *testing.T) {
		raw, err := json.Marshal(ExtractInsights(models.TicketActivity{}))
		require.NoError(t, err)
		assert.JSONEq(t, `{"delays":[],"blockers":[],"resolutions":[]}`, string(raw))
	})
}

func TestSynthesize_Idempotent(t *testing.T) {
	a := singleAuthorActivity()
	a.Reviews = []models.Review{{PRNumber: 42, State: models.ReviewApproved, SubmittedAt: hoursLater(20)}}
	a.Comments = []models.Comment{{PRNumber: 42, Body: "waiting on QA", CreatedAt: hoursLater(21)}}

	first, err := json.Marshal(Synthesize(a))
	require.NoError(t, err)
	second, err := json.Marshal(Synthesize(a))
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}

func TestSynthesizer_GenerateKeepsOrder(t *testing.T) {
	s := NewSynthesizer(nil)
	out := s.Generate([]models.TicketActivity{{TicketID: "B-1"}, {TicketID: "A-1"}})
	require.Len(t, out, 2)
	assert.Equal(t, "B-1", out[0].TicketID)
	assert.Equal(t, "A-1", out[1].TicketID)
}
