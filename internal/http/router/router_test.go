package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohankatakam/devai/internal/anomaly"
	"github.com/rohankatakam/devai/internal/dashboard"
	"github.com/rohankatakam/devai/internal/errors"
	"github.com/rohankatakam/devai/internal/http/handler"
	"github.com/rohankatakam/devai/internal/http/middleware"
	"github.com/rohankatakam/devai/internal/http/router"
	"github.com/rohankatakam/devai/internal/logging"
	"github.com/rohankatakam/devai/internal/models"
	"github.com/rohankatakam/devai/internal/narrative"
	"github.com/rohankatakam/devai/internal/store"
)

var now = time.Date(2025, 3, 20, 12, 0, 0, 0, time.UTC)

type fakeCompleter struct {
	answer string
	err    error
	prompt string
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return f.answer, f.err
}

type panicDetector struct{}

func (panicDetector) Name() string { return "panic" }

func (panicDetector) Detect(time.Time, anomaly.Input) ([]models.Anomaly, []models.Diagnostic) {
	panic("boom")
}

type fixture struct {
	engine     *gin.Engine
	anomalies  *store.AnomalyStore
	narratives *store.NarrativeStore
	hub        *dashboard.Hub
}

func newFixture(t *testing.T, chat handler.Completer, engineOpts ...anomaly.Option) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := logging.Discard()

	f := &fixture{
		anomalies:  store.NewAnomalyStore(),
		narratives: store.NewNarrativeStore(),
		hub:        dashboard.NewHub(logger, dashboard.WithClock(func() time.Time { return now })),
	}
	opts := append([]anomaly.Option{
		anomaly.WithClock(func() time.Time { return now }),
		anomaly.WithLogger(logger),
	}, engineOpts...)

	f.engine = router.New(router.Dependencies{
		Engine:      anomaly.NewEngine(opts...),
		Synthesizer: narrative.NewSynthesizer(logger),
		Anomalies:   f.anomalies,
		Narratives:  f.narratives,
		Hub:         f.hub,
		Chat:        chat,
		Logger:      logger,
	}, router.RouterConfig{CORSOrigins: []string{"http://localhost:3000"}})
	return f
}

func (f *fixture) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)

	var out map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}
	return w, out
}

func staleIssue(key string, daysAgo int) map[string]any {
	return map[string]any{
		"key":      key,
		"status":   "In Progress",
		"assignee": "alice",
		"updated":  now.AddDate(0, 0, -daysAgo).Format(time.RFC3339),
	}
}

func errorBody(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	e, ok := body["error"].(map[string]any)
	require.True(t, ok, "missing error object: %v", body)
	return e
}

func TestHealthAndRoot(t *testing.T) {
	f := newFixture(t, nil)

	w, body := f.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", body["status"])

	w, body = f.do(t, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, router.Version, body["version"])
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
}

func TestAnomalies_DetectListGet(t *testing.T) {
	f := newFixture(t, nil)

	w, body := f.do(t, http.MethodPost, "/api/anomalies/detect", map[string]any{
		"jira_data": map[string]any{
			"project_key": "PROJ",
			"issues":      []any{staleIssue("PROJ-1", 10), staleIssue("PROJ-2", 1), map[string]any{"status": "Done"}},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, "Detected 1 anomalies", body["message"])
	anomalies := body["anomalies"].([]any)
	require.Len(t, anomalies, 1)
	assert.Equal(t, "ANOM-STALE-PROJ-1", anomalies[0].(map[string]any)["id"])
	assert.NotEmpty(t, body["diagnostics"], "keyless issue is reported")
	assert.Equal(t, 1, f.anomalies.Len())

	w, body = f.do(t, http.MethodGet, "/api/anomalies/list", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, body["count"])

	w, body = f.do(t, http.MethodGet, "/api/anomalies/ANOM-STALE-PROJ-1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "stale_ticket", body["anomaly"].(map[string]any)["type"])

	t.Run("unknown id", func(t *testing.T) {
		w, body := f.do(t, http.MethodGet, "/api/anomalies/ANOM-NOPE", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		e := errorBody(t, body)
		assert.Equal(t, "Anomaly ANOM-NOPE not found", e["message"])
		assert.EqualValues(t, http.StatusNotFound, e["status_code"])
		assert.Equal(t, "/api/anomalies/ANOM-NOPE", e["path"])
	})
}

func TestAnomalies_MaxAnomalies(t *testing.T) {
	issues := make([]any, 0, 30)
	for i := range 30 {
		issues = append(issues, staleIssue(fmt.Sprintf("PROJ-%d", i+1), 10))
	}

	tests := []struct {
		name   string
		max    any
		status int
		count  int
	}{
		{name: "absent defaults to 20", max: nil, status: http.StatusOK, count: 20},
		{name: "explicit limit", max: 3, status: http.StatusOK, count: 3},
		{name: "zero", max: 0, status: http.StatusOK, count: 0},
		{name: "negative rejected", max: -1, status: http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			req := map[string]any{"jira_data": map[string]any{"project_key": "PROJ", "issues": issues}}
			if tt.max != nil {
				req["max_anomalies"] = tt.max
			}
			w, body := f.do(t, http.MethodPost, "/api/anomalies/detect", req)
			require.Equal(t, tt.status, w.Code, w.Body.String())
			if tt.status == http.StatusOK {
				assert.Len(t, body["anomalies"], tt.count)
			}
		})
	}
}

func TestAnomalies_ProjectKeyOptional(t *testing.T) {
	f := newFixture(t, nil)

	w, body := f.do(t, http.MethodPost, "/api/anomalies/detect", map[string]any{
		"jira_data": map[string]any{"issues": []any{staleIssue("PROJ-1", 10)}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	anomalies := body["anomalies"].([]any)
	require.Len(t, anomalies, 1)
	assert.Equal(t, "ANOM-STALE-PROJ-1", anomalies[0].(map[string]any)["id"])
}

func TestAnomalies_ValidationError(t *testing.T) {
	f := newFixture(t, nil)

	w, body := f.do(t, http.MethodPost, "/api/anomalies/detect", map[string]any{
		"jira_data":     map[string]any{"issues": []any{}},
		"max_anomalies": -1,
	})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	e := errorBody(t, body)
	assert.Equal(t, "Validation failed", e["message"])
	fields := e["details"].(map[string]any)["validation_errors"].([]any)
	require.Len(t, fields, 1)
	assert.Equal(t, "MaxAnomalies", fields[0].(map[string]any)["field"])
	assert.Equal(t, "min", fields[0].(map[string]any)["type"])

	t.Run("malformed json", func(t *testing.T) {
		w, body := f.do(t, http.MethodPost, "/api/anomalies/detect", `{"jira_data":`)
		require.Equal(t, http.StatusUnprocessableEntity, w.Code)
		fields := errorBody(t, body)["details"].(map[string]any)["validation_errors"].([]any)
		assert.Equal(t, "json_invalid", fields[0].(map[string]any)["type"])
	})
}

func TestAnomalies_DetectorPanicKeepsStore(t *testing.T) {
	f := newFixture(t, nil, anomaly.WithDetectors(panicDetector{}))
	f.anomalies.Replace([]models.Anomaly{{ID: "ANOM-OLD"}})

	w, body := f.do(t, http.MethodPost, "/api/anomalies/detect", map[string]any{
		"jira_data": map[string]any{"project_key": "PROJ", "issues": []any{}},
	})
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Failed to detect anomalies: boom", errorBody(t, body)["message"])

	_, ok := f.anomalies.Get("ANOM-OLD")
	assert.True(t, ok)
}

func TestNarratives_GenerateListGet(t *testing.T) {
	f := newFixture(t, nil)

	w, body := f.do(t, http.MethodPost, "/api/narratives/generate", map[string]any{
		"repository": "acme/api",
		"tickets": []any{
			map[string]any{
				"ticketId": "PROJ-7",
				"commits": []any{
					map[string]any{"sha": "abc1234", "message": "Add login", "author": "alice", "date": "2025-03-01T10:00:00Z"},
				},
				"prs": []any{
					map[string]any{"number": 12, "title": "PROJ-7 login", "author": "alice", "created_at": "2025-03-01T12:00:00Z", "merged_at": "2025-03-03T12:00:00Z"},
				},
				"reviews":  []any{},
				"comments": []any{},
			},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Generated narratives for 1 tickets", body["message"])
	narratives := body["narratives"].([]any)
	require.Len(t, narratives, 1)
	n := narratives[0].(map[string]any)
	assert.Equal(t, "PROJ-7", n["ticketId"])
	assert.Equal(t, "Done", n["status"])
	assert.Len(t, n["timeline"], 3, "commit, opened and merged")

	w, body = f.do(t, http.MethodGet, "/api/narratives/list", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, body["count"])

	w, _ = f.do(t, http.MethodGet, "/api/narratives/PROJ-7", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, body = f.do(t, http.MethodGet, "/api/narratives/PROJ-8", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Narrative for PROJ-8 not found", errorBody(t, body)["message"])
}

func TestChat(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		f := newFixture(t, nil)
		w, body := f.do(t, http.MethodPost, "/api/chat", map[string]any{"question": "hi"})
		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.Contains(t, errorBody(t, body)["message"], "API key missing")
	})

	t.Run("answers", func(t *testing.T) {
		fake := &fakeCompleter{answer: "Three issues are open."}
		f := newFixture(t, fake)
		w, body := f.do(t, http.MethodPost, "/api/chat", map[string]any{
			"question":    "how many issues are open in this project",
			"pageContext": "Open issues: 3",
		})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Three issues are open.", body["answer"])
		assert.Contains(t, fake.prompt, "Open issues: 3")
	})

	t.Run("upstream failure", func(t *testing.T) {
		fake := &fakeCompleter{err: errors.ExternalErrorf(fmt.Errorf("overloaded"), "Claude API error (%d)", 529)}
		f := newFixture(t, fake)
		w, _ := f.do(t, http.MethodPost, "/api/chat", map[string]any{"question": "status please"})
		assert.Equal(t, http.StatusBadGateway, w.Code)
	})

	t.Run("unexpected failure", func(t *testing.T) {
		f := newFixture(t, &fakeCompleter{err: fmt.Errorf("nil map")})
		w, body := f.do(t, http.MethodPost, "/api/chat", map[string]any{"question": "status please"})
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "Unexpected error", errorBody(t, body)["message"])
	})
}

func TestDashboard_SyncIssuesAndStats(t *testing.T) {
	f := newFixture(t, nil)

	w, body := f.do(t, http.MethodGet, "/api/dashboard/issues", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, body["issues"])
	assert.NotNil(t, body["issues"])
	assert.Nil(t, body["last_updated"])
	assert.Contains(t, body["message"], "No issues loaded yet")

	w, body = f.do(t, http.MethodPost, "/api/dashboard/sync-issues", map[string]any{
		"repository": "acme/api",
		"issues": []any{
			map[string]any{"id": "1", "title": "Login", "status": "open", "priority": "high", "createdAt": "2025-03-01T00:00:00Z"},
			map[string]any{"id": "2", "title": "Logout", "status": "closed", "priority": "low", "createdAt": "2025-03-02T00:00:00Z"},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Received 2 issues from acme/api", body["message"])
	assert.Equal(t, now.Format(time.RFC3339), body["timestamp"])

	w, body = f.do(t, http.MethodGet, "/api/dashboard/issues", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "acme/api", body["repository"])
	assert.EqualValues(t, 2, body["count"])

	w, body = f.do(t, http.MethodGet, "/api/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2, body["totalIssues"])
	assert.EqualValues(t, 1, body["openIssues"])
	assert.EqualValues(t, 1, body["closedIssues"])

	t.Run("issue without title is rejected", func(t *testing.T) {
		w, _ := f.do(t, http.MethodPost, "/api/dashboard/sync-issues", map[string]any{
			"repository": "acme/api",
			"issues":     []any{map[string]any{"id": "3", "status": "open"}},
		})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Len(t, f.hub.Snapshot().Issues, 2)
	})
}

func TestCORSPreflight(t *testing.T) {
	f := newFixture(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/anomalies/detect", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
