package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohankatakam/devai/internal/logging"
	"github.com/rohankatakam/devai/internal/models"
)

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func issue(id, status string) models.DashboardIssue {
	return models.DashboardIssue{ID: id, Title: "Issue " + id, Status: status, Priority: "medium", Labels: []string{}}
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestHub_SyncBroadcasts(t *testing.T) {
	hub := NewHub(logging.Discard(), WithClock(func() time.Time { return fixedNow }))
	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer srv.Close()

	conn := dial(t, srv)
	initial := readMessage(t, conn)
	assert.Equal(t, MessageInitialData, initial.Type)
	assert.Empty(t, initial.Data.Issues)
	assert.Nil(t, initial.Data.LastUpdated)

	snap := hub.Sync("acme/api", []models.DashboardIssue{issue("1", "open"), issue("2", "closed")})
	assert.Equal(t, fixedNow, *snap.LastUpdated)

	update := readMessage(t, conn)
	assert.Equal(t, MessageIssuesUpdate, update.Type)
	assert.Equal(t, "acme/api", update.Data.Repository)
	assert.Len(t, update.Data.Issues, 2)

	t.Run("late joiner receives the current snapshot", func(t *testing.T) {
		late := dial(t, srv)
		msg := readMessage(t, late)
		assert.Equal(t, MessageInitialData, msg.Type)
		assert.Len(t, msg.Data.Issues, 2)
	})
}

func TestHub_DropsClosedClients(t *testing.T) {
	hub := NewHub(logging.Discard())
	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer srv.Close()

	conn := dial(t, srv)
	readMessage(t, conn)
	require.Equal(t, 1, hub.Clients())

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.Clients() == 0 }, 2*time.Second, 10*time.Millisecond)

	hub.Sync("acme/api", []models.DashboardIssue{issue("1", "open")})
	assert.Len(t, hub.Snapshot().Issues, 1)
}

func TestHub_SnapshotIsCopy(t *testing.T) {
	hub := NewHub(logging.Discard())
	hub.Sync("acme/api", []models.DashboardIssue{issue("1", "open")})

	snap := hub.Snapshot()
	snap.Issues[0].Title = "mutated"
	assert.Equal(t, "Issue 1", hub.Snapshot().Issues[0].Title)
}

func TestHub_AllowedOrigins(t *testing.T) {
	hub := NewHub(logging.Discard(), WithAllowedOrigins([]string{"http://localhost:3000"}))
	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer srv.Close()

	header := http.Header{"Origin": []string{"http://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestComputeStats(t *testing.T) {
	stats := ComputeStats([]models.DashboardIssue{
		issue("1", "open"), issue("2", "To Do"), issue("3", "closed"),
		issue("4", "Done"), issue("5", "In Progress"), issue("6", "Blocked"),
	})
	assert.Equal(t, models.ProjectStats{TotalIssues: 6, OpenIssues: 2, ClosedIssues: 2, InProgress: 1}, stats)

	hub := NewHub(logging.Discard())
	assert.Equal(t, models.ProjectStats{}, hub.Stats())
}

func TestPusher(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		var got SyncRequest
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, SyncPath, r.URL.Path)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			_, _ = w.Write([]byte(`{"status":"success","count":1}`))
		}))
		defer srv.Close()

		resp, err := NewPusher(srv.URL+"/").Push(context.Background(), "acme/api", []models.DashboardIssue{issue("1", "open")})
		require.NoError(t, err)
		assert.Equal(t, "success", resp["status"])
		assert.Equal(t, "acme/api", got.Repository)
		assert.Nil(t, got.Timestamp)
	})

	t.Run("non-200", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		_, err := NewPusher(srv.URL).Push(context.Background(), "acme/api", nil)
		var pe *PushError
		require.ErrorAs(t, err, &pe)
		assert.False(t, pe.Unreachable())
		assert.Equal(t, "Backend responded with status 503", pe.Error())
	})

	t.Run("unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		_, err := NewPusher(url).Push(context.Background(), "acme/api", nil)
		var pe *PushError
		require.ErrorAs(t, err, &pe)
		assert.True(t, pe.Unreachable())
	})
}
