package ui

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gocompare/domain/core"
	"gocompare/domain/run"
	"gocompare/domain/stats"
	"gocompare/internal"
	"gocompare/internal/testkit"
)

func testLogger() *internal.Logger {
	return internal.NewLogger(internal.LogLevelError)
}

func storedRecord(id string, startedAt time.Time) *run.Record {
	report := &stats.AnalysisReport{
		RunID:           core.RunID(id),
		GroupColumn:     "condition",
		GroupA:          "tactile",
		GroupB:          "gesture",
		Strategy:        stats.StrategyWelch,
		NormalityAlpha:  0.05,
		CorrectionAlpha: 0.05,
		DesignHash:      core.NewDesignHash([]byte("design")),
		FrameHash:       core.NewFrameHash([]byte("frame")),
		StartedAt:       core.Timestamp(startedAt),
		FinishedAt:      core.Timestamp(startedAt.Add(2 * time.Second)),
	}
	summary := "# Run " + id + "\n\n**tactile** vs **gesture**, split by `condition`.\n"
	return run.NewRecord(report, summary, "test")
}

func seededApp(t *testing.T, ids ...string) *App {
	t.Helper()
	kit := testkit.NewTestKit()
	for i, id := range ids {
		record := storedRecord(id, time.Date(2025, 6, 1, 10, i, 0, 0, time.UTC))
		require.NoError(t, kit.RunWriter().SaveRun(context.Background(), record))
	}

	a, err := NewApp(Config{Reader: kit.RunReader(), Logger: testLogger()})
	require.NoError(t, err)
	return a
}

func get(t *testing.T, a *App, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func TestApp_RunsList(t *testing.T) {
	a := seededApp(t, "run-1", "run-2")

	rec := get(t, a, "/")
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `<a href="/runs/run-1">run-1</a>`)
	assert.Contains(t, body, `<a href="/runs/run-2">run-2</a>`)
	assert.Contains(t, body, "tactile vs gesture")
	assert.Contains(t, body, "welch")

	// Newest first: run-2 was stored after run-1.
	assert.Less(t, strings.Index(body, "run-2"), strings.Index(body, "run-1"))
}

func TestApp_RunsList_Empty(t *testing.T) {
	a := seededApp(t)

	rec := get(t, a, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No runs stored yet")
}

func TestApp_RunDetail(t *testing.T) {
	a := seededApp(t, "run-1")

	rec := get(t, a, "/runs/run-1")
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "Run run-1")
	// The Markdown summary is rendered to HTML, not escaped.
	assert.Contains(t, body, "<strong>tactile</strong>")
	assert.Contains(t, body, "<code>condition</code>")

	wantHash := core.NewDesignHash([]byte("design")).String()[:12]
	assert.Contains(t, body, wantHash)
}

func TestApp_RunDetail_NotFound(t *testing.T) {
	a := seededApp(t, "run-1")

	rec := get(t, a, "/runs/ghost")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNewApp_FallbackSeedsDemoRun(t *testing.T) {
	a, err := NewApp(Config{Logger: testLogger()})
	require.NoError(t, err)

	rec := get(t, a, "/")
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "tactile vs gesture")
	assert.Contains(t, body, "/runs/")
	assert.NotContains(t, body, "No runs stored yet")
}
