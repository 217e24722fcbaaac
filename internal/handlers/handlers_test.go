package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"k6-harness/pkg/history"
	"k6-harness/pkg/models"
)

func newTestStore(t *testing.T) *history.Store {
	t.Helper()
	store, err := history.NewStore(history.Options{Dir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, store.Close())
	})
	return store
}

func seedRun(t *testing.T, store *history.Store, id string, passed bool) {
	t.Helper()
	require.NoError(t, store.Put(&models.RunRecord{
		ID:          id,
		StartedAt:   time.Now().Add(-5 * time.Minute),
		CompletedAt: time.Now(),
		TestType:    "protocol",
		AUT:         "checkout",
		Scenario:    "smoke",
		Environment: "staging",
		Passed:      passed,
	}))
}

func doRequest(handler echo.HandlerFunc, target string, pathParams map[string]string) (*httptest.ResponseRecorder, error) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	for name, value := range pathParams {
		c.SetParamNames(name)
		c.SetParamValues(value)
	}
	return rec, handler(c)
}

func TestHealthCheck(t *testing.T) {
	store := newTestStore(t)
	seedRun(t, store, "20260830-100000", true)

	h := NewHealthHandler(store, zap.NewNop())
	rec, err := doRequest(h.HealthCheck, "/health", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp models.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.EqualValues(t, 1, resp.Metrics["run_count"])
}

func TestDetailedHealthCheck(t *testing.T) {
	store := newTestStore(t)
	seedRun(t, store, "20260830-100000", true)

	h := NewHealthHandler(store, zap.NewNop())
	rec, err := doRequest(h.DetailedHealthCheck, "/health/detailed", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp models.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Contains(t, resp.Metrics, "run_count")
	assert.Contains(t, resp.Metrics, "history_lsm_bytes")
	assert.Contains(t, resp.Metrics, "history_vlog_bytes")
	assert.Contains(t, resp.Metrics, "gc_stats")
}

func TestListRuns(t *testing.T) {
	store := newTestStore(t)
	seedRun(t, store, "20260830-100000", true)
	seedRun(t, store, "20260830-110000", false)

	h := NewRunsHandler(store, zap.NewNop())

	t.Run("default pagination", func(t *testing.T) {
		rec, err := doRequest(h.ListRuns, "/api/v1/runs", nil)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)

		var resp models.RunListResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, 2, resp.Total)
		require.Len(t, resp.Runs, 2)
		assert.Equal(t, "20260830-110000", resp.Runs[0].ID)
	})

	t.Run("limit applied", func(t *testing.T) {
		rec, err := doRequest(h.ListRuns, "/api/v1/runs?limit=1", nil)
		require.NoError(t, err)

		var resp models.RunListResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Len(t, resp.Runs, 1)
		assert.Equal(t, 1, resp.Limit)
		assert.Equal(t, 2, resp.Total)
	})

	t.Run("limit capped", func(t *testing.T) {
		rec, err := doRequest(h.ListRuns, "/api/v1/runs?limit=99999", nil)
		require.NoError(t, err)

		var resp models.RunListResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, maxListLimit, resp.Limit)
	})

	t.Run("bad limit falls back to default", func(t *testing.T) {
		rec, err := doRequest(h.ListRuns, "/api/v1/runs?limit=bogus", nil)
		require.NoError(t, err)

		var resp models.RunListResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, 50, resp.Limit)
	})
}

func TestGetRun(t *testing.T) {
	store := newTestStore(t)
	seedRun(t, store, "20260830-100000", true)

	h := NewRunsHandler(store, zap.NewNop())

	t.Run("found", func(t *testing.T) {
		rec, err := doRequest(h.GetRun, "/api/v1/runs/20260830-100000", map[string]string{"id": "20260830-100000"})
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)

		var resp models.APIResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := doRequest(h.GetRun, "/api/v1/runs/19990101-000000", map[string]string{"id": "19990101-000000"})
		var httpErr *echo.HTTPError
		require.ErrorAs(t, err, &httpErr)
		assert.Equal(t, http.StatusNotFound, httpErr.Code)
	})
}

func TestListReports(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "PROTOCOL_checkout_smoke_report.html"), []byte("<html></html>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "BROWSER_shop_load_report.html"), []byte("<html></html>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "protocol_checkout_smoke_20260830.json"), []byte("{}"), 0o644))

	h := NewReportsHandler(dir, 16, zap.NewNop())
	rec, err := doRequest(h.ListReports, "/api/v1/reports", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	var names []string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &names))
	assert.Equal(t, []string{"BROWSER_shop_load_report.html", "PROTOCOL_checkout_smoke_report.html"}, names)
}

func TestListReportsMissingDir(t *testing.T) {
	h := NewReportsHandler(filepath.Join(t.TempDir(), "nope"), 16, zap.NewNop())
	rec, err := doRequest(h.ListReports, "/api/v1/reports", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestGetReport(t *testing.T) {
	dir := t.TempDir()
	content := "<html><body>report body</body></html>"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "PROTOCOL_checkout_smoke_report.html"), []byte(content), 0o644))

	h := NewReportsHandler(dir, 16, zap.NewNop())

	t.Run("serves report html", func(t *testing.T) {
		rec, err := doRequest(h.GetReport, "/reports/PROTOCOL_checkout_smoke_report.html",
			map[string]string{"name": "PROTOCOL_checkout_smoke_report.html"})
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, content, rec.Body.String())
	})

	t.Run("cached response identical", func(t *testing.T) {
		rec, err := doRequest(h.GetReport, "/reports/PROTOCOL_checkout_smoke_report.html",
			map[string]string{"name": "PROTOCOL_checkout_smoke_report.html"})
		require.NoError(t, err)
		assert.Equal(t, content, rec.Body.String())
	})

	t.Run("missing report is 404", func(t *testing.T) {
		_, err := doRequest(h.GetReport, "/reports/PROTOCOL_other_x_report.html",
			map[string]string{"name": "PROTOCOL_other_x_report.html"})
		var httpErr *echo.HTTPError
		require.ErrorAs(t, err, &httpErr)
		assert.Equal(t, http.StatusNotFound, httpErr.Code)
	})

	badNames := []string{
		"",
		"../../etc/passwd",
		"..%2Fsecrets_report.html",
		"notareport.html",
		"nested/dir_report.html",
	}
	for _, name := range badNames {
		t.Run("rejects "+name, func(t *testing.T) {
			_, err := doRequest(h.GetReport, "/reports/"+name, map[string]string{"name": name})
			var httpErr *echo.HTTPError
			require.ErrorAs(t, err, &httpErr)
			assert.Equal(t, http.StatusBadRequest, httpErr.Code)
		})
	}
}

func TestLoadOpenAPISpec(t *testing.T) {
	doc, err := LoadOpenAPISpec()
	require.NoError(t, err)
	require.NotNil(t, doc)

	assert.NotNil(t, doc.Paths.Find("/health"))
	assert.NotNil(t, doc.Paths.Find("/api/v1/runs"))
	assert.NotNil(t, doc.Paths.Find("/reports/{name}"))
}

func TestGetSpec(t *testing.T) {
	h := NewOpenAPIHandler()
	rec, err := doRequest(h.GetSpec, "/openapi.json", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Contains(t, doc, "openapi")
	assert.Contains(t, doc, "paths")
}
