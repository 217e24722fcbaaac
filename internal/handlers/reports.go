package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ReportsHandler serves rendered report HTML from the results directory,
// memoizing file contents in an LRU cache keyed by name and mtime.
type ReportsHandler struct {
	resultsDir string
	cache      *lru.Cache[string, []byte]
	logger     *zap.Logger
}

// NewReportsHandler creates a reports handler with the given cache size
func NewReportsHandler(resultsDir string, cacheSize int, appLogger *zap.Logger) *ReportsHandler {
	if cacheSize <= 0 {
		cacheSize = 64
	}
	cache, err := lru.New[string, []byte](cacheSize)
	if err != nil {
		cache, _ = lru.New[string, []byte](16)
	}
	return &ReportsHandler{
		resultsDir: resultsDir,
		cache:      cache,
		logger:     appLogger,
	}
}

// ListReports handles GET /api/v1/reports, returning the report file names
// present in the results directory, newest name last.
func (h *ReportsHandler) ListReports(c echo.Context) error {
	entries, err := os.ReadDir(h.resultsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return c.JSON(http.StatusOK, []string{})
		}
		h.logger.Error("Failed to read results directory", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list reports")
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasSuffix(entry.Name(), "_report.html") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	return c.JSON(http.StatusOK, names)
}

// GetReport handles GET /reports/:name
func (h *ReportsHandler) GetReport(c echo.Context) error {
	name := c.Param("name")

	// Report names never contain path separators; reject traversal attempts
	// before touching the filesystem.
	if name == "" || name != filepath.Base(name) || strings.Contains(name, "..") {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid report name")
	}
	if !strings.HasSuffix(name, "_report.html") {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid report name")
	}

	path := filepath.Join(h.resultsDir, name)
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return echo.NewHTTPError(http.StatusNotFound, "report not found")
		}
		h.logger.Error("Failed to stat report", zap.String("name", name), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load report")
	}

	// Cache key includes mtime so a re-run of the same scenario invalidates
	// the stale entry naturally.
	key := name + "|" + info.ModTime().UTC().String()
	if data, ok := h.cache.Get(key); ok {
		return c.HTMLBlob(http.StatusOK, data)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		h.logger.Error("Failed to read report", zap.String("name", name), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load report")
	}

	h.cache.Add(key, data)
	return c.HTMLBlob(http.StatusOK, data)
}
