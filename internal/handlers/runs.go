package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"k6-harness/pkg/history"
	"k6-harness/pkg/models"
)

// maxListLimit caps the page size for run listings
const maxListLimit = 200

// RunsHandler serves the run-history API
type RunsHandler struct {
	store  *history.Store
	logger *zap.Logger
}

// NewRunsHandler creates a new runs handler
func NewRunsHandler(store *history.Store, appLogger *zap.Logger) *RunsHandler {
	return &RunsHandler{store: store, logger: appLogger}
}

// ListRuns handles GET /api/v1/runs?limit=&offset=
func (h *RunsHandler) ListRuns(c echo.Context) error {
	limit := queryInt(c, "limit", 50)
	offset := queryInt(c, "offset", 0)
	if limit > maxListLimit {
		limit = maxListLimit
	}

	runs, err := h.store.List(limit, offset)
	if err != nil {
		h.logger.Error("Failed to list runs", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list runs")
	}

	total, err := h.store.Count()
	if err != nil {
		h.logger.Error("Failed to count runs", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to count runs")
	}

	return c.JSON(http.StatusOK, models.RunListResponse{
		Runs:   runs,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

// GetRun handles GET /api/v1/runs/:id
func (h *RunsHandler) GetRun(c echo.Context) error {
	id := c.Param("id")

	run, err := h.store.Get(id)
	if errors.Is(err, history.ErrRunNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "run not found")
	}
	if err != nil {
		h.logger.Error("Failed to load run", zap.String("run_id", id), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load run")
	}

	return c.JSON(http.StatusOK, models.APIResponse{Success: true, Data: run})
}

func queryInt(c echo.Context, name string, defaultValue int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return defaultValue
	}
	return value
}
