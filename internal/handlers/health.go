package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"k6-harness/pkg/history"
	"k6-harness/pkg/models"
)

// HealthHandler handles health check and monitoring endpoints
type HealthHandler struct {
	store     *history.Store
	startTime time.Time
	logger    *zap.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(store *history.Store, appLogger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		store:     store,
		startTime: time.Now(),
		logger:    appLogger,
	}
}

// HealthCheck handles GET /health.
// Always returns 200 when the process can respond; the run count doubles as a
// history-store connectivity probe.
func (h *HealthHandler) HealthCheck(c echo.Context) error {
	response := models.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Uptime:    time.Since(h.startTime),
	}

	count, err := h.store.Count()
	if err == nil {
		response.Metrics = map[string]interface{}{
			"run_count": count,
		}
	}

	return c.JSON(http.StatusOK, response)
}

// DetailedHealthCheck handles GET /health/detailed with history-store
// diagnostics: disk usage, GC statistics, and the run count.
func (h *HealthHandler) DetailedHealthCheck(c echo.Context) error {
	response := models.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Uptime:    time.Since(h.startTime),
		Metrics:   make(map[string]interface{}),
	}

	status := http.StatusOK

	count, err := h.store.Count()
	if err != nil {
		h.logger.Error("History store count failed during health check", zap.Error(err))
		response.Status = "unhealthy"
		status = http.StatusServiceUnavailable
	} else {
		response.Metrics["run_count"] = count
	}

	lsm, vlog := h.store.DiskUsage()
	response.Metrics["history_lsm_bytes"] = lsm
	response.Metrics["history_vlog_bytes"] = vlog
	response.Metrics["gc_stats"] = h.store.GCStats()

	return c.JSON(status, response)
}
