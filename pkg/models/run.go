package models

import (
	"fmt"
	"time"
)

// RunRecord is the persisted summary of a single k6 run.
// The raw NDJSON output is consumed once at report time; this record is
// everything the harness keeps about the run afterwards.
type RunRecord struct {
	ID          string    `json:"id"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`

	TestType    string `json:"test_type"` // protocol or browser
	AUT         string `json:"aut"`
	Scenario    string `json:"scenario"`
	Environment string `json:"environment"`
	Script      string `json:"script"`

	Iterations     int64   `json:"iterations"`
	Requests       int64   `json:"requests"`
	FailedRequests int64   `json:"failed_requests"`
	ErrorRate      float64 `json:"error_rate"` // 0.0-1.0
	P95TTLBMs      float64 `json:"p95_ttlb_ms"`

	Passed     bool   `json:"passed"`
	ReportFile string `json:"report_file"`
	K6ExitCode int    `json:"k6_exit_code"`
}

// Duration returns the wall-clock duration of the run
func (r *RunRecord) Duration() time.Duration {
	if r.CompletedAt.IsZero() || r.StartedAt.IsZero() {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}

// Label returns the human-readable identity of the run, matching the report
// file naming convention (<TEST_TYPE>_<AUT>_<SCENARIO>)
func (r *RunRecord) Label() string {
	return fmt.Sprintf("%s_%s_%s", r.TestType, r.AUT, r.Scenario)
}

// RunListResponse is the paginated payload returned by GET /api/v1/runs
type RunListResponse struct {
	Runs   []*RunRecord `json:"runs"`
	Total  int          `json:"total"`
	Limit  int          `json:"limit"`
	Offset int          `json:"offset"`
}

// APIResponse is the generic envelope for report server responses
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// HealthResponse represents the health status of the report server
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Uptime    time.Duration          `json:"uptime"`
	Metrics   map[string]interface{} `json:"metrics,omitempty"`
}
