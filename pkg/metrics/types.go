// Package metrics decodes the newline-delimited JSON stream k6 writes with
// --out json. Each line is an envelope carrying either a metric definition
// or a sample point.
package metrics

import (
	"encoding/json"
	"time"
)

// Metric names emitted by k6 that the report generators consume.
const (
	MetricHTTPReqDuration = "http_req_duration" // TTLB
	MetricHTTPReqWaiting  = "http_req_waiting"  // TTFB
	MetricHTTPReqFailed   = "http_req_failed"
	MetricChecks          = "checks"
	MetricIterations      = "iterations"
	MetricVUs             = "vus"
	MetricDataSent        = "data_sent"
	MetricDataReceived    = "data_received"

	// Browser module Core Web Vitals
	MetricWebVitalLCP  = "browser_web_vital_lcp"
	MetricWebVitalFCP  = "browser_web_vital_fcp"
	MetricWebVitalCLS  = "browser_web_vital_cls"
	MetricWebVitalTTFB = "browser_web_vital_ttfb"
	MetricWebVitalINP  = "browser_web_vital_inp"

	// Browser module resource timings
	MetricBrowserHTTPReqDuration = "browser_http_req_duration"
	MetricBrowserDataReceived    = "browser_data_received"
)

// envelope is the top-level shape of every NDJSON line
type envelope struct {
	Type   string          `json:"type"`
	Metric string          `json:"metric"`
	Data   json.RawMessage `json:"data"`
}

// pointData is the payload of a type=Point line
type pointData struct {
	Time  time.Time         `json:"time"`
	Value float64           `json:"value"`
	Tags  map[string]string `json:"tags"`
}

// definitionData is the payload of a type=Metric line
type definitionData struct {
	Name     string `json:"name"`
	Type     string `json:"type"`     // trend, rate, counter, gauge
	Contains string `json:"contains"` // time, data, default
}

// Sample is a single decoded metric point
type Sample struct {
	Metric string
	Time   time.Time
	Value  float64
	Tags   map[string]string
}

// Tag returns the named tag or "" when absent
func (s *Sample) Tag(key string) string {
	if s.Tags == nil {
		return ""
	}
	return s.Tags[key]
}

// Definition describes a metric declared in the stream
type Definition struct {
	Name     string
	Type     string
	Contains string
}

// Results holds everything decoded from one NDJSON stream
type Results struct {
	Samples     []Sample
	Definitions map[string]Definition

	// Lines that were present but could not be decoded. Malformed input is
	// skipped, never fatal: a truncated tail from an interrupted run must not
	// cost the report for the rest of the run.
	MalformedLines int
}
