// Package report turns parsed k6 results into the HTML performance reports
// the harness publishes: a protocol report (TTFB/TTLB tables per transaction)
// and a browser report (Core Web Vitals and resource breakdowns).
package report

import (
	"time"

	"k6-harness/pkg/metrics"
	"k6-harness/pkg/stats"
)

// Meta identifies the run a report describes
type Meta struct {
	RunID       string
	TestType    string
	AUT         string
	Scenario    string
	Environment string
	Script      string

	GeneratedAt time.Time
	StartedAt   time.Time
	CompletedAt time.Time

	// MalformedLines surfaces how much of the NDJSON stream was unusable
	MalformedLines int
}

// Duration is the span between the first and last sample
func (m Meta) Duration() time.Duration {
	if m.CompletedAt.IsZero() || m.StartedAt.IsZero() {
		return 0
	}
	return m.CompletedAt.Sub(m.StartedAt)
}

// Totals are the run-wide counters shown in the report header
type Totals struct {
	Iterations   int64
	Requests     int64
	Failed       stats.Rate
	Checks       stats.Rate
	DataSent     float64 // bytes
	DataReceived float64 // bytes
	PeakVUs      float64
}

// TransactionRow is one row of the protocol report's per-transaction table
type TransactionRow struct {
	Name     string
	Requests int
	TTFB     stats.Summary // http_req_waiting
	TTLB     stats.Summary // http_req_duration
	Failed   stats.Rate
	Verdict  stats.Verdict
}

// ProtocolReport is the full model behind the protocol report template
type ProtocolReport struct {
	Meta         Meta
	Totals       Totals
	Transactions []TransactionRow
	Verdict      stats.Verdict
}

// BuildProtocol aggregates parsed results into a protocol report model.
// Single pass per metric over the in-memory sample slice; transactions are
// ordered by name so the rendered table is deterministic.
func BuildProtocol(results *metrics.Results, meta Meta, thresholds stats.Thresholds) *ProtocolReport {
	if first, last, ok := results.TimeRange(); ok {
		if meta.StartedAt.IsZero() {
			meta.StartedAt = first
		}
		if meta.CompletedAt.IsZero() {
			meta.CompletedAt = last
		}
	}
	meta.MalformedLines = results.MalformedLines

	r := &ProtocolReport{
		Meta: meta,
		Totals: Totals{
			Iterations:   results.CountFor(metrics.MetricIterations),
			Requests:     results.CountFor(metrics.MetricHTTPReqDuration),
			Failed:       stats.ComputeRate(results.ValuesFor(metrics.MetricHTTPReqFailed)),
			Checks:       stats.ComputeRate(results.ValuesFor(metrics.MetricChecks)),
			DataSent:     results.SumFor(metrics.MetricDataSent),
			DataReceived: results.SumFor(metrics.MetricDataReceived),
			PeakVUs:      stats.Compute(results.ValuesFor(metrics.MetricVUs)).Max,
		},
	}

	ttfbGroups := results.ByTransaction(metrics.MetricHTTPReqWaiting)
	ttlbGroups := results.ByTransaction(metrics.MetricHTTPReqDuration)
	failedGroups := results.ByTransaction(metrics.MetricHTTPReqFailed)

	for _, name := range metrics.SortedKeys(ttlbGroups) {
		ttlb := stats.Compute(ttlbGroups[name])
		failed := stats.ComputeRate(failedGroups[name])
		row := TransactionRow{
			Name:     name,
			Requests: ttlb.Count,
			TTFB:     stats.Compute(ttfbGroups[name]),
			TTLB:     ttlb,
			Failed:   failed,
			Verdict:  thresholds.Evaluate(ttlb, failed),
		}
		r.Transactions = append(r.Transactions, row)
	}

	r.Verdict = overallVerdict(r.Transactions)
	return r
}

// overallVerdict folds per-transaction verdicts into the run verdict
func overallVerdict(rows []TransactionRow) stats.Verdict {
	v := stats.Verdict{Passed: true}
	if len(rows) == 0 {
		v.Passed = false
		v.Reasons = append(v.Reasons, "no transactions recorded")
		return v
	}
	for _, row := range rows {
		if !row.Verdict.Passed {
			v.Passed = false
			for _, reason := range row.Verdict.Reasons {
				v.Reasons = append(v.Reasons, row.Name+": "+reason)
			}
		}
	}
	return v
}
