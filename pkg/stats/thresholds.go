package stats

import "fmt"

// Thresholds are the bounds a run must stay within to pass.
// Mirrors the bounds the k6 scripts declare, so the rendered report agrees
// with k6's own exit status.
type Thresholds struct {
	P95Ms     float64 // Upper bound on p95 duration in milliseconds (0 disables)
	ErrorRate float64 // Upper bound on failure rate, 0.0-1.0 (0 still means "no failures allowed" when requests exist)
}

// Verdict is the outcome of evaluating one transaction or run against the
// configured thresholds.
type Verdict struct {
	Passed  bool     `json:"passed"`
	Reasons []string `json:"reasons,omitempty"`
}

// Evaluate checks a duration summary and failure rate against the thresholds.
// An empty summary fails: a transaction that produced no samples is treated as
// a broken test rather than a passing one.
func (t Thresholds) Evaluate(duration Summary, failed Rate) Verdict {
	v := Verdict{Passed: true}

	if duration.Count == 0 {
		v.Passed = false
		v.Reasons = append(v.Reasons, "no duration samples recorded")
		return v
	}

	if t.P95Ms > 0 && duration.P95 > t.P95Ms {
		v.Passed = false
		v.Reasons = append(v.Reasons, fmt.Sprintf("p95 %.1fms exceeds %.0fms", duration.P95, t.P95Ms))
	}

	// http_req_failed counts failures as passes (value 1 == failed request)
	if failed.Total() > 0 && failed.Value > t.ErrorRate {
		v.Passed = false
		v.Reasons = append(v.Reasons, fmt.Sprintf("error rate %.2f%% exceeds %.2f%%", failed.Percent(), t.ErrorRate*100))
	}

	return v
}
