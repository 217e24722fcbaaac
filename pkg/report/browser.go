package report

import (
	"net/url"
	"path"
	"strings"

	"k6-harness/pkg/metrics"
	"k6-harness/pkg/stats"
)

// Web vitals grades, following the published Core Web Vitals buckets
const (
	GradeGood             = "good"
	GradeNeedsImprovement = "needs-improvement"
	GradePoor             = "poor"
)

// vitalBounds are the good/poor boundaries per vital. Values between the two
// bounds grade as needs-improvement. CLS is unitless; the rest are in ms.
var vitalBounds = map[string][2]float64{
	metrics.MetricWebVitalLCP:  {2500, 4000},
	metrics.MetricWebVitalFCP:  {1800, 3000},
	metrics.MetricWebVitalCLS:  {0.1, 0.25},
	metrics.MetricWebVitalTTFB: {800, 1800},
	metrics.MetricWebVitalINP:  {200, 500},
}

// GradeVital classifies the p75 of a vital, which is the percentile the Core
// Web Vitals program assesses. Unknown vitals and empty summaries grade good
// rather than failing the page.
func GradeVital(metric string, p75 float64) string {
	bounds, ok := vitalBounds[metric]
	if !ok {
		return GradeGood
	}
	switch {
	case p75 <= bounds[0]:
		return GradeGood
	case p75 <= bounds[1]:
		return GradeNeedsImprovement
	default:
		return GradePoor
	}
}

// Vital is one measured web vital for a page
type Vital struct {
	Summary stats.Summary
	Grade   string
}

// VitalRow is one page's Core Web Vitals in the browser report
type VitalRow struct {
	Page string
	LCP  Vital
	FCP  Vital
	CLS  Vital
	TTFB Vital
	INP  Vital
}

// ResourceRow is one resource-type bucket in the browser report
type ResourceRow struct {
	Type     string
	Count    int
	Bytes    float64       // browser_data_received total
	Duration stats.Summary // browser_http_req_duration, ms
}

// BrowserReport is the full model behind the browser report template
type BrowserReport struct {
	Meta      Meta
	Totals    Totals
	Vitals    []VitalRow
	Resources []ResourceRow
	Verdict   stats.Verdict
}

// BuildBrowser aggregates parsed results into a browser report model.
// Vitals are grouped per page (the transaction key k6 browser scripts tag);
// resources are grouped by type derived from the sample's url tag.
func BuildBrowser(results *metrics.Results, meta Meta, thresholds stats.Thresholds) *BrowserReport {
	if first, last, ok := results.TimeRange(); ok {
		if meta.StartedAt.IsZero() {
			meta.StartedAt = first
		}
		if meta.CompletedAt.IsZero() {
			meta.CompletedAt = last
		}
	}
	meta.MalformedLines = results.MalformedLines

	r := &BrowserReport{
		Meta: meta,
		Totals: Totals{
			Iterations:   results.CountFor(metrics.MetricIterations),
			Requests:     results.CountFor(metrics.MetricBrowserHTTPReqDuration),
			Checks:       stats.ComputeRate(results.ValuesFor(metrics.MetricChecks)),
			DataReceived: results.SumFor(metrics.MetricBrowserDataReceived),
			PeakVUs:      stats.Compute(results.ValuesFor(metrics.MetricVUs)).Max,
		},
	}

	vitalGroups := map[string]map[string][]float64{}
	for _, metric := range []string{
		metrics.MetricWebVitalLCP,
		metrics.MetricWebVitalFCP,
		metrics.MetricWebVitalCLS,
		metrics.MetricWebVitalTTFB,
		metrics.MetricWebVitalINP,
	} {
		vitalGroups[metric] = results.ByTransaction(metric)
	}

	for _, page := range metrics.SortedKeys(vitalGroups[metrics.MetricWebVitalLCP]) {
		r.Vitals = append(r.Vitals, VitalRow{
			Page: page,
			LCP:  buildVital(metrics.MetricWebVitalLCP, vitalGroups[metrics.MetricWebVitalLCP][page]),
			FCP:  buildVital(metrics.MetricWebVitalFCP, vitalGroups[metrics.MetricWebVitalFCP][page]),
			CLS:  buildVital(metrics.MetricWebVitalCLS, vitalGroups[metrics.MetricWebVitalCLS][page]),
			TTFB: buildVital(metrics.MetricWebVitalTTFB, vitalGroups[metrics.MetricWebVitalTTFB][page]),
			INP:  buildVital(metrics.MetricWebVitalINP, vitalGroups[metrics.MetricWebVitalINP][page]),
		})
	}

	durationGroups := make(map[string][]float64)
	byteGroups := make(map[string]float64)
	for i := range results.Samples {
		s := &results.Samples[i]
		switch s.Metric {
		case metrics.MetricBrowserHTTPReqDuration:
			kind := ClassifyResource(s.Tag(metrics.TagURL))
			durationGroups[kind] = append(durationGroups[kind], s.Value)
		case metrics.MetricBrowserDataReceived:
			kind := ClassifyResource(s.Tag(metrics.TagURL))
			byteGroups[kind] += s.Value
		}
	}

	kinds := make(map[string]bool, len(durationGroups))
	for kind := range durationGroups {
		kinds[kind] = true
	}
	for kind := range byteGroups {
		kinds[kind] = true
	}
	for _, kind := range metrics.SortedKeys(kinds) {
		summary := stats.Compute(durationGroups[kind])
		r.Resources = append(r.Resources, ResourceRow{
			Type:     kind,
			Count:    summary.Count,
			Bytes:    byteGroups[kind],
			Duration: summary,
		})
	}

	r.Verdict = browserVerdict(r.Vitals, thresholds)
	return r
}

func buildVital(metric string, values []float64) Vital {
	summary := stats.Compute(values)
	return Vital{
		Summary: summary,
		Grade:   GradeVital(metric, summary.P75),
	}
}

// browserVerdict fails the run when any page grades poor on LCP or CLS, or
// when no vitals were captured at all
func browserVerdict(vitals []VitalRow, thresholds stats.Thresholds) stats.Verdict {
	v := stats.Verdict{Passed: true}
	if len(vitals) == 0 {
		v.Passed = false
		v.Reasons = append(v.Reasons, "no web vitals recorded")
		return v
	}
	for _, row := range vitals {
		if row.LCP.Grade == GradePoor {
			v.Passed = false
			v.Reasons = append(v.Reasons, row.Page+": LCP grades poor")
		}
		if row.CLS.Grade == GradePoor {
			v.Passed = false
			v.Reasons = append(v.Reasons, row.Page+": CLS grades poor")
		}
		if thresholds.P95Ms > 0 && row.TTFB.Summary.P95 > thresholds.P95Ms {
			v.Passed = false
			v.Reasons = append(v.Reasons, row.Page+": TTFB p95 exceeds threshold")
		}
	}
	return v
}

// Resource type buckets for the browser report breakdown
const (
	ResourceDocument   = "document"
	ResourceScript     = "script"
	ResourceStylesheet = "stylesheet"
	ResourceImage      = "image"
	ResourceFont       = "font"
	ResourceFetch      = "fetch"
	ResourceOther      = "other"
)

// ClassifyResource buckets a resource URL by file extension. API calls and
// extension-less paths bucket as fetch; unparseable URLs as other.
func ClassifyResource(rawURL string) string {
	if rawURL == "" {
		return ResourceOther
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return ResourceOther
	}

	ext := strings.ToLower(path.Ext(u.Path))
	if ext == "" {
		if u.Path == "" || u.Path == "/" {
			return ResourceDocument
		}
		return ResourceFetch
	}
	switch ext {
	case ".json":
		return ResourceFetch
	case ".html", ".htm":
		return ResourceDocument
	case ".js", ".mjs":
		return ResourceScript
	case ".css":
		return ResourceStylesheet
	case ".png", ".jpg", ".jpeg", ".gif", ".webp", ".svg", ".ico", ".avif":
		return ResourceImage
	case ".woff", ".woff2", ".ttf", ".otf", ".eot":
		return ResourceFont
	default:
		return ResourceOther
	}
}
