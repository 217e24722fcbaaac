// Package main provides offline report generation: it turns an existing k6
// NDJSON results file into an HTML report without re-running the test.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"k6-harness/pkg/config"
	"k6-harness/pkg/logger"
	"k6-harness/pkg/metrics"
	"k6-harness/pkg/report"
	"k6-harness/pkg/stats"
)

func main() {
	cfg := config.Load()

	input := flag.String("input", "", "Path to the k6 NDJSON results file (required)")
	testType := flag.String("test-type", cfg.DefaultTestType, "Test type: protocol or browser")
	aut := flag.String("aut", "", "Application under test name (required)")
	scenario := flag.String("scenario", "", "Scenario name (required)")
	environment := flag.String("environment", cfg.DefaultEnvironment, "Target environment name")
	scenarioFilter := flag.String("scenario-filter", "", "Only include samples tagged with this k6 scenario")
	outDir := flag.String("results-dir", cfg.ResultsDir, "Directory for the HTML report")
	verbose := flag.Bool("verbose", false, "Enable debug logging")
	flag.Parse()

	if *input == "" || *aut == "" || *scenario == "" {
		fmt.Fprintln(os.Stderr, "❌ -input, -aut, and -scenario are required")
		flag.Usage()
		os.Exit(2)
	}
	if *testType != "protocol" && *testType != "browser" {
		fmt.Fprintf(os.Stderr, "❌ invalid -test-type %q: expected protocol or browser\n", *testType)
		os.Exit(2)
	}

	logConfig := logger.GetRunnerConfig()
	if *verbose {
		logConfig = logger.GetDebugConfig()
	}
	appLogger, err := logger.NewLogger(logConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	parser := metrics.NewParser(appLogger, cfg.EnableParseLogging || *verbose)
	results, err := parser.ParseFile(*input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
	results = results.FilterScenario(*scenarioFilter)

	renderer, err := report.NewRenderer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}

	thresholds := stats.Thresholds{
		P95Ms:     cfg.P95ThresholdMs,
		ErrorRate: cfg.ErrorRateThreshold,
	}
	meta := report.Meta{
		TestType:    *testType,
		AUT:         *aut,
		Scenario:    *scenario,
		Environment: *environment,
		Script:      *input,
		GeneratedAt: time.Now(),
	}

	var (
		reportPath string
		passed     bool
		reasons    []string
	)
	if *testType == "browser" {
		rep := report.BuildBrowser(results, meta, thresholds)
		reportPath, err = renderer.WriteBrowser(*outDir, rep)
		passed, reasons = rep.Verdict.Passed, rep.Verdict.Reasons
		printBrowserSummary(rep)
	} else {
		rep := report.BuildProtocol(results, meta, thresholds)
		reportPath, err = renderer.WriteProtocol(*outDir, rep)
		passed, reasons = rep.Verdict.Passed, rep.Verdict.Reasons
		printProtocolSummary(rep)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\n💾 Report written to: %s\n", reportPath)
	if !passed {
		for _, reason := range reasons {
			fmt.Printf("   ❌ %s\n", reason)
		}
		os.Exit(1)
	}
}

func printProtocolSummary(rep *report.ProtocolReport) {
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("🎯 %s / %s (%s)\n", rep.Meta.AUT, rep.Meta.Scenario, rep.Meta.Environment)
	fmt.Println(strings.Repeat("-", 60))
	fmt.Printf("Iterations: %d | Requests: %d | Errors: %.2f%% | Checks: %.2f%%\n",
		rep.Totals.Iterations,
		rep.Totals.Requests,
		rep.Totals.Failed.Percent(),
		rep.Totals.Checks.Percent())

	for _, tx := range rep.Transactions {
		status := "✅"
		if !tx.Verdict.Passed {
			status = "❌"
		}
		fmt.Printf("%s %-40s p95 %.1fms (ttfb p95 %.1fms, %d reqs)\n",
			status, tx.Name, tx.TTLB.P95, tx.TTFB.P95, tx.Requests)
	}
}

func printBrowserSummary(rep *report.BrowserReport) {
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("🎯 %s / %s (%s)\n", rep.Meta.AUT, rep.Meta.Scenario, rep.Meta.Environment)
	fmt.Println(strings.Repeat("-", 60))
	fmt.Printf("Iterations: %d | Resource requests: %d | Checks: %.2f%%\n",
		rep.Totals.Iterations,
		rep.Totals.Requests,
		rep.Totals.Checks.Percent())

	for _, row := range rep.Vitals {
		fmt.Printf("%-40s LCP %.0fms [%s] | CLS %.3f [%s] | TTFB %.0fms [%s]\n",
			row.Page,
			row.LCP.Summary.P75, row.LCP.Grade,
			row.CLS.Summary.P75, row.CLS.Grade,
			row.TTFB.Summary.P75, row.TTFB.Grade)
	}
}
