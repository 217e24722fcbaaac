// Package main provides the test runner: it launches k6 with the harness
// environment, waits for the run to finish, and turns the NDJSON output into
// an HTML report plus a run-history record.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"k6-harness/pkg/config"
	"k6-harness/pkg/history"
	"k6-harness/pkg/k6"
	"k6-harness/pkg/logger"
	"k6-harness/pkg/metrics"
	"k6-harness/pkg/models"
	"k6-harness/pkg/report"
	"k6-harness/pkg/stats"
)

// runnerFlags holds the parsed command line for one invocation
type runnerFlags struct {
	script               string
	testType             string
	scenario             string
	environment          string
	headless             bool
	baseURL              string
	aut                  string
	timeUnit             string
	rampingStages        string
	selectionMode        string
	captureMantleMetrics bool

	k6Binary   string
	resultsDir string
	noReport   bool
	verbose    bool
}

func main() {
	cfg := config.Load()
	flags := parseFlags(cfg)

	logConfig := logger.GetRunnerConfig()
	if !cfg.EnableRunLogging {
		logConfig.Level = zapcore.WarnLevel
	}
	if flags.verbose {
		logConfig = logger.GetDebugConfig()
	}
	appLogger, err := logger.NewLogger(logConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	runCfg, runID, err := buildRunConfig(cfg, flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(2)
	}

	displayConfig(flags, runCfg)

	record, err := execute(cfg, flags, runCfg, runID, appLogger)
	if err != nil {
		appLogger.Error("Run failed", zap.Error(err))
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}

	if !record.Passed {
		os.Exit(1)
	}
}

// parseFlags parses command line flags, falling back to configured defaults
func parseFlags(cfg *config.Config) *runnerFlags {
	flags := &runnerFlags{}

	flag.StringVar(&flags.script, "script", "", "Path to the k6 script to run (required)")
	flag.StringVar(&flags.testType, "test-type", cfg.DefaultTestType, "Test type: protocol or browser")
	flag.StringVar(&flags.scenario, "scenario", "", "Scenario name (required)")
	flag.StringVar(&flags.environment, "environment", cfg.DefaultEnvironment, "Target environment name")
	flag.BoolVar(&flags.headless, "headless", cfg.DefaultHeadless, "Run the browser module headless")
	flag.StringVar(&flags.baseURL, "base-url", "", "Base URL of the application under test")
	flag.StringVar(&flags.aut, "aut", "", "Application under test name (required)")
	flag.StringVar(&flags.timeUnit, "time-unit", cfg.DefaultTimeUnit, "Time unit forwarded to scenario definitions")
	flag.StringVar(&flags.rampingStages, "ramping-stages", "", "Ramping profile as duration:target pairs, e.g. 30s:10,1m:50,30s:0")
	flag.StringVar(&flags.selectionMode, "selection-mode", "", "Scenario data selection mode: random, sequential, or weighted")
	flag.BoolVar(&flags.captureMantleMetrics, "capture-mantle-metrics", false, "Capture application-side metrics during the run")
	flag.StringVar(&flags.k6Binary, "k6-binary", cfg.K6Binary, "Path to the k6 binary")
	flag.StringVar(&flags.resultsDir, "results-dir", cfg.ResultsDir, "Directory for NDJSON output and HTML reports")
	flag.BoolVar(&flags.noReport, "no-report", false, "Skip report generation after the run")
	flag.BoolVar(&flags.verbose, "verbose", false, "Enable debug logging")

	flag.Parse()
	return flags
}

// buildRunConfig assembles and validates the k6 run configuration.
// The run ID is the launch timestamp, so history records sort chronologically.
func buildRunConfig(cfg *config.Config, flags *runnerFlags) (*k6.RunConfig, string, error) {
	stages, err := k6.ParseStages(flags.rampingStages)
	if err != nil {
		return nil, "", err
	}

	runID := time.Now().Format("20060102-150405")
	resultsFile := filepath.Join(flags.resultsDir,
		fmt.Sprintf("%s_%s_%s_%s.json", flags.testType, flags.aut, flags.scenario, runID))

	runCfg := &k6.RunConfig{
		Script:               resolveScript(cfg.ScriptsDir, flags.script),
		TestType:             flags.testType,
		Scenario:             flags.scenario,
		Environment:          flags.environment,
		AUT:                  flags.aut,
		BaseURL:              flags.baseURL,
		TimeUnit:             flags.timeUnit,
		Headless:             flags.headless,
		SelectionMode:        flags.selectionMode,
		CaptureMantleMetrics: flags.captureMantleMetrics,
		RampingStages:        stages,
		ResultsFile:          resultsFile,
	}

	if err := runCfg.Validate(k6.NewValidator()); err != nil {
		return nil, "", err
	}
	return runCfg, runID, nil
}

// resolveScript locates the k6 script: paths that exist (or are absolute) are
// used as given, otherwise the script is looked up under the configured
// scripts directory.
func resolveScript(scriptsDir, script string) string {
	if script == "" || filepath.IsAbs(script) {
		return script
	}
	if _, err := os.Stat(script); err == nil {
		return script
	}
	if candidate := filepath.Join(scriptsDir, script); fileExists(candidate) {
		return candidate
	}
	return script
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// displayConfig shows the run configuration before launch
func displayConfig(flags *runnerFlags, runCfg *k6.RunConfig) {
	fmt.Println("🚀 k6 Performance Harness")
	fmt.Println(strings.Repeat("=", 50))
	fmt.Printf("Script:        %s\n", runCfg.Script)
	fmt.Printf("Test Type:     %s\n", runCfg.TestType)
	fmt.Printf("AUT:           %s\n", runCfg.AUT)
	fmt.Printf("Scenario:      %s\n", runCfg.Scenario)
	fmt.Printf("Environment:   %s\n", runCfg.Environment)
	if runCfg.BaseURL != "" {
		fmt.Printf("Base URL:      %s\n", runCfg.BaseURL)
	}
	if runCfg.TestType == "browser" {
		fmt.Printf("Headless:      %t\n", runCfg.Headless)
	}
	if len(runCfg.RampingStages) > 0 {
		fmt.Printf("Ramping:       %s (total %v)\n", runCfg.RampingStages.String(), runCfg.RampingStages.TotalDuration())
	}
	if runCfg.SelectionMode != "" {
		fmt.Printf("Selection:     %s\n", runCfg.SelectionMode)
	}
	fmt.Printf("Results File:  %s\n", runCfg.ResultsFile)
	fmt.Println(strings.Repeat("=", 50))
	fmt.Println()
}

// execute runs k6 and post-processes its output into report and history record
func execute(cfg *config.Config, flags *runnerFlags, runCfg *k6.RunConfig, runID string, appLogger *zap.Logger) (*models.RunRecord, error) {
	if err := os.MkdirAll(flags.resultsDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create results directory: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runner := k6.NewRunner(flags.k6Binary, cfg.K6StopTimeout, appLogger)
	runner.Stdout = os.Stdout
	runner.Stderr = os.Stderr

	// Forward interrupts to k6 so it flushes its output before exiting
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\n🛑 Received interrupt signal, stopping k6 gracefully...")
		runner.Stop()
	}()

	startedAt := time.Now()
	fmt.Println("🔧 Launching k6...")
	if err := runner.Start(ctx, runCfg); err != nil {
		return nil, err
	}

	progressQuit := make(chan struct{})
	progressDone := make(chan struct{})
	go trackProgress(runCfg.ResultsFile, cfg.K6StartTimeout, appLogger, progressQuit, progressDone)

	exitCode, err := runner.Wait()
	close(progressQuit)
	<-progressDone
	if err != nil {
		return nil, err
	}
	completedAt := time.Now()
	signal.Stop(sigChan)

	if exitCode == k6.ExitThresholdsCrossed {
		fmt.Println("⚠️  k6 reported crossed thresholds; generating report anyway")
	} else {
		fmt.Println("✅ k6 run complete")
	}

	record := &models.RunRecord{
		ID:          runID,
		StartedAt:   startedAt,
		CompletedAt: completedAt,
		TestType:    runCfg.TestType,
		AUT:         runCfg.AUT,
		Scenario:    runCfg.Scenario,
		Environment: runCfg.Environment,
		Script:      runCfg.Script,
		K6ExitCode:  exitCode,
		Passed:      exitCode == 0,
	}

	if flags.noReport {
		return record, nil
	}

	if err := generateReport(cfg, runCfg, record, appLogger); err != nil {
		return nil, err
	}

	if err := recordRun(cfg, record, appLogger); err != nil {
		// History is a convenience; the report already exists on disk
		appLogger.Warn("Failed to record run history", zap.Error(err))
	}

	printSummary(record)
	return record, nil
}

// progressInterval is how often the runner prints a throughput line
const progressInterval = 5 * time.Second

// trackProgress tails the growing NDJSON file while k6 runs and prints a
// periodic throughput line. If k6 has produced no output after the start
// timeout, that is logged once; k6 itself decides whether to keep going.
func trackProgress(resultsFile string, startTimeout time.Duration, appLogger *zap.Logger, quit <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	tailer := metrics.NewTailer(resultsFile, metrics.NewParser(appLogger, false))
	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()

	var requests, failures int64
	start := time.Now()
	warned := false

	for {
		select {
		case <-quit:
			return
		case <-ticker.C:
			results, err := tailer.Poll()
			if err != nil {
				appLogger.Debug("Progress poll failed", zap.Error(err))
				continue
			}
			for i := range results.Samples {
				switch results.Samples[i].Metric {
				case metrics.MetricHTTPReqDuration, metrics.MetricBrowserHTTPReqDuration:
					requests++
				case metrics.MetricHTTPReqFailed:
					if results.Samples[i].Value != 0 {
						failures++
					}
				}
			}

			elapsed := time.Since(start)
			if requests == 0 {
				if !warned && startTimeout > 0 && elapsed > startTimeout {
					appLogger.Warn("k6 has produced no output yet",
						zap.Duration("waited", elapsed.Round(time.Second)))
					warned = true
				}
				continue
			}

			errRate := float64(failures) / float64(requests) * 100
			fmt.Printf("⏱  %v | %d requests | %.1f req/s | errors %.2f%%\n",
				elapsed.Round(time.Second), requests,
				float64(requests)/elapsed.Seconds(), errRate)
		}
	}
}

// generateReport parses the NDJSON output and writes the HTML report
func generateReport(cfg *config.Config, runCfg *k6.RunConfig, record *models.RunRecord, appLogger *zap.Logger) error {
	fmt.Println("📊 Generating report...")

	parser := metrics.NewParser(appLogger, cfg.EnableParseLogging)
	results, err := parser.ParseFile(runCfg.ResultsFile)
	if err != nil {
		return err
	}

	renderer, err := report.NewRenderer()
	if err != nil {
		return err
	}

	thresholds := stats.Thresholds{
		P95Ms:     cfg.P95ThresholdMs,
		ErrorRate: cfg.ErrorRateThreshold,
	}
	meta := report.Meta{
		RunID:       record.ID,
		TestType:    record.TestType,
		AUT:         record.AUT,
		Scenario:    record.Scenario,
		Environment: record.Environment,
		Script:      record.Script,
		GeneratedAt: time.Now(),
	}

	var reportPath string
	if runCfg.TestType == "browser" {
		rep := report.BuildBrowser(results, meta, thresholds)
		reportPath, err = renderer.WriteBrowser(filepath.Dir(runCfg.ResultsFile), rep)
		if err != nil {
			return err
		}
		record.Iterations = rep.Totals.Iterations
		record.Requests = rep.Totals.Requests
		record.Passed = record.Passed && rep.Verdict.Passed
	} else {
		rep := report.BuildProtocol(results, meta, thresholds)
		reportPath, err = renderer.WriteProtocol(filepath.Dir(runCfg.ResultsFile), rep)
		if err != nil {
			return err
		}
		record.Iterations = rep.Totals.Iterations
		record.Requests = rep.Totals.Requests
		record.FailedRequests = rep.Totals.Failed.Passes
		record.ErrorRate = rep.Totals.Failed.Value
		record.P95TTLBMs = stats.Compute(results.ValuesFor(metrics.MetricHTTPReqDuration)).P95
		record.Passed = record.Passed && rep.Verdict.Passed
	}

	record.ReportFile = filepath.Base(reportPath)
	fmt.Printf("💾 Report written to: %s\n", reportPath)
	return nil
}

// recordRun stores the run summary in the history database
func recordRun(cfg *config.Config, record *models.RunRecord, appLogger *zap.Logger) error {
	store, err := history.NewStore(history.Options{
		Dir:       cfg.HistoryDir,
		CacheSize: cfg.HistoryCacheSize,
		Logger:    appLogger,
	})
	if err != nil {
		return err
	}
	defer store.Close()

	return store.Put(record)
}

// printSummary prints the final console summary
func printSummary(record *models.RunRecord) {
	fmt.Println("\n" + strings.Repeat("=", 50))
	fmt.Printf("🎯 %s\n", record.Label())
	fmt.Println(strings.Repeat("-", 50))
	fmt.Printf("Duration:       %v\n", record.Duration().Round(time.Second))
	fmt.Printf("Iterations:     %d\n", record.Iterations)
	fmt.Printf("Requests:       %d\n", record.Requests)
	if record.TestType == "protocol" {
		fmt.Printf("Error Rate:     %.2f%%\n", record.ErrorRate*100)
		fmt.Printf("P95 TTLB:       %.1f ms\n", record.P95TTLBMs)
	}
	if record.Passed {
		fmt.Println("Result:         ✅ PASS")
	} else {
		fmt.Println("Result:         ❌ FAIL")
	}
	fmt.Println(strings.Repeat("=", 50))
}
