package k6

import (
	"fmt"
	"os"
)

// BuildArgs constructs the k6 argv (without the binary itself) for a run
func BuildArgs(cfg *RunConfig) []string {
	return []string{
		"run",
		"--out", "json=" + cfg.ResultsFile,
		cfg.Script,
	}
}

// BuildEnv constructs the process environment for a run. The parent
// environment is inherited so PATH, HOME, and any K6_* overrides survive;
// harness variables are appended last and win.
func BuildEnv(cfg *RunConfig) ([]string, error) {
	env := os.Environ()

	env = append(env,
		"TEST_TYPE="+cfg.TestType,
		"SCENARIO="+cfg.Scenario,
		"ENVIRONMENT="+cfg.Environment,
		"AUT="+cfg.AUT,
	)

	if cfg.BaseURL != "" {
		env = append(env, "BASE_URL="+cfg.BaseURL)
	}
	if cfg.TimeUnit != "" {
		env = append(env, "TIME_UNIT="+cfg.TimeUnit)
	}
	if cfg.SelectionMode != "" {
		env = append(env, "SELECTION_MODE="+cfg.SelectionMode)
	}
	if cfg.CaptureMantleMetrics {
		env = append(env, "CAPTURE_MANTLE_METRICS=true")
	}

	// The browser module reads its own variable; scripts read HEADLESS
	headless := fmt.Sprintf("%t", cfg.Headless)
	env = append(env,
		"K6_BROWSER_HEADLESS="+headless,
		"HEADLESS="+headless,
	)

	if len(cfg.RampingStages) > 0 {
		stagesJSON, err := cfg.RampingStages.EnvValue()
		if err != nil {
			return nil, err
		}
		env = append(env, "RAMPING_STAGES="+stagesJSON)
	}

	return env, nil
}
