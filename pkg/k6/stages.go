package k6

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Stage is one step of a ramping-vus scenario
type Stage struct {
	Duration string `json:"duration"`
	Target   int    `json:"target"`
}

// Stages is an ordered ramping profile
type Stages []Stage

// ParseStages parses the -ramping-stages flag value: comma-separated
// duration:target pairs, e.g. "30s:10,1m:50,30s:0".
func ParseStages(s string) (Stages, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	parts := strings.Split(s, ",")
	stages := make(Stages, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		kv := strings.SplitN(part, ":", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("invalid stage %q: expected duration:target", part)
		}

		duration := strings.TrimSpace(kv[0])
		if _, err := time.ParseDuration(duration); err != nil {
			return nil, fmt.Errorf("invalid stage duration %q: %w", duration, err)
		}

		target, err := strconv.Atoi(strings.TrimSpace(kv[1]))
		if err != nil {
			return nil, fmt.Errorf("invalid stage target %q: %w", kv[1], err)
		}
		if target < 0 {
			return nil, fmt.Errorf("invalid stage target %d: must not be negative", target)
		}

		stages = append(stages, Stage{Duration: duration, Target: target})
	}

	if len(stages) == 0 {
		return nil, fmt.Errorf("no stages found in %q", s)
	}
	return stages, nil
}

// EnvValue renders the stages as the JSON array shape k6 scenario definitions
// consume from __ENV.RAMPING_STAGES
func (s Stages) EnvValue() (string, error) {
	if len(s) == 0 {
		return "", nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("failed to encode ramping stages: %w", err)
	}
	return string(b), nil
}

// String renders the stages back in flag form
func (s Stages) String() string {
	parts := make([]string, len(s))
	for i, stage := range s {
		parts[i] = fmt.Sprintf("%s:%d", stage.Duration, stage.Target)
	}
	return strings.Join(parts, ",")
}

// TotalDuration sums the stage durations. Unparseable durations were rejected
// at parse time, so this cannot fail on a Stages built by ParseStages.
func (s Stages) TotalDuration() time.Duration {
	var total time.Duration
	for _, stage := range s {
		d, err := time.ParseDuration(stage.Duration)
		if err != nil {
			continue
		}
		total += d
	}
	return total
}
