// Package k6 builds and supervises k6 processes. The harness never generates
// load itself; every virtual user, iteration, and browser context belongs to
// the k6 runtime this package shells out to.
package k6

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// RunConfig describes one k6 invocation. Field values flow into the k6
// environment so scripts can read them via __ENV.
type RunConfig struct {
	Script      string `validate:"required"`
	TestType    string `validate:"required,oneof=protocol browser"`
	Scenario    string `validate:"required,scenario_name"`
	Environment string `validate:"required,max=50"`
	AUT         string `validate:"required,scenario_name"`

	BaseURL              string `validate:"omitempty,url"`
	TimeUnit             string `validate:"omitempty,max=10"`
	Headless             bool
	SelectionMode        string `validate:"omitempty,oneof=random sequential weighted"`
	CaptureMantleMetrics bool

	// RampingStages overrides the script's scenario stages when non-empty
	RampingStages Stages

	// ResultsFile is where k6 writes its NDJSON output
	ResultsFile string `validate:"required"`
}

// scenario/AUT names end up in report file names, so they are restricted to
// filesystem-safe characters
var nameValidator = func(fl validator.FieldLevel) bool {
	v := fl.Field().String()
	if v == "" {
		return false
	}
	for _, r := range v {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-' || r == '_' || r == '.':
		default:
			return false
		}
	}
	return true
}

// NewValidator returns a validator with the harness's custom rules registered
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterValidation("scenario_name", nameValidator)
	return v
}

// Validate checks the run configuration, returning a readable error listing
// every violated field
func (c *RunConfig) Validate(v *validator.Validate) error {
	if err := v.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("invalid run configuration: %s", strings.Join(fields, ", "))
		}
		return fmt.Errorf("invalid run configuration: %w", err)
	}
	return nil
}
