package flow

import (
	"errors"
	"fmt"
)

// ErrValidation marks inputs rejected before any side effect takes place.
var ErrValidation = errors.New("validation failed")

// ValidateSteps checks that a step sequence is non-empty and every step
// carries the configuration its type requires.
func ValidateSteps(steps []Step) error {
	if len(steps) == 0 {
		return fmt.Errorf("%w: steps must be a non-empty sequence", ErrValidation)
	}
	for i, step := range steps {
		if err := ValidateStep(step); err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
	}
	return nil
}

// ValidateStep checks one step's type and per-type config requirements.
func ValidateStep(step Step) error {
	switch step.Type {
	case StepNavigate:
		if configString(step, "url") == "" {
			return fmt.Errorf("%w: navigate step requires config.url", ErrValidation)
		}
	case StepClick, StepVerify:
		if configString(step, "selector") == "" {
			return fmt.Errorf("%w: %s step requires config.selector", ErrValidation, step.Type)
		}
	case StepInput:
		if configString(step, "selector") == "" {
			return fmt.Errorf("%w: input step requires config.selector", ErrValidation)
		}
		if _, ok := step.Config["text"]; !ok {
			return fmt.Errorf("%w: input step requires config.text", ErrValidation)
		}
	case StepWait:
		if configNumber(step, "duration") <= 0 {
			return fmt.Errorf("%w: wait step requires a positive config.duration (ms)", ErrValidation)
		}
	case StepRefresh:
		// no config
	default:
		return fmt.Errorf("%w: unknown step type %q", ErrValidation, step.Type)
	}
	return nil
}

func configString(step Step, key string) string {
	v, _ := step.Config[key].(string)
	return v
}

func configNumber(step Step, key string) float64 {
	switch v := step.Config[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return 0
	}
}
