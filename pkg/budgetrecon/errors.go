package budgetrecon

import (
	"errors"
	"fmt"
)

// ErrNoSource indicates a job input is not configured.
var ErrNoSource = errors.New("source not configured")

// ErrNoRows indicates a job produced nothing to write.
var ErrNoRows = errors.New("no rows produced")

// StepError represents the failure of one job step.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %q failed: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

func stepError(step string, err error) error {
	if err == nil {
		return nil
	}
	var se *StepError
	if errors.As(err, &se) {
		return err
	}
	return &StepError{Step: step, Err: err}
}
