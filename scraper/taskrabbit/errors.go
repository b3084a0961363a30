package taskrabbit

import (
	"errors"
	"fmt"
)

// Sentinel errors for the booking flow. Everything except ErrMissingName
// is fatal to the category run.
var (
	ErrNavigation     = errors.New("page did not reach a ready state")
	ErrOverlay        = fmt.Errorf("%w: overlay could not be dismissed", ErrNavigation)
	ErrAddressEntry   = errors.New("address entry failed")
	ErrOptionNotFound = errors.New("option control not found")
	ErrOptionApply    = errors.New("option value could not be set")
	ErrSubmit         = errors.New("results did not appear")
	ErrMissingName    = errors.New("card has no tasker name")
)

// StepError wraps a failed booking-flow step. Kind is one of the
// sentinel errors above; Err is the underlying browser error, if any.
type StepError struct {
	Step string
	Kind error
	Err  error
}

func (e *StepError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Step, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Step, e.Kind, e.Err)
}

func (e *StepError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func stepErr(step string, kind, err error) error {
	return &StepError{Step: step, Kind: kind, Err: err}
}
