package scheduler

import (
	"errors"
	"fmt"
)

// ErrIdleUnsupported indicates idle detection is not available on this system.
var ErrIdleUnsupported = errors.New("idle detection unsupported")

// IdleQueryError reports a failure to read the time since the last input.
type IdleQueryError struct {
	Err error
}

func (e *IdleQueryError) Error() string { return fmt.Sprintf("idle query: %v", e.Err) }
func (e *IdleQueryError) Unwrap() error { return e.Err }

// ProcessQueryError reports a failure to enumerate running processes.
type ProcessQueryError struct {
	Err error
}

func (e *ProcessQueryError) Error() string { return fmt.Sprintf("process query: %v", e.Err) }
func (e *ProcessQueryError) Unwrap() error { return e.Err }

// ShutdownInvocationError reports that the host refused or failed to
// schedule a shutdown.
type ShutdownInvocationError struct {
	Err error
}

func (e *ShutdownInvocationError) Error() string { return fmt.Sprintf("shutdown request: %v", e.Err) }
func (e *ShutdownInvocationError) Unwrap() error { return e.Err }

func asIdleQueryError(err error) error {
	var target *IdleQueryError
	if errors.As(err, &target) {
		return err
	}
	return &IdleQueryError{Err: err}
}

func asProcessQueryError(err error) error {
	var target *ProcessQueryError
	if errors.As(err, &target) {
		return err
	}
	return &ProcessQueryError{Err: err}
}

func asShutdownInvocationError(err error) error {
	var target *ShutdownInvocationError
	if errors.As(err, &target) {
		return err
	}
	return &ShutdownInvocationError{Err: err}
}
