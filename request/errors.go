package request

import (
	"errors"
	"fmt"
)

// ErrInvalidTarget indicates the request could not be turned into a valid URL
var ErrInvalidTarget = errors.New("invalid target")

// TargetError carries the rejected target and the underlying cause.
type TargetError struct {
	Target string
	Err    error
}

func (e *TargetError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("invalid target %q", e.Target)
	}
	return fmt.Sprintf("invalid target %q: %v", e.Target, e.Err)
}

func (e *TargetError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrInvalidTarget}
	}
	return []error{ErrInvalidTarget, e.Err}
}

func newTargetError(target string, err error) *TargetError {
	return &TargetError{Target: target, Err: err}
}
