package router

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNoCandidates is returned when no configured pair has an adapter.
var ErrNoCandidates = errors.New("no route candidates available")

// ErrUnavailable marks a candidate skipped because its recovery trial was
// already taken by another request.
var ErrUnavailable = errors.New("provider recovering, trial in flight")

// Attempt records one failed candidate.
type Attempt struct {
	Candidate Candidate
	Err       error
	Duration  time.Duration
}

// ExhaustedError is returned when every candidate failed transiently or was
// unavailable.
type ExhaustedError struct {
	Attempts []Attempt
}

func (e *ExhaustedError) Error() string {
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s: %v", a.Candidate, a.Err))
	}
	return fmt.Sprintf("all %d route candidates failed: %s", len(e.Attempts), strings.Join(parts, "; "))
}

// Unwrap exposes every attempt error to errors.Is and errors.As.
func (e *ExhaustedError) Unwrap() []error {
	errs := make([]error, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		errs = append(errs, a.Err)
	}
	return errs
}
