package agent

import "errors"

var (
	// ErrBusy is returned when a turn is submitted while another is in flight.
	ErrBusy = errors.New("a turn is already in progress")

	// ErrCancelled is returned when the caller cancels a turn.
	ErrCancelled = errors.New("turn cancelled")

	// ErrIterationLimit is returned when a turn exceeds agent.max_iterations provider calls.
	ErrIterationLimit = errors.New("iteration limit reached")

	// ErrTooManyFailures is returned after agent.max_consecutive_failures failed tool calls in a row.
	ErrTooManyFailures = errors.New("too many consecutive tool failures")

	// ErrBudgetExceeded is returned when the session token budget is spent.
	ErrBudgetExceeded = errors.New("session token budget exceeded")
)
