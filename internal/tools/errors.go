package tools

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownTool        = errors.New("unknown tool")
	ErrInvalidArguments   = errors.New("invalid tool arguments")
	ErrConfirmationDenied = errors.New("confirmation denied")
	ErrDuplicateTool      = errors.New("tool already registered")
	ErrRegistryFrozen     = errors.New("tool registry is frozen")
	ErrCancelled          = errors.New("cancelled")
)

// ExecutionError is a handler failure: a returned error, a timeout or a panic.
type ExecutionError struct {
	Tool  string
	Err   error
	Panic bool
}

func (e *ExecutionError) Error() string {
	if e.Panic {
		return fmt.Sprintf("tool %s panicked: %v", e.Tool, e.Err)
	}
	return fmt.Sprintf("tool %s failed: %v", e.Tool, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}
