package tools

import "context"

// Confirmation is what the user is asked to approve before a destructive
// tool runs.
type Confirmation struct {
	Tool        string
	CallID      string
	Description string
	Args        map[string]any
	// Diff is a preview of the change when the tool can produce one.
	Diff string
}

// Confirmer asks whether a destructive call may proceed. An error is treated
// as a refusal.
type Confirmer interface {
	Confirm(ctx context.Context, c Confirmation) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, c Confirmation) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, c Confirmation) (bool, error) {
	return f(ctx, c)
}

type autoConfirm struct{}

func (autoConfirm) Confirm(context.Context, Confirmation) (bool, error) { return true, nil }

type denyAll struct{}

func (denyAll) Confirm(context.Context, Confirmation) (bool, error) { return false, nil }

var (
	// AutoConfirm approves every confirmation.
	AutoConfirm Confirmer = autoConfirm{}
	// DenyAll refuses every confirmation.
	DenyAll Confirmer = denyAll{}
)
