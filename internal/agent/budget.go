package agent

import (
	"fmt"
	"sync"

	"radsim/internal/provider"
)

// budgetWarnAt is the share of a limit at which a one-time warning is issued.
const budgetWarnAt = 0.8

// Budget caps the tokens a session may spend across turns. A zero limit is
// unlimited. All methods are safe on a nil Budget, which never stops a turn.
type Budget struct {
	mu        sync.Mutex
	maxInput  int
	maxOutput int
	used      provider.Usage

	inputWarned  bool
	outputWarned bool
}

// NewBudget returns a budget of maxInput input and maxOutput output tokens.
func NewBudget(maxInput, maxOutput int) *Budget {
	return &Budget{maxInput: max(maxInput, 0), maxOutput: max(maxOutput, 0)}
}

// Record adds u to the spent tokens. It returns a warning the first time
// either side crosses 80% of its limit, and "" otherwise.
func (b *Budget) Record(u provider.Usage) string {
	if b == nil {
		return ""
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	b.used.InputTokens += u.InputTokens
	b.used.OutputTokens += u.OutputTokens

	var warning string
	if b.maxInput > 0 && !b.inputWarned && float64(b.used.InputTokens) >= budgetWarnAt*float64(b.maxInput) {
		b.inputWarned = true
		warning = fmt.Sprintf("input token usage at %.0f%%", percent(b.used.InputTokens, b.maxInput))
	}
	if b.maxOutput > 0 && !b.outputWarned && float64(b.used.OutputTokens) >= budgetWarnAt*float64(b.maxOutput) {
		b.outputWarned = true
		out := fmt.Sprintf("output token usage at %.0f%%", percent(b.used.OutputTokens, b.maxOutput))
		if warning != "" {
			warning += ", " + out
		} else {
			warning = out
		}
	}
	return warning
}

// Check returns ErrBudgetExceeded once either limit has been reached.
func (b *Budget) Check() error {
	if b == nil {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.maxInput > 0 && b.used.InputTokens >= b.maxInput {
		return fmt.Errorf("%w: %d input tokens used, limit is %d", ErrBudgetExceeded, b.used.InputTokens, b.maxInput)
	}
	if b.maxOutput > 0 && b.used.OutputTokens >= b.maxOutput {
		return fmt.Errorf("%w: %d output tokens used, limit is %d", ErrBudgetExceeded, b.used.OutputTokens, b.maxOutput)
	}
	return nil
}

// Used returns the tokens spent so far.
func (b *Budget) Used() provider.Usage {
	if b == nil {
		return provider.Usage{}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.used
}

// Limits returns the configured limits; zero means unlimited.
func (b *Budget) Limits() (input, output int) {
	if b == nil {
		return 0, 0
	}
	return b.maxInput, b.maxOutput
}

// Percent returns the share of each limit spent, 0 for an unlimited side.
func (b *Budget) Percent() (input, output float64) {
	if b == nil {
		return 0, 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return percent(b.used.InputTokens, b.maxInput), percent(b.used.OutputTokens, b.maxOutput)
}

// Reset forgets all spent tokens and warnings.
func (b *Budget) Reset() {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.used = provider.Usage{}
	b.inputWarned, b.outputWarned = false, false
}

func percent(used, limit int) float64 {
	if limit <= 0 {
		return 0
	}
	return float64(used) / float64(limit) * 100
}
