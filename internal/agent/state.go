package agent

// State is the loop's position in the turn state machine.
type State string

const (
	StateAwaitingInput       State = "awaiting_input"
	StateDispatching         State = "dispatching"
	StateAwaitingToolResults State = "awaiting_tool_results"
	StateResponding          State = "responding"
	StateCancelled           State = "cancelled"
)

func (s State) String() string {
	return string(s)
}

// Outcome is how a submitted turn ended.
type Outcome string

const (
	// OutcomeCompleted means the model produced a final answer.
	OutcomeCompleted Outcome = "completed"
	// OutcomeCancelled means the caller's context was cancelled.
	OutcomeCancelled Outcome = "cancelled"
	// OutcomeStopped means a loop guard ended the turn early.
	OutcomeStopped Outcome = "stopped"
)
