package model

// OutcomeKind classifies the result of executing an action.
type OutcomeKind string

const (
	OutcomeApplied   OutcomeKind = "applied"
	OutcomeDuplicate OutcomeKind = "duplicate"
	OutcomeUnknown   OutcomeKind = "unknown_action"
)

// Outcome is what the status display shows after an action was executed.
type Outcome struct {
	Kind     OutcomeKind `json:"kind"`
	Changed  bool        `json:"changed"`
	ActionID string      `json:"action_id"`
	Source   string      `json:"source"`
	Message  string      `json:"message"`
	State    DeviceState `json:"state"`
}
