package model

// MaxRules is the number of rules the registry holds at most.
const MaxRules = 5

// Rule binds a free-form condition to an action id.
type Rule struct {
	ID            string `json:"id"`
	ConditionText string `json:"condition_text"`
	ActionID      string `json:"action_id"`
}
