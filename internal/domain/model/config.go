package model

// Snapshot is the initial configuration fetched once at startup.
type Snapshot struct {
	Actions []Action
	Rules   []Rule
}

// Empty reports whether the snapshot carries neither actions nor rules.
func (s Snapshot) Empty() bool {
	return len(s.Actions) == 0 && len(s.Rules) == 0
}
