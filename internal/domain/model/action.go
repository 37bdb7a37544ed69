package model

const (
	ActionTurnLightsOn  = "turn_lights_on"
	ActionTurnLightsOff = "turn_lights_off"
	ActionOpenCurtains  = "open_curtain_blinds"
	ActionCloseCurtains = "close_curtain_blinds"
)

// Action is one entry of the backend-supplied vocabulary.
type Action struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
}

// Target is the flag value an action drives the room to.
type Target struct {
	Flag  Flag
	Value bool
}

var targets = map[string]Target{
	ActionTurnLightsOn:  {Flag: FlagLights, Value: true},
	ActionTurnLightsOff: {Flag: FlagLights, Value: false},
	ActionOpenCurtains:  {Flag: FlagCurtains, Value: true},
	ActionCloseCurtains: {Flag: FlagCurtains, Value: false},
}

// TargetFor maps an action id onto its flag target. The second value is false
// for ids outside the closed vocabulary.
func TargetFor(actionID string) (Target, bool) {
	t, ok := targets[actionID]
	return t, ok
}

// ActionFor returns the action that drives flag to value.
func ActionFor(flag Flag, value bool) string {
	for id, t := range targets {
		if t.Flag == flag && t.Value == value {
			return id
		}
	}
	return ""
}

// DefaultActions is the vocabulary used when no backend supplies one.
func DefaultActions() []Action {
	return []Action{
		{ID: ActionTurnLightsOn, Label: "Turn lights on", Description: "Switch the room lights on"},
		{ID: ActionTurnLightsOff, Label: "Turn lights off", Description: "Switch the room lights off"},
		{ID: ActionOpenCurtains, Label: "Open curtain blinds", Description: "Open the window blinds"},
		{ID: ActionCloseCurtains, Label: "Close curtain blinds", Description: "Close the window blinds"},
	}
}

// Vocabulary is the read-only list of actions loaded at startup.
type Vocabulary struct {
	actions []Action
	byID    map[string]Action
}

func NewVocabulary(actions []Action) *Vocabulary {
	v := &Vocabulary{
		actions: make([]Action, 0, len(actions)),
		byID:    make(map[string]Action, len(actions)),
	}
	for _, a := range actions {
		if a.ID == "" {
			continue
		}
		if _, dup := v.byID[a.ID]; dup {
			continue
		}
		if a.Label == "" {
			a.Label = a.ID
		}
		v.actions = append(v.actions, a)
		v.byID[a.ID] = a
	}
	return v
}

// Actions returns a copy of the vocabulary in backend order.
func (v *Vocabulary) Actions() []Action {
	out := make([]Action, len(v.actions))
	copy(out, v.actions)
	return out
}

func (v *Vocabulary) Lookup(id string) (Action, bool) {
	a, ok := v.byID[id]
	return a, ok
}

func (v *Vocabulary) Len() int { return len(v.actions) }

// Label returns the human label for id, or id itself when it is not in the vocabulary.
func (v *Vocabulary) Label(id string) string {
	if a, ok := v.byID[id]; ok {
		return a.Label
	}
	return id
}
