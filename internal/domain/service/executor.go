package service

import (
	"fmt"
	"sync"

	"liquid-home-console/internal/domain/model"
	"liquid-home-console/internal/ports"
)

// Sources reported with an outcome. They only affect the message.
const (
	SourceManual     = "manual"
	SourceTestButton = "test-button"
	SourceStream     = "vlm-stream"
)

// RuleSource is the source label used when a rule is run by hand.
func RuleSource(ruleID string) string { return "rule:" + ruleID }

// Executor applies actions to the device state. It is the only writer of the state.
type Executor struct {
	mu       sync.Mutex
	state    model.DeviceState
	renderer ports.RoomRenderer
	last     *model.Outcome
}

func NewExecutor(initial model.DeviceState, renderer ports.RoomRenderer) *Executor {
	if renderer == nil {
		renderer = nopRenderer{}
	}
	return &Executor{state: initial, renderer: renderer}
}

// State returns the current device state.
func (e *Executor) State() model.DeviceState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// LastOutcome returns the most recent outcome, or nil before the first action.
func (e *Executor) LastOutcome() *model.Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.last == nil {
		return nil
	}
	out := *e.last
	return &out
}

// Execute drives the flag behind actionID to its target value. Repeating an
// action that already holds is a successful no-op; an id outside the vocabulary
// leaves the state untouched.
func (e *Executor) Execute(actionID, source string) model.Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()

	entry := log.WithField("source", source).WithField("action", actionID)
	out := model.Outcome{ActionID: actionID, Source: source}

	target, ok := model.TargetFor(actionID)
	switch {
	case !ok:
		out.Kind = model.OutcomeUnknown
		out.Message = fmt.Sprintf("[%s] Unknown action %q, nothing to do", source, actionID)
		entry.Info("unknown action")
	case e.state.Get(target.Flag) == target.Value:
		out.Kind = model.OutcomeDuplicate
		out.Message = fmt.Sprintf("[%s] %s already in that state, ignoring duplicate", source, flagName(target.Flag))
		entry.Debug("duplicate action ignored")
	default:
		e.state = e.state.With(target.Flag, target.Value)
		e.notify(target)
		out.Kind = model.OutcomeApplied
		out.Changed = true
		out.Message = fmt.Sprintf("[%s] %s", source, describe(target))
		entry.Infof("applied, room is now %s", e.state)
	}

	out.State = e.state
	e.last = &out
	return out
}

func (e *Executor) notify(target model.Target) {
	switch target.Flag {
	case model.FlagLights:
		e.renderer.ApplyLightState(e.state.LightsOn)
	case model.FlagCurtains:
		e.renderer.ApplyCurtainTarget(e.state.CurtainsOpen)
	}
}

func flagName(f model.Flag) string {
	if f == model.FlagCurtains {
		return "Curtains"
	}
	return "Lights"
}

func describe(t model.Target) string {
	switch {
	case t.Flag == model.FlagLights && t.Value:
		return "Lights turned ON"
	case t.Flag == model.FlagLights:
		return "Lights turned OFF"
	case t.Value:
		return "Curtains opened"
	default:
		return "Curtains closed"
	}
}

type nopRenderer struct{}

func (nopRenderer) ApplyLightState(bool)    {}
func (nopRenderer) ApplyCurtainTarget(bool) {}
