package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDecisionEvent(t *testing.T) {
	ev, err := ParseDecisionEvent([]byte(`{"window_index":3,"t_start_sec":6,"t_end_sec":8,
		"description":"a person enters","delay_seconds":1.25,
		"triggered_action_ids":["turn_lights_on"],"triggered_rule_ids":["rule-1"]}`))
	require.NoError(t, err)
	assert.Equal(t, 3, ev.WindowIndex)
	assert.Equal(t, 6.0, ev.TStartSec)
	assert.Equal(t, 8.0, ev.TEndSec)
	require.NotNil(t, ev.Description)
	assert.Equal(t, "a person enters", *ev.Description)
	require.NotNil(t, ev.DelaySeconds)
	assert.Equal(t, 1.25, *ev.DelaySeconds)
	assert.Equal(t, []string{"turn_lights_on"}, ev.TriggeredActionIDs)
	assert.Equal(t, []string{"rule-1"}, ev.TriggeredRuleIDs)

	// Optional fields may be absent
	ev, err = ParseDecisionEvent([]byte(`{"window_index":0,"t_start_sec":0,"t_end_sec":2}`))
	require.NoError(t, err)
	assert.Nil(t, ev.Description)
	assert.Nil(t, ev.DelaySeconds)
	assert.Empty(t, ev.UniqueActionIDs())

	// The backend sends unset optionals as explicit nulls
	ev, err = ParseDecisionEvent([]byte(`{"window_index":1,"t_start_sec":2,"t_end_sec":4,
		"description":null,"delay_seconds":null,"triggered_action_ids":null,"triggered_rule_ids":null}`))
	require.NoError(t, err)
	assert.Equal(t, 1, ev.WindowIndex)
	assert.Nil(t, ev.Description)
	assert.Nil(t, ev.DelaySeconds)
	assert.Nil(t, ev.TriggeredActionIDs)
	assert.Nil(t, ev.TriggeredRuleIDs)
	assert.Empty(t, ev.UniqueActionIDs())
}

func TestParseDecisionEvent_Malformed(t *testing.T) {
	cases := map[string]string{
		"not json":        `{window`,
		"missing window":  `{"t_start_sec":0,"t_end_sec":2}`,
		"missing end":     `{"window_index":1,"t_start_sec":0}`,
		"reversed window": `{"window_index":1,"t_start_sec":4,"t_end_sec":2}`,
		"wrong type":      `{"window_index":"one","t_start_sec":0,"t_end_sec":2}`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseDecisionEvent([]byte(payload))
			assert.ErrorIs(t, err, ErrMalformedEvent)
		})
	}
}

func TestUniqueActionIDs(t *testing.T) {
	ev := StreamDecisionEvent{TriggeredActionIDs: []string{
		ActionTurnLightsOn, ActionTurnLightsOn, ActionTurnLightsOff, "", ActionTurnLightsOn,
	}}
	assert.Equal(t, []string{ActionTurnLightsOn, ActionTurnLightsOff}, ev.UniqueActionIDs())
}

func TestSummary(t *testing.T) {
	desc := "  lights are on  "
	delay := 0.5
	ev := StreamDecisionEvent{WindowIndex: 2, TStartSec: 4, TEndSec: 6, Description: &desc,
		DelaySeconds: &delay, TriggeredActionIDs: []string{"turn_lights_on"}}
	assert.Equal(t, "window 2 [4.00s-6.00s] (+0.50s): lights are on actions=turn_lights_on", ev.Summary())
}

func TestVocabulary(t *testing.T) {
	v := NewVocabulary(append(DefaultActions(), Action{ID: ActionTurnLightsOn, Label: "dup"}, Action{ID: "x"}))
	assert.Equal(t, 5, v.Len())
	a, ok := v.Lookup(ActionTurnLightsOn)
	assert.True(t, ok)
	assert.Equal(t, "Turn lights on", a.Label)
	assert.Equal(t, "x", v.Label("x"))
	assert.Equal(t, "missing", v.Label("missing"))
}

func TestTargetFor(t *testing.T) {
	target, ok := TargetFor(ActionCloseCurtains)
	assert.True(t, ok)
	assert.Equal(t, Target{Flag: FlagCurtains, Value: false}, target)

	_, ok = TargetFor("not_a_real_action")
	assert.False(t, ok)
}

func TestDeviceState(t *testing.T) {
	s := DefaultDeviceState()
	assert.False(t, s.LightsOn)
	assert.True(t, s.CurtainsOpen)
	s = s.With(FlagLights, true).With(FlagCurtains, false)
	assert.True(t, s.Get(FlagLights))
	assert.False(t, s.Get(FlagCurtains))
	assert.Equal(t, "lights ON, curtains CLOSED", s.String())
}

func TestActionFor(t *testing.T) {
	assert.Equal(t, ActionTurnLightsOn, ActionFor(FlagLights, true))
	assert.Equal(t, ActionCloseCurtains, ActionFor(FlagCurtains, false))
	assert.Empty(t, ActionFor(Flag("fan"), true))
}
