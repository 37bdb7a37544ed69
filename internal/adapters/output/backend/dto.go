package backend

import (
	"strings"

	"liquid-home-console/internal/domain/model"
)

type configDTO struct {
	Actions []actionDTO `json:"actions"`
	Rules   []ruleDTO   `json:"rules"`
}

type actionDTO struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
}

// ruleDTO accepts both snake_case and camelCase field names.
type ruleDTO struct {
	ID                 string `json:"id"`
	ConditionText      string `json:"condition_text"`
	ConditionTextCamel string `json:"conditionText"`
	ActionID           string `json:"action_id"`
	ActionIDCamel      string `json:"actionId"`
}

type createRuleRequest struct {
	ConditionText string `json:"condition_text"`
	ActionID      string `json:"action_id"`
}

type liveFrameRequest struct {
	ImageBase64 string `json:"image_base64"`
}

type errorReply struct {
	Message string `json:"message"`
	Detail  string `json:"detail"`
	Status  string `json:"status"`
}

func (r errorReply) text() string {
	switch {
	case r.Message != "":
		return r.Message
	case r.Detail != "":
		return r.Detail
	default:
		return r.Status
	}
}

func (d ruleDTO) toModel() model.Rule {
	return model.Rule{
		ID:            d.ID,
		ConditionText: strings.TrimSpace(firstNonEmpty(d.ConditionText, d.ConditionTextCamel)),
		ActionID:      strings.TrimSpace(firstNonEmpty(d.ActionID, d.ActionIDCamel)),
	}
}

func (d configDTO) toModel() model.Snapshot {
	snap := model.Snapshot{
		Actions: make([]model.Action, 0, len(d.Actions)),
		Rules:   make([]model.Rule, 0, len(d.Rules)),
	}
	for _, a := range d.Actions {
		snap.Actions = append(snap.Actions, model.Action{ID: a.ID, Label: a.Label, Description: a.Description})
	}
	for _, r := range d.Rules {
		snap.Rules = append(snap.Rules, r.toModel())
	}
	return snap
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
