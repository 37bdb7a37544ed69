package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// StreamDecisionEvent is one analysis-window result pushed by the backend.
type StreamDecisionEvent struct {
	WindowIndex        int      `json:"window_index"`
	TStartSec          float64  `json:"t_start_sec"`
	TEndSec            float64  `json:"t_end_sec"`
	Description        *string  `json:"description,omitempty"`
	DelaySeconds       *float64 `json:"delay_seconds,omitempty"`
	TriggeredActionIDs []string `json:"triggered_action_ids,omitempty"`
	TriggeredRuleIDs   []string `json:"triggered_rule_ids,omitempty"`
}

var ErrMalformedEvent = errors.New("malformed decision event")

type rawDecisionEvent struct {
	WindowIndex        *int     `json:"window_index"`
	TStartSec          *float64 `json:"t_start_sec"`
	TEndSec            *float64 `json:"t_end_sec"`
	Description        *string  `json:"description"`
	DelaySeconds       *float64 `json:"delay_seconds"`
	TriggeredActionIDs []string `json:"triggered_action_ids"`
	TriggeredRuleIDs   []string `json:"triggered_rule_ids"`
}

// ParseDecisionEvent decodes one feed payload. The window fields are required
// and the window must not end before it starts.
func ParseDecisionEvent(data []byte) (StreamDecisionEvent, error) {
	var raw rawDecisionEvent
	if err := json.Unmarshal(data, &raw); err != nil {
		return StreamDecisionEvent{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if raw.WindowIndex == nil || raw.TStartSec == nil || raw.TEndSec == nil {
		return StreamDecisionEvent{}, fmt.Errorf("%w: missing window fields", ErrMalformedEvent)
	}
	if *raw.TStartSec > *raw.TEndSec {
		return StreamDecisionEvent{}, fmt.Errorf("%w: window ends at %.2fs before it starts at %.2fs",
			ErrMalformedEvent, *raw.TEndSec, *raw.TStartSec)
	}
	return StreamDecisionEvent{
		WindowIndex:        *raw.WindowIndex,
		TStartSec:          *raw.TStartSec,
		TEndSec:            *raw.TEndSec,
		Description:        raw.Description,
		DelaySeconds:       raw.DelaySeconds,
		TriggeredActionIDs: raw.TriggeredActionIDs,
		TriggeredRuleIDs:   raw.TriggeredRuleIDs,
	}, nil
}

// UniqueActionIDs returns the triggered action ids with repeats removed,
// keeping first-seen order. Empty ids are skipped.
func (e StreamDecisionEvent) UniqueActionIDs() []string {
	if len(e.TriggeredActionIDs) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(e.TriggeredActionIDs))
	out := make([]string, 0, len(e.TriggeredActionIDs))
	for _, id := range e.TriggeredActionIDs {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Summary renders the event as a single log line.
func (e StreamDecisionEvent) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "window %d [%.2fs-%.2fs]", e.WindowIndex, e.TStartSec, e.TEndSec)
	if e.DelaySeconds != nil {
		fmt.Fprintf(&b, " (+%.2fs)", *e.DelaySeconds)
	}
	if e.Description != nil && *e.Description != "" {
		fmt.Fprintf(&b, ": %s", strings.TrimSpace(*e.Description))
	}
	if len(e.TriggeredRuleIDs) > 0 {
		fmt.Fprintf(&b, " rules=%s", strings.Join(e.TriggeredRuleIDs, ","))
	}
	if len(e.TriggeredActionIDs) > 0 {
		fmt.Fprintf(&b, " actions=%s", strings.Join(e.TriggeredActionIDs, ","))
	}
	return b.String()
}

// LogEntry is one line of the decision log shown to the user.
type LogEntry struct {
	WindowIndex int    `json:"window_index"`
	Text        string `json:"text"`
}
