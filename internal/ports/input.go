package ports

import (
	"context"

	"liquid-home-console/internal/domain/model"
)

// StreamStatus is the observable state of the live stream session.
type StreamStatus string

const (
	StreamIdle           StreamStatus = "idle"
	StreamConnecting     StreamStatus = "connecting"
	StreamOpen           StreamStatus = "streaming"
	StreamStopped        StreamStatus = "stopped"
	StreamConnectionLost StreamStatus = "connection_lost"
)

// ConsoleStatus is the status line plus decision log.
type ConsoleStatus struct {
	State         model.DeviceState `json:"state"`
	Stream        StreamStatus      `json:"stream"`
	StreamMessage string            `json:"stream_message"`
	Capturing     bool              `json:"capturing"`
	LastOutcome   *model.Outcome    `json:"last_outcome,omitempty"`
	Log           []model.LogEntry  `json:"log"`
}

// ConsolePort is what the UI adapters drive.
type ConsolePort interface {
	Actions() []model.Action
	Rules() []model.Rule
	AddRule(ctx context.Context, conditionText, actionID string) (model.Rule, error)
	DeleteRule(ctx context.Context, id string) error
	RunRule(id string) (model.Outcome, error)
	Execute(actionID, source string) model.Outcome
	StartStream(ctx context.Context) error
	StopStream()
	Status() ConsoleStatus
}
