package ports

import (
	"context"

	"liquid-home-console/internal/domain/model"
)

// ConfigBackend is the store that owns the action vocabulary and the rules.
type ConfigBackend interface {
	FetchConfig(ctx context.Context) (model.Snapshot, error)
	CreateRule(ctx context.Context, conditionText, actionID string) (model.Rule, error)
	// DeleteRule removes a rule. Implementations return an error wrapping
	// ErrRuleNotFound when the store does not know the id.
	DeleteRule(ctx context.Context, id string) error
}

// FrameUploader delivers one encoded frame to the backend.
type FrameUploader interface {
	UploadFrame(ctx context.Context, dataURL string) error
}
