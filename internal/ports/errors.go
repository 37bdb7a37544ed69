package ports

import "errors"

var (
	// ErrRuleNotFound is reported by a ConfigBackend that has no rule with the given id.
	ErrRuleNotFound = errors.New("rule not found")

	// ErrFrameDropped is reported by a FrameUploader when the backend refused a
	// frame because its ingestion queue was full.
	ErrFrameDropped = errors.New("frame dropped by backend")
)
