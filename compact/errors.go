package compact

import "errors"

// Sentinel errors for callers that need to distinguish failure classes.
var (
	// ErrInvalidConfig indicates a configuration that fails validation.
	// This is fatal at construction time, not something to retry.
	ErrInvalidConfig = errors.New("invalid compaction config")

	// ErrSummarizer wraps failures of the summarization delegate. The
	// engine guarantees the pre-call history is unmodified when this is
	// returned, so the caller may retry or skip compaction for the turn.
	ErrSummarizer = errors.New("summarization failed")
)
