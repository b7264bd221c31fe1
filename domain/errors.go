package domain

import "errors"

// ErrDuplicateDecision is returned by a decision log that suppressed a
// decision already emitted for the same subject within its dedup window.
var ErrDuplicateDecision = errors.New("duplicate decision suppressed")
