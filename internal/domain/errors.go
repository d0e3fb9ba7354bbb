package domain

import "errors"

// Sentinel errors shared across packages. Configuration errors (unknown
// insurer, invalid rule shape) are fatal and surfaced immediately;
// evaluation-time problems are absorbed by the engines instead.
var (
	ErrInvalidRule      = errors.New("invalid rule: id, name, and at least one condition are required")
	ErrPointsOutOfRange = errors.New("rule points outside the range for its severity level")
	ErrUnknownInsurer   = errors.New("unknown insurer code")
)
