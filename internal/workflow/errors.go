package workflow

import "errors"

var (
	ErrInvalidActor    = errors.New("workflow: actor may not act on this step")
	ErrOutOfOrder      = errors.New("workflow: a lower-order step is not yet approved")
	ErrAlreadyTerminal = errors.New("workflow: approval chain is already closed")
	ErrStepNotFound    = errors.New("workflow: no step with that order")
	ErrInvalidDecision = errors.New("workflow: decision must be approve or reject")
	ErrInvalidPolicy   = errors.New("workflow: invalid approval policy")
	ErrInvalidDuration = errors.New("workflow: requested duration must be positive")
)
