package apperror

const (
	// Client errors (4xx)
	CodeInvalidInput = "INVALID_INPUT"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeNotFound     = "NOT_FOUND"
	CodeConflict     = "CONFLICT"
	CodeInvalidState = "INVALID_STATE"

	// Workflow and ledger (4xx)
	CodeInvalidActor        = "INVALID_ACTOR"
	CodeOutOfOrder          = "OUT_OF_ORDER"
	CodeAlreadyTerminal     = "ALREADY_TERMINAL"
	CodeInsufficientBalance = "INSUFFICIENT_BALANCE"
	CodeVersionConflict     = "VERSION_CONFLICT"

	// Server errors (5xx)
	CodeInternalError      = "INTERNAL_ERROR"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)
