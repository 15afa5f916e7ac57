package leaveerrors

import (
	"net/http"

	"go-opsportal/internal/shared/apperror"
)

var (
	ErrInvalidEmployeeID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid employee id",
		http.StatusBadRequest,
	)
	ErrInvalidLeaveID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid leave request id",
		http.StatusBadRequest,
	)
	ErrInvalidDateFormat = apperror.New(
		apperror.CodeInvalidInput,
		"invalid date format, expected YYYY-MM-DD",
		http.StatusBadRequest,
	)
	ErrInvalidDateRange = apperror.New(
		apperror.CodeInvalidInput,
		"start_date must be before or equal end_date",
		http.StatusBadRequest,
	)
	ErrCrossYearRange = apperror.New(
		apperror.CodeInvalidInput,
		"a leave request must start and end in the same year",
		http.StatusBadRequest,
	)
	ErrHalfDayRange = apperror.New(
		apperror.CodeInvalidInput,
		"half_day is only allowed when start_date equals end_date",
		http.StatusBadRequest,
	)
	ErrInvalidApprover = apperror.New(
		apperror.CodeInvalidInput,
		"approvers must map a chain role to an actor id",
		http.StatusBadRequest,
	)
	ErrLeaveOverlap = apperror.New(
		apperror.CodeConflict,
		"leave already exists in overlapping period",
		http.StatusConflict,
	)
	ErrLeaveNotFound = apperror.New(
		apperror.CodeNotFound,
		"leave request not found",
		http.StatusNotFound,
	)
	ErrInvalidActor = apperror.New(
		apperror.CodeInvalidActor,
		"actor is not the approver for this step",
		http.StatusForbidden,
	)
	ErrSelfApproval = apperror.New(
		apperror.CodeInvalidActor,
		"approvers cannot decide their own leave request",
		http.StatusForbidden,
	)
	ErrOutOfOrder = apperror.New(
		apperror.CodeOutOfOrder,
		"an earlier approval step is still open",
		http.StatusConflict,
	)
	ErrAlreadyTerminal = apperror.New(
		apperror.CodeAlreadyTerminal,
		"leave request is already closed",
		http.StatusConflict,
	)
	ErrStepNotFound = apperror.New(
		apperror.CodeNotFound,
		"approval step not found",
		http.StatusNotFound,
	)
	ErrStillPending = apperror.New(
		apperror.CodeInvalidState,
		"only closed leave requests can be deactivated",
		http.StatusConflict,
	)
)
