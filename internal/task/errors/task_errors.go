package taskerrors

import (
	"net/http"

	"go-opsportal/internal/shared/apperror"
)

var (
	ErrInvalidTaskID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid task id",
		http.StatusBadRequest,
	)
	ErrInvalidAssignee = apperror.New(
		apperror.CodeInvalidInput,
		"assignees and approvers must be actor ids",
		http.StatusBadRequest,
	)
	ErrApproversRequired = apperror.New(
		apperror.CodeInvalidInput,
		"a task that requires approval needs at least one approver",
		http.StatusBadRequest,
	)
	ErrInvalidDueDate = apperror.New(
		apperror.CodeInvalidInput,
		"invalid due_date, expected YYYY-MM-DD",
		http.StatusBadRequest,
	)
	ErrTaskNotFound = apperror.New(
		apperror.CodeNotFound,
		"task not found",
		http.StatusNotFound,
	)
	ErrApprovalNotRequired = apperror.New(
		apperror.CodeInvalidState,
		"task does not require approval",
		http.StatusConflict,
	)
	ErrNotApprover = apperror.New(
		apperror.CodeInvalidActor,
		"actor is not an approver of this task",
		http.StatusForbidden,
	)
	ErrAlreadyResolved = apperror.New(
		apperror.CodeAlreadyTerminal,
		"task approval is already resolved",
		http.StatusConflict,
	)
	ErrNotAssignee = apperror.New(
		apperror.CodeInvalidState,
		"the delegating assignee is not assigned to this task",
		http.StatusConflict,
	)
	ErrAlreadyAssigned = apperror.New(
		apperror.CodeConflict,
		"the new assignee is already assigned to this task",
		http.StatusConflict,
	)
)
