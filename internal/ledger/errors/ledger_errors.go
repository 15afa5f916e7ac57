package ledgererrors

import (
	"net/http"

	"go-opsportal/internal/shared/apperror"
)

var (
	ErrBalanceNotFound = apperror.New(
		apperror.CodeNotFound,
		"leave balance not found",
		http.StatusNotFound,
	)
	ErrInsufficientBalance = apperror.New(
		apperror.CodeInsufficientBalance,
		"insufficient leave balance",
		http.StatusUnprocessableEntity,
	)
	ErrNegativeBalance = apperror.New(
		apperror.CodeInvalidState,
		"balance field would become negative",
		http.StatusUnprocessableEntity,
	)
	ErrInvalidAmount = apperror.New(
		apperror.CodeInvalidInput,
		"days must be a positive amount with at most two decimals",
		http.StatusBadRequest,
	)
	ErrInvalidEmployeeID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid employee id",
		http.StatusBadRequest,
	)
	ErrInvalidYear = apperror.New(
		apperror.CodeInvalidInput,
		"year is out of range",
		http.StatusBadRequest,
	)
	ErrOverrideRequiresAdmin = apperror.New(
		apperror.CodeUnauthorized,
		"only admins may post override adjustments",
		http.StatusForbidden,
	)
)
