package apperror

import "net/http"

var (
	ErrNotFound = New(
		CodeNotFound,
		"Resource not found",
		http.StatusNotFound,
	)

	ErrForbidden = New(
		CodeForbidden,
		"You do not have permission to access this resource",
		http.StatusForbidden,
	)

	ErrInternal = New(
		CodeInternalError,
		"An unexpected error occurred",
		http.StatusInternalServerError,
	)

	ErrUnauthorized = New(
		CodeUnauthorized,
		"Actor lacks the role or permission for this operation",
		http.StatusForbidden,
	)

	ErrUnauthenticated = New(
		"UNAUTHENTICATED",
		"Authentication token is missing",
		http.StatusUnauthorized,
	)

	ErrInvalidToken = New(
		"INVALID_TOKEN",
		"Authentication token is invalid",
		http.StatusUnauthorized,
	)

	ErrTokenExpired = New(
		"TOKEN_EXPIRED",
		"Authentication token has expired",
		http.StatusUnauthorized,
	)

	ErrInvalidInput = New(
		CodeInvalidInput,
		"The provided input is invalid",
		http.StatusBadRequest,
	)

	// ErrVersionConflict is returned by repositories when an optimistic
	// version check fails. Services retry on it and never surface it directly.
	ErrVersionConflict = New(
		CodeVersionConflict,
		"The record was modified concurrently",
		http.StatusConflict,
	)

	// ErrConflict is surfaced once every retry on ErrVersionConflict has failed.
	ErrConflict = New(
		CodeConflict,
		"The request could not be applied because of concurrent updates, please retry",
		http.StatusConflict,
	)
)

func RequiredField(field string) *AppError {
	return New(CodeInvalidInput, field+" is required", http.StatusBadRequest)
}

func InvalidField(field string) *AppError {
	return New(CodeInvalidInput, field+" is invalid", http.StatusBadRequest)
}
