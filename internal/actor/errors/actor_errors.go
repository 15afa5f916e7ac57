package actorerrors

import (
	"net/http"

	"go-opsportal/internal/shared/apperror"
)

var (
	ErrActorNotFound = apperror.New(
		apperror.CodeNotFound,
		"actor not found",
		http.StatusNotFound,
	)
	ErrInvalidActorID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid actor id",
		http.StatusBadRequest,
	)
	ErrUnknownPermission = apperror.New(
		apperror.CodeInvalidInput,
		"permission overrides contain unknown keys",
		http.StatusBadRequest,
	)
	ErrCorruptActor = apperror.New(
		apperror.CodeInvalidState,
		"stored actor record is invalid",
		http.StatusInternalServerError,
	)
	ErrInvalidStatus = apperror.New(
		apperror.CodeInvalidInput,
		"status must be one of active, inactive, suspended",
		http.StatusBadRequest,
	)
	ErrActorInactive = apperror.New(
		apperror.CodeForbidden,
		"actor is not active",
		http.StatusForbidden,
	)
)
