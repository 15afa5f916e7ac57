package activityerrors

import (
	"net/http"

	"go-opsportal/internal/shared/apperror"
)

var (
	ErrInvalidEvent = apperror.New(
		apperror.CodeInvalidInput,
		"workflow event is missing its id or aggregate",
		http.StatusBadRequest,
	)
	ErrUnknownAggregate = apperror.New(
		apperror.CodeInvalidInput,
		"aggregate type must be leave_request or task",
		http.StatusBadRequest,
	)
)
