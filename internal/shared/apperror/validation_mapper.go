package apperror

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// formatFieldName turns approver_ref into "Approver Ref".
func formatFieldName(s string) string {
	s = strings.ReplaceAll(s, "_", " ")
	caser := cases.Title(language.English)
	return caser.String(s)
}

// MapValidationError converts the first binding failure into an AppError.
func MapValidationError(err error) error {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return New(CodeInvalidInput, "Invalid input", http.StatusBadRequest)
	}

	e := errs[0]
	field := formatFieldName(e.Field())
	switch e.Tag() {
	case "required":
		return RequiredField(field)
	case "uuid":
		return New(CodeInvalidInput, field+" must be an actor or record id", http.StatusBadRequest)
	case "isodate":
		return New(CodeInvalidInput, field+" must be a date in YYYY-MM-DD format", http.StatusBadRequest)
	case "oneof":
		return New(CodeInvalidInput, field+" must be one of: "+strings.ReplaceAll(e.Param(), " ", ", "), http.StatusBadRequest)
	case "max":
		return New(CodeInvalidInput, field+" exceeds the maximum of "+e.Param(), http.StatusBadRequest)
	case "min":
		return New(CodeInvalidInput, field+" is below the minimum of "+e.Param(), http.StatusBadRequest)
	default:
		return InvalidField(field)
	}
}
