package task

import (
	"errors"

	"go-opsportal/internal/shared/apperror"
	taskerrors "go-opsportal/internal/task/errors"
	"go-opsportal/internal/workflow"
)

func mapWorkflowError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, workflow.ErrInvalidActor):
		return taskerrors.ErrNotApprover.WithCause(err)
	case errors.Is(err, workflow.ErrAlreadyTerminal):
		return taskerrors.ErrAlreadyResolved.WithCause(err)
	case errors.Is(err, workflow.ErrInvalidDecision):
		return apperror.ErrInvalidInput.WithCause(err)
	}
	return err
}
