package leave

import (
	"errors"

	leaveerrors "go-opsportal/internal/leave/errors"
	"go-opsportal/internal/shared/apperror"
	"go-opsportal/internal/workflow"
)

// mapWorkflowError converts workflow sentinels into their AppError
// counterparts.
func mapWorkflowError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, workflow.ErrInvalidActor):
		return leaveerrors.ErrInvalidActor.WithCause(err)
	case errors.Is(err, workflow.ErrOutOfOrder):
		return leaveerrors.ErrOutOfOrder.WithCause(err)
	case errors.Is(err, workflow.ErrAlreadyTerminal):
		return leaveerrors.ErrAlreadyTerminal.WithCause(err)
	case errors.Is(err, workflow.ErrStepNotFound):
		return leaveerrors.ErrStepNotFound.WithCause(err)
	case errors.Is(err, workflow.ErrInvalidDecision),
		errors.Is(err, workflow.ErrInvalidDuration):
		return apperror.ErrInvalidInput.WithCause(err)
	}
	return err
}
