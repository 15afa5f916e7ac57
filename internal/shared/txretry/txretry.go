package txretry

import (
	"context"
	"errors"

	"go-opsportal/internal/shared/apperror"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const DefaultAttempts = 3

// Run executes fn inside a fresh database transaction, repeating the whole
// unit when it fails with apperror.ErrVersionConflict. After the last
// attempt the conflict is reported as apperror.ErrConflict.
func Run(ctx context.Context, db *gorm.DB, attempts int, logger *zap.Logger, fn func(tx *gorm.DB) error) error {
	if attempts < 1 {
		attempts = DefaultAttempts
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		err = db.WithContext(ctx).Transaction(fn)
		if err == nil {
			return nil
		}
		if !errors.Is(err, apperror.ErrVersionConflict) {
			return err
		}

		logger.Warn("version conflict, retrying unit of work",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", attempts),
			zap.Error(err),
		)
	}

	return apperror.ErrConflict.WithCause(err)
}
