package dberror

import (
	"errors"

	"go-opsportal/internal/shared/apperror"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	codeUniqueViolation      = "23505"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func IsUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) || pgCode(err) == codeUniqueViolation
}

// IsRetryable reports errors postgres expects the client to retry.
func IsRetryable(err error) bool {
	code := pgCode(err)
	return code == codeSerializationFailure || code == codeDeadlockDetected
}

// MapWriteError turns lost races on writes into apperror.ErrVersionConflict
// and passes every other error through.
func MapWriteError(err error) error {
	if err == nil {
		return nil
	}
	if IsUniqueViolation(err) || IsRetryable(err) {
		return apperror.ErrVersionConflict.WithCause(err)
	}
	return err
}
