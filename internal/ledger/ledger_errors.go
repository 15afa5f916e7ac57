package ledger

import (
	"errors"

	ledgererrors "go-opsportal/internal/ledger/errors"

	"github.com/shopspring/decimal"
)

// MapError converts ledger sentinels into their AppError counterparts.
func MapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrInsufficientBalance):
		return ledgererrors.ErrInsufficientBalance.WithCause(err)
	case errors.Is(err, ErrNegativeField):
		return ledgererrors.ErrNegativeBalance.WithCause(err)
	case errors.Is(err, ErrInvalidAmount):
		return ledgererrors.ErrInvalidAmount.WithCause(err)
	}
	return err
}

// ParseDays parses a day amount with at most two decimals.
func ParseDays(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil || !d.Round(2).Equal(d) {
		return decimal.Zero, ledgererrors.ErrInvalidAmount
	}
	return d, nil
}
