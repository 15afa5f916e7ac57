package ledger

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Account tracks a balance loaded inside one unit of work together with the
// transactions posted to it that are not stored yet.
type Account struct {
	Balance   Balance
	isNew     bool
	persisted int
}

// Open loads the balance for the key, or starts a zero balance when none
// exists yet. The row is only inserted on Save.
func Open(ctx context.Context, repo Repository, employeeID uuid.UUID, leaveType string, year int) (*Account, error) {
	b, err := repo.FindBalance(ctx, employeeID, leaveType, year)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &Account{Balance: NewBalance(employeeID, leaveType, year), isNew: true}, nil
	}
	if err != nil {
		return nil, err
	}
	return &Account{Balance: *b, persisted: len(b.Transactions)}, nil
}

// Apply runs a posting helper against the current balance and keeps the
// result only when it succeeds.
func (a *Account) Apply(post func(Balance) (Balance, error)) error {
	next, err := post(a.Balance)
	if err != nil {
		return err
	}
	a.Balance = next
	return nil
}

// Unsaved returns the transactions posted since the last Save.
func (a *Account) Unsaved() []Transaction {
	return a.Balance.Transactions[a.persisted:]
}

// Save writes the scalar cache with an optimistic version check and then
// appends the new transactions. It must run inside the caller's transaction.
func (a *Account) Save(ctx context.Context, repo Repository) error {
	pending := a.Unsaved()
	if len(pending) == 0 && !a.isNew {
		return nil
	}

	if a.isNew {
		if err := repo.CreateBalance(ctx, &a.Balance); err != nil {
			return err
		}
	} else if err := repo.SaveBalance(ctx, &a.Balance, a.Balance.Version); err != nil {
		return err
	}

	if err := repo.AppendTransactions(ctx, pending); err != nil {
		return err
	}
	a.isNew = false
	a.persisted = len(a.Balance.Transactions)
	return nil
}
