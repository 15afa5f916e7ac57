package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrInsufficientBalance = errors.New("ledger: insufficient balance")
	ErrNegativeField       = errors.New("ledger: balance field would go negative")
	ErrInvalidAmount       = errors.New("ledger: amount must be positive")
	ErrInvalidTxnType      = errors.New("ledger: unknown transaction type")
)

// InsufficientBalanceError reports the shortfall of a rejected posting.
type InsufficientBalanceError struct {
	Available decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: available %s, requested %s",
		e.Available.StringFixed(2), e.Requested.StringFixed(2))
}

func (e *InsufficientBalanceError) Unwrap() error {
	return ErrInsufficientBalance
}

// Totals is the folded view of a transaction log.
type Totals struct {
	TotalAllocated decimal.Decimal
	Used           decimal.Decimal
	Pending        decimal.Decimal
	CarriedForward decimal.Decimal
	Remaining      decimal.Decimal
}

// Fold recomputes every scalar from the log.
func Fold(txns []Transaction) Totals {
	t := Totals{
		TotalAllocated: decimal.Zero,
		Used:           decimal.Zero,
		Pending:        decimal.Zero,
		CarriedForward: decimal.Zero,
	}
	for _, tx := range txns {
		switch tx.Type {
		case TxnAllocation, TxnAdjustment:
			t.TotalAllocated = t.TotalAllocated.Add(tx.Amount)
		case TxnCarryForward:
			t.CarriedForward = t.CarriedForward.Add(tx.Amount)
		case TxnPending:
			t.Pending = t.Pending.Add(tx.Amount)
		case TxnUsed:
			t.Used = t.Used.Add(tx.Amount)
		}
	}
	t.Remaining = t.TotalAllocated.Add(t.CarriedForward).Sub(t.Used).Sub(t.Pending)
	return t
}

func (t Totals) negativeField() string {
	switch {
	case t.TotalAllocated.IsNegative():
		return "total_allocated"
	case t.Used.IsNegative():
		return "used"
	case t.Pending.IsNegative():
		return "pending"
	case t.CarriedForward.IsNegative():
		return "carried_forward"
	}
	return ""
}

// Post appends txns to a copy of b and recomputes its scalars from the full
// log. A batch that lowers remaining below zero is rejected unless one of
// its transactions is an administrative override.
func Post(b Balance, txns ...Transaction) (Balance, error) {
	override := false
	for _, tx := range txns {
		if !tx.Type.IsValid() {
			return b, fmt.Errorf("%w: %q", ErrInvalidTxnType, tx.Type)
		}
		override = override || tx.Override
	}

	before := Fold(b.Transactions)

	log := make([]Transaction, 0, len(b.Transactions)+len(txns))
	log = append(log, b.Transactions...)
	for _, tx := range txns {
		if tx.ID == uuid.Nil {
			tx.ID = uuid.New()
		}
		tx.BalanceID = b.ID
		log = append(log, tx)
	}
	after := Fold(log)

	if f := after.negativeField(); f != "" {
		return b, fmt.Errorf("%w: %s", ErrNegativeField, f)
	}
	if after.Remaining.IsNegative() && after.Remaining.LessThan(before.Remaining) && !override {
		return b, &InsufficientBalanceError{
			Available: before.Remaining,
			Requested: before.Remaining.Sub(after.Remaining),
		}
	}

	out := b
	out.Transactions = log
	out.TotalAllocated = after.TotalAllocated
	out.Used = after.Used
	out.Pending = after.Pending
	out.CarriedForward = after.CarriedForward
	out.Remaining = after.Remaining
	return out, nil
}

// Entry carries the fields shared by the transactions a helper emits.
type Entry struct {
	Date           time.Time
	Description    string
	LeaveRequestID *uuid.UUID
}

func (e Entry) txn(t TxnType, amount decimal.Decimal) Transaction {
	return Transaction{
		ID:             uuid.New(),
		Type:           t,
		Amount:         amount,
		Date:           e.Date.UTC(),
		Description:    e.Description,
		LeaveRequestID: e.LeaveRequestID,
	}
}

func requirePositive(days decimal.Decimal) error {
	if !days.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

// Reserve places a pending debit of days.
func Reserve(b Balance, days decimal.Decimal, e Entry) (Balance, error) {
	if err := requirePositive(days); err != nil {
		return b, err
	}
	return Post(b, e.txn(TxnPending, days))
}

// Consume converts a pending debit of days into a used debit.
func Consume(b Balance, days decimal.Decimal, e Entry) (Balance, error) {
	if err := requirePositive(days); err != nil {
		return b, err
	}
	return Post(b, e.txn(TxnPending, days.Neg()), e.txn(TxnUsed, days))
}

// Release reverses a pending debit of days.
func Release(b Balance, days decimal.Decimal, e Entry) (Balance, error) {
	if err := requirePositive(days); err != nil {
		return b, err
	}
	return Post(b, e.txn(TxnPending, days.Neg()))
}

func Allocate(b Balance, days decimal.Decimal, e Entry) (Balance, error) {
	if err := requirePositive(days); err != nil {
		return b, err
	}
	return Post(b, e.txn(TxnAllocation, days))
}

func CarryForward(b Balance, days decimal.Decimal, e Entry) (Balance, error) {
	if err := requirePositive(days); err != nil {
		return b, err
	}
	return Post(b, e.txn(TxnCarryForward, days))
}

// Adjust applies a signed change to the allocation. With override set the
// result may leave remaining below zero.
func Adjust(b Balance, delta decimal.Decimal, override bool, e Entry) (Balance, error) {
	if delta.IsZero() {
		return b, ErrInvalidAmount
	}
	tx := e.txn(TxnAdjustment, delta)
	tx.Override = override
	return Post(b, tx)
}
