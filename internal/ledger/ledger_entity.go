package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TxnType string

const (
	TxnAllocation   TxnType = "allocation"
	TxnUsed         TxnType = "used"
	TxnPending      TxnType = "pending"
	TxnAdjustment   TxnType = "adjustment"
	TxnCarryForward TxnType = "carryforward"
)

func (t TxnType) IsValid() bool {
	switch t {
	case TxnAllocation, TxnUsed, TxnPending, TxnAdjustment, TxnCarryForward:
		return true
	}
	return false
}

// Balance is one (employee, leave type, year) account. The scalar fields
// are a cache of Fold(Transactions).
type Balance struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EmployeeID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:ux_leave_balances_key"`
	LeaveType  string    `gorm:"type:varchar(30);not null;uniqueIndex:ux_leave_balances_key"`
	Year       int       `gorm:"not null;uniqueIndex:ux_leave_balances_key"`

	TotalAllocated decimal.Decimal `gorm:"type:numeric(8,2);not null;default:0"`
	Used           decimal.Decimal `gorm:"type:numeric(8,2);not null;default:0"`
	Pending        decimal.Decimal `gorm:"type:numeric(8,2);not null;default:0"`
	CarriedForward decimal.Decimal `gorm:"type:numeric(8,2);not null;default:0"`
	Remaining      decimal.Decimal `gorm:"type:numeric(8,2);not null;default:0"`

	Version int64 `gorm:"not null;default:0"`

	Transactions []Transaction `gorm:"foreignKey:BalanceID"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Balance) TableName() string { return "leave_balances" }

// Transaction is immutable once written.
type Transaction struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	BalanceID      uuid.UUID       `gorm:"type:uuid;not null;index:idx_leave_balance_txns_balance"`
	Type           TxnType         `gorm:"type:varchar(20);not null"`
	Amount         decimal.Decimal `gorm:"type:numeric(8,2);not null"`
	Date           time.Time       `gorm:"not null"`
	Description    string          `gorm:"type:text"`
	LeaveRequestID *uuid.UUID      `gorm:"type:uuid;index:idx_leave_balance_txns_request"`
	Override       bool            `gorm:"not null;default:false"`
	CreatedAt      time.Time
}

func (Transaction) TableName() string { return "leave_balance_transactions" }

// NewBalance returns the zero row for a key that has no balance yet.
func NewBalance(employeeID uuid.UUID, leaveType string, year int) Balance {
	return Balance{
		ID:             uuid.New(),
		EmployeeID:     employeeID,
		LeaveType:      leaveType,
		Year:           year,
		TotalAllocated: decimal.Zero,
		Used:           decimal.Zero,
		Pending:        decimal.Zero,
		CarriedForward: decimal.Zero,
		Remaining:      decimal.Zero,
	}
}
