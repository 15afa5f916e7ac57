// Package ledgertest provides an in-memory ledger.Repository for tests.
package ledgertest

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go-opsportal/internal/ledger"
	"go-opsportal/internal/shared/apperror"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type key struct {
	employeeID uuid.UUID
	leaveType  string
	year       int
}

// MemoryRepository mimics the postgres repository: unique balance keys,
// version-checked saves and an append-only transaction table.
type MemoryRepository struct {
	mu       sync.Mutex
	balances map[key]ledger.Balance
	txns     map[uuid.UUID][]ledger.Transaction

	// BeforeSave runs before each SaveBalance and may return an error.
	BeforeSave func(b *ledger.Balance) error
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		balances: make(map[key]ledger.Balance),
		txns:     make(map[uuid.UUID][]ledger.Transaction),
	}
}

func (r *MemoryRepository) WithTx(*gorm.DB) ledger.Repository { return r }

func (r *MemoryRepository) FindBalance(_ context.Context, employeeID uuid.UUID, leaveType string, year int) (*ledger.Balance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.balances[key{employeeID, leaveType, year}]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	b.Transactions = append([]ledger.Transaction(nil), r.txns[b.ID]...)
	return &b, nil
}

func (r *MemoryRepository) ListBalances(_ context.Context, employeeID uuid.UUID, year int) ([]ledger.Balance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []ledger.Balance
	for k, b := range r.balances {
		if k.employeeID == employeeID && k.year == year {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LeaveType < out[j].LeaveType })
	return out, nil
}

func (r *MemoryRepository) CreateBalance(_ context.Context, b *ledger.Balance) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := key{b.EmployeeID, b.LeaveType, b.Year}
	if _, exists := r.balances[k]; exists {
		return apperror.ErrVersionConflict
	}
	row := *b
	row.Transactions = nil
	r.balances[k] = row
	return nil
}

func (r *MemoryRepository) SaveBalance(_ context.Context, b *ledger.Balance, expectedVersion int64) error {
	if r.BeforeSave != nil {
		if err := r.BeforeSave(b); err != nil {
			return err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	k := key{b.EmployeeID, b.LeaveType, b.Year}
	cur, ok := r.balances[k]
	if !ok || cur.Version != expectedVersion {
		return apperror.ErrVersionConflict
	}
	row := *b
	row.Transactions = nil
	row.Version = expectedVersion + 1
	r.balances[k] = row
	b.Version = row.Version
	return nil
}

func (r *MemoryRepository) AppendTransactions(_ context.Context, txns []ledger.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, tx := range txns {
		for _, existing := range r.txns[tx.BalanceID] {
			if existing.ID == tx.ID {
				return fmt.Errorf("duplicate transaction %s", tx.ID)
			}
		}
		r.txns[tx.BalanceID] = append(r.txns[tx.BalanceID], tx)
	}
	return nil
}

// Seed stores b and its transactions as if they were committed.
func (r *MemoryRepository) Seed(b ledger.Balance) {
	r.mu.Lock()
	defer r.mu.Unlock()

	row := b
	row.Transactions = nil
	r.balances[key{b.EmployeeID, b.LeaveType, b.Year}] = row
	r.txns[b.ID] = append([]ledger.Transaction(nil), b.Transactions...)
}

// Balance returns the committed state for the key.
func (r *MemoryRepository) Balance(employeeID uuid.UUID, leaveType string, year int) (ledger.Balance, bool) {
	b, err := r.FindBalance(context.Background(), employeeID, leaveType, year)
	if err != nil {
		return ledger.Balance{}, false
	}
	return *b, true
}
