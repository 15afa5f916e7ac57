package ledger

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var entry = Entry{Date: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), Description: "test"}

func assertInvariant(t *testing.T, b Balance) {
	t.Helper()
	want := b.TotalAllocated.Add(b.CarriedForward).Sub(b.Used).Sub(b.Pending)
	assert.True(t, want.Equal(b.Remaining), "remaining %s != %s", b.Remaining, want)

	folded := Fold(b.Transactions)
	assert.True(t, folded.TotalAllocated.Equal(b.TotalAllocated))
	assert.True(t, folded.Used.Equal(b.Used))
	assert.True(t, folded.Pending.Equal(b.Pending))
	assert.True(t, folded.CarriedForward.Equal(b.CarriedForward))
	assert.True(t, folded.Remaining.Equal(b.Remaining))
}

func assertDec(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, d(want).Equal(got), "want %s got %s", want, got)
}

func allocated(t *testing.T, days string) Balance {
	t.Helper()
	b, err := Allocate(NewBalance(uuid.New(), "annual", 2025), d(days), entry)
	require.NoError(t, err)
	return b
}

func TestLedger_ReserveConsume(t *testing.T) {
	b := allocated(t, "20")
	assertDec(t, "20", b.Remaining)

	b, err := Reserve(b, d("5"), entry)
	require.NoError(t, err)
	assertDec(t, "5", b.Pending)
	assertDec(t, "15", b.Remaining)
	assertInvariant(t, b)

	b, err = Consume(b, d("5"), entry)
	require.NoError(t, err)
	assertDec(t, "5", b.Used)
	assertDec(t, "0", b.Pending)
	assertDec(t, "15", b.Remaining)
	assertInvariant(t, b)
	assert.Len(t, b.Transactions, 4)
}

func TestLedger_ReserveRelease(t *testing.T) {
	b := allocated(t, "20")

	b, err := Reserve(b, d("2.5"), entry)
	require.NoError(t, err)
	assertDec(t, "17.5", b.Remaining)

	b, err = Release(b, d("2.5"), entry)
	require.NoError(t, err)
	assertDec(t, "0", b.Pending)
	assertDec(t, "0", b.Used)
	assertDec(t, "20", b.Remaining)
	assertInvariant(t, b)
}

func TestLedger_InsufficientBalance(t *testing.T) {
	b := allocated(t, "3")

	got, err := Reserve(b, d("5"), entry)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	var ibe *InsufficientBalanceError
	require.ErrorAs(t, err, &ibe)
	assertDec(t, "3", ibe.Available)
	assertDec(t, "5", ibe.Requested)

	assertDec(t, "0", got.Pending)
	assert.Len(t, got.Transactions, len(b.Transactions))
}

func TestLedger_EmptyBalanceRejectsReserve(t *testing.T) {
	_, err := Reserve(NewBalance(uuid.New(), "sick", 2025), d("1"), entry)
	assert.ErrorIs(t, err, ErrInsufficientBalance)
}

func TestLedger_NegativeFields(t *testing.T) {
	b := allocated(t, "10")

	_, err := Release(b, d("1"), entry)
	assert.ErrorIs(t, err, ErrNegativeField)

	_, err = Consume(b, d("1"), entry)
	assert.ErrorIs(t, err, ErrNegativeField)

	_, err = Adjust(b, d("-11"), true, entry)
	assert.ErrorIs(t, err, ErrNegativeField)
}

func TestLedger_Adjust(t *testing.T) {
	b := allocated(t, "10")
	b, err := Reserve(b, d("8"), entry)
	require.NoError(t, err)

	t.Run("non override cannot push remaining negative", func(t *testing.T) {
		_, err := Adjust(b, d("-5"), false, entry)
		assert.ErrorIs(t, err, ErrInsufficientBalance)
	})

	t.Run("override may push remaining negative", func(t *testing.T) {
		got, err := Adjust(b, d("-5"), true, entry)
		require.NoError(t, err)
		assertDec(t, "-3", got.Remaining)
		assert.True(t, got.Transactions[len(got.Transactions)-1].Override)
		assertInvariant(t, got)

		// consuming an existing reservation does not lower remaining further
		got, err = Consume(got, d("8"), entry)
		require.NoError(t, err)
		assertDec(t, "-3", got.Remaining)

		_, err = Reserve(got, d("1"), entry)
		assert.ErrorIs(t, err, ErrInsufficientBalance)
	})

	t.Run("zero delta", func(t *testing.T) {
		_, err := Adjust(b, decimal.Zero, false, entry)
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})
}

func TestLedger_CarryForward(t *testing.T) {
	b := allocated(t, "10")
	b, err := CarryForward(b, d("4.5"), entry)
	require.NoError(t, err)
	assertDec(t, "4.5", b.CarriedForward)
	assertDec(t, "14.5", b.Remaining)
	assertInvariant(t, b)
}

func TestLedger_RejectsNonPositiveAmounts(t *testing.T) {
	b := allocated(t, "10")
	helpers := map[string]func(Balance, decimal.Decimal, Entry) (Balance, error){
		"reserve":       Reserve,
		"consume":       Consume,
		"release":       Release,
		"allocate":      Allocate,
		"carry_forward": CarryForward,
	}
	for name, fn := range helpers {
		t.Run(name, func(t *testing.T) {
			_, err := fn(b, d("0"), entry)
			assert.ErrorIs(t, err, ErrInvalidAmount)
			_, err = fn(b, d("-1"), entry)
			assert.ErrorIs(t, err, ErrInvalidAmount)
		})
	}
}

func TestLedger_PostUnknownType(t *testing.T) {
	_, err := Post(allocated(t, "1"), Transaction{Type: TxnType("bonus"), Amount: d("1")})
	assert.ErrorIs(t, err, ErrInvalidTxnType)
}

func TestLedger_PostDoesNotMutateInput(t *testing.T) {
	b := allocated(t, "10")
	before := len(b.Transactions)

	_, err := Reserve(b, d("3"), entry)
	require.NoError(t, err)

	assert.Len(t, b.Transactions, before)
	assertDec(t, "0", b.Pending)
}

func TestLedger_InvariantHoldsAcrossSequences(t *testing.T) {
	b := allocated(t, "20")
	steps := []func(Balance) (Balance, error){
		func(b Balance) (Balance, error) { return Reserve(b, d("5"), entry) },
		func(b Balance) (Balance, error) { return Reserve(b, d("7.5"), entry) },
		func(b Balance) (Balance, error) { return Consume(b, d("5"), entry) },
		func(b Balance) (Balance, error) { return CarryForward(b, d("3"), entry) },
		func(b Balance) (Balance, error) { return Reserve(b, d("100"), entry) },
		func(b Balance) (Balance, error) { return Release(b, d("7.5"), entry) },
		func(b Balance) (Balance, error) { return Adjust(b, d("-2"), false, entry) },
		func(b Balance) (Balance, error) { return Release(b, d("1"), entry) },
	}

	for _, step := range steps {
		next, err := step(b)
		if err == nil {
			b = next
		}
		assertInvariant(t, b)
		assert.False(t, b.Remaining.IsNegative())
	}
	assertDec(t, "5", b.Used)
	assertDec(t, "16", b.Remaining)
}

func TestParseDays(t *testing.T) {
	got, err := ParseDays("1.5")
	require.NoError(t, err)
	assertDec(t, "1.5", got)

	_, err = ParseDays("1.555")
	assert.Error(t, err)
	_, err = ParseDays("abc")
	assert.Error(t, err)
}
