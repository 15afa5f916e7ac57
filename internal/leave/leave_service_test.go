package leave_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go-opsportal/internal/events"
	"go-opsportal/internal/leave"
	leaveerrors "go-opsportal/internal/leave/errors"
	leaveMock "go-opsportal/internal/leave/mock"
	"go-opsportal/internal/ledger"
	ledgererrors "go-opsportal/internal/ledger/errors"
	"go-opsportal/internal/ledger/ledgertest"
	"go-opsportal/internal/notification"
	notificationMock "go-opsportal/internal/notification/mock"
	"go-opsportal/internal/rbac"
	"go-opsportal/internal/shared/apperror"
	"go-opsportal/internal/workflow"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// memoryLeaves is a version-checked in-memory leave.Repository.
type memoryLeaves struct {
	mu   sync.Mutex
	rows map[uuid.UUID]leave.LeaveRequest

	saveErr func(attempt int) error
	saves   int
}

func newMemoryLeaves() *memoryLeaves {
	return &memoryLeaves{rows: make(map[uuid.UUID]leave.LeaveRequest)}
}

func (m *memoryLeaves) WithTx(*gorm.DB) leave.Repository { return m }

func (m *memoryLeaves) FindByID(_ context.Context, id string) (*leave.LeaveRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.rows[uuid.MustParse(id)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	l.ApprovalWorkflow = append(l.ApprovalWorkflow[:0:0], l.ApprovalWorkflow...)
	return &l, nil
}

func (m *memoryLeaves) Create(_ context.Context, l *leave.LeaveRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[l.ID] = *l
	return nil
}

func (m *memoryLeaves) Save(_ context.Context, l *leave.LeaveRequest, expectedVersion int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.saves++
	if m.saveErr != nil {
		if err := m.saveErr(m.saves); err != nil {
			return err
		}
	}
	cur, ok := m.rows[l.ID]
	if !ok || cur.Version != expectedVersion {
		return apperror.ErrVersionConflict
	}
	l.Version = expectedVersion + 1
	m.rows[l.ID] = *l
	return nil
}

func (m *memoryLeaves) List(_ context.Context, filter leave.ListFilter) ([]leave.LeaveRequest, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []leave.LeaveRequest
	for _, l := range m.rows {
		if filter.EmployeeID != "" && l.EmployeeID.String() != filter.EmployeeID {
			continue
		}
		if !filter.IncludeInactive && !l.IsActive {
			continue
		}
		out = append(out, l)
	}
	return out, int64(len(out)), nil
}

func (m *memoryLeaves) HasOverlappingPeriod(_ context.Context, employeeID string, start, end time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, l := range m.rows {
		if l.EmployeeID.String() != employeeID || !l.IsActive {
			continue
		}
		if st := l.Status(); st == workflow.StatusRejected || st == workflow.StatusCancelled {
			continue
		}
		if !(l.EndDate.Before(start) || l.StartDate.After(end)) {
			return true, nil
		}
	}
	return false, nil
}

type leaveServiceDeps struct {
	sqlMock  sqlmock.Sqlmock
	leaves   *memoryLeaves
	balances *ledgertest.MemoryRepository
	notifier *notificationMock.MockNotifier
	service  leave.Service
}

var fixedNow = time.Date(2025, 2, 20, 9, 0, 0, 0, time.UTC)

func setupLeaveServiceTest(t *testing.T) *leaveServiceDeps {
	t.Helper()

	sqlDB, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	require.NoError(t, err)

	ctrl := gomock.NewController(t)
	notifier := notificationMock.NewMockNotifier(ctrl)
	leaves := newMemoryLeaves()
	balances := ledgertest.NewMemoryRepository()

	svc := leave.NewService(db, leaves, balances, notifier, zap.NewNop(),
		leave.WithPolicy(workflow.NewPolicy(14, 30)),
		leave.WithClock(func() time.Time { return fixedNow }),
	)

	return &leaveServiceDeps{
		sqlMock:  sqlMock,
		leaves:   leaves,
		balances: balances,
		notifier: notifier,
		service:  svc,
	}
}

func expectTx(t *testing.T, mock sqlmock.Sqlmock, commit bool) {
	t.Helper()
	mock.ExpectBegin()
	if commit {
		mock.ExpectCommit()
	} else {
		mock.ExpectRollback()
	}
}

func seedBalance(t *testing.T, repo *ledgertest.MemoryRepository, employeeID uuid.UUID, allocated, carried int64) {
	t.Helper()
	entry := ledger.Entry{Date: fixedNow, Description: "seed"}
	b, err := ledger.Allocate(ledger.NewBalance(employeeID, "annual", 2025), decimal.NewFromInt(allocated), entry)
	require.NoError(t, err)
	if carried > 0 {
		b, err = ledger.CarryForward(b, decimal.NewFromInt(carried), entry)
		require.NoError(t, err)
	}
	repo.Seed(b)
}

func balanceOf(t *testing.T, repo *ledgertest.MemoryRepository, employeeID uuid.UUID) ledger.Balance {
	t.Helper()
	b, ok := repo.Balance(employeeID, "annual", 2025)
	require.True(t, ok)
	return b
}

func assertDays(t *testing.T, want int64, got decimal.Decimal, field string) {
	t.Helper()
	assert.Truef(t, decimal.NewFromInt(want).Equal(got), "%s: want %d, got %s", field, want, got)
}

func ptr(i int) *int { return &i }

func active(role rbac.Role) rbac.Actor {
	return rbac.Actor{ID: uuid.NewString(), Role: role, Status: rbac.StatusActive}
}

func TestLeaveService_FiveDayRequestApprovedByManager(t *testing.T) {
	ctx := context.Background()
	deps := setupLeaveServiceTest(t)

	employee := active(rbac.RoleStaff)
	employeeID := uuid.MustParse(employee.ID)
	manager := active(rbac.RoleManager)
	seedBalance(t, deps.balances, employeeID, 20, 0)

	var got []string
	deps.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, e notification.Event) error {
			got = append(got, e.Type)
			return nil
		}).Times(2)

	expectTx(t, deps.sqlMock, true)
	submitted, err := deps.service.Submit(ctx, employee, leave.SubmitLeaveRequest{
		LeaveType: "annual",
		StartDate: "2025-03-03",
		EndDate:   "2025-03-07",
	})
	require.NoError(t, err)
	assert.Equal(t, "5.00", submitted.TotalDays)
	assert.Equal(t, "pending", submitted.Status)
	require.Len(t, submitted.ApprovalWorkflow, 1)
	assert.Equal(t, "manager", submitted.ApprovalWorkflow[0].ApproverRole)

	b := balanceOf(t, deps.balances, employeeID)
	assertDays(t, 5, b.Pending, "pending")
	assertDays(t, 15, b.Remaining, "remaining")

	expectTx(t, deps.sqlMock, true)
	approved, err := deps.service.ApproveStep(ctx, manager, submitted.ID, leave.DecisionRequest{Order: ptr(0), Comments: "enjoy"})
	require.NoError(t, err)
	assert.Equal(t, "approved", approved.Status)
	assert.Equal(t, manager.ID, approved.ApprovalWorkflow[0].ApproverRef)
	assert.Equal(t, "enjoy", approved.ApprovalWorkflow[0].Comments)
	require.NotNil(t, approved.ApprovalWorkflow[0].ActionDate)

	b = balanceOf(t, deps.balances, employeeID)
	assertDays(t, 5, b.Used, "used")
	assertDays(t, 0, b.Pending, "pending")
	assertDays(t, 15, b.Remaining, "remaining")

	assert.Equal(t, []string{events.LeaveSubmitted, events.LeaveApproved}, got)
	assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
}

func TestLeaveService_FortyDayRequestRejectedAtSecondStep(t *testing.T) {
	ctx := context.Background()
	deps := setupLeaveServiceTest(t)
	deps.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	employee := active(rbac.RoleStaff)
	employeeID := uuid.MustParse(employee.ID)
	seedBalance(t, deps.balances, employeeID, 20, 25)
	before := balanceOf(t, deps.balances, employeeID)

	expectTx(t, deps.sqlMock, true)
	submitted, err := deps.service.Submit(ctx, employee, leave.SubmitLeaveRequest{
		LeaveType: "annual",
		StartDate: "2025-01-01",
		EndDate:   "2025-02-09",
	})
	require.NoError(t, err)
	assert.Equal(t, "40.00", submitted.TotalDays)
	require.Len(t, submitted.ApprovalWorkflow, 3)
	for i, role := range []string{"manager", "department_head", "admin"} {
		assert.Equal(t, i, submitted.ApprovalWorkflow[i].Order)
		assert.Equal(t, role, submitted.ApprovalWorkflow[i].ApproverRole)
	}

	expectTx(t, deps.sqlMock, true)
	_, err = deps.service.ApproveStep(ctx, active(rbac.RoleManager), submitted.ID, leave.DecisionRequest{Order: ptr(0)})
	require.NoError(t, err)
	assertDays(t, 40, balanceOf(t, deps.balances, employeeID).Pending, "pending after step 1")

	expectTx(t, deps.sqlMock, true)
	rejected, err := deps.service.RejectStep(ctx, active(rbac.RoleDepartmentHead), submitted.ID, leave.DecisionRequest{Order: ptr(1), Comments: "too long"})
	require.NoError(t, err)
	assert.Equal(t, "rejected", rejected.Status)
	assert.Equal(t, "rejected", rejected.ApprovalWorkflow[1].Status)
	assert.Equal(t, "pending", rejected.ApprovalWorkflow[2].Status)

	after := balanceOf(t, deps.balances, employeeID)
	assertDays(t, 0, after.Pending, "pending")
	assertDays(t, 0, after.Used, "used")
	assert.True(t, before.Remaining.Equal(after.Remaining))

	t.Run("no later step can approve", func(t *testing.T) {
		expectTx(t, deps.sqlMock, false)
		_, err := deps.service.ApproveStep(ctx, active(rbac.RoleAdmin), submitted.ID, leave.DecisionRequest{Order: ptr(2)})
		assert.ErrorIs(t, err, leaveerrors.ErrAlreadyTerminal)
	})
}

func TestLeaveService_Submit(t *testing.T) {
	ctx := context.Background()

	t.Run("insufficient balance leaves pending unchanged", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		employee := active(rbac.RoleStaff)
		employeeID := uuid.MustParse(employee.ID)
		seedBalance(t, deps.balances, employeeID, 3, 0)

		expectTx(t, deps.sqlMock, false)
		_, err := deps.service.Submit(ctx, employee, leave.SubmitLeaveRequest{
			LeaveType: "annual",
			StartDate: "2025-03-03",
			EndDate:   "2025-03-07",
		})

		assert.ErrorIs(t, err, ledgererrors.ErrInsufficientBalance)
		assertDays(t, 0, balanceOf(t, deps.balances, employeeID).Pending, "pending")
		assert.Empty(t, deps.leaves.rows)
	})

	t.Run("half day", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		deps.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(nil)
		employee := active(rbac.RoleStaff)
		seedBalance(t, deps.balances, uuid.MustParse(employee.ID), 1, 0)

		expectTx(t, deps.sqlMock, true)
		resp, err := deps.service.Submit(ctx, employee, leave.SubmitLeaveRequest{
			LeaveType: "annual",
			StartDate: "2025-03-03",
			EndDate:   "2025-03-03",
			HalfDay:   true,
		})

		require.NoError(t, err)
		assert.Equal(t, "0.50", resp.TotalDays)
	})

	t.Run("overlapping live request", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		deps.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(nil)
		employee := active(rbac.RoleStaff)
		seedBalance(t, deps.balances, uuid.MustParse(employee.ID), 20, 0)
		req := leave.SubmitLeaveRequest{LeaveType: "annual", StartDate: "2025-03-03", EndDate: "2025-03-05"}

		expectTx(t, deps.sqlMock, true)
		_, err := deps.service.Submit(ctx, employee, req)
		require.NoError(t, err)

		expectTx(t, deps.sqlMock, false)
		req.StartDate = "2025-03-05"
		req.EndDate = "2025-03-06"
		_, err = deps.service.Submit(ctx, employee, req)
		assert.ErrorIs(t, err, leaveerrors.ErrLeaveOverlap)
	})

	t.Run("filing for someone else needs leave.manage", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		_, err := deps.service.Submit(ctx, active(rbac.RoleStaff), leave.SubmitLeaveRequest{
			EmployeeID: uuid.NewString(),
			LeaveType:  "annual",
			StartDate:  "2025-03-03",
			EndDate:    "2025-03-03",
		})
		assert.ErrorIs(t, err, apperror.ErrUnauthorized)
	})

	t.Run("own id in upper case is filing for self", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		deps.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(nil)
		employee := active(rbac.RoleStaff)
		seedBalance(t, deps.balances, uuid.MustParse(employee.ID), 20, 0)

		expectTx(t, deps.sqlMock, true)
		resp, err := deps.service.Submit(ctx, employee, leave.SubmitLeaveRequest{
			EmployeeID: strings.ToUpper(employee.ID),
			LeaveType:  "annual",
			StartDate:  "2025-03-03",
			EndDate:    "2025-03-03",
		})

		require.NoError(t, err)
		assert.Equal(t, employee.ID, resp.EmployeeID)
	})

	t.Run("inactive actor", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		actor := active(rbac.RoleStaff)
		actor.Status = rbac.StatusSuspended
		_, err := deps.service.Submit(ctx, actor, leave.SubmitLeaveRequest{LeaveType: "annual", StartDate: "2025-03-03", EndDate: "2025-03-03"})
		assert.ErrorIs(t, err, apperror.ErrUnauthorized)
	})

	t.Run("validation", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		employee := active(rbac.RoleStaff)
		cases := []struct {
			name string
			req  leave.SubmitLeaveRequest
			want error
		}{
			{"bad date", leave.SubmitLeaveRequest{LeaveType: "annual", StartDate: "03/03/2025", EndDate: "2025-03-03"}, leaveerrors.ErrInvalidDateFormat},
			{"reversed range", leave.SubmitLeaveRequest{LeaveType: "annual", StartDate: "2025-03-05", EndDate: "2025-03-03"}, leaveerrors.ErrInvalidDateRange},
			{"crosses year", leave.SubmitLeaveRequest{LeaveType: "annual", StartDate: "2025-12-30", EndDate: "2026-01-02"}, leaveerrors.ErrCrossYearRange},
			{"half day range", leave.SubmitLeaveRequest{LeaveType: "annual", StartDate: "2025-03-03", EndDate: "2025-03-04", HalfDay: true}, leaveerrors.ErrHalfDayRange},
			{"staff approver", leave.SubmitLeaveRequest{LeaveType: "annual", StartDate: "2025-03-03", EndDate: "2025-03-03", Approvers: map[string]string{"staff": uuid.NewString()}}, leaveerrors.ErrInvalidApprover},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				_, err := deps.service.Submit(ctx, employee, tc.req)
				assert.ErrorIs(t, err, tc.want)
			})
		}
	})
}

func submitFiveDays(t *testing.T, deps *leaveServiceDeps, employee rbac.Actor, approvers map[string]string) leave.LeaveResponse {
	t.Helper()
	expectTx(t, deps.sqlMock, true)
	resp, err := deps.service.Submit(context.Background(), employee, leave.SubmitLeaveRequest{
		LeaveType: "annual",
		StartDate: "2025-03-03",
		EndDate:   "2025-03-07",
		Approvers: approvers,
	})
	require.NoError(t, err)
	return resp
}

func TestLeaveService_ApproveStep(t *testing.T) {
	ctx := context.Background()

	t.Run("second approval is already terminal and posts nothing", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		deps.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(nil).Times(2)
		employee := active(rbac.RoleStaff)
		employeeID := uuid.MustParse(employee.ID)
		manager := active(rbac.RoleManager)
		seedBalance(t, deps.balances, employeeID, 20, 0)
		submitted := submitFiveDays(t, deps, employee, nil)

		expectTx(t, deps.sqlMock, true)
		_, err := deps.service.ApproveStep(ctx, manager, submitted.ID, leave.DecisionRequest{Order: ptr(0)})
		require.NoError(t, err)
		txnsBefore := len(balanceOf(t, deps.balances, employeeID).Transactions)

		expectTx(t, deps.sqlMock, false)
		_, err = deps.service.ApproveStep(ctx, manager, submitted.ID, leave.DecisionRequest{Order: ptr(0)})

		assert.ErrorIs(t, err, leaveerrors.ErrAlreadyTerminal)
		assert.True(t, apperror.IsCode(err, apperror.CodeAlreadyTerminal))
		b := balanceOf(t, deps.balances, employeeID)
		assert.Len(t, b.Transactions, txnsBefore)
		assertDays(t, 5, b.Used, "used")
	})

	t.Run("lower step still pending", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		deps.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(nil)
		employee := active(rbac.RoleStaff)
		seedBalance(t, deps.balances, uuid.MustParse(employee.ID), 30, 0)

		expectTx(t, deps.sqlMock, true)
		submitted, err := deps.service.Submit(ctx, employee, leave.SubmitLeaveRequest{
			LeaveType: "annual", StartDate: "2025-03-01", EndDate: "2025-03-20",
		})
		require.NoError(t, err)
		require.Len(t, submitted.ApprovalWorkflow, 2)

		expectTx(t, deps.sqlMock, false)
		_, err = deps.service.ApproveStep(ctx, active(rbac.RoleDepartmentHead), submitted.ID, leave.DecisionRequest{Order: ptr(1)})
		assert.ErrorIs(t, err, leaveerrors.ErrOutOfOrder)
	})

	t.Run("wrong role for step", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		deps.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(nil)
		employee := active(rbac.RoleStaff)
		seedBalance(t, deps.balances, uuid.MustParse(employee.ID), 20, 0)
		submitted := submitFiveDays(t, deps, employee, nil)

		expectTx(t, deps.sqlMock, false)
		_, err := deps.service.ApproveStep(ctx, active(rbac.RoleDepartmentHead), submitted.ID, leave.DecisionRequest{Order: ptr(0)})
		assert.ErrorIs(t, err, leaveerrors.ErrInvalidActor)
	})

	t.Run("step pinned to another manager", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		deps.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(nil)
		employee := active(rbac.RoleStaff)
		seedBalance(t, deps.balances, uuid.MustParse(employee.ID), 20, 0)
		submitted := submitFiveDays(t, deps, employee, map[string]string{"manager": uuid.NewString()})

		expectTx(t, deps.sqlMock, false)
		_, err := deps.service.ApproveStep(ctx, active(rbac.RoleManager), submitted.ID, leave.DecisionRequest{Order: ptr(0)})
		assert.ErrorIs(t, err, leaveerrors.ErrInvalidActor)
	})

	t.Run("pinned ref in upper case matches the approver", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		deps.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(nil).Times(2)
		employee := active(rbac.RoleStaff)
		manager := active(rbac.RoleManager)
		seedBalance(t, deps.balances, uuid.MustParse(employee.ID), 20, 0)
		submitted := submitFiveDays(t, deps, employee, map[string]string{"manager": strings.ToUpper(manager.ID)})
		require.Equal(t, manager.ID, submitted.ApprovalWorkflow[0].ApproverRef)

		expectTx(t, deps.sqlMock, true)
		resp, err := deps.service.ApproveStep(ctx, manager, submitted.ID, leave.DecisionRequest{Order: ptr(0)})

		require.NoError(t, err)
		assert.Equal(t, "approved", resp.Status)
	})

	t.Run("own request", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		deps.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(nil)
		manager := active(rbac.RoleManager)
		seedBalance(t, deps.balances, uuid.MustParse(manager.ID), 20, 0)
		submitted := submitFiveDays(t, deps, manager, nil)

		expectTx(t, deps.sqlMock, false)
		_, err := deps.service.ApproveStep(ctx, manager, submitted.ID, leave.DecisionRequest{Order: ptr(0)})
		assert.ErrorIs(t, err, leaveerrors.ErrSelfApproval)
	})

	t.Run("staff cannot decide", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		_, err := deps.service.ApproveStep(ctx, active(rbac.RoleStaff), uuid.NewString(), leave.DecisionRequest{Order: ptr(0)})
		assert.ErrorIs(t, err, apperror.ErrUnauthorized)
	})

	t.Run("unknown request", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		expectTx(t, deps.sqlMock, false)
		_, err := deps.service.ApproveStep(ctx, active(rbac.RoleManager), uuid.NewString(), leave.DecisionRequest{Order: ptr(0)})
		assert.ErrorIs(t, err, leaveerrors.ErrLeaveNotFound)
	})

	t.Run("unknown step", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		deps.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(nil)
		employee := active(rbac.RoleStaff)
		seedBalance(t, deps.balances, uuid.MustParse(employee.ID), 20, 0)
		submitted := submitFiveDays(t, deps, employee, nil)

		expectTx(t, deps.sqlMock, false)
		_, err := deps.service.ApproveStep(ctx, active(rbac.RoleManager), submitted.ID, leave.DecisionRequest{Order: ptr(4)})
		assert.ErrorIs(t, err, leaveerrors.ErrStepNotFound)
	})
}

func TestLeaveService_Cancel(t *testing.T) {
	ctx := context.Background()

	t.Run("reverses only the pending debit", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		deps.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
		employee := active(rbac.RoleStaff)
		employeeID := uuid.MustParse(employee.ID)
		seedBalance(t, deps.balances, employeeID, 20, 0)

		first := submitFiveDays(t, deps, employee, nil)
		expectTx(t, deps.sqlMock, true)
		_, err := deps.service.ApproveStep(ctx, active(rbac.RoleManager), first.ID, leave.DecisionRequest{Order: ptr(0)})
		require.NoError(t, err)

		expectTx(t, deps.sqlMock, true)
		second, err := deps.service.Submit(ctx, employee, leave.SubmitLeaveRequest{
			LeaveType: "annual", StartDate: "2025-04-01", EndDate: "2025-04-03",
		})
		require.NoError(t, err)
		assertDays(t, 3, balanceOf(t, deps.balances, employeeID).Pending, "pending before cancel")

		expectTx(t, deps.sqlMock, true)
		cancelled, err := deps.service.Cancel(ctx, employee, second.ID)
		require.NoError(t, err)
		assert.Equal(t, "cancelled", cancelled.Status)
		assert.False(t, cancelled.IsActive)
		require.NotNil(t, cancelled.CancelledBy)
		assert.Equal(t, employee.ID, *cancelled.CancelledBy)

		b := balanceOf(t, deps.balances, employeeID)
		assertDays(t, 0, b.Pending, "pending")
		assertDays(t, 5, b.Used, "used")
		assertDays(t, 15, b.Remaining, "remaining")
	})

	t.Run("approved request cannot be cancelled", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		deps.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
		employee := active(rbac.RoleStaff)
		seedBalance(t, deps.balances, uuid.MustParse(employee.ID), 20, 0)
		submitted := submitFiveDays(t, deps, employee, nil)

		expectTx(t, deps.sqlMock, true)
		_, err := deps.service.ApproveStep(ctx, active(rbac.RoleManager), submitted.ID, leave.DecisionRequest{Order: ptr(0)})
		require.NoError(t, err)

		expectTx(t, deps.sqlMock, false)
		_, err = deps.service.Cancel(ctx, employee, submitted.ID)
		assert.ErrorIs(t, err, leaveerrors.ErrAlreadyTerminal)
	})

	t.Run("other staff cannot cancel", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		deps.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(nil)
		employee := active(rbac.RoleStaff)
		seedBalance(t, deps.balances, uuid.MustParse(employee.ID), 20, 0)
		submitted := submitFiveDays(t, deps, employee, nil)

		expectTx(t, deps.sqlMock, false)
		_, err := deps.service.Cancel(ctx, active(rbac.RoleStaff), submitted.ID)
		assert.ErrorIs(t, err, apperror.ErrUnauthorized)
	})

	t.Run("manager with leave.manage may cancel", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		deps.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(nil).Times(2)
		employee := active(rbac.RoleStaff)
		seedBalance(t, deps.balances, uuid.MustParse(employee.ID), 20, 0)
		submitted := submitFiveDays(t, deps, employee, nil)

		expectTx(t, deps.sqlMock, true)
		resp, err := deps.service.Cancel(ctx, active(rbac.RoleManager), submitted.ID)
		require.NoError(t, err)
		assert.Equal(t, "cancelled", resp.Status)
	})
}

func TestLeaveService_VersionConflictRetry(t *testing.T) {
	ctx := context.Background()

	t.Run("retries the whole unit", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		deps.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(nil).Times(2)
		employee := active(rbac.RoleStaff)
		employeeID := uuid.MustParse(employee.ID)
		seedBalance(t, deps.balances, employeeID, 20, 0)
		submitted := submitFiveDays(t, deps, employee, nil)

		deps.leaves.saveErr = func(attempt int) error {
			if attempt == 1 {
				return apperror.ErrVersionConflict
			}
			return nil
		}
		expectTx(t, deps.sqlMock, false)
		expectTx(t, deps.sqlMock, true)

		resp, err := deps.service.ApproveStep(ctx, active(rbac.RoleManager), submitted.ID, leave.DecisionRequest{Order: ptr(0)})
		require.NoError(t, err)
		assert.Equal(t, "approved", resp.Status)
		assertDays(t, 5, balanceOf(t, deps.balances, employeeID).Used, "used")
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("surfaces conflict once attempts run out", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		deps.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(nil)
		employee := active(rbac.RoleStaff)
		employeeID := uuid.MustParse(employee.ID)
		seedBalance(t, deps.balances, employeeID, 20, 0)
		submitted := submitFiveDays(t, deps, employee, nil)

		deps.leaves.saveErr = func(int) error { return apperror.ErrVersionConflict }
		for i := 0; i < 3; i++ {
			expectTx(t, deps.sqlMock, false)
		}

		_, err := deps.service.ApproveStep(ctx, active(rbac.RoleManager), submitted.ID, leave.DecisionRequest{Order: ptr(0)})
		assert.True(t, apperror.IsCode(err, apperror.CodeConflict))
		assertDays(t, 5, balanceOf(t, deps.balances, employeeID).Pending, "pending")
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})
}

func TestLeaveService_NotificationFailureKeepsTransition(t *testing.T) {
	deps := setupLeaveServiceTest(t)
	deps.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(errors.New("outbox down"))
	employee := active(rbac.RoleStaff)
	employeeID := uuid.MustParse(employee.ID)
	seedBalance(t, deps.balances, employeeID, 20, 0)

	resp := submitFiveDays(t, deps, employee, nil)

	assert.Equal(t, "pending", resp.Status)
	assertDays(t, 5, balanceOf(t, deps.balances, employeeID).Pending, "pending")
}

func TestLeaveService_Deactivate(t *testing.T) {
	ctx := context.Background()
	deps := setupLeaveServiceTest(t)
	deps.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	employee := active(rbac.RoleStaff)
	seedBalance(t, deps.balances, uuid.MustParse(employee.ID), 20, 0)
	submitted := submitFiveDays(t, deps, employee, nil)
	manager := active(rbac.RoleManager)

	expectTx(t, deps.sqlMock, false)
	_, err := deps.service.Deactivate(ctx, manager, submitted.ID)
	assert.ErrorIs(t, err, leaveerrors.ErrStillPending)

	expectTx(t, deps.sqlMock, true)
	_, err = deps.service.RejectStep(ctx, manager, submitted.ID, leave.DecisionRequest{Order: ptr(0)})
	require.NoError(t, err)

	expectTx(t, deps.sqlMock, true)
	resp, err := deps.service.Deactivate(ctx, manager, submitted.ID)
	require.NoError(t, err)
	assert.False(t, resp.IsActive)
	assert.Equal(t, "rejected", resp.Status)

	_, err = deps.service.Deactivate(ctx, employee, submitted.ID)
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
}

func TestLeaveService_GetByID(t *testing.T) {
	ctx := context.Background()
	deps := setupLeaveServiceTest(t)
	deps.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(nil)
	employee := active(rbac.RoleStaff)
	seedBalance(t, deps.balances, uuid.MustParse(employee.ID), 20, 0)
	submitted := submitFiveDays(t, deps, employee, nil)

	t.Run("owner", func(t *testing.T) {
		resp, err := deps.service.GetByID(ctx, employee, submitted.ID)
		require.NoError(t, err)
		assert.Equal(t, submitted.ID, resp.ID)
	})

	t.Run("approver role on chain", func(t *testing.T) {
		_, err := deps.service.GetByID(ctx, active(rbac.RoleManager), submitted.ID)
		assert.NoError(t, err)
	})

	t.Run("unrelated staff", func(t *testing.T) {
		_, err := deps.service.GetByID(ctx, active(rbac.RoleStaff), submitted.ID)
		assert.ErrorIs(t, err, apperror.ErrUnauthorized)
	})

	t.Run("bad id", func(t *testing.T) {
		_, err := deps.service.GetByID(ctx, employee, "nope")
		assert.ErrorIs(t, err, leaveerrors.ErrInvalidLeaveID)
	})
}

func TestLeaveService_ListScopesStaffToOwnRequests(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	repo := leaveMock.NewMockRepository(ctrl)
	svc := leave.NewService(nil, repo, ledgertest.NewMemoryRepository(), nil, zap.NewNop())

	staff := active(rbac.RoleStaff)
	repo.EXPECT().
		List(gomock.Any(), leave.ListFilter{EmployeeID: staff.ID, Page: 1, Limit: 20}).
		Return([]leave.LeaveRequest{}, int64(0), nil)

	resp, total, err := svc.List(ctx, staff, leave.ListLeaveRequest{})
	require.NoError(t, err)
	assert.Empty(t, resp)
	assert.Zero(t, total)

	_, _, err = svc.List(ctx, staff, leave.ListLeaveRequest{EmployeeID: uuid.NewString(), Page: 1, Limit: 20})
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
}
