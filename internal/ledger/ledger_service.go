package ledger

import (
	"context"
	"errors"
	"strings"
	"time"

	ledgererrors "go-opsportal/internal/ledger/errors"
	"go-opsportal/internal/rbac"
	"go-opsportal/internal/shared/apperror"
	"go-opsportal/internal/shared/txretry"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:generate mockgen -source=ledger_service.go -destination=mock/ledger_service_mock.go -package=mock
type Service interface {
	Allocate(ctx context.Context, actor rbac.Actor, req PostRequest) (BalanceResponse, error)
	CarryForward(ctx context.Context, actor rbac.Actor, req PostRequest) (BalanceResponse, error)
	Adjust(ctx context.Context, actor rbac.Actor, req AdjustRequest) (BalanceResponse, error)
	GetBalance(ctx context.Context, actor rbac.Actor, employeeID, leaveType string, year int) (BalanceResponse, error)
	ListBalances(ctx context.Context, actor rbac.Actor, employeeID string, year int) ([]BalanceResponse, error)
}

type service struct {
	db          *gorm.DB
	repo        Repository
	maxAttempts int
	now         func() time.Time
	logger      *zap.Logger
}

type Option func(*service)

func WithMaxAttempts(n int) Option {
	return func(s *service) { s.maxAttempts = n }
}

func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

func NewService(db *gorm.DB, repo Repository, logger *zap.Logger, opts ...Option) Service {
	l := zap.L().Named("ledger.service")
	if logger != nil {
		l = logger.Named("ledger.service")
	}
	s := &service{
		db:          db,
		repo:        repo,
		maxAttempts: txretry.DefaultAttempts,
		now:         time.Now,
		logger:      l,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type balanceKey struct {
	employeeID uuid.UUID
	leaveType  string
	year       int
}

func parseKey(employeeID, leaveType string, year int) (balanceKey, error) {
	id, err := uuid.Parse(employeeID)
	if err != nil {
		return balanceKey{}, ledgererrors.ErrInvalidEmployeeID
	}
	if year < 1900 || year > 9999 {
		return balanceKey{}, ledgererrors.ErrInvalidYear
	}
	lt := strings.TrimSpace(leaveType)
	if lt == "" {
		return balanceKey{}, apperror.RequiredField("Leave Type")
	}
	return balanceKey{employeeID: id, leaveType: lt, year: year}, nil
}

func (s *service) Allocate(ctx context.Context, actor rbac.Actor, req PostRequest) (BalanceResponse, error) {
	return s.post(ctx, actor, "allocate", req, Allocate)
}

func (s *service) CarryForward(ctx context.Context, actor rbac.Actor, req PostRequest) (BalanceResponse, error) {
	return s.post(ctx, actor, "carry_forward", req, CarryForward)
}

func (s *service) post(
	ctx context.Context,
	actor rbac.Actor,
	op string,
	req PostRequest,
	helper func(Balance, decimal.Decimal, Entry) (Balance, error),
) (BalanceResponse, error) {
	s.logger.Debug("ledger post requested",
		zap.String("op", op),
		zap.String("actor_id", actor.ID),
		zap.String("employee_id", req.EmployeeID),
		zap.String("leave_type", req.LeaveType),
		zap.Int("year", req.Year),
		zap.String("days", req.Days),
	)

	if !rbac.HasAnyPermission(actor, rbac.LeaveManage) {
		return BalanceResponse{}, apperror.ErrUnauthorized
	}
	key, err := parseKey(req.EmployeeID, req.LeaveType, req.Year)
	if err != nil {
		return BalanceResponse{}, err
	}
	days, err := ParseDays(req.Days)
	if err != nil {
		return BalanceResponse{}, err
	}

	entry := Entry{Date: s.now(), Description: req.Description}
	return s.apply(ctx, op, key, func(b Balance) (Balance, error) {
		return helper(b, days, entry)
	})
}

func (s *service) Adjust(ctx context.Context, actor rbac.Actor, req AdjustRequest) (BalanceResponse, error) {
	s.logger.Debug("ledger adjust requested",
		zap.String("actor_id", actor.ID),
		zap.String("employee_id", req.EmployeeID),
		zap.String("delta", req.Delta),
		zap.Bool("override", req.Override),
	)

	if !rbac.HasAnyPermission(actor, rbac.LeaveManage) {
		return BalanceResponse{}, apperror.ErrUnauthorized
	}
	if req.Override && !actor.IsAdmin() {
		return BalanceResponse{}, ledgererrors.ErrOverrideRequiresAdmin
	}
	key, err := parseKey(req.EmployeeID, req.LeaveType, req.Year)
	if err != nil {
		return BalanceResponse{}, err
	}
	delta, err := ParseDays(req.Delta)
	if err != nil {
		return BalanceResponse{}, err
	}

	entry := Entry{Date: s.now(), Description: req.Description}
	return s.apply(ctx, "adjust", key, func(b Balance) (Balance, error) {
		return Adjust(b, delta, req.Override, entry)
	})
}

func (s *service) apply(ctx context.Context, op string, key balanceKey, post func(Balance) (Balance, error)) (BalanceResponse, error) {
	var result Balance
	err := txretry.Run(ctx, s.db, s.maxAttempts, s.logger, func(tx *gorm.DB) error {
		qtx := s.repo.WithTx(tx)

		acct, err := Open(ctx, qtx, key.employeeID, key.leaveType, key.year)
		if err != nil {
			return err
		}
		if err := acct.Apply(post); err != nil {
			return MapError(err)
		}
		if err := acct.Save(ctx, qtx); err != nil {
			return err
		}
		result = acct.Balance
		return nil
	})
	if err != nil {
		s.logger.Warn("ledger post failed",
			zap.String("op", op),
			zap.String("employee_id", key.employeeID.String()),
			zap.String("leave_type", key.leaveType),
			zap.Int("year", key.year),
			zap.Error(err),
		)
		return BalanceResponse{}, err
	}

	s.logger.Info("ledger post success",
		zap.String("op", op),
		zap.String("balance_id", result.ID.String()),
		zap.String("remaining", result.Remaining.StringFixed(2)),
	)
	return MapToResponse(result), nil
}

func (s *service) GetBalance(ctx context.Context, actor rbac.Actor, employeeID, leaveType string, year int) (BalanceResponse, error) {
	if !canReadBalances(actor, employeeID) {
		return BalanceResponse{}, apperror.ErrUnauthorized
	}
	key, err := parseKey(employeeID, leaveType, year)
	if err != nil {
		return BalanceResponse{}, err
	}

	b, err := s.repo.FindBalance(ctx, key.employeeID, key.leaveType, key.year)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return BalanceResponse{}, ledgererrors.ErrBalanceNotFound
		}
		return BalanceResponse{}, err
	}
	return MapToResponse(*b), nil
}

func (s *service) ListBalances(ctx context.Context, actor rbac.Actor, employeeID string, year int) ([]BalanceResponse, error) {
	if !canReadBalances(actor, employeeID) {
		return nil, apperror.ErrUnauthorized
	}
	key, err := parseKey(employeeID, "-", year)
	if err != nil {
		return nil, err
	}

	balances, err := s.repo.ListBalances(ctx, key.employeeID, key.year)
	if err != nil {
		return nil, err
	}
	out := make([]BalanceResponse, 0, len(balances))
	for _, b := range balances {
		out = append(out, MapToResponse(b))
	}
	return out, nil
}

func canReadBalances(actor rbac.Actor, employeeID string) bool {
	if actor.IsActive() && actor.ID == employeeID {
		return rbac.EffectivePermission(actor, rbac.LeaveView)
	}
	return rbac.HasAnyPermission(actor, rbac.LeaveManage)
}
