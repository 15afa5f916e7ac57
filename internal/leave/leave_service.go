package leave

import (
	"context"
	"errors"
	"strings"
	"time"

	"go-opsportal/internal/events"
	leaveerrors "go-opsportal/internal/leave/errors"
	"go-opsportal/internal/ledger"
	"go-opsportal/internal/notification"
	"go-opsportal/internal/rbac"
	"go-opsportal/internal/shared/apperror"
	"go-opsportal/internal/shared/txretry"
	"go-opsportal/internal/workflow"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

// approverRoles may decide a leave step at all; the chain narrows it further.
var approverRoles = []rbac.Role{rbac.RoleManager, rbac.RoleDepartmentHead, rbac.RoleAdmin}

//go:generate mockgen -source=leave_service.go -destination=mock/leave_service_mock.go -package=mock
type Service interface {
	Submit(ctx context.Context, actor rbac.Actor, req SubmitLeaveRequest) (LeaveResponse, error)
	ApproveStep(ctx context.Context, actor rbac.Actor, id string, req DecisionRequest) (LeaveResponse, error)
	RejectStep(ctx context.Context, actor rbac.Actor, id string, req DecisionRequest) (LeaveResponse, error)
	Cancel(ctx context.Context, actor rbac.Actor, id string) (LeaveResponse, error)
	Deactivate(ctx context.Context, actor rbac.Actor, id string) (LeaveResponse, error)
	GetByID(ctx context.Context, actor rbac.Actor, id string) (LeaveResponse, error)
	List(ctx context.Context, actor rbac.Actor, req ListLeaveRequest) ([]LeaveResponse, int64, error)
}

type service struct {
	db          *gorm.DB
	repo        Repository
	balances    ledger.Repository
	notifier    notification.Notifier
	policy      workflow.Policy
	maxAttempts int
	now         func() time.Time
	logger      *zap.Logger
}

type Option func(*service)

func WithPolicy(p workflow.Policy) Option {
	return func(s *service) { s.policy = p }
}

func WithMaxAttempts(n int) Option {
	return func(s *service) { s.maxAttempts = n }
}

func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

func NewService(
	db *gorm.DB,
	repo Repository,
	balances ledger.Repository,
	notifier notification.Notifier,
	logger *zap.Logger,
	opts ...Option,
) Service {
	l := zap.L().Named("leave.service")
	if logger != nil {
		l = logger.Named("leave.service")
	}
	if notifier == nil {
		notifier = notification.NewNop()
	}
	s := &service{
		db:          db,
		repo:        repo,
		balances:    balances,
		notifier:    notifier,
		policy:      workflow.DefaultPolicy(),
		maxAttempts: txretry.DefaultAttempts,
		now:         time.Now,
		logger:      l,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Submit(ctx context.Context, actor rbac.Actor, req SubmitLeaveRequest) (LeaveResponse, error) {
	s.logger.Debug("submit leave requested",
		zap.String("actor_id", actor.ID),
		zap.String("employee_id", req.EmployeeID),
		zap.String("leave_type", req.LeaveType),
		zap.String("start_date", req.StartDate),
		zap.String("end_date", req.EndDate),
	)

	if !rbac.EffectivePermission(actor, rbac.LeaveCreate) {
		return LeaveResponse{}, apperror.ErrUnauthorized
	}
	employeeID := actor.ID
	if req.EmployeeID != "" {
		id, err := uuid.Parse(strings.TrimSpace(req.EmployeeID))
		if err != nil {
			return LeaveResponse{}, leaveerrors.ErrInvalidEmployeeID
		}
		if id.String() != actor.ID {
			if !rbac.HasAnyPermission(actor, rbac.LeaveManage) {
				return LeaveResponse{}, apperror.ErrUnauthorized
			}
			employeeID = id.String()
		}
	}

	in, err := validateSubmitRequest(employeeID, actor.ID, req)
	if err != nil {
		s.logger.Warn("submit leave validation failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	chain, err := workflow.Build(in.days, s.policy, in.approvers)
	if err != nil {
		return LeaveResponse{}, mapWorkflowError(err)
	}

	var created LeaveRequest
	err = txretry.Run(ctx, s.db, s.maxAttempts, s.logger, func(tx *gorm.DB) error {
		qtx := s.repo.WithTx(tx)
		btx := s.balances.WithTx(tx)

		overlap, err := qtx.HasOverlappingPeriod(ctx, employeeID, in.start, in.end)
		if err != nil {
			return err
		}
		if overlap {
			return leaveerrors.ErrLeaveOverlap
		}

		l := LeaveRequest{
			ID:               uuid.New(),
			EmployeeID:       in.employeeID,
			LeaveType:        in.leaveType,
			StartDate:        in.start,
			EndDate:          in.end,
			TotalDays:        in.days,
			Reason:           req.Reason,
			ApprovalWorkflow: datatypes.JSONSlice[workflow.ApprovalStep](chain.Clone()),
			IsActive:         true,
			CreatedBy:        in.createdBy,
		}

		acct, err := ledger.Open(ctx, btx, l.EmployeeID, l.LeaveType, l.Year())
		if err != nil {
			return err
		}
		entry := s.entry(l.ID, "leave request submitted")
		if err := acct.Apply(func(b ledger.Balance) (ledger.Balance, error) {
			return ledger.Reserve(b, l.TotalDays, entry)
		}); err != nil {
			return ledger.MapError(err)
		}

		if err := qtx.Create(ctx, &l); err != nil {
			return err
		}
		if err := acct.Save(ctx, btx); err != nil {
			return err
		}
		created = l
		return nil
	})
	if err != nil {
		s.logger.Warn("submit leave failed",
			zap.String("employee_id", employeeID),
			zap.String("leave_type", in.leaveType),
			zap.Error(err),
		)
		return LeaveResponse{}, err
	}

	s.logger.Info("submit leave success",
		zap.String("leave_id", created.ID.String()),
		zap.String("employee_id", employeeID),
		zap.String("total_days", created.TotalDays.String()),
		zap.Int("steps", len(created.ApprovalWorkflow)),
	)
	s.notify(ctx, events.LeaveSubmitted, actor, created)
	return mapToResponse(created), nil
}

func (s *service) ApproveStep(ctx context.Context, actor rbac.Actor, id string, req DecisionRequest) (LeaveResponse, error) {
	return s.decide(ctx, actor, id, req, workflow.Approve)
}

func (s *service) RejectStep(ctx context.Context, actor rbac.Actor, id string, req DecisionRequest) (LeaveResponse, error) {
	return s.decide(ctx, actor, id, req, workflow.Reject)
}

// decide applies one approval decision and, when it closes the chain, the
// matching ledger posting. Both land in the same transaction.
func (s *service) decide(ctx context.Context, actor rbac.Actor, id string, req DecisionRequest, decision workflow.Decision) (LeaveResponse, error) {
	s.logger.Debug("leave decision requested",
		zap.String("leave_id", id),
		zap.String("actor_id", actor.ID),
		zap.String("decision", string(decision)),
	)

	if !rbac.CanAuthorize(actor, approverRoles, rbac.LeaveApprove) {
		return LeaveResponse{}, apperror.ErrUnauthorized
	}
	if _, err := uuid.Parse(id); err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidLeaveID
	}
	if req.Order == nil {
		return LeaveResponse{}, apperror.RequiredField("Order")
	}
	order := *req.Order

	var (
		result  LeaveRequest
		outcome workflow.Outcome
	)
	err := txretry.Run(ctx, s.db, s.maxAttempts, s.logger, func(tx *gorm.DB) error {
		qtx := s.repo.WithTx(tx)
		btx := s.balances.WithTx(tx)

		l, err := s.load(ctx, qtx, id)
		if err != nil {
			return err
		}
		if l.Status().IsTerminal() {
			return leaveerrors.ErrAlreadyTerminal
		}
		if l.EmployeeID.String() == actor.ID && !actor.IsAdmin() {
			return leaveerrors.ErrSelfApproval
		}

		out, err := workflow.Transition(l.Chain(), order, actor, decision, req.Comments, s.now())
		if err != nil {
			return mapWorkflowError(err)
		}

		var acct *ledger.Account
		if out.Final {
			acct, err = ledger.Open(ctx, btx, l.EmployeeID, l.LeaveType, l.Year())
			if err != nil {
				return err
			}
			post := ledger.Consume
			description := "leave request approved"
			if out.Status == workflow.StatusRejected {
				post = ledger.Release
				description = "leave request rejected"
			}
			entry := s.entry(l.ID, description)
			if err := acct.Apply(func(b ledger.Balance) (ledger.Balance, error) {
				return post(b, l.TotalDays, entry)
			}); err != nil {
				return ledger.MapError(err)
			}
		}

		l.ApprovalWorkflow = datatypes.JSONSlice[workflow.ApprovalStep](out.Chain)
		if err := qtx.Save(ctx, l, l.Version); err != nil {
			return err
		}
		if acct != nil {
			if err := acct.Save(ctx, btx); err != nil {
				return err
			}
		}

		result = *l
		outcome = out
		return nil
	})
	if err != nil {
		s.logger.Warn("leave decision failed",
			zap.String("leave_id", id),
			zap.String("decision", string(decision)),
			zap.Int("order", order),
			zap.Error(err),
		)
		return LeaveResponse{}, err
	}

	s.logger.Info("leave decision success",
		zap.String("leave_id", id),
		zap.String("decision", string(decision)),
		zap.Int("order", order),
		zap.String("status", string(outcome.Status)),
	)

	eventType := events.LeaveStepApproved
	switch outcome.Status {
	case workflow.StatusApproved:
		eventType = events.LeaveApproved
	case workflow.StatusRejected:
		eventType = events.LeaveRejected
	}
	s.notify(ctx, eventType, actor, result)
	return mapToResponse(result), nil
}

func (s *service) Cancel(ctx context.Context, actor rbac.Actor, id string) (LeaveResponse, error) {
	s.logger.Debug("cancel leave requested",
		zap.String("leave_id", id),
		zap.String("actor_id", actor.ID),
	)

	if _, err := uuid.Parse(id); err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidLeaveID
	}
	actorUUID, err := uuid.Parse(actor.ID)
	if err != nil {
		return LeaveResponse{}, apperror.ErrUnauthorized
	}

	var result LeaveRequest
	err = txretry.Run(ctx, s.db, s.maxAttempts, s.logger, func(tx *gorm.DB) error {
		qtx := s.repo.WithTx(tx)
		btx := s.balances.WithTx(tx)

		l, err := s.load(ctx, qtx, id)
		if err != nil {
			return err
		}
		if !canCancel(actor, *l) {
			return apperror.ErrUnauthorized
		}
		if l.Status() != workflow.StatusPending {
			return leaveerrors.ErrAlreadyTerminal
		}

		acct, err := ledger.Open(ctx, btx, l.EmployeeID, l.LeaveType, l.Year())
		if err != nil {
			return err
		}
		entry := s.entry(l.ID, "leave request cancelled")
		if err := acct.Apply(func(b ledger.Balance) (ledger.Balance, error) {
			return ledger.Release(b, l.TotalDays, entry)
		}); err != nil {
			return ledger.MapError(err)
		}

		now := s.now().UTC()
		l.Cancelled = true
		l.IsActive = false
		l.CancelledBy = &actorUUID
		l.CancelledAt = &now

		if err := qtx.Save(ctx, l, l.Version); err != nil {
			return err
		}
		if err := acct.Save(ctx, btx); err != nil {
			return err
		}
		result = *l
		return nil
	})
	if err != nil {
		s.logger.Warn("cancel leave failed", zap.String("leave_id", id), zap.Error(err))
		return LeaveResponse{}, err
	}

	s.logger.Info("cancel leave success",
		zap.String("leave_id", id),
		zap.String("cancelled_by", actor.ID),
	)
	s.notify(ctx, events.LeaveCancelled, actor, result)
	return mapToResponse(result), nil
}

// Deactivate hides a closed request from default listings. The ledger is
// not touched.
func (s *service) Deactivate(ctx context.Context, actor rbac.Actor, id string) (LeaveResponse, error) {
	if !rbac.HasAnyPermission(actor, rbac.LeaveManage) {
		return LeaveResponse{}, apperror.ErrUnauthorized
	}
	if _, err := uuid.Parse(id); err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidLeaveID
	}

	var result LeaveRequest
	err := txretry.Run(ctx, s.db, s.maxAttempts, s.logger, func(tx *gorm.DB) error {
		qtx := s.repo.WithTx(tx)

		l, err := s.load(ctx, qtx, id)
		if err != nil {
			return err
		}
		if !l.Status().IsTerminal() {
			return leaveerrors.ErrStillPending
		}
		if l.IsActive {
			l.IsActive = false
			if err := qtx.Save(ctx, l, l.Version); err != nil {
				return err
			}
		}
		result = *l
		return nil
	})
	if err != nil {
		s.logger.Warn("deactivate leave failed", zap.String("leave_id", id), zap.Error(err))
		return LeaveResponse{}, err
	}

	s.logger.Info("deactivate leave success", zap.String("leave_id", id), zap.String("actor_id", actor.ID))
	return mapToResponse(result), nil
}

func (s *service) GetByID(ctx context.Context, actor rbac.Actor, id string) (LeaveResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidLeaveID
	}
	l, err := s.load(ctx, s.repo, id)
	if err != nil {
		return LeaveResponse{}, err
	}
	if !canView(actor, *l) {
		return LeaveResponse{}, apperror.ErrUnauthorized
	}
	return mapToResponse(*l), nil
}

func (s *service) List(ctx context.Context, actor rbac.Actor, req ListLeaveRequest) ([]LeaveResponse, int64, error) {
	filter := ListFilter{
		EmployeeID:      req.EmployeeID,
		IncludeInactive: req.IncludeInactive,
		Page:            req.Page,
		Limit:           req.Limit,
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 20
	}

	manager := rbac.HasAnyPermission(actor, rbac.LeaveManage)
	switch {
	case filter.EmployeeID == "" && !manager:
		filter.EmployeeID = actor.ID
	case filter.EmployeeID != "" && filter.EmployeeID != actor.ID && !manager:
		return nil, 0, apperror.ErrUnauthorized
	}
	if filter.EmployeeID == actor.ID && !manager && !rbac.EffectivePermission(actor, rbac.LeaveView) {
		return nil, 0, apperror.ErrUnauthorized
	}

	leaves, total, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("list leaves failed", zap.Error(err))
		return nil, 0, err
	}
	return mapToListResponse(leaves), total, nil
}

func (s *service) load(ctx context.Context, repo Repository, id string) (*LeaveRequest, error) {
	l, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, leaveerrors.ErrLeaveNotFound
		}
		return nil, err
	}
	return l, nil
}

func (s *service) entry(leaveID uuid.UUID, description string) ledger.Entry {
	id := leaveID
	return ledger.Entry{Date: s.now(), Description: description, LeaveRequestID: &id}
}

func (s *service) notify(ctx context.Context, eventType string, actor rbac.Actor, l LeaveRequest) {
	recipients := []string{l.EmployeeID.String()}
	if step, ok := l.Chain().Current(); ok && step.ApproverRef != "" {
		recipients = append(recipients, step.ApproverRef)
	}

	notification.Dispatch(ctx, s.notifier, s.logger, notification.Event{
		Type:          eventType,
		AggregateType: events.AggregateLeave,
		AggregateID:   l.ID.String(),
		ActorID:       actor.ID,
		Recipients:    recipients,
		Status:        string(l.Status()),
		Attributes: map[string]string{
			"leave_type": l.LeaveType,
			"start_date": l.StartDate.Format(dateLayout),
			"end_date":   l.EndDate.Format(dateLayout),
			"total_days": l.TotalDays.StringFixed(2),
		},
		OccurredAt: s.now(),
	})
}

func canCancel(actor rbac.Actor, l LeaveRequest) bool {
	if !actor.IsActive() {
		return false
	}
	return actor.ID == l.EmployeeID.String() || rbac.HasAnyPermission(actor, rbac.LeaveManage)
}

func canView(actor rbac.Actor, l LeaveRequest) bool {
	if !actor.IsActive() {
		return false
	}
	if rbac.HasAnyPermission(actor, rbac.LeaveManage) {
		return true
	}
	if actor.ID == l.EmployeeID.String() {
		return rbac.EffectivePermission(actor, rbac.LeaveView)
	}
	return rbac.EffectivePermission(actor, rbac.LeaveApprove) && l.IsApprover(actor.ID, string(actor.Role))
}

type submitInput struct {
	employeeID uuid.UUID
	createdBy  uuid.UUID
	leaveType  string
	start      time.Time
	end        time.Time
	days       decimal.Decimal
	approvers  map[rbac.Role]string
}

func validateSubmitRequest(employeeID, actorID string, req SubmitLeaveRequest) (submitInput, error) {
	var in submitInput
	var err error

	if in.employeeID, err = uuid.Parse(employeeID); err != nil {
		return in, leaveerrors.ErrInvalidEmployeeID
	}
	if in.createdBy, err = uuid.Parse(actorID); err != nil {
		return in, apperror.ErrUnauthorized
	}
	in.leaveType = strings.TrimSpace(req.LeaveType)
	if in.leaveType == "" {
		return in, apperror.RequiredField("Leave Type")
	}

	if in.start, err = parseDate(req.StartDate); err != nil {
		return in, err
	}
	if in.end, err = parseDate(req.EndDate); err != nil {
		return in, err
	}
	if in.start.After(in.end) {
		return in, leaveerrors.ErrInvalidDateRange
	}
	if in.start.Year() != in.end.Year() {
		return in, leaveerrors.ErrCrossYearRange
	}
	if req.HalfDay && !in.start.Equal(in.end) {
		return in, leaveerrors.ErrHalfDayRange
	}
	in.days = countDays(in.start, in.end, req.HalfDay)

	in.approvers = make(map[rbac.Role]string, len(req.Approvers))
	for role, ref := range req.Approvers {
		r := rbac.Role(role)
		if !r.IsValid() || r == rbac.RoleStaff {
			return in, leaveerrors.ErrInvalidApprover
		}
		id, err := uuid.Parse(strings.TrimSpace(ref))
		if err != nil {
			return in, leaveerrors.ErrInvalidApprover
		}
		in.approvers[r] = id.String()
	}
	return in, nil
}

// countDays counts calendar days, both ends included.
func countDays(start, end time.Time, halfDay bool) decimal.Decimal {
	if halfDay {
		return decimal.NewFromFloat(0.5)
	}
	days := int64(end.Sub(start).Hours()/24) + 1
	return decimal.NewFromInt(days)
}

func parseDate(v string) (time.Time, error) {
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		return time.Time{}, leaveerrors.ErrInvalidDateFormat
	}
	return t, nil
}

func mapToResponse(l LeaveRequest) LeaveResponse {
	steps := make([]ApprovalStepResponse, 0, len(l.ApprovalWorkflow))
	for _, st := range l.ApprovalWorkflow {
		sr := ApprovalStepResponse{
			Order:        st.Order,
			ApproverRole: string(st.ApproverRole),
			ApproverRef:  st.ApproverRef,
			Status:       string(st.Status),
			Comments:     st.Comments,
		}
		if st.ActionDate != nil {
			v := st.ActionDate.Format(time.RFC3339)
			sr.ActionDate = &v
		}
		steps = append(steps, sr)
	}

	resp := LeaveResponse{
		ID:               l.ID.String(),
		EmployeeID:       l.EmployeeID.String(),
		LeaveType:        l.LeaveType,
		StartDate:        l.StartDate.Format(dateLayout),
		EndDate:          l.EndDate.Format(dateLayout),
		TotalDays:        l.TotalDays.StringFixed(2),
		Reason:           l.Reason,
		Status:           string(l.Status()),
		ApprovalWorkflow: steps,
		IsActive:         l.IsActive,
		CreatedBy:        l.CreatedBy.String(),
		Version:          l.Version,
	}
	if l.CancelledBy != nil {
		v := l.CancelledBy.String()
		resp.CancelledBy = &v
	}
	if l.CancelledAt != nil {
		v := l.CancelledAt.Format(time.RFC3339)
		resp.CancelledAt = &v
	}
	return resp
}

func mapToListResponse(leaves []LeaveRequest) []LeaveResponse {
	resp := make([]LeaveResponse, len(leaves))
	for i, l := range leaves {
		resp[i] = mapToResponse(l)
	}
	return resp
}
