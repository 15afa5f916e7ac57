package task

import (
	"context"
	"errors"
	"strings"
	"time"

	"go-opsportal/internal/events"
	"go-opsportal/internal/notification"
	"go-opsportal/internal/rbac"
	"go-opsportal/internal/shared/apperror"
	"go-opsportal/internal/shared/txretry"
	taskerrors "go-opsportal/internal/task/errors"
	"go-opsportal/internal/workflow"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

//go:generate mockgen -source=task_service.go -destination=mock/task_service_mock.go -package=mock
type Service interface {
	Create(ctx context.Context, actor rbac.Actor, req CreateTaskRequest) (TaskResponse, error)
	Resolve(ctx context.Context, actor rbac.Actor, id string, req ResolveTaskRequest) (TaskResponse, error)
	Delegate(ctx context.Context, actor rbac.Actor, id string, req DelegateTaskRequest) (TaskResponse, error)
	GetByID(ctx context.Context, actor rbac.Actor, id string) (TaskResponse, error)
	ListAssigned(ctx context.Context, actor rbac.Actor) ([]TaskResponse, error)
}

type service struct {
	db          *gorm.DB
	repo        Repository
	notifier    notification.Notifier
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

func NewService(db *gorm.DB, repo Repository, notifier notification.Notifier, logger *zap.Logger, opts ...Option) Service {
	l := zap.L().Named("task.service")
	if logger != nil {
		l = logger.Named("task.service")
	}
	if notifier == nil {
		notifier = notification.NewNop()
	}
	s := &service{
		db:          db,
		repo:        repo,
		notifier:    notifier,
		maxAttempts: txretry.DefaultAttempts,
		now:         time.Now,
		logger:      l,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Create(ctx context.Context, actor rbac.Actor, req CreateTaskRequest) (TaskResponse, error) {
	s.logger.Debug("create task requested",
		zap.String("actor_id", actor.ID),
		zap.Int("assignees", len(req.AssignedTo)),
		zap.Bool("approval_required", req.ApprovalRequired),
	)

	if !rbac.EffectivePermission(actor, rbac.TaskCreate) {
		return TaskResponse{}, apperror.ErrUnauthorized
	}
	createdBy, err := uuid.Parse(actor.ID)
	if err != nil {
		return TaskResponse{}, apperror.ErrUnauthorized
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return TaskResponse{}, apperror.RequiredField("Title")
	}
	assignees, err := normalizeRefs(req.AssignedTo)
	if err != nil {
		return TaskResponse{}, err
	}
	if len(assignees) == 0 {
		return TaskResponse{}, apperror.RequiredField("Assigned To")
	}
	// Assigning work to anyone but yourself is a delegation of authority.
	if !(len(assignees) == 1 && assignees[0] == actor.ID) && !rbac.EffectivePermission(actor, rbac.TaskAssign) {
		return TaskResponse{}, apperror.ErrUnauthorized
	}
	approvers, err := normalizeRefs(req.Approvers)
	if err != nil {
		return TaskResponse{}, err
	}
	if req.ApprovalRequired && len(approvers) == 0 {
		return TaskResponse{}, taskerrors.ErrApproversRequired
	}
	var due *time.Time
	if req.DueDate != "" {
		d, err := time.Parse(dateLayout, req.DueDate)
		if err != nil {
			return TaskResponse{}, taskerrors.ErrInvalidDueDate
		}
		due = &d
	}

	now := s.now().UTC()
	history := make([]AssignmentEntry, 0, len(assignees))
	for _, a := range assignees {
		history = append(history, AssignmentEntry{
			AssignedBy:      actor.ID,
			AssignedTo:      a,
			AssignmentLevel: AssignmentInitial,
			Timestamp:       now,
		})
	}

	t := Task{
		ID:                uuid.New(),
		Title:             title,
		Description:       req.Description,
		CreatedBy:         createdBy,
		DueDate:           due,
		AssignedTo:        datatypes.JSONSlice[string](assignees),
		ApprovalRequired:  req.ApprovalRequired,
		Approvers:         datatypes.JSONSlice[string](approvers),
		ApprovalHistory:   datatypes.JSONSlice[workflow.HistoryEntry]{},
		AssignmentHistory: datatypes.JSONSlice[AssignmentEntry](history),
	}
	if err := s.repo.Create(ctx, &t); err != nil {
		s.logger.Warn("create task failed", zap.String("actor_id", actor.ID), zap.Error(err))
		return TaskResponse{}, err
	}

	s.logger.Info("create task success",
		zap.String("task_id", t.ID.String()),
		zap.String("created_by", actor.ID),
		zap.Strings("assigned_to", assignees),
	)
	s.notify(ctx, events.TaskCreated, actor, t, assignees)
	return mapToResponse(t), nil
}

func (s *service) Resolve(ctx context.Context, actor rbac.Actor, id string, req ResolveTaskRequest) (TaskResponse, error) {
	s.logger.Debug("resolve task requested",
		zap.String("task_id", id),
		zap.String("actor_id", actor.ID),
		zap.String("decision", req.Decision),
	)

	if _, err := uuid.Parse(id); err != nil {
		return TaskResponse{}, taskerrors.ErrInvalidTaskID
	}
	decision := workflow.Decision(req.Decision)
	if !decision.IsValid() {
		return TaskResponse{}, apperror.ErrInvalidInput
	}

	var result Task
	err := txretry.Run(ctx, s.db, s.maxAttempts, s.logger, func(tx *gorm.DB) error {
		qtx := s.repo.WithTx(tx)

		t, err := s.load(ctx, qtx, id)
		if err != nil {
			return err
		}
		if !t.ApprovalRequired {
			return taskerrors.ErrApprovalNotRequired
		}

		history, err := workflow.ResolveSingleRound(t.ApprovalHistory, t.Approvers, actor, decision, req.Comments, s.now())
		if err != nil {
			return mapWorkflowError(err)
		}
		t.ApprovalHistory = datatypes.JSONSlice[workflow.HistoryEntry](history)

		if err := qtx.Save(ctx, t, t.Version); err != nil {
			return err
		}
		result = *t
		return nil
	})
	if err != nil {
		s.logger.Warn("resolve task failed",
			zap.String("task_id", id),
			zap.String("decision", req.Decision),
			zap.Error(err),
		)
		return TaskResponse{}, err
	}

	status := result.ApprovalStatus()
	s.logger.Info("resolve task success",
		zap.String("task_id", id),
		zap.String("approver_id", actor.ID),
		zap.String("status", string(status)),
	)

	eventType := events.TaskApproved
	if status == workflow.StatusRejected {
		eventType = events.TaskRejected
	}
	recipients := append([]string{result.CreatedBy.String()}, result.AssignedTo...)
	s.notify(ctx, eventType, actor, result, recipients)
	return mapToResponse(result), nil
}

// Delegate hands one assignee's share of the task to someone else.
func (s *service) Delegate(ctx context.Context, actor rbac.Actor, id string, req DelegateTaskRequest) (TaskResponse, error) {
	s.logger.Debug("delegate task requested",
		zap.String("task_id", id),
		zap.String("actor_id", actor.ID),
		zap.String("from", req.From),
		zap.String("to", req.To),
	)

	if !rbac.EffectivePermission(actor, rbac.TaskAssign) {
		return TaskResponse{}, apperror.ErrUnauthorized
	}
	if _, err := uuid.Parse(id); err != nil {
		return TaskResponse{}, taskerrors.ErrInvalidTaskID
	}
	from, err := canonicalRef(req.From)
	if err != nil {
		return TaskResponse{}, err
	}
	to, err := canonicalRef(req.To)
	if err != nil {
		return TaskResponse{}, err
	}
	req.From, req.To = from, to

	var result Task
	err = txretry.Run(ctx, s.db, s.maxAttempts, s.logger, func(tx *gorm.DB) error {
		qtx := s.repo.WithTx(tx)

		t, err := s.load(ctx, qtx, id)
		if err != nil {
			return err
		}
		if !t.IsAssignee(req.From) {
			return taskerrors.ErrNotAssignee
		}
		if t.IsAssignee(req.To) {
			return taskerrors.ErrAlreadyAssigned
		}

		assigned := make([]string, 0, len(t.AssignedTo))
		for _, a := range t.AssignedTo {
			if a == req.From {
				a = req.To
			}
			assigned = append(assigned, a)
		}
		t.AssignedTo = datatypes.JSONSlice[string](assigned)
		t.AssignmentHistory = append(t.AssignmentHistory, AssignmentEntry{
			AssignedBy:       actor.ID,
			AssignedTo:       req.To,
			PreviousAssignee: req.From,
			AssignmentLevel:  AssignmentDelegation,
			Reason:           req.Reason,
			Timestamp:        s.now().UTC(),
		})

		if err := qtx.Save(ctx, t, t.Version); err != nil {
			return err
		}
		result = *t
		return nil
	})
	if err != nil {
		s.logger.Warn("delegate task failed", zap.String("task_id", id), zap.Error(err))
		return TaskResponse{}, err
	}

	s.logger.Info("delegate task success",
		zap.String("task_id", id),
		zap.String("from", req.From),
		zap.String("to", req.To),
	)
	s.notify(ctx, events.TaskDelegated, actor, result, []string{req.To, req.From})
	return mapToResponse(result), nil
}

func (s *service) GetByID(ctx context.Context, actor rbac.Actor, id string) (TaskResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return TaskResponse{}, taskerrors.ErrInvalidTaskID
	}
	t, err := s.load(ctx, s.repo, id)
	if err != nil {
		return TaskResponse{}, err
	}
	if !canView(actor, *t) {
		return TaskResponse{}, apperror.ErrUnauthorized
	}
	return mapToResponse(*t), nil
}

func (s *service) ListAssigned(ctx context.Context, actor rbac.Actor) ([]TaskResponse, error) {
	if !rbac.EffectivePermission(actor, rbac.TaskView) {
		return nil, apperror.ErrUnauthorized
	}
	tasks, err := s.repo.ListByAssignee(ctx, actor.ID)
	if err != nil {
		s.logger.Error("list assigned tasks failed", zap.String("actor_id", actor.ID), zap.Error(err))
		return nil, err
	}
	resp := make([]TaskResponse, len(tasks))
	for i, t := range tasks {
		resp[i] = mapToResponse(t)
	}
	return resp, nil
}

func (s *service) load(ctx context.Context, repo Repository, id string) (*Task, error) {
	t, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, taskerrors.ErrTaskNotFound
		}
		return nil, err
	}
	return t, nil
}

func (s *service) notify(ctx context.Context, eventType string, actor rbac.Actor, t Task, recipients []string) {
	notification.Dispatch(ctx, s.notifier, s.logger, notification.Event{
		Type:          eventType,
		AggregateType: events.AggregateTask,
		AggregateID:   t.ID.String(),
		ActorID:       actor.ID,
		Recipients:    recipients,
		Status:        string(t.ApprovalStatus()),
		Attributes: map[string]string{
			"title": t.Title,
		},
		OccurredAt: s.now(),
	})
}

func canView(actor rbac.Actor, t Task) bool {
	if !actor.IsActive() {
		return false
	}
	if actor.IsAdmin() || rbac.HasAnyPermission(actor, rbac.TaskAssign) {
		return true
	}
	if !rbac.EffectivePermission(actor, rbac.TaskView) {
		return false
	}
	return actor.ID == t.CreatedBy.String() || t.IsAssignee(actor.ID) || t.IsApprover(actor.ID)
}

// canonicalRef parses an actor ref and returns its lower-case hyphenated form.
func canonicalRef(ref string) (string, error) {
	id, err := uuid.Parse(strings.TrimSpace(ref))
	if err != nil {
		return "", taskerrors.ErrInvalidAssignee
	}
	return id.String(), nil
}

// normalizeRefs validates actor ids and drops duplicates, keeping order.
func normalizeRefs(refs []string) ([]string, error) {
	out := make([]string, 0, len(refs))
	seen := make(map[string]struct{}, len(refs))
	for _, r := range refs {
		key, err := canonicalRef(r)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	return out, nil
}

func mapToResponse(t Task) TaskResponse {
	approvals := make([]ApprovalEntryResponse, 0, len(t.ApprovalHistory))
	for _, h := range t.ApprovalHistory {
		approvals = append(approvals, ApprovalEntryResponse{
			ApproverRef: h.ApproverRef,
			Status:      string(h.Status),
			Comments:    h.Comments,
			Timestamp:   h.Timestamp.Format(time.RFC3339),
		})
	}
	assignments := make([]AssignmentEntryResponse, 0, len(t.AssignmentHistory))
	for _, a := range t.AssignmentHistory {
		assignments = append(assignments, AssignmentEntryResponse{
			AssignedBy:       a.AssignedBy,
			AssignedTo:       a.AssignedTo,
			PreviousAssignee: a.PreviousAssignee,
			AssignmentLevel:  string(a.AssignmentLevel),
			Reason:           a.Reason,
			Timestamp:        a.Timestamp.Format(time.RFC3339),
		})
	}

	resp := TaskResponse{
		ID:                t.ID.String(),
		Title:             t.Title,
		Description:       t.Description,
		CreatedBy:         t.CreatedBy.String(),
		AssignedTo:        append([]string{}, t.AssignedTo...),
		ApprovalRequired:  t.ApprovalRequired,
		Approvers:         append([]string{}, t.Approvers...),
		ApprovalStatus:    string(t.ApprovalStatus()),
		ApprovalHistory:   approvals,
		AssignmentHistory: assignments,
		Version:           t.Version,
	}
	if t.DueDate != nil {
		v := t.DueDate.Format(dateLayout)
		resp.DueDate = &v
	}
	return resp
}
