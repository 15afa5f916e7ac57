package activity

import (
	"context"
	"time"

	activityerrors "go-opsportal/internal/activity/errors"
	"go-opsportal/internal/events"
	"go-opsportal/internal/rbac"
	"go-opsportal/internal/shared/apperror"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

const listLimit = 200

//go:generate mockgen -source=activity_service.go -destination=mock/activity_service_mock.go -package=mock
type Service interface {
	Record(ctx context.Context, event events.WorkflowEvent) (bool, error)
	ListByAggregate(ctx context.Context, actor rbac.Actor, aggregateType, aggregateID string) ([]EntryResponse, error)
}

type service struct {
	repo   Repository
	logger *zap.Logger
}

func NewService(repo Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("activity.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("activity.service")
	}
	return &service{repo: repo, logger: l}
}

// Record stores the event once. A false result means the event id was
// already recorded.
func (s *service) Record(ctx context.Context, event events.WorkflowEvent) (bool, error) {
	id, err := uuid.Parse(event.EventID)
	if err != nil || event.AggregateID == "" || !knownAggregate(event.AggregateType) {
		return false, activityerrors.ErrInvalidEvent
	}

	attrs := make(datatypes.JSONMap, len(event.Attributes))
	for k, v := range event.Attributes {
		attrs[k] = v
	}
	occurredAt := event.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	inserted, err := s.repo.Insert(ctx, &Entry{
		ID:            id,
		EventType:     event.EventType,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		ActorID:       event.ActorID,
		Status:        event.Status,
		Recipients:    datatypes.JSONSlice[string](event.Recipients),
		Attributes:    attrs,
		OccurredAt:    occurredAt,
	})
	if err != nil {
		return false, err
	}
	if inserted {
		s.logger.Debug("activity recorded",
			zap.String("event_id", event.EventID),
			zap.String("event_type", event.EventType),
			zap.String("aggregate_id", event.AggregateID),
		)
	}
	return inserted, nil
}

func (s *service) ListByAggregate(ctx context.Context, actor rbac.Actor, aggregateType, aggregateID string) ([]EntryResponse, error) {
	if !rbac.EffectivePermission(actor, rbac.ReportView) {
		return nil, apperror.ErrUnauthorized
	}
	if !knownAggregate(aggregateType) {
		return nil, activityerrors.ErrUnknownAggregate
	}
	if _, err := uuid.Parse(aggregateID); err != nil {
		return nil, apperror.ErrInvalidInput
	}

	entries, err := s.repo.ListByAggregate(ctx, aggregateType, aggregateID, listLimit)
	if err != nil {
		s.logger.Error("list activity failed", zap.String("aggregate_id", aggregateID), zap.Error(err))
		return nil, err
	}

	resp := make([]EntryResponse, len(entries))
	for i, e := range entries {
		resp[i] = EntryResponse{
			EventID:     e.ID.String(),
			EventType:   e.EventType,
			ActorID:     e.ActorID,
			Status:      e.Status,
			Recipients:  e.Recipients,
			Attributes:  e.Attributes,
			OccurredAt:  e.OccurredAt.UTC().Format(time.RFC3339),
			AggregateID: e.AggregateID,
		}
	}
	return resp, nil
}

func knownAggregate(t string) bool {
	return t == events.AggregateLeave || t == events.AggregateTask
}
