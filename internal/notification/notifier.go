package notification

import (
	"context"
	"encoding/json"
	"time"

	"go-opsportal/internal/events"
	"go-opsportal/internal/messaging/kafka"
	"go-opsportal/internal/shared/contextutil"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Event describes a committed workflow transition.
type Event struct {
	Type          string
	AggregateType string
	AggregateID   string
	ActorID       string
	Recipients    []string
	Status        string
	Attributes    map[string]string
	OccurredAt    time.Time
}

//go:generate mockgen -source=notifier.go -destination=mock/notifier_mock.go -package=mock
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

type nopNotifier struct{}

func NewNop() Notifier { return nopNotifier{} }

func (nopNotifier) Notify(context.Context, Event) error { return nil }

// OutboxNotifier stores events in the outbox table for the producer worker.
type OutboxNotifier struct {
	repo   kafka.OutboxRepository
	logger *zap.Logger
}

func NewOutboxNotifier(repo kafka.OutboxRepository, logger ...*zap.Logger) *OutboxNotifier {
	l := zap.L().Named("notification.outbox")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("notification.outbox")
	}
	return &OutboxNotifier{repo: repo, logger: l}
}

func (n *OutboxNotifier) Notify(ctx context.Context, event Event) error {
	id := uuid.NewString()
	occurredAt := event.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}

	payload, err := json.Marshal(events.WorkflowEvent{
		EventID:       id,
		EventType:     event.Type,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		ActorID:       event.ActorID,
		Recipients:    event.Recipients,
		Status:        event.Status,
		Attributes:    event.Attributes,
		OccurredAt:    occurredAt.UTC(),
	})
	if err != nil {
		return err
	}

	if err := n.repo.Create(ctx, kafka.OutboxEvent{
		ID:            id,
		RequestID:     contextutil.GetRequestID(ctx),
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		EventType:     event.Type,
		Topic:         events.TopicFor(event.AggregateType),
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	}); err != nil {
		return err
	}

	n.logger.Debug("workflow event queued",
		zap.String("outbox_id", id),
		zap.String("event_type", event.Type),
		zap.String("aggregate_id", event.AggregateID),
	)
	return nil
}

// Dispatch calls n and logs a failure instead of returning it. Transitions
// are already committed when it runs.
func Dispatch(ctx context.Context, n Notifier, logger *zap.Logger, event Event) {
	if n == nil {
		return
	}
	if err := n.Notify(ctx, event); err != nil {
		log := contextutil.GetLogger(ctx, logger)
		log.Warn("workflow notification failed",
			append(contextutil.ExtractMetadata(ctx).Fields(),
				zap.String("event_type", event.Type),
				zap.String("aggregate_id", event.AggregateID),
				zap.Error(err),
			)...,
		)
	}
}
