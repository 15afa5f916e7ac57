package consumer

import (
	"context"
	"encoding/json"
	"time"

	"go-opsportal/internal/events"
	"go-opsportal/internal/shared/apperror"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageReader is the subset of *kafkago.Reader the consumer needs.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
}

// ActivityRecorder stores a workflow event at most once per event id.
type ActivityRecorder interface {
	Record(ctx context.Context, event events.WorkflowEvent) (bool, error)
}

// retryBackoff is the pause between attempts on a message whose storage failed.
var retryBackoff = 2 * time.Second

// ConsumeWorkflowEvents turns published workflow events into activity log
// entries until ctx is cancelled. Undecodable and invalid messages are
// committed and skipped. A storage failure retries the same message until it
// is recorded or ctx ends, so the offset never moves past an unrecorded event.
func ConsumeWorkflowEvents(
	ctx context.Context,
	reader MessageReader,
	recorder ActivityRecorder,
	logger *zap.Logger,
) {
	log := logger.Named("kafka.consumer.workflow_activity")
	log.Info("workflow activity consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("workflow activity consumer stopped")
				return
			}
			log.Error("fetch workflow message failed", zap.Error(err))
			continue
		}

		if !recordWithRetry(ctx, msg, recorder, log) {
			log.Info("workflow activity consumer stopped")
			return
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit workflow message failed", zap.Error(err))
		}
	}
}

// recordWithRetry reports false when ctx ended before the message was handled.
func recordWithRetry(ctx context.Context, msg kafkago.Message, recorder ActivityRecorder, log *zap.Logger) bool {
	for attempt := 1; ; attempt++ {
		err := handleMessage(ctx, msg, recorder, log)
		if err == nil {
			return true
		}
		log.Error("record workflow activity failed",
			zap.String("topic", msg.Topic),
			zap.Int64("offset", msg.Offset),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return false
		case <-time.After(retryBackoff):
		}
	}
}

// handleMessage returns an error only when the message should be retried.
func handleMessage(ctx context.Context, msg kafkago.Message, recorder ActivityRecorder, log *zap.Logger) error {
	var event events.WorkflowEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		log.Warn("decode workflow event failed, skipping", zap.Int64("offset", msg.Offset), zap.Error(err))
		return nil
	}
	if event.EventID == "" {
		event.EventID = headerValue(msg, "event_id")
	}

	inserted, err := recorder.Record(ctx, event)
	if err != nil {
		if apperror.IsCode(err, apperror.CodeInvalidInput) {
			log.Warn("invalid workflow event, skipping",
				zap.String("event_id", event.EventID),
				zap.String("event_type", event.EventType),
			)
			return nil
		}
		return err
	}

	if !inserted {
		log.Debug("workflow event already recorded", zap.String("event_id", event.EventID))
		return nil
	}
	log.Info("workflow activity recorded",
		zap.String("event_id", event.EventID),
		zap.String("event_type", event.EventType),
		zap.String("aggregate_id", event.AggregateID),
		zap.String("request_id", headerValue(msg, "request_id")),
	)
	return nil
}

func headerValue(msg kafkago.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}
