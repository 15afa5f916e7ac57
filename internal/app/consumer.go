package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go-opsportal/internal/activity"
	"go-opsportal/internal/config"
	"go-opsportal/internal/events"
	"go-opsportal/internal/messaging/kafka/consumer"
	"go-opsportal/internal/shared/connection"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// RunConsumer records workflow events into the activity log until SIGINT or
// SIGTERM.
func RunConsumer(cfg config.Config) error {
	logger := zap.L().Named("app.consumer")

	gormDB, err := connection.ConnectGORMWithRetry(cfg.Database)
	if err != nil {
		return err
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	activityService := activity.NewService(activity.NewRepository(gormDB), logger)

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:        []string{cfg.Kafka.Broker},
		GroupID:        cfg.Kafka.ConsumerGroup,
		GroupTopics:    []string{events.LeaveWorkflowTopic, events.TaskWorkflowTopic},
		CommitInterval: 0,
		StartOffset:    kafkago.FirstOffset,
	})
	defer reader.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		consumer.ConsumeWorkflowEvents(ctx, reader, activityService, logger)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("consumer shutting down")
	cancel()
	<-done
	return nil
}
