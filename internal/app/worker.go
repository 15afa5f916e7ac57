package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go-opsportal/internal/config"
	"go-opsportal/internal/events"
	"go-opsportal/internal/messaging/kafka"
	"go-opsportal/internal/messaging/kafka/producer"
	"go-opsportal/internal/shared/connection"

	"go.uber.org/zap"
)

// RunWorker publishes outbox rows to Kafka until SIGINT or SIGTERM.
func RunWorker(cfg config.Config) error {
	logger := zap.L().Named("app.worker")

	gormDB, err := connection.ConnectGORMWithRetry(cfg.Database)
	if err != nil {
		return err
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	kafkaWriter, err := connection.ConnectKafkaWithRetry(cfg.Kafka)
	if err != nil {
		return err
	}
	defer kafkaWriter.Close()

	if err := connection.EnsureTopics(cfg.Kafka.Broker, events.LeaveWorkflowTopic, events.TaskWorkflowTopic); err != nil {
		logger.Warn("ensure topics failed", zap.Error(err))
	}

	outboxRepo := kafka.NewOutboxRepository(gormDB)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		producer.ProcessOutboxEvents(ctx, outboxRepo, kafkaWriter, logger, producer.WorkerConfig{
			PollInterval: cfg.Kafka.OutboxPollInterval,
			BatchSize:    cfg.Kafka.OutboxBatchSize,
		})
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("worker shutting down")
	cancel()
	<-done
	return nil
}
