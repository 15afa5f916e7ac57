package connection

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"go-opsportal/internal/config"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const retryDelay = 5 * time.Second

func ConnectGORMWithRetry(cfg config.DatabaseConfig) (*gorm.DB, error) {
	logger := zap.L().Named("connection.postgres")
	var lastErr error

	for i := 1; i <= cfg.MaxRetries; i++ {
		db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{})
		if err != nil {
			lastErr = err
			logger.Warn("gorm open failed", zap.Int("attempt", i), zap.Int("max_retries", cfg.MaxRetries), zap.Error(err))
			time.Sleep(retryDelay)
			continue
		}

		sqlDB, err := db.DB()
		if err != nil {
			lastErr = err
			logger.Warn("get sql.DB failed", zap.Int("attempt", i), zap.Int("max_retries", cfg.MaxRetries), zap.Error(err))
			time.Sleep(retryDelay)
			continue
		}

		if err := sqlDB.Ping(); err != nil {
			lastErr = err
			logger.Warn("db ping failed", zap.Int("attempt", i), zap.Int("max_retries", cfg.MaxRetries), zap.Error(err))
			time.Sleep(retryDelay)
			continue
		}

		// Pool config
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxLifetime(time.Hour)

		logger.Info("gorm connected to database", zap.String("host", cfg.Host), zap.String("db", cfg.Name))
		return db, nil
	}

	return nil, fmt.Errorf("database connection failed after %d retries: %w", cfg.MaxRetries, lastErr)
}

func ConnectRedisWithRetry(cfg config.RedisConfig) (*redis.Client, error) {
	logger := zap.L().Named("connection.redis")
	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.Addr,
	})

	var lastErr error
	for i := 1; i <= cfg.MaxRetries; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		err := rdb.Ping(ctx).Err()
		cancel()
		if err == nil {
			logger.Info("connected to redis", zap.String("addr", cfg.Addr))
			return rdb, nil
		}

		lastErr = err
		logger.Warn("redis ping failed", zap.Int("attempt", i), zap.Int("max_retries", cfg.MaxRetries), zap.Error(err))
		time.Sleep(retryDelay)
	}

	_ = rdb.Close()
	return nil, fmt.Errorf("failed to connect redis after %d retries: %w", cfg.MaxRetries, lastErr)
}

// ConnectKafkaWithRetry verifies the broker is reachable and returns a
// writer that routes by message topic.
func ConnectKafkaWithRetry(cfg config.KafkaConfig) (*kafkago.Writer, error) {
	logger := zap.L().Named("connection.kafka")
	if cfg.Broker == "" {
		return nil, fmt.Errorf("KAFKA_BROKER is required")
	}

	var lastErr error
	for i := 1; i <= cfg.MaxRetries; i++ {
		conn, err := kafkago.Dial("tcp", cfg.Broker)
		if err == nil {
			_, err = conn.Brokers()
			_ = conn.Close()
		}
		if err == nil {
			logger.Info("connected to kafka", zap.String("broker", cfg.Broker))
			return &kafkago.Writer{
				Addr:                   kafkago.TCP(cfg.Broker),
				Balancer:               &kafkago.Hash{},
				RequiredAcks:           kafkago.RequireAll,
				AllowAutoTopicCreation: true,
			}, nil
		}

		lastErr = err
		logger.Warn("kafka dial failed", zap.Int("attempt", i), zap.Int("max_retries", cfg.MaxRetries), zap.Error(err))
		time.Sleep(retryDelay)
	}

	return nil, fmt.Errorf("failed to connect kafka after %d retries: %w", cfg.MaxRetries, lastErr)
}

// EnsureTopics creates the given topics on the cluster controller when they
// do not exist yet.
func EnsureTopics(broker string, topics ...string) error {
	conn, err := kafkago.Dial("tcp", broker)
	if err != nil {
		return err
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return err
	}

	ctrlConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	if err != nil {
		return err
	}
	defer ctrlConn.Close()

	configs := make([]kafkago.TopicConfig, 0, len(topics))
	for _, t := range topics {
		configs = append(configs, kafkago.TopicConfig{Topic: t, NumPartitions: 3, ReplicationFactor: 1})
	}
	return ctrlConn.CreateTopics(configs...)
}
