package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Environment string
	HTTP        HTTPConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Kafka       KafkaConfig
	Auth        AuthConfig
	Workflow    WorkflowConfig
}

type HTTPConfig struct {
	Port               string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	IdleTimeout        time.Duration
	RateLimitPerSec    float64
	RateLimitBurst     int
	IdempotencyTTL     time.Duration
	IdempotencyLockTTL time.Duration
}

type DatabaseConfig struct {
	Host        string
	User        string
	Password    string
	Name        string
	Port        string
	SSLMode     string
	MaxRetries  int
	AutoMigrate bool
}

type RedisConfig struct {
	Addr       string
	// ActorTTL bounds how long a status change made outside the service stays unseen.
	ActorTTL   time.Duration
	MaxRetries int
}

type KafkaConfig struct {
	Broker             string
	ConsumerGroup      string
	OutboxPollInterval time.Duration
	OutboxBatchSize    int
	MaxRetries         int
}

type AuthConfig struct {
	JWTSecret string
}

// WorkflowConfig holds the leave approval thresholds and the number of
// attempts the domain services make on version conflicts.
type WorkflowConfig struct {
	ManagerMaxDays        int
	DepartmentHeadMaxDays int
	MaxAttempts           int
}

// Load reads .env (if present) and the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	cfg := Config{
		Environment: v.GetString("APP_ENV"),
		HTTP: HTTPConfig{
			Port:               v.GetString("PORT"),
			ReadTimeout:        v.GetDuration("HTTP_READ_TIMEOUT"),
			WriteTimeout:       v.GetDuration("HTTP_WRITE_TIMEOUT"),
			IdleTimeout:        v.GetDuration("HTTP_IDLE_TIMEOUT"),
			RateLimitPerSec:    v.GetFloat64("RATE_LIMIT_PER_SEC"),
			RateLimitBurst:     v.GetInt("RATE_LIMIT_BURST"),
			IdempotencyTTL:     v.GetDuration("IDEMPOTENCY_TTL"),
			IdempotencyLockTTL: v.GetDuration("IDEMPOTENCY_LOCK_TTL"),
		},
		Database: DatabaseConfig{
			Host:        v.GetString("DB_HOST"),
			User:        v.GetString("DB_USER"),
			Password:    v.GetString("DB_PASSWORD"),
			Name:        v.GetString("DB_NAME"),
			Port:        v.GetString("DB_PORT"),
			SSLMode:     v.GetString("DB_SSLMODE"),
			MaxRetries:  v.GetInt("DB_MAX_RETRIES"),
			AutoMigrate: v.GetBool("DB_AUTO_MIGRATE"),
		},
		Redis: RedisConfig{
			Addr:       v.GetString("REDIS_ADDR"),
			ActorTTL:   v.GetDuration("ACTOR_CACHE_TTL"),
			MaxRetries: v.GetInt("REDIS_MAX_RETRIES"),
		},
		Kafka: KafkaConfig{
			Broker:             v.GetString("KAFKA_BROKER"),
			ConsumerGroup:      v.GetString("KAFKA_CONSUMER_GROUP"),
			OutboxPollInterval: v.GetDuration("OUTBOX_POLL_INTERVAL"),
			OutboxBatchSize:    v.GetInt("OUTBOX_BATCH_SIZE"),
			MaxRetries:         v.GetInt("KAFKA_MAX_RETRIES"),
		},
		Auth: AuthConfig{
			JWTSecret: v.GetString("JWT_SECRET"),
		},
		Workflow: WorkflowConfig{
			ManagerMaxDays:        v.GetInt("WORKFLOW_MANAGER_MAX_DAYS"),
			DepartmentHeadMaxDays: v.GetInt("WORKFLOW_DEPARTMENT_HEAD_MAX_DAYS"),
			MaxAttempts:           v.GetInt("WORKFLOW_MAX_ATTEMPTS"),
		},
	}

	return cfg, cfg.Validate()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("PORT", "3000")
	v.SetDefault("HTTP_READ_TIMEOUT", 5*time.Second)
	v.SetDefault("HTTP_WRITE_TIMEOUT", 10*time.Second)
	v.SetDefault("HTTP_IDLE_TIMEOUT", 60*time.Second)
	v.SetDefault("RATE_LIMIT_PER_SEC", 10)
	v.SetDefault("RATE_LIMIT_BURST", 20)
	v.SetDefault("IDEMPOTENCY_TTL", 24*time.Hour)
	v.SetDefault("IDEMPOTENCY_LOCK_TTL", 30*time.Second)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_RETRIES", 5)
	v.SetDefault("DB_AUTO_MIGRATE", true)

	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("ACTOR_CACHE_TTL", 30*time.Second)
	v.SetDefault("REDIS_MAX_RETRIES", 5)

	v.SetDefault("KAFKA_CONSUMER_GROUP", "opsportal-activity")
	v.SetDefault("OUTBOX_POLL_INTERVAL", 3*time.Second)
	v.SetDefault("OUTBOX_BATCH_SIZE", 50)
	v.SetDefault("KAFKA_MAX_RETRIES", 5)

	v.SetDefault("WORKFLOW_MANAGER_MAX_DAYS", 14)
	v.SetDefault("WORKFLOW_DEPARTMENT_HEAD_MAX_DAYS", 30)
	v.SetDefault("WORKFLOW_MAX_ATTEMPTS", 3)
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Database.Name) == "" || strings.TrimSpace(c.Database.User) == "" {
		return fmt.Errorf("DB_NAME and DB_USER are required")
	}
	if c.Environment == "production" && strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}
	if c.Workflow.ManagerMaxDays <= 0 || c.Workflow.DepartmentHeadMaxDays <= c.Workflow.ManagerMaxDays {
		return fmt.Errorf("workflow thresholds must satisfy 0 < manager < department_head, got %d and %d",
			c.Workflow.ManagerMaxDays, c.Workflow.DepartmentHeadMaxDays)
	}
	if c.Workflow.MaxAttempts < 1 {
		return fmt.Errorf("WORKFLOW_MAX_ATTEMPTS must be at least 1")
	}
	if c.HTTP.RateLimitPerSec <= 0 || c.HTTP.RateLimitBurst <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_SEC and RATE_LIMIT_BURST must be positive")
	}
	return nil
}

// DSN renders the postgres connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode,
	)
}
