package app

import (
	"go-opsportal/internal/activity"
	"go-opsportal/internal/actor"
	"go-opsportal/internal/config"
	"go-opsportal/internal/leave"
	"go-opsportal/internal/ledger"
	"go-opsportal/internal/messaging/kafka"
	"go-opsportal/internal/middleware"
	"go-opsportal/internal/notification"
	"go-opsportal/internal/rbac"
	"go-opsportal/internal/rbac/infra"
	"go-opsportal/internal/task"
	"go-opsportal/internal/workflow"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

func registerModules(
	router *gin.Engine,
	cfg config.Config,
	gormDB *gorm.DB,
	rdb *redis.Client,
	logger *zap.Logger,
) error {
	// --- Repositories ---
	actorRepo := actor.NewCachedRepository(actor.NewRepository(gormDB), rdb, cfg.Redis.ActorTTL, logger)
	leaveRepo := leave.NewRepository(gormDB)
	ledgerRepo := ledger.NewRepository(gormDB)
	taskRepo := task.NewRepository(gormDB)
	outboxRepo := kafka.NewOutboxRepository(gormDB)
	activityRepo := activity.NewRepository(gormDB)

	// --- RBAC Core ---
	enforcer, err := infra.NewEnforcer()
	if err != nil {
		return err
	}
	rbacService, err := rbac.NewService(enforcer, logger)
	if err != nil {
		return err
	}

	policy := workflow.NewPolicy(cfg.Workflow.ManagerMaxDays, cfg.Workflow.DepartmentHeadMaxDays)
	if err := policy.Validate(); err != nil {
		return err
	}
	notifier := notification.NewOutboxNotifier(outboxRepo, logger)

	// --- Services ---
	actorService := actor.NewService(actorRepo, logger)
	leaveService := leave.NewService(gormDB, leaveRepo, ledgerRepo, notifier, logger,
		leave.WithPolicy(policy),
		leave.WithMaxAttempts(cfg.Workflow.MaxAttempts),
	)
	ledgerService := ledger.NewService(gormDB, ledgerRepo, logger, ledger.WithMaxAttempts(cfg.Workflow.MaxAttempts))
	taskService := task.NewService(gormDB, taskRepo, notifier, logger, task.WithMaxAttempts(cfg.Workflow.MaxAttempts))
	activityService := activity.NewService(activityRepo, logger)

	// --- Handlers ---
	actorHandler := actor.NewHandler(actorService, logger)
	leaveHandler := leave.NewHandler(leaveService, logger)
	ledgerHandler := ledger.NewHandler(ledgerService, logger)
	taskHandler := task.NewHandler(taskService, logger)
	activityHandler := activity.NewHandler(activityService, logger)
	rbacHandler := rbac.NewHandler(rbacService, logger)

	// --- Middleware ---
	authn := []gin.HandlerFunc{
		middleware.AuthMiddleware(cfg.Auth.JWTSecret),
		middleware.ResolveActor(actorService, logger),
		middleware.RateLimitByActor(rate.Limit(cfg.HTTP.RateLimitPerSec), cfg.HTTP.RateLimitBurst),
	}
	idempotency := middleware.Idempotency(rdb, middleware.IdempotencyConfig{
		TTL:     cfg.HTTP.IdempotencyTTL,
		LockTTL: cfg.HTTP.IdempotencyLockTTL,
	}, logger)

	router.Use(
		middleware.RequestID(),
		middleware.ContextLogger(logger),
		middleware.RateLimitByIP(rate.Limit(cfg.HTTP.RateLimitPerSec*2), cfg.HTTP.RateLimitBurst*2),
	)

	// --- Routes Registration ---
	api := router.Group("/api/v1")
	{
		actor.RegisterRoutes(api, actorHandler, authn...)
		leave.RegisterRoutes(api, leaveHandler, rbacService, idempotency, authn...)
		ledger.RegisterRoutes(api, ledgerHandler, idempotency, authn...)
		task.RegisterRoutes(api, taskHandler, rbacService, idempotency, authn...)
		activity.RegisterRoutes(api, activityHandler, rbacService, authn...)
		rbac.RegisterRoutes(api, rbacHandler, authn...)
	}

	return nil
}
