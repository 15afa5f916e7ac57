package app

import (
	"go-opsportal/internal/config"
	"go-opsportal/internal/shared/connection"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BuildApp connects the stores and mounts every module on router. The
// returned func closes the connections.
func BuildApp(router *gin.Engine, cfg config.Config) (func(), error) {
	logger := zap.L().Named("app")

	gormDB, err := connection.ConnectGORMWithRetry(cfg.Database)
	if err != nil {
		return nil, err
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, err
	}
	logger.Info("database connection established")

	if cfg.Database.AutoMigrate {
		if err := Migrate(gormDB); err != nil {
			_ = sqlDB.Close()
			return nil, err
		}
		logger.Info("schema migrated")
	}

	redisClient, err := connection.ConnectRedisWithRetry(cfg.Redis)
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	logger.Info("redis connection established")

	cleanup := func() {
		_ = redisClient.Close()
		_ = sqlDB.Close()
	}

	if err := registerModules(router, cfg, gormDB, redisClient, zap.L()); err != nil {
		cleanup()
		return nil, err
	}
	return cleanup, nil
}
