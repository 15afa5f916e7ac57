package main

import (
	"go-opsportal/internal/app"
	"go-opsportal/internal/bootstrap"
	"go-opsportal/internal/config"
	"go-opsportal/internal/shared/apperror"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := newLogger(cfg.Environment)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	if err := apperror.Init(); err != nil {
		logger.Fatal("init validation failed", zap.Error(err))
	}
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	cleanup, err := app.BuildApp(r, cfg)
	if err != nil {
		logger.Fatal("build app failed", zap.Error(err))
	}
	defer cleanup()

	bootstrap.StartHTTPServer(r, bootstrap.ServerConfigFrom(cfg.HTTP), bootstrap.NewStdoutAuditLogger(logger))
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
